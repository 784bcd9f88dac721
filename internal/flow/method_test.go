package flow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLoginMethod(t *testing.T) {
	for _, tc := range []struct {
		input       string
		expected    LoginMethod
		errExpected bool
	}{
		{input: "", expected: BrowserLogin{}},
		{input: "browser", expected: BrowserLogin{}},
		{input: " Native ", expected: NativeLogin{}},
		{input: "carrier-pigeon", errExpected: true},
	} {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			method, err := ParseLoginMethod(tc.input)
			if tc.errExpected {
				require.Error(t, err, "Expected error but got none")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, method)
		})
	}
}

func TestState_String(t *testing.T) {
	require.Equal(t, "INIT", StateInit.String())
	require.Equal(t, "CODE_EXCHANGE", StateCodeExchange.String())
	require.Equal(t, "FINISHED", StateFinished.String())
	require.Equal(t, "State(9)", State(9).String())
}

func TestPhases(t *testing.T) {
	// Callers match on these strings.
	require.Equal(t, "configuration", PhaseConfiguration)
	require.Equal(t, "authorization", PhaseAuthorization)
	require.Equal(t, "Code exchange", PhaseCodeExchange)
}
