package oauth

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Is(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrNetwork.WithCause(errors.New("connection reset")))
	require.ErrorIs(t, wrapped, ErrNetwork, "Expected copies to match their template")
	require.NotErrorIs(t, wrapped, ErrServer, "Expected different codes not to match")

	// Same code, different type.
	require.NotErrorIs(t, ErrAuthInvalidRequest, ErrTokenInvalidRequest)

	cause := errors.New("root cause")
	require.ErrorIs(t, ErrServer.WithCause(cause), cause, "Expected the cause to be unwrappable")
}

func TestError_WithDetails(t *testing.T) {
	detailed := ErrTokenInvalidGrant.WithDetails("", "code expired", "https://docs.example.com")
	require.Equal(t, "invalid_grant", detailed.Name, "Empty name must keep the template name")
	require.Equal(t, "code expired", detailed.Description)
	require.Equal(t, "https://docs.example.com", detailed.URI)
	require.Empty(t, ErrTokenInvalidGrant.Description, "Template must not be modified")
}

func TestErrorByName(t *testing.T) {
	for _, tc := range []struct {
		name     string
		lookup   func(string) *Error
		input    string
		expected *Error
	}{
		{name: "Known authorization error", lookup: AuthorizationErrorByName, input: "access_denied",
			expected: ErrAuthAccessDenied},
		{name: "Unknown authorization error", lookup: AuthorizationErrorByName, input: "weird",
			expected: ErrAuthOther},
		{name: "Known token error", lookup: TokenErrorByName, input: "invalid_client",
			expected: ErrTokenInvalidClient},
		{name: "Unknown token error", lookup: TokenErrorByName, input: "weird", expected: ErrTokenOther},
		{name: "Empty token error", lookup: TokenErrorByName, input: "", expected: ErrTokenOther},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.lookup(tc.input), tc.expected)
		})
	}
}

func TestErrorFromRedirect(t *testing.T) {
	redirect, err := url.Parse(mockRedirectURI +
		"?error=access_denied&error_description=user+said+no&error_uri=https%3A%2F%2Fexample.com")
	require.NoError(t, err)

	authErr := ErrorFromRedirect(redirect)
	require.NotNil(t, authErr, "Expected an error to be extracted")
	require.ErrorIs(t, authErr, ErrAuthAccessDenied)
	require.Equal(t, "user said no", authErr.Description)
	require.Equal(t, "https://example.com", authErr.URI)

	clean, err := url.Parse(mockRedirectURI + "?code=abc")
	require.NoError(t, err)
	require.Nil(t, ErrorFromRedirect(clean), "Expected no error without an error parameter")
}
