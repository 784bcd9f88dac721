package handler

import (
	"net/url"

	"github.com/stretchr/testify/mock"

	"github.com/shivanshkc/oidcflow/internal/flow"
)

// mockCompleter is a mock implementation of the Completer interface.
type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(requestCode string, status flow.ResultStatus, redirect *url.URL) error {
	args := m.Called(requestCode, status, redirect)
	return args.Error(0)
}

// staticCode is a RequestCoder that always returns the same code.
type staticCode string

func (s staticCode) RequestCode() string {
	return string(s)
}
