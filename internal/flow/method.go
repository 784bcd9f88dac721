package flow

import (
	"fmt"
	"strings"
)

// LoginMethod selects how the user authenticates. The set is closed: BrowserLogin or NativeLogin.
type LoginMethod interface {
	loginMethod()
}

// BrowserLogin delegates the interactive step to the system browser.
type BrowserLogin struct{}

// NativeLogin collects credentials in the host application. It is not supported yet and always
// ends the flow with oauth.ErrUnsupportedLoginMethod.
type NativeLogin struct {
	Username string
	Password string
}

func (BrowserLogin) loginMethod() {}
func (NativeLogin) loginMethod()  {}

// ParseLoginMethod maps a configuration value to a LoginMethod.
func ParseLoginMethod(name string) (LoginMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "browser":
		return BrowserLogin{}, nil
	case "native":
		return NativeLogin{}, nil
	default:
		return nil, fmt.Errorf("unknown login method: %q", name)
	}
}
