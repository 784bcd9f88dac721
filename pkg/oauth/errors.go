package oauth

import (
	"fmt"
	"net/url"
)

// ErrorType groups errors by the protocol stage that produced them.
type ErrorType int

const (
	// TypeGeneral is for errors that are not reported by the authorization server.
	TypeGeneral ErrorType = iota
	// TypeAuthorization is for errors returned on the authorization redirect.
	TypeAuthorization
	// TypeToken is for errors returned by the token endpoint.
	TypeToken
)

func (t ErrorType) String() string {
	switch t {
	case TypeGeneral:
		return "general"
	case TypeAuthorization:
		return "authorization"
	case TypeToken:
		return "token"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Query parameter and JSON field names that carry an OAuth error.
const (
	ParamError            = "error"
	ParamErrorDescription = "error_description"
	ParamErrorURI         = "error_uri"
)

// Error is the single error type delivered to flow callers.
//
// Two errors are considered equal by errors.Is when their Type and Code match, so the package level
// values below can be used as sentinels even after WithCause or WithDetails.
type Error struct {
	Type ErrorType
	Code int
	// Name is the canonical OAuth error string, for example "invalid_grant".
	Name        string
	Description string
	URI         string
	Cause       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error %d", e.Type, e.Code)
	if e.Name != "" {
		msg += " (" + e.Name + ")"
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Type and Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause attached.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.Cause = err
	return &c
}

// WithDetails returns a copy of the error carrying a server supplied name, description and URI.
// Empty values leave the template values untouched.
func (e *Error) WithDetails(name, description, uri string) *Error {
	c := *e
	if name != "" {
		c.Name = name
	}
	if description != "" {
		c.Description = description
	}
	if uri != "" {
		c.URI = uri
	}
	return &c
}

func newError(typ ErrorType, code int, name, description string) *Error {
	return &Error{Type: typ, Code: code, Name: name, Description: description}
}

// General errors.
//
// ErrInvalidRegistrationResponse is also used when a redirect cannot be turned into a response.
var (
	ErrInvalidDiscoveryDocument    = newError(TypeGeneral, 0, "", "Invalid discovery document")
	ErrUserCanceled                = newError(TypeGeneral, 1, "", "User cancelled flow")
	ErrProgramCanceled             = newError(TypeGeneral, 2, "", "Flow cancelled programmatically")
	ErrNetwork                     = newError(TypeGeneral, 3, "", "Network error")
	ErrServer                      = newError(TypeGeneral, 4, "", "Server error")
	ErrJSONDeserialization         = newError(TypeGeneral, 5, "", "JSON deserialization error")
	ErrTokenResponseConstruct      = newError(TypeGeneral, 6, "", "Token response construction error")
	ErrInvalidRegistrationResponse = newError(TypeGeneral, 7, "", "Invalid registration response")
	ErrIDTokenParsing              = newError(TypeGeneral, 8, "", "Unable to parse ID Token")
	ErrIDTokenValidation           = newError(TypeGeneral, 9, "", "Invalid ID Token")
	ErrNoRegisteredHandler         = newError(TypeGeneral, 10, "", "No uri registered to handle redirect")
	ErrUnsupportedLoginMethod      = newError(TypeGeneral, 11, "", "Login method is not supported")
)

// Authorization request errors. See https://tools.ietf.org/html/rfc6749#section-4.1.2.1
var (
	ErrAuthInvalidRequest          = newError(TypeAuthorization, 1000, "invalid_request", "")
	ErrAuthUnauthorizedClient      = newError(TypeAuthorization, 1001, "unauthorized_client", "")
	ErrAuthAccessDenied            = newError(TypeAuthorization, 1002, "access_denied", "")
	ErrAuthUnsupportedResponseType = newError(TypeAuthorization, 1003, "unsupported_response_type", "")
	ErrAuthInvalidScope            = newError(TypeAuthorization, 1004, "invalid_scope", "")
	ErrAuthServerError             = newError(TypeAuthorization, 1005, "server_error", "")
	ErrAuthTemporarilyUnavailable  = newError(TypeAuthorization, 1006, "temporarily_unavailable", "")
	ErrAuthClientError             = newError(TypeAuthorization, 1007, "", "")
	ErrAuthOther                   = newError(TypeAuthorization, 1008, "", "")
	ErrStateMismatch               = newError(TypeAuthorization, 1009, "",
		"Response state param did not match request state")
)

// Token request errors. See https://tools.ietf.org/html/rfc6749#section-5.2
var (
	ErrTokenInvalidRequest       = newError(TypeToken, 2000, "invalid_request", "")
	ErrTokenInvalidClient        = newError(TypeToken, 2001, "invalid_client", "")
	ErrTokenInvalidGrant         = newError(TypeToken, 2002, "invalid_grant", "")
	ErrTokenUnauthorizedClient   = newError(TypeToken, 2003, "unauthorized_client", "")
	ErrTokenUnsupportedGrantType = newError(TypeToken, 2004, "unsupported_grant_type", "")
	ErrTokenInvalidScope         = newError(TypeToken, 2005, "invalid_scope", "")
	ErrTokenClientError          = newError(TypeToken, 2006, "", "")
	ErrTokenOther                = newError(TypeToken, 2007, "", "")
)

var authorizationErrors = []*Error{
	ErrAuthInvalidRequest,
	ErrAuthUnauthorizedClient,
	ErrAuthAccessDenied,
	ErrAuthUnsupportedResponseType,
	ErrAuthInvalidScope,
	ErrAuthServerError,
	ErrAuthTemporarilyUnavailable,
}

var tokenErrors = []*Error{
	ErrTokenInvalidRequest,
	ErrTokenInvalidClient,
	ErrTokenInvalidGrant,
	ErrTokenUnauthorizedClient,
	ErrTokenUnsupportedGrantType,
	ErrTokenInvalidScope,
}

// AuthorizationErrorByName returns the authorization error template for the given canonical string.
// Unknown strings map to ErrAuthOther.
func AuthorizationErrorByName(name string) *Error {
	return byName(authorizationErrors, ErrAuthOther, name)
}

// TokenErrorByName returns the token error template for the given canonical string.
// Unknown strings map to ErrTokenOther.
func TokenErrorByName(name string) *Error {
	return byName(tokenErrors, ErrTokenOther, name)
}

func byName(templates []*Error, other *Error, name string) *Error {
	for _, t := range templates {
		if t.Name == name {
			return t
		}
	}
	return other
}

// ErrorFromRedirect builds the authorization error encoded in the query of a redirect URI.
// It returns nil if the redirect does not carry an error.
func ErrorFromRedirect(redirect *url.URL) *Error {
	q := redirect.Query()
	if !q.Has(ParamError) {
		return nil
	}

	name := q.Get(ParamError)
	return AuthorizationErrorByName(name).WithDetails(name, q.Get(ParamErrorDescription), q.Get(ParamErrorURI))
}
