package miscutils

import (
	"errors"
	"fmt"
	"net/url"
)

// ParseRedirectURI parses an absolute redirect URI.
//
// The scheme is always required. Web schemes also need a host, private-use schemes such as
// "com.example.app:/cb" do not.
func ParseRedirectURI(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("error in url.Parse call: %w", err)
	}
	if parsed.Scheme == "" {
		return nil, errors.New("redirect uri has no scheme")
	}
	if (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Hostname() == "" {
		return nil, errors.New("redirect uri has no host")
	}
	return parsed, nil
}
