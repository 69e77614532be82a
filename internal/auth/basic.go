package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DecodeCredentials parses a header value of the form
// base64("username:password"). The password may itself contain colons; only
// the first one separates the two parts.
func DecodeCredentials(token string) (string, string, error) {
	if token == "" {
		return "", "", errors.New("empty token")
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", "", fmt.Errorf("decode token: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", "", errors.New("token is not valid utf-8")
	}
	username, password, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", "", errors.New("token missing separator")
	}
	if username == "" || password == "" {
		return "", "", errors.New("empty username or password")
	}
	return username, password, nil
}
