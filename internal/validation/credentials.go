package validation

import (
	"errors"
	"fmt"
	"strings"
)

const (
	apiKeyLength    = 32
	accountIDLength = 17
)

var (
	ErrInvalidAPIKey    = errors.New("API key must be 32 hexadecimal characters")
	ErrInvalidAccountID = errors.New("account id must be a 17 digit number")
)

// NormalizeAPIKey trims the key and upper-cases it.
func NormalizeAPIKey(key string) (string, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if len(key) != apiKeyLength || !isHexString(key) {
		return "", ErrInvalidAPIKey
	}
	return key, nil
}

func NormalizeAccountID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if len(id) != accountIDLength || !isDigits(id) {
		return "", ErrInvalidAccountID
	}
	return id, nil
}

// Credentials is the validated form of user supplied catalog settings.
type Credentials struct {
	APIKey       string
	AccountID    string
	ProxyBaseURL string
}

// ValidateCredentials checks every field and reports all problems at once.
func ValidateCredentials(apiKey, accountID, proxy string) (Credentials, error) {
	var out Credentials
	var errs []error
	var err error

	if out.APIKey, err = NormalizeAPIKey(apiKey); err != nil {
		errs = append(errs, err)
	}
	if out.AccountID, err = NormalizeAccountID(accountID); err != nil {
		errs = append(errs, err)
	}
	if out.ProxyBaseURL, err = NewProxyURLValidator().ValidateAndNormalize(proxy); err != nil {
		errs = append(errs, fmt.Errorf("proxy: %w", err))
	}
	return out, errors.Join(errs...)
}

// MaskSecret keeps the last four characters of s visible.
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func isHexString(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
