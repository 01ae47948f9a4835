// Package credentials derives per-registrant tokens and renders them into QR codes.
package credentials

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// TokenLength is the length of a derived token in hex characters.
const TokenLength = sha256.Size * 2

// ValidatePath is the route prefix embedded into every QR code.
const ValidatePath = "/validate/"

// DeriveToken binds a registrant identifier and issuance time to the server secret.
// The output is irreversible and does not reveal the secret.
func DeriveToken(secret []byte, externalID string, issuedAt time.Time) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(externalID))
	mac.Write([]byte{':'})
	mac.Write([]byte(issuedAt.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(mac.Sum(nil))
}

// NormalizeToken extracts a token from raw scanner input. Input may be the bare token or
// the full validation URL; the result is lowercased. ok is false for anything that
// cannot be a derived token.
func NormalizeToken(raw string) (token string, ok bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", false
	}

	if idx := strings.LastIndex(raw, ValidatePath); idx >= 0 {
		raw = raw[idx+len(ValidatePath):]
		if cut := strings.IndexAny(raw, "/?#"); cut >= 0 {
			raw = raw[:cut]
		}
	}

	if len(raw) != TokenLength {
		return "", false
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", false
	}
	return raw, true
}

// ParseBaseURL validates a scheme://host[:port] base and strips trailing slashes.
func ParseBaseURL(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", errors.New("credentials: base url is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("credentials: parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("credentials: base url scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", errors.New("credentials: base url host is required")
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return "", errors.New("credentials: base url must not carry a query or fragment")
	}
	return raw, nil
}

// ValidationURL builds the address encoded into the QR code.
func ValidationURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + ValidatePath + token
}

// ImageKey returns the storage key for a registrant's QR image. The token prefix keeps
// keys distinct across reissues.
func ImageKey(externalID, token string) string {
	prefix := token
	if len(prefix) > 12 {
		prefix = prefix[:12]
	}
	return fmt.Sprintf("qr/qr_%s_%s.png", sanitizeKeySegment(externalID), prefix)
}

func sanitizeKeySegment(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "registrant"
	}
	return b.String()
}
