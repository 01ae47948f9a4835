package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charlesng35/gatepass/pkg/crypto"
)

const (
	credentialSecretBytes = 32
	adminKeyBytes         = 24
)

// Generated config keys reported by ApplyRuntimeDefaults.
const (
	GeneratedCredentialSecret = "credentials.secret"
	GeneratedAdminKey         = "admin.api_key"
)

// ApplyRuntimeDefaults ensures critical secrets are populated even when no configuration file is supplied.
// It returns a map describing which keys were generated so callers can log the event without exposing values.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	if strings.TrimSpace(cfg.Credentials.Secret) == "" {
		secret, err := generateHexKey(credentialSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate credential secret: %w", err)
		}
		cfg.Credentials.Secret = secret
		generated[GeneratedCredentialSecret] = true
	}

	if strings.TrimSpace(cfg.Admin.APIKey) == "" && strings.TrimSpace(cfg.Admin.APIKeyHash) == "" {
		key, err := crypto.GenerateToken(adminKeyBytes)
		if err != nil {
			return nil, fmt.Errorf("generate admin key: %w", err)
		}
		cfg.Admin.APIKey = key
		generated[GeneratedAdminKey] = true
	}

	return generated, nil
}

func generateHexKey(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
