// Package auth resolves the hub access token. Lookup order: environment
// variables, then the OS keyring. An empty token means anonymous access;
// the probe may degrade and commits will be rejected by the hub.
package auth

import (
	"fmt"
	"os"

	"github.com/zalando/go-keyring"

	"github.com/hugeolab/hubsync/internal/utils"
)

const keyringUser = "token"

// Token returns the hub access token, or "" when none is configured.
func Token() string {
	for _, env := range utils.TokenEnvVars {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	if v, err := keyring.Get(utils.KeyringService, keyringUser); err == nil {
		return v
	}
	return ""
}

// SaveToken stores the token in the OS keyring.
func SaveToken(token string) error {
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}
	if err := keyring.Set(utils.KeyringService, keyringUser, token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

// DeleteToken removes the token from the OS keyring.
func DeleteToken() error {
	if err := keyring.Delete(utils.KeyringService, keyringUser); err != nil {
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}
