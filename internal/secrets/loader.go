package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where a credential can be found.
type Source struct {
	// Name is used in error messages.
	Name string
	// File points to a file holding the secret. It wins over Env and Value.
	File string
	// Env names an environment variable holding the secret. It wins over Value.
	Env string
	// Value is an inline secret from configuration.
	Value string
}

// Load resolves the secret in File, Env, Value order and trims it.
// It fails when the winning source is empty or nothing is configured.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}

		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if value, ok := os.LookupEnv(env); ok {
			secret := strings.TrimSpace(value)
			if secret == "" {
				return "", fmt.Errorf("%s environment variable %s is empty", name, env)
			}
			return secret, nil
		}
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}
