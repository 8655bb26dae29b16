// Package config provides application configuration management through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all vault configuration.
type Config struct {
	// Storage layout
	StateDir  string // base directory holding per-vault subdirectories
	VaultName string // subdirectory name under StateDir; the envelope lives at StateDir/VaultName/vault.enc

	// Backend selection
	DefaultBackend   string // backend identifier used by "vault init"
	PBKDF2Iterations int    // iteration count for the openssl-pbkdf2 backend
	KMSKeyURI        string // gocloud.dev/secrets key URI used by the dpapi+tpm backend

	// Unlocked-state behavior
	AutoLockTimeout time.Duration // 0 disables auto-lock

	// Logging
	LogLevel string

	// Metrics
	MetricsEnabled   bool
	MetricsNamespace string
	MetricsPort      int

	// Audit sink
	AuditEnabled bool
}

// Load loads configuration from environment variables.
// It first attempts to load a .env file by searching recursively from the current directory
// up to the root directory. If no .env file is found, it continues with existing environment variables.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Storage layout
		StateDir:  env.GetString("VAULT_STATE_DIR", defaultStateDir()),
		VaultName: env.GetString("VAULT_NAME", "default"),

		// Backend selection
		DefaultBackend:   env.GetString("VAULT_DEFAULT_BACKEND", "openssl-pbkdf2"),
		PBKDF2Iterations: env.GetInt("VAULT_PBKDF2_ITERATIONS", 600_000),
		KMSKeyURI:        env.GetString("VAULT_KMS_KEY_URI", ""),

		// Unlocked-state behavior
		AutoLockTimeout: env.GetDuration("VAULT_AUTO_LOCK_TIMEOUT", 5, time.Minute),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "teevault"),
		MetricsPort:      env.GetInt("METRICS_PORT", 9090),

		// Audit sink
		AuditEnabled: env.GetBool("VAULT_AUDIT_ENABLED", true),
	}
}

// defaultStateDir returns $XDG_STATE_HOME/teevault, falling back to
// ~/.local/state/teevault when XDG_STATE_HOME is unset.
func defaultStateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "teevault")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".teevault"
	}
	return filepath.Join(home, ".local", "state", "teevault")
}

// VaultDir returns the directory containing this configuration's vault.enc.
func (c *Config) VaultDir() string {
	return filepath.Join(c.StateDir, c.VaultName)
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
