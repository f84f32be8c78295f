package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tari-project/tapplet-host/internal/domain"
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*RuntimeConfig, error) {
	dataDir := v.GetString("data_dir")
	if dataDir == "" {
		var err error
		dataDir, err = DefaultDataDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve data dir: %w", err)
		}
	}

	cfg := &RuntimeConfig{
		DataDir:         dataDir,
		ListenAddr:      v.GetString("listen"),
		CSP:             v.GetString("csp"),
		DaemonURL:       v.GetString("daemon_url"),
		DaemonToken:     v.GetString("daemon_token"),
		DaemonTimeout:   v.GetDuration("daemon_timeout"),
		FinalizeTimeout: v.GetDuration("finalize_timeout"),
		Debug:           v.GetBool("debug"),
		NonInteractive:  v.GetBool("non_interactive"),
		JSON:            v.GetBool("json"),
		Timeout:         v.GetDuration("timeout"),
	}

	if cfg.DaemonURL == "" {
		return nil, fmt.Errorf("daemon_url must not be empty")
	}
	if cfg.FinalizeTimeout <= 0 {
		return nil, fmt.Errorf("finalize_timeout must be positive, got %s", cfg.FinalizeTimeout)
	}

	return cfg, nil
}

// DefaultDataDir returns ~/.tapp-host
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tapp-host"), nil
}

// SetupViper creates and configures a viper instance
func SetupViper(dataDir string, cmd *cobra.Command) *viper.Viper {
	loadEnvFiles(dataDir)

	v := viper.New()

	// Set up config file
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(dataDir)

	// Set up environment variables
	v.SetEnvPrefix("TAPP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("listen", DefaultListenAddr)
	v.SetDefault("csp", domain.DefaultCSP)
	v.SetDefault("daemon_url", DefaultDaemonURL)
	v.SetDefault("daemon_timeout", DefaultDaemonTimeout.String())
	v.SetDefault("finalize_timeout", DefaultFinalizeTimeout.String())
	v.SetDefault("timeout", "0s")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)

	// Try to read config file (ignore error if not found)
	_ = v.ReadInConfig()

	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if !f.Changed {
				return
			}
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil {
				panic(err)
			}
		})
	}

	return v
}

// loadEnvFiles loads .env files from the data dir and the working directory
// so the daemon token can live outside the config file.
func loadEnvFiles(dataDir string) {
	envFiles := []string{
		filepath.Join(dataDir, ".env"),
		".env",
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				// Log warning but don't fail
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}
