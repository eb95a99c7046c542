package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Paths   PathsConfig   `mapstructure:"paths"`
	Install InstallConfig `mapstructure:"install"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PathsConfig contains path-related configuration.
type PathsConfig struct {
	DataDir      string `mapstructure:"data_dir"`
	DBFile       string `mapstructure:"db_file"`
	LogFile      string `mapstructure:"log_file"`
	UserBinDir   string `mapstructure:"user_bin_dir"`
	SystemBinDir string `mapstructure:"system_bin_dir"`
}

// InstallConfig contains installer behavior configuration.
type InstallConfig struct {
	FetchTimeoutSecs int  `mapstructure:"fetch_timeout_secs"`
	Quiet            bool `mapstructure:"quiet"`
	PreserveEnv      bool `mapstructure:"preserve_env"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Color string `mapstructure:"color"`
}

// Load loads configuration from file and environment. Environment variables
// use the BINSTALL_ prefix, so BINSTALL_INSTALL_QUIET=1 silences
// informational output without a config file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "binstall"))
	}
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("BINSTALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Short aliases alongside the section-qualified forms.
	_ = v.BindEnv("install.quiet", "BINSTALL_INSTALL_QUIET", "BINSTALL_QUIET")
	_ = v.BindEnv("install.preserve_env", "BINSTALL_INSTALL_PRESERVE_ENV", "BINSTALL_PRESERVE_ENV")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found - use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Paths.DataDir = expandPath(cfg.Paths.DataDir)
	cfg.Paths.DBFile = expandPath(cfg.Paths.DBFile)
	cfg.Paths.LogFile = expandPath(cfg.Paths.LogFile)
	cfg.Paths.UserBinDir = expandPath(cfg.Paths.UserBinDir)
	cfg.Paths.SystemBinDir = expandPath(cfg.Paths.SystemBinDir)

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}
	if homeDir == "" {
		homeDir = "."
	}

	dataDir := filepath.Join(homeDir, ".local", "share", "binstall")
	v.SetDefault("paths.data_dir", dataDir)
	v.SetDefault("paths.db_file", filepath.Join(dataDir, "installed.db"))
	v.SetDefault("paths.log_file", filepath.Join(dataDir, "binstall.log"))
	v.SetDefault("paths.user_bin_dir", DefaultUserBinDir(homeDir))
	v.SetDefault("paths.system_bin_dir", DefaultSystemBinDir())

	v.SetDefault("install.fetch_timeout_secs", 30)
	v.SetDefault("install.quiet", false)
	v.SetDefault("install.preserve_env", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.color", "auto")
}

// DefaultUserBinDir returns the per-user install directory for this OS.
func DefaultUserBinDir(homeDir string) string {
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "Programs", "Bin")
		}
		return filepath.Join(homeDir, "AppData", "Local", "Programs", "Bin")
	}
	return filepath.Join(homeDir, ".local", "bin")
}

// DefaultSystemBinDir returns the machine-wide install directory for this OS.
func DefaultSystemBinDir() string {
	if runtime.GOOS == "windows" {
		if pf := os.Getenv("ProgramFiles"); pf != "" {
			return filepath.Join(pf, "Bin")
		}
		return `C:\Program Files\Bin`
	}
	return "/usr/local/bin"
}

// expandPath expands ~ and environment variables in paths.
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return os.ExpandEnv(path)
}
