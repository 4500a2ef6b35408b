package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/quatton/qwex-trainer/pkg/qapi/utils"
	"github.com/quatton/qwex-trainer/pkg/qlog"
	"github.com/quatton/qwex-trainer/pkg/qtrain"
)

const (
	LoaderModeStatic = "static"
	LoaderModeSource = "source"
)

type EnvConfig struct {
	Port              string   `envconfig:"PORT" default:"5000"`
	BaseURL           string   `envconfig:"BASE_URL" default:"http://localhost:5000"`
	Environment       string   `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel          string   `envconfig:"LOG_LEVEL" default:"info"`
	LoaderMode        string   `envconfig:"LOADER_MODE" default:"static"`
	DefaultConfigPath string   `envconfig:"DEFAULT_CONFIG_PATH" default:"chemprop_run/config/config.yaml"`
	ConfigRoot        string   `envconfig:"CONFIG_ROOT" default:"."`
	StrictOverrides   bool     `envconfig:"STRICT_OVERRIDES" default:"false"`
	TrainerCommand    string   `envconfig:"TRAINER_COMMAND"`
	TrainerArgs       []string `envconfig:"TRAINER_ARGS"`
	TrainerWorkdir    string   `envconfig:"TRAINER_WORKDIR"`
	RunsBaseDir       string   `envconfig:"RUNS_BASE_DIR"`
	S3Endpoint        string   `envconfig:"S3_ENDPOINT"`
	S3AccessKey       string   `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey       string   `envconfig:"S3_SECRET_KEY"`
	S3Bucket          string   `envconfig:"S3_BUCKET"`
	S3Region          string   `envconfig:"S3_REGION" default:"us-east-1"`
	S3UseSSL          bool     `envconfig:"S3_USE_SSL" default:"false"`
	ValkeyAddr        string   `envconfig:"VALKEY_ADDR"`
	ValkeyPassword    string   `envconfig:"VALKEY_PASSWORD"`
	ValkeyDB          int      `envconfig:"VALKEY_DB" default:"0"`
}

func ValidateEnv() (*EnvConfig, error) {
	if utils.IsDev() {
		if err := godotenv.Load(); err != nil {
			log.Println("ℹ No .env file found")
		} else {
			log.Println("✓ Loaded .env file")
		}
	}

	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate collects every problem with the configuration into one error.
func (c *EnvConfig) Validate() error {
	var errors []string

	if _, err := qlog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, "  ❌ LOG_LEVEL must be one of debug, info, warn, error")
	}

	switch c.LoaderMode {
	case LoaderModeStatic, LoaderModeSource:
	default:
		errors = append(errors, fmt.Sprintf("  ❌ LOADER_MODE must be %q or %q", LoaderModeStatic, LoaderModeSource))
	}

	if err := qtrain.ValidateRef(c.DefaultConfigPath); err != nil {
		errors = append(errors, "  ❌ DEFAULT_CONFIG_PATH must be a valid config reference")
	}

	if c.S3Endpoint != "" && (c.S3AccessKey == "" || c.S3SecretKey == "") {
		errors = append(errors, "  ❌ S3_ACCESS_KEY and S3_SECRET_KEY are required when S3_ENDPOINT is set")
	}

	if (c.S3Endpoint != "" || c.ValkeyAddr != "") && c.LoaderMode != LoaderModeSource {
		errors = append(errors, "  ❌ S3_ENDPOINT and VALKEY_ADDR are only used with LOADER_MODE=source")
	}

	if c.TrainerCommand == "" && (len(c.TrainerArgs) > 0 || c.TrainerWorkdir != "" || c.RunsBaseDir != "") {
		errors = append(errors, "  ❌ TRAINER_ARGS, TRAINER_WORKDIR and RUNS_BASE_DIR require TRAINER_COMMAND")
	}

	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		errors = append(errors, "  ❌ BASE_URL must be a valid URL")
	}

	if len(errors) > 0 {
		return fmt.Errorf("environment validation failed:\n%s", strings.Join(errors, "\n"))
	}
	return nil
}

func MaskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func (c *EnvConfig) Print(fmtr func(string, ...interface{})) {
	fmtr("📋 Configuration:\n")
	fmtr("  Environment: %s\n", c.Environment)
	fmtr("  Port: %s\n", c.Port)
	fmtr("  Base URL: %s\n", c.BaseURL)
	fmtr("  Log level: %s\n", c.LogLevel)
	fmtr("  Loader: %s (default config: %s)\n", c.LoaderMode, c.DefaultConfigPath)

	if c.TrainerCommand != "" {
		fmtr("  Executor: command (%s %s)\n", c.TrainerCommand, strings.Join(c.TrainerArgs, " "))
	} else {
		fmtr("  Executor: simulated\n")
	}

	if c.StrictOverrides {
		fmtr("  Overrides: strict\n")
	} else {
		fmtr("  Overrides: lenient (malformed values fall back to defaults)\n")
	}

	if c.LoaderMode != LoaderModeSource {
		return
	}

	if c.ConfigRoot != "" {
		fmtr("  Config root: %s\n", c.ConfigRoot)
	} else {
		fmtr("  Config root: ✗ Unconfined\n")
	}

	if c.S3Endpoint != "" {
		fmtr("  S3 configs: ✓ Enabled (%s, bucket=%s)\n", c.S3Endpoint, c.S3Bucket)
		fmtr("    Access key: %s\n", MaskSecret(c.S3AccessKey))
	} else {
		fmtr("  S3 configs: ✗ Disabled\n")
	}

	if c.ValkeyAddr != "" {
		fmtr("  Valkey configs: ✓ Enabled (%s, db=%d)\n", c.ValkeyAddr, c.ValkeyDB)
		fmtr("    Password: %s\n", MaskSecret(c.ValkeyPassword))
	} else {
		fmtr("  Valkey configs: ✗ Disabled\n")
	}
}
