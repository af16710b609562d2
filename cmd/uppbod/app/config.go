package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/uppbod/pkg/constants"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Store
	Store         string `mapstructure:"store"`
	CSVBOM        bool   `mapstructure:"csv_bom"`
	PostgresTable string `mapstructure:"postgres_table"`

	// Source
	Endpoint     string        `mapstructure:"endpoint"`
	SourceFile   string        `mapstructure:"source_file"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`

	// Pipeline
	Filters          []string `mapstructure:"filters"`
	PlainTextFields  []string `mapstructure:"plain_text_fields"`
	CollisionScope   string   `mapstructure:"collision_scope"`
	LiveFields       []string `mapstructure:"live_fields"`
	StatusField      string   `mapstructure:"status_field"`
	TerminalStatuses []string `mapstructure:"terminal_statuses"`
	CancelSentinel   string   `mapstructure:"cancel_sentinel"`
	SortDirection    string   `mapstructure:"sort_direction"`

	// Run
	EmptySnapshot string        `mapstructure:"empty_snapshot"`
	ReportPath    string        `mapstructure:"report_path"`
	MetricsPath   string        `mapstructure:"metrics_path"`
	SyncTimeout   time.Duration `mapstructure:"sync_timeout"`

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (UPPBOD_ prefix)
// 3. .env files
// 4. Config file (./.uppbod.yaml or ~/.uppbod.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return loadConfig(viper.New(), os.Getenv("UPPBOD_CONFIG"))
}

// LoadConfigFile loads configuration from an explicit file plus the
// environment.
func LoadConfigFile(path string) (*Config, error) {
	return loadConfig(viper.New(), path)
}

func loadConfig(v *viper.Viper, configFile string) (*Config, error) {
	// .env files first so their values are visible to the env binding
	loadEnvFiles()

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigType("yaml")
		v.SetConfigName(constants.DefaultConfigName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	config := &Config{
		Verbose:    v.GetBool("verbose"),
		Quiet:      v.GetBool("quiet"),
		NoColor:    v.GetBool("no_color"),
		Format:     v.GetString("format"),
		ConfigFile: v.ConfigFileUsed(),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}
	if err := v.Unmarshal(config); err != nil {
		return nil, err
	}

	// comma separated env values arrive as one element
	config.Filters = splitList(config.Filters)
	config.PlainTextFields = splitList(config.PlainTextFields)
	config.LiveFields = splitList(config.LiveFields)
	config.TerminalStatuses = splitList(config.TerminalStatuses)

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store", constants.DefaultStorePath)
	v.SetDefault("fetch_timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("sync_timeout", constants.SyncTimeout)
	v.SetDefault("collision_scope", "batch")
	v.SetDefault("sort_direction", "desc")
	v.SetDefault("empty_snapshot", "skip")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")

	// registered so AutomaticEnv picks them up during Unmarshal
	for _, key := range []string{
		"csv_bom", "postgres_table", "endpoint", "source_file",
		"filters", "plain_text_fields", "live_fields", "status_field",
		"terminal_statuses", "cancel_sentinel", "report_path", "metrics_path",
	} {
		_ = v.BindEnv(key)
	}
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// Existing environment variables are never overridden.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
