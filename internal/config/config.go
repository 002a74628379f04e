package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Table    TableConfig    `yaml:"table" mapstructure:"table"`
	Fields   FieldsConfig   `yaml:"fields" mapstructure:"fields"`
	Harvest  HarvestConfig  `yaml:"harvest" mapstructure:"harvest"`
	Template TemplateConfig `yaml:"template" mapstructure:"template"`
	Pages    PagesConfig    `yaml:"pages" mapstructure:"pages"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// TableConfig configures the table API the order records come from.
type TableConfig struct {
	RecordsURL  string `yaml:"records_url" mapstructure:"records_url"`
	RecordsFile string `yaml:"records_file" mapstructure:"records_file"`
	Cookie      string `yaml:"cookie" mapstructure:"cookie"`
	CookieFile  string `yaml:"cookie_file" mapstructure:"cookie_file"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`

	// CookieHosts are extra hosts, besides the records URL host, that
	// receive the session cookie during harvest.
	CookieHosts []string `yaml:"cookie_hosts" mapstructure:"cookie_hosts"`
}

// FieldsConfig names the table column ids the matcher reads.
type FieldsConfig struct {
	OrderID string `yaml:"order_id" mapstructure:"order_id"`
	AppName string `yaml:"app_name" mapstructure:"app_name"`
	Links   string `yaml:"links" mapstructure:"links"`
}

// HarvestConfig configures candidate page fetching and email discovery.
type HarvestConfig struct {
	EmailDomain   string  `yaml:"email_domain" mapstructure:"email_domain"`
	UserAgent     string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries    int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	EarlyExit     bool    `yaml:"early_exit" mapstructure:"early_exit"`
}

// TemplateConfig locates the policy template and its slot schema.
type TemplateConfig struct {
	Path         string `yaml:"path" mapstructure:"path"`
	SchemaPath   string `yaml:"schema_path" mapstructure:"schema_path"`
	EmailPattern string `yaml:"email_pattern" mapstructure:"email_pattern"`
}

// PagesConfig configures the static-site tree and how it is published.
type PagesConfig struct {
	Publisher     string `yaml:"publisher" mapstructure:"publisher"`
	RepoDir       string `yaml:"repo_dir" mapstructure:"repo_dir"`
	Remote        string `yaml:"remote" mapstructure:"remote"`
	Branch        string `yaml:"branch" mapstructure:"branch"`
	CommitMessage string `yaml:"commit_message" mapstructure:"commit_message"`
	SSHCommand    string `yaml:"ssh_command" mapstructure:"ssh_command"`
	Landing       bool   `yaml:"landing" mapstructure:"landing"`
	PushRetries   int    `yaml:"push_retries" mapstructure:"push_retries"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Command       string `yaml:"command" mapstructure:"command"`
}

// OutputConfig configures the local artifacts written by a run.
type OutputConfig struct {
	WorkDir  string `yaml:"work_dir" mapstructure:"work_dir"`
	HTMLFile string `yaml:"html_file" mapstructure:"html_file"`
	TextFile string `yaml:"text_file" mapstructure:"text_file"`
}

// ServerConfig configures the local preview server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultUserAgent is the browser user agent sent with candidate page fetches.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/123.0 Safari/537.36"

// DefaultSSHCommand keeps git pushes non-interactive.
const DefaultSSHCommand = "ssh -o BatchMode=yes -o IdentitiesOnly=yes -o StrictHostKeyChecking=accept-new"

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PRIVACY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("table.records_url", "")
	v.SetDefault("table.records_file", "")
	v.SetDefault("table.cookie", "")
	v.SetDefault("table.cookie_file", "")
	v.SetDefault("table.cookie_hosts", []string{})
	v.SetDefault("table.timeout_secs", 60)
	v.SetDefault("table.max_retries", 2)
	v.SetDefault("fields.order_id", "fldxQWjXD7")
	v.SetDefault("fields.app_name", "fldaShB3Gb")
	v.SetDefault("fields.links", "fldnLglcRi")
	v.SetDefault("harvest.email_domain", "gmail.com")
	v.SetDefault("harvest.user_agent", DefaultUserAgent)
	v.SetDefault("harvest.timeout_secs", 15)
	v.SetDefault("harvest.max_retries", 1)
	v.SetDefault("harvest.rate_per_second", 5.0)
	v.SetDefault("harvest.early_exit", true)
	v.SetDefault("template.path", "templates/privacy.html")
	v.SetDefault("template.schema_path", "")
	v.SetDefault("template.email_pattern", "")
	v.SetDefault("pages.publisher", "git")
	v.SetDefault("pages.repo_dir", ".")
	v.SetDefault("pages.remote", "origin")
	v.SetDefault("pages.branch", "")
	v.SetDefault("pages.commit_message", "Update privacy page")
	v.SetDefault("pages.ssh_command", DefaultSSHCommand)
	v.SetDefault("pages.landing", true)
	v.SetDefault("pages.push_retries", 2)
	v.SetDefault("pages.timeout_secs", 120)
	v.SetDefault("pages.command", "")
	v.SetDefault("output.work_dir", ".")
	v.SetDefault("output.html_file", "privacy_policy.html")
	v.SetDefault("output.text_file", "privacy_policy.txt")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
