package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Table.TimeoutSecs)
	assert.Equal(t, "fldxQWjXD7", cfg.Fields.OrderID)
	assert.Equal(t, "fldaShB3Gb", cfg.Fields.AppName)
	assert.Equal(t, "fldnLglcRi", cfg.Fields.Links)
	assert.Equal(t, "gmail.com", cfg.Harvest.EmailDomain)
	assert.Equal(t, DefaultUserAgent, cfg.Harvest.UserAgent)
	assert.Equal(t, 15, cfg.Harvest.TimeoutSecs)
	assert.True(t, cfg.Harvest.EarlyExit)
	assert.InDelta(t, 5.0, cfg.Harvest.RatePerSecond, 0.001)
	assert.Equal(t, "templates/privacy.html", cfg.Template.Path)
	assert.Equal(t, "git", cfg.Pages.Publisher)
	assert.Equal(t, "origin", cfg.Pages.Remote)
	assert.Equal(t, DefaultSSHCommand, cfg.Pages.SSHCommand)
	assert.True(t, cfg.Pages.Landing)
	assert.Equal(t, 120, cfg.Pages.TimeoutSecs)
	assert.Equal(t, "privacy_policy.html", cfg.Output.HTMLFile)
	assert.Equal(t, "privacy_policy.txt", cfg.Output.TextFile)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
table:
  records_url: https://table.example.com/base/abc/records?offset=200
fields:
  order_id: fldOrder
harvest:
  email_domain: example.org
  early_exit: false
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://table.example.com/base/abc/records?offset=200", cfg.Table.RecordsURL)
	assert.Equal(t, "fldOrder", cfg.Fields.OrderID)
	assert.Equal(t, "example.org", cfg.Harvest.EmailDomain)
	assert.False(t, cfg.Harvest.EarlyExit)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, "fldaShB3Gb", cfg.Fields.AppName)
	assert.Equal(t, 15, cfg.Harvest.TimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
harvest:
  email_domain: example.org
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("PRIVACY_HARVEST_EMAIL_DOMAIN", "x.com")
	t.Setenv("PRIVACY_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "x.com", cfg.Harvest.EmailDomain)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("PRIVACY_SERVER_PORT", "3000")
	t.Setenv("PRIVACY_TABLE_COOKIE", "session=abc")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "session=abc", cfg.Table.Cookie)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("table: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Table.RecordsURL = "https://table.example.com/records"
	cfg.Fields.OrderID = "fldxQWjXD7"
	cfg.Fields.AppName = "fldaShB3Gb"
	cfg.Fields.Links = "fldnLglcRi"
	cfg.Harvest.EmailDomain = "gmail.com"
	cfg.Template.Path = "templates/privacy.html"
	cfg.Pages.Publisher = "git"
	cfg.Pages.RepoDir = "."
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateRun_AllPresent(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateRun_RecordsFileOnly(t *testing.T) {
	cfg := validDefaults()
	cfg.Table.RecordsURL = ""
	cfg.Table.RecordsFile = "testdata/response.json"
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateRun_MissingFields(t *testing.T) {
	cfg := validDefaults()
	cfg.Fields.OrderID = ""
	cfg.Template.Path = ""

	err := cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fields.order_id is required")
	assert.Contains(t, err.Error(), "template.path is required")
}

func TestValidateRun_NoRecordsSource(t *testing.T) {
	cfg := validDefaults()
	cfg.Table.RecordsURL = ""
	cfg.Table.RecordsFile = ""
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateRun_IgnoresPages(t *testing.T) {
	cfg := validDefaults()
	cfg.Pages.Publisher = "ftp"
	cfg.Pages.RepoDir = ""
	assert.NoError(t, cfg.Validate("run"))
	assert.Error(t, cfg.Validate("publish"))
}

func TestValidatePublish_CommandNeedsCommand(t *testing.T) {
	cfg := validDefaults()
	cfg.Pages.Publisher = "command"

	err := cfg.Validate("publish")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pages.command is required")

	cfg.Pages.Command = "./publish.sh"
	assert.NoError(t, cfg.Validate("publish"))
}

func TestValidatePublish_UnknownPublisher(t *testing.T) {
	cfg := validDefaults()
	cfg.Pages.Publisher = "ftp"

	err := cfg.Validate("publish")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pages.publisher")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
