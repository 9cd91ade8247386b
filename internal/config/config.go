package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "secretgarden"

	// DefaultBuildDir is where generated sites, SQL and CSV files are written.
	DefaultBuildDir = "build"

	// DefaultPublicSourceDir is the public site source cloned once per site.
	DefaultPublicSourceDir = "public-site-source"

	// DefaultAdminSourceDir is the admin site source.
	DefaultAdminSourceDir = "admin-site-source"

	// DefaultTemplateDir holds the static SQL templates copied into the build.
	DefaultTemplateDir = "service/database"

	// DefaultBaseUsernamesFile is a user-provided username pool that replaces
	// the generated one when it exists.
	DefaultBaseUsernamesFile = "service/base-usernames.csv"

	// DefaultTimeout bounds the denylist download. Tor circuits are slow, so
	// this is generous.
	DefaultTimeout = 120 * time.Second

	// DefaultJobs is the number of sites cloned concurrently.
	DefaultJobs = 4

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultDenylistMaxAge is how long a cached common-PIN list is reused.
	DefaultDenylistMaxAge = 7 * 24 * time.Hour
)

// Config holds the options of one command invocation.
// It is populated from CLI flags and passed explicitly; nothing reads it from
// global state.
type Config struct {
	// ConfigFilePath is the provisioning file. When empty, FindConfigFile
	// searches the default locations.
	ConfigFilePath string

	// BuildDir is the output directory.
	BuildDir string

	// PublicSourceDir is cloned once per public site.
	PublicSourceDir string

	// AdminSourceDir is cloned into BuildDir/admin-site.
	AdminSourceDir string

	// TemplateDir holds 02_tables.sql, 03_policies.sql, 04_functions.sql and
	// base-05-permissions.sql.
	TemplateDir string

	// BaseUsernamesFile replaces the generated username pool when present.
	BaseUsernamesFile string

	// Excludes are doublestar globs skipped while cloning site sources.
	Excludes []string

	// Jobs is the number of sites cloned concurrently.
	Jobs int

	// JSONReport selects the JSON report format. Mutually exclusive with
	// MarkdownReport.
	JSONReport bool

	// MarkdownReport selects the Markdown report format.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// TeeReport also prints a text report to stdout when ReportFile is set.
	TeeReport bool

	// ProxyAddress routes the denylist download through a SOCKS5 proxy in
	// "host:port" format.
	ProxyAddress string

	// UseTor starts an embedded Tor daemon for the denylist download.
	UseTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// Timeout bounds the denylist download.
	Timeout time.Duration

	// CacheDir holds downloaded denylists.
	CacheDir string

	// RefreshDenylist forces a download even when the cache is fresh.
	RefreshDenylist bool

	// DenylistMaxAge is how long a cached list is reused before it is
	// downloaded again. Zero downloads on every run.
	DenylistMaxAge time.Duration

	// DisableDenylist skips common-PIN filtering entirely.
	DisableDenylist bool

	// AttemptBudget overrides the per-site attempt budget. Zero keeps the
	// value from the provisioning file or the built-in default.
	AttemptBudget int

	// DBDir is the directory of the run history database.
	DBDir string

	// SaveToDB records run statistics in the history database.
	SaveToDB bool

	// Force removes an existing build directory without asking.
	Force bool

	// ContinueOnError runs the remaining steps after a step fails, so the
	// report and history still describe a partial build. The command exits
	// with the first error afterwards.
	ContinueOnError bool

	// Verbose enables debug logging.
	Verbose bool
}

// DefaultExcludes returns the globs skipped while cloning site sources.
// Generated configuration is never copied from a source tree.
func DefaultExcludes() []string {
	return []string{".git/**", "**/config/config.php"}
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BuildDir:          DefaultBuildDir,
		PublicSourceDir:   DefaultPublicSourceDir,
		AdminSourceDir:    DefaultAdminSourceDir,
		TemplateDir:       DefaultTemplateDir,
		BaseUsernamesFile: DefaultBaseUsernamesFile,
		Excludes:          DefaultExcludes(),
		Jobs:              DefaultJobs,
		TorStartupTimeout: DefaultTorStartupTimeout,
		Timeout:           DefaultTimeout,
		CacheDir:          XDGCacheDir(),
		DenylistMaxAge:    DefaultDenylistMaxAge,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
	}
}

// XDGDataDir returns the XDG data directory for secretgarden.
// On Linux: ~/.local/share/secretgarden
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for secretgarden.
// On Linux: ~/.config/secretgarden
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for secretgarden.
// On Linux: ~/.cache/secretgarden
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.ConfigFilePath == "" {
		return ErrNoConfigFile
	}

	if c.BuildDir == "" {
		return ErrEmptyBuildDir
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Jobs <= 0 {
		return ErrInvalidJobs
	}

	if c.AttemptBudget < 0 {
		return ErrInvalidAttemptBudget
	}

	if c.DenylistMaxAge < 0 {
		return ErrInvalidDenylistMaxAge
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.TeeReport && c.ReportFile == "" {
		return ErrTeeWithoutOutput
	}

	if c.UseTor && c.ProxyAddress != "" {
		return ErrConflictingTransports
	}

	return nil
}
