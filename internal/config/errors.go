package config

import "errors"

// Tool configuration errors returned by Config.Validate.
var (
	// ErrNoConfigFile is returned when no provisioning file was given or found.
	ErrNoConfigFile = errors.New("no provisioning file: pass --config or create init.yaml")

	// ErrEmptyBuildDir is returned when the build directory is empty.
	ErrEmptyBuildDir = errors.New("invalid build directory: must not be empty")

	// ErrInvalidTimeout is returned when the download timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidJobs is returned when the clone concurrency is not positive.
	ErrInvalidJobs = errors.New("invalid jobs: must be positive")

	// ErrInvalidAttemptBudget is returned when the attempt budget is negative.
	ErrInvalidAttemptBudget = errors.New("invalid attempt budget: must be non-negative")

	// ErrInvalidDenylistMaxAge is returned when the denylist cache age is negative.
	ErrInvalidDenylistMaxAge = errors.New("invalid denylist max age: must be non-negative")

	// ErrTeeWithoutOutput is returned when --tee is given without --output.
	ErrTeeWithoutOutput = errors.New("--tee requires --output")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConflictingTransports is returned when both --tor and --proxy are
	// specified.
	ErrConflictingTransports = errors.New("conflicting transports: --tor and --proxy cannot be used together")
)

// Provisioning file errors. Cross-reference errors wrap these so callers can
// use errors.Is on the joined result.
var (
	// ErrConfigNotFound is returned when the provisioning file does not exist.
	ErrConfigNotFound = errors.New("provisioning file not found")

	// ErrEmptyConfig is returned for an empty provisioning file.
	ErrEmptyConfig = errors.New("provisioning file is empty")

	// ErrSchemaViolation is returned when the file does not match the schema.
	ErrSchemaViolation = errors.New("schema validation failed")

	// ErrSiteCountMismatch is returned when project_meta.num_public_sites
	// differs from the number of public sites.
	ErrSiteCountMismatch = errors.New("public site count mismatch")

	// ErrHistoryTooShort is returned when pk_max_history is below pk_length.
	ErrHistoryTooShort = errors.New("pk_max_history shorter than pk_length")

	// ErrDuplicateDomain is returned when two sites share a domain.
	ErrDuplicateDomain = errors.New("duplicate domain")

	// ErrInvalidDomain is returned for a domain that is not a valid IDNA name.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrSecretDoorNotInMenu is returned when the secret door is not a menu page.
	ErrSecretDoorNotInMenu = errors.New("secret door not in pages_menu")

	// ErrSecretPageInMenu is returned when the secret page is linked in the menu.
	ErrSecretPageInMenu = errors.New("secret page in pages_menu")

	// ErrDuplicatePage is returned when a page name repeats in pages_menu.
	// Tripwires are matched by page name, so names must be unique.
	ErrDuplicatePage = errors.New("duplicate page in pages_menu")

	// ErrTooManyTripwires is returned when num_tripwire_pages leaves fewer than
	// two usable pages besides home.
	ErrTooManyTripwires = errors.New("too many tripwire pages")
)
