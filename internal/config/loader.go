package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default provisioning file name.
const DefaultConfigFile = "init.yaml"

// LoadProvisionFile reads, schema-validates and cross-validates a
// provisioning file. A missing file yields ErrConfigNotFound; schema problems
// wrap ErrSchemaViolation; cross-reference problems are joined so that every
// one of them is reported at once.
func LoadProvisionFile(path string) (*Provision, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return ParseProvision(data)
}

// ParseProvision parses and validates provisioning YAML.
func ParseProvision(data []byte) (*Provision, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyConfig
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML syntax: %w", err)
	}
	if doc == nil {
		return nil, ErrEmptyConfig
	}
	if err := ValidateSchema(doc); err != nil {
		return nil, err
	}

	var p Provision
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid YAML syntax: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindConfigFile searches for the provisioning file in the following order:
// 1. If configPath is specified, use it directly
// 2. init.yaml in the current directory
// 3. service/init.yaml in the current directory
// 4. init.yaml in the XDG config directory
//
// Returns the path to the file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := []string{
		DefaultConfigFile,
		filepath.Join("service", DefaultConfigFile),
		filepath.Join(XDGConfigDir(), DefaultConfigFile),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// IsValidationError reports whether err came from schema or cross-reference
// validation rather than from reading the file.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrSchemaViolation, ErrSiteCountMismatch, ErrHistoryTooShort, ErrDuplicateDomain,
		ErrInvalidDomain, ErrDuplicatePage, ErrSecretDoorNotInMenu, ErrSecretPageInMenu, ErrTooManyTripwires,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
