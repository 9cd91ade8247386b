package sqlgen

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/secretgarden/internal/config"
)

// DatabaseDir is the script directory inside the build directory.
const DatabaseDir = "database"

// SequencesCSV is the (domain, sequence) export inside the build directory.
const SequencesCSV = "pk_sequences.csv"

// PermissionsTemplate is the permissions template inside the template directory.
const PermissionsTemplate = "base-05-permissions.sql"

// staticTemplates maps template files to the scripts they are copied to.
var staticTemplates = []struct {
	source string
	dest   string
}{
	{source: "base-02-tables.sql", dest: "02_tables.sql"},
	{source: "base-03-policies.sql", dest: "03_policies.sql"},
	{source: "base-04-functions.sql", dest: "04_functions.sql"},
}

// Result lists what a Generator wrote.
type Result struct {
	// Files are the written paths, in write order.
	Files []string

	// MissingTemplates are template files that were not found and skipped.
	MissingTemplates []string
}

// Generator writes the database scripts of one build.
type Generator struct {
	templateDir string
	random      io.Reader
	logger      *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRandom sets the salt source. Nil means crypto/rand.
func WithRandom(r io.Reader) GeneratorOption {
	return func(g *Generator) {
		g.random = r
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator creates a Generator reading templates from templateDir.
func NewGenerator(templateDir string, opts ...GeneratorOption) *Generator {
	g := &Generator{templateDir: templateDir}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Generate writes every script into buildDir/database. A missing template is
// reported in Result and skipped; any write failure is an error.
func (g *Generator) Generate(buildDir string, p *config.Provision, sequences []SequenceRow, users []UserRow) (*Result, error) {
	dbDir := filepath.Join(buildDir, DatabaseDir)
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	result := &Result{}
	write := func(name, content string) error {
		path := filepath.Join(dbDir, name)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		result.Files = append(result.Files, path)
		g.logger.Debug("sql script written", "path", path)
		return nil
	}

	roles, err := RolesSQL(p, g.random)
	if err != nil {
		return nil, err
	}
	if err := write("01_roles.sql", roles); err != nil {
		return nil, err
	}

	for _, t := range staticTemplates {
		content, err := g.readTemplate(t.source)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				result.MissingTemplates = append(result.MissingTemplates, t.source)
				g.logger.Warn("sql template not found", "template", t.source, "dir", g.templateDir)
				continue
			}
			return nil, err
		}
		if err := write(t.dest, content); err != nil {
			return nil, err
		}
	}

	if err := write("02_tables_extensions.sql", TablesExtensionsSQL(p)); err != nil {
		return nil, err
	}

	permissions, err := g.readTemplate(PermissionsTemplate)
	switch {
	case err == nil:
		if err := write("05_permissions.sql", PermissionsSQL(p, permissions)); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist):
		result.MissingTemplates = append(result.MissingTemplates, PermissionsTemplate)
		g.logger.Warn("sql template not found", "template", PermissionsTemplate, "dir", g.templateDir)
	default:
		return nil, err
	}

	if err := write("06_data.sql", DataSQL(sequences, users)); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *Generator) readTemplate(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(g.templateDir, name)) //nolint:gosec // Template directory is user configuration
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", name, err)
	}
	return string(data), nil
}

// WriteSequencesCSV writes the (domain, sequence) pairs without a header.
func WriteSequencesCSV(path string, rows []SequenceRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // Path is inside the build directory
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	for _, r := range rows {
		if err := w.Write([]string{r.Domain, r.Sequence}); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
