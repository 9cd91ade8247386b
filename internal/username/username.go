// Package username builds the vending pool of anonymous usernames handed to
// visitors who pass the secret door.
package username

import (
	"crypto/rand"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FileName is the pool file inside the build directory.
const FileName = "base_usernames.csv"

// AttemptsPerEntry bounds the draws per requested entry.
const AttemptsPerEntry = 20

// ErrInvalidHeader is returned for a pool file without the expected header.
var ErrInvalidHeader = errors.New("username file must start with a username,displayname header")

// header is the first row of every pool file.
var header = []string{"username", "displayname"}

// Entry is one pooled username.
type Entry struct {
	// Username is the login name, an adjective and a noun run together.
	Username string

	// DisplayName is the title cased "Adjective Noun" form.
	DisplayName string
}

// Generator draws usernames from a fixed keyspace.
type Generator struct {
	adjectives []string
	nouns      []string
	random     io.Reader
}

// Option configures a Generator.
type Option func(*Generator)

// WithRandom replaces crypto/rand.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) {
		g.random = r
	}
}

// WithWords replaces the built-in word lists.
func WithWords(adjectives, nouns []string) Option {
	return func(g *Generator) {
		g.adjectives = adjectives
		g.nouns = nouns
	}
}

// NewGenerator creates a Generator over the built-in word lists.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		adjectives: adjectives,
		nouns:      nouns,
		random:     rand.Reader,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Keyspace returns the number of distinct usernames the generator can draw.
func (g *Generator) Keyspace() int {
	return len(g.adjectives) * len(g.nouns)
}

// Generate draws up to count unique entries within AttemptsPerEntry*count
// draws. Fewer entries are returned when the keyspace or the budget runs out.
func (g *Generator) Generate(count int) ([]Entry, error) {
	if count <= 0 || g.Keyspace() == 0 {
		return []Entry{}, nil
	}

	caser := cases.Title(language.English)
	seen := make(map[string]bool, count)
	entries := make([]Entry, 0, count)

	for attempts := 0; len(entries) < count && attempts < count*AttemptsPerEntry; attempts++ {
		adj, err := g.pick(g.adjectives)
		if err != nil {
			return nil, err
		}
		noun, err := g.pick(g.nouns)
		if err != nil {
			return nil, err
		}

		name := adj + noun
		if seen[name] {
			continue
		}
		seen[name] = true
		entries = append(entries, Entry{
			Username:    name,
			DisplayName: caser.String(adj) + " " + caser.String(noun),
		})
	}
	return entries, nil
}

func (g *Generator) pick(words []string) (string, error) {
	n, err := rand.Int(g.random, big.NewInt(int64(len(words))))
	if err != nil {
		return "", fmt.Errorf("failed to draw username: %w", err)
	}
	return words[n.Int64()], nil
}

// WriteCSV writes entries to path with a username,displayname header.
func WriteCSV(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // Path is inside the build directory
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	_ = w.Write(header)
	for _, e := range entries {
		_ = w.Write([]string{e.Username, e.DisplayName})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// ReadCSV parses a pool file. Rows with fewer than two columns are skipped.
func ReadCSV(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	first, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrInvalidHeader
		}
		return nil, fmt.Errorf("failed to read username file: %w", err)
	}
	if len(first) < 2 || !strings.EqualFold(strings.TrimSpace(first[0]), header[0]) ||
		!strings.EqualFold(strings.TrimSpace(first[1]), header[1]) {
		return nil, ErrInvalidHeader
	}

	entries := []Entry{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read username file: %w", err)
		}
		if len(row) < 2 || row[0] == "" {
			continue
		}
		entries = append(entries, Entry{Username: row[0], DisplayName: row[1]})
	}
	return entries, nil
}

// LoadFile reads a pool file from disk.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path) //nolint:gosec // Path is user configuration
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}
