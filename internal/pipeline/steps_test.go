package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/nao1215/secretgarden/internal/config"
	"github.com/nao1215/secretgarden/internal/database"
	"github.com/nao1215/secretgarden/internal/model"
	"github.com/nao1215/secretgarden/internal/report"
	"github.com/nao1215/secretgarden/internal/scaffold"
	"github.com/nao1215/secretgarden/internal/sequence"
	"github.com/nao1215/secretgarden/internal/sqlgen"
	"github.com/nao1215/secretgarden/internal/username"
)

// failingReader never yields entropy.
type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy unavailable")
}

// intPtr returns a pointer to n.
func intPtr(n int) *int { return &n }

func testProvision() *config.Provision {
	return &config.Provision{
		ProjectMeta: config.ProjectMeta{
			Version:               "1.0",
			Environment:           "development",
			Mode:                  "readwrite",
			NumPublicSites:        2,
			NumUniquePKSequences:  10,
			NumGeneratedUsernames: 5,
		},
		ApplicationConfig: config.ApplicationConfig{
			PKLength:                 4,
			PKMaxHistory:             20,
			GeneratedPasswordLength:  12,
			GeneratedPasswordCharset: "abc123",
		},
		SecretDoorFields: []config.Field{
			{Name: "email", Label: "Email", HTMLType: "email", PGType: "TEXT"},
		},
		SecretPageFields: []config.Field{
			{Name: "story", Label: "Story", HTMLType: "textarea", PGType: "TEXT"},
		},
		AdminSite: config.AdminSite{
			Domain:        "admin.example",
			DBCredentials: config.Credentials{User: "admin_user", Pass: "admin_pass"},
		},
		PublicSites: []config.PublicSite{
			{
				Domain:           "alpha.example",
				DBCredentials:    config.Credentials{User: "alpha", Pass: "alpha_pass"},
				RoutingSecrets:   config.RoutingSecrets{SecretDoor: "contact", SecretPage: "hidden"},
				PagesMenu:        []string{"home", "about", "contact", "news", "faq", "blog"},
				NumTripwirePages: intPtr(2),
			},
			{
				Domain:         "beta.example",
				DBCredentials:  config.Credentials{User: "beta", Pass: "beta_pass"},
				RoutingSecrets: config.RoutingSecrets{SecretDoor: "news", SecretPage: "vault"},
				PagesMenu:      []string{"home", "news", "shop", "team"},
			},
		},
	}
}

// writeFile creates path with content, including parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// testConfig prepares site sources and templates in a temporary directory.
// Filtering is disabled so that no network is used.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "public", "index.php"), "<?php echo 'hi';")
	writeFile(t, filepath.Join(root, "public", "config", "config.php"), "<?php // stale")
	writeFile(t, filepath.Join(root, "public", ".git", "HEAD"), "ref: refs/heads/main")
	writeFile(t, filepath.Join(root, "admin", "index.php"), "<?php echo 'admin';")
	writeFile(t, filepath.Join(root, "templates", "base-02-tables.sql"), "CREATE TABLE t (id int);")
	writeFile(t, filepath.Join(root, "templates", sqlgen.PermissionsTemplate), "GRANT ALL ON t TO dbuser;")

	cfg := config.NewConfig()
	cfg.ConfigFilePath = filepath.Join(root, "init.yaml")
	cfg.BuildDir = filepath.Join(root, "build")
	cfg.PublicSourceDir = filepath.Join(root, "public")
	cfg.AdminSourceDir = filepath.Join(root, "admin")
	cfg.TemplateDir = filepath.Join(root, "templates")
	cfg.BaseUsernamesFile = filepath.Join(root, "missing-usernames.csv")
	cfg.CacheDir = filepath.Join(root, "cache")
	cfg.DBDir = filepath.Join(root, "db")
	cfg.DisableDenylist = true
	return cfg
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path) //nolint:gosec // Test fixture path
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse %s: %v", path, err)
	}
	return records
}

// TestGeneratePipeline runs a complete build.
func TestGeneratePipeline(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	p := testProvision()
	var out bytes.Buffer

	pl, err := GeneratePipeline(cfg, Deps{Report: report.NewJSONWriter(&out)})
	if err != nil {
		t.Fatalf("failed to build pipeline: %v", err)
	}

	run := NewRun("", cfg, p)
	if err := pl.Execute(context.Background(), run); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	t.Run("every step ran", func(t *testing.T) {
		if !slices.Equal(run.Performed, pl.StepNames()) {
			t.Errorf("expected %v, got %v", pl.StepNames(), run.Performed)
		}
	})

	t.Run("sites are cloned and configured", func(t *testing.T) {
		for _, site := range run.Sites {
			if _, err := os.Stat(filepath.Join(site.Dir, "index.php")); err != nil {
				t.Errorf("%s: index.php not cloned: %v", site.Config.Domain, err)
			}
			if _, err := os.Stat(filepath.Join(site.Dir, ".git")); !os.IsNotExist(err) {
				t.Errorf("%s: excluded .git was cloned", site.Config.Domain)
			}
			php, err := os.ReadFile(filepath.Join(site.Dir, scaffold.ConfigFile))
			if err != nil {
				t.Fatalf("%s: config.php missing: %v", site.Config.Domain, err)
			}
			if bytes.Contains(php, []byte("stale")) {
				t.Errorf("%s: config.php was copied from the source", site.Config.Domain)
			}
			if !bytes.Contains(php, []byte(site.Config.Domain)) {
				t.Errorf("%s: config.php does not name its domain", site.Config.Domain)
			}
		}
		if _, err := os.Stat(filepath.Join(scaffold.AdminDir(cfg.BuildDir), scaffold.ConfigFile)); err != nil {
			t.Errorf("admin config.php missing: %v", err)
		}
	})

	t.Run("pools satisfy the constraint model", func(t *testing.T) {
		for _, site := range run.Sites {
			if site.Pool == nil {
				t.Fatalf("%s: no pool", site.Config.Domain)
			}
			if site.Pool.Produced() != 5 {
				t.Errorf("%s: expected 5 sequences, got %d", site.Config.Domain, site.Pool.Produced())
			}
			if site.Pool.Exit != model.ExitComplete {
				t.Errorf("%s: expected complete exit, got %s", site.Config.Domain, site.Pool.Exit)
			}

			alphabet := sequence.LegalAlphabet(len(site.Config.PagesMenu), site.Tripwires.Indices)
			start := sequence.LegalStartAlphabet(alphabet)
			for _, s := range site.Pool.Sequences {
				seq, err := sequence.Decode(s)
				if err != nil {
					t.Fatalf("%s: undecodable sequence: %v", site.Config.Domain, err)
				}
				if !sequence.IsValid(seq, alphabet, start) {
					t.Errorf("%s: sequence violates the constraint model", site.Config.Domain)
				}
			}
		}
		if got := len(run.Sites[0].Tripwires.Pages); got != 2 {
			t.Errorf("expected 2 tripwires on the first site, got %d", got)
		}
		if got := len(run.Sites[1].Tripwires.Pages); got != 0 {
			t.Errorf("expected no tripwires on the second site, got %d", got)
		}
	})

	t.Run("csv exports are written", func(t *testing.T) {
		records := readCSV(t, filepath.Join(cfg.BuildDir, sqlgen.SequencesCSV))
		if len(records) != 10 {
			t.Errorf("expected 10 sequence rows, got %d", len(records))
		}

		users, err := username.LoadFile(filepath.Join(cfg.BuildDir, username.FileName))
		if err != nil {
			t.Fatalf("failed to load usernames: %v", err)
		}
		if len(users) != 5 {
			t.Errorf("expected 5 usernames, got %d", len(users))
		}
	})

	t.Run("sql scripts are written", func(t *testing.T) {
		for _, name := range []string{"01_roles.sql", "02_tables.sql", "02_tables_extensions.sql", "05_permissions.sql", "06_data.sql"} {
			if _, err := os.Stat(filepath.Join(cfg.BuildDir, sqlgen.DatabaseDir, name)); err != nil {
				t.Errorf("%s missing: %v", name, err)
			}
		}
		for _, name := range []string{"03_policies.sql", "04_functions.sql"} {
			if _, err := os.Stat(filepath.Join(cfg.BuildDir, sqlgen.DatabaseDir, name)); !os.IsNotExist(err) {
				t.Errorf("%s written without a template", name)
			}
		}
	})

	t.Run("report carries statistics and warnings", func(t *testing.T) {
		var decoded model.RunReport
		if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
			t.Fatalf("report is not valid JSON: %v", err)
		}
		if decoded.RunID == "" {
			t.Error("expected a run id")
		}
		if decoded.DenylistEnabled {
			t.Error("expected filtering to be disabled")
		}
		if len(decoded.Sites) != 2 {
			t.Fatalf("expected 2 sites, got %d", len(decoded.Sites))
		}
		for _, s := range decoded.Sites {
			if s.Pool == nil || s.Pool.Produced != 5 {
				t.Errorf("%s: unexpected pool stats %+v", s.Domain, s.Pool)
			}
			if s.Estimate.Single <= 0 {
				t.Errorf("%s: expected a positive estimate", s.Domain)
			}
		}
		if bytes.Contains(out.Bytes(), []byte(`"tripwire_pages"`)) {
			t.Error("tripwire pages must not appear in reports")
		}

		missing := 0
		for _, w := range run.Report.Warnings {
			if w.Kind == model.WarningTemplateMissing {
				missing++
			}
		}
		if missing != 2 {
			t.Errorf("expected 2 missing template warnings, got %d", missing)
		}
	})

	t.Run("run is recorded in history", func(t *testing.T) {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open history: %v", err)
		}
		defer db.Close()

		got, err := db.GetRun(context.Background(), run.Report.RunID)
		if err != nil {
			t.Fatalf("run not recorded: %v", err)
		}
		if len(got.Sites) != 2 {
			t.Errorf("expected 2 recorded sites, got %d", len(got.Sites))
		}
	})
}

// TestPrepareBuildDirStep tests build directory handling.
func TestPrepareBuildDirStep(t *testing.T) {
	t.Parallel()

	t.Run("existing directory requires force", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t)
		writeFile(t, filepath.Join(cfg.BuildDir, "old.txt"), "old")

		err := NewPrepareBuildDirStep().Do(context.Background(), NewRun("", cfg, testProvision()))
		if !errors.Is(err, ErrBuildDirExists) {
			t.Errorf("expected ErrBuildDirExists, got %v", err)
		}
		if _, err := os.Stat(filepath.Join(cfg.BuildDir, "old.txt")); err != nil {
			t.Error("expected previous build to be kept")
		}
	})

	t.Run("existing directory stops a build that continues on error", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t)
		cfg.ContinueOnError = true
		writeFile(t, filepath.Join(cfg.BuildDir, "old.txt"), "old")

		pl, err := GeneratePipeline(cfg, Deps{})
		if err != nil {
			t.Fatalf("failed to build pipeline: %v", err)
		}
		run := NewRun("", cfg, testProvision())
		if err := pl.Execute(context.Background(), run); !errors.Is(err, ErrBuildDirExists) {
			t.Errorf("expected ErrBuildDirExists, got %v", err)
		}
		if len(run.Performed) != 0 {
			t.Errorf("expected no step to complete, got %v", run.Performed)
		}
		if _, err := os.Stat(filepath.Join(cfg.BuildDir, sqlgen.SequencesCSV)); !os.IsNotExist(err) {
			t.Error("expected nothing written into the previous build")
		}
	})

	t.Run("force replaces the directory", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t)
		cfg.Force = true
		writeFile(t, filepath.Join(cfg.BuildDir, "old.txt"), "old")

		run := NewRun("", cfg, testProvision())
		if err := NewPrepareBuildDirStep().Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(filepath.Join(cfg.BuildDir, "old.txt")); !os.IsNotExist(err) {
			t.Error("expected previous build to be removed")
		}
		if run.Sites[0].Dir != scaffold.SiteDir(cfg.BuildDir, 1, "alpha.example") {
			t.Errorf("unexpected site directory %q", run.Sites[0].Dir)
		}
	})
}

// TestAnalyzePipeline tests the read-only analysis.
func TestAnalyzePipeline(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	var out bytes.Buffer

	run := NewRun("", cfg, testProvision())
	if err := AnalyzePipeline(Deps{Report: report.NewSimpleWriter(&out)}).Execute(context.Background(), run); err != nil {
		t.Fatalf("analysis failed: %v", err)
	}

	if _, err := os.Stat(cfg.BuildDir); !os.IsNotExist(err) {
		t.Error("analysis must not create the build directory")
	}

	first := run.Report.Sites[0]
	if first.MenuSize != 6 || first.TripwireCount != 2 || first.SequencesPerSite != 5 {
		t.Errorf("unexpected site analysis %+v", first)
	}
	if first.Window != 20-4+1 {
		t.Errorf("expected window 17, got %d", first.Window)
	}
	if first.Estimate.Session <= 0 || len(first.Estimate.Steps) != first.Window {
		t.Errorf("unexpected estimate %+v", first.Estimate)
	}
	if out.Len() == 0 {
		t.Error("expected a report")
	}
}

// TestCloneSitesStepMissingSources tests that absent sources are warnings.
func TestCloneSitesStepMissingSources(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.PublicSourceDir = filepath.Join(t.TempDir(), "nope")
	cfg.AdminSourceDir = filepath.Join(t.TempDir(), "nope")

	run := NewRun("", cfg, testProvision())
	if err := NewPrepareBuildDirStep().Do(context.Background(), run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cloner, err := scaffold.NewCloner(cfg.Excludes)
	if err != nil {
		t.Fatalf("failed to create cloner: %v", err)
	}
	if err := NewCloneSitesStep(cloner, NewBatchProcessor()).Do(context.Background(), run); err != nil {
		t.Fatalf("missing sources must not fail the build: %v", err)
	}
	if len(run.Report.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", run.Report.Warnings)
	}

	if err := NewRenderConfigsStep().Do(context.Background(), run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, site := range run.Report.Sites {
		if len(site.Warnings) != 1 || site.Warnings[0].Kind != model.WarningSourceMissing {
			t.Errorf("%s: expected a source missing warning, got %v", site.Domain, site.Warnings)
		}
	}
}

// TestDenylistStep tests run-wide filter preparation.
func TestDenylistStep(t *testing.T) {
	t.Parallel()

	t.Run("disabled filtering needs no transport", func(t *testing.T) {
		t.Parallel()

		run := NewRun("", testConfig(t), testProvision())
		if err := NewDenylistStep(nil).Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.Denylist == nil || run.Denylist.Enabled() {
			t.Error("expected a disabled filter")
		}
		if len(run.Report.Warnings) != 0 {
			t.Errorf("expected no warnings, got %v", run.Report.Warnings)
		}
	})

	t.Run("downloaded list filters allocation", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "1234\n1010\n2020\n")
		}))
		t.Cleanup(srv.Close)

		cfg := testConfig(t)
		cfg.DisableDenylist = false
		p := testProvision()
		p.ApplicationConfig.CommonSequenceThreshold = 0.001
		p.ApplicationConfig.DenylistSources = []config.DenylistSource{{Length: 4, URL: srv.URL}}

		run := NewRun("", cfg, p)
		if err := NewDenylistStep(srv.Client()).Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !run.Report.DenylistEnabled {
			t.Error("expected filtering to be enabled")
		}
		if run.Report.DenylistThreshold != 10 {
			t.Errorf("expected threshold 10, got %d", run.Report.DenylistThreshold)
		}

		if err := NewAllocateStep().Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, site := range run.Sites {
			for _, s := range site.Pool.Sequences {
				if s == "1234" || s == "1010" || s == "2020" {
					t.Errorf("%s: common sequence %s allocated", site.Config.Domain, s)
				}
			}
		}
	})

	t.Run("cached list is reused until it ages out", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			_, _ = io.WriteString(w, "1234\n")
		}))
		t.Cleanup(srv.Close)

		cfg := testConfig(t)
		cfg.DisableDenylist = false
		p := testProvision()
		p.ApplicationConfig.CommonSequenceThreshold = 0.001
		p.ApplicationConfig.DenylistSources = []config.DenylistSource{{Length: 4, URL: srv.URL}}

		for range 2 {
			if err := NewDenylistStep(srv.Client()).Do(context.Background(), NewRun("", cfg, p)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if got := hits.Load(); got != 1 {
			t.Errorf("expected one download with a fresh cache, got %d", got)
		}

		cfg.DenylistMaxAge = 0
		if err := NewDenylistStep(srv.Client()).Do(context.Background(), NewRun("", cfg, p)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := hits.Load(); got != 2 {
			t.Errorf("expected a zero max age to download again, got %d downloads", got)
		}
	})

	t.Run("failed download degrades with a warning", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		cfg := testConfig(t)
		cfg.DisableDenylist = false
		p := testProvision()
		p.ApplicationConfig.CommonSequenceThreshold = 0.01
		p.ApplicationConfig.DenylistSources = []config.DenylistSource{{Length: 4, URL: srv.URL}}

		run := NewRun("", cfg, p)
		if err := NewDenylistStep(srv.Client()).Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.Report.DenylistEnabled {
			t.Error("expected filtering to be disabled")
		}
		if len(run.Report.Warnings) != 1 || run.Report.Warnings[0].Kind != model.WarningDenylistUnavailable {
			t.Errorf("expected a denylist warning, got %v", run.Report.Warnings)
		}
	})
}

// TestAllocateStepRandomFailure tests that entropy failures stop the build.
func TestAllocateStepRandomFailure(t *testing.T) {
	t.Parallel()

	run := NewRun("", testConfig(t), testProvision())
	if err := NewAllocateStep(WithStepRandom(failingReader{})).Do(context.Background(), run); err == nil {
		t.Error("expected an error")
	}
}

// TestUsernamesStep tests the username pool sources.
func TestUsernamesStep(t *testing.T) {
	t.Parallel()

	t.Run("provided pool replaces generation", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t)
		writeFile(t, cfg.BaseUsernamesFile, "username,displayname\nquietfox,Quiet Fox\n")
		if err := os.MkdirAll(cfg.BuildDir, 0750); err != nil {
			t.Fatal(err)
		}

		run := NewRun("", cfg, testProvision())
		if err := NewUsernamesStep().Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(run.Usernames) != 1 || run.Usernames[0].Username != "quietfox" {
			t.Errorf("expected provided pool, got %v", run.Usernames)
		}
	})

	t.Run("shortfall is a warning", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t)
		if err := os.MkdirAll(cfg.BuildDir, 0750); err != nil {
			t.Fatal(err)
		}
		p := testProvision()
		p.ProjectMeta.NumGeneratedUsernames = username.NewGenerator().Keyspace() + 1

		run := NewRun("", cfg, p)
		if err := NewUsernamesStep().Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(run.Report.Warnings) != 1 || run.Report.Warnings[0].Kind != model.WarningUsernameShortfall {
			t.Errorf("expected a shortfall warning, got %v", run.Report.Warnings)
		}
	})
}
