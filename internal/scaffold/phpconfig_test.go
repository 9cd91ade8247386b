package scaffold

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/secretgarden/internal/config"
)

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

func testProvision() *config.Provision {
	return &config.Provision{
		ProjectMeta: config.ProjectMeta{
			Version:              "1.0",
			Environment:          "development",
			Mode:                 "readwrite",
			NumPublicSites:       1,
			NumUniquePKSequences: 10,
		},
		ApplicationConfig: config.ApplicationConfig{
			PKLength:                 4,
			PKMaxHistory:             20,
			GeneratedPasswordLength:  12,
			GeneratedPasswordCharset: "abc123",
		},
		SecretDoorFields: []config.Field{
			{Name: "email", Label: "Email", HTMLType: "email", MaxLength: intPtr(120), PGType: "TEXT", Required: boolPtr(true)},
			{Name: "topic", Label: "Topic", HTMLType: "select", Options: []string{"a", "b"}, PGType: "TEXT"},
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
				Domain:         "alpha.example",
				DBCredentials:  config.Credentials{User: "alpha", Pass: "alpha_pass"},
				RoutingSecrets: config.RoutingSecrets{SecretDoor: "contact", SecretPage: "hidden"},
				PagesMenu:      []string{"home", "about", "contact", "news"},
				SecretDoorFields: []config.Field{
					{Name: "email", Label: "Your email", PGType: "VARCHAR"},
				},
			},
		},
	}
}

// decodePayload extracts the JSON document between the nowdoc markers.
func decodePayload(t *testing.T, php []byte) map[string]any {
	t.Helper()

	s := string(php)
	start := strings.Index(s, "<<<'JSON'\n")
	end := strings.LastIndex(s, "\nJSON\n, true);")
	if start < 0 || end < 0 {
		t.Fatalf("nowdoc markers not found in:\n%s", s)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(s[start+len("<<<'JSON'\n"):end]), &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	return payload
}

func TestMergeDoorFields(t *testing.T) {
	t.Parallel()

	p := testProvision()
	merged := MergeDoorFields(p.SecretDoorFields, p.PublicSites[0].SecretDoorFields)

	if len(merged) != 2 {
		t.Fatalf("MergeDoorFields() returned %d fields, want 2", len(merged))
	}

	email := merged[0]
	if email.Label != "Your email" || email.PGType != "VARCHAR" {
		t.Errorf("site values overwritten: %+v", email)
	}
	if email.HTMLType != "email" || email.MaxLength == nil || *email.MaxLength != 120 {
		t.Errorf("root attributes not borrowed: %+v", email)
	}
	if email.Required == nil || !*email.Required {
		t.Errorf("required not borrowed: %+v", email)
	}

	topic := merged[1]
	if topic.Name != "topic" || topic.PGType != "" {
		t.Errorf("appended root field = %+v, want topic without pg_type", topic)
	}
	if len(topic.Options) != 2 {
		t.Errorf("appended root field lost options: %+v", topic)
	}

	if p.SecretDoorFields[1].PGType != "TEXT" {
		t.Error("MergeDoorFields() modified the root fields")
	}
}

func TestPublicConfig(t *testing.T) {
	t.Parallel()

	p := testProvision()
	php, err := PublicConfig(p, p.PublicSites[0], []string{"news"})
	if err != nil {
		t.Fatalf("PublicConfig() error = %v", err)
	}

	if !strings.HasPrefix(string(php), "<?php\n// Generated configuration for domain: alpha.example\n$config = json_decode(<<<'JSON'\n") {
		t.Errorf("unexpected header:\n%s", php)
	}

	payload := decodePayload(t, php)
	if payload["domain"] != "alpha.example" {
		t.Errorf("domain = %v", payload["domain"])
	}
	if _, ok := payload["num_tripwire_pages"]; ok {
		t.Error("num_tripwire_pages must not be exported")
	}

	tripwires, ok := payload["tripwire_pages"].([]any)
	if !ok || len(tripwires) != 1 || tripwires[0] != "news" {
		t.Errorf("tripwire_pages = %v", payload["tripwire_pages"])
	}

	app, ok := payload["application_config"].(map[string]any)
	if !ok {
		t.Fatalf("application_config missing")
	}
	if app["pk_length"] != float64(4) || app["pk_max_history"] != float64(20) {
		t.Errorf("application_config = %v", app)
	}
	if _, ok := app["common_sequence_threshold"]; ok {
		t.Error("common_sequence_threshold must not be exported")
	}

	meta, ok := payload["project_meta"].(map[string]any)
	if !ok || meta["environment"] != "development" || meta["mode"] != "readwrite" || len(meta) != 2 {
		t.Errorf("project_meta = %v", payload["project_meta"])
	}

	pageFields, ok := payload["secret_page_fields"].([]any)
	if !ok || len(pageFields) != 1 {
		t.Fatalf("secret_page_fields = %v", payload["secret_page_fields"])
	}
	if _, ok := pageFields[0].(map[string]any)["pg_type"]; ok {
		t.Error("secret_page_fields must not carry pg_type")
	}
}

func TestPublicConfigWithoutTripwires(t *testing.T) {
	t.Parallel()

	p := testProvision()
	php, err := PublicConfig(p, p.PublicSites[0], nil)
	if err != nil {
		t.Fatalf("PublicConfig() error = %v", err)
	}
	tripwires, ok := decodePayload(t, php)["tripwire_pages"].([]any)
	if !ok || len(tripwires) != 0 {
		t.Errorf("tripwire_pages = %v, want empty list", tripwires)
	}
}

func TestAdminConfig(t *testing.T) {
	t.Parallel()

	php, err := AdminConfig(testProvision())
	if err != nil {
		t.Fatalf("AdminConfig() error = %v", err)
	}
	if !strings.HasPrefix(string(php), "<?php\n// Generated ADMIN configuration\n") {
		t.Errorf("unexpected header:\n%s", php)
	}

	payload := decodePayload(t, php)
	if _, ok := payload["domain"]; ok {
		t.Error("admin payload must not carry the domain")
	}

	app, ok := payload["application_config"].(map[string]any)
	if !ok {
		t.Fatal("application_config missing")
	}
	if _, ok := app["pk_length"]; ok {
		t.Error("admin application_config must not carry pk_length")
	}
	if app["generated_password_length"] != float64(12) {
		t.Errorf("generated_password_length = %v", app["generated_password_length"])
	}

	for _, key := range []string{"secret_door_fields", "secret_page_fields"} {
		fields, ok := payload[key].([]any)
		if !ok || len(fields) == 0 {
			t.Fatalf("%s = %v", key, payload[key])
		}
		for _, f := range fields {
			if _, ok := f.(map[string]any)["pg_type"]; ok {
				t.Errorf("%s must not carry pg_type", key)
			}
		}
	}
}

func TestWriteConfig(t *testing.T) {
	t.Parallel()

	t.Run("writes into config directory", func(t *testing.T) {
		t.Parallel()

		siteDir := t.TempDir()
		path, err := WriteConfig(siteDir, []byte("<?php\n"))
		if err != nil {
			t.Fatalf("WriteConfig() error = %v", err)
		}
		if path != filepath.Join(siteDir, "config", "config.php") {
			t.Errorf("WriteConfig() path = %q", path)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "<?php\n" {
			t.Errorf("content = %q", got)
		}
	})

	t.Run("missing site directory", func(t *testing.T) {
		t.Parallel()

		_, err := WriteConfig(filepath.Join(t.TempDir(), "01-missing"), []byte("x"))
		if !errors.Is(err, ErrSourceMissing) {
			t.Errorf("WriteConfig() error = %v, want ErrSourceMissing", err)
		}
	})
}
