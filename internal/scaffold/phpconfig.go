package scaffold

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/secretgarden/internal/config"
)

// ConfigFile is the generated configuration path inside a site directory.
const ConfigFile = "config/config.php"

// metaPayload is the part of project_meta the sites see.
type metaPayload struct {
	Environment string `json:"environment"`
	Mode        string `json:"mode"`
}

// publicAppPayload is the part of application_config public sites see.
type publicAppPayload struct {
	PKLength                 int    `json:"pk_length"`
	PKMaxHistory             int    `json:"pk_max_history"`
	GeneratedPasswordLength  int    `json:"generated_password_length"`
	GeneratedPasswordCharset string `json:"generated_password_charset"`
}

// adminAppPayload is the part of application_config the admin site sees.
type adminAppPayload struct {
	GeneratedPasswordLength  int    `json:"generated_password_length"`
	GeneratedPasswordCharset string `json:"generated_password_charset"`
}

type publicPayload struct {
	Domain            string                `json:"domain"`
	DBCredentials     config.Credentials    `json:"db_credentials"`
	RoutingSecrets    config.RoutingSecrets `json:"routing_secrets"`
	PagesMenu         []string              `json:"pages_menu"`
	SecretDoorFields  []config.Field        `json:"secret_door_fields"`
	ProjectMeta       metaPayload           `json:"project_meta"`
	ApplicationConfig publicAppPayload      `json:"application_config"`
	TripwirePages     []string              `json:"tripwire_pages"`
	SecretPageFields  []config.Field        `json:"secret_page_fields"`
}

type adminPayload struct {
	DBCredentials     config.Credentials `json:"db_credentials"`
	ProjectMeta       metaPayload        `json:"project_meta"`
	ApplicationConfig adminAppPayload    `json:"application_config"`
	SecretDoorFields  []config.Field     `json:"secret_door_fields"`
	SecretPageFields  []config.Field     `json:"secret_page_fields"`
}

// PublicConfig renders the config.php of one public site. tripwirePages are
// the page names picked for the site in this run.
func PublicConfig(p *config.Provision, site config.PublicSite, tripwirePages []string) ([]byte, error) {
	if tripwirePages == nil {
		tripwirePages = []string{}
	}
	payload := publicPayload{
		Domain:           site.Domain,
		DBCredentials:    site.DBCredentials,
		RoutingSecrets:   site.RoutingSecrets,
		PagesMenu:        site.PagesMenu,
		SecretDoorFields: MergeDoorFields(p.SecretDoorFields, site.SecretDoorFields),
		ProjectMeta: metaPayload{
			Environment: p.ProjectMeta.Environment,
			Mode:        p.ProjectMeta.Mode,
		},
		ApplicationConfig: publicAppPayload{
			PKLength:                 p.ApplicationConfig.PKLength,
			PKMaxHistory:             p.ApplicationConfig.PKMaxHistory,
			GeneratedPasswordLength:  p.ApplicationConfig.GeneratedPasswordLength,
			GeneratedPasswordCharset: p.ApplicationConfig.GeneratedPasswordCharset,
		},
		TripwirePages:    tripwirePages,
		SecretPageFields: withoutPGType(p.SecretPageFields),
	}
	return renderPHP("// Generated configuration for domain: "+site.Domain, payload)
}

// AdminConfig renders the config.php of the admin site. The admin domain and
// the sequence parameters are not part of it.
func AdminConfig(p *config.Provision) ([]byte, error) {
	payload := adminPayload{
		DBCredentials: p.AdminSite.DBCredentials,
		ProjectMeta: metaPayload{
			Environment: p.ProjectMeta.Environment,
			Mode:        p.ProjectMeta.Mode,
		},
		ApplicationConfig: adminAppPayload{
			GeneratedPasswordLength:  p.ApplicationConfig.GeneratedPasswordLength,
			GeneratedPasswordCharset: p.ApplicationConfig.GeneratedPasswordCharset,
		},
		SecretDoorFields: withoutPGType(p.SecretDoorFields),
		SecretPageFields: withoutPGType(p.SecretPageFields),
	}
	return renderPHP("// Generated ADMIN configuration", payload)
}

// MergeDoorFields merges the root secret door fields into a site's own.
// Site fields keep their values and borrow html_type, maxlength, required
// and options from the root field of the same name when they lack them.
// Root fields the site does not mention are appended without pg_type.
func MergeDoorFields(root, site []config.Field) []config.Field {
	byName := make(map[string]config.Field, len(root))
	for _, f := range root {
		byName[f.Name] = f
	}

	merged := make([]config.Field, 0, len(root)+len(site))
	seen := make(map[string]bool, len(site))
	for _, f := range site {
		if f.Name == "" {
			merged = append(merged, f)
			continue
		}
		if r, ok := byName[f.Name]; ok {
			if f.HTMLType == "" {
				f.HTMLType = r.HTMLType
			}
			if f.MaxLength == nil {
				f.MaxLength = r.MaxLength
			}
			if f.Required == nil {
				f.Required = r.Required
			}
			if f.Options == nil {
				f.Options = r.Options
			}
		}
		merged = append(merged, f)
		seen[f.Name] = true
	}

	for _, f := range root {
		if seen[f.Name] {
			continue
		}
		f.PGType = ""
		merged = append(merged, f)
	}
	return merged
}

// withoutPGType returns a copy of fields with the column type removed.
func withoutPGType(fields []config.Field) []config.Field {
	out := make([]config.Field, len(fields))
	for i, f := range fields {
		f.PGType = ""
		out[i] = f
	}
	return out
}

// renderPHP embeds payload as JSON in a nowdoc so PHP never interpolates it.
func renderPHP(header string, payload any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("failed to encode site configuration: %w", err)
	}
	body := strings.TrimRight(buf.String(), "\n")

	var out bytes.Buffer
	out.WriteString("<?php\n")
	out.WriteString(header + "\n")
	out.WriteString("$config = json_decode(<<<'JSON'\n")
	out.WriteString(body)
	out.WriteString("\nJSON\n, true);\n")
	return out.Bytes(), nil
}

// WriteConfig writes content to config/config.php inside siteDir and returns
// the file path. The site directory must already exist.
func WriteConfig(siteDir string, content []byte) (string, error) {
	if info, err := os.Stat(siteDir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrSourceMissing, siteDir)
	}
	path := filepath.Join(siteDir, filepath.FromSlash(ConfigFile))
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
