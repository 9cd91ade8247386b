package config

// DefaultNumGeneratedUsernames is used when project_meta omits
// num_generated_usernames.
const DefaultNumGeneratedUsernames = 100

// Provision is the provisioning file: the project, its database and every
// site to build.
type Provision struct {
	ProjectMeta       ProjectMeta       `yaml:"project_meta" json:"project_meta"`
	DatabaseServer    DatabaseServer    `yaml:"database_server" json:"database_server"`
	ApplicationConfig ApplicationConfig `yaml:"application_config" json:"application_config"`
	SecretDoorFields  []Field           `yaml:"secret_door_fields" json:"secret_door_fields"`
	SecretPageFields  []Field           `yaml:"secret_page_fields" json:"secret_page_fields"`
	AdminSite         AdminSite         `yaml:"admin_site" json:"admin_site"`
	PublicSites       []PublicSite      `yaml:"public_sites" json:"public_sites"`
}

// ProjectMeta describes the deployment as a whole.
type ProjectMeta struct {
	Version     string `yaml:"version" json:"version"`
	Environment string `yaml:"environment" json:"environment"`
	Mode        string `yaml:"mode" json:"mode"`

	// NumPublicSites must match len(PublicSites).
	NumPublicSites int `yaml:"num_public_sites" json:"num_public_sites"`

	// NumUniquePKSequences is the total number of secret sequences, spread
	// evenly over the public sites.
	NumUniquePKSequences int `yaml:"num_unique_pk_sequences" json:"num_unique_pk_sequences"`

	// NumGeneratedUsernames is the size of the username vending pool.
	NumGeneratedUsernames int `yaml:"num_generated_usernames,omitempty" json:"num_generated_usernames,omitempty"`
}

// UsernameCount returns the username pool size, applying the default.
func (m ProjectMeta) UsernameCount() int {
	if m.NumGeneratedUsernames <= 0 {
		return DefaultNumGeneratedUsernames
	}
	return m.NumGeneratedUsernames
}

// DatabaseServer locates the PostgreSQL server.
type DatabaseServer struct {
	Host   string `yaml:"host" json:"host"`
	Port   int    `yaml:"port" json:"port"`
	DBName string `yaml:"db_name" json:"db_name"`
}

// ApplicationConfig holds the secret sequence parameters.
type ApplicationConfig struct {
	// PKLength is the secret sequence length L.
	PKLength int `yaml:"pk_length" json:"pk_length"`

	// PKMaxHistory is the number of page visits the site remembers.
	PKMaxHistory int `yaml:"pk_max_history" json:"pk_max_history"`

	GeneratedPasswordLength  int    `yaml:"generated_password_length" json:"generated_password_length"`
	GeneratedPasswordCharset string `yaml:"generated_password_charset" json:"generated_password_charset"`

	// CommonSequenceThreshold is the popularity fraction p in [0, 1] of the
	// common-PIN denylist. Zero disables filtering.
	CommonSequenceThreshold float64 `yaml:"common_sequence_threshold,omitempty" json:"common_sequence_threshold,omitempty"`

	// AttemptBudget caps the candidates drawn per site. Zero means the default.
	AttemptBudget int `yaml:"attempt_budget,omitempty" json:"attempt_budget,omitempty"`

	// DenylistSources overrides the published common-PIN lists per length.
	DenylistSources []DenylistSource `yaml:"denylist_sources,omitempty" json:"denylist_sources,omitempty"`
}

// DenylistSourceMap returns DenylistSources keyed by length.
func (a ApplicationConfig) DenylistSourceMap() map[int]string {
	m := make(map[int]string, len(a.DenylistSources))
	for _, s := range a.DenylistSources {
		m[s.Length] = s.URL
	}
	return m
}

// DenylistSource is a ranked common-PIN list for one sequence length.
type DenylistSource struct {
	Length int    `yaml:"length" json:"length"`
	URL    string `yaml:"url" json:"url"`
}

// Credentials are the database role of a site.
type Credentials struct {
	User string `yaml:"user" json:"user"`
	Pass string `yaml:"pass" json:"pass"`
}

// Field is a form field of the secret door or secret page.
// Optional attributes are pointers or omitempty so that an absent attribute
// can be told apart from a zero one when site fields are merged.
type Field struct {
	Name      string   `yaml:"name" json:"name"`
	Label     string   `yaml:"label" json:"label"`
	HTMLType  string   `yaml:"html_type,omitempty" json:"html_type,omitempty"`
	HelpText  string   `yaml:"help_text,omitempty" json:"help_text,omitempty"`
	MaxLength *int     `yaml:"maxlength,omitempty" json:"maxlength,omitempty"`
	PGType    string   `yaml:"pg_type,omitempty" json:"pg_type,omitempty"`
	Required  *bool    `yaml:"required,omitempty" json:"required,omitempty"`
	Options   []string `yaml:"options,omitempty" json:"options,omitempty"`
}

// AdminSite is the back-office site.
type AdminSite struct {
	Domain        string      `yaml:"domain" json:"domain"`
	DBCredentials Credentials `yaml:"db_credentials" json:"db_credentials"`
}

// RoutingSecrets name the visible entry point and the hidden page.
type RoutingSecrets struct {
	// SecretDoor is the menu page where the secret sequence ends.
	SecretDoor string `yaml:"secret_door" json:"secret_door"`

	// SecretPage is the unlinked page revealed by the sequence.
	SecretPage string `yaml:"secret_page" json:"secret_page"`
}

// PublicSite is one public deployment with its own menu and sequence pool.
type PublicSite struct {
	Domain         string         `yaml:"domain" json:"domain"`
	DBCredentials  Credentials    `yaml:"db_credentials" json:"db_credentials"`
	RoutingSecrets RoutingSecrets `yaml:"routing_secrets" json:"routing_secrets"`

	// PagesMenu is the navigable menu. Index 0 is the home page.
	PagesMenu []string `yaml:"pages_menu" json:"pages_menu"`

	// NumTripwirePages is the number of menu pages that flag an intrusion.
	// Nil when the key is absent, which also skips the tripwire limit check.
	NumTripwirePages *int `yaml:"num_tripwire_pages,omitempty" json:"num_tripwire_pages,omitempty"`

	// SecretDoorFields are site-specific fields merged over the root fields.
	SecretDoorFields []Field `yaml:"secret_door_fields,omitempty" json:"secret_door_fields,omitempty"`
}

// TripwireCount returns the configured tripwire count, zero when absent.
func (s PublicSite) TripwireCount() int {
	if s.NumTripwirePages == nil {
		return 0
	}
	return *s.NumTripwirePages
}

// Domains returns the admin domain followed by every public domain.
func (p *Provision) Domains() []string {
	domains := make([]string, 0, len(p.PublicSites)+1)
	domains = append(domains, p.AdminSite.Domain)
	for _, s := range p.PublicSites {
		domains = append(domains, s.Domain)
	}
	return domains
}
