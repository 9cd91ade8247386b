package sqlgen

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/secretgarden/internal/config"
)

// UserPlaceholder is replaced by each quoted role name in the permissions
// template.
const UserPlaceholder = "dbuser"

// DefaultVarcharLength is used for VARCHAR fields without maxlength.
const DefaultVarcharLength = 255

// SequenceRow is one secret sequence of one site.
type SequenceRow struct {
	Domain   string
	Sequence string
}

// UserRow is one entry of the username vending pool.
type UserRow struct {
	Username    string
	DisplayName string
}

// Roles returns the unique database roles of the provision, admin first.
// Roles with an empty user or password are skipped.
func Roles(p *config.Provision) []config.Credentials {
	all := make([]config.Credentials, 0, len(p.PublicSites)+1)
	all = append(all, p.AdminSite.DBCredentials)
	for _, s := range p.PublicSites {
		all = append(all, s.DBCredentials)
	}

	seen := make(map[string]bool, len(all))
	roles := make([]config.Credentials, 0, len(all))
	for _, c := range all {
		if c.User == "" || c.Pass == "" || seen[c.User] {
			continue
		}
		seen[c.User] = true
		roles = append(roles, c)
	}
	return roles
}

// RolesSQL renders 01_roles.sql.
func RolesSQL(p *config.Provision, random io.Reader) (string, error) {
	var b strings.Builder
	b.WriteString("-- Generated roles for Secret Garden\n")
	for _, role := range Roles(p) {
		verifier, err := ScramVerifier(role.Pass, random)
		if err != nil {
			return "", fmt.Errorf("failed to hash password of role %s: %w", role.User, err)
		}
		fmt.Fprintf(&b, "CREATE ROLE %s WITH LOGIN PASSWORD %s;\n", QuoteIdent(role.User), QuoteLiteral(verifier))
	}
	return b.String(), nil
}

// ColumnType returns the PostgreSQL column type of a form field.
// VARCHAR gets the field's maxlength; a missing pg_type means TEXT.
func ColumnType(f config.Field) string {
	pgType := f.PGType
	if pgType == "" {
		pgType = "TEXT"
	}
	if strings.EqualFold(pgType, "VARCHAR") {
		length := DefaultVarcharLength
		if f.MaxLength != nil {
			length = *f.MaxLength
		}
		return "VARCHAR(" + strconv.Itoa(length) + ")"
	}
	return pgType
}

// TablesExtensionsSQL renders 02_tables_extensions.sql: one column per root
// form field on the submission tables. A repeated field name keeps its first
// position and its last type.
func TablesExtensionsSQL(p *config.Provision) string {
	var b strings.Builder
	b.WriteString("\n-- Dynamic Schema Extensions based on YAML Config\n")

	if cols := columns(p.SecretDoorFields); len(cols) > 0 {
		b.WriteString("-- Extending secret_door_submissions\n")
		for _, c := range cols {
			fmt.Fprintf(&b, "ALTER TABLE secret_door_submissions ADD COLUMN IF NOT EXISTS %s %s;\n", QuoteIdent(c[0]), c[1])
		}
	}
	if cols := columns(p.SecretPageFields); len(cols) > 0 {
		b.WriteString("\n-- Extending secret_room_submissions\n")
		for _, c := range cols {
			fmt.Fprintf(&b, "ALTER TABLE secret_room_submissions ADD COLUMN IF NOT EXISTS %s %s;\n", QuoteIdent(c[0]), c[1])
		}
	}
	return b.String()
}

// columns returns (name, type) pairs for named fields.
func columns(fields []config.Field) [][2]string {
	index := make(map[string]int, len(fields))
	cols := make([][2]string, 0, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			continue
		}
		if i, ok := index[f.Name]; ok {
			cols[i][1] = ColumnType(f)
			continue
		}
		index[f.Name] = len(cols)
		cols = append(cols, [2]string{f.Name, ColumnType(f)})
	}
	return cols
}

// PermissionsSQL renders 05_permissions.sql by instantiating template once
// per unique role.
func PermissionsSQL(p *config.Provision, template string) string {
	blocks := []string{"-- Generated Permissions for Secret Garden Users"}

	seen := make(map[string]bool)
	users := make([]string, 0, len(p.PublicSites)+1)
	users = append(users, p.AdminSite.DBCredentials.User)
	for _, s := range p.PublicSites {
		users = append(users, s.DBCredentials.User)
	}
	for _, user := range users {
		if user == "" || seen[user] {
			continue
		}
		seen[user] = true
		blocks = append(blocks, "\n-- Permissions for role: "+user)
		blocks = append(blocks, strings.ReplaceAll(template, UserPlaceholder, QuoteIdent(user)))
	}
	return strings.Join(blocks, "\n")
}

// DataSQL renders 06_data.sql seeding pk_sequences and users.
func DataSQL(sequences []SequenceRow, users []UserRow) string {
	lines := []string{"-- Seed Data for Secret Garden", ""}

	if len(sequences) > 0 {
		values := make([]string, len(sequences))
		for i, s := range sequences {
			values[i] = "(" + QuoteLiteral(s.Domain) + ", " + QuoteLiteral(s.Sequence) + ")"
		}
		lines = append(lines,
			"-- 1. Seed pk_sequences",
			"INSERT INTO pk_sequences (domain, pk_sequence) VALUES",
			strings.Join(values, ",\n"),
			"ON CONFLICT (domain, pk_sequence) DO NOTHING;\n",
		)
	} else {
		lines = append(lines, "-- No PK sequences generated\n")
	}

	if len(users) > 0 {
		values := make([]string, len(users))
		for i, u := range users {
			values[i] = "(" + QuoteLiteral(u.Username) + ", " + QuoteLiteral(u.DisplayName) + ")"
		}
		lines = append(lines,
			"-- 2. Seed users (Vending Pool)",
			"INSERT INTO users (username, displayname) VALUES",
			strings.Join(values, ",\n"),
			"ON CONFLICT (username) DO NOTHING;\n",
		)
	} else {
		lines = append(lines, "-- No users in the vending pool\n")
	}

	return strings.Join(lines, "\n")
}
