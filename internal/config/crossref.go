package config

import (
	"errors"
	"fmt"
	"slices"

	"golang.org/x/net/idna"
)

// Validate checks the cross-reference rules the schema cannot express.
// Every violation is collected; the result joins them with errors.Join and
// each one wraps its sentinel error.
func (p *Provision) Validate() error {
	var errs []error

	if want, got := p.ProjectMeta.NumPublicSites, len(p.PublicSites); want != got {
		errs = append(errs, fmt.Errorf("%w: project_meta.num_public_sites (%d) does not match the number of public_sites configured (%d)",
			ErrSiteCountMismatch, want, got))
	}

	app := p.ApplicationConfig
	if app.PKMaxHistory < app.PKLength {
		errs = append(errs, fmt.Errorf("%w: application_config.pk_max_history (%d) must be >= application_config.pk_length (%d)",
			ErrHistoryTooShort, app.PKMaxHistory, app.PKLength))
	}

	seen := make(map[string]bool)
	for _, domain := range p.Domains() {
		if seen[domain] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateDomain, domain))
		}
		seen[domain] = true

		if _, err := idna.Lookup.ToASCII(domain); err != nil || domain == "" {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidDomain, domain))
		}
	}

	for _, site := range p.PublicSites {
		errs = append(errs, site.validate()...)
	}

	return errors.Join(errs...)
}

// validate checks the menu, routing secrets and tripwire count of one site.
func (s PublicSite) validate() []error {
	var errs []error

	seen := make(map[string]bool, len(s.PagesMenu))
	for _, page := range s.PagesMenu {
		if seen[page] {
			errs = append(errs, fmt.Errorf("%w: %s: page %q appears more than once in pages_menu",
				ErrDuplicatePage, s.Domain, page))
		}
		seen[page] = true
	}

	if !slices.Contains(s.PagesMenu, s.RoutingSecrets.SecretDoor) {
		errs = append(errs, fmt.Errorf("%w: %s: secret_door %q is not in pages_menu, the entry point must be an existing page",
			ErrSecretDoorNotInMenu, s.Domain, s.RoutingSecrets.SecretDoor))
	}

	if slices.Contains(s.PagesMenu, s.RoutingSecrets.SecretPage) {
		errs = append(errs, fmt.Errorf("%w: %s: secret_page %q is in pages_menu, the hidden page must not be linked",
			ErrSecretPageInMenu, s.Domain, s.RoutingSecrets.SecretPage))
	}

	if limit := len(s.PagesMenu) - 2; s.NumTripwirePages != nil && *s.NumTripwirePages >= limit {
		errs = append(errs, fmt.Errorf("%w: %s: num_tripwire_pages (%d) must be < (pages_menu count - 2) (%d)",
			ErrTooManyTripwires, s.Domain, *s.NumTripwirePages, limit))
	}
	return errs
}
