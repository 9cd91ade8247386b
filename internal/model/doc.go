// Package model defines the core data structures shared by the allocator,
// the discoverability model, the provisioning pipeline and the reporters.
//
// This package contains the following main types:
//   - Warning: A recoverable diagnostic raised while provisioning a site
//   - Pool: The set of secret sequences allocated for one site
//   - Estimate: The analytic discoverability estimate for one site
//   - SiteReport / RunReport: What a provisioning run reports back
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The sequence, discover, report and database packages all use
// these types, so centralizing them prevents import cycles.
//
// Pools hold secrets. They are designed to be consumed by the seeding step and
// discarded; none of the report types carry sequence values.
package model
