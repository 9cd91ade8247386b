// Package pipeline runs a provisioning build as an ordered list of steps.
//
// Each step receives the shared Run state and fills in its part: tripwire
// selection, site cloning, configuration rendering, the common-PIN denylist,
// sequence allocation and the CSV, SQL, report and history outputs. Steps
// record recoverable problems as warnings on the run report and return an
// error only when the build cannot continue.
//
// Sites are cloned concurrently by BatchProcessor. Sequence allocation is
// sequential: the denylist is prepared once before the first site and only
// read afterwards.
package pipeline
