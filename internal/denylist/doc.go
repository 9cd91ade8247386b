// Package denylist rejects secret sequences that coincide with commonly used
// PINs.
//
// The denylist is a ranked text resource (rank = line order) of previously
// observed common values for one sequence length. Only the first Threshold
// lines are ever read, where Threshold = floor(10^L * fraction).
//
// Note: The threshold uses the decimal PIN space 10^L as its universe, not the
// site's menu-derived alphabet. This matches how the ranked lists are indexed
// and is a deliberate modelling simplification.
//
// Resources are fetched once per run (optionally through Tor), stored as lz4
// frames in the XDG cache directory and opened lazily for every check. A
// missing or unreachable list disables filtering with a model.Warning instead
// of failing the run.
package denylist
