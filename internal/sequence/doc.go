// Package sequence allocates the secret navigation sequences ("secret doors")
// of the public sites.
//
// A sequence is an ordered list of page indices of a site's menu, where index
// 0 is the home page. The package provides:
//   - The constraint model: the legal alphabet (menu minus tripwire pages),
//     the legal start alphabet (legal alphabet minus home) and the adjacency
//     rule (no symbol repeated back to back), with IsValid as the oracle
//   - The Allocator, which draws up to K unique valid sequences per site with
//     a cryptographically strong random source, rejecting common values via
//     an optional denylist checker
//   - PickTripwires, which chooses the tripwire pages of a site
//
// Design decision: Sequences are secrets. The allocator only ever draws from
// crypto/rand (or an injected io.Reader in tests) and never logs candidate
// values. Structural infeasibility and budget exhaustion are reported as
// model.Warning values together with a model.ExitReason, not as errors.
package sequence
