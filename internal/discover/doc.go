// Package discover estimates how likely a blind guessing session is to land
// on a live secret sequence. The estimate is analytic: it is a closed-form
// function of the site parameters and involves no simulation.
//
// The single-guess probability is K/(N-1)^L over the full structural space,
// not the reduced alphabet the allocator draws from. Auditors comparing the
// estimate with the actual search space should account for this difference.
package discover
