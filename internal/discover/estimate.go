package discover

import (
	"math"

	"github.com/nao1215/secretgarden/internal/model"
)

// Params are the inputs of a discoverability estimate.
type Params struct {
	// MenuSize is the number of navigable pages N.
	MenuSize int

	// SequencesPerSite is the number of live sequences K.
	SequencesPerSite int

	// Length is the sequence length L.
	Length int

	// Window is the number of consecutive guesses W considered per session.
	Window int

	// Tripwires is the tripwire page count T.
	Tripwires int
}

// Estimate computes the discoverability estimate for p.
//
// Single is K/(N-1)^L. Every step s in 1..W has survival base^(s+L-1) with
// base = (N-1-T)/(N-1), and probability Single*survival. Session is the sum
// of the step probabilities. Menus with N <= 1 yield a zero estimate.
func Estimate(p Params) model.Estimate {
	if p.MenuSize <= 1 {
		return model.Estimate{Steps: []model.Step{}}
	}

	space := float64(p.MenuSize - 1)
	single := float64(p.SequencesPerSite) / math.Pow(space, float64(p.Length))

	base := 0.0
	if remaining := p.MenuSize - 1 - p.Tripwires; remaining > 0 {
		base = float64(remaining) / space
	}

	est := model.Estimate{
		Single: single,
		Steps:  make([]model.Step, 0, max(p.Window, 0)),
	}
	for s := 1; s <= p.Window; s++ {
		survival := 0.0
		if base > 0 {
			survival = math.Pow(base, float64(s+p.Length-1))
		}
		step := model.Step{
			Index:       s,
			Survival:    survival,
			Probability: single * survival,
		}
		est.Steps = append(est.Steps, step)
		est.Session += step.Probability
	}
	return est
}

// Window returns the sliding window size for a history of maxHistory pages.
// The result is not clamped; non-positive windows yield an empty series.
func Window(maxHistory, length int) int {
	return maxHistory - length + 1
}

// SequencesPerSite spreads total sequences over sites, rounding up.
func SequencesPerSite(total, sites int) int {
	if sites <= 0 || total <= 0 {
		return 0
	}
	return (total + sites - 1) / sites
}
