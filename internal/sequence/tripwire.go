package sequence

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"slices"
)

// Tripwires is the tripwire selection of one site.
type Tripwires struct {
	// Pages are the tripwire page names, in selection order.
	Pages []string

	// Indices are the menu indices of Pages, sorted.
	Indices []int
}

// PickTripwires samples count tripwire pages from menu without replacement.
// The home page (index 0) and the secret door page are never picked; count is
// clamped to the number of remaining candidates. A nil random source means
// crypto/rand.
func PickTripwires(menu []string, secretDoor string, count int, random io.Reader) (Tripwires, error) {
	if random == nil {
		random = rand.Reader
	}

	candidates := make([]int, 0, len(menu))
	for i := 1; i < len(menu); i++ {
		if menu[i] == secretDoor {
			continue
		}
		candidates = append(candidates, i)
	}

	count = min(count, len(candidates))
	if count <= 0 {
		return Tripwires{Pages: []string{}, Indices: []int{}}, nil
	}

	// Partial Fisher-Yates: the first count slots end up as the sample.
	for i := range count {
		j, err := rand.Int(random, big.NewInt(int64(len(candidates)-i)))
		if err != nil {
			return Tripwires{}, fmt.Errorf("failed to pick tripwire pages: %w", err)
		}
		k := i + int(j.Int64())
		candidates[i], candidates[k] = candidates[k], candidates[i]
	}

	picked := candidates[:count]
	tw := Tripwires{
		Pages:   make([]string, 0, count),
		Indices: slices.Clone(picked),
	}
	for _, idx := range picked {
		tw.Pages = append(tw.Pages, menu[idx])
	}
	slices.Sort(tw.Indices)
	return tw, nil
}
