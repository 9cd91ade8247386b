package denylist

import (
	"bufio"
	"fmt"
	"math"
	"strings"
)

// Threshold returns the absolute rank threshold floor(10^length * fraction).
// Fractions outside [0, 1] are clamped; the result saturates at math.MaxInt.
func Threshold(length int, fraction float64) int {
	if length < 0 || fraction <= 0 || math.IsNaN(fraction) {
		return 0
	}
	fraction = min(fraction, 1)

	t := math.Floor(math.Pow(10, float64(length)) * fraction)
	if t >= math.MaxInt {
		return math.MaxInt
	}
	return int(t)
}

// Filter checks candidates against the top-ranked lines of a Resource.
// It is read-only and safe for concurrent use when its Resource is.
type Filter struct {
	resource  Resource
	threshold int
}

// NewFilter creates a Filter scanning the first threshold lines of resource.
// A nil resource or a non-positive threshold produces a disabled filter.
func NewFilter(resource Resource, threshold int) *Filter {
	return &Filter{resource: resource, threshold: threshold}
}

// Enabled reports whether the filter can reject anything.
func (f *Filter) Enabled() bool {
	return f != nil && f.resource != nil && f.threshold > 0
}

// Threshold returns the number of ranked lines the filter scans.
func (f *Filter) Threshold() int {
	if f == nil {
		return 0
	}
	return f.threshold
}

// IsDenylisted reports whether candidate equals the first token of one of the
// first Threshold lines, and its 1-based rank when it does. Blank lines count
// toward the rank but never match. Reading stops at the threshold or at the
// end of the resource, whichever comes first.
func (f *Filter) IsDenylisted(candidate string) (bool, int, error) {
	if !f.Enabled() {
		return false, 0, nil
	}

	rc, err := f.resource.Open()
	if err != nil {
		return false, 0, fmt.Errorf("failed to open common-PIN list: %w", err)
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	for rank := 1; rank <= f.threshold && scanner.Scan(); rank++ {
		if token := firstToken(scanner.Text()); token != "" && token == candidate {
			return true, rank, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, 0, fmt.Errorf("failed to read common-PIN list: %w", err)
	}
	return false, 0, nil
}

// firstToken returns the value of a ranked line. Lists come either as bare
// values or as CSV rows with metadata after the first comma.
func firstToken(line string) string {
	line = strings.TrimSpace(line)
	if i := strings.IndexByte(line, ','); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
