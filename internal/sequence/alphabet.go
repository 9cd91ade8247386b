package sequence

import (
	"errors"
	"math/bits"
	"slices"
	"strconv"
	"strings"
)

// HomeIndex is the menu index of the home page. Sequences never start on it.
const HomeIndex = 0

// ErrInvalidEncoding is returned by Decode for strings that are not a list of
// decimal digits.
var ErrInvalidEncoding = errors.New("invalid sequence encoding: expected decimal digits")

// LegalAlphabet returns the sorted menu indices {0..menuSize-1} that are not
// tripwires. The result is empty when menuSize <= 0 or every index is a tripwire.
func LegalAlphabet(menuSize int, tripwires []int) []int {
	if menuSize <= 0 {
		return []int{}
	}

	excluded := make(map[int]struct{}, len(tripwires))
	for _, t := range tripwires {
		excluded[t] = struct{}{}
	}

	alphabet := make([]int, 0, menuSize)
	for i := range menuSize {
		if _, ok := excluded[i]; ok {
			continue
		}
		alphabet = append(alphabet, i)
	}
	return alphabet
}

// LegalStartAlphabet returns the legal alphabet without the home page.
func LegalStartAlphabet(alphabet []int) []int {
	start := make([]int, 0, len(alphabet))
	for _, s := range alphabet {
		if s != HomeIndex {
			start = append(start, s)
		}
	}
	return start
}

// IsValid reports whether seq satisfies the constraint model: every symbol is
// in alphabet, the first symbol is in start, and no two consecutive symbols
// are equal. An empty sequence is never valid.
func IsValid(seq, alphabet, start []int) bool {
	if len(seq) == 0 {
		return false
	}
	if !slices.Contains(start, seq[0]) {
		return false
	}
	for i, s := range seq {
		if !slices.Contains(alphabet, s) {
			return false
		}
		if i > 0 && seq[i-1] == s {
			return false
		}
	}
	return true
}

// Encode returns the string identity of a sequence: the concatenation of its
// decimal indices. Two sequences are the same secret iff their encodings match.
func Encode(seq []int) string {
	var sb strings.Builder
	for _, s := range seq {
		sb.WriteString(strconv.Itoa(s))
	}
	return sb.String()
}

// Decode parses an encoding produced for a menu of at most 10 pages, where
// every symbol is a single digit. Larger menus have ambiguous encodings.
func Decode(encoded string) ([]int, error) {
	if encoded == "" {
		return nil, ErrInvalidEncoding
	}
	seq := make([]int, 0, len(encoded))
	for _, r := range encoded {
		if r < '0' || r > '9' {
			return nil, ErrInvalidEncoding
		}
		seq = append(seq, int(r-'0'))
	}
	return seq, nil
}

// Capacity returns the number of distinct valid sequences of the given length:
// |start| * (|alphabet|-1)^(length-1). The second result is false when the
// count does not fit in a uint64.
func Capacity(alphabet, start []int, length int) (uint64, bool) {
	if length < 1 || len(start) == 0 {
		return 0, true
	}

	total := uint64(len(start))
	branch := uint64(len(alphabet) - 1)
	for range length - 1 {
		hi, lo := bits.Mul64(total, branch)
		if hi != 0 {
			return 0, false
		}
		total = lo
	}
	return total, true
}
