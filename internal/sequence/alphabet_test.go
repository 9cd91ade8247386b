package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegalAlphabet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		menuSize  int
		tripwires []int
		want      []int
	}{
		{name: "no tripwires", menuSize: 4, tripwires: nil, want: []int{0, 1, 2, 3}},
		{name: "tripwires removed", menuSize: 6, tripwires: []int{4, 2}, want: []int{0, 1, 3, 5}},
		{name: "out of range tripwire ignored", menuSize: 3, tripwires: []int{7}, want: []int{0, 1, 2}},
		{name: "every index a tripwire", menuSize: 2, tripwires: []int{0, 1}, want: []int{}},
		{name: "zero menu", menuSize: 0, tripwires: nil, want: []int{}},
		{name: "negative menu", menuSize: -3, tripwires: nil, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, LegalAlphabet(tt.menuSize, tt.tripwires))
		})
	}
}

func TestLegalStartAlphabet(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{1, 3}, LegalStartAlphabet([]int{0, 1, 3}))
	assert.Equal(t, []int{}, LegalStartAlphabet([]int{0}))
	assert.Equal(t, []int{}, LegalStartAlphabet([]int{}))
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	alphabet := []int{0, 1, 3, 4}
	start := LegalStartAlphabet(alphabet)

	tests := []struct {
		name string
		seq  []int
		want bool
	}{
		{name: "valid", seq: []int{1, 0, 3, 0}, want: true},
		{name: "home allowed after start", seq: []int{4, 0}, want: true},
		{name: "starts on home", seq: []int{0, 1, 3}, want: false},
		{name: "contains tripwire", seq: []int{1, 2, 3}, want: false},
		{name: "adjacent repeat", seq: []int{1, 3, 3, 4}, want: false},
		{name: "non-adjacent repeat is fine", seq: []int{1, 3, 1, 3}, want: true},
		{name: "single symbol", seq: []int{3}, want: true},
		{name: "empty", seq: []int{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsValid(tt.seq, alphabet, start))
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	t.Run("encode concatenates indices", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "3102", Encode([]int{3, 1, 0, 2}))
		assert.Equal(t, "1112", Encode([]int{11, 12}))
	})

	t.Run("decode single digit symbols", func(t *testing.T) {
		t.Parallel()
		seq, err := Decode("3102")
		require.NoError(t, err)
		assert.Equal(t, []int{3, 1, 0, 2}, seq)
	})

	t.Run("decode rejects non digits", func(t *testing.T) {
		t.Parallel()
		_, err := Decode("31a2")
		require.ErrorIs(t, err, ErrInvalidEncoding)
		_, err = Decode("")
		require.ErrorIs(t, err, ErrInvalidEncoding)
	})
}

func TestCapacity(t *testing.T) {
	t.Parallel()

	t.Run("counts start times branching", func(t *testing.T) {
		t.Parallel()
		alphabet := []int{0, 1, 2, 3}
		n, ok := Capacity(alphabet, LegalStartAlphabet(alphabet), 3)
		require.True(t, ok)
		assert.Equal(t, uint64(27), n)
	})

	t.Run("two symbols admit one sequence", func(t *testing.T) {
		t.Parallel()
		n, ok := Capacity([]int{0, 1}, []int{1}, 5)
		require.True(t, ok)
		assert.Equal(t, uint64(1), n)
	})

	t.Run("single symbol and long sequence admit none", func(t *testing.T) {
		t.Parallel()
		n, ok := Capacity([]int{1}, []int{1}, 2)
		require.True(t, ok)
		assert.Zero(t, n)
	})

	t.Run("empty start admits none", func(t *testing.T) {
		t.Parallel()
		n, ok := Capacity([]int{0}, []int{}, 3)
		require.True(t, ok)
		assert.Zero(t, n)
	})

	t.Run("overflow is reported", func(t *testing.T) {
		t.Parallel()
		alphabet := LegalAlphabet(1000, nil)
		_, ok := Capacity(alphabet, LegalStartAlphabet(alphabet), 12)
		assert.False(t, ok)
	})
}
