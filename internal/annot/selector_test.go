package annot

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectEmpty(t *testing.T) {
	assert.Nil(t, Select(nil, nil))
}

func TestSelectSingle(t *testing.T) {
	a := &TranscriptAnnotation{TranscriptID: "NM_1"}
	assert.Same(t, a, Select([]*TranscriptAnnotation{a}, nil))
}

// A viewer's preferred transcript outranks every quality signal,
// including a curated canonical protein-coding candidate with a far
// higher severity score.
func TestSelectPreferredOutranksEverything(t *testing.T) {
	strong := &TranscriptAnnotation{
		TranscriptID:     "NM_1",
		Curated:          true,
		ProteinCoding:    true,
		Canonical:        true,
		ConsequenceScore: 100,
	}
	weak := &TranscriptAnnotation{
		TranscriptID: "ENST_2",
	}

	got := Select([]*TranscriptAnnotation{strong, weak}, map[string]bool{"ENST_2": true})
	assert.Same(t, weak, got)
	assert.True(t, weak.Preferred)
	assert.False(t, strong.Preferred)
}

func TestSelectTieBreakOrder(t *testing.T) {
	tests := []struct {
		name string
		a, b *TranscriptAnnotation
	}{
		{
			"curated beats higher score",
			&TranscriptAnnotation{Curated: true, ConsequenceScore: 2},
			&TranscriptAnnotation{ConsequenceScore: 40},
		},
		{
			"protein coding beats canonical",
			&TranscriptAnnotation{Curated: true, ProteinCoding: true},
			&TranscriptAnnotation{Curated: true, Canonical: true},
		},
		{
			"canonical beats score",
			&TranscriptAnnotation{Curated: true, ProteinCoding: true, Canonical: true},
			&TranscriptAnnotation{Curated: true, ProteinCoding: true, ConsequenceScore: 40},
		},
		{
			"score breaks the final tie",
			&TranscriptAnnotation{Canonical: true, ConsequenceScore: 12},
			&TranscriptAnnotation{Canonical: true, ConsequenceScore: 10},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Positive(t, Compare(tt.a, tt.b))
			assert.Negative(t, Compare(tt.b, tt.a))
		})
	}
}

func TestCompareTie(t *testing.T) {
	a := &TranscriptAnnotation{Canonical: true, ConsequenceScore: 10}
	b := &TranscriptAnnotation{Canonical: true, ConsequenceScore: 10}
	assert.Zero(t, Compare(a, b))
}

// The winner must not depend on candidate order.
func TestSelectOrderIndependent(t *testing.T) {
	candidates := []*TranscriptAnnotation{
		{TranscriptID: "A", ConsequenceScore: 30},
		{TranscriptID: "B", Canonical: true, ConsequenceScore: 10},
		{TranscriptID: "C", ProteinCoding: true},
		{TranscriptID: "D", Curated: true},
		{TranscriptID: "E", Curated: true, ProteinCoding: true, Canonical: true},
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		shuffled := make([]*TranscriptAnnotation, len(candidates))
		copy(shuffled, candidates)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := Select(shuffled, nil)
		require.NotNil(t, got)
		assert.Equal(t, "E", got.TranscriptID)
	}
}

func TestSelectExactTieKeepsEarliest(t *testing.T) {
	first := &TranscriptAnnotation{TranscriptID: "first", Canonical: true}
	second := &TranscriptAnnotation{TranscriptID: "second", Canonical: true}
	got := Select([]*TranscriptAnnotation{first, second}, nil)
	assert.Same(t, first, got)
}
