package annot

// Compare ranks two transcript annotations for representative
// selection. It returns a positive value when a outranks b, negative
// when b outranks a, and zero when they tie on every key.
//
// The ranking is a strict lexicographic order over five keys, each a
// tie-break for the previous one:
//
//	1. preferred by the viewer
//	2. curated reference source (vs. predicted)
//	3. protein coding
//	4. canonical transcript
//	5. consequence severity score (higher wins)
//
// Because the order is total and transitive, a fold over the candidate
// list yields the same winner for any list permutation, apart from
// exact ties on all five keys where the earliest candidate is kept.
func Compare(a, b *TranscriptAnnotation) int {
	if c := compareBool(a.Preferred, b.Preferred); c != 0 {
		return c
	}
	if c := compareBool(a.Curated, b.Curated); c != 0 {
		return c
	}
	if c := compareBool(a.ProteinCoding, b.ProteinCoding); c != 0 {
		return c
	}
	if c := compareBool(a.Canonical, b.Canonical); c != 0 {
		return c
	}
	switch {
	case a.ConsequenceScore > b.ConsequenceScore:
		return 1
	case a.ConsequenceScore < b.ConsequenceScore:
		return -1
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a && !b:
		return 1
	case !a && b:
		return -1
	}
	return 0
}

// Select returns the representative annotation for a viewer whose
// preferred transcript set is preferredIDs. The Preferred flag is set
// on every candidate as a side effect so callers can render it.
// Returns nil only for an empty candidate list.
func Select(anns []*TranscriptAnnotation, preferredIDs map[string]bool) *TranscriptAnnotation {
	var best *TranscriptAnnotation
	for _, ann := range anns {
		ann.Preferred = preferredIDs[ann.TranscriptID]
		if best == nil || Compare(ann, best) > 0 {
			best = ann
		}
	}
	return best
}
