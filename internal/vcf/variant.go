// Package vcf provides streaming VCF file parsing.
package vcf

import (
	"fmt"
	"strconv"
	"strings"
)

// Variant represents a single genomic variant from a VCF file.
type Variant struct {
	Chrom   string              // Chromosome name (e.g., "12", "chr12")
	Pos     int64               // 1-based genomic position
	ID      string              // Variant identifier (e.g., rs ID)
	Ref     string              // Reference allele
	Alt     string              // Alternate allele (single allele after splitting)
	Qual    float64             // Quality score
	Filter  string              // Filter status (PASS or filter names)
	Info    map[string]string   // INFO field key-value pairs (flags map to "")
	Format  []string            // FORMAT field keys, in order
	Samples []map[string]string // Per-sample genotype fields keyed by FORMAT
}

// IsSNV returns true if the variant is a single nucleotide variant.
func (v *Variant) IsSNV() bool {
	return len(v.Ref) == 1 && len(v.Alt) == 1
}

// IsIndel returns true if the variant is an insertion or deletion.
func (v *Variant) IsIndel() bool {
	return len(v.Ref) != len(v.Alt)
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func (v *Variant) NormalizeChrom() string {
	return strings.TrimPrefix(v.Chrom, "chr")
}

// CanonicalID returns the stable variant identity string used as the
// primary key in the store: "chr{chrom}-{pos}-{ref}-{alt}" with any
// input "chr" prefix stripped before re-adding it, so that "1" and
// "chr1" map to the same id.
func (v *Variant) CanonicalID() string {
	return fmt.Sprintf("chr%s-%d-%s-%s", v.NormalizeChrom(), v.Pos, v.Ref, v.Alt)
}

// Depth returns the total read depth for the call. The INFO DP field
// takes precedence; otherwise per-sample DP values are summed. Returns
// 0 when no depth information is present.
func (v *Variant) Depth() int {
	if dp, ok := v.Info["DP"]; ok {
		if n, err := strconv.Atoi(dp); err == nil {
			return n
		}
	}
	total := 0
	for _, s := range v.Samples {
		if dp, ok := s["DP"]; ok {
			if n, err := strconv.Atoi(dp); err == nil {
				total += n
			}
		}
	}
	return total
}

// AltAlleleDepth returns the summed per-sample allelic depth for the
// alternate allele (the second AD entry). Returns 0 when AD is absent.
func (v *Variant) AltAlleleDepth() int {
	total := 0
	for _, s := range v.Samples {
		ad, ok := s["AD"]
		if !ok {
			continue
		}
		parts := strings.Split(ad, ",")
		if len(parts) < 2 {
			continue
		}
		if n, err := strconv.Atoi(parts[1]); err == nil {
			total += n
		}
	}
	return total
}

// FilterTags returns the FILTER column split into individual tags.
// A missing value (".") or empty column yields nil.
func (v *Variant) FilterTags() []string {
	if v.Filter == "" || v.Filter == "." {
		return nil
	}
	return strings.Split(v.Filter, ";")
}

// SplitMultiAllelic splits a multi-allelic variant into separate
// single-allele variants. Sample columns are shared, not copied.
func SplitMultiAllelic(v *Variant) []*Variant {
	alts := strings.Split(v.Alt, ",")
	if len(alts) == 1 {
		return []*Variant{v}
	}

	variants := make([]*Variant, len(alts))
	for i, alt := range alts {
		variants[i] = &Variant{
			Chrom:   v.Chrom,
			Pos:     v.Pos,
			ID:      v.ID,
			Ref:     v.Ref,
			Alt:     alt,
			Qual:    v.Qual,
			Filter:  v.Filter,
			Info:    v.Info,
			Format:  v.Format,
			Samples: v.Samples,
		}
	}

	return variants
}
