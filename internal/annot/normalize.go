package annot

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ngsdb/varimport/internal/vcf"
)

// UnknownConsequenceError reports a consequence term missing from the
// severity table. The table is assumed exhaustive for the annotator's
// vocabulary, so a miss fails the whole import job.
type UnknownConsequenceError struct {
	Term string
}

func (e *UnknownConsequenceError) Error() string {
	return fmt.Sprintf("unknown consequence term %q: severity table does not cover the annotator vocabulary", e.Term)
}

// Normalizer turns raw annotated call records into structured
// per-transcript annotations with derived scores.
type Normalizer struct {
	tables *Tables
	format *CSQFormat
	logger *zap.Logger
}

// NewNormalizer creates a normalizer for the given score tables and
// annotation field layout.
func NewNormalizer(tables *Tables, format *CSQFormat) *Normalizer {
	return &Normalizer{
		tables: tables,
		format: format,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for warning messages.
func (n *Normalizer) SetLogger(l *zap.Logger) {
	n.logger = l
}

// Normalize produces one TranscriptAnnotation per annotation block of
// the raw call record, plus the variant-level cross-references.
func (n *Normalizer) Normalize(v *vcf.Variant) ([]*TranscriptAnnotation, *VariantXRefs, error) {
	rawInfo, ok := v.Info[n.format.Key]
	if !ok || rawInfo == "" {
		return nil, nil, nil
	}

	var anns []*TranscriptAnnotation
	xrefs := &VariantXRefs{}

	for _, entry := range strings.Split(rawInfo, ",") {
		raw := n.format.Decode(entry)

		ann := &TranscriptAnnotation{
			TranscriptID: raw["Feature"],
			Gene:         raw["Gene"],
			Symbol:       raw["SYMBOL"],
			SymbolSource: raw["SYMBOL_SOURCE"],
			FeatureType:  raw["Feature_type"],
			Biotype:      raw["BIOTYPE"],
			Source:       raw["SOURCE"],
			Protein:      raw["ENSP"],
			HGNCID:       raw["HGNC_ID"],
			HGVSc:        raw["HGVSc"],
			HGVSp:        raw["HGVSp"],
			Raw:          raw,
		}

		ann.Consequences = splitList(raw["Consequence"])
		ann.ExistingVariation = splitList(raw["Existing_variation"])
		ann.ClinSig = splitList(raw["CLIN_SIG"])
		ann.Somatic = splitList(raw["SOMATIC"])
		ann.Pheno = splitList(raw["PHENO"])
		ann.PubMed = splitList(raw["PUBMED"])
		ann.TranscriptionFactors = splitList(raw["TRANSCRIPTION_FACTORS"])
		ann.Domains = splitList(raw["DOMAINS"])
		ann.Flags = splitList(raw["FLAGS"])
		ann.VarSynonyms = splitSynonyms(raw["VAR_SYNONYMS"])

		score, err := n.consequenceScore(ann.Consequences)
		if err != nil {
			return nil, nil, err
		}
		ann.ConsequenceScore = score

		ann.ExonIntron = exonIntronLabel(raw["EXON"], raw["INTRON"])
		ann.MissenseMean = n.missenseComposite(raw)
		ann.SpliceImpact, ann.SpliceMetric = n.spliceImpactMax(raw)
		ann.MaxEntScanDelta = spliceSiteDelta(raw["MaxEntScan_ref"], raw["MaxEntScan_alt"])

		ann.Canonical = raw["CANONICAL"] == "YES"
		ann.Curated = raw["SOURCE"] == "RefSeq"
		ann.ProteinCoding = raw["BIOTYPE"] == "protein_coding"

		// Variant-level cross-references; the annotator repeats them
		// on every block, last one wins.
		if id := raw["ClinVar"]; id != "" {
			xrefs.ClinvarID = id
		}
		if sig := raw["ClinVar_CLNSIG"]; sig != "" {
			xrefs.ClinvarSig = sig
		}
		if conf := splitList(raw["ClinVar_CLNSIGCONF"]); len(conf) > 0 {
			xrefs.ClinvarSigConf = conf
		}
		if stat := splitList(raw["ClinVar_CLNREVSTAT"]); len(stat) > 0 {
			xrefs.ClinvarReviewStat = stat
		}

		anns = append(anns, ann)
	}

	return anns, xrefs, nil
}

// consequenceScore sums the severity weight of every consequence term.
func (n *Normalizer) consequenceScore(terms []string) (int, error) {
	score := 0
	for _, term := range terms {
		weight, ok := n.tables.ConsequenceSeverity[term]
		if !ok {
			return 0, &UnknownConsequenceError{Term: term}
		}
		score += weight
	}
	return score, nil
}

// missenseComposite averages the predictor rank scores, ignoring
// absent values. All absent yields nil, not zero.
func (n *Normalizer) missenseComposite(raw map[string]string) *float64 {
	sum := 0.0
	count := 0
	for _, field := range n.tables.MissensePredictors {
		if v, ok := parseScore(raw[field]); ok {
			sum += v
			count++
		}
	}
	if count == 0 {
		return nil
	}
	mean := sum / float64(count)
	return &mean
}

// spliceImpactMax takes the maximum of the directional splice delta
// scores and reports which metric produced it. All absent yields nil.
func (n *Normalizer) spliceImpactMax(raw map[string]string) (*float64, string) {
	var max *float64
	metric := ""
	for _, field := range n.tables.SpliceDeltas {
		v, ok := parseScore(raw[field])
		if !ok {
			continue
		}
		if max == nil || v > *max {
			value := v
			max = &value
			metric = field
		}
	}
	return max, metric
}

// spliceSiteDelta computes the splice-site strength variation
// -100 + alt*100/ref. Nil when either side is absent or ref is zero.
func spliceSiteDelta(refRaw, altRaw string) *float64 {
	ref, okRef := parseScore(refRaw)
	alt, okAlt := parseScore(altRaw)
	if !okRef || !okAlt || ref == 0 {
		return nil
	}
	delta := -100 + alt*100/ref
	return &delta
}

// exonIntronLabel renders the exon or intron position of the
// annotation; exon takes precedence when both are present.
func exonIntronLabel(exon, intron string) string {
	if exon != "" {
		return "Exon " + exon
	}
	if intron != "" {
		return "Intron " + intron
	}
	return ""
}

// splitList splits an "&"-joined multi-valued field. Absent or
// malformed values become an empty list, never an error.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "&")
}

// splitSynonyms decodes the VAR_SYNONYMS encoding
// "source::id1&id2--source2::id3" into a map of id lists.
func splitSynonyms(s string) map[string][]string {
	if s == "" {
		return nil
	}
	synonyms := make(map[string][]string)
	for _, group := range strings.Split(s, "--") {
		key, values, found := strings.Cut(group, "::")
		if !found {
			continue
		}
		synonyms[key] = strings.Split(values, "&")
	}
	if len(synonyms) == 0 {
		return nil
	}
	return synonyms
}

// parseScore parses a numeric annotation value. Empty and "." both
// mean absent.
func parseScore(s string) (float64, bool) {
	if s == "" || s == "." {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
