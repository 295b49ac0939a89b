package annot

// TranscriptAnnotation is the per-transcript enrichment record for one
// variant, as produced by the normalizer from a raw annotated call.
type TranscriptAnnotation struct {
	TranscriptID string `json:"transcript_id"`
	Gene         string `json:"gene,omitempty"`
	Symbol       string `json:"symbol,omitempty"`
	SymbolSource string `json:"symbol_source,omitempty"`
	FeatureType  string `json:"feature_type,omitempty"`
	Biotype      string `json:"biotype,omitempty"`
	Source       string `json:"source,omitempty"`
	Protein      string `json:"protein,omitempty"`
	HGNCID       string `json:"hgnc_id,omitempty"`
	HGVSc        string `json:"hgvsc,omitempty"`
	HGVSp        string `json:"hgvsp,omitempty"`

	// Multi-valued fields, split from "&"-joined raw strings.
	Consequences         []string            `json:"consequence"`
	ExistingVariation    []string            `json:"existing_variation,omitempty"`
	ClinSig              []string            `json:"clin_sig,omitempty"`
	Somatic              []string            `json:"somatic,omitempty"`
	Pheno                []string            `json:"pheno,omitempty"`
	PubMed               []string            `json:"pubmed,omitempty"`
	TranscriptionFactors []string            `json:"transcription_factors,omitempty"`
	Domains              []string            `json:"domains,omitempty"`
	Flags                []string            `json:"flags,omitempty"`
	VarSynonyms          map[string][]string `json:"var_synonyms,omitempty"`

	// Derived scores.
	ConsequenceScore int      `json:"consequence_score"`
	ExonIntron       string   `json:"exon_intron,omitempty"`
	MissenseMean     *float64 `json:"missense_mean"`
	SpliceImpact     *float64 `json:"splice_impact"`
	SpliceMetric     string   `json:"splice_metric,omitempty"`
	MaxEntScanDelta  *float64 `json:"mes_delta"`

	Canonical     bool `json:"canonical"`
	Curated       bool `json:"curated_source"`
	ProteinCoding bool `json:"protein_coding"`

	// Preferred is set at selection time for the current viewer.
	// It is never persisted.
	Preferred bool `json:"-"`

	// Raw holds every decoded field of the annotation block so that
	// downstream consumers keep access to fields the normalizer does
	// not model explicitly.
	Raw map[string]string `json:"raw,omitempty"`
}

// VariantXRefs carries the variant-level external database
// cross-references lifted out of the annotation blocks.
type VariantXRefs struct {
	ClinvarID         string   `json:"clinvar_id,omitempty"`
	ClinvarSig        string   `json:"clinvar_sig,omitempty"`
	ClinvarSigConf    []string `json:"clinvar_sig_conf,omitempty"`
	ClinvarReviewStat []string `json:"clinvar_review_stat,omitempty"`
}

// AnnotationVersion is one immutable element of a variant's
// annotation-version list: a timestamped snapshot of the per-transcript
// annotations produced by one import run.
type AnnotationVersion struct {
	Date        string                           `json:"date"`
	Transcripts map[string]*TranscriptAnnotation `json:"transcripts"`
}
