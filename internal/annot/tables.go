// Package annot normalizes annotated variant call records into
// per-transcript annotations and selects the representative annotation
// for a viewer.
package annot

// Tables holds the static lookup tables used to score annotations.
// Built once at startup and treated as immutable.
type Tables struct {
	// ConsequenceSeverity maps each consequence term of the annotator's
	// vocabulary to a severity weight. The table must be exhaustive: a
	// term missing from it indicates a vocabulary mismatch with the
	// annotator version and fails the whole import.
	ConsequenceSeverity map[string]int

	// MissensePredictors lists the rank-score fields averaged into the
	// missense composite.
	MissensePredictors []string

	// SpliceDeltas lists the directional delta-score fields reduced to
	// the splice-impact maximum.
	SpliceDeltas []string

	// SplitFields lists the multi-valued fields stored as "&"-joined
	// strings in the raw record.
	SplitFields []string
}

// DefaultTables returns the score tables matching the Ensembl VEP
// consequence vocabulary and dbNSFP/SpliceAI plugin outputs.
func DefaultTables() *Tables {
	return &Tables{
		ConsequenceSeverity: map[string]int{
			"stop_gained":                         20,
			"stop_lost":                           20,
			"splice_acceptor_variant":             10,
			"splice_donor_variant":                10,
			"frameshift_variant":                  10,
			"transcript_ablation":                 10,
			"start_lost":                          10,
			"transcript_amplification":            10,
			"missense_variant":                    10,
			"protein_altering_variant":            10,
			"splice_region_variant":               10,
			"inframe_insertion":                   10,
			"inframe_deletion":                    10,
			"incomplete_terminal_codon_variant":   10,
			"stop_retained_variant":               10,
			"start_retained_variant":              10,
			"synonymous_variant":                  10,
			"coding_sequence_variant":             10,
			"mature_miRNA_variant":                10,
			"intron_variant":                      10,
			"NMD_transcript_variant":              10,
			"non_coding_transcript_exon_variant":  5,
			"non_coding_transcript_variant":       5,
			"3_prime_UTR_variant":                 2,
			"5_prime_UTR_variant":                 2,
			"upstream_gene_variant":               0,
			"downstream_gene_variant":             0,
			"TFBS_ablation":                       0,
			"TFBS_amplification":                  0,
			"TF_binding_site_variant":             0,
			"regulatory_region_ablation":          0,
			"regulatory_region_amplification":     0,
			"regulatory_region_variant":           0,
			"feature_elongation":                  0,
			"feature_truncation":                  0,
			"intergenic_variant":                  0,
		},
		MissensePredictors: []string{
			"CADD_raw_rankscore_hg19",
			"VEST4_rankscore",
			"MetaSVM_rankscore",
			"MetaLR_rankscore",
			"Eigen-raw_coding_rankscore",
			"Eigen-PC-raw_coding_rankscore",
			"REVEL_rankscore",
			"BayesDel_addAF_rankscore",
			"BayesDel_noAF_rankscore",
			"ClinPred_rankscore",
		},
		SpliceDeltas: []string{
			"SpliceAI_pred_DS_AG",
			"SpliceAI_pred_DS_AL",
			"SpliceAI_pred_DS_DG",
			"SpliceAI_pred_DS_DL",
		},
		SplitFields: []string{
			"Existing_variation",
			"Consequence",
			"CLIN_SIG",
			"SOMATIC",
			"PHENO",
			"PUBMED",
			"TRANSCRIPTION_FACTORS",
			"DOMAINS",
			"FLAGS",
		},
	}
}
