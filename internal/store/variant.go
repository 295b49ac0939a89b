package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ngsdb/varimport/internal/annot"
)

// Variant is the persisted variant row, keyed by the canonical
// identity string "chr{chrom}-{pos}-{ref}-{alt}".
type Variant struct {
	ID           string
	Chrom        string
	Pos          int64
	Ref          string
	Alt          string
	ClassVariant *int
}

// GetOrCreateVariant resolves the variant row for the identity key,
// creating it when absent. The second return value reports whether a
// new row was created.
//
// This is a check-then-insert: safe under the single-worker spool
// lock. Parallel ingestion would need a transactional upsert here to
// keep the identity key unique.
func (s *Store) GetOrCreateVariant(id, chrom string, pos int64, ref, alt string) (*Variant, bool, error) {
	v := &Variant{ID: id}
	var class sql.NullInt32
	err := s.db.QueryRow(
		`SELECT chrom, pos, ref, alt, class_variant FROM variants WHERE id = ?`, id,
	).Scan(&v.Chrom, &v.Pos, &v.Ref, &v.Alt, &class)
	if err == nil {
		if class.Valid {
			c := int(class.Int32)
			v.ClassVariant = &c
		}
		return v, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("lookup variant %s: %w", id, err)
	}

	if _, err := s.db.Exec(
		`INSERT INTO variants (id, chrom, pos, ref, alt) VALUES (?, ?, ?, ?, ?)`,
		id, chrom, pos, ref, alt,
	); err != nil {
		return nil, false, fmt.Errorf("create variant %s: %w", id, err)
	}

	s.logger.Info("variant created", zap.String("variant", id))
	v.Chrom, v.Pos, v.Ref, v.Alt = chrom, pos, ref, alt
	return v, true, nil
}

// HasAnnotations reports whether the variant already carries at least
// one annotation version. Used for the at-most-once enrichment policy:
// known variants are not re-annotated on subsequent imports.
func (s *Store) HasAnnotations(id string) (bool, error) {
	var raw sql.NullString
	err := s.db.QueryRow(`SELECT annotations FROM variants WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup annotations for %s: %w", id, err)
	}
	return raw.Valid && raw.String != "" && raw.String != "[]", nil
}

// AnnotationVersions returns the variant's annotation-version list,
// oldest first. Versions are immutable once written.
func (s *Store) AnnotationVersions(id string) ([]annot.AnnotationVersion, error) {
	var raw sql.NullString
	err := s.db.QueryRow(`SELECT annotations FROM variants WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup annotations for %s: %w", id, err)
	}
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}

	var versions []annot.AnnotationVersion
	if err := json.Unmarshal([]byte(raw.String), &versions); err != nil {
		return nil, fmt.Errorf("decode annotations for %s: %w", id, err)
	}
	return versions, nil
}

// AppendAnnotationVersion appends a new annotation version to the
// variant's version list. Existing versions are never rewritten.
func (s *Store) AppendAnnotationVersion(id string, version *annot.AnnotationVersion) error {
	versions, err := s.AnnotationVersions(id)
	if err != nil {
		return err
	}
	versions = append(versions, *version)

	encoded, err := json.Marshal(versions)
	if err != nil {
		return fmt.Errorf("encode annotations for %s: %w", id, err)
	}
	if _, err := s.db.Exec(
		`UPDATE variants SET annotations = ? WHERE id = ?`, string(encoded), id,
	); err != nil {
		return fmt.Errorf("write annotations for %s: %w", id, err)
	}
	return nil
}

// SetVariantXRefs writes the external-database cross-references on
// the variant row.
func (s *Store) SetVariantXRefs(id string, xrefs *annot.VariantXRefs) error {
	sigConf, err := json.Marshal(xrefs.ClinvarSigConf)
	if err != nil {
		return fmt.Errorf("encode xrefs for %s: %w", id, err)
	}
	revStat, err := json.Marshal(xrefs.ClinvarReviewStat)
	if err != nil {
		return fmt.Errorf("encode xrefs for %s: %w", id, err)
	}
	if _, err := s.db.Exec(
		`UPDATE variants
		 SET clinvar_id = ?, clinvar_sig = ?, clinvar_sig_conf = ?, clinvar_review_stat = ?
		 WHERE id = ?`,
		xrefs.ClinvarID, xrefs.ClinvarSig, string(sigConf), string(revStat), id,
	); err != nil {
		return fmt.Errorf("write xrefs for %s: %w", id, err)
	}
	return nil
}

// UpsertTranscript records the transcript reference row for an
// annotation if it is not known yet.
func (s *Store) UpsertTranscript(ann *annot.TranscriptAnnotation) error {
	if ann.TranscriptID == "" {
		return nil
	}
	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM transcripts WHERE feature = ?`, ann.TranscriptID).Scan(&exists)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup transcript %s: %w", ann.TranscriptID, err)
	}

	if _, err := s.db.Exec(
		`INSERT INTO transcripts
		 (feature, biotype, feature_type, symbol, symbol_source, gene, source, protein, canonical, hgnc)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ann.TranscriptID, ann.Biotype, ann.FeatureType, ann.Symbol, ann.SymbolSource,
		ann.Gene, ann.Source, ann.Protein, ann.Canonical, ann.HGNCID,
	); err != nil {
		return fmt.Errorf("create transcript %s: %w", ann.TranscriptID, err)
	}
	return nil
}

// VariantCount returns the number of variant rows.
func (s *Store) VariantCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM variants`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count variants: %w", err)
	}
	return n, nil
}
