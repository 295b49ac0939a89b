package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngsdb/varimport/internal/annot"
	"github.com/ngsdb/varimport/internal/spool"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetOrCreateVariant(t *testing.T) {
	s := openInMemory(t)

	v, created, err := s.GetOrCreateVariant("chr1-100-A-C", "1", 100, "A", "C")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "chr1-100-A-C", v.ID)
	assert.Equal(t, int64(100), v.Pos)

	again, created, err := s.GetOrCreateVariant("chr1-100-A-C", "1", 100, "A", "C")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, v.ID, again.ID)

	n, err := s.VariantCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAnnotationVersionsAppendOnly(t *testing.T) {
	s := openInMemory(t)
	_, _, err := s.GetOrCreateVariant("chr1-100-A-C", "1", 100, "A", "C")
	require.NoError(t, err)

	has, err := s.HasAnnotations("chr1-100-A-C")
	require.NoError(t, err)
	assert.False(t, has)

	first := &annot.AnnotationVersion{
		Date: "2026-01-10",
		Transcripts: map[string]*annot.TranscriptAnnotation{
			"NM_1": {TranscriptID: "NM_1", ConsequenceScore: 10},
		},
	}
	require.NoError(t, s.AppendAnnotationVersion("chr1-100-A-C", first))

	has, err = s.HasAnnotations("chr1-100-A-C")
	require.NoError(t, err)
	assert.True(t, has)

	second := &annot.AnnotationVersion{
		Date: "2026-02-20",
		Transcripts: map[string]*annot.TranscriptAnnotation{
			"NM_1": {TranscriptID: "NM_1", ConsequenceScore: 20},
		},
	}
	require.NoError(t, s.AppendAnnotationVersion("chr1-100-A-C", second))

	versions, err := s.AnnotationVersions("chr1-100-A-C")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "2026-01-10", versions[0].Date)
	assert.Equal(t, 10, versions[0].Transcripts["NM_1"].ConsequenceScore)
	assert.Equal(t, "2026-02-20", versions[1].Date)
}

func TestSetVariantXRefs(t *testing.T) {
	s := openInMemory(t)
	_, _, err := s.GetOrCreateVariant("chr1-100-A-C", "1", 100, "A", "C")
	require.NoError(t, err)

	err = s.SetVariantXRefs("chr1-100-A-C", &annot.VariantXRefs{
		ClinvarID:         "12345",
		ClinvarSig:        "Pathogenic",
		ClinvarSigConf:    []string{"Pathogenic(3)"},
		ClinvarReviewStat: []string{"criteria_provided"},
	})
	require.NoError(t, err)

	var id, sig string
	err = s.DB().QueryRow(
		`SELECT clinvar_id, clinvar_sig FROM variants WHERE id = ?`, "chr1-100-A-C",
	).Scan(&id, &sig)
	require.NoError(t, err)
	assert.Equal(t, "12345", id)
	assert.Equal(t, "Pathogenic", sig)
}

func TestUpsertTranscript(t *testing.T) {
	s := openInMemory(t)

	ann := &annot.TranscriptAnnotation{
		TranscriptID: "NM_000546.6",
		Gene:         "7157",
		Symbol:       "TP53",
		Biotype:      "protein_coding",
		Canonical:    true,
	}
	require.NoError(t, s.UpsertTranscript(ann))
	require.NoError(t, s.UpsertTranscript(ann))

	var n int
	err := s.DB().QueryRow(`SELECT COUNT(*) FROM transcripts`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Annotations without a transcript id (intergenic) are skipped.
	require.NoError(t, s.UpsertTranscript(&annot.TranscriptAnnotation{}))
	err = s.DB().QueryRow(`SELECT COUNT(*) FROM transcripts`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateSampleResolvesReferences(t *testing.T) {
	s := openInMemory(t)

	job := &spool.Job{
		SampleName: "S1",
		VCFPath:    "/data/S1.vcf",
		Family:     &spool.Ref{Name: "FAM01"},
		Run:        &spool.RunRef{Name: "RUN42", Alias: "validation"},
		Teams:      []spool.TeamRef{{Name: "onco", Color: "#ff0000"}},
	}

	sample, err := s.CreateSample(job)
	require.NoError(t, err)
	assert.Equal(t, StatusImporting, sample.Status)
	require.NotNil(t, sample.FamilyID)
	require.NotNil(t, sample.RunID)

	// A second sample in the same family and run reuses the rows.
	second, err := s.CreateSample(&spool.Job{
		SampleName: "S2",
		VCFPath:    "/data/S2.vcf",
		Family:     &spool.Ref{Name: "FAM01"},
		Run:        &spool.RunRef{Name: "RUN42"},
	})
	require.NoError(t, err)
	assert.Equal(t, *sample.FamilyID, *second.FamilyID)
	assert.Equal(t, *sample.RunID, *second.RunID)

	var families, runs, teams int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM families`).Scan(&families))
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&runs))
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM teams`).Scan(&teams))
	assert.Equal(t, 1, families)
	assert.Equal(t, 1, runs)
	assert.Equal(t, 1, teams)
}

func TestCreateSampleInvalidTeamColor(t *testing.T) {
	s := openInMemory(t)

	_, err := s.CreateSample(&spool.Job{
		SampleName: "S1",
		VCFPath:    "/data/S1.vcf",
		Teams:      []spool.TeamRef{{Name: "rare-disease", Color: "not-a-color"}},
	})
	require.NoError(t, err)

	var color string
	require.NoError(t, s.DB().QueryRow(`SELECT color FROM teams WHERE name = ?`, "rare-disease").Scan(&color))
	assert.Regexp(t, hexColorRe, color)
}

func TestSampleStatusTransitions(t *testing.T) {
	s := openInMemory(t)
	sample, err := s.CreateSample(&spool.Job{SampleName: "S1", VCFPath: "/data/S1.vcf"})
	require.NoError(t, err)

	require.NoError(t, s.SetSampleStatus(sample.ID, StatusNew))

	ok, err := s.CompareAndSetStatus(sample.ID, StatusNew, StatusProcessing)
	require.NoError(t, err)
	assert.True(t, ok)

	// Guarded transition from a stale expected state must not apply.
	ok, err = s.CompareAndSetStatus(sample.ID, StatusNew, StatusInterpreted)
	require.NoError(t, err)
	assert.False(t, ok)

	status, err := s.SampleStatus(sample.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, status)
}

func TestSampleStatusStrings(t *testing.T) {
	assert.Equal(t, "error", StatusError.String())
	assert.Equal(t, "importing", StatusImporting.String())
	assert.Equal(t, "new", StatusNew.String())
	assert.Equal(t, "validated", StatusValidated.String())
}

func TestLinkVariantToSample(t *testing.T) {
	s := openInMemory(t)
	sample, err := s.CreateSample(&spool.Job{SampleName: "S1", VCFPath: "/data/S1.vcf"})
	require.NoError(t, err)
	_, _, err = s.GetOrCreateVariant("chr1-100-A-C", "1", 100, "A", "C")
	require.NoError(t, err)

	link := &VariantLink{
		VariantID:    "chr1-100-A-C",
		SampleID:     sample.ID,
		Depth:        52,
		AllelicDepth: 22,
		FilterTags:   []string{"PASS"},
	}
	require.NoError(t, s.LinkVariantToSample(link))

	err = s.LinkVariantToSample(link)
	require.ErrorIs(t, err, ErrDuplicateLink)

	links, err := s.VariantLinks(sample.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, 52, links[0].Depth)
	assert.Equal(t, 22, links[0].AllelicDepth)
	assert.Equal(t, []string{"PASS"}, links[0].FilterTags)
	assert.False(t, links[0].Reported)
}

func TestDeleteSampleCascades(t *testing.T) {
	s := openInMemory(t)
	sample, err := s.CreateSample(&spool.Job{
		SampleName: "S1",
		VCFPath:    "/data/S1.vcf",
		Teams:      []spool.TeamRef{{Name: "onco", Color: "#00ff00"}},
	})
	require.NoError(t, err)

	_, _, err = s.GetOrCreateVariant("chr1-100-A-C", "1", 100, "A", "C")
	require.NoError(t, err)
	require.NoError(t, s.LinkVariantToSample(&VariantLink{
		VariantID: "chr1-100-A-C", SampleID: sample.ID,
	}))
	require.NoError(t, s.AddHistory(sample.ID, 1, "Import Sample"))
	require.NoError(t, s.AddSampleComment(sample.ID, 1, "note"))

	require.NoError(t, s.DeleteSample(sample.ID))

	for _, table := range []string{"var2sample", "history", "sample_comments", "sample2team"} {
		var n int
		require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
		assert.Zero(t, n, table)
	}

	// The variant itself survives; it may be linked to other samples.
	n, err := s.VariantCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
