// Package importer drives the variant ingestion pipeline: it polls
// the spool for import jobs, runs the external annotator, normalizes
// its output and persists the results.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/ngsdb/varimport/internal/annot"
	"github.com/ngsdb/varimport/internal/spool"
	"github.com/ngsdb/varimport/internal/store"
	"github.com/ngsdb/varimport/internal/vcf"
)

// defaultUserID attributes import-driver audit entries when the job
// does not name a submitting user.
const defaultUserID = 1

// Config holds the runtime settings of the import driver. Built once
// at startup and treated as immutable.
type Config struct {
	SpoolDir         string
	DatabasePath     string
	AnnotatorConfig  string
	ClinvarDir       string
	Genome           string // default genome build for jobs that omit one
	AnnotationKey    string // INFO key carrying the annotation blocks
	PollInterval     time.Duration
	AnnotatorTimeout time.Duration
}

// AnnotationRunner executes the external annotator for one job. The
// values map carries the per-job file paths referenced by the
// invocation config.
type AnnotationRunner interface {
	Run(ctx context.Context, values map[string]string) error
}

// Importer is the top-level import loop: claim a job, annotate,
// normalize, persist, clean up.
type Importer struct {
	cfg    Config
	queue  *spool.Queue
	store  *store.Store
	runner AnnotationRunner
	tables *annot.Tables
	logger *zap.Logger
}

// New creates an importer over the given queue, store and annotator.
func New(cfg Config, queue *spool.Queue, st *store.Store, runner AnnotationRunner) *Importer {
	if cfg.AnnotationKey == "" {
		cfg.AnnotationKey = "ANN"
	}
	if cfg.Genome == "" {
		cfg.Genome = "grch37"
	}
	return &Importer{
		cfg:    cfg,
		queue:  queue,
		store:  st,
		runner: runner,
		tables: annot.DefaultTables(),
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for pipeline tracing.
func (imp *Importer) SetLogger(l *zap.Logger) {
	imp.logger = l
}

// Run polls the spool on a fixed tick until the context is canceled.
// Ticks never overlap in-process; the spool lock additionally guards
// against concurrent workers in other processes.
func (imp *Importer) Run(ctx context.Context) error {
	sched := gocron.NewScheduler(time.UTC)
	sched.SingletonModeAll()

	if _, err := sched.Every(imp.cfg.PollInterval).Do(func() {
		if err := imp.RunOnce(ctx); err != nil {
			imp.logger.Error("import tick failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule import job: %w", err)
	}

	sched.StartAsync()
	<-ctx.Done()
	sched.Stop()
	return ctx.Err()
}

// RunOnce processes at most one pending job. Job-level failures are
// turned into terminal marker and sample states here and reported as
// an error for logging only; they never abort the polling loop.
func (imp *Importer) RunOnce(ctx context.Context) error {
	h, err := imp.queue.Claim()
	if err != nil {
		// Malformed payloads are already moved to the error state by
		// the queue; nothing to finalize.
		return err
	}
	if h == nil {
		return nil
	}

	job := h.Job
	userID := job.UserID
	if userID == 0 {
		userID = defaultUserID
	}

	imp.logger.Info("import started",
		zap.String("sample", job.SampleName),
		zap.String("vcf", job.VCFPath))

	if _, err := os.Stat(job.VCFPath); err != nil {
		imp.queue.Release(h, fmt.Errorf("input vcf missing: %w", err))
		return fmt.Errorf("input vcf %s: %w", job.VCFPath, err)
	}

	sample, err := imp.store.CreateSample(job)
	if err != nil {
		imp.queue.Release(h, err)
		return err
	}
	if err := imp.store.AddHistory(sample.ID, userID, "Import Sample"); err != nil {
		imp.queue.Release(h, err)
		return err
	}

	genome := job.Genome
	if genome == "" {
		genome = imp.cfg.Genome
	}

	stem := strings.TrimSuffix(filepath.Base(job.VCFPath), filepath.Ext(job.VCFPath))
	annotated := filepath.Join(imp.cfg.SpoolDir, stem+".vep.vcf")
	stats := filepath.Join(imp.cfg.SpoolDir, stem+".vep.html")
	values := map[string]string{
		"vcf_path":    job.VCFPath,
		"vcf_vep":     annotated,
		"stats_vep":   stats,
		"clinvar_vcf": filepath.Join(imp.cfg.ClinvarDir, genome, "current.vcf.gz"),
	}

	if err := imp.runner.Run(ctx, values); err != nil {
		// Inputs are preserved for diagnosis; only the marker moves.
		imp.failSample(sample.ID, userID, err)
		imp.queue.Release(h, err)
		return fmt.Errorf("annotate sample %s: %w", job.SampleName, err)
	}

	if err := imp.ingest(annotated, sample, job, userID); err != nil {
		imp.failSample(sample.ID, userID, err)
		imp.queue.Release(h, err)
		return fmt.Errorf("ingest sample %s: %w", job.SampleName, err)
	}

	// Cleanup: temporary annotator outputs always, the uploaded input
	// only for jobs submitted through the web interface.
	removeIfExists(annotated)
	removeIfExists(stats)
	if job.Interface {
		removeIfExists(job.VCFPath)
	}

	if err := imp.store.SetSampleStatus(sample.ID, store.StatusNew); err != nil {
		imp.queue.Release(h, err)
		return err
	}
	if err := imp.store.AddHistory(sample.ID, userID, "Sample Imported"); err != nil {
		imp.queue.Release(h, err)
		return err
	}

	imp.queue.Release(h, nil)
	imp.logger.Info("import finished",
		zap.String("sample", job.SampleName),
		zap.Int("sample_id", sample.ID))
	return nil
}

// ingest streams the annotated VCF and persists one variant row,
// annotation version and sample link per call record.
func (imp *Importer) ingest(path string, sample *store.Sample, job *spool.Job, userID int) error {
	parser, err := vcf.NewParser(path)
	if err != nil {
		return err
	}
	defer parser.Close()

	format, err := annot.ParseCSQFormat(parser.Header(), imp.cfg.AnnotationKey)
	if err != nil {
		return err
	}
	norm := annot.NewNormalizer(imp.tables, format)
	norm.SetLogger(imp.logger)

	importDate := job.Date
	if importDate == "" {
		importDate = time.Now().Format(time.RFC3339)
	}

	for {
		v, err := parser.Next()
		if err != nil {
			return err
		}
		if v == nil {
			return nil
		}

		// The annotator emits decomposed records; only the first
		// alternate allele is considered, and symbolic upstream
		// deletions are skipped.
		sv := vcf.SplitMultiAllelic(v)[0]
		if sv.Alt == "*" {
			continue
		}

		id := sv.CanonicalID()
		_, _, err = imp.store.GetOrCreateVariant(id, "chr"+sv.NormalizeChrom(), sv.Pos, sv.Ref, sv.Alt)
		if err != nil {
			return err
		}

		// At-most-once enrichment: variants seen by an earlier import
		// keep their existing annotation versions.
		annotated, err := imp.store.HasAnnotations(id)
		if err != nil {
			return err
		}
		if !annotated {
			anns, xrefs, err := norm.Normalize(sv)
			if err != nil {
				return err
			}
			if len(anns) > 0 {
				version := &annot.AnnotationVersion{
					Date:        importDate,
					Transcripts: make(map[string]*annot.TranscriptAnnotation, len(anns)),
				}
				for _, ann := range anns {
					if err := imp.store.UpsertTranscript(ann); err != nil {
						return err
					}
					version.Transcripts[ann.TranscriptID] = ann
				}
				if err := imp.store.AppendAnnotationVersion(id, version); err != nil {
					return err
				}
				if err := imp.store.SetVariantXRefs(id, xrefs); err != nil {
					return err
				}
			}
		}

		link := &store.VariantLink{
			VariantID:    id,
			SampleID:     sample.ID,
			Depth:        sv.Depth(),
			AllelicDepth: sv.AltAlleleDepth(),
			FilterTags:   sv.FilterTags(),
		}
		if err := imp.store.LinkVariantToSample(link); err != nil {
			if errors.Is(err, store.ErrDuplicateLink) {
				// One bad variant must not lose the rest of the
				// import: record the conflict and continue.
				imp.logger.Warn("duplicate variant link",
					zap.String("variant", id),
					zap.Int("sample_id", sample.ID))
				if err := imp.store.AddHistory(sample.ID, userID, "DuplicateVariantLink"); err != nil {
					return err
				}
				if err := imp.store.AddSampleComment(sample.ID, userID, err.Error()); err != nil {
					return err
				}
				continue
			}
			return err
		}
	}
}

// failSample marks the sample as failed and records the cause.
func (imp *Importer) failSample(sampleID, userID int, cause error) {
	if err := imp.store.SetSampleStatus(sampleID, store.StatusError); err != nil {
		imp.logger.Error("mark sample failed", zap.Error(err))
	}
	if err := imp.store.AddSampleComment(sampleID, userID, cause.Error()); err != nil {
		imp.logger.Error("record failure comment", zap.Error(err))
	}
}

// removeIfExists deletes a temporary pipeline file, ignoring a
// missing one.
func removeIfExists(path string) {
	_ = os.Remove(path)
}
