package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ngsdb/varimport/internal/spool"
)

func newEnqueueCmd() *cobra.Command {
	var (
		jobFile  string
		sample   string
		vcfPath  string
		family   string
		runName  string
		runAlias string
		teams    []string
		genome   string
	)

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Place an import job in the spool",
		Long: `Write a pending job marker into the spool directory. The payload
comes either from a JSON job file or from flags. The marker is written
atomically (temp file + rename) so a polling worker never sees a
partial payload.`,
		Example: `  varimport enqueue --sample S1 --vcf /data/S1.vcf --run RUN42
  varimport enqueue --job job.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var job *spool.Job

			if jobFile != "" {
				data, err := os.ReadFile(jobFile)
				if err != nil {
					return fmt.Errorf("read job file: %w", err)
				}
				job, err = spool.ParseJob(data)
				if err != nil {
					return err
				}
			} else {
				if sample == "" || vcfPath == "" {
					return fmt.Errorf("either --job or both --sample and --vcf are required")
				}
				job = &spool.Job{SampleName: sample, VCFPath: vcfPath, Genome: genome}
				if family != "" {
					job.Family = &spool.Ref{Name: family}
				}
				if runName != "" {
					job.Run = &spool.RunRef{Name: runName, Alias: runAlias}
				}
				for _, t := range teams {
					job.Teams = append(job.Teams, spool.TeamRef{Name: t})
				}
			}

			payload, err := json.Marshal(job)
			if err != nil {
				return fmt.Errorf("encode job payload: %w", err)
			}

			name := job.SampleName
			if job.Run != nil && job.Run.Alias != "" {
				name = fmt.Sprintf("%s-%s", job.SampleName, job.Run.Alias)
			}

			queue := spool.NewQueue(viper.GetString("spool_dir"))
			marker, err := queue.Enqueue(name, payload)
			if err != nil {
				return err
			}

			fmt.Printf("Enqueued %s\n", marker)
			return nil
		},
	}

	cmd.Flags().StringVar(&jobFile, "job", "", "JSON job file to enqueue")
	cmd.Flags().StringVar(&sample, "sample", "", "sample name")
	cmd.Flags().StringVar(&vcfPath, "vcf", "", "path to the VCF to import")
	cmd.Flags().StringVar(&family, "family", "", "family name")
	cmd.Flags().StringVar(&runName, "run", "", "sequencing run name")
	cmd.Flags().StringVar(&runAlias, "run-alias", "", "sequencing run alias")
	cmd.Flags().StringSliceVar(&teams, "team", nil, "team name (repeatable)")
	cmd.Flags().StringVar(&genome, "genome", "", "genome build (default from config)")

	return cmd
}
