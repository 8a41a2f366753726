package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talentscout/screener/internal/candidates"
	"github.com/talentscout/screener/internal/filtering"
	"github.com/talentscout/screener/internal/interview"
	"github.com/talentscout/screener/internal/logger"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Inspect stored candidate records",
}

var candidatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List screened candidates",
	Run: func(cmd *cobra.Command, _ []string) {
		listCandidates(cmd)
	},
}

var candidatesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the candidate pool",
	Run: func(_ *cobra.Command, _ []string) {
		candidateStats()
	},
}

var candidatesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export candidates as CSV",
	Run: func(cmd *cobra.Command, _ []string) {
		exportCandidates(cmd)
	},
}

func init() {
	rootCmd.AddCommand(candidatesCmd)
	candidatesCmd.AddCommand(candidatesListCmd, candidatesStatsCmd, candidatesExportCmd)

	for _, cmd := range []*cobra.Command{candidatesListCmd, candidatesExportCmd} {
		cmd.Flags().StringP("tech", "t", "", "keep only candidates whose stack contains this technology")
		cmd.Flags().Int("min-experience", 0, "keep only candidates with at least this many years of experience")
		cmd.Flags().Bool("completed", false, "keep only fully completed screenings")
	}

	candidatesExportCmd.Flags().StringP("output", "o", "", "write CSV to this file instead of stdout")
}

func openCandidateStore() (*candidates.Store, *zap.Logger) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	dbPath, err := storagePath(config)
	if err != nil {
		logger.Fatal("resolving storage path", zap.Error(err))
	}

	store, err := candidates.NewStore(dbPath)
	if err != nil {
		logger.Fatal("opening candidate store", zap.Error(err))
	}

	return store, logger
}

// filteredRecords loads all records and applies the filters selected via
// flags.
func filteredRecords(cmd *cobra.Command, store *candidates.Store, log *zap.Logger) []*interview.Record {
	records, err := store.ListAll(context.Background())
	if err != nil {
		log.Fatal("listing candidates", zap.Error(err))
	}

	var steps []filtering.Filter
	if tech := cmd.Flag("tech").Value.String(); tech != "" {
		steps = append(steps, filtering.NewTechnology(tech))
	}
	if years, err := cmd.Flags().GetInt("min-experience"); err == nil && years > 0 {
		steps = append(steps, filtering.NewMinExperience(years))
	}
	if completed, err := cmd.Flags().GetBool("completed"); err == nil && completed {
		steps = append(steps, filtering.NewCompletedOnly())
	}

	return filtering.Run(log, steps, records)
}

func listCandidates(cmd *cobra.Command) {
	store, log := openCandidateStore()
	defer store.Close()

	records := filteredRecords(cmd, store, log)

	// Transcripts are too noisy for a listing.
	for _, rec := range records {
		rec.Transcript = nil
	}

	pretty, _ := json.MarshalIndent(records, "", "  ")
	fmt.Println(string(pretty))

	log.Info("candidates listed", zap.Int("count", len(records)))
}

func candidateStats() {
	store, log := openCandidateStore()
	defer store.Close()

	stats, err := store.Stats(context.Background())
	if err != nil {
		log.Fatal("computing stats", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(pretty))
}

func exportCandidates(cmd *cobra.Command) {
	store, log := openCandidateStore()
	defer store.Close()

	records := filteredRecords(cmd, store, log)

	out := os.Stdout
	if path := cmd.Flag("output").Value.String(); path != "" {
		f, err := os.Create(path)
		if err != nil {
			log.Fatal("creating output file", zap.Error(err))
		}
		defer f.Close()
		out = f
	}

	if err := candidates.ExportCSV(out, records); err != nil {
		log.Fatal("exporting candidates", zap.Error(err))
	}

	log.Info("candidates exported", zap.Int("count", len(records)))
}
