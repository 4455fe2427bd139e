package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmbarrys/navigara/internal/analyzer"
	"github.com/mmbarrys/navigara/internal/layout"
	"github.com/mmbarrys/navigara/internal/orgraph"
	"github.com/mmbarrys/navigara/internal/provider"
)

type analysisOutput struct {
	*layout.Snapshot
	Scores []analyzer.NodeScore `json:"scores"`
	Silos  [][]string           `json:"silos"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a dataset and print the graph snapshot as JSON",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	addDatasetFlags(analyzeCmd)
}

func addDatasetFlags(cmd *cobra.Command) {
	cmd.Flags().String("dataset", "", "a JSON or YAML file with pegawai and kolaborasi lists. Default is the configured provider.")
	cmd.Flags().String("roster", "", "a JSON file with the pegawai list")
	cmd.Flags().String("collaborations", "", "a JSON file with the kolaborasi list, used with --roster")
}

func analyze(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := bootstrap("analyze")

	ds, err := loadDataset(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("loading a dataset", zap.Error(err))
	}

	g, err := orgraph.FromDataset(*ds)
	if err != nil {
		logger.Fatal("validating the dataset", zap.Error(err))
	}

	input := g.SnapshotInput()
	result := analyzer.Analyze(input.Employees, input.Edges)

	logger.Info("analysis finished",
		zap.Int("employees", result.Metrics.TotalEmployees),
		zap.Int("silos", result.Metrics.SiloCount),
		zap.Float64("avg_effectiveness", result.Metrics.AverageEffectiveness),
	)

	out := analysisOutput{
		Snapshot: layout.Render(input, result),
		Scores:   result.Scores,
		Silos:    result.Silos,
	}
	if err := printJSON(os.Stdout, out); err != nil {
		logger.Fatal("printing the snapshot", zap.Error(err))
	}
}

// loadDataset reads the dataset named by the flags, falling back to the
// configured graph provider.
func loadDataset(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) (*orgraph.Dataset, error) {
	datasetFile, _ := cmd.Flags().GetString("dataset")
	rosterFile, _ := cmd.Flags().GetString("roster")
	collaborationsFile, _ := cmd.Flags().GetString("collaborations")

	switch {
	case datasetFile != "":
		// FileStore would seed a missing file with the default dataset.
		if _, err := os.Stat(datasetFile); err != nil {
			return nil, err
		}
		return provider.NewFileStore(datasetFile, logger).DefaultGraph(ctx)
	case rosterFile != "":
		return readLists(rosterFile, collaborationsFile)
	case collaborationsFile != "":
		return nil, fmt.Errorf("--collaborations requires --roster")
	}

	graphs, err := newGraphProvider(config.Provider, logger)
	if err != nil {
		return nil, err
	}
	return graphs.DefaultGraph(ctx)
}

func readLists(rosterFile, collaborationsFile string) (*orgraph.Dataset, error) {
	data, err := os.ReadFile(rosterFile)
	if err != nil {
		return nil, err
	}
	employees, err := orgraph.ParseRoster(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", rosterFile, err)
	}

	ds := &orgraph.Dataset{Employees: employees}
	if collaborationsFile == "" {
		return ds, nil
	}

	data, err = os.ReadFile(collaborationsFile)
	if err != nil {
		return nil, err
	}
	ds.Edges, err = orgraph.ParseCollaborations(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", collaborationsFile, err)
	}

	return ds, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
