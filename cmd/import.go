package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmbarrys/navigara/internal/orgraph"
	"github.com/mmbarrys/navigara/internal/provider"
	"github.com/mmbarrys/navigara/internal/workflow"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Validate a dataset and store it as the default graph of the configured provider",
	Run: func(cmd *cobra.Command, _ []string) {
		importDataset(cmd)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	addDatasetFlags(importCmd)
}

func importDataset(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := bootstrap("import")

	if !hasDatasetSource(cmd) {
		logger.Fatal("nothing to import", zap.Error(fmt.Errorf("--dataset or --roster is required")))
	}

	ds, err := loadDataset(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("loading a dataset", zap.Error(err))
	}

	graphs, err := newGraphProvider(config.Provider, logger)
	if err != nil {
		logger.Fatal("creating a graph provider", zap.Error(err))
	}

	if err := saveDefault(ctx, graphs, *ds); err != nil {
		logger.Fatal("saving the default graph", zap.Error(err))
	}

	logger.Info("dataset imported",
		zap.String("provider", config.Provider.Kind),
		zap.Int("employees", len(ds.Employees)),
		zap.Int("collaborations", len(ds.Edges)),
	)
}

func hasDatasetSource(cmd *cobra.Command) bool {
	datasetFile, _ := cmd.Flags().GetString("dataset")
	rosterFile, _ := cmd.Flags().GetString("roster")
	return datasetFile != "" || rosterFile != ""
}

// saveDefault stores ds as the default graph when the provider keeps one.
func saveDefault(ctx context.Context, graphs provider.GraphProvider, ds orgraph.Dataset) error {
	store, ok := graphs.(provider.GraphStore)
	if !ok {
		return fmt.Errorf("%w: %T", workflow.ErrReadOnlyProvider, graphs)
	}
	return store.Save(ctx, ds)
}
