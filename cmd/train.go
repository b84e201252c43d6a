package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/placement-readiness/internal/dataset"
	"github.com/spigell/placement-readiness/internal/forest"
	"github.com/spigell/placement-readiness/internal/trainer"
)

const defaultDataPath = "placement_data.csv"

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the placement model from a labeled CSV and save the artifact",
	Run: func(_ *cobra.Command, _ []string) {
		train()
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().StringP("data", "f", defaultDataPath, "labeled CSV with gender, ssc_p, hsc_p, degree_p, workex and status columns")
	trainCmd.Flags().Int("trees", forest.DefaultTrees, "number of trees in the forest")
	trainCmd.Flags().Int64("seed", forest.DefaultSeed, "random seed")
	trainCmd.Flags().Int("max-depth", 0, "maximum tree depth, 0 is unlimited")
	trainCmd.Flags().Int("workers", 0, "trees fitted in parallel, 0 is GOMAXPROCS")
	trainCmd.Flags().Bool("no-progress", false, "do not render the progress bar")

	for _, name := range []string{"data", "trees", "seed", "max-depth", "workers", "no-progress"} {
		viper.BindPFlag("training."+name, trainCmd.Flags().Lookup(name))
	}
}

func train() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := newLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config.Training == nil {
		config.Training = &TrainingConfig{Config: trainer.DefaultConfig(), Data: defaultDataPath}
	}

	logger.Info("starting the training", zap.String("version", version), zap.String("data", config.Training.Data))
	logger.Debug("training config", zap.Any("training", config.Training))

	store, err := newStore(config)
	if err != nil {
		logger.Fatal("creating the artifact store", zap.Error(err))
	}

	t := trainer.New(config.Training.Config, store, logger)

	// The bar and JSON logs share stderr, so the bar is only drawn for humans.
	if !config.Training.NoProgress && !viper.GetBool("json") {
		t.WithProgress(os.Stderr)
	}

	a, err := t.Run(ctx, config.Training.Data)
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		switch {
		case errors.Is(err, dataset.ErrSchemaMismatch):
			fields = append(fields, zap.String("hint", "the CSV needs gender, ssc_p, hsc_p, degree_p, workex and status columns with Male/Female, Yes/No and Placed/Not Placed values"))
		case errors.Is(err, os.ErrNotExist):
			fields = append(fields, zap.String("hint", "pass the dataset with --data or set training.data in the config"))
		}
		logger.Fatal("training failed", fields...)
	}

	logger.Info("training finished",
		zap.String("artifact_id", a.ID),
		zap.Float64("training_accuracy", a.Training.Accuracy),
	)
}
