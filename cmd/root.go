package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/placement-readiness/internal/advisory"
	"github.com/spigell/placement-readiness/internal/artifact"
	"github.com/spigell/placement-readiness/internal/logger"
	"github.com/spigell/placement-readiness/internal/trainer"
)

const (
	app       = "placement-readiness"
	envPrefix = "PLACEMENT"
	envFile   = ".env"
)

type Config struct {
	Artifact *artifact.Config `mapstructure:"artifact"`
	Training *TrainingConfig  `mapstructure:"training"`
}

type TrainingConfig struct {
	trainer.Config `mapstructure:",squash"`

	Data       string `mapstructure:"data"`
	NoProgress bool   `mapstructure:"no-progress"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "placement-readiness trains a placement model from student records and scores candidates against it",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is placement-readiness.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("artifact", "a", artifact.DefaultPath, "path of the model artifact for the file backend")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("artifact.path", rootCmd.PersistentFlags().Lookup("artifact"))

	// AutomaticEnv only sees keys viper already knows about.
	for _, key := range []string{
		"artifact.backend",
		"artifact.redis.addr",
		"artifact.redis.db",
		"artifact.redis.key",
		"artifact.redis.password-file",
		"policy.placement-threshold",
	} {
		if err := viper.BindEnv(key); err != nil {
			log.Fatalf("binding environment variable for %s: %v", key, err)
		}
	}
}

func initConfig() {
	// A missing .env is fine, a broken one is not.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading %s: %v", envFile, err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// The config file is optional unless it was requested explicitly.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	return config, nil
}

// getPolicy overlays the configured policy section on the built-in defaults.
// Lists and maps from the config replace the defaults instead of merging with them.
func getPolicy() (*advisory.Policy, error) {
	policy := advisory.DefaultPolicy()

	if err := decodeSection(viper.AllSettings(), "policy", policy); err != nil {
		return nil, err
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}

	return policy, nil
}

// decodeSection decodes settings[key] into out. Pass viper.AllSettings() to
// take flags, env, the config file and defaults into account. Unknown keys are an error.
func decodeSection(settings map[string]any, key string, out any) error {
	section, ok := settings[key].(map[string]any)
	if !ok {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ZeroFields:       true,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(section); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	return nil
}

func newLogger() *zap.Logger {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	return logger
}

func newStore(config *Config) (artifact.Store, error) {
	return artifact.NewStore(config.Artifact)
}
