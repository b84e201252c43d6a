package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/placement-readiness/internal/advisory"
)

type policyView struct {
	Policy   *advisory.Policy  `yaml:"policy"`
	Advisors []advisory.Status `yaml:"advisors"`
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Print the effective scoring and advisory policy as YAML",
	Run: func(cmd *cobra.Command, _ []string) {
		logger := newLogger()
		defer logger.Sync()

		policy, err := getPolicy()
		if err != nil {
			logger.Fatal("getting the policy", zap.Error(err))
		}

		advisors, err := advisory.New(policy, logger)
		if err != nil {
			logger.Fatal("building the advisors", zap.Error(err))
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()

		if err := enc.Encode(policyView{Policy: policy, Advisors: advisors.Describe()}); err != nil {
			logger.Fatal("printing the policy", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(policyCmd)
}
