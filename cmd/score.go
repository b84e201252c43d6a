package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/placement-readiness/internal/advisory"
	"github.com/spigell/placement-readiness/internal/artifact"
	"github.com/spigell/placement-readiness/internal/encoding"
	"github.com/spigell/placement-readiness/internal/scoring"
	"github.com/spigell/placement-readiness/internal/utils"
)

const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Outcome is everything a single score invocation reports.
type Outcome struct {
	ArtifactID string           `json:"artifact_id" yaml:"artifact_id"`
	Profile    advisory.Profile `json:"profile" yaml:"profile"`
	Result     scoring.Result   `json:"result" yaml:"result"`
	Advisory   *advisory.Report `json:"advisory" yaml:"advisory"`
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a candidate against the trained model and print readiness advice",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	defaults := advisory.DefaultPolicy()

	scoreCmd.Flags().String("gender", "Male", "Male or Female")
	scoreCmd.Flags().Float64("ssc", 70, "SSC percentage")
	scoreCmd.Flags().Float64("hsc", 70, "HSC percentage")
	scoreCmd.Flags().Float64("degree", 65, "degree percentage")
	scoreCmd.Flags().String("workex", "No", "work experience, Yes or No")
	scoreCmd.Flags().String("branch", "", "academic branch, e.g. CSE")
	scoreCmd.Flags().String("role", "", "target role for the career fit")
	scoreCmd.Flags().StringSlice("skills", nil, "comma separated skills")
	scoreCmd.Flags().Int("internships", 0, "number of internships")
	scoreCmd.Flags().Int("projects", 0, "number of projects")
	scoreCmd.Flags().Int("confidence", 5, "confidence level from 1 to 10")
	scoreCmd.Flags().BoolP("interactive", "i", false, "ask for the candidate details in the terminal")
	scoreCmd.Flags().StringP("output", "o", OutputText, "output format: text, json or yaml")
	scoreCmd.Flags().Float64("threshold", defaults.PlacementThreshold, "placement threshold in percent")

	viper.BindPFlag("policy.placement-threshold", scoreCmd.Flags().Lookup("threshold"))

	// Candidate flags map onto the profile fields so the config file can carry defaults.
	for key, flag := range map[string]string{
		encoding.FeatureGender:         "gender",
		encoding.FeatureSSC:            "ssc",
		encoding.FeatureHSC:            "hsc",
		encoding.FeatureDegree:         "degree",
		encoding.FeatureWorkExperience: "workex",
		"branch":                       "branch",
		"role":                         "role",
		"skills":                       "skills",
		"internships":                  "internships",
		"projects":                     "projects",
		"confidence":                   "confidence",
	} {
		viper.BindPFlag("candidate."+key, scoreCmd.Flags().Lookup(flag))
	}
}

func score(cmd *cobra.Command) {
	ctx := context.Background()

	logger := newLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	policy, err := getPolicy()
	if err != nil {
		logger.Fatal("getting the policy", zap.Error(err), zap.String("hint", "check the policy section of the config file"))
	}

	output := strings.ToLower(cmd.Flag("output").Value.String())
	if output != OutputText && output != OutputJSON && output != OutputYAML {
		logger.Fatal("unsupported output format", zap.String("output", output))
	}

	advisors, err := advisory.New(policy, logger)
	if err != nil {
		logger.Fatal("building the advisors", zap.Error(err))
	}

	store, err := newStore(config)
	if err != nil {
		logger.Fatal("creating the artifact store", zap.Error(err))
	}

	// Load before asking anything so a missing model stops the form early.
	scorer, err := scoring.Load(ctx, store)
	if err != nil {
		hint := "check the artifact settings"
		if errors.Is(err, artifact.ErrMissing) {
			hint = "run the train command first or point --artifact at a trained model"
		}
		logger.Fatal("loading the model", zap.Error(err), zap.String("location", store.Location()), zap.String("hint", hint))
	}
	scorer = scorer.WithThreshold(policy.PlacementThreshold)

	logger.Debug("model loaded",
		zap.String("artifact_id", scorer.ArtifactID()),
		zap.Int("trees", scorer.Training().Trees),
		zap.Float64("threshold", scorer.Threshold()),
	)

	var profile advisory.Profile
	if cmd.Flag("interactive").Value.String() == "true" {
		profile, err = askProfile(policy)
		if err != nil {
			logger.Fatal("reading the form", zap.Error(err))
		}
	} else {
		profile, err = profileFromFlags()
		if err != nil {
			logger.Fatal("reading the flags", zap.Error(err))
		}
	}

	if err := validateProfile(profile); err != nil {
		logger.Fatal("invalid candidate", zap.Error(err))
	}

	result, err := scorer.ScoreCandidate(profile.Candidate)
	if err != nil {
		hint := ""
		if errors.Is(err, encoding.ErrUnknownCategory) {
			hint = "the model was trained without this category"
		}
		logger.Fatal("scoring failed", zap.Error(err), zap.String("hint", hint))
	}

	report, err := advisors.Run(ctx, profile)
	if err != nil {
		logger.Fatal("running the advisors", zap.Error(err))
	}

	outcome := &Outcome{
		ArtifactID: scorer.ArtifactID(),
		Profile:    profile,
		Result:     result,
		Advisory:   report,
	}

	if err := render(cmd.OutOrStdout(), output, outcome); err != nil {
		logger.Fatal("printing the result", zap.Error(err))
	}
}

func profileFromFlags() (advisory.Profile, error) {
	var p advisory.Profile
	if err := decodeSection(viper.AllSettings(), "candidate", &p); err != nil {
		return p, err
	}

	p.Skills = utils.NormalizeList(p.Skills)

	return p, nil
}

func render(w io.Writer, output string, o *Outcome) error {
	switch output {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(o)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(o)
	default:
		return renderText(w, o)
	}
}

func renderText(w io.Writer, o *Outcome) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Placement Probability: %.2f%%\n", o.Result.Percentage)
	fmt.Fprintf(&b, "Prediction Outcome: %s\n", o.Result.Verdict)

	r := o.Advisory
	if o.Result.Verdict == scoring.VerdictNotPlaced && len(r.Suggestions) > 0 {
		b.WriteString("\nSkill Gap Analysis\n")
		for _, s := range r.Suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}

	b.WriteString("\nReadiness\n")
	fmt.Fprintf(&b, "Readiness Index: %.2f\n", r.Readiness)
	fmt.Fprintf(&b, "Skill Score: %.2f\n", r.SkillScore)
	fmt.Fprintf(&b, "ATS Score: %.2f\n", r.ATS)
	fmt.Fprintf(&b, "Hiring Tier: %s\n", r.Tier)

	if r.CareerFit != nil {
		fmt.Fprintf(&b, "\nCareer Fit: %s %.0f%%\n", r.CareerFit.Role, r.CareerFit.Score)
		if len(r.CareerFit.Missing) > 0 {
			fmt.Fprintf(&b, "Missing skills: %s\n", strings.Join(r.CareerFit.Missing, ", "))
		}
	}

	if len(r.ActionPlan) > 0 {
		b.WriteString("\nAction Plan\n")
		for i, step := range r.ActionPlan {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}

	if r.Explainability != "" {
		fmt.Fprintf(&b, "\nModel Explainability\n%s\n", r.Explainability)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
