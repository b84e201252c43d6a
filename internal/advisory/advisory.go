package advisory

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Advisor is a single step of the advisory pipeline.
type Advisor interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(policy *Policy) error
	Apply(ctx context.Context, p Profile, r *Report) (Step, error)
}

// Step describes what an advisor produced.
type Step struct {
	Score float64
	Items int
}

// Report is the combined output of the advisors.
type Report struct {
	Readiness      float64    `json:"readiness" yaml:"readiness"`
	SkillScore     float64    `json:"skill_score" yaml:"skill_score"`
	ATS            float64    `json:"ats" yaml:"ats"`
	Tier           string     `json:"tier" yaml:"tier"`
	CareerFit      *CareerFit `json:"career_fit,omitempty" yaml:"career_fit,omitempty"`
	Suggestions    []string   `json:"suggestions" yaml:"suggestions"`
	ActionPlan     []string   `json:"action_plan" yaml:"action_plan"`
	Explainability string     `json:"explainability" yaml:"explainability"`
}

// Status represents runtime information about an advisor.
type Status struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
	Reason  string `yaml:"reason,omitempty"`
}

// Advisory runs the configured advisors in order.
type Advisory struct {
	policy *Policy
	steps  []Advisor
	logger *zap.Logger
}

// New builds the default pipeline for policy. Advisors listed in
// policy.Disabled are kept but skipped.
func New(policy *Policy, logger *zap.Logger) (*Advisory, error) {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rules, err := CompileRules(policy.Suggestions)
	if err != nil {
		return nil, fmt.Errorf("suggestions: %w", err)
	}

	steps := DefaultSteps(rules)
	for _, name := range policy.Disabled {
		if !slices.ContainsFunc(steps, func(a Advisor) bool { return a.Name() == name }) {
			return nil, fmt.Errorf("unknown advisor %q in disabled list", name)
		}
		DisableByName(steps, name, "disabled by policy")
	}

	a := &Advisory{policy: policy, steps: steps, logger: logger}
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(policy); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	return a, nil
}

func (a *Advisory) Policy() *Policy { return a.policy }

// Describe returns status entries for the pipeline's advisors.
func (a *Advisory) Describe() []Status {
	statuses := make([]Status, 0, len(a.steps))
	for _, step := range a.steps {
		status := Status{Name: step.Name(), Enabled: step.IsEnabled()}
		if reporter, ok := step.(interface{ Reason() string }); ok {
			status.Reason = reporter.Reason()
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// Run executes the advisors sequentially and returns the combined report.
func (a *Advisory) Run(ctx context.Context, p Profile) (*Report, error) {
	r := &Report{Suggestions: []string{}, ActionPlan: []string{}}

	for _, step := range a.steps {
		if !step.IsEnabled() {
			a.logger.Debug("advisor disabled", zap.String("name", step.Name()))
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := step.Apply(ctx, p, r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		a.logger.Debug("advisory step",
			zap.String("name", step.Name()),
			zap.Float64("score", info.Score),
			zap.Int("items", info.Items),
		)
	}

	return r, nil
}

// DisableByName marks the advisor with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Advisor, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}
