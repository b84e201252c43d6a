package advisory

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	StepReadiness      = "readiness"
	StepSkills         = "skills"
	StepATS            = "ats"
	StepTier           = "tier"
	StepCareerFit      = "career_fit"
	StepSuggestions    = "suggestions"
	StepActionPlan     = "action_plan"
	StepExplainability = "explainability"
)

// Action plan entries.
const (
	ActionLearnSkills    = "Learn the missing skills for %s: %s"
	ActionInternship     = "Apply for at least one internship this semester"
	ActionBuildProjects  = "Build projects and revise core subjects to raise your readiness index"
	ActionMockInterviews = "Practice mock interviews and group discussions to build confidence"
	ActionKeepGoing      = "Keep your resume updated and apply to matching openings"
)

// DefaultSteps returns the advisors in evaluation order. Later steps read
// what earlier ones wrote to the report.
func DefaultSteps(rules *RuleSet) []Advisor {
	return []Advisor{
		newAdvisor(StepReadiness, applyReadiness),
		newAdvisor(StepSkills, applySkills),
		newAdvisor(StepATS, applyATS),
		newAdvisor(StepTier, applyTier),
		newAdvisor(StepCareerFit, applyCareerFit),
		&suggestionsAdvisor{advisor: advisor{name: StepSuggestions}, rules: rules},
		newAdvisor(StepActionPlan, applyActionPlan),
		newAdvisor(StepExplainability, applyExplainability),
	}
}

type applyFunc func(policy *Policy, p Profile, r *Report) (Step, error)

type advisor struct {
	name     string
	disabled bool
	reason   string
	policy   *Policy
	apply    applyFunc
}

func newAdvisor(name string, apply applyFunc) *advisor {
	return &advisor{name: name, apply: apply}
}

func (a *advisor) Name() string { return a.name }

func (a *advisor) Disable(reason string) {
	a.disabled = true
	a.reason = reason
}

func (a *advisor) IsEnabled() bool { return !a.disabled }

func (a *advisor) Reason() string { return a.reason }

func (a *advisor) Validate(policy *Policy) error {
	if policy == nil {
		return errors.New("policy is required")
	}
	a.policy = policy
	return nil
}

func (a *advisor) Apply(_ context.Context, p Profile, r *Report) (Step, error) {
	if a.policy == nil {
		return Step{}, errors.New("advisor is not validated")
	}
	return a.apply(a.policy, p, r)
}

func applyReadiness(policy *Policy, p Profile, r *Report) (Step, error) {
	r.Readiness = Readiness(p, policy.Readiness)
	return Step{Score: r.Readiness}, nil
}

func applySkills(policy *Policy, p Profile, r *Report) (Step, error) {
	r.SkillScore = SkillScore(p.Skills, policy.Skills)
	return Step{Score: r.SkillScore, Items: len(p.Skills)}, nil
}

func applyATS(policy *Policy, p Profile, r *Report) (Step, error) {
	r.ATS = ATS(r.Readiness, r.SkillScore, p.Internships, policy.ATS)
	return Step{Score: r.ATS}, nil
}

func applyTier(policy *Policy, _ Profile, r *Report) (Step, error) {
	r.Tier = HiringTier(r.ATS, policy.Tiers)
	return Step{Score: r.ATS}, nil
}

func applyCareerFit(policy *Policy, p Profile, r *Report) (Step, error) {
	r.CareerFit = Fit(p.Role, p.Skills, policy.Roles)
	if r.CareerFit == nil {
		return Step{}, nil
	}
	return Step{Score: r.CareerFit.Score, Items: len(r.CareerFit.Missing)}, nil
}

func applyActionPlan(policy *Policy, p Profile, r *Report) (Step, error) {
	var plan []string

	if r.CareerFit != nil && len(r.CareerFit.Missing) > 0 {
		plan = append(plan, fmt.Sprintf(ActionLearnSkills, r.CareerFit.Role, strings.Join(r.CareerFit.Missing, ", ")))
	}
	if p.Internships == 0 {
		plan = append(plan, ActionInternship)
	}
	if r.Readiness < policy.ActionPlan.LowReadiness {
		plan = append(plan, ActionBuildProjects)
	}
	if p.Confidence > 0 && p.Confidence < policy.ActionPlan.LowConfidence {
		plan = append(plan, ActionMockInterviews)
	}
	if len(plan) == 0 {
		plan = append(plan, ActionKeepGoing)
	}

	r.ActionPlan = plan
	return Step{Items: len(plan)}, nil
}

func applyExplainability(policy *Policy, _ Profile, r *Report) (Step, error) {
	r.Explainability = policy.Explainability
	return Step{}, nil
}

type suggestionsAdvisor struct {
	advisor
	rules *RuleSet
}

func (a *suggestionsAdvisor) Validate(policy *Policy) error {
	if a.rules == nil {
		return errors.New("suggestion rules are not compiled")
	}
	return a.advisor.Validate(policy)
}

func (a *suggestionsAdvisor) Apply(_ context.Context, p Profile, r *Report) (Step, error) {
	messages, err := a.rules.Evaluate(p)
	if err != nil {
		return Step{}, err
	}
	r.Suggestions = messages
	return Step{Items: len(messages)}, nil
}
