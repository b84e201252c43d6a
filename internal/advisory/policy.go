package advisory

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Policy holds every weight, cap and threshold used by the advisors.
type Policy struct {
	// PlacementThreshold is the percentage at and above which the verdict is "Placed".
	PlacementThreshold float64             `mapstructure:"placement-threshold" yaml:"placement-threshold"`
	Readiness          ReadinessWeights    `mapstructure:"readiness" yaml:"readiness"`
	Skills             SkillPolicy         `mapstructure:"skills" yaml:"skills"`
	ATS                ATSWeights          `mapstructure:"ats" yaml:"ats"`
	Tiers              TierPolicy          `mapstructure:"tiers" yaml:"tiers"`
	Suggestions        []Rule              `mapstructure:"suggestions" yaml:"suggestions"`
	Roles              map[string][]string `mapstructure:"roles" yaml:"roles"`
	ActionPlan         ActionPlanPolicy    `mapstructure:"action-plan" yaml:"action-plan"`
	Explainability     string              `mapstructure:"explainability" yaml:"explainability"`
	// Disabled lists advisor names that are skipped.
	Disabled []string `mapstructure:"disabled" yaml:"disabled,omitempty"`
}

type ReadinessWeights struct {
	Degree         float64 `mapstructure:"degree" yaml:"degree"`
	HSC            float64 `mapstructure:"hsc" yaml:"hsc"`
	SSC            float64 `mapstructure:"ssc" yaml:"ssc"`
	Internship     float64 `mapstructure:"internship" yaml:"internship"`
	Project        float64 `mapstructure:"project" yaml:"project"`
	WorkExperience float64 `mapstructure:"work-experience" yaml:"work-experience"`
	Cap            float64 `mapstructure:"cap" yaml:"cap"`
}

type SkillPolicy struct {
	PerSkill float64 `mapstructure:"per-skill" yaml:"per-skill"`
	Cap      float64 `mapstructure:"cap" yaml:"cap"`
}

type ATSWeights struct {
	Readiness  float64 `mapstructure:"readiness" yaml:"readiness"`
	Skill      float64 `mapstructure:"skill" yaml:"skill"`
	Internship float64 `mapstructure:"internship" yaml:"internship"`
	Cap        float64 `mapstructure:"cap" yaml:"cap"`
}

// TierPolicy maps an ATS score to a hiring tier. Levels are checked from the
// highest minimum down; Fallback applies when none matches.
type TierPolicy struct {
	Levels   []Tier `mapstructure:"levels" yaml:"levels"`
	Fallback string `mapstructure:"fallback" yaml:"fallback"`
}

type Tier struct {
	Min   float64 `mapstructure:"min" yaml:"min"`
	Label string  `mapstructure:"label" yaml:"label"`
}

// Rule adds Message to the suggestions when the CEL expression When is true.
type Rule struct {
	When    string `mapstructure:"when" yaml:"when"`
	Message string `mapstructure:"message" yaml:"message"`
}

type ActionPlanPolicy struct {
	LowReadiness  float64 `mapstructure:"low-readiness" yaml:"low-readiness"`
	LowConfidence int     `mapstructure:"low-confidence" yaml:"low-confidence"`
}

const defaultExplainability = "Feature attribution is not computed. Academic scores and work experience " +
	"are the inputs the model weighs; attribution plots can be produced offline from the saved artifact."

// DefaultPolicy returns the built-in coefficients.
func DefaultPolicy() *Policy {
	return &Policy{
		PlacementThreshold: 60,
		Readiness: ReadinessWeights{
			Degree:         0.30,
			HSC:            0.20,
			SSC:            0.20,
			Internship:     5,
			Project:        3,
			WorkExperience: 10,
			Cap:            100,
		},
		Skills: SkillPolicy{PerSkill: 12, Cap: 100},
		ATS:    ATSWeights{Readiness: 0.5, Skill: 0.3, Internship: 5, Cap: 100},
		Tiers: TierPolicy{
			Levels: []Tier{
				{Min: 75, Label: "Strong Hire"},
				{Min: 55, Label: "Consider Candidate"},
			},
			Fallback: "Upskilling Required",
		},
		Suggestions: []Rule{
			{When: `degree < 65.0`, Message: "Improve core subject understanding and academic scores"},
			{When: `work_experience == "No"`, Message: "Gain internship or project-based experience"},
			{When: `ssc < 60.0 || hsc < 60.0`, Message: "Strengthen fundamentals and aptitude skills"},
		},
		Roles: map[string][]string{
			"Software Developer": {"Python", "Java", "DSA", "Git", "SQL"},
			"Backend Developer":  {"Java", "SQL", "REST APIs", "Git", "DSA"},
			"Web Developer":      {"HTML", "CSS", "JavaScript", "React", "Git"},
			"Data Analyst":       {"Python", "SQL", "Excel", "Statistics", "Power BI"},
			"Data Scientist":     {"Python", "Machine Learning", "Statistics", "SQL", "Pandas"},
		},
		ActionPlan:     ActionPlanPolicy{LowReadiness: 60, LowConfidence: 5},
		Explainability: defaultExplainability,
	}
}

// Validate checks the policy for values that would make the advisors misbehave.
func (p *Policy) Validate() error {
	if p.PlacementThreshold < 0 || p.PlacementThreshold > 100 {
		return fmt.Errorf("placement-threshold %v is outside [0,100]", p.PlacementThreshold)
	}

	for name, limit := range map[string]float64{
		"readiness.cap": p.Readiness.Cap,
		"skills.cap":    p.Skills.Cap,
		"ats.cap":       p.ATS.Cap,
	} {
		if limit <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if p.Tiers.Fallback == "" {
		return fmt.Errorf("tiers.fallback is required")
	}

	for i, rule := range p.Suggestions {
		if strings.TrimSpace(rule.When) == "" || strings.TrimSpace(rule.Message) == "" {
			return fmt.Errorf("suggestion %d: when and message are required", i)
		}
	}

	return nil
}

// RoleNames returns the configured target roles in sorted order.
func (p *Policy) RoleNames() []string {
	names := make([]string, 0, len(p.Roles))
	for name := range p.Roles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// sorted returns the levels ordered by descending minimum.
func (t TierPolicy) sorted() []Tier {
	levels := slices.Clone(t.Levels)
	slices.SortStableFunc(levels, func(a, b Tier) int {
		return cmp.Compare(b.Min, a.Min)
	})
	return levels
}
