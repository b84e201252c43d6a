package advisory

import (
	"strings"

	"github.com/spigell/placement-readiness/internal/encoding"
	"github.com/spigell/placement-readiness/internal/utils"
)

// Profile is everything the form collects about a student.
type Profile struct {
	encoding.Candidate `mapstructure:",squash" yaml:",inline"`

	Branch      string   `json:"branch,omitempty" mapstructure:"branch" yaml:"branch,omitempty"`
	Role        string   `json:"role,omitempty" mapstructure:"role" yaml:"role,omitempty"`
	Skills      []string `json:"skills,omitempty" mapstructure:"skills" yaml:"skills,omitempty"`
	Internships int      `json:"internships" mapstructure:"internships" yaml:"internships"`
	Projects    int      `json:"projects" mapstructure:"projects" yaml:"projects"`
	// Confidence is a self-assessment between 1 and 10.
	Confidence int `json:"confidence" mapstructure:"confidence" yaml:"confidence"`
}

func (p Profile) hasWorkExperience() bool {
	return p.WorkExperience == "Yes"
}

// Readiness is the weighted sum of academics, internships, projects and work
// experience, bounded to [0, cap].
func Readiness(p Profile, w ReadinessWeights) float64 {
	score := w.Degree*p.DegreePercentage +
		w.HSC*p.HSCPercentage +
		w.SSC*p.SSCPercentage +
		w.Internship*float64(p.Internships) +
		w.Project*float64(p.Projects)

	if p.hasWorkExperience() {
		score += w.WorkExperience
	}

	return utils.Clamp(score, 0, w.Cap)
}

// SkillScore counts distinct skills, bounded to [0, cap].
func SkillScore(skills []string, sp SkillPolicy) float64 {
	return utils.Clamp(float64(len(utils.NormalizeList(skills)))*sp.PerSkill, 0, sp.Cap)
}

// ATS blends readiness, skill score and internships into a simulated screening score.
func ATS(readiness, skill float64, internships int, w ATSWeights) float64 {
	return utils.Clamp(w.Readiness*readiness+w.Skill*skill+w.Internship*float64(internships), 0, w.Cap)
}

// HiringTier returns the label of the highest level whose minimum ats reaches.
func HiringTier(ats float64, t TierPolicy) string {
	for _, level := range t.sorted() {
		if ats >= level.Min {
			return level.Label
		}
	}
	return t.Fallback
}

// CareerFit compares the student's skills with those a role requires.
type CareerFit struct {
	Role    string   `json:"role" yaml:"role"`
	Score   float64  `json:"score" yaml:"score"`
	Matched []string `json:"matched" yaml:"matched"`
	Missing []string `json:"missing" yaml:"missing"`
}

// Fit returns nil when the role is not configured. Role and skill names
// are matched case-insensitively.
func Fit(role string, skills []string, roles map[string][]string) *CareerFit {
	required, name, ok := lookupRole(role, roles)
	if !ok || len(required) == 0 {
		return nil
	}

	have := make(map[string]struct{}, len(skills))
	for _, s := range utils.NormalizeList(skills) {
		have[strings.ToLower(s)] = struct{}{}
	}

	fit := &CareerFit{Role: name, Matched: []string{}, Missing: []string{}}
	for _, skill := range required {
		if _, ok := have[strings.ToLower(skill)]; ok {
			fit.Matched = append(fit.Matched, skill)
		} else {
			fit.Missing = append(fit.Missing, skill)
		}
	}
	fit.Score = float64(len(fit.Matched)) / float64(len(required)) * 100

	return fit
}

func lookupRole(role string, roles map[string][]string) ([]string, string, bool) {
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, "", false
	}

	if required, ok := roles[role]; ok {
		return required, role, true
	}

	for name, required := range roles {
		if strings.EqualFold(name, role) {
			return required, name, true
		}
	}

	return nil, "", false
}
