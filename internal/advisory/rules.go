package advisory

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Rule variables.
const (
	VarGender         = "gender"
	VarSSC            = "ssc"
	VarHSC            = "hsc"
	VarDegree         = "degree"
	VarWorkExperience = "work_experience"
	VarBranch         = "branch"
	VarRole           = "role"
	VarSkills         = "skills"
	VarInternships    = "internships"
	VarProjects       = "projects"
	VarConfidence     = "confidence"
)

var ruleEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable(VarGender, cel.StringType),
		cel.Variable(VarSSC, cel.DoubleType),
		cel.Variable(VarHSC, cel.DoubleType),
		cel.Variable(VarDegree, cel.DoubleType),
		cel.Variable(VarWorkExperience, cel.StringType),
		cel.Variable(VarBranch, cel.StringType),
		cel.Variable(VarRole, cel.StringType),
		cel.Variable(VarSkills, cel.ListType(cel.StringType)),
		cel.Variable(VarInternships, cel.IntType),
		cel.Variable(VarProjects, cel.IntType),
		cel.Variable(VarConfidence, cel.IntType),
		cel.CrossTypeNumericComparisons(true),
	)
})

type compiledRule struct {
	Rule
	program cel.Program
}

// RuleSet is a compiled list of suggestion rules. It is safe for concurrent use.
type RuleSet struct {
	rules []compiledRule
}

// CompileRules type-checks every rule up front so a bad expression fails at startup.
func CompileRules(rules []Rule) (*RuleSet, error) {
	env, err := ruleEnv()
	if err != nil {
		return nil, fmt.Errorf("rule environment: %w", err)
	}

	set := &RuleSet{rules: make([]compiledRule, 0, len(rules))}
	for i, rule := range rules {
		ast, issues := env.Compile(rule.When)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("rule %d %q: %w", i, rule.When, issues.Err())
		}

		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule %d %q: must return bool, got %s", i, rule.When, ast.OutputType())
		}

		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("rule %d %q: %w", i, rule.When, err)
		}

		set.rules = append(set.rules, compiledRule{Rule: rule, program: prg})
	}

	return set, nil
}

func (s *RuleSet) Len() int { return len(s.rules) }

// Evaluate returns the messages of the matching rules in rule order.
func (s *RuleSet) Evaluate(p Profile) ([]string, error) {
	input := activation(p)

	messages := []string{}
	for _, rule := range s.rules {
		out, _, err := rule.program.Eval(input)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.When, err)
		}

		matched, ok := out.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("rule %q: expression must return bool, got %T", rule.When, out.Value())
		}

		if matched {
			messages = append(messages, rule.Message)
		}
	}

	return messages, nil
}

func activation(p Profile) map[string]any {
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}

	return map[string]any{
		VarGender:         p.Gender,
		VarSSC:            p.SSCPercentage,
		VarHSC:            p.HSCPercentage,
		VarDegree:         p.DegreePercentage,
		VarWorkExperience: p.WorkExperience,
		VarBranch:         p.Branch,
		VarRole:           p.Role,
		VarSkills:         skills,
		VarInternships:    int64(p.Internships),
		VarProjects:       int64(p.Projects),
		VarConfidence:     int64(p.Confidence),
	}
}
