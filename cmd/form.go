package cmd

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/spigell/placement-readiness/internal/advisory"
	"github.com/spigell/placement-readiness/internal/encoding"
	"github.com/spigell/placement-readiness/internal/utils"
)

const (
	PromptOtherRole = "Other"
	PromptNoRole    = "None"

	minConfidence = 1
	maxConfidence = 10
)

// askProfile collects the candidate in the terminal, one question at a time.
func askProfile(policy *advisory.Policy) (advisory.Profile, error) {
	var p advisory.Profile
	var err error

	if p.Gender, err = choose("Gender", []string{"Male", "Female"}); err != nil {
		return p, err
	}
	if p.SSCPercentage, err = askPercentage("SSC Percentage", 70); err != nil {
		return p, err
	}
	if p.HSCPercentage, err = askPercentage("HSC Percentage", 70); err != nil {
		return p, err
	}
	if p.DegreePercentage, err = askPercentage("Degree Percentage", 65); err != nil {
		return p, err
	}
	if p.WorkExperience, err = choose("Work Experience", []string{"Yes", "No"}); err != nil {
		return p, err
	}
	if p.Branch, err = ask("Branch", "CSE", nil); err != nil {
		return p, err
	}
	if p.Role, err = askRole(policy.RoleNames()); err != nil {
		return p, err
	}

	skills, err := ask("Skills (comma separated)", "", nil)
	if err != nil {
		return p, err
	}
	p.Skills = utils.SplitList(skills)

	if p.Internships, err = askCount("Internships", 0, 0, 100); err != nil {
		return p, err
	}
	if p.Projects, err = askCount("Projects", 0, 0, 100); err != nil {
		return p, err
	}
	if p.Confidence, err = askCount("Confidence level (1-10)", 5, minConfidence, maxConfidence); err != nil {
		return p, err
	}

	return p, nil
}

func choose(label string, items []string) (string, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
	}

	_, selected, err := prompt.Run()
	return selected, err
}

func ask(label, def string, validate promptui.ValidateFunc) (string, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   def,
		AllowEdit: true,
		Validate:  validate,
	}

	value, err := prompt.Run()
	return strings.TrimSpace(value), err
}

func askPercentage(label string, def float64) (float64, error) {
	value, err := ask(label, strconv.FormatFloat(def, 'f', -1, 64), validatePercentage)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(value, 64)
}

func askCount(label string, def, lo, hi int) (int, error) {
	value, err := ask(label, strconv.Itoa(def), func(s string) error {
		return validateCount(s, lo, hi)
	})
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(value))
}

func askRole(roles []string) (string, error) {
	role, err := choose("Target Role", append(slices.Clone(roles), PromptOtherRole, PromptNoRole))
	if err != nil {
		return "", err
	}

	switch role {
	case PromptNoRole:
		return "", nil
	case PromptOtherRole:
		return ask("Role", "", nil)
	default:
		return role, nil
	}
}

func validatePercentage(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return errors.New("enter a number")
	}
	return checkPercentage("value", v)
}

func validateCount(s string, lo, hi int) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("enter a whole number")
	}
	if v < lo || v > hi {
		return fmt.Errorf("must be between %d and %d", lo, hi)
	}
	return nil
}

func checkPercentage(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return fmt.Errorf("%s must be between 0 and 100, got %v", name, v)
	}
	return nil
}

// validateProfile enforces the ranges and categories the form offers.
// The scorer itself accepts any value.
func validateProfile(p advisory.Profile) error {
	var errs []error

	for _, check := range []struct {
		column string
		value  string
	}{
		{encoding.FeatureGender, p.Gender},
		{encoding.FeatureWorkExperience, p.WorkExperience},
	} {
		if !slices.Contains(encoding.Domains[check.column], check.value) {
			errs = append(errs, fmt.Errorf("%s must be one of %s, got %q",
				check.column, strings.Join(encoding.Domains[check.column], ", "), check.value))
		}
	}

	errs = append(errs,
		checkPercentage(encoding.FeatureSSC, p.SSCPercentage),
		checkPercentage(encoding.FeatureHSC, p.HSCPercentage),
		checkPercentage(encoding.FeatureDegree, p.DegreePercentage),
	)

	if p.Internships < 0 || p.Projects < 0 {
		errs = append(errs, errors.New("internships and projects cannot be negative"))
	}
	if p.Confidence < minConfidence || p.Confidence > maxConfidence {
		errs = append(errs, fmt.Errorf("confidence must be between %d and %d, got %d", minConfidence, maxConfidence, p.Confidence))
	}

	return errors.Join(errs...)
}
