package domain

import "strings"

// OptionsPerQuestion is the fixed option count of every question.
const OptionsPerQuestion = 4

// ValidateOptions enforces the question invariant on every create and edit path:
// exactly four non-empty options with exactly one flagged correct.
func ValidateOptions(options []Option) error {
	if len(options) != OptionsPerQuestion {
		return Invalidf("Must provide exactly %d options", OptionsPerQuestion)
	}
	correct := 0
	for i, opt := range options {
		if strings.TrimSpace(opt.Text) == "" {
			return Invalidf("option %d text is required", i)
		}
		if opt.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return Invalidf("Exactly one option must be marked as correct")
	}
	return nil
}

// ValidateHierarchy checks the type/parent combination of a test.
func ValidateHierarchy(t TestType, parentIDs []string) error {
	switch t {
	case TestTypeMain:
		if len(parentIDs) > 0 {
			return Invalidf("Main tests cannot have parentTestIds")
		}
	case TestTypeSub:
		if len(parentIDs) == 0 {
			return Invalidf("At least one parentTestId is required for sub tests")
		}
	default:
		return Invalidf("unknown test type %q", t)
	}
	return nil
}
