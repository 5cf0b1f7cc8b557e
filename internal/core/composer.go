package core

import (
	"fmt"
	"strings"

	"intake-agent/pkg"
)

// Directive is what the orchestrator asks the language model to say. Suffix
// is deterministic text appended verbatim after the generated prose, so the
// parts that matter clinically never depend on the model.
type Directive struct {
	Instruction string
	Suffix      string
}

// Composer renders directives for each conversational outcome.
type Composer struct{}

func NewComposer() *Composer { return &Composer{} }

func (c *Composer) Greeting() Directive {
	return Directive{Instruction: greetingPrompt}
}

func (c *Composer) Question(text string) Directive {
	return Directive{Instruction: fmt.Sprintf(questionPrompt, text)}
}

// Completion pairs the model's sign-off with a structured summary of the
// collected record, a completeness tier, and the non-diagnosis disclaimer.
func (c *Composer) Completion(s *pkg.Session) Directive {
	return Directive{
		Instruction: completionPrompt,
		Suffix:      summaryBlock(s) + "\n\n" + disclaimer,
	}
}

// Emergency pairs the model's prose with a fixed safety action determined
// by the session's emergency level.
func (c *Composer) Emergency(level pkg.EmergencyLevel) Directive {
	action := highAction
	if level == pkg.EmergencyCritical {
		action = criticalAction
	}
	return Directive{Instruction: emergencyPrompt, Suffix: action}
}

// fieldLabels are the human-readable names used in the summary block.
var fieldLabels = map[pkg.Field]string{
	pkg.FieldOnset:       "Onset",
	pkg.FieldLocation:    "Location",
	pkg.FieldDuration:    "Duration",
	pkg.FieldCharacter:   "Character",
	pkg.FieldAggravating: "Aggravating factors",
	pkg.FieldRadiating:   "Radiating / relieving",
	pkg.FieldTiming:      "Timing",
	pkg.FieldSeverity:    "Severity",
}

func summaryBlock(s *pkg.Session) string {
	var b strings.Builder
	b.WriteString("Summary of what you shared")
	if s.PrimaryComplaint != "" {
		fmt.Fprintf(&b, " about your %s", s.PrimaryComplaint)
	}
	b.WriteString(" (")
	b.WriteString(completionTier(s.Record.Completion()))
	b.WriteString("):\n")
	for _, f := range pkg.Fields {
		slot, ok := s.Record.Get(f)
		value := "not provided"
		if ok {
			value = slot.Value
		}
		fmt.Fprintf(&b, "- %s: %s\n", fieldLabels[f], value)
	}
	return strings.TrimRight(b.String(), "\n")
}

// completionTier labels how thorough the interview was, mirroring the
// thresholds used for session completion scoring.
func completionTier(completion float64) string {
	pct := completion * 100
	switch {
	case pct >= 90:
		return "comprehensive"
	case pct >= 70:
		return "adequate"
	case pct >= 50:
		return "partial"
	default:
		return "minimal"
	}
}
