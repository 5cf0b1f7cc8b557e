package core

import (
	"fmt"
	"strings"

	"intake-agent/pkg"
)

// askOrder is the fixed priority for which missing field to pursue next.
// Severity leads because it drives emergency classification.
var askOrder = []pkg.Field{
	pkg.FieldSeverity,
	pkg.FieldOnset,
	pkg.FieldLocation,
	pkg.FieldCharacter,
	pkg.FieldDuration,
	pkg.FieldAggravating,
	pkg.FieldRadiating,
	pkg.FieldTiming,
}

// questionTemplates holds, per field, the phrasings used as the patient
// fails to answer: index 0 is the direct ask, 1 adds an example, 2 is a
// closed-form choice. Templates with %s interpolate the primary complaint.
var questionTemplates = map[pkg.Field][3]string{
	pkg.FieldSeverity: {
		"On a scale of 0 to 10, how bad is the %s right now?",
		"How intense is the %s? For example, a 3 might be annoying but ignorable, while an 8 stops you from doing things.",
		"Would you call the %s mild, moderate, or severe?",
	},
	pkg.FieldOnset: {
		"When did the %s first start?",
		"When did you first notice the %s? For example, this morning, a few days ago, or last week?",
		"Did the %s start today, in the past few days, or longer ago?",
	},
	pkg.FieldLocation: {
		"Where exactly do you feel the %s?",
		"Can you point to where the %s is? For example, the left side, the upper part, or all over?",
		"Is the %s on the left, the right, or in the middle?",
	},
	pkg.FieldCharacter: {
		"How would you describe the %s?",
		"What does the %s feel like? For example, sharp, dull, throbbing, or burning?",
		"Is the %s more sharp, dull, or throbbing?",
	},
	pkg.FieldDuration: {
		"Is the %s constant, or does it come and go?",
		"How long does the %s last when it happens? For example, a few minutes, hours, or all day?",
		"Is the %s there all the time, or only some of the time?",
	},
	pkg.FieldAggravating: {
		"Does anything make the %s worse?",
		"Have you noticed anything that makes the %s worse? For example, moving, eating, or stress?",
		"Is the %s worse with movement, with eating, or neither?",
	},
	pkg.FieldRadiating: {
		"Does the %s spread anywhere, and does anything make it better?",
		"Does the %s move or radiate to other areas? And does anything relieve it, like rest or medication?",
		"Does the %s stay in one place, or does it spread? Does rest or medication help?",
	},
	pkg.FieldTiming: {
		"Is there a particular time of day when the %s is worse?",
		"When does the %s tend to happen? For example, at night, in the morning, or after meals?",
		"Is the %s worse in the morning, at night, or no particular time?",
	},
}

// QuestionPlanner selects the next field to ask about and the phrasing for
// it, escalating from direct to example to closed-form as attempts on the
// same field accumulate.
type QuestionPlanner struct{}

func NewQuestionPlanner() *QuestionPlanner { return &QuestionPlanner{} }

// NextField returns the highest-priority unfilled field, or false when the
// record is complete.
func (q *QuestionPlanner) NextField(rec *pkg.Record) (pkg.Field, bool) {
	for _, f := range askOrder {
		if !rec.Filled(f) {
			return f, true
		}
	}
	return "", false
}

// Question renders the ask for a field. attempts is how many times this
// field has already been asked; forceClosed jumps straight to the
// closed-form phrasing regardless of attempts.
func (q *QuestionPlanner) Question(field pkg.Field, complaint string, attempts int, forceClosed bool) string {
	tmpls := questionTemplates[field]
	idx := attempts
	if idx > 2 {
		idx = 2
	}
	if forceClosed {
		idx = 2
	}
	subject := complaint
	if subject == "" {
		subject = "symptom"
	}
	t := tmpls[idx]
	if strings.Contains(t, "%s") {
		return fmt.Sprintf(t, subject)
	}
	return t
}
