package core

import (
	"strings"
	"testing"

	"intake-agent/pkg"
)

func TestNextFieldFollowsPriority(t *testing.T) {
	q := NewQuestionPlanner()
	rec := pkg.NewRecord()

	f, ok := q.NextField(&rec)
	if !ok || f != pkg.FieldSeverity {
		t.Fatalf("empty record: next = %s, want severity", f)
	}

	rec.Apply(pkg.FieldSeverity, "6/10", 0.9, 1)
	if f, _ := q.NextField(&rec); f != pkg.FieldOnset {
		t.Errorf("after severity: next = %s, want onset", f)
	}

	rec.Apply(pkg.FieldOnset, "yesterday", 0.7, 2)
	rec.Apply(pkg.FieldLocation, "chest", 0.7, 2)
	if f, _ := q.NextField(&rec); f != pkg.FieldCharacter {
		t.Errorf("after onset+location: next = %s, want character", f)
	}
}

func TestNextFieldOnFullRecord(t *testing.T) {
	q := NewQuestionPlanner()
	rec := pkg.NewRecord()
	for _, f := range pkg.Fields {
		rec.Apply(f, "x", 0.7, 1)
	}
	if _, ok := q.NextField(&rec); ok {
		t.Error("full record still produced a next field")
	}
}

func TestQuestionEscalatesWithAttempts(t *testing.T) {
	q := NewQuestionPlanner()

	direct := q.Question(pkg.FieldSeverity, "headache", 0, false)
	if !strings.Contains(direct, "scale of 0 to 10") {
		t.Errorf("attempt 0 not the direct ask: %q", direct)
	}

	example := q.Question(pkg.FieldSeverity, "headache", 1, false)
	if !strings.Contains(example, "For example") {
		t.Errorf("attempt 1 has no example: %q", example)
	}

	choice := q.Question(pkg.FieldSeverity, "headache", 2, false)
	if !strings.Contains(choice, "mild, moderate, or severe") {
		t.Errorf("attempt 2 not closed-form: %q", choice)
	}

	// Attempts past the table reuse the closed form.
	if q.Question(pkg.FieldSeverity, "headache", 7, false) != choice {
		t.Error("attempt 7 differs from closed form")
	}
}

func TestQuestionForceClosed(t *testing.T) {
	q := NewQuestionPlanner()
	got := q.Question(pkg.FieldOnset, "back pain", 0, true)
	if !strings.Contains(got, "today, in the past few days, or longer ago") {
		t.Errorf("forced question not closed-form: %q", got)
	}
}

func TestQuestionUsesComplaint(t *testing.T) {
	q := NewQuestionPlanner()
	got := q.Question(pkg.FieldLocation, "stomach pain", 0, false)
	if !strings.Contains(got, "stomach pain") {
		t.Errorf("question does not mention the complaint: %q", got)
	}
	got = q.Question(pkg.FieldLocation, "", 0, false)
	if !strings.Contains(got, "symptom") {
		t.Errorf("question without complaint missing fallback: %q", got)
	}
}
