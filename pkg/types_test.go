package pkg

import "testing"

func TestRecordApplyOverwriteRule(t *testing.T) {
	r := NewRecord()

	if !r.Apply(FieldSeverity, "severe", 0.7, 1) {
		t.Fatal("empty slot rejected")
	}
	if r.Apply(FieldSeverity, "mild", 0.7, 2) {
		t.Error("equal confidence overwrote")
	}
	if !r.Apply(FieldSeverity, "8/10", 0.9, 3) {
		t.Error("higher confidence rejected")
	}
	slot, _ := r.Get(FieldSeverity)
	if slot.Value != "8/10" || slot.SetAtTurn != 3 {
		t.Errorf("slot = %+v", slot)
	}
}

func TestRecordCompletion(t *testing.T) {
	r := NewRecord()
	if r.Completion() != 0 {
		t.Errorf("empty completion = %v", r.Completion())
	}
	r.Apply(FieldOnset, "yesterday", 0.7, 1)
	r.Apply(FieldSeverity, "6/10", 0.9, 1)
	if got := r.Completion(); got != 0.25 {
		t.Errorf("completion = %v, want 0.25", got)
	}
	for _, f := range Fields {
		r.Apply(f, "x", 0.99, 2)
	}
	if r.Completion() != 1 {
		t.Errorf("full completion = %v", r.Completion())
	}
}

func TestRecordCloneIsIndependent(t *testing.T) {
	r := NewRecord()
	r.Apply(FieldLocation, "chest", 0.7, 1)
	c := r.Clone()
	c.Apply(FieldLocation, "left arm", 0.9, 2)

	slot, _ := r.Get(FieldLocation)
	if slot.Value != "chest" {
		t.Errorf("clone mutation leaked: %+v", slot)
	}
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := NewSession("u1")
	s.Record.Apply(FieldSeverity, "6/10", 0.9, 1)
	s.EmergencyTriggers = []string{"chest_pain"}
	s.Attempts[FieldSeverity] = 1

	c := s.Clone()
	c.Record.Apply(FieldSeverity, "9/10", 0.95, 2)
	c.EmergencyTriggers[0] = "trauma"
	c.Attempts[FieldSeverity] = 5
	c.History = append(c.History, Turn{Index: 1})

	if slot, _ := s.Record.Get(FieldSeverity); slot.Value != "6/10" {
		t.Error("record shared between clones")
	}
	if s.EmergencyTriggers[0] != "chest_pain" {
		t.Error("triggers shared between clones")
	}
	if s.Attempts[FieldSeverity] != 1 {
		t.Error("attempts shared between clones")
	}
	if len(s.History) != 0 {
		t.Error("history shared between clones")
	}
}

func TestEmergencyLevelRankOrder(t *testing.T) {
	order := []EmergencyLevel{
		EmergencyNone, EmergencyLow, EmergencyModerate, EmergencyHigh, EmergencyCritical,
	}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%s should outrank %s", order[i], order[i-1])
		}
	}
	if MaxLevel(EmergencyHigh, EmergencyLow) != EmergencyHigh {
		t.Error("MaxLevel picked the lower level")
	}
}

func TestEndedStates(t *testing.T) {
	s := NewSession("u1")
	for _, st := range []State{StateInit, StateGreeting, StateAwaitUser, StateProcessing} {
		s.State = st
		if s.Ended() {
			t.Errorf("%s reported ended", st)
		}
	}
	for _, st := range []State{StateEmergencyEnd, StateCompletionEnd} {
		s.State = st
		if !s.Ended() {
			t.Errorf("%s not reported ended", st)
		}
	}
}
