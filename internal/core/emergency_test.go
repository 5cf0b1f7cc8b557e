package core

import (
	"testing"

	"intake-agent/pkg"
)

func TestClassifyChestPainWithBreathingIsCritical(t *testing.T) {
	c := NewClassifier()
	level, triggers := c.Classify("I have crushing chest pain and I can't breathe")
	if level != pkg.EmergencyCritical {
		t.Fatalf("level = %s, want CRITICAL", level)
	}
	if len(triggers) != 2 {
		t.Errorf("triggers = %v, want chest_pain and breathing_difficulty", triggers)
	}
}

func TestClassifyChestPainAloneIsNotCritical(t *testing.T) {
	c := NewClassifier()
	level, _ := c.Classify("I've had some chest pain today")
	if level == pkg.EmergencyCritical {
		t.Errorf("chest pain without breathing difficulty classified CRITICAL")
	}
}

func TestClassifyTraumaIsCritical(t *testing.T) {
	c := NewClassifier()
	for _, msg := range []string{
		"my husband passed out a minute ago",
		"the cut won't stop bleeding",
		"I think she's having a seizure",
	} {
		if level, _ := c.Classify(msg); level != pkg.EmergencyCritical {
			t.Errorf("%q: level = %s, want CRITICAL", msg, level)
		}
	}
}

func TestClassifySevereScaleIsHigh(t *testing.T) {
	c := NewClassifier()
	level, triggers := c.Classify("the pain is 9 out of 10")
	if level != pkg.EmergencyHigh {
		t.Fatalf("level = %s, want HIGH", level)
	}
	if len(triggers) != 1 || triggers[0] != "severe_pain_scale" {
		t.Errorf("triggers = %v", triggers)
	}
}

func TestClassifyDescriptiveSevereIsModerate(t *testing.T) {
	// "severe" maps to ordinal 7, which stays below the HIGH cutoff of 8.
	c := NewClassifier()
	level, _ := c.Classify("I have a severe headache since this morning")
	if level != pkg.EmergencyModerate {
		t.Errorf("level = %s, want MODERATE", level)
	}
}

func TestClassifyFeverWithConfusionIsHigh(t *testing.T) {
	c := NewClassifier()
	level, _ := c.Classify("she has a high fever and seems really confused")
	if level != pkg.EmergencyHigh {
		t.Errorf("level = %s, want HIGH", level)
	}
}

func TestClassifyWorstPainWithNeuroIsHigh(t *testing.T) {
	c := NewClassifier()
	level, _ := c.Classify("worst headache of my life and I have blurred vision")
	if level != pkg.EmergencyHigh {
		t.Errorf("level = %s, want HIGH", level)
	}
}

func TestClassifyPersistentSymptomIsModerate(t *testing.T) {
	c := NewClassifier()
	level, _ := c.Classify("this cough has been going on for days now and won't go away")
	if level != pkg.EmergencyModerate {
		t.Errorf("level = %s, want MODERATE", level)
	}
}

func TestClassifySymptomLanguageIsLow(t *testing.T) {
	c := NewClassifier()
	level, _ := c.Classify("my knee hurts a little")
	if level != pkg.EmergencyLow {
		t.Errorf("level = %s, want LOW", level)
	}
}

func TestClassifyNeutralIsNone(t *testing.T) {
	c := NewClassifier()
	for _, msg := range []string{"", "   ", "hello there", "I'm 35 years old"} {
		if level, _ := c.Classify(msg); level != pkg.EmergencyNone {
			t.Errorf("%q: level = %s, want NONE", msg, level)
		}
	}
}

func TestMaxLevelIsMonotone(t *testing.T) {
	if got := pkg.MaxLevel(pkg.EmergencyModerate, pkg.EmergencyLow); got != pkg.EmergencyModerate {
		t.Errorf("MaxLevel(MODERATE, LOW) = %s", got)
	}
	if got := pkg.MaxLevel(pkg.EmergencyNone, pkg.EmergencyCritical); got != pkg.EmergencyCritical {
		t.Errorf("MaxLevel(NONE, CRITICAL) = %s", got)
	}
}
