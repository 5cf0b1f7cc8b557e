package core

import (
	"strings"

	"intake-agent/pkg"
)

// symptom classes used by the emergency rules. Each class is a set of
// phrases; matching any phrase puts the utterance in the class.
var (
	chestPainClass = []string{
		"chest pain", "pain in my chest", "chest pressure", "chest tightness",
		"crushing chest", "tightness in my chest", "pressure in my chest",
	}
	breathingClass = []string{
		"can't breathe", "cannot breathe", "difficulty breathing",
		"trouble breathing", "short of breath", "shortness of breath",
		"struggling to breathe", "gasping",
	}
	traumaClass = []string{
		"loss of consciousness", "lost consciousness", "passed out",
		"unconscious", "severe bleeding", "bleeding heavily",
		"won't stop bleeding", "head injury", "hit my head hard",
		"seizure", "stroke",
	}
	highFeverClass = []string{
		"high fever", "fever of 103", "fever of 104", "fever of 105",
		"burning up",
	}
	confusionClass = []string{
		"confused", "confusion", "disoriented", "can't think straight",
		"not making sense",
	}
	worstPainClass = []string{
		"worst pain of my life", "worst headache of my life",
		"worst pain i've ever", "worst pain ever",
	}
	neuroClass = []string{
		"numbness", "numb", "vision loss", "blurred vision", "double vision",
		"slurred speech", "can't speak", "weakness on one side",
		"face drooping", "tingling down my arm",
	}
	persistenceClass = []string{
		"for days", "for several days", "for a week", "for weeks",
		"days now", "won't go away", "not going away", "keeps getting worse",
	}
	symptomClass = []string{
		"pain", "ache", "hurts", "hurt", "sore", "nausea", "nauseous",
		"dizzy", "dizziness", "fever", "cough", "vomit", "rash", "swelling",
		"bleeding", "cramp", "headache", "migraine", "fatigue", "tired",
		"burning", "itching", "chills",
	}
)

// Classifier assigns an emergency level to a single utterance by checking
// rules top-down from CRITICAL to LOW and stopping at the first match.
// Level monotonicity across turns is enforced by the caller via
// pkg.MaxLevel, never here.
type Classifier struct{}

func NewClassifier() *Classifier { return &Classifier{} }

// Classify returns the level for this utterance plus the pattern IDs that
// fired. An empty utterance is NONE.
func (c *Classifier) Classify(utterance string) (pkg.EmergencyLevel, []string) {
	msg := normalize(utterance)
	if msg == "" {
		return pkg.EmergencyNone, nil
	}

	chest := matchClass(msg, chestPainClass)
	breathing := matchClass(msg, breathingClass)
	if chest && breathing {
		return pkg.EmergencyCritical, []string{"chest_pain", "breathing_difficulty"}
	}
	if matchClass(msg, traumaClass) {
		return pkg.EmergencyCritical, []string{"trauma"}
	}

	ord := severityOrdinalFromUtterance(msg)
	if ord >= 8 {
		return pkg.EmergencyHigh, []string{"severe_pain_scale"}
	}
	if matchClass(msg, highFeverClass) && matchClass(msg, confusionClass) {
		return pkg.EmergencyHigh, []string{"high_fever", "confusion"}
	}
	if matchClass(msg, worstPainClass) && matchClassWord(msg, neuroClass) {
		return pkg.EmergencyHigh, []string{"worst_pain", "neurological"}
	}

	if ord >= 5 && ord <= 7 {
		return pkg.EmergencyModerate, []string{"moderate_pain_scale"}
	}
	if matchClass(msg, persistenceClass) && matchClassWord(msg, symptomClass) {
		return pkg.EmergencyModerate, []string{"persistent_symptom"}
	}

	if matchClassWord(msg, symptomClass) || chest || breathing {
		return pkg.EmergencyLow, []string{"symptom_language"}
	}
	return pkg.EmergencyNone, nil
}

// severityOrdinalFromUtterance reuses the extractor's severity detection so
// the classifier and the record agree on what the patient reported.
func severityOrdinalFromUtterance(msg string) int {
	if c, ok := detectSeverity(msg); ok {
		return severityOrdinal(c.Value)
	}
	return 0
}

func matchClass(msg string, class []string) bool {
	for _, p := range class {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// matchClassWord is matchClass with word-boundary matching for short terms
// that would otherwise match inside longer words.
func matchClassWord(msg string, class []string) bool {
	for _, p := range class {
		if strings.ContainsRune(p, ' ') {
			if strings.Contains(msg, p) {
				return true
			}
			continue
		}
		if hasWord(msg, p) {
			return true
		}
	}
	return false
}
