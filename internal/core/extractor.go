package core

import (
	"regexp"
	"strconv"
	"strings"

	"intake-agent/pkg"
)

// Candidate is one proposed field update produced by the extractor.
type Candidate struct {
	Field      pkg.Field
	Value      string
	Confidence float64
}

// Confidence tiers. A numeric severity scale is the strongest signal the
// extractor ever emits; heuristic matches sit at the bottom so a later,
// clearer answer can replace them.
const (
	confScale       = 0.9
	confKeyword     = 0.7
	confDescriptive = 0.7
	confHeuristic   = 0.5
)

// StallThreshold is the number of consecutive zero-acceptance turns after
// which extraction is skipped and a closed-form question is forced.
const StallThreshold = 3

var (
	// "8 out of 10", "8/10", "8 of 10", optionally followed by "pain".
	scaleRe = regexp.MustCompile(`\b(\d{1,2})\s*(?:out of|of|/)\s*10\b`)
	// "pain level 8", "rate it an 8", "it's an 8".
	scaleHintRe = regexp.MustCompile(`\b(?:pain level|rate it(?: an?)?|it'?s an?)\s*(\d{1,2})\b`)

	agoRe   = regexp.MustCompile(`\b(?:about\s+)?(?:\d+|a few|a couple of|an?|several|two|three|four|five|six|seven|eight|nine|ten)\s*(?:minute|hour|day|week|month|year)s?\s+ago\b`)
	sinceRe = regexp.MustCompile(`\bsince\s+(?:this\s+)?\w+(?:\s+\w+)?\b`)

	forDurRe = regexp.MustCompile(`\bfor\s+(?:about\s+)?(?:\d+|a|an|a few|a couple of|several)\s*(?:minute|hour|day|week|month|year)s?\b`)

	aggravatingRe = regexp.MustCompile(`\b(?:worse|aggravated|triggered|flares? up)\s+(?:when|whenever|after|with|by|if)\s+([a-z' ]+?)(?:[,.;]|$)`)
	relievingRe   = regexp.MustCompile(`\b(?:better|relieved|eases?|improves?|helps?)\s+(?:when|whenever|after|with|by|if)\s+([a-z' ]+?)(?:[,.;]|$)`)
	radiatingRe   = regexp.MustCompile(`\b(?:radiates?|spreads?|shoots?|travels?)\s+(?:to|down|up|into|across)\s+(?:my\s+|the\s+)?([a-z ]+?)(?:[,.;]|$)`)

	ageRe = regexp.MustCompile(`\b(\d{1,3})\s*(?:years?\s*old|y/?o)\b`)

	locationQualifierRe = regexp.MustCompile(`\b(left|right|upper|lower)\s+(?:side of (?:my|the)\s+)?([a-z]+)\b`)
)

// onsetPhrases are points in time a symptom began.
var onsetPhrases = []string{
	"this morning", "this afternoon", "this evening", "last night",
	"yesterday", "earlier today", "just now", "suddenly", "out of nowhere",
	"gradually",
}

// durationPhrases describe how long a symptom lasts, not when it began.
var durationPhrases = []string{
	"constant", "constantly", "comes and goes", "on and off",
	"all day", "all night", "nonstop", "a few minutes at a time",
}

var characterTerms = []string{
	"sharp", "dull", "throbbing", "burning", "stabbing", "aching",
	"cramping", "tingling", "squeezing", "pounding", "shooting",
	"pins and needles", "pressure", "tight",
}

// anatomicalTerms matched on word boundaries so "headache" does not yield
// a "head" location.
var anatomicalTerms = []string{
	"head", "chest", "stomach", "abdomen", "belly", "back", "neck",
	"throat", "shoulder", "arm", "elbow", "wrist", "hand", "hip", "leg",
	"knee", "ankle", "foot", "ear", "eye", "jaw", "side", "ribs", "groin",
	"temple", "forehead",
}

var timingPhrases = []string{
	"at night", "in the morning", "in the evening", "after meals",
	"after eating", "when i wake up", "before bed", "every few hours",
	"comes in waves", "intermittent", "worse at night", "during the day",
	"after exercise",
}

// severityWords map descriptive terms to the value stored in the record.
// The ordinal mapping used by the emergency classifier lives in
// severityOrdinal below.
var severityWords = []string{
	"excruciating", "unbearable", "agonizing", "severe", "intense",
	"moderate", "mild", "slight", "manageable",
}

// functionalImpactPhrases contribute to severity only when no explicit
// scale or descriptive term is present.
var functionalImpactPhrases = []string{
	"can't work", "cannot work", "can't sleep", "cannot sleep",
	"can't function", "cannot function", "can't walk", "cannot walk",
	"keeps me up at night", "limits my activity",
}

// complaintTerms seed the session's primary complaint. Ordered so compound
// terms match before their substrings.
var complaintTerms = []string{
	"chest pain", "abdominal pain", "stomach pain", "back pain",
	"sore throat", "shortness of breath", "headache", "migraine",
	"dizziness", "nausea", "vomiting", "fever", "cough", "rash",
	"fatigue", "pain", "cramps", "swelling",
}

// Extractor turns a raw utterance into candidate field updates by running
// the eight field detectors independently. It is stateless; loop-prevention
// counters live on the session.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// Extract runs all detectors against the utterance and returns the ordered
// candidate list: severity first (it feeds emergency classification), then
// the remaining fields in canonical OLDCARTS order. At most one candidate
// per field is emitted.
func (e *Extractor) Extract(utterance string) []Candidate {
	msg := normalize(utterance)
	if msg == "" {
		return nil
	}

	byField := map[pkg.Field]Candidate{}
	add := func(c Candidate) {
		if prev, ok := byField[c.Field]; ok && prev.Confidence >= c.Confidence {
			return
		}
		byField[c.Field] = c
	}

	if c, ok := detectSeverity(msg); ok {
		add(c)
	}
	if c, ok := detectOnset(msg); ok {
		add(c)
	}
	if c, ok := detectLocation(msg); ok {
		add(c)
	}
	if c, ok := detectDuration(msg); ok {
		add(c)
	}
	if c, ok := detectCharacter(msg); ok {
		add(c)
	}
	if c, ok := detectAggravating(msg); ok {
		add(c)
	}
	if c, ok := detectRadiatingRelieving(msg); ok {
		add(c)
	}
	if c, ok := detectTiming(msg); ok {
		add(c)
	}

	out := make([]Candidate, 0, len(byField))
	if c, ok := byField[pkg.FieldSeverity]; ok {
		out = append(out, c)
	}
	for _, f := range pkg.Fields {
		if f == pkg.FieldSeverity {
			continue
		}
		if c, ok := byField[f]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Metadata holds contextual values captured alongside OLDCARTS slots.
type Metadata struct {
	Age              string
	BiologicalSex    string
	PrimaryComplaint string
}

// ExtractMetadata captures age, biological sex and the primary complaint.
// These are session context, not OLDCARTS slots, and never count toward
// completion.
func (e *Extractor) ExtractMetadata(utterance string) Metadata {
	msg := normalize(utterance)
	var m Metadata
	if match := ageRe.FindStringSubmatch(msg); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil && n >= 1 && n <= 120 {
			m.Age = match[1]
		}
	}
	switch {
	case hasWord(msg, "male") && !hasWord(msg, "female"):
		m.BiologicalSex = "male"
	case hasWord(msg, "female"):
		m.BiologicalSex = "female"
	}
	for _, term := range complaintTerms {
		if strings.Contains(msg, term) {
			m.PrimaryComplaint = term
			break
		}
	}
	return m
}

func detectSeverity(msg string) (Candidate, bool) {
	// A numeric scale always wins over descriptive terms.
	if match := scaleRe.FindStringSubmatch(msg); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil && n >= 0 && n <= 10 {
			return Candidate{pkg.FieldSeverity, match[1] + "/10", confScale}, true
		}
	}
	if match := scaleHintRe.FindStringSubmatch(msg); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil && n >= 0 && n <= 10 {
			return Candidate{pkg.FieldSeverity, match[1] + "/10", confScale}, true
		}
	}
	for _, w := range severityWords {
		if strings.Contains(msg, w) {
			return Candidate{pkg.FieldSeverity, w, confDescriptive}, true
		}
	}
	for _, p := range functionalImpactPhrases {
		if strings.Contains(msg, p) {
			return Candidate{pkg.FieldSeverity, p, confHeuristic}, true
		}
	}
	return Candidate{}, false
}

func detectOnset(msg string) (Candidate, bool) {
	if loc := agoRe.FindString(msg); loc != "" {
		return Candidate{pkg.FieldOnset, loc, confKeyword}, true
	}
	for _, p := range onsetPhrases {
		if strings.Contains(msg, p) {
			// "started this morning" is onset; a bare "in the morning"
			// belongs to timing and is not in this list.
			return Candidate{pkg.FieldOnset, p, confKeyword}, true
		}
	}
	if loc := sinceRe.FindString(msg); loc != "" {
		return Candidate{pkg.FieldOnset, loc, confHeuristic}, true
	}
	return Candidate{}, false
}

func detectLocation(msg string) (Candidate, bool) {
	if match := locationQualifierRe.FindStringSubmatch(msg); match != nil {
		for _, term := range anatomicalTerms {
			if match[2] == term {
				return Candidate{pkg.FieldLocation, match[1] + " " + term, confKeyword}, true
			}
		}
	}
	for _, term := range anatomicalTerms {
		if hasWord(msg, term) {
			return Candidate{pkg.FieldLocation, term, confHeuristic}, true
		}
	}
	return Candidate{}, false
}

func detectDuration(msg string) (Candidate, bool) {
	for _, p := range durationPhrases {
		if strings.Contains(msg, p) {
			return Candidate{pkg.FieldDuration, p, confKeyword}, true
		}
	}
	if loc := forDurRe.FindString(msg); loc != "" {
		return Candidate{pkg.FieldDuration, loc, confKeyword}, true
	}
	return Candidate{}, false
}

func detectCharacter(msg string) (Candidate, bool) {
	for _, term := range characterTerms {
		if hasWord(msg, term) {
			return Candidate{pkg.FieldCharacter, term, confKeyword}, true
		}
	}
	return Candidate{}, false
}

func detectAggravating(msg string) (Candidate, bool) {
	if match := aggravatingRe.FindStringSubmatch(msg); match != nil {
		return Candidate{pkg.FieldAggravating, "worse with " + strings.TrimSpace(match[1]), confKeyword}, true
	}
	if strings.Contains(msg, "makes it worse") || strings.Contains(msg, "making it worse") {
		return Candidate{pkg.FieldAggravating, "reported aggravating factor", confHeuristic}, true
	}
	return Candidate{}, false
}

func detectRadiatingRelieving(msg string) (Candidate, bool) {
	if match := radiatingRe.FindStringSubmatch(msg); match != nil {
		return Candidate{pkg.FieldRadiating, "radiates to " + strings.TrimSpace(match[1]), confKeyword}, true
	}
	if match := relievingRe.FindStringSubmatch(msg); match != nil {
		return Candidate{pkg.FieldRadiating, "relieved by " + strings.TrimSpace(match[1]), confKeyword}, true
	}
	if strings.Contains(msg, "nothing helps") || strings.Contains(msg, "nothing makes it better") {
		return Candidate{pkg.FieldRadiating, "nothing relieves it", confKeyword}, true
	}
	return Candidate{}, false
}

func detectTiming(msg string) (Candidate, bool) {
	for _, p := range timingPhrases {
		if strings.Contains(msg, p) {
			return Candidate{pkg.FieldTiming, p, confKeyword}, true
		}
	}
	return Candidate{}, false
}

// severityOrdinal maps a stored severity value to the 0-10 scale used by
// the emergency classifier. Unknown values map to 0.
func severityOrdinal(value string) int {
	if i := strings.IndexByte(value, '/'); i > 0 {
		if n, err := strconv.Atoi(value[:i]); err == nil {
			return n
		}
	}
	switch {
	case strings.Contains(value, "excruciating"),
		strings.Contains(value, "unbearable"),
		strings.Contains(value, "agonizing"):
		return 9
	case strings.Contains(value, "severe"), strings.Contains(value, "intense"):
		return 7
	case strings.Contains(value, "moderate"):
		return 5
	case strings.Contains(value, "mild"),
		strings.Contains(value, "slight"),
		strings.Contains(value, "manageable"):
		return 2
	}
	for _, p := range functionalImpactPhrases {
		if strings.Contains(value, p) {
			return 6
		}
	}
	return 0
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func hasWord(msg, word string) bool {
	idx := 0
	for {
		i := strings.Index(msg[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(msg[start-1])
		afterOK := end == len(msg) || !isWordChar(msg[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
