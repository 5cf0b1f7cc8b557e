package pkg

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Field identifies one of the eight OLDCARTS symptom-history slots.
type Field string

const (
	FieldOnset       Field = "onset"
	FieldLocation    Field = "location"
	FieldDuration    Field = "duration"
	FieldCharacter   Field = "character"
	FieldAggravating Field = "aggravating_factors"
	FieldRadiating   Field = "radiating_relieving"
	FieldTiming      Field = "timing"
	FieldSeverity    Field = "severity"
)

// Fields lists the OLDCARTS slots in canonical order.
var Fields = []Field{
	FieldOnset, FieldLocation, FieldDuration, FieldCharacter,
	FieldAggravating, FieldRadiating, FieldTiming, FieldSeverity,
}

// Slot holds a single extracted value together with how confident the
// extractor was and the turn at which the value was accepted.
type Slot struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	SetAtTurn  int     `json:"set_at_turn"`
}

// Record is the OLDCARTS record for one session. Empty slots are absent
// from the map.
type Record struct {
	Slots map[Field]Slot `json:"slots"`
}

func NewRecord() Record {
	return Record{Slots: make(map[Field]Slot)}
}

// Apply stores a candidate value under the overwrite invariant: a filled
// slot is replaced only when the new confidence strictly exceeds the stored
// confidence. It reports whether the value was accepted.
func (r *Record) Apply(f Field, value string, confidence float64, turn int) bool {
	if r.Slots == nil {
		r.Slots = make(map[Field]Slot)
	}
	if existing, ok := r.Slots[f]; ok && confidence <= existing.Confidence {
		return false
	}
	r.Slots[f] = Slot{Value: value, Confidence: confidence, SetAtTurn: turn}
	return true
}

func (r Record) Get(f Field) (Slot, bool) {
	s, ok := r.Slots[f]
	return s, ok
}

func (r Record) Filled(f Field) bool {
	_, ok := r.Slots[f]
	return ok
}

func (r Record) FilledCount() int { return len(r.Slots) }

// Completion returns filled-slot-count / 8, recomputed on every call.
func (r Record) Completion() float64 {
	return float64(len(r.Slots)) / float64(len(Fields))
}

// Progress reports, per field, whether the slot is filled.
func (r Record) Progress() map[Field]bool {
	p := make(map[Field]bool, len(Fields))
	for _, f := range Fields {
		p[f] = r.Filled(f)
	}
	return p
}

func (r Record) Clone() Record {
	c := NewRecord()
	for f, s := range r.Slots {
		c.Slots[f] = s
	}
	return c
}

// EmergencyLevel is the ordinal urgency classification of a session.
type EmergencyLevel string

const (
	EmergencyNone     EmergencyLevel = "NONE"
	EmergencyLow      EmergencyLevel = "LOW"
	EmergencyModerate EmergencyLevel = "MODERATE"
	EmergencyHigh     EmergencyLevel = "HIGH"
	EmergencyCritical EmergencyLevel = "CRITICAL"
)

var emergencyRank = map[EmergencyLevel]int{
	EmergencyNone:     0,
	EmergencyLow:      1,
	EmergencyModerate: 2,
	EmergencyHigh:     3,
	EmergencyCritical: 4,
}

func (l EmergencyLevel) Rank() int { return emergencyRank[l] }

// MaxLevel implements the monotonic merge rule: a session's emergency level
// never decreases once observed.
func MaxLevel(a, b EmergencyLevel) EmergencyLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Assessment is the outcome of one emergency classification pass.
type Assessment struct {
	Level        EmergencyLevel `json:"level"`
	Triggers     []string       `json:"triggers"`
	TurnDetected int            `json:"turn_detected"`
}

// State is the orchestrator state persisted between turns.
type State string

const (
	StateInit          State = "INIT"
	StateGreeting      State = "GREETING"
	StateAwaitUser     State = "AWAIT_USER"
	StateProcessing    State = "PROCESSING"
	StateEmergencyEnd  State = "EMERGENCY_END"
	StateCompletionEnd State = "COMPLETION_END"
)

// Turn is the immutable audit record of one user-message/agent-reply
// exchange, including a snapshot of the record as it stood after the turn.
type Turn struct {
	Index          int    `json:"turn_index"`
	UserText       string `json:"user_text"`
	AgentAction    string `json:"agent_action"`
	DirectiveText  string `json:"directive_text"`
	RecordSnapshot Record `json:"record_snapshot"`
}

// Session is one patient intake conversation. It is mutated only by the
// orchestrator, once per turn, and committed as a whole.
type Session struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	TurnCount         int            `json:"turn_count"`
	Record            Record         `json:"record"`
	EmergencyLevel    EmergencyLevel `json:"emergency_level"`
	EmergencyTriggers []string       `json:"emergency_triggers,omitempty"`
	EmergencyTurn     int            `json:"emergency_turn,omitempty"`
	State             State          `json:"state"`
	History           []Turn         `json:"history"`

	// Contextual metadata, not OLDCARTS slots.
	PrimaryComplaint string `json:"primary_complaint,omitempty"`
	Age              string `json:"age,omitempty"`
	BiologicalSex    string `json:"biological_sex,omitempty"`

	// Consecutive turns with zero accepted candidates, for loop prevention.
	NoProgressTurns int `json:"no_progress_turns"`
	// Question attempt counts per field, drives retry phrasing.
	Attempts map[Field]int `json:"attempts,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Version is the optimistic-concurrency token managed by the store.
	Version int `json:"-"`
}

func NewSession(userID string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		Record:         NewRecord(),
		EmergencyLevel: EmergencyNone,
		State:          StateInit,
		Attempts:       make(map[Field]int),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Ended reports whether the session is in an absorbing terminal state.
func (s *Session) Ended() bool {
	return s.State == StateEmergencyEnd || s.State == StateCompletionEnd
}

// Touch stamps the session as modified.
func (s *Session) Touch() { s.UpdatedAt = time.Now().UTC() }

// Clone deep-copies the session so a turn can be staged and swapped in as a
// single unit at commit time.
func (s *Session) Clone() *Session {
	c := *s
	c.Record = s.Record.Clone()
	c.History = append([]Turn(nil), s.History...)
	c.EmergencyTriggers = append([]string(nil), s.EmergencyTriggers...)
	c.Attempts = make(map[Field]int, len(s.Attempts))
	for f, n := range s.Attempts {
		c.Attempts[f] = n
	}
	return &c
}

// Store-level errors shared by the Postgres and in-memory implementations.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConflict        = errors.New("session version conflict")
)

// TurnRequest is the conversation-turn request contract.
type TurnRequest struct {
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
}

// TurnResponse is returned to the caller after each turn.
type TurnResponse struct {
	SessionID            string         `json:"session_id"`
	ReplyText            string         `json:"reply_text"`
	OldcartsProgress     map[Field]bool `json:"oldcarts_progress"`
	CompletionPercentage float64        `json:"completion_percentage"`
	EmergencyLevel       EmergencyLevel `json:"emergency_level"`
	Ended                bool           `json:"ended"`
}

// SessionStatus is the read-only session query response.
type SessionStatus struct {
	SessionID            string         `json:"session_id"`
	Record               Record         `json:"record"`
	EmergencyLevel       EmergencyLevel `json:"emergency_level"`
	CompletionPercentage float64        `json:"completion_percentage"`
	TurnCount            int            `json:"turn_count"`
	State                State          `json:"state"`
}

// SessionPreview is one row in the per-user session listing.
type SessionPreview struct {
	SessionID            string         `json:"session_id"`
	State                State          `json:"state"`
	EmergencyLevel       EmergencyLevel `json:"emergency_level"`
	CompletionPercentage float64        `json:"completion_percentage"`
	TurnCount            int            `json:"turn_count"`
	PrimaryComplaint     string         `json:"primary_complaint,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}
