package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"intake-agent/pkg"
)

var (
	// ErrValidation marks a request missing required input.
	ErrValidation = errors.New("invalid request")
	// ErrConcurrentTurn is returned when a turn arrives for a session that
	// is still processing a previous turn.
	ErrConcurrentTurn = errors.New("a turn is already in progress for this session")
)

// SessionStore persists sessions with optimistic concurrency: Save fails
// with pkg.ErrConflict when the stored version no longer matches.
type SessionStore interface {
	Load(ctx context.Context, id string) (*pkg.Session, error)
	Save(ctx context.Context, s *pkg.Session) error
	ListByUser(ctx context.Context, userID string) ([]pkg.SessionPreview, error)
}

// Generator produces the conversational prose for a directive.
type Generator interface {
	Generate(ctx context.Context, instruction string) (string, error)
}

// Options tune the termination rules. Zero values fall back to the
// defaults below.
type Options struct {
	TurnCap             int
	CompletionThreshold float64
	StallThreshold      int
}

const (
	defaultTurnCap             = 50
	defaultCompletionThreshold = 0.60
)

func (o *Options) fill() {
	if o.TurnCap == 0 {
		o.TurnCap = defaultTurnCap
	}
	if o.CompletionThreshold == 0 {
		o.CompletionThreshold = defaultCompletionThreshold
	}
	if o.StallThreshold == 0 {
		o.StallThreshold = StallThreshold
	}
}

// Orchestrator drives the intake conversation: one ProcessTurn call per
// patient message, staging all state changes on a clone and committing
// them only after a reply has been produced.
type Orchestrator struct {
	store      SessionStore
	gen        Generator
	extractor  *Extractor
	classifier *Classifier
	planner    *QuestionPlanner
	composer   *Composer
	opts       Options
	log        *logrus.Logger

	inflight sync.Map // session ID -> struct{}
}

func NewOrchestrator(store SessionStore, gen Generator, log *logrus.Logger, opts Options) *Orchestrator {
	opts.fill()
	return &Orchestrator{
		store:      store,
		gen:        gen,
		extractor:  NewExtractor(),
		classifier: NewClassifier(),
		planner:    NewQuestionPlanner(),
		composer:   NewComposer(),
		opts:       opts,
		log:        log,
	}
}

// ProcessTurn handles one patient message. An empty SessionID starts a new
// session with a greeting; the message content of that first turn is not
// interpreted. For existing sessions the turn either asks the next
// question, completes the interview, or escalates an emergency. The
// session is saved only if reply generation succeeds, so a failed turn
// leaves no trace.
func (o *Orchestrator) ProcessTurn(ctx context.Context, req pkg.TurnRequest) (*pkg.TurnResponse, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}

	if req.SessionID == "" {
		return o.startSession(ctx, req)
	}

	if _, busy := o.inflight.LoadOrStore(req.SessionID, struct{}{}); busy {
		return nil, ErrConcurrentTurn
	}
	defer o.inflight.Delete(req.SessionID)

	s, err := o.store.Load(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if s.Ended() {
		// Terminal states are absorbing: the stored session is not touched
		// and no model call is made.
		return response(s, ClosureNotice), nil
	}

	staged := s.Clone()
	staged.TurnCount++
	o.captureMetadata(staged, req.Message)

	forceClosed := false
	accepted := 0
	if staged.NoProgressTurns >= o.opts.StallThreshold {
		// The patient has gone several turns without advancing the record.
		// Skip extraction and pin them down with a closed-form question.
		forceClosed = true
		staged.NoProgressTurns = 0
	} else {
		accepted = o.applyExtraction(staged, req.Message)
		if accepted == 0 {
			staged.NoProgressTurns++
		} else {
			staged.NoProgressTurns = 0
		}
	}

	o.applyEmergency(staged, req.Message)

	var (
		directive Directive
		action    string
	)
	switch {
	case staged.EmergencyLevel.Rank() >= pkg.EmergencyHigh.Rank():
		staged.State = pkg.StateEmergencyEnd
		directive = o.composer.Emergency(staged.EmergencyLevel)
		action = "emergency"
	case staged.Record.Completion() >= o.opts.CompletionThreshold || staged.TurnCount >= o.opts.TurnCap:
		staged.State = pkg.StateCompletionEnd
		directive = o.composer.Completion(staged)
		action = "completion"
	default:
		staged.State = pkg.StateAwaitUser
		field, ok := o.planner.NextField(&staged.Record)
		if !ok {
			// All eight fields filled but below threshold cannot happen
			// with an eight-slot record; completion covers it anyway.
			staged.State = pkg.StateCompletionEnd
			directive = o.composer.Completion(staged)
			action = "completion"
			break
		}
		text := o.planner.Question(field, staged.PrimaryComplaint, staged.Attempts[field], forceClosed)
		staged.Attempts[field]++
		directive = o.composer.Question(text)
		action = "question:" + string(field)
	}

	reply, err := o.gen.Generate(ctx, directive.Instruction)
	if err != nil {
		o.log.WithFields(logrus.Fields{
			"session_id": s.ID,
			"turn":       staged.TurnCount,
		}).WithError(err).Error("reply generation failed, turn discarded")
		return nil, err
	}
	if directive.Suffix != "" {
		reply = reply + "\n\n" + directive.Suffix
	}

	staged.History = append(staged.History, pkg.Turn{
		Index:          staged.TurnCount,
		UserText:       req.Message,
		AgentAction:    action,
		DirectiveText:  reply,
		RecordSnapshot: staged.Record.Clone(),
	})
	staged.Touch()

	if err := o.store.Save(ctx, staged); err != nil {
		return nil, err
	}

	o.log.WithFields(logrus.Fields{
		"session_id": staged.ID,
		"turn":       staged.TurnCount,
		"action":     action,
		"accepted":   accepted,
		"emergency":  staged.EmergencyLevel,
		"completion": staged.Record.Completion(),
	}).Info("turn processed")

	return response(staged, reply), nil
}

func (o *Orchestrator) startSession(ctx context.Context, req pkg.TurnRequest) (*pkg.TurnResponse, error) {
	// The opening turn only greets: the message content, if any, is not
	// interpreted until the patient replies to the greeting.
	s := pkg.NewSession(req.UserID)
	s.TurnCount = 1
	s.State = pkg.StateAwaitUser

	directive := o.composer.Greeting()
	reply, err := o.gen.Generate(ctx, directive.Instruction)
	if err != nil {
		// No session is created when the greeting cannot be produced.
		o.log.WithField("user_id", req.UserID).WithError(err).Error("greeting generation failed")
		return nil, err
	}

	s.History = append(s.History, pkg.Turn{
		Index:          1,
		UserText:       req.Message,
		AgentAction:    "greeting",
		DirectiveText:  reply,
		RecordSnapshot: s.Record.Clone(),
	})
	s.Touch()

	if err := o.store.Save(ctx, s); err != nil {
		return nil, err
	}

	o.log.WithFields(logrus.Fields{
		"session_id": s.ID,
		"user_id":    s.UserID,
	}).Info("session started")

	return response(s, reply), nil
}

func (o *Orchestrator) applyExtraction(s *pkg.Session, message string) int {
	accepted := 0
	for _, c := range o.extractor.Extract(message) {
		if s.Record.Apply(c.Field, c.Value, c.Confidence, s.TurnCount) {
			accepted++
		}
	}
	return accepted
}

func (o *Orchestrator) applyEmergency(s *pkg.Session, message string) {
	level, triggers := o.classifier.Classify(message)
	merged := pkg.MaxLevel(s.EmergencyLevel, level)
	if merged.Rank() > s.EmergencyLevel.Rank() {
		s.EmergencyLevel = merged
		s.EmergencyTriggers = triggers
		s.EmergencyTurn = s.TurnCount
	}
}

func (o *Orchestrator) captureMetadata(s *pkg.Session, message string) {
	m := o.extractor.ExtractMetadata(message)
	if s.Age == "" {
		s.Age = m.Age
	}
	if s.BiologicalSex == "" {
		s.BiologicalSex = m.BiologicalSex
	}
	if s.PrimaryComplaint == "" {
		s.PrimaryComplaint = m.PrimaryComplaint
	}
}

// Status reports the current progress of a session.
func (o *Orchestrator) Status(ctx context.Context, sessionID string) (*pkg.SessionStatus, error) {
	s, err := o.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &pkg.SessionStatus{
		SessionID:            s.ID,
		Record:               s.Record.Clone(),
		EmergencyLevel:       s.EmergencyLevel,
		CompletionPercentage: s.Record.Completion() * 100,
		TurnCount:            s.TurnCount,
		State:                s.State,
	}, nil
}

// Summary renders the structured OLDCARTS summary for a session at any
// point in the interview.
func (o *Orchestrator) Summary(ctx context.Context, sessionID string) (string, error) {
	s, err := o.store.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return summaryBlock(s), nil
}

// SessionsForUser lists a user's sessions, newest first.
func (o *Orchestrator) SessionsForUser(ctx context.Context, userID string) ([]pkg.SessionPreview, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	return o.store.ListByUser(ctx, userID)
}

func response(s *pkg.Session, reply string) *pkg.TurnResponse {
	return &pkg.TurnResponse{
		SessionID:            s.ID,
		ReplyText:            reply,
		OldcartsProgress:     s.Record.Progress(),
		CompletionPercentage: s.Record.Completion() * 100,
		EmergencyLevel:       s.EmergencyLevel,
		Ended:                s.Ended(),
	}
}
