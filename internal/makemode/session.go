// Package makemode implements the guided cooking session: step completion
// with catch-up decisions, step timers, and "start later" timer suggestions.
//
// Sessions are in memory only. Closing one (or restarting the server)
// discards its progress.
package makemode

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mmynk/scrtch/internal/models"
)

// Sentinel errors returned by session operations.
var (
	ErrStepOutOfRange  = errors.New("step index out of range")
	ErrNoTimer         = errors.New("step has no timer")
	ErrDecisionPending = errors.New("a catch-up decision is pending")
	ErrNoDecision      = errors.New("no catch-up decision is pending")
	ErrNoSuggestion    = errors.New("no matching timer suggestion")
	ErrSessionClosed   = errors.New("session is closed")
	ErrSessionNotFound = errors.New("session not found")
)

// Outcome is the result of a completion request.
type Outcome int

const (
	// OutcomeCompleted means the step is now complete.
	OutcomeCompleted Outcome = iota
	// OutcomeUndone means the step was complete and is now incomplete again.
	OutcomeUndone
	// OutcomeCatchUp means the step is ahead of the active step and the
	// caller must resolve the pending CatchUp.
	OutcomeCatchUp
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeUndone:
		return "undone"
	case OutcomeCatchUp:
		return "catch_up"
	default:
		return "unknown"
	}
}

// Resolution answers a catch-up decision.
type Resolution int

const (
	// CatchUpOnlyThis completes only the target step ("I prepped ahead").
	CatchUpOnlyThis Resolution = iota
	// CatchUpAll completes every step up to and including the target.
	CatchUpAll
)

// CatchUp is a pending decision raised by completing a step ahead of the
// active one.
type CatchUp struct {
	Target int
	Active int
}

// RunningTimer is a started step timer. Key is (StepIndex, Label).
type RunningTimer struct {
	StepIndex int
	Label     string
	EndTime   time.Time
}

// Remaining is the whole seconds left at now, never negative.
func (t RunningTimer) Remaining(now time.Time) int {
	d := t.EndTime.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// SuggestedTimer is a "start later" timer offered after a countdown starts.
type SuggestedTimer struct {
	StepIndex int
	Label     string
	Seconds   int
}

// Suggestion offers to start "in" timers now, raised by starting the
// countdown labelled BaseLabel.
type Suggestion struct {
	BaseLabel string
	Items     []SuggestedTimer
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the wall clock read on every tick.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		s.clock = clock
	}
}

// WithTickInterval sets how often Run refreshes the session clock.
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) {
		s.tickInterval = d
	}
}

// Session is one guided cooking run through a recipe.
// All methods are safe for concurrent use.
type Session struct {
	recipe       models.Recipe
	clock        func() time.Time
	tickInterval time.Duration

	mu         sync.Mutex
	completed  map[int]struct{}
	timers     []RunningTimer
	catchUp    *CatchUp
	suggestion *Suggestion
	now        time.Time
	closed     bool
	cancel     context.CancelFunc
}

// NewSession starts a session over a copy of recipe.
func NewSession(recipe models.Recipe, opts ...Option) *Session {
	s := &Session{
		recipe:       recipe.Clone(),
		clock:        time.Now,
		tickInterval: time.Second,
		completed:    make(map[int]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.now = s.clock()
	return s
}

// Recipe returns the recipe being cooked.
func (s *Session) Recipe() models.Recipe {
	return s.recipe.Clone()
}

// Now is the session clock as of the last tick.
func (s *Session) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// ActiveIndex is the first incomplete step, or 0 when every step is complete.
func (s *Session) ActiveIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeIndex()
}

// AllDone reports whether every step is complete.
func (s *Session) AllDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allDone()
}

// Completed returns the completed step indexes in ascending order.
func (s *Session) Completed() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedList()
}

// Timers returns the started timers in start order, expired ones included.
func (s *Session) Timers() []RunningTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RunningTimer(nil), s.timers...)
}

// PendingCatchUp returns the unresolved catch-up decision, if any.
func (s *Session) PendingCatchUp() (CatchUp, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.catchUp == nil {
		return CatchUp{}, false
	}
	return *s.catchUp, true
}

// PendingSuggestion returns the open timer suggestion, if any.
func (s *Session) PendingSuggestion() (Suggestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suggestion == nil {
		return Suggestion{}, false
	}
	return copySuggestion(*s.suggestion), true
}

// Complete handles a "done" request for step i. A completed step is undone.
// A step ahead of the active one raises a catch-up decision that must be
// resolved before any further completion.
func (s *Session) Complete(i int) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return 0, err
	}
	if err := s.checkStep(i); err != nil {
		return 0, err
	}
	if s.catchUp != nil {
		return 0, ErrDecisionPending
	}

	if _, done := s.completed[i]; done {
		delete(s.completed, i)
		return OutcomeUndone, nil
	}

	if active := s.activeIndex(); i > active {
		s.catchUp = &CatchUp{Target: i, Active: active}
		return OutcomeCatchUp, nil
	}

	s.completed[i] = struct{}{}
	return OutcomeCompleted, nil
}

// ResolveCatchUp applies the caller's answer to the pending decision.
func (s *Session) ResolveCatchUp(r Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	if s.catchUp == nil {
		return ErrNoDecision
	}

	target := s.catchUp.Target
	switch r {
	case CatchUpOnlyThis:
		s.completed[target] = struct{}{}
	case CatchUpAll:
		for i := 0; i <= target; i++ {
			s.completed[i] = struct{}{}
		}
	default:
		return errors.New("unknown catch-up resolution")
	}

	s.catchUp = nil
	return nil
}

// CancelCatchUp drops the pending decision without completing anything.
func (s *Session) CancelCatchUp() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	if s.catchUp == nil {
		return ErrNoDecision
	}
	s.catchUp = nil
	return nil
}

// StartTimer starts step i's timer. Starting a timer that is still running is
// a no-op. Starting a countdown offers any "in" timers that are not running
// yet; the returned suggestion is nil when there is nothing to offer.
func (s *Session) StartTimer(i int) (*Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return nil, err
	}
	if err := s.checkStep(i); err != nil {
		return nil, err
	}

	timer := s.recipe.Steps[i].Timer
	if timer == nil {
		return nil, ErrNoTimer
	}

	s.addTimer(i, timer.Label, timer.Seconds)

	if timer.EffectiveKind() != models.TimerCountdown {
		return nil, nil
	}

	var items []SuggestedTimer
	for idx, step := range s.recipe.Steps {
		t := step.Timer
		if t == nil || t.EffectiveKind() != models.TimerIn {
			continue
		}
		if s.running(idx, t.Label) {
			continue
		}
		items = append(items, SuggestedTimer{StepIndex: idx, Label: t.Label, Seconds: t.Seconds})
	}
	if len(items) == 0 {
		return nil, nil
	}

	s.suggestion = &Suggestion{BaseLabel: timer.Label, Items: items}
	out := copySuggestion(*s.suggestion)
	return &out, nil
}

// AcceptSuggestion starts the suggested timer of stepIndex counting down from
// now and closes the suggestion.
func (s *Session) AcceptSuggestion(stepIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	if s.suggestion == nil {
		return ErrNoSuggestion
	}

	for _, item := range s.suggestion.Items {
		if item.StepIndex == stepIndex {
			s.addTimer(item.StepIndex, item.Label, item.Seconds)
			s.suggestion = nil
			return nil
		}
	}
	return ErrNoSuggestion
}

// DismissSuggestion closes the suggestion without starting anything.
func (s *Session) DismissSuggestion() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	if s.suggestion == nil {
		return ErrNoSuggestion
	}
	s.suggestion = nil
	return nil
}

// Tick refreshes the session clock. Remaining times only move on a tick.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.now = s.clock()
	}
}

// Run ticks the session clock until ctx ends or the session is closed.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Start runs the tick loop in the background. Close stops it.
// Calling Start more than once has no effect.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.cancel != nil {
		return
	}
	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.Run(childCtx)
}

// Close stops the tick loop and rejects further changes.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) usable() error {
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

func (s *Session) checkStep(i int) error {
	if i < 0 || i >= len(s.recipe.Steps) {
		return ErrStepOutOfRange
	}
	return nil
}

func (s *Session) activeIndex() int {
	for i := range s.recipe.Steps {
		if _, done := s.completed[i]; !done {
			return i
		}
	}
	return 0
}

func (s *Session) allDone() bool {
	return len(s.completed) == len(s.recipe.Steps)
}

func (s *Session) completedList() []int {
	out := make([]int, 0, len(s.completed))
	for i := range s.completed {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (s *Session) running(stepIndex int, label string) bool {
	for _, t := range s.timers {
		if t.StepIndex == stepIndex && t.Label == label && t.EndTime.After(s.now) {
			return true
		}
	}
	return false
}

func (s *Session) addTimer(stepIndex int, label string, seconds int) {
	if s.running(stepIndex, label) {
		return
	}
	s.timers = append(s.timers, RunningTimer{
		StepIndex: stepIndex,
		Label:     label,
		EndTime:   s.now.Add(time.Duration(seconds) * time.Second),
	})
}

func copySuggestion(in Suggestion) Suggestion {
	in.Items = append([]SuggestedTimer(nil), in.Items...)
	return in
}
