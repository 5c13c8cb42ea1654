package makemode

import (
	"time"

	"github.com/mmynk/scrtch/internal/models"
)

// StepView is one step as shown in the guided view.
type StepView struct {
	Index     int
	Text      string
	Timer     *models.StepTimer
	Completed bool
	Active    bool
}

// TimerView is a running timer with its remaining time at the last tick.
type TimerView struct {
	RunningTimer
	RemainingSeconds int
}

// View is a consistent snapshot of a session, ready to render.
type View struct {
	RecipeID    string
	Title       string
	Now         time.Time
	Steps       []StepView
	ActiveIndex int
	AllDone     bool
	Completed   []int
	Timers      []TimerView
	CatchUp     *CatchUp
	Suggestion  *Suggestion
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.activeIndex()
	allDone := s.allDone()

	v := View{
		RecipeID:    s.recipe.ID,
		Title:       s.recipe.Title,
		Now:         s.now,
		Steps:       make([]StepView, len(s.recipe.Steps)),
		ActiveIndex: active,
		AllDone:     allDone,
		Completed:   s.completedList(),
		Timers:      make([]TimerView, len(s.timers)),
	}

	for i, step := range s.recipe.Steps {
		_, done := s.completed[i]
		sv := StepView{
			Index:     i,
			Text:      step.Text,
			Completed: done,
			Active:    i == active && !allDone,
		}
		if step.Timer != nil {
			t := *step.Timer
			sv.Timer = &t
		}
		v.Steps[i] = sv
	}

	for i, t := range s.timers {
		v.Timers[i] = TimerView{RunningTimer: t, RemainingSeconds: t.Remaining(s.now)}
	}

	if s.catchUp != nil {
		c := *s.catchUp
		v.CatchUp = &c
	}
	if s.suggestion != nil {
		sg := copySuggestion(*s.suggestion)
		v.Suggestion = &sg
	}
	return v
}
