package api

// Catch-up resolutions.
const (
	ResolutionOnlyThis = "only_this"
	ResolutionAll      = "all"
)

type StartSessionRequest struct {
	RecipeID string `json:"recipeId"`
}

type SessionRequest struct {
	SessionID string `json:"sessionId"`
}

type StepRequest struct {
	SessionID string `json:"sessionId"`
	StepIndex int    `json:"stepIndex"`
}

type ResolveCatchUpRequest struct {
	SessionID  string `json:"sessionId"`
	Resolution string `json:"resolution"`
}

type SessionResponse struct {
	SessionID string      `json:"sessionId"`
	Session   SessionView `json:"session"`
}

// CompleteStepResponse reports what the completion did: "completed",
// "undone" or "catch_up". On "catch_up" the session carries the pending
// decision.
type CompleteStepResponse struct {
	Outcome   string      `json:"outcome"`
	SessionID string      `json:"sessionId"`
	Session   SessionView `json:"session"`
}

type SessionView struct {
	RecipeID    string         `json:"recipeId"`
	Title       string         `json:"title"`
	Now         *Timestamp     `json:"now,omitempty"`
	Steps       []SessionStep  `json:"steps"`
	ActiveIndex int            `json:"activeIndex"`
	AllDone     bool           `json:"allDone"`
	Completed   []int          `json:"completed"`
	Timers      []RunningTimer `json:"timers"`
	CatchUp     *CatchUp       `json:"catchUp,omitempty"`
	Suggestion  *Suggestion    `json:"suggestion,omitempty"`
}

type SessionStep struct {
	Index     int        `json:"index"`
	Text      string     `json:"text"`
	Timer     *StepTimer `json:"timer,omitempty"`
	Completed bool       `json:"completed"`
	Active    bool       `json:"active"`
}

type RunningTimer struct {
	StepIndex        int        `json:"stepIndex"`
	Label            string     `json:"label"`
	EndTime          *Timestamp `json:"endTime,omitempty"`
	RemainingSeconds int        `json:"remainingSeconds"`
}

type CatchUp struct {
	Target int `json:"target"`
	Active int `json:"active"`
}

type Suggestion struct {
	BaseLabel string           `json:"baseLabel"`
	Items     []SuggestedTimer `json:"items"`
}

type SuggestedTimer struct {
	StepIndex int    `json:"stepIndex"`
	Label     string `json:"label"`
	Seconds   int    `json:"seconds"`
}
