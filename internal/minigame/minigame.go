// Package minigame hosts sandboxed mini-game bundles: it validates the
// messages a bundle posts to the host, tracks the play session those messages
// drive, and reconciles the final outcome with the score backend exactly once.
package minigame

import "time"

// State is the lifecycle position of a hosted game view.
type State string

const (
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StateEnded   State = "ended"
)

// Limits enforced on inbound counters.
const (
	MaxLives     = 10
	DefaultLives = 3

	// maxCounter bounds integer fields so float64 payloads convert safely.
	maxCounter = 1<<31 - 1
)

// Message is a validated inbound message. The only way to obtain one is Parse.
type Message interface {
	isMessage()
}

// ScoreUpdate carries the bundle's current counters. It replaces the session's
// counters wholesale.
type ScoreUpdate struct {
	Score                int
	Lives                int
	CurrentQuestionIndex int
}

// GameEnd reports the final outcome of a play session.
type GameEnd struct {
	Score             int
	TotalTimeSeconds  float64
	Passed            bool
	QuestionsAnswered int
}

func (ScoreUpdate) isMessage() {}
func (GameEnd) isMessage()     {}

// PlaySession is the ephemeral state of one open game view.
type PlaySession struct {
	Score                int             `json:"score"`
	Lives                int             `json:"lives"`
	CurrentQuestionIndex int             `json:"currentQuestionIndex"`
	StartedAt            time.Time       `json:"startedAt"`
	Ended                bool            `json:"ended"`
	Result               *TerminalResult `json:"result,omitempty"`
}

// Outcome describes how the terminal submission resolved.
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeSubmitted Outcome = "submitted"
	OutcomeFailed    Outcome = "failed"
)

// TerminalResult is the final report of a session. Report fields are fixed
// when GameEnd is accepted; Outcome moves from pending exactly once.
type TerminalResult struct {
	Score             int           `json:"score"`
	TotalTimeSeconds  float64       `json:"totalTimeSeconds"`
	Passed            bool          `json:"passed"`
	QuestionsAnswered int           `json:"questionsAnswered"`
	ElapsedSeconds    int           `json:"elapsedSeconds"`
	Outcome           Outcome       `json:"outcome"`
	Submitted         *SubmitResult `json:"submitted,omitempty"`
	Warning           string        `json:"warning,omitempty"`
}

// Answer is a single per-question answer. The host never tracks these; the
// bundle does, so submissions always carry an empty list.
type Answer struct {
	QuestionIndex int    `json:"questionIndex"`
	Value         string `json:"value"`
}

// Submission is the terminal call made to the score backend.
type Submission struct {
	GameID         string
	Answers        []Answer
	ElapsedSeconds int
	IdempotencyKey string

	// Report is the bundle's own GameEnd payload, kept for local records.
	Report GameEnd
}

// SubmitResult is the backend's canonical record of a submission.
type SubmitResult struct {
	ID          string    `json:"id"`
	Score       int       `json:"score"`
	Passed      bool      `json:"passed"`
	SubmittedAt time.Time `json:"submittedAt"`
}
