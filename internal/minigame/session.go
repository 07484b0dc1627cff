package minigame

import "time"

// NewSession returns the session a view enters Playing with.
func NewSession(startedAt time.Time, lives int) PlaySession {
	if lives < 0 || lives > MaxLives {
		lives = DefaultLives
	}
	return PlaySession{
		Lives:     lives,
		StartedAt: startedAt,
	}
}

// Reduce applies a validated message to s and returns the resulting session.
// Ended sessions are returned unchanged. now is used to compute the elapsed
// time recorded on GameEnd.
func Reduce(s PlaySession, msg Message, now time.Time) PlaySession {
	if s.Ended {
		return s
	}

	switch m := msg.(type) {
	case ScoreUpdate:
		s.Score = m.Score
		s.Lives = m.Lives
		s.CurrentQuestionIndex = m.CurrentQuestionIndex
	case GameEnd:
		s.Score = m.Score
		s.Ended = true
		s.Result = &TerminalResult{
			Score:             m.Score,
			TotalTimeSeconds:  m.TotalTimeSeconds,
			Passed:            m.Passed,
			QuestionsAnswered: m.QuestionsAnswered,
			ElapsedSeconds:    elapsedSeconds(s.StartedAt, now),
			Outcome:           OutcomePending,
		}
	}
	return s
}

// settle records the submission outcome on an ended session. It only acts
// while the outcome is still pending.
func settle(s PlaySession, res *SubmitResult, err error) (PlaySession, bool) {
	if !s.Ended || s.Result == nil || s.Result.Outcome != OutcomePending {
		return s, false
	}
	r := *s.Result
	if err != nil {
		r.Outcome = OutcomeFailed
		r.Warning = "score could not be saved"
	} else {
		r.Outcome = OutcomeSubmitted
		r.Submitted = res
	}
	s.Result = &r
	return s, true
}

func elapsedSeconds(start, now time.Time) int {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
