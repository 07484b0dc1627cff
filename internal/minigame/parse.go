package minigame

import (
	"encoding/json"
	"fmt"
	"math"
)

// Wire message types posted by bundles.
const (
	TypeGameScore = "GAME_SCORE"
	TypeGameEnd   = "GAME_END"
)

// RawEvent is an inbound message event exactly as the shell received it.
type RawEvent struct {
	Origin string          `json:"origin"`
	Data   json.RawMessage `json:"data"`
}

// Reason classifies why an inbound message was dropped.
type Reason string

const (
	ReasonOrigin         Reason = "untrusted origin"
	ReasonMalformed      Reason = "malformed message"
	ReasonInvalidPayload Reason = "invalid payload"
	ReasonSuspicious     Reason = "suspicious values"
	ReasonUnknownType    Reason = "unknown type"
)

// Rejection is returned by Parse for every message it refuses.
type Rejection struct {
	Reason Reason
	Type   string
	Detail string
}

func (r *Rejection) Error() string {
	if r.Type == "" {
		return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
	}
	return fmt.Sprintf("%s %s: %s", r.Type, r.Reason, r.Detail)
}

// Parse validates an inbound event against the allow-list and the wire
// schema. It returns either a ScoreUpdate or a GameEnd, or a *Rejection.
// It never panics on arbitrary input.
func Parse(ev RawEvent, origins AllowList) (Message, error) {
	if !origins.Allows(ev.Origin) {
		return nil, &Rejection{Reason: ReasonOrigin, Detail: fmt.Sprintf("origin %q", ev.Origin)}
	}

	var fields map[string]any
	if err := json.Unmarshal(ev.Data, &fields); err != nil || fields == nil {
		return nil, &Rejection{Reason: ReasonMalformed, Detail: "data is not an object"}
	}
	typ, ok := fields["type"].(string)
	if !ok {
		return nil, &Rejection{Reason: ReasonMalformed, Detail: "missing type"}
	}

	switch typ {
	case TypeGameScore:
		return parseScore(fields)
	case TypeGameEnd:
		return parseEnd(fields)
	default:
		return nil, &Rejection{Reason: ReasonUnknownType, Type: typ, Detail: "unsupported message type"}
	}
}

func parseScore(fields map[string]any) (Message, error) {
	score, okScore := number(fields, "score")
	lives, okLives := number(fields, "lives")
	if !okScore || !okLives {
		return nil, &Rejection{Reason: ReasonInvalidPayload, Type: TypeGameScore, Detail: "score and lives must be numbers"}
	}
	question, present, ok := optionalNumber(fields, "currentQuestion")
	if !ok {
		return nil, &Rejection{Reason: ReasonInvalidPayload, Type: TypeGameScore, Detail: "currentQuestion must be a number"}
	}
	if !present {
		question = 0
	}

	if !inRange(score, 0, maxCounter) || !inRange(lives, 0, MaxLives) || !inRange(question, 0, maxCounter) {
		return nil, &Rejection{
			Reason: ReasonSuspicious,
			Type:   TypeGameScore,
			Detail: fmt.Sprintf("score=%v lives=%v currentQuestion=%v", score, lives, question),
		}
	}

	return ScoreUpdate{
		Score:                int(score),
		Lives:                int(lives),
		CurrentQuestionIndex: int(question),
	}, nil
}

func parseEnd(fields map[string]any) (Message, error) {
	score, okScore := number(fields, "score")
	total, okTotal := number(fields, "totalTime")
	passed, okPassed := fields["passed"].(bool)
	answered, present, okAnswered := optionalNumber(fields, "questionsAnswered")
	if !okScore || !okTotal || !okPassed || !okAnswered {
		return nil, &Rejection{Reason: ReasonInvalidPayload, Type: TypeGameEnd, Detail: "score and totalTime must be numbers, passed a boolean"}
	}
	if !present {
		answered = 0
	}

	if !inRange(score, 0, maxCounter) || !inRange(total, 0, math.MaxFloat64) || !inRange(answered, 0, maxCounter) {
		return nil, &Rejection{
			Reason: ReasonSuspicious,
			Type:   TypeGameEnd,
			Detail: fmt.Sprintf("score=%v totalTime=%v questionsAnswered=%v", score, total, answered),
		}
	}

	return GameEnd{
		Score:             int(score),
		TotalTimeSeconds:  total,
		Passed:            passed,
		QuestionsAnswered: int(answered),
	}, nil
}

func number(fields map[string]any, key string) (float64, bool) {
	v, ok := fields[key].(float64)
	return v, ok
}

// optionalNumber reports the value, whether the key was present (and not
// null), and whether a present value was a number.
func optionalNumber(fields map[string]any, key string) (v float64, present, ok bool) {
	raw, found := fields[key]
	if !found || raw == nil {
		return 0, false, true
	}
	v, ok = raw.(float64)
	return v, true, ok
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
