package minigame_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudesk/gamehost/internal/minigame"
)

func event(origin, data string) minigame.RawEvent {
	return minigame.RawEvent{Origin: origin, Data: json.RawMessage(data)}
}

func TestParse_Accepts(t *testing.T) {
	origins := minigame.NewAllowList(minigame.DefaultOrigins...)

	tests := map[string]struct {
		ev   minigame.RawEvent
		want minigame.Message
	}{
		"score with question": {
			ev:   event("http://localhost:34115", `{"type":"GAME_SCORE","score":10,"lives":2,"currentQuestion":3}`),
			want: minigame.ScoreUpdate{Score: 10, Lives: 2, CurrentQuestionIndex: 3},
		},
		"score without question defaults to zero": {
			ev:   event("file://", `{"type":"GAME_SCORE","score":0,"lives":0}`),
			want: minigame.ScoreUpdate{Score: 0, Lives: 0},
		},
		"score with null question": {
			ev:   event("", `{"type":"GAME_SCORE","score":5,"lives":10,"currentQuestion":null}`),
			want: minigame.ScoreUpdate{Score: 5, Lives: 10},
		},
		"fractional counters truncate": {
			ev:   event("", `{"type":"GAME_SCORE","score":7.9,"lives":1.5}`),
			want: minigame.ScoreUpdate{Score: 7, Lives: 1},
		},
		"game end": {
			ev:   event("file:///games/quiz/index.html", `{"type":"GAME_END","score":80,"totalTime":120,"passed":true,"questionsAnswered":10}`),
			want: minigame.GameEnd{Score: 80, TotalTimeSeconds: 120, Passed: true, QuestionsAnswered: 10},
		},
		"game end without questions answered": {
			ev:   event("http://localhost:8080/bundle", `{"type":"GAME_END","score":0,"totalTime":0.5,"passed":false}`),
			want: minigame.GameEnd{Score: 0, TotalTimeSeconds: 0.5, Passed: false},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := minigame.Parse(tt.ev, origins)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	origins := minigame.NewAllowList(minigame.DefaultOrigins...)

	tests := map[string]struct {
		ev     minigame.RawEvent
		reason minigame.Reason
	}{
		"foreign origin": {
			ev:     event("https://evil.example", `{"type":"GAME_SCORE","score":1,"lives":1}`),
			reason: minigame.ReasonOrigin,
		},
		"lookalike port": {
			ev:     event("http://localhost:80801", `{"type":"GAME_SCORE","score":1,"lives":1}`),
			reason: minigame.ReasonOrigin,
		},
		"lookalike host": {
			ev:     event("http://localhost:8080.evil.test", `{"type":"GAME_SCORE","score":1,"lives":1}`),
			reason: minigame.ReasonOrigin,
		},
		"null data": {
			ev:     event("", `null`),
			reason: minigame.ReasonMalformed,
		},
		"empty data": {
			ev:     minigame.RawEvent{},
			reason: minigame.ReasonMalformed,
		},
		"array data": {
			ev:     event("", `[1,2,3]`),
			reason: minigame.ReasonMalformed,
		},
		"string data": {
			ev:     event("", `"GAME_END"`),
			reason: minigame.ReasonMalformed,
		},
		"missing type": {
			ev:     event("", `{"score":1,"lives":1}`),
			reason: minigame.ReasonMalformed,
		},
		"numeric type": {
			ev:     event("", `{"type":7}`),
			reason: minigame.ReasonMalformed,
		},
		"unknown type": {
			ev:     event("", `{"type":"GAME_CHEAT","score":9999}`),
			reason: minigame.ReasonUnknownType,
		},
		"score as string": {
			ev:     event("", `{"type":"GAME_SCORE","score":"10","lives":2}`),
			reason: minigame.ReasonInvalidPayload,
		},
		"missing lives": {
			ev:     event("", `{"type":"GAME_SCORE","score":10}`),
			reason: minigame.ReasonInvalidPayload,
		},
		"question as string": {
			ev:     event("", `{"type":"GAME_SCORE","score":10,"lives":2,"currentQuestion":"3"}`),
			reason: minigame.ReasonInvalidPayload,
		},
		"too many lives": {
			ev:     event("", `{"type":"GAME_SCORE","score":10,"lives":11}`),
			reason: minigame.ReasonSuspicious,
		},
		"negative score": {
			ev:     event("", `{"type":"GAME_SCORE","score":-1,"lives":2}`),
			reason: minigame.ReasonSuspicious,
		},
		"negative question": {
			ev:     event("", `{"type":"GAME_SCORE","score":1,"lives":2,"currentQuestion":-4}`),
			reason: minigame.ReasonSuspicious,
		},
		"huge score": {
			ev:     event("", `{"type":"GAME_SCORE","score":1e300,"lives":2}`),
			reason: minigame.ReasonSuspicious,
		},
		"end with string passed": {
			ev:     event("", `{"type":"GAME_END","score":80,"totalTime":120,"passed":"yes"}`),
			reason: minigame.ReasonInvalidPayload,
		},
		"end without total time": {
			ev:     event("", `{"type":"GAME_END","score":80,"passed":true}`),
			reason: minigame.ReasonInvalidPayload,
		},
		"end with negative time": {
			ev:     event("", `{"type":"GAME_END","score":80,"totalTime":-1,"passed":true}`),
			reason: minigame.ReasonSuspicious,
		},
		"end with negative score": {
			ev:     event("", `{"type":"GAME_END","score":-80,"totalTime":1,"passed":true}`),
			reason: minigame.ReasonSuspicious,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := minigame.Parse(tt.ev, origins)
			assert.Nil(t, got)

			var rej *minigame.Rejection
			require.True(t, errors.As(err, &rej), "want *Rejection, got %v", err)
			assert.Equal(t, tt.reason, rej.Reason)
		})
	}
}

func TestAllowList(t *testing.T) {
	tests := []struct {
		origins []string
		origin  string
		want    bool
	}{
		{minigame.DefaultOrigins, "", true},
		{minigame.DefaultOrigins, "file://", true},
		{minigame.DefaultOrigins, "file:///opt/app/games/x/index.html", true},
		{minigame.DefaultOrigins, "http://localhost:34115", true},
		{minigame.DefaultOrigins, "http://localhost:8080/", true},
		{minigame.DefaultOrigins, "http://localhost:3000", false},
		{minigame.DefaultOrigins, "https://localhost:8080", false},
		{minigame.DefaultOrigins, "null", false},
		{nil, "", true},
		{nil, "file://", false},
		{[]string{" wails://wails ", ""}, "wails://wails", true},
	}

	for _, tt := range tests {
		got := minigame.NewAllowList(tt.origins...).Allows(tt.origin)
		assert.Equal(t, tt.want, got, "origins=%v origin=%q", tt.origins, tt.origin)
	}
}
