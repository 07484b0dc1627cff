package server

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/edudesk/gamehost/internal/minigame"
)

func dialChannel(t *testing.T, env *testEnv, viewID string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/api/views/" + viewID + "/channel"
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPClient: env.ts.Client()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func TestChannelDeliversMessages(t *testing.T) {
	env := newTestEnv(t, "")
	v := env.open(t, "fractions-101")
	conn := dialChannel(t, env, v.ViewID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, conn.Write(ctx, websocket.MessageBinary, []byte(scoreEnvelope)))
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("not json")))
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(scoreEnvelope)))

	require.Eventually(t, func() bool {
		return env.view(t, v.ViewID).Session.Score == 40
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(endEnvelope)))
	require.Eventually(t, func() bool {
		r := env.view(t, v.ViewID).Session.Result
		return r != nil && r.Outcome == minigame.OutcomeSubmitted
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, env.subm.Calls(), 1)
}

func TestChannelClosesWithView(t *testing.T) {
	env := newTestEnv(t, "")
	v := env.open(t, "fractions-101")
	conn := dialChannel(t, env, v.ViewID)

	resp, _ := env.do(t, http.MethodPost, "/api/views/"+v.ViewID+"/close", `{"confirmed":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// The next frame is dropped and the server hangs up.
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(scoreEnvelope)))
	_, _, err := conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
}

func TestChannelDisconnectKeepsView(t *testing.T) {
	env := newTestEnv(t, "")
	v := env.open(t, "fractions-101")
	conn := dialChannel(t, env, v.ViewID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(scoreEnvelope)))
	require.Eventually(t, func() bool {
		return env.view(t, v.ViewID).Session.Score == 40
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusGoingAway, "webview reloaded"))

	got := env.view(t, v.ViewID)
	assert.Equal(t, minigame.StatePlaying, got.State)
	assert.Equal(t, 1, env.views.Len())
}

func TestChannelUnknownView(t *testing.T) {
	env := newTestEnv(t, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/api/views/nope/channel"
	_, resp, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
