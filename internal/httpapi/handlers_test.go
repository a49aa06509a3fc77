package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/draftline/internal/engine"
	"github.com/DoyleJ11/draftline/internal/session"
	"github.com/DoyleJ11/draftline/internal/timer"
	"github.com/DoyleJ11/draftline/pkg/types"
)

type api struct {
	t   *testing.T
	srv *httptest.Server
	ses *session.Server
}

func newAPI(t *testing.T) *api {
	t.Helper()
	ses := session.New(session.Options{}, nil)
	srv := httptest.NewServer(SetupRoutes(ses, 2*time.Second, nil))
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = ses.Stop(ctx)
	})
	return &api{t: t, srv: srv, ses: ses}
}

func (a *api) do(method, path, body string, out any) int {
	a.t.Helper()
	req, err := http.NewRequest(method, a.srv.URL+path, strings.NewReader(body))
	require.NoError(a.t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	if out != nil && len(raw) > 0 {
		require.NoError(a.t, json.Unmarshal(raw, out), string(raw))
	}
	return resp.StatusCode
}

func (a *api) start() session.Status {
	a.t.Helper()
	var res messageResponse
	require.Equal(a.t, http.StatusOK, a.do(http.MethodPost, "/session/start", `{"port":0}`, &res))
	return res.Status
}

func (a *api) join(name string) *websocket.Conn {
	a.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, fmt.Sprintf("ws://127.0.0.1:%d/ws", a.ses.Status().Port), nil)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { conn.CloseNow() })

	raw, _ := json.Marshal(types.JoinRequest{DisplayName: name})
	require.NoError(a.t, wsjson.Write(ctx, conn, types.ClientMessage{Type: types.EvtJoin, Data: raw}))
	var msg types.ClientMessage
	require.NoError(a.t, wsjson.Read(ctx, conn, &msg))
	require.Equal(a.t, types.EvtAssigned, msg.Type)
	return conn
}

const mapBanJSON = `{"phase":"MAP_PHASE","currentTurnRole":"A","actionNumber":1,"firstRole":"A","eventStarted":true,"agentPicks":{}}`

func TestHealthz(t *testing.T) {
	a := newAPI(t)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/healthz", "", nil))
}

func TestSessionLifecycle(t *testing.T) {
	a := newAPI(t)

	var st session.Status
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/session/status", "", &st))
	assert.False(t, st.Running)

	st = a.start()
	assert.True(t, st.Running)
	assert.NotZero(t, st.Port)

	var e types.ErrorMessage
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/session/start", `{"port":0}`, &e))
	assert.Equal(t, session.ErrAlreadyRunning.Error(), e.Error)

	var res messageResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/session/stop", "", &res))
	assert.Equal(t, "Server stopped", res.Message)
	assert.False(t, res.Status.Running)

	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/session/stop", "", &e))
}

func TestPushStateRequiresRunning(t *testing.T) {
	a := newAPI(t)
	var e types.ErrorMessage
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPut, "/session/state", mapBanJSON, &e))
	assert.NotEmpty(t, e.Error)
}

func TestBadBody(t *testing.T) {
	a := newAPI(t)
	a.start()
	var e types.ErrorMessage
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPut, "/session/state", `{"phase":`, &e))
	assert.Contains(t, e.Error, "bad request body")
}

func TestStateActionsAndParticipants(t *testing.T) {
	a := newAPI(t)
	a.start()
	conn := a.join("alice")

	var ps []map[string]any
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/session/participants", "", &ps))
	require.Len(t, ps, 1)
	assert.Equal(t, "alice", ps[0]["displayName"])
	assert.Equal(t, "A", ps[0]["role"])

	var d deliveredResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodPut, "/session/state", mapBanJSON, &d))
	assert.Equal(t, 1, d.Recipients)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	raw, _ := json.Marshal(types.ActionRequest{Kind: "BAN", AssetName: "ascent", TimestampMs: 7})
	require.NoError(t, wsjson.Write(ctx, conn, types.ClientMessage{Type: types.EvtAction, Data: raw}))
	for {
		var msg types.ClientMessage
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		if msg.Type == types.EvtActionResult {
			break
		}
	}

	var actions []engine.ValidatedAction
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/session/actions", "", &actions))
	require.Len(t, actions, 1)
	assert.Equal(t, "ascent", actions[0].AssetName)
	assert.Equal(t, engine.RoleA, actions[0].Role)

	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/session/actions", "", &actions))
	assert.Empty(t, actions)

	// Same turn is locked until the controller reopens it.
	raw, _ = json.Marshal(types.ActionRequest{Kind: "BAN", AssetName: "bind", TimestampMs: 8})
	require.NoError(t, wsjson.Write(ctx, conn, types.ClientMessage{Type: types.EvtAction, Data: raw}))
	var res types.ActionResult
	readResult(t, ctx, conn, &res)
	assert.Equal(t, session.CodeActionPending, res.Code)

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodPost, "/session/reopen-turn", "", nil))
	require.NoError(t, wsjson.Write(ctx, conn, types.ClientMessage{Type: types.EvtAction, Data: raw}))
	readResult(t, ctx, conn, &res)
	assert.True(t, res.Success)
}

func readResult(t *testing.T, ctx context.Context, conn *websocket.Conn, res *types.ActionResult) {
	t.Helper()
	for {
		var msg types.ClientMessage
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		if msg.Type == types.EvtActionResult {
			require.NoError(t, json.Unmarshal(msg.Data, res))
			return
		}
	}
}

func TestReopenTurnRequiresRunning(t *testing.T) {
	a := newAPI(t)
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/session/reopen-turn", "", nil))
}

func TestTurnStart(t *testing.T) {
	a := newAPI(t)
	a.start()
	a.join("alice")

	body := `{"state":` + mapBanJSON + `,"role":"A","timeLimit":30}`
	assert.Equal(t, http.StatusOK, a.do(http.MethodPost, "/session/turn-start", body, nil))

	body = `{"state":` + mapBanJSON + `,"role":"B","timeLimit":30}`
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/session/turn-start", body, nil))

	body = `{"state":` + mapBanJSON + `,"role":"C","timeLimit":30}`
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/session/turn-start", body, nil))
}

func TestTimerControlAndEvents(t *testing.T) {
	a := newAPI(t)
	a.start()

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/session/timer-control", `{}`, nil))
	assert.Equal(t, http.StatusOK, a.do(http.MethodPost, "/session/timer-control", `{"action":"REWIND"}`, nil))
	assert.Equal(t, http.StatusOK, a.do(http.MethodPost, "/session/timer-control", `{"action":"PAUSE"}`, nil))
	assert.Equal(t, http.StatusOK, a.do(http.MethodPost, "/session/start-event", mapBanJSON, nil))
	assert.Equal(t, http.StatusOK, a.do(http.MethodPost, "/session/end-event", `{"finalMap":"lotus","summary":"gg"}`, nil))
}

func TestTimerEndpoints(t *testing.T) {
	a := newAPI(t)

	var snap timer.Snapshot
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/timer", "", &snap))
	assert.Equal(t, timer.StatusReady, snap.Status)
	assert.Equal(t, timer.DefaultSeconds, snap.Seconds)

	var e types.ErrorMessage
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/timer/pause", "", &e))
	assert.Contains(t, e.Error, "Cannot pause timer")

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/timer/reset", `{"seconds":45}`, &snap))
	assert.Equal(t, 45, snap.Seconds)
	assert.Equal(t, 45, snap.InitialSeconds)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/timer/reset", `{"seconds":0}`, nil))

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/timer/start", "", &snap))
	assert.Equal(t, timer.StatusRunning, snap.Status)
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/timer/pause", "", &snap))
	assert.Equal(t, timer.StatusPaused, snap.Status)

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/timer/reset", "", &snap))
	assert.Equal(t, timer.StatusReady, snap.Status)
	assert.Equal(t, 45, snap.Seconds)
}
