package server

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bisect/internal/config"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(cfg, log)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func startRun(t *testing.T, s *Server, body string) string {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/runs", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		ID string     `json:"id"`
		Xs []float64  `json:"xs"`
		Ys []*float64 `json:"ys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	assert.Len(t, resp.Xs, s.cfg.PlotPoints)
	assert.Len(t, resp.Ys, s.cfg.PlotPoints)
	return resp.ID
}

func waitRun(t *testing.T, s *Server, id string) RunView {
	t.Helper()
	var view RunView
	require.Eventually(t, func() bool {
		rec := do(t, s, http.MethodGet, "/api/runs/"+id, "")
		if rec.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
			return false
		}
		return view.Status != StatusRunning
	}, 5*time.Second, 10*time.Millisecond)
	return view
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStartRun_Done(t *testing.T) {
	s := newTestServer(t, nil)
	id := startRun(t, s, `{"func":"x - 0.5","x0":0,"x1":1}`)

	view := waitRun(t, s, id)
	assert.Equal(t, StatusDone, view.Status)
	assert.Equal(t, 0.5, view.Root)
	assert.Equal(t, 1, view.Iterations)
	assert.Len(t, view.Trace, 2)
	require.Len(t, view.Iters, 1)
	assert.Equal(t, 0.5, view.Iters[0].XMid)
	assert.Equal(t, 1e-16, view.Params.Eps)
	assert.Equal(t, 1000, view.Params.MaxIter)
}

func TestStartRun_Problem(t *testing.T) {
	s := newTestServer(t, nil)
	id := startRun(t, s, `{"problem":"dottie"}`)

	view := waitRun(t, s, id)
	assert.Contains(t, []Status{StatusDone, StatusLimit}, view.Status)
	assert.InDelta(t, 0.7390851332151607, view.Root, 1e-15)
	assert.Equal(t, "cos(x) - x", view.Params.Func)
}

func TestStartRun_BadRequests(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"bad expression", `{"func":"x +","x0":0,"x1":1}`, http.StatusBadRequest},
		{"same sign", `{"func":"x*x + 1","x0":0,"x1":1}`, http.StatusBadRequest},
		{"empty bracket", `{"func":"x","x0":1,"x1":1}`, http.StatusBadRequest},
		{"unknown problem", `{"problem":"nope"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/runs", tt.body)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestStartRun_IterationLimit(t *testing.T) {
	s := newTestServer(t, nil)
	id := startRun(t, s, `{"func":"x*x - 2","x0":0,"x1":2,"maxIter":80}`)

	view := waitRun(t, s, id)
	assert.Equal(t, StatusLimit, view.Status)
	assert.Equal(t, 80, view.Iterations)
	assert.NotEmpty(t, view.Err)
}

func TestStopRun(t *testing.T) {
	// max_iter = 0: x*x - 2 нигде не даёт точного нуля, запуск идёт до остановки
	s := newTestServer(t, func(c *config.Config) { c.MaxIter = 0 })
	id := startRun(t, s, `{"func":"x*x - 2","x0":0,"x1":2}`)

	rec := do(t, s, http.MethodPost, "/api/runs/"+id+"/stop", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	view := waitRun(t, s, id)
	assert.Equal(t, StatusStopped, view.Status)
}

func TestUnknownRun(t *testing.T) {
	s := newTestServer(t, nil)
	for _, path := range []string{"/api/runs/missing", "/api/runs/missing/export", "/api/runs/missing/stream"} {
		rec := do(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	rec := do(t, s, http.MethodPost, "/api/runs/missing/stop", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExport(t *testing.T) {
	s := newTestServer(t, nil)
	id := startRun(t, s, `{"func":"x - 0.5","x0":0,"x1":1}`)
	waitRun(t, s, id)

	rec := do(t, s, http.MethodGet, "/api/runs/"+id+"/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "trace_"+id+".csv")
	assert.Equal(t, "k,x,f(x)\n0,0.0000000000000000,-0.5000000000000000\n1,0.5000000000000000,0.0000000000000000\n", rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/runs/"+id+"/export?format=latex", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "\\begin{tabular}")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".tex")

	rec = do(t, s, http.MethodGet, "/api/runs/"+id+"/export?format=html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<table>")

	rec = do(t, s, http.MethodGet, "/api/runs/"+id+"/export?format=xlsx", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProblems(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Problems["p10"] = config.Problem{Func: "x - 10", X0: 0, X1: 20}
		c.Problems["p2"] = config.Problem{Func: "x - 2", X0: 0, X1: 4}
	})

	rec := do(t, s, http.MethodGet, "/api/problems", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []struct {
		Name string  `json:"name"`
		Func string  `json:"func"`
		Eps  float64 `json:"eps"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 3)
	assert.Equal(t, "dottie", out[0].Name)
	assert.Equal(t, "p2", out[1].Name)
	assert.Equal(t, "p10", out[2].Name)
	assert.Equal(t, 1e-16, out[2].Eps)
}

func readEvent(t *testing.T, rd *bufio.Reader) map[string]any {
	t.Helper()
	event, err := rd.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "event: msg\n", event)
	data, err := rd.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(data, "data: "))
	blank, err := rd.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "\n", blank)

	var msg map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(data, "data: ")), &msg))
	return msg
}

func TestStream_FinishedRunSendsSnapshotAndCloses(t *testing.T) {
	s := newTestServer(t, nil)
	id := startRun(t, s, `{"func":"x - 0.5","x0":0,"x1":1}`)
	waitRun(t, s, id)

	ts := httptest.NewServer(s)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/runs/" + id + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	rd := bufio.NewReader(resp.Body)
	msg := readEvent(t, rd)
	assert.Equal(t, "snapshot", msg["type"])
	run, ok := msg["run"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(StatusDone), run["status"])
	assert.Equal(t, 0.5, run["root"])

	_, err = rd.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStream_RunningRun(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.MaxIter = 0 })
	id := startRun(t, s, `{"func":"x*x - 2","x0":0,"x1":2}`)
	defer do(t, s, http.MethodPost, "/api/runs/"+id+"/stop", "")

	ts := httptest.NewServer(s)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/runs/" + id + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	rd := bufio.NewReader(resp.Body)
	msg := readEvent(t, rd)
	assert.Equal(t, "snapshot", msg["type"])
	run := msg["run"].(map[string]any)
	assert.Equal(t, string(StatusRunning), run["status"])

	// start мог уйти до подписки, поэтому ждём первую итерацию
	for i := 0; i < 2; i++ {
		msg = readEvent(t, rd)
		if msg["type"] == "iter" {
			break
		}
		assert.Equal(t, "start", msg["type"])
	}
	assert.Equal(t, "iter", msg["type"])
}

func TestRun_InfiniteValuesEncodeAsNull(t *testing.T) {
	s := newTestServer(t, nil)
	// f(0) = +Inf на первой же середине
	id := startRun(t, s, `{"func":"1/x","x0":-1,"x1":1,"maxIter":50}`)
	waitRun(t, s, id)

	rec := do(t, s, http.MethodGet, "/api/runs/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Body.String())

	var view map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, string(StatusLimit), view["status"])
	iters := view["iters"].([]any)
	require.Len(t, iters, 50)
	first := iters[0].(map[string]any)
	assert.Nil(t, first["fxmid"])
	assert.Equal(t, 0.0, first["xmid"])

	ts := httptest.NewServer(s)
	defer ts.Close()
	resp, err := http.Get(ts.URL + "/api/runs/" + id + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	msg := readEvent(t, bufio.NewReader(resp.Body))
	assert.Equal(t, "snapshot", msg["type"])
}

func TestWriteJSON_EncodeError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]any{"v": math.Inf(1)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
