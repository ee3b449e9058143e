package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bisect/internal/config"
	"bisect/internal/report"
	"bisect/internal/solver"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "ошибка кодирования JSON: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

// handleStartRun запускает новый поиск корня
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var p RunParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "ошибка JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if p.Problem != "" {
		pr, err := s.cfg.Problem(p.Problem)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		p.Func, p.X0, p.X1 = pr.Func, pr.X0, pr.X1
		if p.Eps <= 0 {
			p.Eps = pr.Eps
		}
	}
	if p.MaxIter <= 0 {
		p.MaxIter = s.cfg.MaxIter
	}
	if p.Eps <= 0 {
		p.Eps = s.cfg.DefaultEps
	}

	f, err := solver.NewEvalFunc(p.Func)
	if err != nil {
		http.Error(w, "ошибка в выражении функции: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := solver.CheckBracket(f, p.X0, p.X1); err != nil {
		http.Error(w, "некорректный отрезок: "+err.Error(), http.StatusBadRequest)
		return
	}

	// значения функции для графика
	n := s.cfg.PlotPoints
	xs := make([]float64, n)
	ys := make([]float64, n)
	h := (p.X1 - p.X0) / float64(n-1)
	for i := 0; i < n; i++ {
		x := p.X0 + float64(i)*h
		y, err := f.Eval(x)
		if err != nil || math.IsNaN(y) || math.IsInf(y, 0) {
			y = math.NaN()
		}
		xs[i], ys[i] = x, y
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	rs := &RunState{
		ID:        id,
		Params:    p,
		CreatedAt: time.Now(),
		Cancel:    cancel,
		status:    StatusRunning,
	}
	s.runs.Save(rs)
	s.log.Info("запуск создан", "id", id, "func", p.Func, "x0", p.X0, "x1", p.X1, "max_iter", p.MaxIter)

	go s.solve(ctx, rs, f)

	writeJSON(w, http.StatusOK, map[string]any{
		"id": id,
		"xs": xs,
		"ys": nullable(ys),
	})
}

func nullable(vs []float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = solver.Finite(v)
	}
	return out
}

func (s *Server) publish(id string, msg map[string]any) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("не удалось закодировать событие", "id", id, "error", err)
		return
	}
	s.hub.Publish(id, string(data))
}

// solve выполняет бисекцию и рассылает события по SSE
func (s *Server) solve(ctx context.Context, rs *RunState, f solver.Func) {
	defer rs.Cancel()
	id := rs.ID
	s.publish(id, map[string]any{"type": "start", "id": id})

	onIter := func(it solver.Iter) error {
		select {
		case <-ctx.Done():
			return solver.ErrStopped
		default:
		}
		rs.addIter(it)
		s.publish(id, map[string]any{"type": "iter", "iter": it})
		return nil
	}

	p := rs.Params
	res, err := solver.Bisection(f, p.X0, p.X1, p.Eps,
		solver.WithMaxIter(p.MaxIter),
		solver.WithProgress(onIter),
	)

	switch {
	case err == nil:
		rs.finish(StatusDone, res, "")
		s.log.Info("корень найден", "id", id, "root", res.Root, "iterations", res.Iterations)
		s.publish(id, map[string]any{"type": "done", "x": solver.Finite(res.Root), "fx": solver.Finite(res.FRoot)})
	case errors.Is(err, solver.ErrStopped):
		rs.finish(StatusStopped, res, "")
		s.log.Info("запуск остановлен", "id", id, "iterations", res.Iterations)
		s.publish(id, map[string]any{"type": "stopped"})
	case errors.Is(err, solver.ErrMaxIter):
		rs.finish(StatusLimit, res, err.Error())
		s.log.Warn("исчерпан лимит итераций", "id", id, "root", res.Root, "froot", res.FRoot)
		s.publish(id, map[string]any{"type": "limit", "x": solver.Finite(res.Root), "fx": solver.Finite(res.FRoot)})
	default:
		msg := "ошибка при вычислении: " + err.Error()
		rs.finish(StatusFailed, res, msg)
		s.log.Error("ошибка вычисления", "id", id, "error", err)
		s.publish(id, map[string]any{"type": "error", "err": msg})
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) *RunState {
	rs := s.runs.Get(chi.URLParam(r, "id"))
	if rs == nil {
		http.Error(w, "неизвестный id", http.StatusNotFound)
	}
	return rs
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	rs := s.lookup(w, r)
	if rs == nil {
		return
	}
	writeJSON(w, http.StatusOK, rs.View())
}

// handleStopRun — прерывание запуска
func (s *Server) handleStopRun(w http.ResponseWriter, r *http.Request) {
	rs := s.lookup(w, r)
	if rs == nil {
		return
	}
	if rs.Cancel != nil {
		rs.Cancel()
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExport — выгрузка трассы в csv/latex/md/html
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	rs := s.lookup(w, r)
	if rs == nil {
		return
	}
	if rs.Status() == StatusRunning {
		http.Error(w, "запуск ещё не завершён", http.StatusConflict)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format == "table" {
		http.Error(w, "формат table доступен только в CLI", http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, rs.Trace()); err != nil {
		if errors.Is(err, report.ErrUnknownFormat) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", report.ContentType(format))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=trace_%s.%s", rs.ID, report.Extension(format)))
	w.Write(buf.Bytes())
}

type problemView struct {
	Name string `json:"name"`
	config.Problem
}

func (s *Server) handleProblems(w http.ResponseWriter, r *http.Request) {
	names := s.cfg.ProblemNames()
	out := make([]problemView, 0, len(names))
	for _, name := range names {
		p, _ := s.cfg.Problem(name)
		out = append(out, problemView{Name: name, Problem: p})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleStream — SSE-стрим событий запуска.
// Первым идёт снимок состояния; для завершённого запуска стрим на нём и закрывается.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	rs := s.lookup(w, r)
	if rs == nil {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// подписка до снимка, чтобы не потерять события между ними
	ch, cancel := s.hub.Subscribe(rs.ID)
	defer cancel()

	view := rs.View()
	snapshot, err := json.Marshal(map[string]any{"type": "snapshot", "run": view})
	if err != nil {
		s.log.Error("не удалось закодировать снимок", "id", rs.ID, "error", err)
		return
	}
	writeEvent(w, string(snapshot))
	flusher.Flush()
	if view.Status != StatusRunning {
		return
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch:
			writeEvent(w, msg)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, msg string) {
	fmt.Fprintf(w, "event: msg\n")
	fmt.Fprintf(w, "data: %s\n\n", msg)
}
