package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"bisect/internal/solver"
)

// параметры запуска метода
type RunParams struct {
	Problem string  `json:"problem,omitempty"`
	Func    string  `json:"func"`
	X0      float64 `json:"x0"`
	X1      float64 `json:"x1"`
	Eps     float64 `json:"eps"`
	MaxIter int     `json:"maxIter"`
}

type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusLimit   Status = "limit"
	StatusStopped Status = "stopped"
	StatusFailed  Status = "error"
)

// состояние одного запуска
type RunState struct {
	mu sync.Mutex

	ID        string
	Params    RunParams
	CreatedAt time.Time
	Cancel    context.CancelFunc

	status Status
	iters  []solver.Iter
	result solver.Result
	err    string
}

// RunView — снимок запуска для JSON
type RunView struct {
	ID         string        `json:"id"`
	Params     RunParams     `json:"params"`
	CreatedAt  time.Time     `json:"createdAt"`
	Status     Status        `json:"status"`
	Iters      []solver.Iter `json:"iters"`
	Root       float64       `json:"root"`
	FRoot      float64       `json:"froot"`
	Iterations int           `json:"iterations"`
	Trace      []solver.Step `json:"trace"`
	Err        string        `json:"err,omitempty"`
}

// Root и FRoot бывают ±Inf (например, 1/x), в JSON они уходят как null
func (v RunView) MarshalJSON() ([]byte, error) {
	type alias RunView
	return json.Marshal(struct {
		alias
		Root  *float64 `json:"root"`
		FRoot *float64 `json:"froot"`
	}{alias(v), solver.Finite(v.Root), solver.Finite(v.FRoot)})
}

func (rs *RunState) addIter(it solver.Iter) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.iters = append(rs.iters, it)
}

func (rs *RunState) finish(st Status, res solver.Result, errMsg string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.status = st
	rs.result = res
	rs.err = errMsg
}

func (rs *RunState) Status() Status {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.status
}

// Trace — трасса завершённого запуска (nil, пока он идёт)
func (rs *RunState) Trace() []solver.Step {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]solver.Step(nil), rs.result.Trace...)
}

func (rs *RunState) View() RunView {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return RunView{
		ID:         rs.ID,
		Params:     rs.Params,
		CreatedAt:  rs.CreatedAt,
		Status:     rs.status,
		Iters:      append([]solver.Iter(nil), rs.iters...),
		Root:       rs.result.Root,
		FRoot:      rs.result.FRoot,
		Iterations: rs.result.Iterations,
		Trace:      append([]solver.Step(nil), rs.result.Trace...),
		Err:        rs.err,
	}
}

// Store — запуски по id
type Store struct {
	mu   sync.Mutex
	runs map[string]*RunState
}

func NewStore() *Store {
	return &Store{runs: map[string]*RunState{}}
}

func (s *Store) Save(rs *RunState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[rs.ID] = rs
}

func (s *Store) Get(id string) *RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}
