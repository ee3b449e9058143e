package solver

import (
	"encoding/json"
	"math"
)

// Finite возвращает nil для NaN и ±Inf: encoding/json их не кодирует
func Finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		K  int      `json:"k"`
		X  *float64 `json:"x"`
		FX *float64 `json:"fx"`
	}{s.K, Finite(s.X), Finite(s.FX)})
}

func (it Iter) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		K     int      `json:"k"`
		A     *float64 `json:"a"`
		B     *float64 `json:"b"`
		XMid  *float64 `json:"xmid"`
		FXMid *float64 `json:"fxmid"`
		Len   *float64 `json:"len"`
	}{it.K, Finite(it.A), Finite(it.B), Finite(it.XMid), Finite(it.FXMid), Finite(it.Len)})
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Root       *float64 `json:"root"`
		FRoot      *float64 `json:"froot"`
		Eps        float64  `json:"eps"`
		Iterations int      `json:"iterations"`
		Trace      []Step   `json:"trace"`
	}{Finite(r.Root), Finite(r.FRoot), r.Eps, r.Iterations, r.Trace})
}
