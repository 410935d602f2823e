package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/domicilios-tipovia/internal/normalize"
)

// NormalizeHandler serves the rule table and previews plans for ad-hoc
// (tipo_via, calle) pairs. It never touches a store.
type NormalizeHandler struct {
	Planner  *normalize.Planner
	Rules    *normalize.RuleTable
	MaxBatch int
}

// PairRequest is one pair to normalize.
type PairRequest struct {
	TypeVia    string `json:"tipo_via"`
	StreetName string `json:"calle"`
}

// RulesResponse lists the rules in precedence order.
type RulesResponse struct {
	Rules      []normalize.TypeRule `json:"rules"`
	Vocabulary []string             `json:"vocabulary"`
}

// BatchResponse holds one plan per submitted pair, in request order.
type BatchResponse struct {
	Results []normalize.MutationPlan `json:"results"`
	Changed int                      `json:"changed"`
}

// GetRules returns the ordered rule table
func (h *NormalizeHandler) GetRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RulesResponse{
		Rules:      h.Rules.Rules(),
		Vocabulary: normalize.Vocabulary(),
	})
}

// NormalizeOne plans the pair given as query parameters
func (h *NormalizeHandler) NormalizeOne(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("tipo_via") && !q.Has("calle") {
		http.Error(w, "tipo_via or calle query parameter is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.Planner.PlanPair(q.Get("tipo_via"), q.Get("calle")))
}

// NormalizeBatch plans every pair of a JSON array body
func (h *NormalizeHandler) NormalizeBatch(w http.ResponseWriter, r *http.Request) {
	var pairs []PairRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&pairs); err != nil {
		http.Error(w, "Invalid JSON request: expected an array of {tipo_via, calle}", http.StatusBadRequest)
		return
	}
	if h.MaxBatch > 0 && len(pairs) > h.MaxBatch {
		http.Error(w, fmt.Sprintf("Too many pairs: %d (max %d)", len(pairs), h.MaxBatch), http.StatusRequestEntityTooLarge)
		return
	}

	resp := BatchResponse{Results: make([]normalize.MutationPlan, 0, len(pairs))}
	for _, p := range pairs {
		plan := h.Planner.PlanPair(p.TypeVia, p.StreetName)
		if plan.Changed {
			resp.Changed++
		}
		resp.Results = append(resp.Results, plan)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health reports liveness
func (h *NormalizeHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
