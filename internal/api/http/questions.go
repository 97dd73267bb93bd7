package http

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/quizbank/internal/grading"
	"github.com/mind-engage/quizbank/internal/question"
)

// POST /questions/classify  { "choices": [{ "value": "...", "isCorrect": true }] }
func ClassifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Choices []question.Choice `json:"choices"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		t := question.Detect(req.Choices)
		writeJSON(w, http.StatusOK, map[string]any{
			"type":   t,
			"config": question.ConfigFor(t),
		})
	}
}

// POST /questions/validate  { "selected": [...], "correct": [...], "type": "numerical" }
func ValidateHandler(g *grading.Grader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Selected []string      `json:"selected"`
			Correct  []string      `json:"correct"`
			Type     question.Type `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Type != "" && !req.Type.Valid() {
			http.Error(w, "unknown question type", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{
			"correct": g.Validate(req.Selected, req.Correct, req.Type),
		})
	}
}
