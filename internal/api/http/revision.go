package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	auth "github.com/mind-engage/quizbank/internal/auth/middleware"
	"github.com/mind-engage/quizbank/internal/bank"
	"github.com/mind-engage/quizbank/internal/revision"
)

// POST /banks/{id}/revision  revision.Options (body optional)
func StartRevisionHandler(store bank.Store, sessions *revision.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var opts revision.Options
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		b, ok := loadBank(w, r, store)
		if !ok {
			return
		}
		t, err := revision.Build(b, opts, time.Now().UTC())
		if errors.Is(err, revision.ErrNoQuestions) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		sessions.Put(t, auth.SubjectFromContext(r.Context()))
		writeJSON(w, http.StatusCreated, revision.StripAnswers(t))
	}
}

// POST /revision/score  { "test_id": "...", "answers": { "<questionID>": ["..."] } }
func ScoreRevisionHandler(sessions *revision.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TestID  string              `json:"test_id"`
			Answers map[string][]string `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		rep, err := sessions.Submit(req.TestID, auth.SubjectFromContext(r.Context()), req.Answers, time.Now().UTC())
		if errors.Is(err, revision.ErrTestNotFound) {
			http.Error(w, "test not found or already submitted", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}
