package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/quizbank/internal/bank"
	"github.com/mind-engage/quizbank/internal/bankio"
	"github.com/mind-engage/quizbank/internal/question"
)

func ListBanksHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context(), bank.ListOpts{
			Q:      strings.TrimSpace(r.URL.Query().Get("q")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []bank.Summary{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// POST /banks  full bank JSON; id is assigned when missing
func CreateBankHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var b question.Bank
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		b.Name = strings.TrimSpace(b.Name)
		if b.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		for i, q := range b.Questions {
			if q.Difficulty != "" && !q.Difficulty.Valid() {
				http.Error(w, fmt.Sprintf("question %d: unknown difficulty %q", i, q.Difficulty), http.StatusBadRequest)
				return
			}
			q = bankio.NormalizeAuthored(q, now)
			if err := question.CheckChoiceCount(q.ResolvedType(), len(q.Choices)); err != nil {
				http.Error(w, fmt.Sprintf("question %d: %v", i, err), http.StatusBadRequest)
				return
			}
			b.Questions[i] = q
		}
		b.UpdatedAt = now
		if err := store.Put(r.Context(), b); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		saved, err := store.Get(r.Context(), b.ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	}
}

func GetBankHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := loadBank(w, r, store)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func DeleteBankHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.Delete(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, bank.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// loadBank writes the error response itself and reports whether b is usable.
func loadBank(w http.ResponseWriter, r *http.Request, store bank.Store) (question.Bank, bool) {
	b, err := store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, bank.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return question.Bank{}, false
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return question.Bank{}, false
	}
	return b, true
}
