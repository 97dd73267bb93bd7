package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	auth "github.com/mind-engage/quizbank/internal/auth/middleware"
	"github.com/mind-engage/quizbank/internal/bank"
	"github.com/mind-engage/quizbank/internal/bankio"
	"github.com/mind-engage/quizbank/internal/question"
	"github.com/mind-engage/quizbank/internal/storage"
	syncx "github.com/mind-engage/quizbank/internal/sync"
)

// PasswordHeader carries the export/import password so it never lands in
// access logs.
const PasswordHeader = "X-Bank-Password"

const maxImportBytes = 32 << 20

// GET /banks/{id}/export?pretty=1
func ExportBankHandler(store bank.Store, events syncx.Recorder, log *slog.Logger, prettyDefault bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := loadBank(w, r, store)
		if !ok {
			return
		}
		out, err := bankio.Export(b, bankio.ExportOptions{
			Password: r.Header.Get(PasswordHeader),
			Pretty:   parseBoolDefault(r.URL.Query().Get("pretty"), prettyDefault),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if out.Warning != nil {
			log.Warn("export fell back to plain json", "bank", b.ID, "err", out.Warning)
			w.Header().Set("X-Export-Warning", "encryption failed; exported unencrypted")
		}
		record(r.Context(), events, log, syncx.NewEvent(syncx.TypeBankExported, b.ID, map[string]any{
			"encrypted": out.Encrypted,
			"questions": len(b.Questions),
			"by":        auth.SubjectFromContext(r.Context()),
		}))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, out.Filename))
		_, _ = w.Write(out.Data)
	}
}

// POST /banks/{id}/backups  archives an export in blob storage
func BackupBankHandler(store bank.Store, blobs storage.BlobStore, events syncx.Recorder, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := loadBank(w, r, store)
		if !ok {
			return
		}
		now := time.Now().UTC()
		out, err := bankio.Export(b, bankio.ExportOptions{
			Password: r.Header.Get(PasswordHeader),
			Now:      func() time.Time { return now },
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if out.Warning != nil {
			log.Warn("backup stored unencrypted", "bank", b.ID, "err", out.Warning)
		}
		suffix := ".json"
		if out.Encrypted {
			suffix = ".encrypted.json"
		}
		key, err := blobs.Put(storage.BackupKey(b.ID, now, suffix), bytes.NewReader(out.Data))
		if err != nil {
			http.Error(w, "store backup: "+err.Error(), http.StatusInternalServerError)
			return
		}
		url, err := blobs.SignedURL(key)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		record(r.Context(), events, log, syncx.NewEvent(syncx.TypeBankBackedUp, b.ID, map[string]any{
			"key":       key,
			"encrypted": out.Encrypted,
			"by":        auth.SubjectFromContext(r.Context()),
		}))
		writeJSON(w, http.StatusCreated, map[string]any{
			"key":       key,
			"url":       url,
			"encrypted": out.Encrypted,
		})
	}
}

// POST /banks/import[?into=<bankID>]  raw file body
//
// A bank file is stored under its own id. A bare question array is merged
// into ?into, or becomes a new bank when into is empty.
func ImportBankHandler(store bank.Store, events syncx.Recorder, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		p, err := bankio.Parse(r.Context(), raw, bankio.StaticPassword(r.Header.Get(PasswordHeader)))
		if err != nil {
			writeImportError(w, err)
			return
		}

		into := strings.TrimSpace(r.URL.Query().Get("into"))
		var saved question.Bank
		switch {
		case into != "":
			saved, err = store.AppendQuestions(r.Context(), into, p.Questions)
		case p.Kind == bankio.PayloadBank:
			if err = store.Put(r.Context(), *p.Bank); err == nil {
				saved, err = store.Get(r.Context(), p.Bank.ID)
			}
		default:
			now := time.Now().UTC()
			nb := question.Bank{
				ID:        uuid.NewString(),
				Name:      "Imported " + now.Format("2006-01-02 15:04"),
				Questions: p.Questions,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err = store.Put(r.Context(), nb); err == nil {
				saved = nb
			}
		}
		if errors.Is(err, bank.ErrNotFound) {
			http.Error(w, "target bank not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		record(r.Context(), events, log, syncx.NewEvent(syncx.TypeBankImported, saved.ID, map[string]any{
			"encrypted": p.Encrypted,
			"imported":  len(p.Questions),
			"by":        auth.SubjectFromContext(r.Context()),
		}))
		writeJSON(w, http.StatusCreated, map[string]any{
			"bank_id":        saved.ID,
			"name":           saved.Name,
			"imported":       len(p.Questions),
			"question_count": len(saved.Questions),
			"encrypted":      p.Encrypted,
		})
	}
}

func writeImportError(w http.ResponseWriter, err error) {
	var ie *bankio.ImportError
	if !errors.As(err, &ie) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	code := http.StatusBadRequest
	switch ie.Kind {
	case bankio.KindUserCancelled:
		code = http.StatusPreconditionRequired // send the password header
	case bankio.KindDecryptionFailed:
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, map[string]string{"error": ie.Kind.String(), "message": ie.Error()})
}

// record never fails the request; the event log is best effort.
func record(ctx context.Context, events syncx.Recorder, log *slog.Logger, e syncx.Event) {
	if err := events.Append(ctx, e); err != nil {
		log.Error("append event", "type", e.Type, "key", e.Key, "err", err)
	}
}
