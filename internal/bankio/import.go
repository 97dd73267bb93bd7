package bankio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/quizbank/internal/question"
	"github.com/mind-engage/quizbank/internal/vault"
)

// PasswordPrompt asks the user for the password of an encrypted file. It is
// called at most once per Parse. ok=false means the user cancelled.
type PasswordPrompt func(ctx context.Context) (password string, ok bool, err error)

// StaticPassword answers every prompt with pw; an empty pw cancels.
func StaticPassword(pw string) PasswordPrompt {
	return func(context.Context) (string, bool, error) {
		return pw, pw != "", nil
	}
}

type PayloadKind int

const (
	PayloadQuestions PayloadKind = iota + 1 // bare question array
	PayloadBank                             // full bank object
)

// Payload is the normalized result of an import. Bank is set only for
// PayloadBank.
type Payload struct {
	Kind      PayloadKind
	Questions []question.Question
	Bank      *question.Bank
	Encrypted bool
}

type options struct {
	now   func() time.Time
	newID func() string
}

type ParseOption func(*options)

func WithClock(now func() time.Time) ParseOption { return func(o *options) { o.now = now } }
func WithIDs(gen func() string) ParseOption      { return func(o *options) { o.newID = gen } }

// document is the parse boundary: a file is either a plain payload or a
// sealed envelope, never both.
type document struct {
	plain  any
	sealed *vault.Envelope
}

// Parse decodes an exported file, decrypting it through prompt when needed,
// and normalizes every question.
func Parse(ctx context.Context, raw []byte, prompt PasswordPrompt, opts ...ParseOption) (Payload, error) {
	o := options{now: time.Now, newID: newID}
	for _, opt := range opts {
		opt(&o)
	}

	doc, err := readDocument(raw)
	if err != nil {
		return Payload{}, err
	}
	payload := doc.plain
	if doc.sealed != nil {
		if payload, err = unseal(ctx, *doc.sealed, prompt); err != nil {
			return Payload{}, err
		}
	}

	out, err := shape(payload, o.now(), o.newID)
	if err != nil {
		return Payload{}, err
	}
	out.Encrypted = doc.sealed != nil
	return out, nil
}

func readDocument(raw []byte) (document, error) {
	v, err := decodeJSON(raw)
	if err != nil {
		return document{}, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return document{plain: v}, nil
	}
	if enc, _ := m["encrypted"].(bool); !enc {
		return document{plain: v}, nil
	}
	env := vault.Envelope{Encrypted: true}
	env.Algorithm, _ = m["algorithm"].(string)
	env.Data, _ = m["data"].(string)
	env.Timestamp, _ = m["timestamp"].(string)
	return document{sealed: &env}, nil
}

func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, importErr(KindMalformedJSON, err)
	}
	if dec.More() {
		return nil, importErr(KindMalformedJSON, errors.New("trailing data after JSON document"))
	}
	return v, nil
}

func unseal(ctx context.Context, env vault.Envelope, prompt PasswordPrompt) (any, error) {
	if prompt == nil {
		return nil, importErr(KindUserCancelled, errors.New("file is encrypted and no password prompt is available"))
	}
	pw, ok, err := prompt(ctx)
	if err != nil {
		return nil, importErr(KindUserCancelled, err)
	}
	if !ok {
		return nil, importErr(KindUserCancelled, nil)
	}
	if env.Algorithm != "" && env.Algorithm != vault.Algorithm {
		return nil, importErr(KindDecryptionFailed, fmt.Errorf("unsupported algorithm %q", env.Algorithm))
	}
	plain, err := env.Open(pw)
	if err != nil {
		return nil, importErr(KindDecryptionFailed, err)
	}
	return decodeJSON(plain)
}

func shape(v any, now time.Time, newID func() string) (Payload, error) {
	switch t := v.(type) {
	case []any:
		qs, err := normalizeAll(t, now, newID)
		if err != nil {
			return Payload{}, err
		}
		return Payload{Kind: PayloadQuestions, Questions: qs}, nil
	case map[string]any:
		if !isBank(t) {
			break
		}
		qs, err := normalizeAll(t["questions"].([]any), now, newID)
		if err != nil {
			return Payload{}, err
		}
		b := &question.Bank{
			ID:          jsString(t["id"]),
			Name:        jsString(t["name"]),
			Description: plainString(t["description"]),
			Questions:   qs,
			CreatedAt:   parseTime(t["createdAt"], now),
			UpdatedAt:   parseTime(t["updatedAt"], now),
		}
		return Payload{Kind: PayloadBank, Questions: qs, Bank: b}, nil
	}
	return Payload{}, importErr(KindUnrecognizedFormat, errors.New("expected a question array or a bank with id, name and questions"))
}

func isBank(m map[string]any) bool {
	if m["id"] == nil || m["name"] == nil {
		return false
	}
	_, ok := m["questions"].([]any)
	return ok
}

func normalizeAll(items []any, now time.Time, newID func() string) ([]question.Question, error) {
	out := make([]question.Question, 0, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, importErr(KindInvalidQuestionShape, fmt.Errorf("question %d is not an object", i))
		}
		out = append(out, NormalizeQuestion(m, now, newID))
	}
	return out, nil
}
