package bankio

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/mind-engage/quizbank/internal/question"
	"github.com/mind-engage/quizbank/internal/vault"
)

const (
	plainSuffix     = ".json"
	encryptedSuffix = ".encrypted.json"
)

type ExportOptions struct {
	Password string // empty exports plain JSON
	Pretty   bool   // 2-space indentation
	Now      func() time.Time
}

type Exported struct {
	Data      []byte
	Encrypted bool
	Filename  string

	// Warning is set when encryption was requested but failed and the
	// plain JSON was exported instead.
	Warning error
}

// Export serializes b and, when a password is given, wraps it in an
// encrypted envelope. Encryption failure is not fatal: the plain document
// is returned with Warning set.
func Export(b question.Bank, opts ExportOptions) (Exported, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	doc, err := marshal(projection(b), opts.Pretty)
	if err != nil {
		return Exported{}, fmt.Errorf("export: marshal bank: %w", err)
	}
	out := Exported{Data: doc, Filename: Filename(b.Name, false)}
	if opts.Password == "" {
		return out, nil
	}

	env, err := vault.NewEnvelope(opts.Password, doc, now())
	if err == nil {
		var sealed []byte
		if sealed, err = marshal(env, opts.Pretty); err == nil {
			return Exported{Data: sealed, Encrypted: true, Filename: Filename(b.Name, true)}, nil
		}
	}
	out.Warning = fmt.Errorf("export: encryption failed, exported unencrypted: %w", err)
	return out, nil
}

// projection keeps exactly the persisted bank fields and turns nil slices
// into empty arrays so the file always re-imports as a full bank.
func projection(b question.Bank) question.Bank {
	p := question.Bank{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Questions:   make([]question.Question, len(b.Questions)),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	for i, q := range b.Questions {
		if q.Choices == nil {
			q.Choices = []question.Choice{}
		}
		if q.Tags == nil {
			q.Tags = []string{}
		}
		p.Questions[i] = q
	}
	return p
}

func marshal(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// Filename builds a download name from the bank name.
func Filename(name string, encrypted bool) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	base := strings.TrimSuffix(sb.String(), "-")
	if base == "" {
		base = "question-bank"
	}
	if encrypted {
		return base + encryptedSuffix
	}
	return base + plainSuffix
}
