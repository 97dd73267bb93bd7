package bankio

import (
	"errors"
	"fmt"
)

type ImportErrorKind int

const (
	KindMalformedJSON ImportErrorKind = iota + 1
	KindUserCancelled
	KindDecryptionFailed
	KindInvalidQuestionShape
	KindUnrecognizedFormat
)

func (k ImportErrorKind) String() string {
	switch k {
	case KindMalformedJSON:
		return "malformed_json"
	case KindUserCancelled:
		return "user_cancelled"
	case KindDecryptionFailed:
		return "decryption_failed"
	case KindInvalidQuestionShape:
		return "invalid_question_shape"
	case KindUnrecognizedFormat:
		return "unrecognized_format"
	default:
		return fmt.Sprintf("import_error(%d)", int(k))
	}
}

// ImportError is returned by Parse for every structural or cryptographic
// failure. Callers branch on Kind: UserCancelled is a quiet abort and
// DecryptionFailed invites a re-prompt.
type ImportError struct {
	Kind ImportErrorKind
	Err  error
}

func (e *ImportError) Error() string {
	if e.Err == nil {
		return "import: " + e.Kind.String()
	}
	return "import: " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *ImportError) Unwrap() error { return e.Err }

// Is matches another *ImportError of the same kind, so
// errors.Is(err, &ImportError{Kind: KindUserCancelled}) works.
func (e *ImportError) Is(target error) bool {
	t, ok := target.(*ImportError)
	return ok && t.Kind == e.Kind
}

func importErr(kind ImportErrorKind, err error) error {
	return &ImportError{Kind: kind, Err: err}
}

// IsKind reports whether err is an ImportError of the given kind.
func IsKind(err error, kind ImportErrorKind) bool {
	var ie *ImportError
	return errors.As(err, &ie) && ie.Kind == kind
}
