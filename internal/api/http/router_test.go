package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/mind-engage/quizbank/internal/auth/middleware"
	"github.com/mind-engage/quizbank/internal/bank"
	"github.com/mind-engage/quizbank/internal/question"
	"github.com/mind-engage/quizbank/internal/ratelimit"
	"github.com/mind-engage/quizbank/internal/revision"
	"github.com/mind-engage/quizbank/internal/storage"
	syncx "github.com/mind-engage/quizbank/internal/sync"
)

type memEvents struct {
	mu     sync.Mutex
	events []syncx.Event
}

func (m *memEvents) Append(_ context.Context, e syncx.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memEvents) Since(_ context.Context, after int64, limit int) ([]syncx.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []syncx.Event
	for i, e := range m.events {
		e.Offset = int64(i + 1)
		if e.Offset > after && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEvents) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	t      *testing.T
	h      http.Handler
	store  bank.Store
	events *memEvents
	authn  *auth.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	blobs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	f := &fixture{
		t:      t,
		store:  bank.NewMemoryStore(),
		events: &memEvents{},
		authn:  auth.NewAuthService("test-secret"),
	}
	f.h = NewRouter(Deps{
		Store:     f.store,
		Blobs:     blobs,
		Events:    f.events,
		Feed:      f.events,
		Sessions:  revision.NewSessions(0),
		Auth:      f.authn,
		Creds:     auth.Credentials{AllowDevUsers: true},
		LocalAuth: true,
	})
	return f
}

func (f *fixture) do(role, method, path string, body []byte, hdr map[string]string) *httptest.ResponseRecorder {
	f.t.Helper()
	return f.doAs(role+"-user", role, method, path, body, hdr)
}

func (f *fixture) doAs(sub, role, method, path string, body []byte, hdr map[string]string) *httptest.ResponseRecorder {
	f.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if role != "" {
		tok, err := f.authn.IssueJWT(sub, role)
		require.NoError(f.t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) seed() question.Bank {
	b := question.Bank{
		ID:   "b1",
		Name: "Physics Basics",
		Questions: []question.Question{
			{ID: "q1", Question: "2+2?", Choices: []question.Choice{{Value: "3"}, {Value: "4", IsCorrect: true}}},
			{ID: "q2", Question: "pi?", Choices: []question.Choice{{Value: "3.14159", IsCorrect: true}}},
		},
	}
	require.NoError(f.t, f.store.Put(context.Background(), b))
	return b
}

func TestLoginAndAuth(t *testing.T) {
	f := newFixture(t)

	rec := f.do("", http.MethodPost, "/auth/login", []byte(`{"username":"ann","password":"ann","role":"author"}`), nil)
	require.Equal(t, 200, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "author", out["role"])
	assert.NotEmpty(t, out["access_token"])

	assert.Equal(t, 401, f.do("", http.MethodGet, "/banks", nil, nil).Code)
	assert.Equal(t, 200, f.do("learner", http.MethodGet, "/banks", nil, nil).Code)
	assert.Equal(t, 200, f.do("", http.MethodGet, "/healthz", nil, nil).Code)
	assert.Equal(t, 200, f.do("", http.MethodGet, "/readyz", nil, nil).Code)
}

func TestClassifyAndValidate(t *testing.T) {
	f := newFixture(t)

	rec := f.do("learner", http.MethodPost, "/questions/classify",
		[]byte(`{"choices":[{"value":"True","isCorrect":true},{"value":"False"}]}`), nil)
	require.Equal(t, 200, rec.Code)
	var cls struct {
		Type   question.Type       `json:"type"`
		Config question.TypeConfig `json:"config"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cls))
	assert.Equal(t, question.TrueFalse, cls.Type)
	assert.Equal(t, 2, cls.Config.MinChoices)

	rec = f.do("learner", http.MethodPost, "/questions/validate",
		[]byte(`{"selected":["3.0000000001"],"correct":["3"],"type":"numerical"}`), nil)
	require.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"correct":true}`, rec.Body.String())

	rec = f.do("learner", http.MethodPost, "/questions/validate",
		[]byte(`{"selected":["a"],"correct":["a"],"type":"bogus"}`), nil)
	assert.Equal(t, 400, rec.Code)
}

func TestBankCRUD(t *testing.T) {
	f := newFixture(t)

	body := `{"name":"Chem","questions":[{"question":"H2O?","choices":[{"value":"water","isCorrect":true},{"value":"fire"}]}]}`
	assert.Equal(t, 403, f.do("learner", http.MethodPost, "/banks", []byte(body), nil).Code)

	rec := f.do("author", http.MethodPost, "/banks", []byte(body), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created question.Bank
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	require.Len(t, created.Questions, 1)
	assert.NotEmpty(t, created.Questions[0].ID)
	assert.Equal(t, question.DifficultyEasy, created.Questions[0].Difficulty)

	rec = f.do("learner", http.MethodGet, "/banks/"+created.ID, nil, nil)
	require.Equal(t, 200, rec.Code)

	rec = f.do("learner", http.MethodGet, "/banks?q=che", nil, nil)
	var list []bank.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].QuestionCount)

	assert.Equal(t, 204, f.do("author", http.MethodDelete, "/banks/"+created.ID, nil, nil).Code)
	assert.Equal(t, 404, f.do("author", http.MethodGet, "/banks/"+created.ID, nil, nil).Code)
	assert.Equal(t, 404, f.do("author", http.MethodDelete, "/banks/"+created.ID, nil, nil).Code)
}

func TestCreateBankRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 400, f.do("author", http.MethodPost, "/banks", []byte(`{"name":"  "}`), nil).Code)
	assert.Equal(t, 400, f.do("author", http.MethodPost, "/banks",
		[]byte(`{"name":"x","questions":[{"difficulty":"brutal"}]}`), nil).Code)
	// true/false allows exactly two choices
	assert.Equal(t, 400, f.do("author", http.MethodPost, "/banks",
		[]byte(`{"name":"x","questions":[{"questionType":"true_false","choices":[{"value":"a"},{"value":"b"},{"value":"c","isCorrect":true}]}]}`), nil).Code)
}

func TestExportImportRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.seed()

	rec := f.do("author", http.MethodGet, "/banks/b1/export", nil, nil)
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, `attachment; filename="physics-basics.json"`, rec.Header().Get("Content-Disposition"))
	plain := rec.Body.Bytes()

	rec = f.do("author", http.MethodGet, "/banks/b1/export?pretty=1", nil, map[string]string{PasswordHeader: "s3cret"})
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "physics-basics.encrypted.json")
	assert.Empty(t, rec.Header().Get("X-Export-Warning"))
	sealed := rec.Body.Bytes()
	assert.Contains(t, string(sealed), `"algorithm": "AES-GCM"`)

	require.NoError(t, f.store.Delete(context.Background(), "b1"))

	// no password on an encrypted file asks for one
	rec = f.do("author", http.MethodPost, "/banks/import", sealed, nil)
	assert.Equal(t, http.StatusPreconditionRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_cancelled")

	rec = f.do("author", http.MethodPost, "/banks/import", sealed, map[string]string{PasswordHeader: "wrong"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "decryption_failed")

	rec = f.do("author", http.MethodPost, "/banks/import", sealed, map[string]string{PasswordHeader: "s3cret"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"encrypted":true`)

	got, err := f.store.Get(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "Physics Basics", got.Name)
	assert.Len(t, got.Questions, 2)

	rec = f.do("author", http.MethodPost, "/banks/import", plain, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, []string{
		syncx.TypeBankExported, syncx.TypeBankExported, syncx.TypeBankImported, syncx.TypeBankImported,
	}, f.events.types())
}

func TestImportQuestionsIntoBank(t *testing.T) {
	f := newFixture(t)
	f.seed()

	arr := `[{"id":"q3","question":"new","choices":[{"value":"yes","isCorrect":true},{"value":"no"}]}]`
	rec := f.do("author", http.MethodPost, "/banks/import?into=b1", []byte(arr), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	got, err := f.store.Get(context.Background(), "b1")
	require.NoError(t, err)
	assert.Len(t, got.Questions, 3)

	rec = f.do("author", http.MethodPost, "/banks/import?into=missing", []byte(arr), nil)
	assert.Equal(t, 404, rec.Code)

	// without a target a new bank is created
	rec = f.do("author", http.MethodPost, "/banks/import", []byte(arr), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, strings.HasPrefix(out["name"].(string), "Imported "))
}

func TestImportErrors(t *testing.T) {
	f := newFixture(t)
	for body, kind := range map[string]string{
		`{not json`:        "malformed_json",
		`{"hello":"world"}`: "unrecognized_format",
		`[1,2]`:            "invalid_question_shape",
	} {
		rec := f.do("author", http.MethodPost, "/banks/import", []byte(body), nil)
		assert.Equal(t, 400, rec.Code, body)
		assert.Contains(t, rec.Body.String(), kind, body)
	}
	assert.Equal(t, 403, f.do("learner", http.MethodPost, "/banks/import", []byte(`[]`), nil).Code)
}

func TestBackup(t *testing.T) {
	f := newFixture(t)
	f.seed()

	rec := f.do("author", http.MethodPost, "/banks/b1/backups", nil, map[string]string{PasswordHeader: "pw"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Key       string `json:"key"`
		URL       string `json:"url"`
		Encrypted bool   `json:"encrypted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, strings.HasPrefix(out.Key, "backups/b1/"))
	assert.True(t, strings.HasSuffix(out.Key, ".encrypted.json"))
	assert.True(t, strings.HasPrefix(out.URL, "file://"))
	assert.True(t, out.Encrypted)
	assert.Contains(t, f.events.types(), syncx.TypeBankBackedUp)

	assert.Equal(t, 404, f.do("author", http.MethodPost, "/banks/nope/backups", nil, nil).Code)
}

func TestRevisionFlow(t *testing.T) {
	f := newFixture(t)
	f.seed()

	rec := f.do("learner", http.MethodPost, "/banks/b1/revision", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var test revision.Test
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &test))
	require.Len(t, test.Questions, 2)
	for _, q := range test.Questions {
		for _, c := range q.Choices {
			assert.False(t, c.IsCorrect, "answers leaked for %s", q.ID)
		}
	}

	sub, _ := json.Marshal(map[string]any{
		"test_id": test.ID,
		"answers": map[string][]string{"q1": {"4"}, "q2": {"3.14159"}},
	})
	rec = f.do("learner", http.MethodPost, "/revision/score", sub, nil)
	require.Equal(t, 200, rec.Code)
	var rep revision.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, 2, rep.Correct)
	assert.InDelta(t, 100.0, rep.Percent, 1e-9)

	// one submission per test
	rec = f.do("learner", http.MethodPost, "/revision/score", sub, nil)
	assert.Equal(t, 404, rec.Code)

	rec = f.do("learner", http.MethodPost, "/banks/b1/revision", []byte(`{"tags":["nothing-has-this"]}`), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEventFeed(t *testing.T) {
	f := newFixture(t)
	f.seed()
	require.Equal(t, 200, f.do("author", http.MethodGet, "/banks/b1/export", nil, nil).Code)
	require.Equal(t, 200, f.do("author", http.MethodGet, "/banks/b1/export", nil, nil).Code)

	assert.Equal(t, 403, f.do("author", http.MethodGet, "/events", nil, nil).Code)

	rec := f.do("admin", http.MethodGet, "/events?after=1", nil, nil)
	require.Equal(t, 200, rec.Code)
	var evs []syncx.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evs))
	require.Len(t, evs, 1)
	assert.Equal(t, int64(2), evs[0].Offset)
	assert.Equal(t, syncx.TypeBankExported, evs[0].Type)
	assert.Contains(t, evs[0].DataJSON, `"by":"author-user"`)
}

func TestCreateEssayKeepsEmptyChoices(t *testing.T) {
	f := newFixture(t)

	body := `{"id":"e","name":"Essays","questions":[{"id":"q1","question":"Discuss.","choices":[],"questionType":"essay"}]}`
	rec := f.do("author", http.MethodPost, "/banks", []byte(body), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got, err := f.store.Get(context.Background(), "e")
	require.NoError(t, err)
	require.Len(t, got.Questions, 1)
	q := got.Questions[0]
	assert.Empty(t, q.Choices)
	assert.Equal(t, question.Essay, q.ResolvedType())
	assert.False(t, q.CreatedAt.IsZero())

	rec = f.do("learner", http.MethodPost, "/banks/e/revision", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var test revision.Test
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &test))

	sub, _ := json.Marshal(map[string]any{"test_id": test.ID, "answers": map[string][]string{"q1": {"banana"}}})
	rec = f.do("learner", http.MethodPost, "/revision/score", sub, nil)
	require.Equal(t, 200, rec.Code)
	var rep revision.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, 0, rep.Correct)
}

func TestRevisionBelongsToStarter(t *testing.T) {
	f := newFixture(t)
	f.seed()

	rec := f.doAs("ann", "learner", http.MethodPost, "/banks/b1/revision", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var test revision.Test
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &test))

	sub, _ := json.Marshal(map[string]any{"test_id": test.ID, "answers": map[string][]string{"q1": {"4"}}})
	assert.Equal(t, 404, f.doAs("bob", "learner", http.MethodPost, "/revision/score", sub, nil).Code)
	assert.Equal(t, 200, f.doAs("ann", "learner", http.MethodPost, "/revision/score", sub, nil).Code)
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	h := NewRouter(Deps{
		Store:   bank.NewMemoryStore(),
		Auth:    auth.NewAuthService("test-secret"),
		Limiter: ratelimit.New(1, 1),
	})

	passed := 0
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			passed++
		}
	}
	assert.Equal(t, 1, passed)
}
