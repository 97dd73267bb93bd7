package storage

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	key, err := s.Put("../../escape/b1.json", strings.NewReader(`{"id":"b1"}`))
	require.NoError(t, err)
	assert.Equal(t, "escape/b1.json", key)

	rc, err := s.Get(key)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"b1"}`, string(b))

	u, err := s.SignedURL(key)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "file://"))
	assert.True(t, strings.HasSuffix(u, "/escape/b1.json"))

	_, err = s.Put("", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestBackupKey(t *testing.T) {
	at := time.Date(2026, 10, 18, 9, 5, 7, 123e6, time.UTC)
	assert.Equal(t, "backups/b1/20261018T090507.123Z.encrypted.json", BackupKey("b1", at, ".encrypted.json"))
}
