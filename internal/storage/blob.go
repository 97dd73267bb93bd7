package storage

import (
	"fmt"
	"io"
	"path"
	"time"
)

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	SignedURL(key string) (string, error) // fs returns "file://..." for dev
}

// BackupKey is where a bank export is archived:
// backups/<bank>/<utc timestamp><suffix>.
func BackupKey(bankID string, at time.Time, suffix string) string {
	return path.Join("backups", bankID, fmt.Sprintf("%s%s", at.UTC().Format("20060102T150405.000Z"), suffix))
}
