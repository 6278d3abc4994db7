// Package uploads keeps user files (persona photos, transaccion evidence) in named buckets
// on local disk. Each bucket is a directory under the root, files are served read-only
// by the web server under /uploads/{bucket}/{name}.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
)

// well-known buckets
const (
	BucketFotos      = "fotos_personas"
	BucketEvidencias = "evidencias"
)

// URLPrefix is the public path files are served from
const URLPrefix = "/uploads/"

// errors returned by Save and FileName
var (
	ErrTooLarge     = errors.New("file too large")
	ErrBadExtension = errors.New("file type not allowed")
	ErrBadName      = errors.New("invalid bucket or file name")
)

var allowedExt = map[string]bool{"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "pdf": true}

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.-]*$`)

// Store saves files to local buckets
type Store struct {
	root    string
	maxSize int64
}

// New makes a Store rooted at dir, creating it if needed. maxSize limits every file, in bytes.
func New(dir string, maxSize int64) (*Store, error) {
	if dir == "" {
		return nil, errors.New("empty uploads dir")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir %s: %w", dir, err)
	}
	return &Store{root: dir, maxSize: maxSize}, nil
}

// Root returns the directory with all buckets
func (s *Store) Root() string { return s.root }

// FileName makes a unique name {userID}-{unixnano}.{ext} keeping the extension of the original name
func FileName(userID, original string, now time.Time) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(original), "."))
	if !allowedExt[ext] {
		return "", fmt.Errorf("%q: %w", original, ErrBadExtension)
	}
	if userID == "" {
		userID = "anon"
	}
	return fmt.Sprintf("%s-%d.%s", userID, now.UnixNano(), ext), nil
}

// Save copies r into bucket/name and returns the public URL of the stored file.
// The file is written to a temp name first and renamed, so readers never see a partial file.
func (s *Store) Save(ctx context.Context, bucket, name string, r io.Reader) (string, error) {
	if !nameRe.MatchString(bucket) || !nameRe.MatchString(name) {
		return "", fmt.Errorf("%s/%s: %w", bucket, name, ErrBadName)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, bucket)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // already renamed on success

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	written, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write %s/%s: %w", bucket, name, err)
	}
	if s.maxSize > 0 && written > s.maxSize {
		return "", fmt.Errorf("%s/%s is over %d bytes: %w", bucket, name, s.maxSize, ErrTooLarge)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("failed to store %s/%s: %w", bucket, name, err)
	}
	log.Printf("[DEBUG] stored upload %s/%s, %d bytes", bucket, name, written)
	return URLPrefix + path.Join(bucket, name), nil
}

// Remove deletes a file by its public URL, ignoring URLs not pointing to this store
func (s *Store) Remove(publicURL string) error {
	rel, ok := strings.CutPrefix(publicURL, URLPrefix)
	if !ok {
		return nil
	}
	bucket, name, ok := strings.Cut(rel, "/")
	if !ok || !nameRe.MatchString(bucket) || !nameRe.MatchString(name) {
		return fmt.Errorf("%s: %w", publicURL, ErrBadName)
	}
	if err := os.Remove(filepath.Join(s.root, bucket, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", publicURL, err)
	}
	return nil
}
