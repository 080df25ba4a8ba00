package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anthonycoffey/simply-voice/config"
)

// Signed and public object URL prefixes. The shapes match the hosted
// storage deployment this service replaces, so stored URLs stay
// pattern-extractable either way.
const (
	SignedURLPrefix = "/storage/v1/object/sign/tts-files/"
	publicURLPrefix = "/storage/v1/object/public/tts-files/"
)

const defaultSignTTL = 7 * 24 * time.Hour

var objectPathPattern = regexp.MustCompile(`/storage/v1/object/(?:sign|public)/tts-files/([^?]+)`)

var (
	ErrObjectNotFound = errors.New("object not found")
	// ErrPathForbidden rejects operations on a path outside the caller's
	// own prefix.
	ErrPathForbidden = errors.New("path does not belong to caller")
	ErrBadSignature  = errors.New("invalid or expired signature")
)

// BlobStore keeps synthesized audio on disk under a per-user prefix and
// issues time-limited HMAC-signed URLs over it. Signed URLs are always
// re-derivable from the stored path; the path is the source of truth.
type BlobStore struct {
	root    string
	secret  []byte
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

func NewBlobStore(cfg config.StorageConfig, baseURL string) *BlobStore {
	ttl := defaultSignTTL
	if cfg.SignTTLHours > 0 {
		ttl = time.Duration(cfg.SignTTLHours) * time.Hour
	}
	return &BlobStore{
		root:    cfg.Dir,
		secret:  []byte(cfg.URLSecret),
		baseURL: baseURL,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Upload persists the audio under {owner}/{timestamp}_{sanitizedName}.wav
// and returns the storage path together with a fresh signed URL.
func (s *BlobStore) Upload(ownerID uuid.UUID, audio []byte, nameHint string) (string, string, error) {
	name := sanitizeName(nameHint)
	path := fmt.Sprintf("%s/%d_%s.wav", ownerID, s.now().UnixMilli(), name)

	full := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", "", fmt.Errorf("create storage dir: %w", err)
	}
	if err := os.WriteFile(full, audio, 0o644); err != nil {
		return "", "", fmt.Errorf("write object: %w", err)
	}

	signed := s.SignURL(path)
	return path, signed, nil
}

// SignURL derives a time-limited access URL for a stored path. Calling it
// twice may yield different URLs; both stay valid until their expiry.
func (s *BlobStore) SignURL(path string) string {
	expires := s.now().Add(s.ttl).Unix()
	token := s.token(path, expires)
	return fmt.Sprintf("%s%s%s?token=%s&expires=%d",
		s.baseURL, SignedURLPrefix, encodePath(path), token, expires)
}

// VerifyToken checks an issued token against the path and expiry it was
// minted for.
func (s *BlobStore) VerifyToken(path, token string, expires int64) error {
	if s.now().Unix() > expires {
		return ErrBadSignature
	}
	want := s.token(path, expires)
	if !hmac.Equal([]byte(want), []byte(token)) {
		return ErrBadSignature
	}
	return nil
}

// Open reads a stored object.
func (s *BlobStore) Open(path string) ([]byte, error) {
	if strings.Contains(path, "..") {
		return nil, ErrObjectNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(path)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return data, nil
}

// Delete removes a stored object. The first path segment must be the
// caller's own ID; guessing another owner's path is rejected.
func (s *BlobStore) Delete(ownerID uuid.UUID, path string) error {
	if strings.Contains(path, "..") {
		return ErrPathForbidden
	}
	owner, _, found := strings.Cut(path, "/")
	if !found || owner != ownerID.String() {
		return ErrPathForbidden
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(path)))
	if os.IsNotExist(err) {
		return ErrObjectNotFound
	}
	return err
}

// Walk visits every stored object with its path and modification time.
func (s *BlobStore) Walk(fn func(path string, modTime time.Time) error) error {
	return filepath.Walk(s.root, func(full string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.root, full)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel), info.ModTime())
	})
}

func (s *BlobStore) token(path string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%d", path, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

// ExtractObjectPath recovers the storage path from a previously issued
// signed or public URL.
func ExtractObjectPath(rawURL string) (string, bool) {
	m := objectPathPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	decoded, err := decodePath(m[1])
	if err != nil {
		return "", false
	}
	return decoded, true
}

// encodePath escapes each path segment while keeping the separators.
func encodePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func decodePath(encoded string) (string, error) {
	segments := strings.Split(encoded, "/")
	for i, seg := range segments {
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			return "", err
		}
		segments[i] = decoded
	}
	return strings.Join(segments, "/"), nil
}

// ownerOfPath parses the owning user ID out of the first path segment.
func ownerOfPath(path string) (uuid.UUID, bool) {
	owner, _, found := strings.Cut(path, "/")
	if !found {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(owner)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// sanitizeName reduces a user-supplied name hint to a safe file name
// fragment: anything but letters and digits becomes an underscore, the
// result is lowercased.
func sanitizeName(hint string) string {
	if hint == "" {
		return "speech"
	}
	var b strings.Builder
	for _, r := range hint {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
