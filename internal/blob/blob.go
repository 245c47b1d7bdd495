// Package blob stores message image attachments. Clients send
// images as data-URI encoded base64; the store decodes them, writes
// the bytes out, and hands back the URL that goes on the message
// row.
package blob

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidDataURI is returned for payloads that are not a
// well-formed base64 data URI.
var ErrInvalidDataURI = errors.New("invalid data URI")

// Store is the blob boundary consumed by the session gateway.
type Store interface {
	// StoreDataURI decodes and persists a data-URI blob, returning
	// the public URL of the stored file.
	StoreDataURI(dataURI string) (string, error)
}

// DiskStore writes blobs to a local directory served under a public
// URL prefix.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates the storage directory if needed.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// StoreDataURI handles payloads of the form
// "data:image/png;base64,<encoded>". The file extension comes from
// the mime subtype and the name is a random hex uuid.
func (s *DiskStore) StoreDataURI(dataURI string) (string, error) {
	head, encoded, ok := strings.Cut(dataURI, ";base64,")
	if !ok || !strings.HasPrefix(head, "data:") {
		return "", ErrInvalidDataURI
	}
	mime := strings.TrimPrefix(head, "data:")
	slash := strings.LastIndex(mime, "/")
	if slash < 0 {
		return "", ErrInvalidDataURI
	}
	ext := mime[slash+1:]
	if ext == "" || strings.ContainsAny(ext, `.\/:;+`) {
		return "", ErrInvalidDataURI
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}

	name := strings.ReplaceAll(uuid.New().String(), "-", "") + "." + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return s.baseURL + "/" + name, nil
}
