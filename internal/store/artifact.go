package store

import (
	"os"
	"path/filepath"
	"regexp"
)

var unsafeKeyChars = regexp.MustCompile(`[^\w.-]+`)

// SanitizeKey replaces every run of characters outside [A-Za-z0-9_.-] with
// a single underscore.
func SanitizeKey(key string) string {
	return unsafeKeyChars.ReplaceAllString(key, "_")
}

// ArtifactStore keeps raw class-data bodies at <root>/<term>/<key>.xml.
type ArtifactStore struct {
	root string
	term string
}

func NewArtifactStore(root, term string) ArtifactStore {
	return ArtifactStore{root: root, term: term}
}

func (s ArtifactStore) Dir() string {
	return filepath.Join(s.root, s.term)
}

func (s ArtifactStore) PathFor(cnKey string) string {
	return filepath.Join(s.Dir(), SanitizeKey(cnKey)+".xml")
}

// Save writes body unchanged, replacing any previous artifact for the key,
// and returns its path.
func (s ArtifactStore) Save(cnKey string, body []byte) (string, error) {
	err := os.MkdirAll(s.Dir(), 0755)
	if err != nil {
		return "", err
	}
	path := s.PathFor(cnKey)
	err = os.WriteFile(path, body, 0644)
	if err != nil {
		return "", err
	}
	return path, nil
}

func (s ArtifactStore) Load(cnKey string) ([]byte, error) {
	return os.ReadFile(s.PathFor(cnKey))
}
