package articles

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/openclaw/hr-agency-api/pkg/logging"
)

// FileStore keeps the article list in a local JSON file. This is the
// development fallback; hosted deployments use the GitHub-backed store.
type FileStore struct {
	path   string
	logger *logging.Logger
}

// NewFileStore creates a file-backed store.
func NewFileStore(path string, logger *logging.Logger) *FileStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &FileStore{path: path, logger: logger}
}

// Load reads the article list. A missing or unparsable file reads as an
// empty list rather than an error.
func (s *FileStore) Load(_ context.Context) ([]Article, string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return []Article{}, "", nil
	}
	var list []Article
	if err := json.Unmarshal(raw, &list); err != nil {
		s.logger.Warn("articles file is not valid JSON, treating as empty", "path", s.path, "error", err)
		return []Article{}, "", nil
	}
	return list, "", nil
}

// Save writes the article list back to disk.
func (s *FileStore) Save(_ context.Context, list []Article, _ string) error {
	raw, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal articles: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write articles file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
