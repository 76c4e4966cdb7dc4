// Package artifact persists pipeline outputs under a project base directory.
//
// Artifacts are identified by their relative path. JSON payloads (maps and
// slices) are written pretty-printed; everything else is written as raw text.
// The backlog and architecture markdown ledgers are cumulative documents that
// only ever gain sections, keyed by story ID.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Store manages artifact files rooted at a project base directory.
type Store struct {
	baseDir string
	logger  *zap.Logger
}

// NewStore creates a Store rooted at baseDir. A nil logger disables logging.
func NewStore(baseDir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{baseDir: baseDir, logger: logger}
}

// BaseDir returns the store's root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Path resolves an artifact name to its absolute path under the base directory.
func (s *Store) Path(name string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(name))
}

// SaveArtifact writes content to <base>/<name>, creating parent directories as
// needed. Maps and slices are written as pretty-printed JSON; strings and byte
// slices as raw text. Overwrites unconditionally.
func (s *Store) SaveArtifact(name string, content any) error {
	path := s.Path(name)
	switch v := content.(type) {
	case string:
		return WriteAtomic(path, []byte(v))
	case []byte:
		return WriteAtomic(path, v)
	default:
		return WriteJSON(path, content)
	}
}

// LoadArtifact reads the artifact at name. Names ending in .json are parsed
// into a map or slice; everything else is returned as a string. A missing file
// returns (nil, nil). Malformed JSON in a .json file propagates as an error.
func (s *Store) LoadArtifact(name string) (any, error) {
	path := s.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read artifact %s: %w", name, err)
	}
	if strings.HasSuffix(name, ".json") {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parse artifact %s: %w", name, err)
		}
		return v, nil
	}
	return string(data), nil
}

// AppendBacklog adds a "## <id>: <title>" section to backlog.md unless a
// section for id already exists. Idempotent by construction.
func (s *Store) AppendBacklog(id, title, body string) error {
	return s.appendLedger("backlog.md", "# Product Backlog", id, title, body)
}

// AppendArchitecture adds a section to architecture.md, same idempotency rule
// as the backlog.
func (s *Store) AppendArchitecture(id, title, body string) error {
	return s.appendLedger("architecture.md", "# Architecture", id, title, body)
}

// appendLedger implements the shared append-if-absent ledger update. The guard
// matches on the "## <id>:" heading, so re-processing a story is a no-op.
func (s *Store) appendLedger(name, header, id, title, body string) error {
	path := s.Path(name)
	content := ""
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		content = string(data)
	case os.IsNotExist(err):
		content = header + "\n"
	default:
		return fmt.Errorf("read %s: %w", name, err)
	}

	heading := fmt.Sprintf("## %s:", id)
	if strings.Contains(content, heading) {
		s.logger.Debug("ledger section already present", zap.String("file", name), zap.String("id", id))
		return nil
	}

	section := fmt.Sprintf("\n%s %s\n\n%s\n", heading, title, strings.TrimSpace(body))
	return WriteAtomic(path, []byte(content+section))
}
