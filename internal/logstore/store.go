package logstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Store is a directory of raw job-log artifacts, one file per job id, named
// <id>.log. The manifest decides which ids are valid; the store only persists
// and lists them.
type Store struct {
	dir string
}

// Open ensures the directory exists and returns a store over it.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("log directory is required")
	}
	if err := Mkdir(dir); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Path returns the artifact file path for a job id.
func (s *Store) Path(id int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.log", id))
}

// Write persists an artifact for a job id. The write is atomic; the file is
// named by the job id and never reused for another job.
func (s *Store) Write(id int, text string) error {
	return WriteBytes(s.Path(id), []byte(text))
}

func (s *Store) Exists(id int) bool {
	_, err := os.Stat(s.Path(id))
	return err == nil
}

// Read returns the artifact text for a job id.
func (s *Store) Read(id int) (string, error) {
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		return "", fmt.Errorf("read artifact %s: %w", s.Path(id), err)
	}
	return string(data), nil
}

// IDs lists every persisted job id, sorted. Files whose stem is not an
// integer are not artifacts and are ignored.
func (s *Store) IDs() ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read log directory %s: %w", s.dir, err)
	}

	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".log") {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSuffix(name, ".log"))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}
