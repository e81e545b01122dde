package logstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	storeLockDirName   = ".store.lock"
	storeLockOwnerFile = "owner.json"
)

// StoreLock guards a log directory so at most one retrieval batch writes it
// at a time.
type StoreLock struct {
	lockDir string
}

type storeLockOwner struct {
	PID       int    `json:"pid"`
	CreatedAt string `json:"created_at"`
	Hostname  string `json:"hostname,omitempty"`
}

func AcquireStoreLock(dir string) (StoreLock, error) {
	target := strings.TrimSpace(dir)
	if target == "" {
		return StoreLock{}, fmt.Errorf("log directory is required")
	}

	lockDir := filepath.Join(target, storeLockDirName)
	if err := os.Mkdir(lockDir, 0o755); err != nil {
		if os.IsExist(err) {
			ownerPath := filepath.Join(lockDir, storeLockOwnerFile)
			var owner storeLockOwner
			if readErr := ReadJSON(ownerPath, &owner); readErr == nil && owner.PID > 0 && owner.CreatedAt != "" {
				return StoreLock{}, fmt.Errorf(
					"log directory is locked: %s (pid=%d created_at=%s host=%s)",
					target, owner.PID, owner.CreatedAt, owner.Hostname,
				)
			}
			return StoreLock{}, fmt.Errorf("log directory is locked: %s", target)
		}
		return StoreLock{}, fmt.Errorf("acquire store lock for %s: %w", target, err)
	}

	owner := storeLockOwner{
		PID:       os.Getpid(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostnameOrUnknown(),
	}
	ownerPath := filepath.Join(lockDir, storeLockOwnerFile)
	if err := WriteJSON(ownerPath, owner); err != nil {
		_ = os.Remove(lockDir)
		return StoreLock{}, fmt.Errorf("write store lock owner for %s: %w", target, err)
	}

	return StoreLock{lockDir: lockDir}, nil
}

func (l StoreLock) Release() error {
	if strings.TrimSpace(l.lockDir) == "" {
		return nil
	}
	_ = os.Remove(filepath.Join(l.lockDir, storeLockOwnerFile))
	if err := os.Remove(l.lockDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release store lock %s: %w", l.lockDir, err)
	}
	return nil
}

func hostnameOrUnknown() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "unknown"
	}
	return host
}
