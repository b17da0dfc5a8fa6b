package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/mindprint/internal/store"
)

// userIDFileName holds the persistent installation identity under the base
// directory.
const userIDFileName = "user_id"

// UserID returns the stable identity for this installation, creating and
// persisting one on first use.
func UserID(baseDir string) (string, error) {
	path := filepath.Join(baseDir, userIDFileName)

	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read user ID: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create base directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0600); err != nil {
		return "", fmt.Errorf("failed to persist user ID: %w", err)
	}
	return id, nil
}

// HostFingerprint derives a short stable identifier for the host. It never
// includes the raw hostname.
func HostFingerprint() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	sum := sha256.Sum256([]byte(hostname + "|" + runtime.GOOS + "|" + runtime.GOARCH))
	return hex.EncodeToString(sum[:])[:16]
}

// Snapshot builds an installation record for telemetry upserts. Metadata
// carries coarse environment details only.
func Snapshot(userID string) *store.InstallRecord {
	now := time.Now().Unix()
	meta := map[string]string{
		"os":   runtime.GOOS,
		"arch": runtime.GOARCH,
	}
	if exe, err := os.Executable(); err == nil {
		meta["install_dir"] = filepath.Dir(exe)
	}
	return &store.InstallRecord{
		UserID:          userID,
		HostFingerprint: HostFingerprint(),
		FirstSeen:       now,
		LastSeen:        now,
		Metadata:        meta,
	}
}
