// Package identity manages the stable user identifier for this installation:
// a short random token generated once and reused for every recorded event.
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const fileName = "user_id"

// Load returns the installation's user identifier, generating and persisting
// one under dataDir on first use.
func Load(dataDir string) (string, error) {
	path := filepath.Join(dataDir, fileName)

	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("read user id: %w", err)
	}

	id, err := generate()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0600); err != nil {
		return "", fmt.Errorf("persist user id: %w", err)
	}
	return id, nil
}

func generate() (string, error) {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "u_" + hex.EncodeToString(bytes), nil
}
