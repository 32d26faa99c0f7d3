// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Checkpoint records resume state for the article fetcher: how many
// article operations have completed, and a digest of the summary table
// they were enumerated from. It lives in a sidecar file next to the
// articles table.
type Checkpoint struct {
	// Cursor is the number of article operations already completed in
	// enumeration order.
	Cursor int `yaml:"cursor"`

	// InputSHA256 is the hex digest of the summary table. A changed
	// input between runs invalidates the cursor and is reported as an
	// error rather than silently misbehaving.
	InputSHA256 string `yaml:"input_sha256"`
}

func checkpointPath(outputFile string) string {
	return outputFile + ".checkpoint"
}

// LoadCheckpoint reads the sidecar for outputFile. A missing sidecar
// returns (nil, nil).
func LoadCheckpoint(outputFile string) (*Checkpoint, error) {
	data, err := os.ReadFile(checkpointPath(outputFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := yaml.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("parsing checkpoint: %w", err)
	}
	if cp.Cursor < 0 {
		return nil, fmt.Errorf("checkpoint cursor %d is negative", cp.Cursor)
	}
	return &cp, nil
}

// SaveCheckpoint writes the sidecar for outputFile.
func SaveCheckpoint(outputFile string, cp Checkpoint) error {
	data, err := yaml.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}
	return os.WriteFile(checkpointPath(outputFile), data, 0o644)
}

// InputDigest returns the hex SHA-256 of the file at path.
func InputDigest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
