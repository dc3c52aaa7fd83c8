// Package store implements C6 Persistence: serializing and deserializing
// index state and the graph to `<root>/.repomap/{state.json,graph.json}`.
//
// Description:
//
//	Reads return "absent" (not an error) when the target file does not
//	exist, matching §4.6's zero-config contract: a fresh checkout with no
//	prior .repomap directory is not an error condition, it's the starting
//	state. Malformed content is propagated as an error — a corrupt
//	state.json must never be silently treated as empty.
//
// Thread Safety: the package holds no mutable state; every function is safe for
// concurrent use as long as callers don't race writes to the same path.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-openapi/strfmt"
	"golang.org/x/mod/semver"

	"github.com/ctxspine/repomap/internal/index"
)

// StateSchemaVersion is the version recorded in state.json. Bump with a
// leading "v" (golang.org/x/mod/semver requires it) whenever the
// FileRecord shape changes in a breaking way.
const StateSchemaVersion = "v1.0.0"

// State is the authoritative artifact described in §4.6: {version,
// generatedAt, repoRoot, files}.
type State struct {
	Version     string                       `json:"version"`
	GeneratedAt strfmt.DateTime              `json:"generatedAt"`
	RepoRoot    string                       `json:"repoRoot"`
	Files       map[string]index.FileRecord  `json:"files"`
}

// Dir returns the `.repomap` directory under repoRoot.
func Dir(repoRoot string) string {
	return filepath.Join(repoRoot, ".repomap")
}

func statePath(repoRoot string) string {
	return filepath.Join(Dir(repoRoot), "state.json")
}

// LoadState reads state.json under repoRoot. A missing file returns a nil
// *State and a nil error. A malformed file returns a non-nil error.
func LoadState(repoRoot string) (*State, error) {
	data, err := os.ReadFile(statePath(repoRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state.json: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return &s, nil
}

// SaveState writes s to state.json under repoRoot, creating the
// `.repomap` directory if needed. Per §4.6, atomic replace is not
// required.
func SaveState(repoRoot string, s *State) error {
	if err := os.MkdirAll(Dir(repoRoot), 0o755); err != nil {
		return fmt.Errorf("create .repomap dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state.json: %w", err)
	}
	if err := os.WriteFile(statePath(repoRoot), data, 0o644); err != nil {
		return fmt.Errorf("write state.json: %w", err)
	}
	return nil
}

// SchemaOutdated reports whether a loaded state's version predates
// StateSchemaVersion, using semantic-version comparison rather than a
// string inequality so "v1.10.0" doesn't sort before "v1.9.0".
func SchemaOutdated(version string) bool {
	if !semver.IsValid(version) {
		return true
	}
	return semver.Compare(version, StateSchemaVersion) < 0
}
