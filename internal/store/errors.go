package store

import "errors"

// ErrCorruptState is wrapped around any JSON decode failure reading
// state.json or graph.json, per §4.6: "malformed content is propagated
// as an error."
var ErrCorruptState = errors.New("store: corrupt persisted state")

// ErrIndexNotBuilt signals that a caller asked for ranking or graph data
// before any build has ever run for this repository root.
var ErrIndexNotBuilt = errors.New("store: index not built")
