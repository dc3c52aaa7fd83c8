// Package index implements C3 File Index: the `{path → FileRecord}` map
// keyed by content hash, with cache reuse for unchanged files.
package index

import (
	"github.com/go-openapi/strfmt"

	"github.com/ctxspine/repomap/internal/ast"
)

// FileRecord is the cached parse result for one file, per §3's data model.
// strfmt.DateTime (rather than a hand-rolled RFC3339 layout) backs
// LastParsedAt so JSON marshaling always round-trips to the ISO-8601 form
// §6 requires for state.json.
type FileRecord struct {
	Hash         string              `json:"hash"`
	Language     ast.Language        `json:"language"`
	Tags         []ast.Tag           `json:"tags"`
	Imports      []ast.ImportBinding `json:"imports"`
	LastParsedAt strfmt.DateTime     `json:"lastParsedAt"`
}

// wellFormed reports whether r is eligible for cache reuse per §4.3: the
// record must carry a well-formed imports array. Python files never carry
// imports (§4.2), so a nil Imports slice is well-formed for Python but is a
// sign of a truncated/legacy record for every other language.
func (r FileRecord) wellFormed() bool {
	if r.Language == ast.LanguagePython {
		return true
	}
	return r.Imports != nil
}
