package tui

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/ctxspine/repomap/internal/rank"
)

// Browse renders buckets interactively when stdout is a TTY, falling
// back to plain tab-separated output otherwise (e.g. when piped or run
// in CI). Returns the path of the file the user selected, or "" if the
// browser exited without a selection or ran in plain mode.
func Browse(out io.Writer, buckets rank.Buckets) (string, error) {
	if f, ok := out.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		writePlain(out, buckets)
		return "", nil
	}

	m := newModel(buckets)
	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("tui: %w", err)
	}
	if fm, ok := finalModel.(model); ok {
		return fm.selected, nil
	}
	return "", nil
}

// writePlain emits a tab-separated rendering of every bucket, one file
// per line, for non-interactive consumers (pipes, CI logs).
func writePlain(out io.Writer, buckets rank.Buckets) {
	emit := func(bucket string, files []rank.RankedFile) {
		for _, f := range files {
			fmt.Fprintf(out, "%s\t%.4f\t%s\t%s\n", bucket, f.Score, f.Path, joinReasons(f.Reasons))
		}
	}
	emit("primary", buckets.Primary)
	emit("causal", buckets.Causal)
	emit("contract", buckets.Contract)
	emit("guardrail", buckets.Guardrail)
}

func joinReasons(reasons []string) string {
	if len(reasons) == 0 {
		return "-"
	}
	out := reasons[0]
	for _, r := range reasons[1:] {
		out += "," + r
	}
	return out
}
