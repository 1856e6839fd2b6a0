package commands

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// useColor returns true if w is a terminal.
func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

// writeDiff writes a character-level diff from prev to next. Insertions and
// deletions are bracketed with {+ +} and [- -], and colored if requested.
func writeDiff(w io.Writer, prev, next string, colored bool) {
	insert := color.New(color.FgGreen)
	remove := color.New(color.FgRed, color.CrossedOut)

	if colored {
		insert.EnableColor()
		remove.EnableColor()
	} else {
		insert.DisableColor()
		remove.DisableColor()
	}

	dmp := diffpatch.New()
	diffs := dmp.DiffMain(prev, next, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	for _, d := range diffs {
		switch d.Type {
		case diffpatch.DiffInsert:
			insert.Fprint(w, "{+"+d.Text+"+}")
		case diffpatch.DiffDelete:
			remove.Fprint(w, "[-"+d.Text+"-]")
		case diffpatch.DiffEqual:
			io.WriteString(w, d.Text)
		}
	}

	io.WriteString(w, "\n")
}
