package shell

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// promptWriter wraps w with go-colorable on Windows consoles and disables
// ANSI entirely when stdout is not a terminal or colors were explicitly
// disabled, mirroring the teacher's elog.CLI.DisableColors gate.
func promptWriter(w io.Writer, disableColors bool) io.Writer {
	if f, ok := w.(*os.File); ok {
		w = colorable.NewColorable(f)
		if disableColors || !isatty.IsTerminal(f.Fd()) {
			return colorable.NewNonColorable(f)
		}
	}
	return w
}

const (
	ansiRed   = "\033[31m"
	ansiReset = "\033[0m"
	ansiClear = "\033[H\033[2J"
)

// colorPrompt returns prompt tinted red when the previous command failed,
// per spec.md §6 ("after a failed command, the prompt is coloured red").
func colorPrompt(prompt string, failed bool, disableColors bool) string {
	if !failed || disableColors {
		return prompt
	}
	return ansiRed + prompt + ansiReset
}
