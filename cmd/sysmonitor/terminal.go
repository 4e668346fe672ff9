package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// enableSingleView switches to the alternate screen and hides the cursor so
// every frame replaces the previous one. The returned func undoes it.
func enableSingleView(out io.Writer, logger zerolog.Logger) func() {
	fmt.Fprint(out, "\033[?1049h") // switch to alternate buffer
	fmt.Fprint(out, "\033[?25l")   // hide cursor

	var restore []func()
	stdinFD := int(os.Stdin.Fd())
	if term.IsTerminal(stdinFD) {
		if undoEcho, err := disableInputEcho(stdinFD); err != nil {
			logger.Debug().Err(err).Msg("Unable to suppress stdin echo")
		} else if undoEcho != nil {
			restore = append(restore, undoEcho)
		}
	}

	return func() {
		for i := len(restore) - 1; i >= 0; i-- {
			restore[i]()
		}
		fmt.Fprint(out, "\033[?25h")   // show cursor
		fmt.Fprint(out, "\033[?1049l") // restore main buffer
	}
}
