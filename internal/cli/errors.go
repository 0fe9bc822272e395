package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/bionicotaku/lingo-utils-licensex"
)

// ErrUsage marks command line misuse. Commands exit with status 2 for it.
var ErrUsage = errors.New("usage error")

// IsUsage reports whether err is a usage error from the CLI or the library.
func IsUsage(err error) bool {
	return errors.Is(err, ErrUsage) || licensex.CodeOf(err) == licensex.ErrCodeUsage
}

// Exit codes shared by the commands.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsUsage(err):
		return ExitUsage
	default:
		return ExitFailure
	}
}

// Report prints err for the named command and returns the matching exit code.
func Report(w io.Writer, prog string, err error) int {
	fmt.Fprintf(w, "%s: %v\n", prog, err)
	if IsUsage(err) {
		fmt.Fprintf(w, "run '%s -h' for usage\n", prog)
	}
	return ExitCode(err)
}
