package ext2

import "github.com/pkg/errors"

// Sentinel errors for the core. Callers use errors.Cause/errors.Is-style
// comparison against these; the shell maps them onto exit/prompt behavior.
var (
	ErrBadMagic      = errors.New("bad superblock magic")
	ErrOutOfBounds   = errors.New("cursor read out of bounds")
	ErrNotADir       = errors.New("not a directory")
	ErrNotAFile      = errors.New("not a regular file")
	ErrNotFound      = errors.New("entry not found")
	ErrBadArgs       = errors.New("bad arguments")
	ErrNotMounted    = errors.New("no filesystem mounted")
	ErrUnimplemented = errors.New("operation out of scope (indirect blocks not supported)")
)
