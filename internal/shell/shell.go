// Package shell implements the ext2p interactive REPL: the command loop,
// path stack, and ANSI-tinted prompt that consume the internal/ext2 core
// through the narrow surface spec.md §4.8 names (open/close/getDir/
// readFile/getInode/getInodeSize/deleteFile/deleteDir/saveToFile).
package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/mitchellh/go-homedir"

	"github.com/ext2p/ext2p/internal/elog"
	"github.com/ext2p/ext2p/internal/ext2"
)

// rootInode is the reserved root-directory inode number.
const rootInode = 2

// maxTokens caps a single command line at 64 whitespace-delimited
// arguments; anything beyond that is dropped with a warning (spec.md §7).
const maxTokens = 64

// Shell holds all interactive state: the mounted filesystem (nil when
// unmounted), the current-directory inode, and the display path stack.
type Shell struct {
	fs        *ext2.Filesystem
	imagePath string

	cwdInode uint32
	stack    []string // path components below root; root itself is "/"

	out         io.Writer
	in          *bufio.Scanner
	log         elog.Logger
	disableColo bool
	lastFailed  bool
}

// New builds a Shell reading commands from in and writing output to out.
// If imagePath is non-empty it is mounted immediately, matching `ext2p
// [IMAGE]` (spec.md §6); a mount failure is returned to the caller, who
// maps it onto exit code 1.
func New(in io.Reader, out io.Writer, log elog.Logger, disableColors bool, imagePath string) (*Shell, error) {
	sh := &Shell{
		out:         promptWriter(out, disableColors),
		in:          bufio.NewScanner(in),
		log:         log,
		disableColo: disableColors,
		cwdInode:    rootInode,
	}
	if imagePath != "" {
		if err := sh.mount(imagePath); err != nil {
			return nil, err
		}
	}
	return sh, nil
}

// path renders the current path stack as a slash-separated absolute path.
func (sh *Shell) path() string {
	if len(sh.stack) == 0 {
		return "/"
	}
	return "/" + strings.Join(sh.stack, "/")
}

func (sh *Shell) prompt() string {
	base := fmt.Sprintf("%s > ", sh.path())
	return colorPrompt(base, sh.lastFailed, sh.disableColo)
}

// Run drives the command loop until "exit" or EOF. It never returns an
// error for ordinary command failures (those only tint the next prompt);
// it returns an error only if the underlying reader fails.
func (sh *Shell) Run() error {
	for {
		fmt.Fprint(sh.out, sh.prompt())
		if !sh.in.Scan() {
			fmt.Fprintln(sh.out)
			return sh.in.Err()
		}

		line := strings.TrimSpace(sh.in.Text())
		if line == "" {
			continue
		}

		tokens, err := shellwords.Parse(line)
		if err != nil {
			sh.fail(fmt.Sprintf("parse error: %v", err))
			continue
		}
		if len(tokens) > maxTokens {
			sh.log.Warnf("argument truncation: %d tokens given, only the first %d are used", len(tokens), maxTokens)
			tokens = tokens[:maxTokens]
		}
		if len(tokens) == 0 {
			continue
		}

		if tokens[0] == "exit" {
			return nil
		}

		sh.dispatch(tokens[0], tokens[1:])
	}
}

// fail records that the previous command failed (tints the next prompt)
// and prints the message.
func (sh *Shell) fail(msg string) {
	sh.lastFailed = true
	fmt.Fprintln(sh.out, msg)
}

// ok records that the previous command succeeded (clears prompt tinting).
func (sh *Shell) ok() {
	sh.lastFailed = false
}

func (sh *Shell) dispatch(cmd string, args []string) {
	switch cmd {
	case "cat":
		sh.cmdCat(args)
	case "cd":
		sh.cmdCd(args)
	case "ls", "dir":
		sh.cmdLs(args)
	case "stat":
		sh.cmdStat(args)
	case "fsdump":
		sh.cmdFsdump(args)
	case "mount", "mnt":
		sh.cmdMount(args)
	case "umount", "umnt":
		sh.cmdUmount(args)
	case "save":
		sh.cmdSave(args)
	case "rm":
		sh.cmdRm(args)
	case "rmdir":
		sh.cmdRmdir(args)
	case "help":
		sh.cmdHelp(args)
	case "man":
		sh.cmdMan(args)
	case "clear", "cls":
		fmt.Fprint(sh.out, ansiClear)
		sh.ok()
	default:
		if suggestion, ok := suggestCommand(cmd); ok {
			sh.fail(fmt.Sprintf("no such command '%s' (did you mean '%s'?)", cmd, suggestion))
		} else {
			sh.fail(fmt.Sprintf("no such command '%s'", cmd))
		}
	}
}

// requireMounted is a small helper every command needing a mounted
// filesystem calls first.
func (sh *Shell) requireMounted() bool {
	if sh.fs == nil {
		sh.fail(ext2.ErrNotMounted.Error())
		return false
	}
	return true
}

func (sh *Shell) mount(path string) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	fs, err := ext2.Open(expanded)
	if err != nil {
		return err
	}
	fs.Warnf = sh.log.Warnf
	sh.fs = fs
	sh.imagePath = expanded
	sh.cwdInode = rootInode
	sh.stack = nil
	return nil
}
