package shell

import (
	"fmt"
	"time"

	"github.com/cloudfoundry/bytefmt"
	"github.com/davecgh/go-spew/spew"
	"github.com/gobwas/glob"
	"github.com/mitchellh/go-homedir"
	"github.com/sisatech/tablewriter"

	"github.com/ext2p/ext2p/internal/ext2"
)

func (sh *Shell) cmdCat(args []string) {
	if !sh.requireMounted() {
		return
	}
	if len(args) != 1 {
		sh.fail(ext2.ErrBadArgs.Error() + ": usage: cat <name>")
		return
	}

	entry, err := sh.fs.ResolveChild(sh.cwdInode, args[0])
	if err != nil {
		sh.fail(err.Error())
		return
	}
	if entry.FileType != ext2.FileTypeFile {
		sh.fail(ext2.ErrNotAFile.Error())
		return
	}

	data, err := sh.fs.ReadFile(entry.Inode)
	if err != nil {
		sh.fail(err.Error())
		return
	}
	sh.out.Write(data)
	if len(data) == 0 || data[len(data)-1] != '\n' {
		fmt.Fprintln(sh.out)
	}
	sh.ok()
}

func (sh *Shell) cmdCd(args []string) {
	if !sh.requireMounted() {
		return
	}
	if len(args) != 1 {
		sh.fail(ext2.ErrBadArgs.Error() + ": usage: cd <name>")
		return
	}

	name := args[0]
	switch name {
	case ".":
		// no-op
	case "..":
		if len(sh.stack) > 0 {
			parent, err := sh.fs.ResolveChild(sh.cwdInode, "..")
			if err != nil {
				sh.fail(err.Error())
				return
			}
			sh.cwdInode = parent.Inode
			sh.stack = sh.stack[:len(sh.stack)-1]
		}
	default:
		entry, err := sh.fs.ResolveChild(sh.cwdInode, name)
		if err != nil {
			sh.fail(err.Error())
			return
		}
		if entry.FileType != ext2.FileTypeDir {
			sh.fail(ext2.ErrNotADir.Error())
			return
		}
		sh.cwdInode = entry.Inode
		sh.stack = append(sh.stack, name)
	}
	sh.ok()
}

// cmdLs lists the current directory, suppressing "." and "..". An optional
// single glob argument (e.g. "ls *.txt") filters entries by name — a
// feature spec.md's distillation dropped but which SPEC_FULL.md
// reinstates (see DOMAIN STACK).
func (sh *Shell) cmdLs(args []string) {
	if !sh.requireMounted() {
		return
	}

	var pattern glob.Glob
	if len(args) == 1 {
		g, err := glob.Compile(args[0])
		if err != nil {
			sh.fail(ext2.ErrBadArgs.Error() + ": bad glob pattern: " + err.Error())
			return
		}
		pattern = g
	} else if len(args) > 1 {
		sh.fail(ext2.ErrBadArgs.Error() + ": usage: ls [glob]")
		return
	}

	entries, err := sh.fs.GetDir(sh.cwdInode)
	if err != nil {
		sh.fail(err.Error())
		return
	}

	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		if pattern != nil && !pattern.Match(e.Name) {
			continue
		}
		fmt.Fprintf(sh.out, "  %-7s %s\n", ext2.FiletypeName(e.FileType), e.Name)
	}
	sh.ok()
}

func (sh *Shell) cmdStat(args []string) {
	if !sh.requireMounted() {
		return
	}
	if len(args) != 1 {
		sh.fail(ext2.ErrBadArgs.Error() + ": usage: stat <name>")
		return
	}

	entry, err := sh.fs.ResolveChild(sh.cwdInode, args[0])
	if err != nil {
		sh.fail(err.Error())
		return
	}
	in, err := sh.fs.GetInode(entry.Inode)
	if err != nil {
		sh.fail(err.Error())
		return
	}
	size := sh.fs.GetInodeSize(in)

	fmt.Fprintf(sh.out, "  Name:        %s\n", entry.Name)
	fmt.Fprintf(sh.out, "  Inode:       %d\n", entry.Inode)
	fmt.Fprintf(sh.out, "  Type:        %s\n", ext2.FiletypeName(entry.FileType))
	fmt.Fprintf(sh.out, "  Size:        %s\n", bytefmt.ByteSize(size))
	fmt.Fprintf(sh.out, "  Links:       %d\n", in.LinkCount)
	fmt.Fprintf(sh.out, "  Modified:    %s\n", time.Unix(int64(in.ModifyTime), 0).UTC())
	sh.ok()
}

// cmdFsdump prints superblock/geometry diagnostics, grounded on the
// teacher's cmd/vorteil/imageutil/fs.go FS() command. A "-raw" argument
// dumps the decoded superblock struct verbatim via go-spew.
func (sh *Shell) cmdFsdump(args []string) {
	if !sh.requireMounted() {
		return
	}

	if len(args) == 1 && args[0] == "-raw" {
		fmt.Fprintln(sh.out, spew.Sdump(sh.fs.Superblock()))
		sh.ok()
		return
	}

	sb := sh.fs.Superblock()
	table := tablewriter.NewWriter(sh.out)
	table.SetHeader([]string{"field", "value"})
	table.Append([]string{"volume name", sb.VolumeName})
	table.Append([]string{"volume uuid", sb.VolumeUUID.String()})
	table.Append([]string{"block size", bytefmt.ByteSize(uint64(sb.BlockSize()))})
	table.Append([]string{"blocks", fmt.Sprintf("%d / %d", sb.BlockCount-sb.FreeBlocks, sb.BlockCount)})
	table.Append([]string{"inodes", fmt.Sprintf("%d / %d", sb.InodeCount-sb.FreeInodes, sb.InodeCount)})
	table.Append([]string{"block groups", fmt.Sprintf("%d", sh.fs.GroupCount())})
	table.Append([]string{"blocks per group", fmt.Sprintf("%d", sb.BlocksPerGroup)})
	table.Append([]string{"inodes per group", fmt.Sprintf("%d", sb.InodesPerGroup)})
	table.Append([]string{"last mount time", time.Unix(int64(sb.MountTime), 0).UTC().String()})
	table.Append([]string{"last write time", time.Unix(int64(sb.WriteTime), 0).UTC().String()})
	table.Render()
	sh.ok()
}

func (sh *Shell) cmdMount(args []string) {
	if len(args) != 1 {
		sh.fail(ext2.ErrBadArgs.Error() + ": usage: mount <path>")
		return
	}
	if err := sh.mount(args[0]); err != nil {
		sh.fail(err.Error())
		return
	}
	sh.ok()
}

func (sh *Shell) cmdUmount(args []string) {
	if !sh.requireMounted() {
		return
	}
	sh.fs = nil
	sh.imagePath = ""
	sh.cwdInode = rootInode
	sh.stack = nil
	sh.ok()
}

func (sh *Shell) cmdSave(args []string) {
	if !sh.requireMounted() {
		return
	}
	dest := sh.imagePath
	if len(args) == 1 {
		expanded, err := homedir.Expand(args[0])
		if err != nil {
			sh.fail(err.Error())
			return
		}
		dest = expanded
	} else if len(args) > 1 {
		sh.fail(ext2.ErrBadArgs.Error() + ": usage: save [path]")
		return
	}
	if err := sh.fs.Save(dest); err != nil {
		sh.fail(err.Error())
		return
	}
	sh.ok()
}

func (sh *Shell) cmdRm(args []string) {
	if !sh.requireMounted() {
		return
	}
	if len(args) != 1 {
		sh.fail(ext2.ErrBadArgs.Error() + ": usage: rm <name>")
		return
	}
	entry, err := sh.fs.ResolveChild(sh.cwdInode, args[0])
	if err != nil {
		sh.fail(err.Error())
		return
	}
	if err := sh.fs.DeleteFile(sh.cwdInode, entry); err != nil {
		sh.fail(err.Error())
		return
	}
	sh.ok()
}

func (sh *Shell) cmdRmdir(args []string) {
	if !sh.requireMounted() {
		return
	}
	if len(args) != 1 {
		sh.fail(ext2.ErrBadArgs.Error() + ": usage: rmdir <name>")
		return
	}
	entry, err := sh.fs.ResolveChild(sh.cwdInode, args[0])
	if err != nil {
		sh.fail(err.Error())
		return
	}
	if err := sh.fs.DeleteDir(sh.cwdInode, entry); err != nil {
		sh.fail(err.Error())
		return
	}
	sh.ok()
}

var helpText = map[string]string{
	"cat":    "cat <name>    print a regular file's contents",
	"cd":     "cd <name>     change the current directory (.. to go up)",
	"ls":     "ls [glob]     list the current directory",
	"stat":   "stat <name>   print inode metadata for an entry",
	"fsdump": "fsdump [-raw] print superblock/geometry diagnostics",
	"mount":  "mount <path>  open an ext2 image",
	"umount": "umount        close the currently mounted image",
	"save":   "save [path]   write the in-memory image back to disk",
	"rm":     "rm <name>     unlink a regular file",
	"rmdir":  "rmdir <name>  recursively unlink a directory",
	"help":   "help          list commands",
	"man":    "man <cmd>     print the help line of one command",
	"clear":  "clear         clear the terminal screen",
	"exit":   "exit          leave the shell",
}

func (sh *Shell) cmdHelp(args []string) {
	for _, name := range commandNames {
		if text, ok := helpText[name]; ok {
			fmt.Fprintln(sh.out, text)
		}
	}
	sh.ok()
}

func (sh *Shell) cmdMan(args []string) {
	if len(args) != 1 {
		sh.fail(ext2.ErrBadArgs.Error() + ": usage: man <command>")
		return
	}
	text, found := helpText[args[0]]
	if !found {
		sh.fail(fmt.Sprintf("no manual entry for '%s'", args[0]))
		return
	}
	fmt.Fprintln(sh.out, text)
	sh.ok()
}
