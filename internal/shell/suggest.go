package shell

// commandNames is the list of recognized top-level commands, used both for
// help output and for edit-distance suggestion on an unknown command.
var commandNames = []string{
	"cat", "cd", "ls", "dir", "stat", "fsdump", "mount", "mnt", "umount",
	"umnt", "save", "rm", "rmdir", "help", "man", "clear", "cls", "exit",
}

// levenshtein returns the edit distance between a and b (insert, delete,
// substitute, each cost 1).
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}

	return prev[lb]
}

// suggestCommand returns the closest known command name to name if its
// edit distance is at most 2, and ok=true; otherwise "", false.
func suggestCommand(name string) (suggestion string, ok bool) {
	best := ""
	bestDist := 3 // anything >2 is not suggested
	for _, c := range commandNames {
		d := levenshtein(name, c)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	if bestDist <= 2 {
		return best, true
	}
	return "", false
}
