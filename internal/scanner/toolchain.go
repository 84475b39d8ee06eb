package scanner

import "github.com/ethanolivertroy/license-audit/internal/parsers"

// Toolchain describes how to query one package ecosystem: which commands
// list installed packages and show a package's metadata, and how to parse
// their output.
type Toolchain struct {
	Name     string
	Command  []string // argv prefix, e.g. ["python3", "-m", "pip"]
	ListArgs []string
	ShowArgs func(pkg string) []string
	List     parsers.ListParser
	Metadata parsers.MetadataParser
}

// PipToolchain returns the toolchain for pip invoked as command
func PipToolchain(command []string) Toolchain {
	return Toolchain{
		Name:     "pip",
		Command:  command,
		ListArgs: []string{"freeze"},
		ShowArgs: func(pkg string) []string { return []string{"show", pkg} },
		List:     &parsers.PipFreezeParser{},
		Metadata: &parsers.PipShowParser{},
	}
}

// argv returns the executable and its arguments for a subcommand
func (t Toolchain) argv(args []string) (string, []string) {
	full := make([]string, 0, len(t.Command)-1+len(args))
	full = append(full, t.Command[1:]...)
	full = append(full, args...)
	return t.Command[0], full
}
