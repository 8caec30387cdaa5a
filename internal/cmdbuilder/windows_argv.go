package cmdbuilder

import (
	"os"
	"path/filepath"
	"strings"
)

// QuoteWindowsArg renders a single argument the way CreateProcessW's
// CommandLineToArgvW expects to parse it back apart: arguments containing
// space, tab, newline, vertical-tab, or a double quote are wrapped in
// quotes; a run of backslashes is doubled only when it immediately
// precedes a quote (embedded or closing), and an embedded quote is
// escaped with one more backslash than the run preceding it.
func QuoteWindowsArg(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\n\v\"") {
		return arg
	}

	var b strings.Builder
	b.WriteByte('"')

	i := 0
	for i < len(arg) {
		numBackslashes := 0
		for i < len(arg) && arg[i] == '\\' {
			i++
			numBackslashes++
		}

		switch {
		case i == len(arg):
			// Trailing backslash run: double it so the closing quote
			// we're about to emit isn't escaped by it.
			b.WriteString(strings.Repeat(`\`, numBackslashes*2))
		case arg[i] == '"':
			b.WriteString(strings.Repeat(`\`, numBackslashes*2+1))
			b.WriteByte('"')
			i++
		default:
			b.WriteString(strings.Repeat(`\`, numBackslashes))
			b.WriteByte(arg[i])
			i++
		}
	}

	b.WriteByte('"')
	return b.String()
}

// BuildWindowsCommandLine renders the full command line for argv, with
// argv[0] resolved against PATH/PATHEXT by ResolveWindowsExecutable and
// every argument quoted by QuoteWindowsArg. Returns ErrInvalidArg if argv
// is empty or if any entry, argv[0] included, contains an embedded nul.
func BuildWindowsCommandLine(argv []string) (exe string, cmdline string, err error) {
	if len(argv) == 0 {
		return "", "", ErrInvalidArg
	}
	for _, a := range argv {
		if hasEmbeddedNul(a) {
			return "", "", ErrInvalidArg
		}
	}

	exe = ResolveWindowsExecutable(argv[0], os.Getenv("PATH"), os.Getenv("PATHEXT"))

	var b strings.Builder
	b.WriteString(QuoteWindowsArg(exe))
	for _, arg := range argv[1:] {
		b.WriteByte(' ')
		b.WriteString(QuoteWindowsArg(arg))
	}
	return exe, b.String(), nil
}

// ResolveWindowsExecutable resolves name against PATH, trying an exact
// (extensionless) match in each directory first, then each PATHEXT suffix
// in order (replacing any existing extension on name). Falls back to name
// unchanged if nothing on PATH exists.
func ResolveWindowsExecutable(name, pathEnv, pathExtEnv string) string {
	if pathExtEnv == "" {
		pathExtEnv = ".COM;.EXE;.BAT;.CMD"
	}
	exts := filepath.SplitList(pathExtEnv)

	for _, dir := range filepath.SplitList(pathEnv) {
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			return candidate
		}
		for _, ext := range exts {
			if ext == "" {
				continue
			}
			withExt := replaceExt(candidate, ext)
			if fileExists(withExt) {
				return withExt
			}
		}
	}
	return name
}

func replaceExt(path, ext string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + ext
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
