package cmdbuilder

import "testing"

func TestNewArgvHasProgramFirst(t *testing.T) {
	cb := New("bash").Arg("-c").Arg("echo hi")
	argv := cb.Argv()
	want := []string{"bash", "-c", "echo hi"}
	if len(argv) != len(want) {
		t.Fatalf("Argv() = %v, want %v", argv, want)
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Errorf("Argv()[%d] = %q, want %q", i, argv[i], want[i])
		}
	}
}

func TestArgsAppendsAll(t *testing.T) {
	cb := New("prog").Args("a", "b", "c")
	if got := cb.Argv(); len(got) != 4 {
		t.Fatalf("Argv() = %v", got)
	}
}

func TestEnvOverridesRecorded(t *testing.T) {
	cb := New("prog").Env("FOO", "bar").Env("BAZ", "qux")
	envs := cb.Envs()
	if len(envs) != 2 || envs[0] != [2]string{"FOO", "bar"} || envs[1] != [2]string{"BAZ", "qux"} {
		t.Errorf("Envs() = %v", envs)
	}
}

func TestValidateRejectsEmbeddedNul(t *testing.T) {
	cb := New("prog").Arg("bad\x00arg")
	if err := cb.Validate(); err != ErrInvalidArg {
		t.Errorf("Validate() = %v, want ErrInvalidArg", err)
	}
}

func TestValidateAcceptsCleanArgs(t *testing.T) {
	cb := New("prog").Arg("clean")
	if err := cb.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

// TestQuoteWindowsArgSimple covers spec scenario S5.
func TestQuoteWindowsArgSimple(t *testing.T) {
	got := QuoteWindowsArg(`a "b" c`)
	want := `"a \"b\" c"`
	if got != want {
		t.Errorf("QuoteWindowsArg() = %q, want %q", got, want)
	}
}

func TestQuoteWindowsArgNoSpecialChars(t *testing.T) {
	if got := QuoteWindowsArg("plain"); got != "plain" {
		t.Errorf("QuoteWindowsArg(plain) = %q, want unquoted", got)
	}
}

func TestQuoteWindowsArgEmptyStringIsQuoted(t *testing.T) {
	if got := QuoteWindowsArg(""); got != `""` {
		t.Errorf("QuoteWindowsArg(\"\") = %q, want \"\\\"\\\"\"", got)
	}
}

// TestQuoteWindowsArgTrailingBackslashes covers spec scenario S5: an
// argument that needs quoting (here, for its embedded space) and ends in
// a run of two backslashes renders that run as four, immediately before
// the closing quote.
func TestQuoteWindowsArgTrailingBackslashes(t *testing.T) {
	arg := "a b" + `\\` // "a b\\" — a space (forces quoting) then two literal backslashes
	got := QuoteWindowsArg(arg)
	want := `"a b` + `\\\\` + `"`
	if got != want {
		t.Errorf("QuoteWindowsArg(%q) = %q, want %q", arg, got, want)
	}
}

// A backslash-only argument has no characters that trigger quoting, so it
// passes through unquoted and the doubling logic never engages.
func TestQuoteWindowsArgBackslashesAloneNeedNoQuoting(t *testing.T) {
	got := QuoteWindowsArg(`foo\\bar`)
	if got != `foo\\bar` {
		t.Errorf("QuoteWindowsArg() = %q, want unquoted passthrough", got)
	}
}

func TestQuoteWindowsArgBackslashBeforeQuote(t *testing.T) {
	// One backslash immediately preceding an embedded quote must become
	// three: double the run (2) plus one more to escape the quote.
	got := QuoteWindowsArg(`a\"b`)
	want := `"a\\\"b"`
	if got != want {
		t.Errorf("QuoteWindowsArg() = %q, want %q", got, want)
	}
}

func TestBuildWindowsCommandLineRejectsEmbeddedNul(t *testing.T) {
	_, _, err := BuildWindowsCommandLine([]string{"prog", "bad\x00"})
	if err != ErrInvalidArg {
		t.Errorf("err = %v, want ErrInvalidArg", err)
	}
}

func TestResolveWindowsExecutableFallsBackToName(t *testing.T) {
	got := ResolveWindowsExecutable("doesnotexist.exe", "", "")
	if got != "doesnotexist.exe" {
		t.Errorf("ResolveWindowsExecutable() = %q", got)
	}
}
