package marker

import (
	"strings"
	"testing"
)

func TestNewTokensAreUnique(t *testing.T) {
	seen := map[Token]bool{}
	for i := 0; i < 100; i++ {
		tok := New()
		if !strings.HasPrefix(string(tok), "__CMD_") || !strings.HasSuffix(string(tok), "__") {
			t.Fatalf("unexpected token shape: %q", tok)
		}
		if seen[tok] {
			t.Fatalf("duplicate token: %q", tok)
		}
		seen[tok] = true
	}
}

func TestComplete(t *testing.T) {
	tok := Token("__CMD_1__")

	if tok.Complete("some output\n" + tok.Start() + "\n") {
		t.Error("start sentinel alone must not complete")
	}
	if !tok.Complete("noise\n" + tok.End() + "\nmore") {
		t.Error("end sentinel should complete")
	}
}

func TestExtractBetweenSentinels(t *testing.T) {
	tok := Token("__CMD_1__")
	captured := strings.Join([]string{
		"$ echo '" + tok.Start() + "'",
		tok.Start(),
		"$ ls",
		"file1",
		"file2",
		"$ echo '" + tok.End() + "'",
		tok.End(),
		"$",
	}, "\n")

	got := tok.Extract(captured, "ls")
	want := "file1\nfile2"
	if got != want {
		t.Errorf("Extract = %q, want %q", got, want)
	}
}

func TestExtractKeepsNonEchoFirstLine(t *testing.T) {
	tok := Token("__CMD_1__")
	captured := strings.Join([]string{
		tok.Start(),
		"plain output",
		"second line",
		tok.End(),
	}, "\n")

	got := tok.Extract(captured, "some-command")
	if got != "plain output\nsecond line" {
		t.Errorf("Extract = %q", got)
	}
}

func TestExtractEmptyWhenNothingBetween(t *testing.T) {
	tok := Token("__CMD_1__")
	captured := tok.Start() + "\n" + tok.End() + "\n"

	if got := tok.Extract(captured, "true"); got != "" {
		t.Errorf("Extract = %q, want empty", got)
	}
}

func TestExtractTrimsTrailingWhitespace(t *testing.T) {
	tok := Token("__CMD_1__")
	captured := strings.Join([]string{
		tok.Start(),
		"out",
		"",
		"",
		tok.End(),
	}, "\n")

	if got := tok.Extract(captured, "cmd"); got != "out" {
		t.Errorf("Extract = %q, want %q", got, "out")
	}
}
