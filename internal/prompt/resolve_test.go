package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveInlineWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "prompt.md", "from file")

	text, ok, err := Resolve(dir, Source{Inline: "inline text", File: "prompt.md"})
	if err != nil {
		t.Fatal(err)
	}
	if !ok || text != "inline text" {
		t.Errorf("got %q ok=%v, want inline text", text, ok)
	}
}

func TestResolvePriorityOrder(t *testing.T) {
	dir := t.TempDir()

	text, ok, err := Resolve(dir,
		Source{},
		Source{Inline: "step level"},
		Source{Inline: "chain level"},
	)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || text != "step level" {
		t.Errorf("got %q, want the first non-empty source", text)
	}
}

func TestResolveFileRelativeToWorkDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "task.md", "  do the thing  \n")

	text, ok, err := Resolve(dir, Source{File: "task.md"})
	if err != nil {
		t.Fatal(err)
	}
	if !ok || text != "do the thing" {
		t.Errorf("got %q, want trimmed file content", text)
	}
}

func TestResolveAbsoluteFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "task.md", "absolute content")

	text, ok, err := Resolve("/somewhere/else", Source{File: path})
	if err != nil {
		t.Fatal(err)
	}
	if !ok || text != "absolute content" {
		t.Errorf("got %q", text)
	}
}

func TestResolveMissingFileNamesPath(t *testing.T) {
	dir := t.TempDir()

	_, _, err := Resolve(dir, Source{File: "missing.md"})
	if err == nil {
		t.Fatal("expected an error for a missing prompt file")
	}
	wantPath := filepath.Join(dir, "missing.md")
	if !strings.Contains(err.Error(), wantPath) {
		t.Errorf("error should name the attempted path %q: %v", wantPath, err)
	}
}

func TestResolveNoSourcesIsNotAnError(t *testing.T) {
	text, ok, err := Resolve(t.TempDir(), Source{}, Source{}, Source{})
	if err != nil {
		t.Fatalf("no sources should not error: %v", err)
	}
	if ok || text != "" {
		t.Errorf("got %q ok=%v, want absent", text, ok)
	}
}

func TestResolveDeterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "lower priority")

	sources := []Source{{Inline: "winner"}, {File: "a.md"}}
	first, _, err := Resolve(dir, sources...)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		again, _, err := Resolve(dir, sources...)
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("resolution not idempotent: %q vs %q", again, first)
		}
	}
}
