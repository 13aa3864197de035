package backend

import (
	"reflect"
	"strings"
	"testing"
)

func TestNamesSorted(t *testing.T) {
	want := []string{"claude", "codex", "cursor"}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestLookupKnown(t *testing.T) {
	for _, name := range Names() {
		b, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) failed: %v", name, err)
		}
		if b.Name() != name {
			t.Errorf("Lookup(%q).Name() = %q", name, b.Name())
		}
	}
}

func TestLookupUnknownListsRegistered(t *testing.T) {
	_, err := Lookup("nonesuch")
	if err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
	msg := err.Error()
	if !strings.Contains(msg, "nonesuch") {
		t.Errorf("error should name the requested backend: %s", msg)
	}
	for _, name := range []string{"claude", "codex", "cursor"} {
		if !strings.Contains(msg, name) {
			t.Errorf("error should list registered backend %q: %s", name, msg)
		}
	}
}
