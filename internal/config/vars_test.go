package config

import (
	"strings"
	"testing"
)

func TestSubstituteTotal(t *testing.T) {
	vars := map[string]string{"TICKET": "ENG-42", "BRANCH_NAME": "main", "_X": "y"}

	out, err := Substitute("fix ${TICKET} on ${BRANCH_NAME} with ${_X}", vars, "agent coder")
	if err != nil {
		t.Fatal(err)
	}
	if out != "fix ENG-42 on main with y" {
		t.Errorf("got %q", out)
	}
	if strings.Contains(out, "${") {
		t.Errorf("bound placeholders must all be replaced: %q", out)
	}
}

func TestSubstituteUnboundNamesVariableAndContext(t *testing.T) {
	_, err := Substitute("needs ${MISSING_VAR}", nil, "chain deploy, agent coder")
	if err == nil {
		t.Fatal("expected an error for an unbound placeholder")
	}
	if !strings.Contains(err.Error(), "MISSING_VAR") {
		t.Errorf("error should name the variable: %v", err)
	}
	if !strings.Contains(err.Error(), "chain deploy, agent coder") {
		t.Errorf("error should name the context: %v", err)
	}
}

func TestSubstituteNonPlaceholdersUntouched(t *testing.T) {
	tests := []string{
		"${lowercase}",
		"${1STARTS_WITH_DIGIT}",
		"$NOBRACES",
		"${}",
		"plain text",
	}
	for _, in := range tests {
		out, err := Substitute(in, map[string]string{}, "test")
		if err != nil {
			t.Errorf("Substitute(%q) errored: %v", in, err)
			continue
		}
		if out != in {
			t.Errorf("Substitute(%q) = %q, want unchanged", in, out)
		}
	}
}

func TestSubstituteAll(t *testing.T) {
	vars := map[string]string{"V": "1"}

	out, err := SubstituteAll([]string{"--flag", "${V}"}, vars, "test")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[1] != "1" {
		t.Errorf("got %v", out)
	}

	if _, err := SubstituteAll([]string{"${NOPE}"}, vars, "test"); err == nil {
		t.Error("expected an error for an unbound placeholder in a list")
	}

	if out, err := SubstituteAll(nil, vars, "test"); err != nil || out != nil {
		t.Errorf("empty input should be a no-op, got %v, %v", out, err)
	}
}
