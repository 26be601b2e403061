package prompt

import "testing"

// TestScriptedPrompterReplaysInOrder verifies answers come back in
// script order and every question is recorded.
func TestScriptedPrompterReplaysInOrder(t *testing.T) {
	p := NewScriptedPrompter("one", "two")

	first, err := p.Prompt("First?", nil)
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	second, err := p.Prompt("Second?", []Choice{{Display: "Two", ActualValue: "two"}})
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if first != "one" || second != "two" {
		t.Errorf("answers = %q, %q", first, second)
	}
	if len(p.Calls) != 2 || p.Calls[0].Text != "First?" || len(p.Calls[1].Choices) != 1 {
		t.Errorf("calls = %+v", p.Calls)
	}
}

// TestScriptedPrompterExhausted verifies running past the script is an
// error, not an empty answer.
func TestScriptedPrompterExhausted(t *testing.T) {
	p := NewScriptedPrompter("only")
	if _, err := p.Prompt("First?", nil); err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if _, err := p.Prompt("Second?", nil); err == nil {
		t.Error("expected an error past the end of the script")
	}
}
