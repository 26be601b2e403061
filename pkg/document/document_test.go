package document

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func parse(t *testing.T, src string) *Map {
	t.Helper()
	var m Map
	if err := yaml.Unmarshal([]byte(src), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return &m
}

// TestKeyOrderPreserved verifies mappings keep the order they were
// written in, which step resolution depends on.
func TestKeyOrderPreserved(t *testing.T) {
	m := parse(t, `
zeta: 1
alpha: 2
mid: 3
`)
	want := []string{"zeta", "alpha", "mid"}
	got := m.Keys()
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestDuplicateKeyRejected verifies a repeated mapping key is a parse
// error rather than a silent overwrite.
func TestDuplicateKeyRejected(t *testing.T) {
	var m Map
	err := yaml.Unmarshal([]byte("a: 1\nb: 2\na: 3\n"), &m)
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
}

// TestScalarTypes verifies the closed value set: strings, int64, float,
// bool, null, nested sequences and mappings.
func TestScalarTypes(t *testing.T) {
	m := parse(t, `
s: text
i: 42
f: 1.5
b: true
n: null
seq: [a, 7]
child:
  k: v
`)
	if v, _ := m.Get("i"); v != int64(42) {
		t.Errorf("i = %#v, want int64(42)", v)
	}
	if v, _ := m.Get("f"); v != 1.5 {
		t.Errorf("f = %#v", v)
	}
	if v, _ := m.Get("b"); v != true {
		t.Errorf("b = %#v", v)
	}
	if v, ok := m.Get("n"); !ok || v != nil {
		t.Errorf("n = %#v present=%v, want explicit null", v, ok)
	}
	seq, _ := m.Get("seq")
	if s := seq.([]any); s[0] != "a" || s[1] != int64(7) {
		t.Errorf("seq = %v", s)
	}
	child, ok := m.ChildMap("child")
	if !ok {
		t.Fatal("child missing")
	}
	if v, _ := child.String("k"); v != "v" {
		t.Errorf("child.k = %q", v)
	}
}

// TestCopyIsDeep verifies Copy detaches nested mappings and sequences.
func TestCopyIsDeep(t *testing.T) {
	m := parse(t, `
child:
  k: original
seq:
  - first
`)
	dup := Copy(m).(*Map)
	dupChild, _ := dup.ChildMap("child")
	dupChild.Set("k", "changed")
	dupSeq, _ := dup.Get("seq")
	dupSeq.([]any)[0] = "changed"

	child, _ := m.ChildMap("child")
	if v, _ := child.String("k"); v != "original" {
		t.Errorf("copy shares child mapping: k = %q", v)
	}
	seq, _ := m.Get("seq")
	if seq.([]any)[0] != "first" {
		t.Errorf("copy shares sequence: %v", seq)
	}
}

// TestPlainRoundTrip verifies Plain produces JSON-shaped containers and
// FromPlain converts them back into document values.
func TestPlainRoundTrip(t *testing.T) {
	m := parse(t, `
name: svc
nested:
  count: 2
`)
	plain := Plain(m).(map[string]any)
	if plain["name"] != "svc" {
		t.Errorf("plain name = %v", plain["name"])
	}
	if plain["nested"].(map[string]any)["count"] != int64(2) {
		t.Errorf("plain nested = %v", plain["nested"])
	}

	back := FromPlain(plain).(*Map)
	if v, _ := back.String("name"); v != "svc" {
		t.Errorf("round-tripped name = %q", v)
	}
	nested, _ := back.ChildMap("nested")
	if v, _ := nested.Get("count"); v != int64(2) {
		t.Errorf("round-tripped count = %v", v)
	}
}

// TestMarshalPreservesOrder verifies YAML output keeps insertion order.
func TestMarshalPreservesOrder(t *testing.T) {
	m := NewMap()
	m.Set("second_written_first", "a")
	m.Set("alpha", "b")
	out, err := yaml.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(out)
	if idx := strings.Index(text, "second_written_first"); idx < 0 || idx > strings.Index(text, "alpha") {
		t.Errorf("marshal order wrong:\n%s", text)
	}
}
