package sharedcfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestFileAPIRoundTrip verifies writes create the file, sections carry
// the profile prefix, and reads see what was written.
func TestFileAPIRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	api := NewFileAPI(path)

	if err := api.SetValues("staging", map[string]string{"region": "us-west-2"}); err != nil {
		t.Fatalf("SetValues: %v", err)
	}
	if err := api.SetValues("default", map[string]string{"output": "json"}); err != nil {
		t.Fatalf("SetValues default: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	text := string(raw)
	if !strings.Contains(text, "[profile staging]") {
		t.Errorf("staging section missing profile prefix:\n%s", text)
	}
	if !strings.Contains(text, "[default]") || strings.Contains(text, "[profile default]") {
		t.Errorf("default section must not carry the prefix:\n%s", text)
	}

	got, err := api.GetValue("staging", "region")
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if got != "us-west-2" {
		t.Errorf("region = %q", got)
	}
}

// TestFileAPIListProfiles verifies only profile sections are listed.
func TestFileAPIListProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	content := "[default]\nregion = us-east-1\n\n[profile staging]\nregion = us-west-2\n\n[plugins]\nname = x\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	profiles, err := NewFileAPI(path).ListProfiles()
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	joined := strings.Join(profiles, ",")
	if !strings.Contains(joined, "default") || !strings.Contains(joined, "staging") {
		t.Errorf("profiles = %v", profiles)
	}
	if strings.Contains(joined, "plugins") {
		t.Errorf("non-profile section listed: %v", profiles)
	}
}

// TestFileAPIMissingFile verifies reads against a missing file behave
// as empty rather than failing.
func TestFileAPIMissingFile(t *testing.T) {
	api := NewFileAPI(filepath.Join(t.TempDir(), "nope", "config"))

	profiles, err := api.ListProfiles()
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(profiles) != 0 {
		t.Errorf("profiles = %v, want none", profiles)
	}
	value, err := api.GetValue("default", "region")
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if value != "" {
		t.Errorf("value = %q, want empty", value)
	}

	// Writing must create the parent directory and the file.
	if err := api.SetValues("", map[string]string{"region": "eu-west-1"}); err != nil {
		t.Fatalf("SetValues: %v", err)
	}
	value, err = api.GetValue("default", "region")
	if err != nil {
		t.Fatalf("GetValue after write: %v", err)
	}
	if value != "eu-west-1" {
		t.Errorf("value = %q", value)
	}
}
