package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFull(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
excluded_targets = ["legacy_tool", "scratch"]

[external_libraries]
pthread = "@system//:pthread"
"OpenSSL::SSL" = "@openssl//:ssl"

[additional_dependencies]
core = ["//third_party:abseil"]

[mappings.Add_Library]
rule_kind = "my_cc_library"

[mappings.Add_Library.attributes]
srcs = "sources"
`)
	o, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !o.IsExcluded("legacy_tool") || !o.IsExcluded("scratch") {
		t.Errorf("exclusions not recognized: %+v", o.ExcludedTargets)
	}
	if o.IsExcluded("core") {
		t.Error("core wrongly excluded")
	}
	if label, ok := o.ExternalLabel("OpenSSL::SSL"); !ok || label != "@openssl//:ssl" {
		t.Errorf("ExternalLabel(OpenSSL::SSL) = %q, %v", label, ok)
	}
	if !o.IsExternal("pthread") {
		t.Error("pthread not recognized as external")
	}
	if deps := o.ExtraDeps("core"); len(deps) != 1 || deps[0] != "//third_party:abseil" {
		t.Errorf("ExtraDeps(core) = %v", deps)
	}
	m, ok := o.MappingFor("ADD_LIBRARY")
	if !ok {
		t.Fatal("MappingFor(ADD_LIBRARY) missed: command lookup must be case-insensitive")
	}
	if m.RuleKind != "my_cc_library" {
		t.Errorf("RuleKind = %q", m.RuleKind)
	}
	if m.Attributes["srcs"] != "sources" {
		t.Errorf("attribute rename = %v", m.Attributes)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "exclude_targets = [\"typo\"]\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestFindWalksUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "excluded_targets = []\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := Find(nested)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	want := filepath.Join(root, FileName)
	if got != want {
		t.Errorf("Find = %q, want %q", got, want)
	}
}

func TestLoadNearDefaults(t *testing.T) {
	o, path, err := LoadNear(t.TempDir())
	if err != nil {
		t.Fatalf("LoadNear: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
	if o.IsExcluded("anything") {
		t.Error("default config must exclude nothing")
	}
	if _, ok := o.MappingFor("add_library"); ok {
		t.Error("default config must have no mappings")
	}
}
