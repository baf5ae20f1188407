package dataref

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testRefs = "\ufeff2 1001 Mon Jan 1 12:00:00 2024\n" +
	"sim/cockpit/switches/gear_handle_status int y boolean\n" +
	"sim/flightmodel/engine/ENGN_N1_ float[engines] y percent\n" +
	"sim/aircraft/parts/acf_gear_deflection float[gear] n meters\n" +
	"sim/flightmodel/controls/wing1l_ail1def float n degrees\n" +
	"sim/other/controls/wing1l_ail1def float n degrees\n" +
	"sim/multiplayer/position/plane1_x double n meters\n" +
	"sim/cockpit2/radios/name byte[40] n string\n" +
	"\n" +
	"sim/test/arr double[4] y none\n"

func TestParse(t *testing.T) {
	reg, err := Parse(strings.NewReader(testRefs))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		status    Status
		namespace string
		arity     int
	}{
		{"gear_handle_status", Unambiguous, "sim/cockpit/switches/", 1},
		{"ENGN_N1_", Unambiguous, "sim/flightmodel/engine/", 8},
		{"acf_gear_deflection", Unambiguous, "sim/aircraft/parts/", 10},
		{"wing1l_ail1def", Ambiguous, "", 0},
		{"plane1_x", Unknown, "", 0},
		{"name", Unambiguous, "sim/cockpit2/radios/", 0},
		{"arr", Unambiguous, "sim/test/", 4},
		{"nothing", Unknown, "", 0},
	}
	for _, tt := range tests {
		r := reg.Resolve(tt.name)
		if r.Status != tt.status || r.Namespace != tt.namespace || r.Arity != tt.arity {
			t.Errorf("Resolve(%q) = %+v, want %v %q %d", tt.name, r, tt.status, tt.namespace, tt.arity)
		}
	}
}

func TestParseCorrupt(t *testing.T) {
	for _, src := range []string{
		"",
		"1 1001 Mon Jan 1 2024\n",
		"2 1001\n",
		"2 1001 Mon Jan 1 12:00:00 2024\nsim/foo\n",
		"2 1001 Mon Jan 1 12:00:00 2024\nsim/foo/bar float[x] y none\n",
	} {
		if _, err := Parse(strings.NewReader(src)); err == nil {
			t.Errorf("Parse(%q) should fail", src)
		}
	}
}

func TestNilRegistry(t *testing.T) {
	var reg *Registry
	if r := reg.Resolve("anything"); r.Status != Unknown {
		t.Errorf("nil registry resolved %+v", r)
	}
	if reg.Len() != 0 {
		t.Error("nil registry should be empty")
	}
}

func TestFindAndLoad(t *testing.T) {
	empty := t.TempDir()
	dir := t.TempDir()
	if _, err := Find(empty); err == nil {
		t.Error("Find should fail without DataRefs.txt")
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(testRefs), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := Find("", empty, dir)
	if err != nil {
		t.Fatal(err)
	}
	reg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 6 {
		t.Errorf("Len() = %d", reg.Len())
	}
}
