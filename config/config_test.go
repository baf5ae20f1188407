package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/binzume/xpobjconv/xpobj"
	"github.com/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Convert.Scale != 1 || cfg.Convert.TextureFormat != "png" || cfg.Logging.Level != "info" {
		t.Errorf("defaults %+v", cfg)
	}
	if cfg.MergeMode() != xpobj.MergeByAttributes {
		t.Errorf("merge %v", cfg.MergeMode())
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPriority(t *testing.T) {
	path := writeConfig(t, `
import:
  merge: all
  location: [1, 2, 3]
convert:
  scale: 0.5
  texture_format: webp
logging:
  level: warn
`)
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := NewFlags(fs)
	if err := fs.Parse([]string{"-scale", "2", "-debug", "-texlimit", "512", "-subobject"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name      string
		got, want interface{}
	}{
		{"merge from file", cfg.MergeMode(), xpobj.MergeAll},
		{"location from file", cfg.Import.Location, [3]float64{1, 2, 3}},
		{"scale from flag", cfg.Convert.Scale, float32(2)},
		{"format from file", cfg.Convert.TextureFormat, "webp"},
		{"limit from flag", cfg.Convert.TextureLimit, 512},
		{"subobject from flag", cfg.Import.SubObject, true},
		{"interval default", cfg.Convert.KeyframeInterval, float32(1)},
		{"debug flag", cfg.Logging.Level, "debug"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadInvalid(t *testing.T) {
	for _, content := range []string{
		"import:\n  merge: none\n",
		"convert:\n  texture_format: tga\n",
		"convert:\n  scale: -1\n",
	} {
		if _, err := Load(writeConfig(t, content), nil); !errors.Is(err, ErrInvalid) {
			t.Errorf("%q: got %v", content, err)
		}
	}
	if _, err := Load(writeConfig(t, "unknown: 1\n"), nil); err == nil {
		t.Error("unknown keys should fail")
	}
}

func TestSaveTo(t *testing.T) {
	cfg := Default()
	cfg.Import.DataRefs = "/x-plane/Resources/plugins"
	path := filepath.Join(t.TempDir(), "sub", FileName)
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if *loaded != *cfg {
		t.Errorf("got %+v", loaded)
	}
}
