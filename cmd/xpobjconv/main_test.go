package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/binzume/xpobjconv/config"
	"github.com/binzume/xpobjconv/gltfutil"
	"go.uber.org/zap"
)

const obj = `A
800
OBJ

TEXTURE
POINT_COUNTS 3 0 0 3
VT 0 0 0 0 1 0 0 0
VT 1 0 0 0 1 0 1 0
VT 0 0 1 0 1 0 0 1
IDX 0
IDX 1
IDX 2
ANIM_begin
ANIM_rotate 0 1 0 0 90 0 1 sim/flightmodel/foo
TRIS 0 3
ANIM_end
`

func TestDefaultOutputFile(t *testing.T) {
	if got := defaultOutputFile(filepath.Join("a", "b.obj")); got != filepath.Join("a", "b.glb") {
		t.Errorf("got %s", got)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "test.obj")
	if err := os.WriteFile(input, []byte(obj), 0644); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"out.glb", "out.gltf"} {
		output := filepath.Join(dir, name)
		cfg := config.Default()
		cfg.Convert.Offset = [3]float64{0, 1, 0}
		if err := run(cfg, input, output, zap.NewNop()); err != nil {
			t.Fatal(err)
		}
		doc, err := gltfutil.Load(output)
		if err != nil {
			t.Fatal(err)
		}
		if len(doc.Meshes) != 1 || len(doc.Animations) != 1 {
			t.Errorf("%s: %d meshes %d animations", name, len(doc.Meshes), len(doc.Animations))
		}
	}

	if err := run(config.Default(), filepath.Join(dir, "missing.obj"), filepath.Join(dir, "x.glb"), zap.NewNop()); err == nil {
		t.Error("expected error for missing input")
	}
}
