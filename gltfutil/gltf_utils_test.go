package gltfutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/binzume/xpobjconv/geom"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

func newDoc() *gltf.Document {
	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{
		{Name: "root", Translation: [3]float32{1, 0, 0}, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}, Children: []uint32{1}},
		{Name: "child", Translation: [3]float32{0, 1, 0}, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}},
	}
	doc.Scenes[0].Nodes = []uint32{0}
	return doc
}

func TestTransform(t *testing.T) {
	doc := newDoc()
	Transform(doc, geom.NewVector3(2, 2, 2), geom.NewVector3(0, 0, 5))

	root := doc.Nodes[0]
	want := [3]float32{2, 0, 5}
	for i := range want {
		if math.Abs(float64(root.Translation[i]-want[i])) > 1e-5 || math.Abs(float64(root.Scale[i]-2)) > 1e-5 {
			t.Fatalf("root %+v", root)
		}
	}
	if doc.Nodes[1].Translation != [3]float32{0, 1, 0} {
		t.Errorf("child should not change: %+v", doc.Nodes[1])
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.glb", "a.gltf"} {
		path := filepath.Join(dir, name)
		doc := newDoc()
		doc.Buffers = nil
		if err := Save(doc, path); err != nil {
			t.Fatal(err)
		}
		doc, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if len(doc.Nodes) != 2 {
			t.Errorf("%s: %d nodes", name, len(doc.Nodes))
		}
	}
	if err := Save(newDoc(), filepath.Join(dir, "a.obj")); !errors.Is(err, ErrUnsupportedOutput) {
		t.Errorf("got %v", err)
	}
}

func TestToSingleFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tex.dds"), []byte("DDS data"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := newDoc()
	doc.Images = []*gltf.Image{{URI: "tex.dds"}, {URI: "missing.png"}}
	if err := ToSingleFile(doc, dir, nil); err != nil {
		t.Fatal(err)
	}
	if img := doc.Images[0]; img.URI != "" || img.BufferView == nil || img.MimeType != "image/vnd-ms.dds" {
		t.Errorf("embedded %+v", img)
	}
	if img := doc.Images[1]; img.URI != "missing.png" || img.BufferView != nil {
		t.Errorf("missing %+v", img)
	}
	if int(doc.Buffers[0].ByteLength) != len(doc.Buffers[0].Data) || len(doc.Buffers[0].Data) < 8 {
		t.Errorf("buffer %d %d", doc.Buffers[0].ByteLength, len(doc.Buffers[0].Data))
	}
}
