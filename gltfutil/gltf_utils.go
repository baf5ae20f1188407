package gltfutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/xpobjconv/geom"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

var ErrUnsupportedOutput = errors.New("unsupported output type")

func Load(path string) (*gltf.Document, error) {
	return gltf.Open(path)
}

// Save writes doc as .glb or .gltf depending on the extension of path.
// Buffers of .gltf files are written next to it.
func Save(doc *gltf.Document, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb":
		return gltf.SaveBinary(doc, path)
	case ".gltf":
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		for i, b := range doc.Buffers {
			if b.URI == "" && len(b.Data) > 0 {
				b.URI = base + ".bin"
				if i > 0 {
					b.URI = fmt.Sprintf("%s_%d.bin", base, i)
				}
			}
		}
		return gltf.Save(doc, path)
	}
	return errors.Wrap(ErrUnsupportedOutput, path)
}

func mimeType(uri string) string {
	switch strings.ToLower(filepath.Ext(uri)) {
	case ".png":
		return "image/png"
	case ".dds":
		return "image/vnd-ms.dds"
	case ".webp":
		return "image/webp"
	}
	return "image/jpeg"
}

// ToSingleFile embeds the images referenced by URI relative to srcDir.
// Images that cannot be read are left as they are.
func ToSingleFile(doc *gltf.Document, srcDir string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, b := range doc.Buffers {
		b.URI = ""
	}
	for _, m := range doc.Images {
		if m.BufferView != nil || m.URI == "" {
			continue
		}
		path := filepath.FromSlash(m.URI)
		if !filepath.IsAbs(path) {
			path = filepath.Join(srcDir, path)
		}
		buf, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("cannot embed image", zap.String("uri", m.URI), zap.Error(err))
			continue
		}
		if m.MimeType == "" {
			m.MimeType = mimeType(m.URI)
		}
		m.BufferView = gltf.Index(modeler.WriteBufferView(doc, gltf.TargetNone, buf))
		m.URI = ""
	}
	if len(doc.Buffers) > 0 {
		doc.Buffers[0].ByteLength = uint32(len(doc.Buffers[0].Data))
	}
	return nil
}

// Transform scales and moves the scene root nodes.
func Transform(doc *gltf.Document, scale *geom.Vector3, offset *geom.Vector3) {
	if scale == nil && offset == nil {
		return
	}
	m := geom.NewMatrix4()
	if scale != nil {
		m = geom.NewScaleMatrix4(scale.X, scale.Y, scale.Z)
	}
	if offset != nil {
		m = geom.NewTranslateMatrix4(offset.X, offset.Y, offset.Z).Mul(m)
	}
	if len(doc.Scenes) == 0 {
		return
	}
	for _, n := range doc.Scenes[0].Nodes {
		node := doc.Nodes[n]
		t, r, s := m.Mul(nodeMatrix(node)).Decompose()
		node.Matrix = identity
		node.Translation = t.Float32()
		node.Rotation = r.Float32()
		node.Scale = s.Float32()
	}
}

var identity = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func nodeMatrix(node *gltf.Node) *geom.Matrix4 {
	if node.Matrix != [16]float32{} && node.Matrix != identity {
		var a [16]geom.Element
		for i, v := range node.Matrix {
			a[i] = geom.Element(v)
		}
		return geom.NewMatrix4FromSlice(a[:])
	}
	t := node.Translation
	r := node.Rotation
	s := node.Scale
	return geom.NewTRSMatrix4(
		geom.NewVector3(geom.Element(t[0]), geom.Element(t[1]), geom.Element(t[2])),
		geom.NewQuaternion(geom.Element(r[0]), geom.Element(r[1]), geom.Element(r[2]), geom.Element(r[3])),
		geom.NewVector3(geom.Element(s[0]), geom.Element(s[1]), geom.Element(s[2])))
}
