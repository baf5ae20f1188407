package converter

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/binzume/xpobjconv/geom"
	"github.com/binzume/xpobjconv/scene"
	"github.com/binzume/xpobjconv/texture"
	"github.com/binzume/xpobjconv/xpobj"
	"github.com/qmuntal/gltf"
)

const triangle = `A
800
OBJ

TEXTURE %s
VT 0 0 0 0 1 0 0 0
VT 1 0 0 0 1 0 1 0
VT 0 0 1 0 1 0 0 1
IDX 0
IDX 1
IDX 2
`

const animated = `A
800
OBJ
TEXTURE
VT 0 0 0 0 1 0 0 0
VT 1 0 0 0 1 0 1 0
VT 0 0 1 0 1 0 0 1
IDX 0
IDX 1
IDX 2
TRIS 0 3
ANIM_begin
ANIM_rotate 0 1 0 0 90 0 1 sim/foo/bar
TRIS 0 3
LIGHT_NAMED airplane_beacon 0 1 0
ANIM_end
`

func importScene(t *testing.T, src, path string, opts *xpobj.Options) *scene.Scene {
	t.Helper()
	s := scene.New()
	if _, err := xpobj.NewImporter(strings.NewReader(src), path, opts).Import(s); err != nil {
		t.Fatal(err)
	}
	return s
}

func approx(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1e-5 {
			return false
		}
	}
	return true
}

func hasString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestConvertTriangle(t *testing.T) {
	s := importScene(t, strings.Replace(triangle, "%s", "", 1)+"TRIS 0 3\n", "test.obj", nil)
	doc, err := NewXPObjToGLTFConverter(nil).Convert(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Meshes) != 1 || len(doc.Meshes[0].Primitives) != 1 {
		t.Fatalf("meshes %+v", doc.Meshes)
	}
	p := doc.Meshes[0].Primitives[0]
	if doc.Accessors[p.Attributes["POSITION"]].Count != 3 || doc.Accessors[*p.Indices].Count != 3 {
		t.Errorf("accessors %+v", doc.Accessors)
	}
	if _, ok := p.Attributes["NORMAL"]; !ok {
		t.Error("no normals")
	}
	if len(doc.Materials) != 1 || doc.Materials[0].PBRMetallicRoughness.BaseColorTexture != nil {
		t.Errorf("materials %+v", doc.Materials)
	}
	if len(doc.Scenes[0].Nodes) == 0 || doc.Nodes[doc.Scenes[0].Nodes[0]].Mesh == nil {
		t.Errorf("nodes %+v", doc.Nodes)
	}
}

func TestConvertUnlit(t *testing.T) {
	s := importScene(t, strings.Replace(triangle, "%s", "", 1)+"TRIS 0 3\n", "test.obj", nil)
	doc, err := NewXPObjToGLTFConverter(&XPObjToGLTFOption{ForceUnlit: true}).Convert(s)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := doc.Materials[0].Extensions[unlitMaterialExt]; !ok || !hasString(doc.ExtensionsUsed, unlitMaterialExt) {
		t.Errorf("unlit %+v %v", doc.Materials[0], doc.ExtensionsUsed)
	}
	if _, ok := doc.Meshes[0].Primitives[0].Attributes["NORMAL"]; ok {
		t.Error("unlit meshes should not have normals")
	}
}

func TestConvertAnimated(t *testing.T) {
	s := importScene(t, animated, "test.obj", nil)
	doc, err := NewXPObjToGLTFConverter(&XPObjToGLTFOption{KeyframeInterval: 0.5}).Convert(s)
	if err != nil {
		t.Fatal(err)
	}

	var arm, bone, mesh *gltf.Node
	for _, n := range doc.Nodes {
		switch n.Name {
		case "Armature":
			arm = n
		case "bar":
			bone = n
		case "Mesh.001":
			mesh = n
		}
	}
	if arm == nil || bone == nil || mesh == nil {
		t.Fatalf("nodes %+v", doc.Nodes)
	}
	if len(arm.Children) != 1 || doc.Nodes[arm.Children[0]] != bone {
		t.Errorf("armature children %v", arm.Children)
	}
	if !approx(bone.Rotation[:], []float32{0, 0, 0, 1}) {
		t.Errorf("rest rotation %v", bone.Rotation)
	}
	found := false
	for _, c := range bone.Children {
		found = found || doc.Nodes[c] == mesh
	}
	if !found {
		t.Error("mesh should be a child of the bone")
	}

	if len(doc.Animations) != 1 {
		t.Fatalf("%d animations", len(doc.Animations))
	}
	a := doc.Animations[0]
	if len(a.Channels) != 1 || a.Channels[0].Target.Path != gltf.TRSRotation {
		t.Errorf("channels %+v", a.Channels)
	}
	input := doc.Accessors[*a.Samplers[0].Input]
	if input.Count != 2 || !approx(input.Max, []float32{0.5}) {
		t.Errorf("input %+v", input)
	}

	lights, ok := doc.Extensions[lightsPunctualExt].(map[string]interface{})
	if !ok || len(lights["lights"].([]interface{})) != 1 || !hasString(doc.ExtensionsUsed, lightsPunctualExt) {
		t.Errorf("lights %+v", doc.Extensions)
	}
}

func TestConvertTransform(t *testing.T) {
	s := scene.New()
	m := geom.NewTranslateMatrix4(1, 2, 3).Mul(geom.NewAxisAngleMatrix4(geom.NewVector3(0, 0, 1), math.Pi/2))
	if err := s.CreateEmpty(&xpobj.Empty{Name: "e", Transform: m}); err != nil {
		t.Fatal(err)
	}
	doc, err := NewXPObjToGLTFConverter(&XPObjToGLTFOption{Scale: 2}).Convert(s)
	if err != nil {
		t.Fatal(err)
	}
	n := doc.Nodes[0]
	if !approx(n.Translation[:], []float32{2, 6, -4}) {
		t.Errorf("translation %v", n.Translation)
	}
	h := float32(math.Sqrt(0.5))
	if !approx(n.Rotation[:], []float32{0, h, 0, h}) {
		t.Errorf("rotation %v", n.Rotation)
	}
}

func writeTexture(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	img.Set(0, 0, color.NRGBA{255, 0, 0, 128})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestConvertTextures(t *testing.T) {
	dir := t.TempDir()
	objPath := filepath.Join(dir, "test.obj")
	writeTexture(t, filepath.Join(dir, "tex.png"))
	src := strings.Replace(triangle, "%s", "tex.png", 1) + "TRIS 0 3\n"

	for _, tc := range []struct {
		name string
		opts XPObjToGLTFOption
		mime string
		uri  string
		ext  string
	}{
		{"external", XPObjToGLTFOption{BaseDir: dir}, "image/png", "tex.png", ""},
		{"png", XPObjToGLTFOption{EmbedTextures: true}, "image/png", "", ""},
		{"webp", XPObjToGLTFOption{EmbedTextures: true, TextureFormat: "webp"}, "image/webp", "", webpTextureExt},
		{"scaled", XPObjToGLTFOption{TextureResolutionLimit: 4}, "image/png", "", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			opts := tc.opts
			s := importScene(t, src, objPath, &xpobj.Options{Textures: texture.NewLocator(objPath, nil)})
			doc, err := NewXPObjToGLTFConverter(&opts).Convert(s)
			if err != nil {
				t.Fatal(err)
			}
			if len(doc.Images) != 1 || len(doc.Textures) != 1 || len(doc.Samplers) != 1 {
				t.Fatalf("images %+v textures %+v", doc.Images, doc.Textures)
			}
			img := doc.Images[0]
			if img.MimeType != tc.mime || img.URI != tc.uri {
				t.Errorf("image %+v", img)
			}
			if tc.uri == "" && img.BufferView == nil {
				t.Error("image should be embedded")
			}
			if tc.ext != "" {
				if _, ok := doc.Textures[0].Extensions[tc.ext]; !ok || !hasString(doc.ExtensionsRequired, tc.ext) {
					t.Errorf("texture %+v", doc.Textures[0])
				}
			} else if doc.Textures[0].Source == nil {
				t.Error("no texture source")
			}
			mat := doc.Materials[0]
			if mat.AlphaMode != gltf.AlphaBlend || mat.PBRMetallicRoughness.BaseColorTexture == nil {
				t.Errorf("material %+v", mat)
			}
		})
	}
}

func TestTexcoord(t *testing.T) {
	img := &xpobj.Image{Width: 1024, Height: 512}
	f := &xpobj.MeshFace{Image: img, Region: &xpobj.Region{X: 512, Y: 256, Width: 256, Height: 256}}
	if uv := texcoord(f, xpobj.UV{S: 0.5, T: 1}); !approx(uv[:], []float32{0.625, 0}) {
		t.Errorf("region %v", uv)
	}
	if uv := texcoord(&xpobj.MeshFace{}, xpobj.UV{S: 0.25, T: 0.25}); !approx(uv[:], []float32{0.25, 0.75}) {
		t.Errorf("plain %v", uv)
	}
}
