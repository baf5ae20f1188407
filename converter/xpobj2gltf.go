package converter

import (
	"fmt"
	"math"

	"github.com/binzume/xpobjconv/geom"
	"github.com/binzume/xpobjconv/scene"
	"github.com/binzume/xpobjconv/xpobj"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

const (
	unlitMaterialExt  = "KHR_materials_unlit"
	lightsPunctualExt = "KHR_lights_punctual"
	materialFlagsMask = xpobj.FaceTwoSide | xpobj.FaceAlpha
)

type XPObjToGLTFOption struct {
	Scale                  float32 // Default: 1
	ForceUnlit             bool
	EmbedTextures          bool
	TextureFormat          string  // "png" (default) or "webp"
	TextureResolutionLimit int     // 0: unlimited
	KeyframeInterval       float32 // seconds between keyframes. Default: 1
	// BaseDir is used to make URIs of external textures relative.
	BaseDir string
	Logger  *zap.Logger
}

type xpobjToGltf struct {
	*XPObjToGLTFOption
	*gltf.Document
	logger     *zap.Logger
	textures   *textureCache
	materials  map[materialKey]uint32
	boneNodes  map[*xpobj.Bone]uint32
	armNodes   map[*xpobj.Armature]uint32
	lights     []interface{}
	extensions map[string]bool
}

type materialKey struct {
	mat   *xpobj.Material
	image *xpobj.Image
	flags xpobj.FaceFlags
}

type vertexKey struct {
	index  int
	uv     [2]float32
	normal [3]float32
}

func NewXPObjToGLTFConverter(options *XPObjToGLTFOption) *xpobjToGltf {
	if options == nil {
		options = &XPObjToGLTFOption{}
	}
	if options.Scale == 0 {
		options.Scale = 1
	}
	if options.KeyframeInterval == 0 {
		options.KeyframeInterval = 1
	}
	if options.TextureFormat == "" {
		options.TextureFormat = "png"
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &xpobjToGltf{
		XPObjToGLTFOption: options,
		Document:          gltf.NewDocument(),
		logger:            logger,
		textures:          newTextureCache(options, logger),
		materials:         map[materialKey]uint32{},
		boneNodes:         map[*xpobj.Bone]uint32{},
		armNodes:          map[*xpobj.Armature]uint32{},
		extensions:        map[string]bool{},
	}
}

// Z-up to glTF Y-up: (x, y, z) -> (x, z, -y)
var zUpToYUp = &geom.Matrix4{
	1, 0, 0, 0,
	0, 0, -1, 0,
	0, 1, 0, 0,
	0, 0, 0, 1,
}

func (c *xpobjToGltf) position(v xpobj.Vertex) [3]float32 {
	s := c.Scale
	return [3]float32{float32(v.X) * s, float32(v.Z) * s, -float32(v.Y) * s}
}

func direction(v *geom.Vector3) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Z), -float32(v.Y)}
}

func rotation(q *geom.Quaternion) [4]float32 {
	return [4]float32{float32(q.X), float32(q.Z), -float32(q.Y), float32(q.W)}
}

func newNode(name string) *gltf.Node {
	return &gltf.Node{Name: name, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}}
}

// setTransform sets TRS from a Z-up matrix.
func (c *xpobjToGltf) setTransform(node *gltf.Node, m *geom.Matrix4) {
	t, r, s := zUpToYUp.Mul(m).Mul(zUpToYUp.Transposed()).Decompose()
	node.Translation = [3]float32{float32(t.X) * c.Scale, float32(t.Y) * c.Scale, float32(t.Z) * c.Scale}
	node.Rotation = r.Float32()
	node.Scale = s.Float32()
}

func (c *xpobjToGltf) useExtension(name string, required bool) {
	if !c.extensions[name] {
		c.extensions[name] = true
		c.ExtensionsUsed = append(c.ExtensionsUsed, name)
		if required {
			c.ExtensionsRequired = append(c.ExtensionsRequired, name)
		}
	}
}

// addNode places node under the bone or armature it is attached to, or in
// the scene root with transform applied. offset is the node position in
// the parent's space.
func (c *xpobjToGltf) addNode(node *gltf.Node, offset xpobj.Vertex, arm *xpobj.Armature, bone *xpobj.Bone, transform *geom.Matrix4) uint32 {
	idx := uint32(len(c.Nodes))
	c.Nodes = append(c.Nodes, node)

	var parent *uint32
	if bone != nil {
		if n, ok := c.boneNodes[bone]; ok {
			parent = &n
		}
	}
	if parent == nil && arm != nil {
		if n, ok := c.armNodes[arm]; ok {
			parent = &n
		}
	}
	if parent != nil {
		node.Translation = c.position(offset)
		c.Nodes[*parent].Children = append(c.Nodes[*parent].Children, idx)
		return idx
	}

	m := geom.NewTranslateMatrix4(offset.X, offset.Y, offset.Z)
	if transform != nil {
		m = transform.Mul(m)
	}
	c.setTransform(node, m)
	c.Scenes[0].Nodes = append(c.Scenes[0].Nodes, idx)
	return idx
}

func propertyExtras(props xpobj.Properties, layers int) map[string]interface{} {
	extras := map[string]interface{}{}
	for _, p := range props {
		extras[p.Name] = p.Value
	}
	if layers != 0 {
		extras["layer"] = layers
	}
	return extras
}

func (c *xpobjToGltf) addArmature(a *scene.Armature) {
	node := newNode(a.Name)
	if extras := propertyExtras(a.Properties, a.Layers); len(extras) > 0 {
		node.Extras = extras
	}
	c.armNodes[a.Armature] = c.addNode(node, a.Location, nil, nil, a.Transform)

	for _, b := range a.Bones {
		node := newNode(b.Name)
		node.Extras = map[string]interface{}{"dataref": b.DataRef}
		rest := restOffset(b)
		if len(b.Keyframes) > 0 {
			t, r, _ := b.Keyframes[0].Decompose()
			rest = rest.Add(xpobj.Vertex{X: t.X, Y: t.Y, Z: t.Z})
			node.Rotation = rotation(r)
		}
		c.boneNodes[b] = c.addNode(node, rest, a.Armature, b.Parent, nil)
	}
}

// restOffset is the bone head relative to its parent.
func restOffset(b *xpobj.Bone) xpobj.Vertex {
	if b.Parent != nil {
		return b.Head.Sub(b.Parent.Head)
	}
	return b.Head
}

func texcoord(f *xpobj.MeshFace, uv xpobj.UV) [2]float32 {
	s, t := uv.S, uv.T
	if r := f.Region; r != nil && f.Image != nil && f.Image.Width > 0 && f.Image.Height > 0 {
		s = (float64(r.X) + s*float64(r.Width)) / float64(f.Image.Width)
		t = (float64(r.Y) + t*float64(r.Height)) / float64(f.Image.Height)
	}
	// glTF has the origin at the top left
	return [2]float32{float32(s), float32(1 - t)}
}

func (c *xpobjToGltf) convertMesh(m *scene.Mesh) *gltf.Mesh {
	var positions, normals [][3]float32
	var texcoords [][2]float32
	vertices := map[vertexKey]uint32{}

	var keys []materialKey
	indices := map[materialKey][]uint32{}
	for _, f := range m.Faces {
		key := materialKey{mat: m.Material, image: f.Image, flags: f.Flags & materialFlagsMask}
		if key.image != nil && key.image.Placeholder {
			key.image = nil
		}
		var flat *[3]float32
		if f.Flags&xpobj.FaceFlat != 0 {
			n := direction(m.FaceNormal(f))
			flat = &n
		}

		corners := make([]uint32, len(f.Indices))
		for i, vi := range f.Indices {
			k := vertexKey{index: vi, uv: texcoord(f, f.UV[i])}
			if flat != nil {
				k.normal = *flat
			} else if vi < len(m.Normals) && m.Normals[vi] != nil {
				k.normal = direction(m.Normals[vi])
			}
			idx, ok := vertices[k]
			if !ok {
				idx = uint32(len(positions))
				positions = append(positions, c.position(m.Vertices[vi]))
				normals = append(normals, k.normal)
				texcoords = append(texcoords, k.uv)
				vertices[k] = idx
			}
			corners[i] = idx
		}
		if _, ok := indices[key]; !ok {
			keys = append(keys, key)
		}
		for i := 1; i+1 < len(corners); i++ {
			indices[key] = append(indices[key], corners[0], corners[i], corners[i+1])
		}
	}

	attributes := map[string]uint32{
		"POSITION":   modeler.WritePosition(c.Document, positions),
		"TEXCOORD_0": modeler.WriteTextureCoord(c.Document, texcoords),
	}
	if !c.ForceUnlit {
		attributes["NORMAL"] = modeler.WriteNormal(c.Document, normals)
	}

	var primitives []*gltf.Primitive
	for _, key := range keys {
		primitives = append(primitives, &gltf.Primitive{
			Indices:    gltf.Index(modeler.WriteIndices(c.Document, indices[key])),
			Attributes: attributes,
			Material:   gltf.Index(c.material(key)),
		})
	}
	return &gltf.Mesh{Name: m.Name, Primitives: primitives}
}

func (c *xpobjToGltf) addMesh(m *scene.Mesh) {
	if len(m.Faces) == 0 {
		c.logger.Debug("skipping empty mesh", zap.String("name", m.Name))
		return
	}
	node := newNode(m.Name)
	node.Mesh = gltf.Index(uint32(len(c.Meshes)))
	c.Meshes = append(c.Meshes, c.convertMesh(m))

	extras := propertyExtras(nil, m.Layers)
	if m.Surface != "" {
		extras["surface"] = m.Surface
	}
	if m.Deck {
		extras["deck"] = true
	}
	if len(extras) > 0 {
		node.Extras = extras
	}
	c.addNode(node, xpobj.Vertex{}, m.Armature, m.Bone, m.Transform)
}

func (c *xpobjToGltf) addLine(l *scene.Line) {
	var origin xpobj.Vertex
	if l.Bone != nil {
		origin = l.Bone.Head
	}
	positions := [][3]float32{c.position(l.Points[0].Sub(origin)), c.position(l.Points[1].Sub(origin))}

	node := newNode(l.Name)
	node.Mesh = gltf.Index(uint32(len(c.Meshes)))
	c.Meshes = append(c.Meshes, &gltf.Mesh{
		Name: l.Name,
		Primitives: []*gltf.Primitive{{
			Mode:       gltf.PrimitiveLines,
			Attributes: map[string]uint32{"POSITION": modeler.WritePosition(c.Document, positions)},
			Material:   gltf.Index(c.material(materialKey{mat: l.Material})),
		}},
	})
	if l.Layers != 0 {
		node.Extras = propertyExtras(nil, l.Layers)
	}
	c.addNode(node, xpobj.Vertex{}, l.Armature, l.Bone, l.Transform)
}

func (c *xpobjToGltf) addLight(l *scene.Light) {
	light := map[string]interface{}{
		"name":      l.Name,
		"type":      "point",
		"color":     [3]float32{float32(l.Color[0]), float32(l.Color[1]), float32(l.Color[2])},
		"intensity": float32(l.Energy),
	}
	node := newNode(l.Name)
	node.Extensions = gltf.Extensions{lightsPunctualExt: map[string]interface{}{"light": len(c.lights)}}
	c.lights = append(c.lights, light)

	extras := propertyExtras(l.Properties, l.Layers)
	if cl := l.Custom; cl != nil {
		extras["rgba"] = cl.RGBA
		extras["size"] = cl.Size
		extras["uv"] = cl.UV
		if cl.DataRef != "" {
			extras["dataref"] = cl.DataRef
		}
	}
	if len(extras) > 0 {
		node.Extras = extras
	}

	pos := l.Position
	if l.Bone != nil {
		pos = pos.Sub(l.Bone.Head)
	}
	c.addNode(node, pos, l.Armature, l.Bone, l.Transform)
}

func (c *xpobjToGltf) addEmpty(e *scene.Empty) {
	node := newNode(e.Name)
	if extras := propertyExtras(e.Properties, 0); len(extras) > 0 {
		node.Extras = extras
	}
	c.addNode(node, xpobj.Vertex{}, nil, nil, e.Transform)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func (c *xpobjToGltf) material(key materialKey) uint32 {
	if i, ok := c.materials[key]; ok {
		return i
	}
	mat := key.mat
	if mat == nil {
		mat = &xpobj.DefaultMaterial
	}
	rf := float32(1 - clamp01(mat.Shininess))
	var mf float32
	mm := &gltf.Material{
		Name: fmt.Sprintf("Material.%03d", len(c.Materials)),
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{float32(mat.Diffuse[0]), float32(mat.Diffuse[1]), float32(mat.Diffuse[2]), 1},
			RoughnessFactor: &rf,
			MetallicFactor:  &mf,
		},
		EmissiveFactor: [3]float32{float32(clamp01(mat.Emission[0])), float32(clamp01(mat.Emission[1])), float32(clamp01(mat.Emission[2]))},
		DoubleSided:    key.flags&xpobj.FaceTwoSide != 0,
	}
	if key.flags&xpobj.FaceAlpha != 0 || (key.image != nil && c.textures.hasAlpha(key.image)) {
		mm.AlphaMode = gltf.AlphaBlend
	}
	if key.image != nil {
		if tex, err := c.textures.add(c, key.image); err == nil {
			mm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: tex}
		} else {
			c.logger.Warn("texture read error", zap.String("path", key.image.Path), zap.Error(err))
		}
	}
	if c.ForceUnlit {
		mm.Extensions = gltf.Extensions{unlitMaterialExt: map[string]string{}}
		c.useExtension(unlitMaterialExt, false)
	}

	idx := uint32(len(c.Materials))
	c.Materials = append(c.Materials, mm)
	c.materials[key] = idx
	return idx
}

func (c *xpobjToGltf) Convert(s *scene.Scene) (*gltf.Document, error) {
	for _, a := range s.Armatures {
		c.addArmature(a)
	}
	for _, m := range s.Meshes {
		c.addMesh(m)
	}
	for _, l := range s.Lines {
		c.addLine(l)
	}
	for _, l := range s.Lights {
		c.addLight(l)
	}
	for _, e := range s.Empties {
		c.addEmpty(e)
	}
	for _, a := range s.Armatures {
		for _, b := range a.Bones {
			c.addBoneAnimation(a, b)
		}
	}

	if len(c.lights) > 0 {
		if c.Extensions == nil {
			c.Extensions = gltf.Extensions{}
		}
		c.Extensions[lightsPunctualExt] = map[string]interface{}{"lights": c.lights}
		c.useExtension(lightsPunctualExt, false)
	}
	if len(c.Textures) > 0 {
		c.Samplers = []*gltf.Sampler{{}}
	}
	c.logger.Info("converted to glTF",
		zap.Int("nodes", len(c.Nodes)),
		zap.Int("meshes", len(c.Meshes)),
		zap.Int("materials", len(c.Materials)),
		zap.Int("textures", len(c.Textures)),
		zap.Int("animations", len(c.Animations)))
	return c.Document, nil
}
