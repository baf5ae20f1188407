package xpobj

import (
	"math"

	"github.com/binzume/xpobjconv/geom"
)

type MergeMode int

const (
	// MergeByAttributes merges consecutive primitives that share attributes.
	// Every v8 TRIS statement starts a new mesh.
	MergeByAttributes MergeMode = 1
	// MergeAll puts all triangles into one mesh.
	MergeAll MergeMode = 2
)

type deckState int8

const (
	deckUnset deckState = iota
	deckOff
	deckOn
)

// animContext identifies the bone a primitive is attached to.
type animContext struct {
	arm    *Armature
	offset Vertex
	bone   *Bone
}

type pendingMesh struct {
	faces   []*Face
	surface string
	deck    deckState
	layers  int
	anim    animContext
	mat     *Material
}

// isDuplicate reports whether any of faces is a back-to-back copy of a face
// already in the mesh.
func (m *pendingMesh) isDuplicate(faces []*Face) bool {
	if n := len(faces[0].V); n != 3 && n != 4 {
		return false
	}
	for _, f1 := range faces {
		for _, f2 := range m.faces {
			if f1.isBackToBack(f2) {
				return true
			}
		}
	}
	return false
}

type accumulator struct {
	merge  MergeMode
	meshes []*pendingMesh
}

func (a *accumulator) add(faces []*Face, surface string, deck deckState, layers int, anim animContext, mat *Material, forceNew bool) {
	if len(faces) == 0 {
		return
	}
	if len(a.meshes) > 0 {
		cur := a.meshes[len(a.meshes)-1]
		if a.merge >= MergeAll ||
			(!forceNew &&
				cur.layers == layers &&
				(cur.surface == surface || cur.surface == "" || surface == "") &&
				(cur.deck == deck || cur.deck == deckUnset || deck == deckUnset) &&
				cur.anim == anim &&
				cur.mat == mat &&
				!cur.isDuplicate(faces)) {
			cur.faces = append(cur.faces, faces...)
			if surface != "" {
				cur.surface = surface
			}
			if deck != deckUnset {
				cur.deck = deck
			}
			return
		}
	}
	a.meshes = append(a.meshes, &pendingMesh{
		faces:   append([]*Face(nil), faces...),
		surface: surface,
		deck:    deck,
		layers:  layers,
		anim:    anim,
		mat:     mat,
	})
}

// vertexIndex merges vertices closer than limit using a uniform grid.
type vertexIndex struct {
	limit float64
	cells map[[3]int64][]int
	verts []Vertex
}

func newVertexIndex(limit float64) *vertexIndex {
	return &vertexIndex{limit: limit, cells: map[[3]int64][]int{}}
}

func (vi *vertexIndex) cell(v Vertex) [3]int64 {
	return [3]int64{
		int64(math.Floor(v.X / vi.limit)),
		int64(math.Floor(v.Y / vi.limit)),
		int64(math.Floor(v.Z / vi.limit)),
	}
}

func (vi *vertexIndex) add(v Vertex) int {
	c := vi.cell(v)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, i := range vi.cells[[3]int64{c[0] + dx, c[1] + dy, c[2] + dz}] {
					if vi.verts[i].EqualsWithin(v, vi.limit) {
						return i
					}
				}
			}
		}
	}
	i := len(vi.verts)
	vi.verts = append(vi.verts, v)
	vi.cells[c] = append(vi.cells[c], i)
	return i
}

type meshImages struct {
	texture *Image
	panel   *Image
	regions []Region
}

func (im meshImages) forFace(f *Face) (*Image, *Region) {
	if f.Flags&FacePanel == 0 {
		return im.texture, nil
	}
	if f.Region >= 0 && f.Region < len(im.regions) {
		return im.panel, &im.regions[f.Region]
	}
	return im.panel, nil
}

// finalize merges vertices and computes vertex normals.
func (m *pendingMesh) finalize(name string, images meshImages, transform *geom.Matrix4) *Mesh {
	mesh := &Mesh{
		Name:     name,
		Material: m.mat,
		Surface:  m.surface,
		Deck:     m.deck == deckOn,
		Layers:   m.layers,
	}

	var centre Vertex
	if m.anim.arm != nil {
		mesh.Armature = m.anim.arm
		mesh.Bone = m.anim.bone
		if m.anim.bone != nil {
			mesh.Origin = m.anim.bone.Head
		}
		centre = mesh.Origin.Sub(m.anim.offset)
	} else {
		mesh.Transform = transform
	}

	vi := newVertexIndex(VertexLimit)
	for _, f := range m.faces {
		face := &MeshFace{Flags: f.Flags}
		face.Image, face.Region = images.forFace(f)
		for i, v := range f.V {
			idx := vi.add(v.Sub(centre))
			if containsIndex(face.Indices, idx) {
				continue
			}
			face.Indices = append(face.Indices, idx)
			face.UV = append(face.UV, f.UV[i])
		}
		if len(face.Indices) < 3 {
			continue
		}
		mesh.Faces = append(mesh.Faces, face)
	}
	mesh.Vertices = vi.verts
	mesh.Normals = smoothNormals(mesh.Vertices, mesh.Faces)
	return mesh
}

func containsIndex(indices []int, idx int) bool {
	for _, i := range indices {
		if i == idx {
			return true
		}
	}
	return false
}

func smoothNormals(verts []Vertex, faces []*MeshFace) []*geom.Vector3 {
	normal := make([]*geom.Vector3, len(verts))
	for i := range normal {
		normal[i] = &geom.Vector3{}
	}
	for _, face := range faces {
		n := len(face.Indices)
		for i, v := range face.Indices {
			p := verts[v].Vector3()
			prev := verts[face.Indices[(i+n-1)%n]].Vector3().Sub(p)
			next := verts[face.Indices[(i+1)%n]].Vector3().Sub(p)
			cross := next.Cross(prev)
			if cross.LenSqr() == 0 {
				continue
			}
			normal[v] = normal[v].Add(cross.Normalize())
		}
	}
	for _, n := range normal {
		if n.LenSqr() == 0 {
			n.Z = 1
			continue
		}
		n.Normalize()
	}
	return normal
}

// faceNormal returns the normal of a counter-clockwise face.
func faceNormal(verts []Vertex, face *MeshFace) *geom.Vector3 {
	n := &geom.Vector3{}
	for i := range face.Indices {
		a := verts[face.Indices[i]]
		b := verts[face.Indices[(i+1)%len(face.Indices)]]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	if n.LenSqr() == 0 {
		return geom.NewVector3(0, 0, 1)
	}
	return n.Normalize()
}

// FaceNormal is the geometric normal of f, used for flat shaded faces.
func (m *Mesh) FaceNormal(f *MeshFace) *geom.Vector3 {
	return faceNormal(m.Vertices, f)
}
