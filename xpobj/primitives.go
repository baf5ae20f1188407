package xpobj

import (
	"fmt"
	"math"

	"github.com/binzume/xpobjconv/geom"
)

const (
	// VertexLimit is the max distance between vertices for them to be merged.
	VertexLimit = 0.0001
	VertexRound = 4

	// DuplicateLimit is used when looking for back-to-back faces.
	DuplicateLimit = 0.0001

	// UVLimit is 1/2 pixel in 128, 1 pixel in 256, 2 pixels in 512, etc.
	UVLimit = 0.004
	UVRound = 4
)

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// Vertex is a position in Z-up space.
type Vertex struct {
	X, Y, Z float64
}

func NewVertex(x, y, z float64) Vertex {
	return Vertex{round(x, VertexRound), round(y, VertexRound), round(z, VertexRound)}
}

// RemapVertex converts a file coordinate (Y-up) to Z-up.
func RemapVertex(x, y, z float64) Vertex {
	return NewVertex(x, -z, y)
}

func (v Vertex) Add(o Vertex) Vertex {
	return Vertex{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vertex) Sub(o Vertex) Vertex {
	return Vertex{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vertex) Scale(s float64) Vertex {
	return Vertex{v.X * s, v.Y * s, v.Z * s}
}

func (v Vertex) Equals(o Vertex) bool {
	return v.EqualsWithin(o, VertexLimit)
}

func (v Vertex) EqualsWithin(o Vertex, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps && math.Abs(v.Z-o.Z) <= eps
}

func (v Vertex) Vector3() *geom.Vector3 {
	return geom.NewVector3(v.X, v.Y, v.Z)
}

func (v Vertex) String() string {
	return fmt.Sprintf("%9.4f %9.4f %9.4f", v.X, v.Y, v.Z)
}

type UV struct {
	S, T float64
}

func (uv UV) Equals(o UV) bool {
	return math.Abs(uv.S-o.S) <= UVLimit && math.Abs(uv.T-o.T) <= UVLimit
}

type FaceFlags uint8

// Face flags, in v7 sort order.
const (
	FaceHard FaceFlags = 1 << iota
	FaceTwoSide
	FaceFlat
	FaceAlpha
	FacePanel
	FaceNPoly
)

// NoRegion marks a panel face that uses the whole panel texture.
const NoRegion = -1

type Face struct {
	V      []Vertex
	UV     []UV
	Flags  FaceFlags
	Region int
}

func newFace(flags FaceFlags, n int) *Face {
	return &Face{V: make([]Vertex, 0, n), UV: make([]UV, 0, n), Flags: flags, Region: NoRegion}
}

func (f *Face) add(v Vertex, uv UV) {
	f.V = append(f.V, v)
	f.UV = append(f.UV, uv)
}

// RemoveDuplicateVertices merges corners that share position and uv.
// Returns the number of remaining corners.
func (f *Face) RemoveDuplicateVertices() int {
	for i := 0; i < len(f.V)-1; i++ {
		for j := i + 1; j < len(f.V); {
			if f.V[i].Equals(f.V[j]) && f.UV[i].Equals(f.UV[j]) {
				f.V[i] = NewVertex((f.V[i].X+f.V[j].X)/2, (f.V[i].Y+f.V[j].Y)/2, (f.V[i].Z+f.V[j].Z)/2)
				f.UV[i] = UV{round((f.UV[i].S+f.UV[j].S)/2, UVRound), round((f.UV[i].T+f.UV[j].T)/2, UVRound)}
				f.V = append(f.V[:j], f.V[j+1:]...)
				f.UV = append(f.UV[:j], f.UV[j+1:]...)
			} else {
				j++
			}
		}
	}
	return len(f.V)
}

// isBackToBack reports whether f is o with reversed winding.
func (f *Face) isBackToBack(o *Face) bool {
	n := len(f.V)
	if n != len(o.V) {
		return false
	}
	for i := 0; i < n; i++ {
		if !f.V[i].EqualsWithin(o.V[n-1-i], DuplicateLimit) {
			return false
		}
	}
	return true
}

type Material struct {
	Diffuse   [3]float64
	Emission  [3]float64
	Shininess float64
}

var DefaultMaterial = Material{Diffuse: [3]float64{1, 1, 1}}

func (m *Material) IsDefault() bool {
	return *m == DefaultMaterial
}

// materialCache hands out one *Material per distinct value.
type materialCache []*Material

func newMaterialCache() materialCache {
	m := DefaultMaterial
	return materialCache{&m}
}

func (c *materialCache) get(m Material) *Material {
	for _, cached := range *c {
		if *cached == m {
			return cached
		}
	}
	n := m
	*c = append(*c, &n)
	return &n
}

func (c materialCache) defaultMaterial() *Material {
	return c[0]
}
