package xpobj

import (
	"github.com/binzume/xpobjconv/dataref"
	"github.com/binzume/xpobjconv/geom"
	"github.com/pkg/errors"
)

// Handle is whatever a Builder uses to identify a created mesh.
type Handle interface{}

// Builder receives the imported scene. It is called only after the whole
// document has been parsed.
type Builder interface {
	CreateMesh(m *Mesh) (Handle, error)
	CreateBone(arm *Armature, b *Bone) error
	CreateLight(l *Light) error
	CreateLineSegment(l *Line) error
	FinalizeSkeleton(arm *Armature) error
	CreateEmpty(e *Empty) error
}

var (
	ErrTextureNotFound = errors.New("texture not found")
	ErrPanelNotFound   = errors.New("panel texture not found")
)

type Image struct {
	Name   string
	Path   string
	Width  int
	Height int

	// Placeholder is set when no usable file was found.
	Placeholder bool
	// CopiedFrom is the original path when the file was copied to a name without spaces.
	CopiedFrom string
}

func placeholderImage(name string) *Image {
	return &Image{Name: name, Width: 1024, Height: 1024, Placeholder: true}
}

type TextureLocator interface {
	// Locate finds the file for a texture statement. Returns ErrTextureNotFound if missing.
	Locate(name string) (*Image, error)
	LocatePanel() (*Image, error)
}

type DataRefResolver interface {
	Resolve(name string) dataref.Resolution
}

type Property struct {
	Name  string
	Value interface{}
}

type Properties []Property

// Set adds or replaces a property. Returns false if it already had the value.
func (p *Properties) Set(name string, value interface{}) bool {
	for i := range *p {
		if (*p)[i].Name == name {
			if (*p)[i].Value == value {
				return false
			}
			(*p)[i].Value = value
			return true
		}
	}
	*p = append(*p, Property{Name: name, Value: value})
	return true
}

func (p Properties) Get(name string) (interface{}, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return nil, false
}

// Armature holds a reconstructed bone tree. Bone positions are relative to Location.
type Armature struct {
	Name       string
	Location   Vertex
	Transform  *geom.Matrix4
	Layers     int
	Properties Properties
	Bones      []*Bone
}

func (a *Armature) Bone(name string) *Bone {
	for _, b := range a.Bones {
		if b.Name == name {
			return b
		}
	}
	return nil
}

type Bone struct {
	Name    string
	DataRef string
	Head    Vertex
	Tail    Vertex
	Parent  *Bone
	// Keyframes are bone local matrices, index 0 is the first keyframe.
	Keyframes []*geom.Matrix4
}

type Region struct {
	X, Y, Width, Height int
}

type MeshFace struct {
	Indices []int
	UV      []UV
	Flags   FaceFlags
	Image   *Image
	// Region is the cockpit panel region for panel faces, nil for the whole panel.
	Region *Region
}

type Mesh struct {
	Name     string
	Vertices []Vertex
	Normals  []*geom.Vector3
	Faces    []*MeshFace
	Material *Material
	Surface  string
	Deck     bool
	Layers   int

	// Origin is the bone head in armature space, or zero.
	Origin    Vertex
	Armature  *Armature
	Bone      *Bone
	Transform *geom.Matrix4
}

type CustomLight struct {
	RGBA    [4]float64
	Size    float64
	UV      [4]float64
	DataRef string
}

type Light struct {
	Name       string
	Color      [3]float64
	Energy     float64
	Position   Vertex
	Properties Properties
	Custom     *CustomLight
	Layers     int
	Armature   *Armature
	Bone       *Bone
	Transform  *geom.Matrix4
}

type Line struct {
	Name      string
	Points    [2]Vertex
	Color     [3]float64
	Material  *Material
	Layers    int
	Armature  *Armature
	Bone      *Bone
	Transform *geom.Matrix4
}

type Empty struct {
	Name       string
	Properties Properties
	Transform  *geom.Matrix4
}
