// Package scene collects imported objects in memory.
package scene

import (
	"fmt"

	"github.com/binzume/xpobjconv/xpobj"
	"github.com/pkg/errors"
)

var (
	ErrUnknownParent   = errors.New("parent bone not created")
	ErrFinalized       = errors.New("skeleton already finalized")
	ErrDuplicateBone   = errors.New("duplicate bone")
	ErrUnknownArmature = errors.New("armature has no bones or was not created")
)

type Armature struct {
	*xpobj.Armature
	Name      string
	Bones     []*xpobj.Bone
	Finalized bool
}

// BoneIndex returns the index of b in Bones, or -1.
func (a *Armature) BoneIndex(b *xpobj.Bone) int {
	for i, bone := range a.Bones {
		if bone == b {
			return i
		}
	}
	return -1
}

type Mesh struct {
	*xpobj.Mesh
	Name string
}

type Light struct {
	*xpobj.Light
	Name string
}

type Line struct {
	*xpobj.Line
	Name string
}

type Empty struct {
	*xpobj.Empty
	Name string
}

// Scene implements xpobj.Builder. Object names are made unique by adding
// a numeric suffix.
type Scene struct {
	Meshes    []*Mesh
	Lights    []*Light
	Lines     []*Line
	Empties   []*Empty
	Armatures []*Armature

	names     map[string]bool
	armatures map[*xpobj.Armature]*Armature
}

func New() *Scene {
	return &Scene{
		names:     map[string]bool{},
		armatures: map[*xpobj.Armature]*Armature{},
	}
}

func (s *Scene) uniqueName(name string) string {
	n := name
	for i := 1; s.names[n]; i++ {
		n = fmt.Sprintf("%s.%03d", name, i)
	}
	s.names[n] = true
	return n
}

// Armature returns the scene armature for arm, or nil.
func (s *Scene) Armature(arm *xpobj.Armature) *Armature {
	return s.armatures[arm]
}

func (s *Scene) armature(arm *xpobj.Armature) *Armature {
	if a, ok := s.armatures[arm]; ok {
		return a
	}
	a := &Armature{Armature: arm, Name: s.uniqueName(arm.Name)}
	s.armatures[arm] = a
	s.Armatures = append(s.Armatures, a)
	return a
}

func (s *Scene) CreateMesh(m *xpobj.Mesh) (xpobj.Handle, error) {
	if m.Armature != nil {
		a := s.armature(m.Armature)
		if m.Bone != nil && a.BoneIndex(m.Bone) < 0 {
			return nil, errors.Wrapf(ErrUnknownParent, "mesh %s", m.Name)
		}
	}
	mesh := &Mesh{Mesh: m, Name: s.uniqueName(m.Name)}
	s.Meshes = append(s.Meshes, mesh)
	return mesh, nil
}

// CreateBone adds b to the armature. The parent must be created first.
func (s *Scene) CreateBone(arm *xpobj.Armature, b *xpobj.Bone) error {
	a := s.armature(arm)
	if a.Finalized {
		return errors.Wrap(ErrFinalized, a.Name)
	}
	if a.BoneIndex(b) >= 0 {
		return errors.Wrap(ErrDuplicateBone, b.Name)
	}
	if b.Parent != nil && a.BoneIndex(b.Parent) < 0 {
		return errors.Wrapf(ErrUnknownParent, "bone %s", b.Name)
	}
	a.Bones = append(a.Bones, b)
	return nil
}

func (s *Scene) FinalizeSkeleton(arm *xpobj.Armature) error {
	a := s.armature(arm)
	if a.Finalized {
		return errors.Wrap(ErrFinalized, a.Name)
	}
	a.Finalized = true
	return nil
}

func (s *Scene) CreateLight(l *xpobj.Light) error {
	if err := s.checkParent(l.Armature, l.Bone); err != nil {
		return errors.Wrapf(err, "light %s", l.Name)
	}
	s.Lights = append(s.Lights, &Light{Light: l, Name: s.uniqueName(l.Name)})
	return nil
}

func (s *Scene) CreateLineSegment(l *xpobj.Line) error {
	if err := s.checkParent(l.Armature, l.Bone); err != nil {
		return errors.Wrapf(err, "line %s", l.Name)
	}
	s.Lines = append(s.Lines, &Line{Line: l, Name: s.uniqueName(l.Name)})
	return nil
}

func (s *Scene) CreateEmpty(e *xpobj.Empty) error {
	s.Empties = append(s.Empties, &Empty{Empty: e, Name: s.uniqueName(e.Name)})
	return nil
}

func (s *Scene) checkParent(arm *xpobj.Armature, b *xpobj.Bone) error {
	if arm == nil || b == nil {
		if arm != nil {
			s.armature(arm)
		}
		return nil
	}
	a, ok := s.armatures[arm]
	if !ok {
		return ErrUnknownArmature
	}
	if a.BoneIndex(b) < 0 {
		return ErrUnknownParent
	}
	return nil
}

// Stats is a summary for logging.
type Stats struct {
	Meshes, Faces, Vertices, Lights, Lines, Armatures, Bones int
}

func (s *Scene) Stats() Stats {
	st := Stats{
		Meshes:    len(s.Meshes),
		Lights:    len(s.Lights),
		Lines:     len(s.Lines),
		Armatures: len(s.Armatures),
	}
	for _, m := range s.Meshes {
		st.Faces += len(m.Faces)
		st.Vertices += len(m.Vertices)
	}
	for _, a := range s.Armatures {
		st.Bones += len(a.Bones)
	}
	return st
}
