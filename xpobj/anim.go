package xpobj

import (
	"fmt"
	"math"
	"strings"

	"github.com/binzume/xpobjconv/dataref"
	"github.com/binzume/xpobjconv/geom"
)

// ShortNameLen is the maximum length of a bone name.
const ShortNameLen = 17

var boneTailOffset = Vertex{0, 0.1, 0}

// animFrame is one ANIM_begin level. bone is nil until a bone is committed
// at this level.
type animFrame struct {
	offset Vertex
	bone   *Bone
}

// pendingBone collects keyframes for one dataref until a different dataref
// or a primitive arrives.
type pendingBone struct {
	dataref string
	head    Vertex
	hasHead bool
	keys    []*geom.Matrix4
}

// compose applies m after the existing keyframe i.
func (p *pendingBone) compose(i int, m *geom.Matrix4) {
	if i < len(p.keys) {
		p.keys[i] = p.keys[i].Mul(m)
	} else {
		p.keys = append(p.keys, m)
	}
}

type rotateKeys struct {
	axis *geom.Vector3
	n    int
}

type transKeys struct {
	first    Vertex
	absolute bool
	n        int
}

type animState struct {
	arm        *Armature
	stack      []animFrame
	pending    *pendingBone
	rotate     *rotateKeys
	trans      *transKeys
	visibility bool
	armatures  []*Armature
}

func (a *animState) active() bool {
	return a.arm != nil
}

func (a *animState) top() *animFrame {
	return &a.stack[len(a.stack)-1]
}

func (a *animState) context() animContext {
	if a.arm == nil {
		return animContext{}
	}
	return animContext{arm: a.arm, offset: a.top().offset, bone: a.top().bone}
}

// position converts a vertex in the current animation frame to armature space.
func (a *animState) position(v Vertex) Vertex {
	if a.arm == nil {
		return v
	}
	return v.Add(a.top().offset)
}

// nearestBone skips levels that only shift.
func (a *animState) nearestBone(frames []animFrame) *Bone {
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].bone != nil {
			return frames[i].bone
		}
	}
	return nil
}

func (a *animState) begin(transform *geom.Matrix4) {
	if a.arm == nil {
		a.arm = &Armature{Name: "Armature", Transform: transform}
		a.stack = []animFrame{{}}
		a.visibility = false
		return
	}
	a.commit()
	a.stack = append(a.stack, animFrame{offset: a.top().offset})
}

// end closes one level. Returns the armature when the outermost level closes.
func (a *animState) end(layers int) (*Armature, bool) {
	if a.arm == nil || len(a.stack) == 0 {
		return nil, false
	}
	a.commit()
	a.stack = a.stack[:len(a.stack)-1]
	if len(a.stack) > 0 {
		return nil, true
	}
	arm := a.arm
	arm.Layers = layers
	a.armatures = append(a.armatures, arm)
	a.arm = nil
	a.pending = nil
	a.rotate = nil
	a.trans = nil
	return arm, true
}

// shiftArmature moves the armature by the offset of the outermost level.
func (a *animState) shiftArmature() {
	if len(a.stack) == 1 {
		a.arm.Location = a.arm.Location.Add(a.top().offset)
		a.top().offset = Vertex{}
	}
}

func (a *animState) uniqueBoneName(orig string) string {
	name := shortName(orig)
	for i := 1; a.arm.Bone(name) != nil; i++ {
		suffix := fmt.Sprintf(".%03d", i)
		name = shortName(orig[:min(len(orig), ShortNameLen-len(suffix))]) + suffix
	}
	return name
}

func shortName(name string) string {
	if len(name) > ShortNameLen {
		return name[:ShortNameLen]
	}
	return name
}

// commit turns the pending bone into a real one.
func (a *animState) commit() {
	if a.arm == nil {
		return
	}
	p := a.pending
	if p == nil {
		if len(a.stack) != 1 || a.top().bone != nil || !a.visibility {
			return
		}
		// receptacle for show/hide
		p = &pendingBone{dataref: "Bone", hasHead: true}
	}
	if !p.hasHead {
		p.head = a.top().offset
	}
	if len(p.keys) == 0 {
		p.keys = []*geom.Matrix4{geom.NewMatrix4()}
	}
	bone := &Bone{
		Name:      a.uniqueBoneName(p.dataref),
		DataRef:   p.dataref,
		Head:      p.head,
		Tail:      p.head.Add(boneTailOffset),
		Keyframes: p.keys,
	}
	if top := a.top(); top.bone != nil {
		bone.Parent = top.bone
	} else {
		bone.Parent = a.nearestBone(a.stack[:len(a.stack)-1])
	}
	a.arm.Bones = append(a.arm.Bones, bone)
	a.top().bone = bone
	a.pending = nil
}

// start begins a new pending bone for ref, committing one for another dataref.
// Returns the pending bone and whether it already existed for ref.
func (a *animState) start(ref string, head Vertex, hasHead bool) (*pendingBone, bool) {
	if a.pending != nil {
		if a.pending.dataref == ref {
			return a.pending, true
		}
		if a.pending.hasHead {
			head, hasHead = a.pending.head, true
		}
		a.commit()
	}
	a.pending = &pendingBone{dataref: ref, head: head, hasHead: hasHead}
	return a.pending, false
}

// splitDataRef returns the path segments. A missing dataref is "none".
func splitDataRef(ref string) []string {
	if ref == "" {
		return []string{"none"}
	}
	return strings.Split(ref, "/")
}

func bareName(name string) string {
	if i := strings.IndexByte(name, '['); i >= 0 {
		return name[:i]
	}
	return name
}

// noteDataRef records the namespace of custom or ambiguous datarefs on props.
// Returns the last path segment.
func noteDataRef(resolver DataRefResolver, props *Properties, ref string, visibility bool) string {
	parts := splitDataRef(ref)
	name := parts[len(parts)-1]
	if len(parts) < 2 {
		return name
	}
	bare := bareName(name)
	status := dataref.Unknown
	if resolver != nil {
		status = resolver.Resolve(bare).Status
	}
	ns := strings.Join(parts[:len(parts)-1], "/")
	if visibility {
		if status == dataref.Unknown {
			props.Set(bare, ns+"/")
		}
	} else if status != dataref.Unambiguous {
		props.Set(bare, ns)
	}
	return name
}

// normalizeRotation halves the angle and value until the angle is under a
// full turn. Keeps angle/value constant.
func normalizeRotation(r, v float64) (float64, float64) {
	for r >= 360 || r <= -360 {
		r /= 2
		v /= 2
	}
	return r, v
}

func rotation(axis *geom.Vector3, degrees float64) *geom.Matrix4 {
	if axis.LenSqr() == 0 {
		return geom.NewMatrix4()
	}
	return geom.NewAxisAngleMatrix4(axis, degrees*math.Pi/180)
}

func translation(v Vertex) *geom.Matrix4 {
	return geom.NewTranslateMatrix4(v.X, v.Y, v.Z)
}
