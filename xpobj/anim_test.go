package xpobj

import (
	"math"
	"testing"

	"github.com/binzume/xpobjconv/dataref"
	"github.com/binzume/xpobjconv/geom"
)

func TestNormalizeRotation(t *testing.T) {
	tests := []struct {
		r, v   float64
		wr, wv float64
	}{
		{720, 1, 180, 0.25},
		{90, 1, 90, 1},
		{-360, 2, -180, 1},
		{359, 1, 359, 1},
	}
	for _, tt := range tests {
		r, v := normalizeRotation(tt.r, tt.v)
		if r != tt.wr || v != tt.wv {
			t.Errorf("normalizeRotation(%v, %v) = %v, %v", tt.r, tt.v, r, v)
		}
		if r/v != tt.r/tt.v {
			t.Errorf("slope changed for %v", tt.r)
		}
	}
}

func TestAnimShiftOnly(t *testing.T) {
	src := v8Tri +
		"ANIM_begin\n" +
		"ANIM_trans 1 2 3 1 2 3 0 0\n" +
		"TRIS 0 3\n" +
		"ANIM_end\n"
	res, b := importString(t, src, nil)

	if len(res.Armatures) != 1 {
		t.Fatalf("%d armatures", len(res.Armatures))
	}
	arm := res.Armatures[0]
	if len(arm.Bones) != 0 || len(b.bones) != 0 {
		t.Errorf("%d bones", len(arm.Bones))
	}
	if arm.Location != (Vertex{1, -3, 2}) {
		t.Errorf("location %v", arm.Location)
	}
	if len(b.skeletons) != 1 || b.skeletons[0] != arm {
		t.Error("skeleton should be finalized")
	}
	m := b.meshes[0]
	if m.Armature != arm || m.Bone != nil {
		t.Errorf("mesh armature %v bone %v", m.Armature, m.Bone)
	}
	// vertices stay in the armature frame
	if m.Vertices[m.Faces[0].Indices[0]] != (Vertex{0, -1, 0}) {
		t.Errorf("vertex %v", m.Vertices[m.Faces[0].Indices[0]])
	}
}

func TestAnimTransBone(t *testing.T) {
	src := v8Tri +
		"ANIM_begin\n" +
		"ANIM_trans 0 0 0 0 1 0 0 1 sim/foo/bar\n" +
		"TRIS 0 3\n" +
		"ANIM_end\n"
	res, b := importString(t, src, nil)

	arm := res.Armatures[0]
	if len(arm.Bones) != 1 {
		t.Fatalf("%d bones", len(arm.Bones))
	}
	bone := arm.Bones[0]
	if bone.Name != "bar" || bone.DataRef != "bar" || bone.Parent != nil {
		t.Errorf("bone %+v", bone)
	}
	if len(bone.Keyframes) != 2 || *bone.Keyframes[0] != *geom.NewMatrix4() {
		t.Fatalf("keyframes %v", bone.Keyframes)
	}
	if tr := bone.Keyframes[1].Translation(); *tr != (geom.Vector3{X: 0, Y: 0, Z: 1}) {
		t.Errorf("translation %v", tr)
	}
	if v, _ := arm.Properties.Get("bar"); v != "sim/foo" {
		t.Errorf("namespace property %v", v)
	}
	if b.meshes[0].Bone != bone || len(b.bones) != 1 {
		t.Error("mesh should be attached to the bone")
	}

	known := resolverFunc(func(name string) dataref.Resolution {
		return dataref.Resolution{Status: dataref.Unambiguous, Namespace: "sim/foo/", Arity: 1}
	})
	res, _ = importString(t, src, &Options{DataRefs: known})
	if _, ok := res.Armatures[0].Properties.Get("bar"); ok {
		t.Error("known datarefs need no namespace")
	}
}

func TestAnimNested(t *testing.T) {
	src := v8Tri +
		"ANIM_begin\n" +
		"ANIM_trans 0 0 0 0 1 0 0 1 sim/foo/bar\n" +
		"ANIM_begin\n" +
		"ANIM_rotate 0 1 0 0 720 0 2 sim/foo/baz\n" +
		"TRIS 0 3\n" +
		"ANIM_end\n" +
		"ANIM_begin\n" +
		"ANIM_trans 1 0 0 1 0 0 0 0\n" +
		"ANIM_rotate 0 1 0 0 90 0 1 sim/foo/bar\n" +
		"TRIS 0 3\n" +
		"ANIM_end\n" +
		"ANIM_end\n"
	res, b := importString(t, src, nil)

	arm := res.Armatures[0]
	if len(arm.Bones) != 3 {
		t.Fatalf("%d bones", len(arm.Bones))
	}
	bar, baz, bar2 := arm.Bones[0], arm.Bones[1], arm.Bones[2]
	if baz.Name != "baz" || baz.Parent != bar {
		t.Errorf("baz %+v", baz)
	}
	if bar2.Name != "bar.001" || bar2.Parent != bar || bar2.Head != (Vertex{1, 0, 0}) {
		t.Errorf("bar2 %+v", bar2)
	}
	if v, _ := arm.Properties.Get("baz_v2"); v != 0.5 {
		t.Errorf("baz_v2 %v", v)
	}
	// 720 degrees is halved twice
	// first column is the rotated x axis
	if k := baz.Keyframes[1]; math.Abs(k[0]+1) > 1e-9 || math.Abs(k[1]) > 1e-9 {
		t.Errorf("rotated %v", k)
	}
	if k := bar2.Keyframes[1]; math.Abs(k[0]) > 1e-9 || math.Abs(k[1]-1) > 1e-9 {
		t.Errorf("rotated %v", k)
	}
	if b.meshes[1].Bone != bar2 || b.meshes[1].Origin != bar2.Head {
		t.Errorf("second mesh bone %v", b.meshes[1].Bone)
	}
	// vertices are relative to the bone head
	if v := b.meshes[1].Vertices[b.meshes[1].Faces[0].Indices[0]]; v != (Vertex{0, -1, 0}) {
		t.Errorf("vertex %v", v)
	}

	// two datarefs in one frame chain rather than becoming siblings
	src = v8Tri +
		"ANIM_begin\n" +
		"ANIM_rotate 0 0 1 0 90 0 1 sim/foo/rot1\n" +
		"ANIM_rotate 1 0 0 0 90 0 1 sim/foo/rot2\n" +
		"TRIS 0 3\n" +
		"ANIM_end\n"
	res, b = importString(t, src, nil)
	arm = res.Armatures[0]
	if len(arm.Bones) != 2 {
		t.Fatalf("%d bones", len(arm.Bones))
	}
	rot1, rot2 := arm.Bones[0], arm.Bones[1]
	if rot1.Name != "rot1" || rot1.Parent != nil || rot2.Name != "rot2" || rot2.Parent != rot1 {
		t.Errorf("rot1 %+v rot2 %+v", rot1, rot2)
	}
	if b.meshes[0].Bone != rot2 {
		t.Errorf("mesh bone %v", b.meshes[0].Bone)
	}
}

func TestAnimKeyframes(t *testing.T) {
	src := v8Tri +
		"ANIM_begin\n" +
		"ANIM_trans_begin sim/foo/slide\n" +
		"ANIM_trans_key 0 1 0 0\n" +
		"ANIM_trans_key 1 2 0 0\n" +
		"ANIM_trans_key 2 4 0 0\n" +
		"ANIM_trans_end\n" +
		"ANIM_rotate_begin 0 0 1 sim/foo/slide\n" +
		"ANIM_rotate_key 0 0\n" +
		"ANIM_rotate_key 1 90\n" +
		"ANIM_rotate_end\n" +
		"ANIM_keyframe_loop 2\n" +
		"TRIS 0 3\n" +
		"ANIM_end\n"
	res, _ := importString(t, src, nil)

	arm := res.Armatures[0]
	if len(arm.Bones) != 1 {
		t.Fatalf("%d bones", len(arm.Bones))
	}
	bone := arm.Bones[0]
	if arm.Location != (Vertex{1, 0, 0}) || bone.Head != (Vertex{}) {
		t.Errorf("location %v head %v", arm.Location, bone.Head)
	}
	if len(bone.Keyframes) != 3 {
		t.Fatalf("%d keyframes", len(bone.Keyframes))
	}
	if tr := bone.Keyframes[2].Translation(); math.Abs(tr.X-3) > 1e-9 {
		t.Errorf("key 2 translation %v", tr)
	}
	for name, want := range map[string]float64{"slide_v2": 1, "slide_v3": 2, "slide_loop": 2} {
		if v, _ := arm.Properties.Get(name); v != want {
			t.Errorf("%s = %v", name, v)
		}
	}
	if _, ok := arm.Properties.Get("slide_v1"); ok {
		t.Error("zero first value is not stored")
	}
}

func TestAnimShowHide(t *testing.T) {
	src := v8Tri +
		"ANIM_begin\n" +
		"ANIM_hide 0 1 sim/foo/door\n" +
		"TRIS 0 3\n" +
		"ANIM_end\n"
	res, _ := importString(t, src, nil)

	arm := res.Armatures[0]
	if len(arm.Bones) != 1 || arm.Bones[0].Name != "Bone" {
		t.Fatalf("bones %+v", arm.Bones)
	}
	for name, want := range map[string]interface{}{"door": "sim/foo/", "door_hide_v1": 0.0, "door_hide_v2": 1.0} {
		if v, _ := arm.Properties.Get(name); v != want {
			t.Errorf("%s = %v", name, v)
		}
	}
}

func TestAnimMissingEnd(t *testing.T) {
	res, b := importString(t, v8Tri+"ANIM_begin\nANIM_begin\nTRIS 0 3\n", nil)
	if len(res.Armatures) != 1 || len(b.skeletons) != 1 {
		t.Errorf("%d armatures", len(res.Armatures))
	}
	if len(res.Log) != 1 || res.Log[0] != "Missing ANIM_end" {
		t.Errorf("log %q", res.Log)
	}
}

func TestUniqueBoneName(t *testing.T) {
	a := &animState{arm: &Armature{}}
	long := "abcdefghijklmnopqrstu"
	if n := a.uniqueBoneName(long); n != "abcdefghijklmnopq" {
		t.Errorf("short name %q", n)
	}
	a.arm.Bones = append(a.arm.Bones, &Bone{Name: "abcdefghijklmnopq"}, &Bone{Name: "abcdefghijklm.001"})
	if n := a.uniqueBoneName(long); n != "abcdefghijklm.002" {
		t.Errorf("unique name %q", n)
	}
}
