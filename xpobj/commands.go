package xpobj

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/binzume/xpobjconv/geom"
)

type commandFunc func(im *Importer, token string) error

type codeFunc func(im *Importer, code int) error

// commands is shared by all formats. v6 files use it for tokens that are
// not numeric codes.
var commands = map[string]commandFunc{
	// v8
	"COCKPIT_REGION": (*Importer).cmdCockpitRegion,
	"VT":             (*Importer).cmdVT,
	"VLINE":          (*Importer).cmdVLine,
	"VLIGHT":         (*Importer).cmdVLight,
	"IDX":            (*Importer).cmdIdx,
	"IDX10":          (*Importer).cmdIdx,
	"LIGHTS":         (*Importer).cmdLights,
	"LIGHT_NAMED":    (*Importer).cmdLightNamed,
	"LIGHT_CUSTOM":   (*Importer).cmdLightCustom,
	"LINES":          (*Importer).cmdLines,
	"TRIS":           (*Importer).cmdTris,
	"smoke_black":    (*Importer).cmdSmoke,
	"smoke_white":    (*Importer).cmdSmoke,
	"EXPORT":         ignoreCommand,
	"POINT_COUNTS":   ignoreCommand,
	"TEXTURE_LIT":    ignoreCommand,
	"TEXTURE_NORMAL": ignoreCommand,

	// animation
	"ANIM_begin":         (*Importer).cmdAnimBegin,
	"ANIM_end":           (*Importer).cmdAnimEnd,
	"ANIM_trans":         (*Importer).cmdAnimTrans,
	"ANIM_trans_begin":   (*Importer).cmdAnimTransBegin,
	"ANIM_trans_key":     (*Importer).cmdAnimTransKey,
	"ANIM_trans_end":     (*Importer).cmdAnimTransEnd,
	"ANIM_rotate":        (*Importer).cmdAnimRotate,
	"ANIM_rotate_begin":  (*Importer).cmdAnimRotateBegin,
	"ANIM_rotate_key":    (*Importer).cmdAnimRotateKey,
	"ANIM_rotate_end":    (*Importer).cmdAnimRotateEnd,
	"ANIM_keyframe_loop": (*Importer).cmdAnimKeyframeLoop,
	"ANIM_show":          (*Importer).cmdAnimShowHide,
	"ANIM_hide":          (*Importer).cmdAnimShowHide,

	// v7
	"light":        (*Importer).cmdLight,
	"line":         (*Importer).cmdLine,
	"tri":          (*Importer).cmdTri,
	"quad":         (*Importer).cmdQuad,
	"quad_hard":    (*Importer).cmdQuad,
	"quad_movie":   (*Importer).cmdQuad,
	"quad_cockpit": (*Importer).cmdQuad,
	"polygon":      (*Importer).cmdPolygon,
	"quad_strip":   (*Importer).cmdQuadStrip,
	"tri_strip":    (*Importer).cmdTriStrip,
	"tri_fan":      (*Importer).cmdTriFan,

	// state
	"slung_load_weight":   (*Importer).cmdSlungLoadWeight,
	"ATTR_hard":           (*Importer).cmdHard,
	"ATTR_hard_deck":      (*Importer).cmdHard,
	"ATTR_no_hard":        (*Importer).cmdNoHard,
	"ATTR_cockpit":        (*Importer).cmdCockpit,
	"ATTR_cockpit_region": (*Importer).cmdCockpit,
	"ATTR_no_cockpit":     (*Importer).cmdCockpit,
	"ATTR_shade_flat":     (*Importer).cmdShade,
	"ATTR_shade_smooth":   (*Importer).cmdShade,
	"ATTR_poly_os":        (*Importer).cmdPolyOS,
	"ATTR_depth":          (*Importer).cmdDepth,
	"ATTR_no_depth":       (*Importer).cmdDepth,
	"ATTR_cull":           (*Importer).cmdCull,
	"ATTR_no_cull":        (*Importer).cmdCull,
	"ATTR_nocull":         (*Importer).cmdCull,
	"####_alpha":          (*Importer).cmdAlpha,
	"####_no_alpha":       (*Importer).cmdAlpha,
	"ATTR_layer_group":    (*Importer).cmdLayerGroup,
	"ATTR_LOD":            (*Importer).cmdLOD,
	"ATTR_reset":          (*Importer).cmdReset,
	"ATTR_diffuse_rgb":    (*Importer).cmdMaterial,
	"ATTR_difuse_rgb":     (*Importer).cmdMaterial,
	"ATTR_emission_rgb":   (*Importer).cmdMaterial,
	"ATTR_shiny_rat":      (*Importer).cmdMaterial,
}

var v6Commands = map[int]codeFunc{
	1: (*Importer).cmdV6Light,
	2: (*Importer).cmdV6Line,
	3: (*Importer).cmdV6Tri,
	4: (*Importer).cmdV6Quad,
	5: (*Importer).cmdV6Quad,
	8: (*Importer).cmdV6Quad,
}

const v6End = 99

func ignoreCommand(im *Importer, token string) error { return nil }

// readObjects dispatches statements until end of input or "end".
func (im *Importer) readObjects() error {
	for {
		ok, err := im.r.next(true)
		if err != nil || !ok {
			return err
		}
		t, _ := im.r.pop()

		if im.r.format == 6 {
			if code, err := strconv.Atoi(t); err == nil {
				if code == v6End {
					return nil
				}
				if err := im.dispatchCode(code); err != nil {
					return err
				}
				continue
			}
		}
		if t == "end" {
			return nil
		}

		if h, ok := commands[t]; ok {
			if err := h(im, t); err != nil {
				return err
			}
			continue
		}
		switch {
		case strings.HasPrefix(t, "####_"):
			// eg ####_group
		case im.r.format == 6:
			return im.r.errorf(ErrToken, t, "")
		case strings.HasPrefix(t, "ATTR_") || strings.HasPrefix(t, "GLOBAL_"):
			im.warnf("Ignoring unsupported \"%s\"", t)
		}
	}
}

func (im *Importer) dispatchCode(code int) error {
	if code < 0 {
		return im.cmdV6QuadStrip(-code)
	}
	if h, ok := v6Commands[code]; ok {
		return h(im, code)
	}
	return nil
}

// v8 pools

type vtEntry struct {
	v  Vertex
	uv UV
	n  Vertex
}

type colorVertex struct {
	v Vertex
	c [3]float64
}

func (im *Importer) cmdVT(string) error {
	v, err := im.r.vertex()
	if err != nil {
		return err
	}
	n, err := im.r.vertex()
	if err != nil {
		return err
	}
	uv, err := im.r.uv()
	if err != nil {
		return err
	}
	im.vt = append(im.vt, vtEntry{v: v, uv: uv, n: n})
	return nil
}

func (im *Importer) readColorVertex() (colorVertex, error) {
	v, err := im.r.vertex()
	if err != nil {
		return colorVertex{}, err
	}
	c, err := im.r.color()
	return colorVertex{v: v, c: c}, err
}

func (im *Importer) cmdVLine(string) error {
	cv, err := im.readColorVertex()
	im.vline = append(im.vline, cv)
	return err
}

func (im *Importer) cmdVLight(string) error {
	cv, err := im.readColorVertex()
	im.vlight = append(im.vlight, cv)
	return err
}

func (im *Importer) cmdIdx(t string) error {
	n := 1
	if t == "IDX10" {
		n = 10
	}
	for i := 0; i < n; i++ {
		v, err := im.r.int()
		if err != nil {
			return err
		}
		im.idx = append(im.idx, v)
	}
	return nil
}

func (im *Importer) readRange() (int, int, error) {
	a, err := im.r.int()
	if err != nil {
		return 0, 0, err
	}
	b, err := im.r.int()
	return a, b, err
}

func (im *Importer) index(i int) (int, error) {
	if i < 0 || i >= len(im.idx) {
		return 0, im.r.errorf(ErrMisc, strconv.Itoa(i), "index out of range")
	}
	return im.idx[i], nil
}

func (im *Importer) outOfRange(pool string, i int) error {
	return im.r.errorf(ErrMisc, strconv.Itoa(i), pool+" index out of range")
}

func (im *Importer) cmdLights(string) error {
	im.anim.commit()
	a, b, err := im.readRange()
	if err != nil {
		return err
	}
	for i := a; i < a+b; i++ {
		if i < 0 || i >= len(im.vlight) {
			return im.outOfRange("VLIGHT", i)
		}
		im.addLamp(im.vlight[i].v, im.vlight[i].c, "", 1)
	}
	return nil
}

func (im *Importer) cmdLightNamed(string) error {
	im.anim.commit()
	name, err := im.r.input(false)
	if err != nil {
		return err
	}
	v, err := im.r.vertex()
	if err != nil {
		return err
	}
	im.addLamp(v, [3]float64{}, name, 1)
	return nil
}

func (im *Importer) cmdLightCustom(string) error {
	im.anim.commit()
	v, err := im.r.vertex()
	if err != nil {
		return err
	}
	f, err := im.r.floats(9)
	if err != nil {
		return err
	}
	ref, err := im.r.input(false)
	if err != nil {
		return err
	}
	im.addCustomLight(v, [4]float64{f[0], f[1], f[2], f[3]}, f[4], [4]float64{f[5], f[6], f[7], f[8]}, ref)
	return nil
}

func (im *Importer) cmdLines(string) error {
	im.anim.commit()
	a, b, err := im.readRange()
	if err != nil {
		return err
	}
	for i := a; i < a+b; i += 2 {
		var v [2]Vertex
		var c [3]float64
		for j := 0; j < 2; j++ {
			k, err := im.index(i + j)
			if err != nil {
				return err
			}
			if k < 0 || k >= len(im.vline) {
				return im.outOfRange("VLINE", k)
			}
			v[j] = im.vline[k].v
			c = im.vline[k].c // use second colour value
		}
		im.addLine(v, c)
	}
	return nil
}

func (im *Importer) cmdTris(string) error {
	im.anim.commit()
	a, b, err := im.readRange()
	if err != nil {
		return err
	}
	return im.addTris(a, b)
}

func (im *Importer) cmdSmoke(t string) error {
	im.anim.commit()
	v, err := im.r.vertex()
	if err != nil {
		return err
	}
	size, err := im.r.float()
	if err != nil {
		return err
	}
	im.addLamp(v, [3]float64{}, t, size)
	return nil
}

func (im *Importer) cmdCockpitRegion(string) error {
	if err := im.loadPanel(); err != nil {
		return err
	}
	var c [4]int
	for i := range c {
		v, err := im.r.int()
		if err != nil {
			return err
		}
		c[i] = v
	}
	im.regions = append(im.regions, Region{X: c[0], Y: c[1], Width: c[2] - c[0], Height: c[3] - c[1]})
	return nil
}

// animation

func (im *Importer) requireAnim(t string) error {
	if !im.anim.active() {
		return im.r.errorf(ErrMisc, t, "outside ANIM_begin")
	}
	return nil
}

func (im *Importer) cmdAnimBegin(string) error {
	im.anim.begin(im.opts.Transform)
	return nil
}

func (im *Importer) cmdAnimEnd(t string) error {
	if _, ok := im.anim.end(im.layerMask()); !ok {
		return im.r.errorf(ErrMisc, t, "ANIM_END with no matching ANIM_BEGIN")
	}
	return nil
}

func (im *Importer) cmdAnimTrans(t string) error {
	if err := im.requireAnim(t); err != nil {
		return err
	}
	f, err := im.r.floats(6)
	if err != nil {
		return err
	}
	p1, p2 := RemapVertex(f[0], f[1], f[2]), RemapVertex(f[3], f[4], f[5])
	v, err := im.r.floats(2)
	if err != nil {
		return err
	}
	ref, _ := im.r.input(true) // can be omitted if just a shift

	a := &im.anim
	a.top().offset = a.top().offset.Add(p1)
	if a.pending == nil {
		a.shiftArmature()
	}
	if p1.Equals(p2) {
		return nil
	}
	name := im.armDataRef(ref, v[0], v[1])
	p, _ := a.start(name, a.top().offset, true)
	p.compose(0, geom.NewMatrix4())
	p.compose(1, translation(p2.Sub(p1)))
	return nil
}

func (im *Importer) cmdAnimTransBegin(t string) error {
	if err := im.requireAnim(t); err != nil {
		return err
	}
	ref, err := im.r.input(false)
	if err != nil {
		return err
	}
	name := noteDataRef(im.opts.DataRefs, &im.anim.arm.Properties, ref, false)
	a := &im.anim
	if a.pending != nil && a.pending.dataref == name {
		a.trans = &transKeys{absolute: a.pending.hasHead}
		return nil
	}
	a.commit()
	a.pending = &pendingBone{dataref: name}
	a.trans = &transKeys{}
	return nil
}

func (im *Importer) cmdAnimTransKey(t string) error {
	a := &im.anim
	if a.pending == nil || a.trans == nil {
		return im.r.errorf(ErrMisc, t, "outside ANIM_trans_begin")
	}
	v, err := im.r.float()
	if err != nil {
		return err
	}
	p, err := im.r.vertex()
	if err != nil {
		return err
	}
	tk, pb := a.trans, a.pending
	if tk.n == 0 {
		if v != 0 {
			a.arm.Properties.Set(pb.dataref+"_v1", v)
		}
	} else {
		a.arm.Properties.Set(fmt.Sprintf("%s_v%d", pb.dataref, tk.n+1), v)
	}
	switch {
	case tk.absolute:
		pb.compose(tk.n, translation(p))
	case tk.n == 0:
		a.top().offset = a.top().offset.Add(p)
		tk.first = p
		pb.compose(0, geom.NewMatrix4())
	default:
		pb.compose(tk.n, translation(p.Sub(tk.first)))
	}
	tk.n++
	return nil
}

func (im *Importer) cmdAnimTransEnd(t string) error {
	a := &im.anim
	if a.pending == nil || a.trans == nil {
		return im.r.errorf(ErrMisc, t, "outside ANIM_trans_begin")
	}
	a.shiftArmature()
	if !a.pending.hasHead {
		a.pending.head = a.top().offset
		a.pending.hasHead = true
	}
	a.trans = nil
	return nil
}

func (im *Importer) cmdAnimRotate(t string) error {
	if err := im.requireAnim(t); err != nil {
		return err
	}
	axis, err := im.r.vertex()
	if err != nil {
		return err
	}
	f, err := im.r.floats(4)
	if err != nil {
		return err
	}
	r1, r2, v1, v2 := f[0], f[1], f[2], f[3]
	ref, _ := im.r.input(true) // some exporters emit a static rotation with no dataref
	r2, v2 = normalizeRotation(r2, v2)

	name := im.armDataRef(ref, v1, v2)
	a := &im.anim
	p, _ := a.start(name, a.top().offset, true)
	p.compose(0, rotation(axis.Vector3(), r1))
	p.compose(1, rotation(axis.Vector3(), r2))
	return nil
}

func (im *Importer) cmdAnimRotateBegin(t string) error {
	if err := im.requireAnim(t); err != nil {
		return err
	}
	axis, err := im.r.vertex()
	if err != nil {
		return err
	}
	ref, err := im.r.input(false)
	if err != nil {
		return err
	}
	name := noteDataRef(im.opts.DataRefs, &im.anim.arm.Properties, ref, false)
	a := &im.anim
	a.start(name, a.top().offset, true)
	a.rotate = &rotateKeys{axis: axis.Vector3()}
	return nil
}

func (im *Importer) cmdAnimRotateKey(t string) error {
	a := &im.anim
	if a.pending == nil || a.rotate == nil {
		return im.r.errorf(ErrMisc, t, "outside ANIM_rotate_begin")
	}
	v, err := im.r.float()
	if err != nil {
		return err
	}
	r, err := im.r.float()
	if err != nil {
		return err
	}
	rk := a.rotate
	if rk.n != 0 || v != 0 {
		a.arm.Properties.Set(fmt.Sprintf("%s_v%d", a.pending.dataref, rk.n+1), v)
	}
	a.pending.compose(rk.n, rotation(rk.axis, r))
	rk.n++
	return nil
}

func (im *Importer) cmdAnimRotateEnd(string) error {
	im.anim.rotate = nil
	return nil
}

func (im *Importer) cmdAnimKeyframeLoop(t string) error {
	a := &im.anim
	if a.pending == nil {
		return im.r.errorf(ErrMisc, t, "no animation to loop")
	}
	n, err := im.r.float()
	if err != nil {
		return err
	}
	a.arm.Properties.Set(a.pending.dataref+"_loop", n)
	return nil
}

func (im *Importer) cmdAnimShowHide(t string) error {
	if err := im.requireAnim(t); err != nil {
		return err
	}
	v, err := im.r.floats(2)
	if err != nil {
		return err
	}
	ref, err := im.r.input(false)
	if err != nil {
		return err
	}
	props := &im.anim.arm.Properties
	name := noteDataRef(im.opts.DataRefs, props, ref, true)
	kind := "_show"
	if t == "ANIM_hide" {
		kind = "_hide"
	}
	props.Set(name+kind+"_v1", v[0])
	props.Set(name+kind+"_v2", v[1])
	im.anim.visibility = true
	return nil
}

// armDataRef records dataref properties for ANIM_trans and ANIM_rotate.
func (im *Importer) armDataRef(ref string, v1, v2 float64) string {
	props := &im.anim.arm.Properties
	name := noteDataRef(im.opts.DataRefs, props, ref, false)
	if v1 != 0 {
		props.Set(name+"_v1", v1)
	}
	if v2 != 1 {
		props.Set(name+"_v2", v2)
	}
	return name
}

// v7

func (im *Importer) readCorners(n int, withUV bool) ([]Vertex, []UV, error) {
	var v []Vertex
	var uv []UV
	for i := 0; i < n; i++ {
		if _, err := im.r.next(false); err != nil {
			return nil, nil, err
		}
		p, err := im.r.vertex()
		if err != nil {
			return nil, nil, err
		}
		v = append(v, p)
		if withUV {
			t, err := im.r.uv()
			if err != nil {
				return nil, nil, err
			}
			uv = append(uv, t)
		}
	}
	return v, uv, nil
}

func (im *Importer) cmdLight(string) error {
	im.anim.commit()
	if _, err := im.r.next(false); err != nil {
		return err
	}
	cv, err := im.readColorVertex()
	if err != nil {
		return err
	}
	im.addLamp(cv.v, cv.c, "", 1)
	return nil
}

func (im *Importer) cmdLine(string) error {
	im.anim.commit()
	var v [2]Vertex
	var c [3]float64
	for i := range v {
		if _, err := im.r.next(false); err != nil {
			return err
		}
		cv, err := im.readColorVertex()
		if err != nil {
			return err
		}
		v[i], c = cv.v, cv.c // use second colour value
	}
	im.addLine(v, c)
	return nil
}

func (im *Importer) cmdTri(t string) error {
	im.anim.commit()
	v, uv, err := im.readCorners(3, true)
	if err != nil {
		return err
	}
	im.addFan(t, v, uv)
	return nil
}

var (
	quadOrder      = []int{3, 2, 1, 0}
	quadStripOrder = []int{1, 0, 2, 3}
	triStripOrder  = []int{0, 1, 2}
)

// withStatementAttrs applies hard/panel for one statement.
func (im *Importer) withStatementAttrs(hard, panel bool, f func() error) error {
	saved := im.attr
	if hard {
		im.attr.hard = true
	}
	if panel {
		im.attr.panel = true
	}
	err := f()
	im.attr.hard, im.attr.panel = saved.hard, saved.panel
	return err
}

func (im *Importer) cmdQuad(t string) error {
	im.anim.commit()
	return im.withStatementAttrs(t == "quad_hard", t == "quad_cockpit", func() error {
		v, uv, err := im.readCorners(4, true)
		if err != nil {
			return err
		}
		im.addStrip(t, v, uv, quadOrder)
		return nil
	})
}

func (im *Importer) cmdPolygon(t string) error {
	im.anim.commit()
	n, err := im.r.count()
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	v, uv, err := im.readCorners(n, true)
	if err != nil {
		return err
	}
	// add centre point, duplicate first point, use a fan
	var cv Vertex
	var cuv UV
	for i := range v {
		cv = cv.Add(v[i])
		cuv.S += uv[i].S
		cuv.T += uv[i].T
	}
	cv = cv.Scale(1 / float64(n))
	cuv = UV{cuv.S / float64(n), cuv.T / float64(n)}
	v = append([]Vertex{cv}, append(v, v[0])...)
	uv = append([]UV{cuv}, append(uv, uv[0])...)
	im.addFan(t, v, uv)
	return nil
}

func (im *Importer) cmdQuadStrip(t string) error {
	im.anim.commit()
	n, err := im.r.count()
	if err != nil {
		return err
	}
	var v []Vertex
	var uv []UV
	for n > 0 {
		if _, err := im.r.next(false); err != nil {
			return err
		}
		for pair := 0; pair < 2 && n > 0; pair++ {
			if pair == 1 && !im.r.more() {
				break
			}
			p, err := im.r.vertex()
			if err != nil {
				return err
			}
			q, err := im.r.uv()
			if err != nil {
				return err
			}
			v, uv = append(v, p), append(uv, q)
			n--
		}
	}
	im.addStrip(t, v, uv, quadStripOrder)
	return nil
}

func (im *Importer) cmdTriStrip(t string) error {
	im.anim.commit()
	n, err := im.r.count()
	if err != nil {
		return err
	}
	v, uv, err := im.readCorners(n, true)
	if err != nil {
		return err
	}
	im.addStrip(t, v, uv, triStripOrder)
	return nil
}

func (im *Importer) cmdTriFan(t string) error {
	im.anim.commit()
	n, err := im.r.count()
	if err != nil {
		return err
	}
	v, uv, err := im.readCorners(n, true)
	if err != nil {
		return err
	}
	im.addFan(t, v, uv)
	return nil
}

// v6

func (im *Importer) cmdV6Light(int) error {
	im.anim.commit()
	c, err := im.r.color()
	if err != nil {
		return err
	}
	v, _, err := im.readCorners(1, false)
	if err != nil {
		return err
	}
	im.addLamp(v[0], c, "", 1)
	return nil
}

func (im *Importer) cmdV6Line(int) error {
	im.anim.commit()
	c, err := im.r.color()
	if err != nil {
		return err
	}
	v, _, err := im.readCorners(2, false)
	if err != nil {
		return err
	}
	im.addLine([2]Vertex{v[0], v[1]}, c)
	return nil
}

// v6uv expands "s1 s2 t1 t2" to the corner order used by v6 files.
func v6uv(st []float64, n int) []UV {
	uv := []UV{{st[1], st[3]}, {st[1], st[2]}, {st[0], st[2]}, {st[0], st[3]}}
	return uv[:n]
}

func (im *Importer) cmdV6Tri(code int) error {
	im.anim.commit()
	st, err := im.r.floats(4)
	if err != nil {
		return err
	}
	v, _, err := im.readCorners(3, false)
	if err != nil {
		return err
	}
	im.addFan(strconv.Itoa(code), v, v6uv(st, 3))
	return nil
}

func (im *Importer) cmdV6Quad(code int) error {
	im.anim.commit()
	return im.withStatementAttrs(code == 5, false, func() error {
		st, err := im.r.floats(4)
		if err != nil {
			return err
		}
		v, _, err := im.readCorners(4, false)
		if err != nil {
			return err
		}
		im.addStrip(strconv.Itoa(code), v, v6uv(st, 4), quadOrder)
		return nil
	})
}

// cmdV6QuadStrip reads n lines of "x y z x y z s1 s2 t1 t2".
func (im *Importer) cmdV6QuadStrip(n int) error {
	im.anim.commit()
	var v []Vertex
	var uv []UV
	for i := 0; i < n; i++ {
		if _, err := im.r.next(false); err != nil {
			return err
		}
		p, err := im.r.vertex()
		if err != nil {
			return err
		}
		q, err := im.r.vertex()
		if err != nil {
			return err
		}
		st, err := im.r.floats(4)
		if err != nil {
			return err
		}
		v = append(v, p, q)
		uv = append(uv, UV{st[0], st[2]}, UV{st[1], st[3]})
	}
	im.addStrip("quad_strip", v, uv, quadStripOrder)
	return nil
}

// state

func (im *Importer) cmdSlungLoadWeight(string) error {
	w, err := im.r.float()
	im.slung = w
	return err
}

func (im *Importer) cmdHard(t string) error {
	surface, _ := im.r.input(true)
	if surface == "object" {
		surface = ""
	}
	im.attr.hard = true
	im.attr.surface = surface
	im.attr.deck = deckOff
	if t == "ATTR_hard_deck" {
		im.attr.deck = deckOn
	}
	return nil
}

func (im *Importer) cmdNoHard(string) error {
	im.attr.hard = false
	im.attr.deck = deckUnset
	im.attr.surface = ""
	return nil
}

func (im *Importer) cmdCockpit(t string) error {
	if t == "ATTR_no_cockpit" {
		im.attr.panel = false
		im.attr.region = NoRegion
		return nil
	}
	if err := im.loadPanel(); err != nil {
		return err
	}
	im.attr.panel = true
	im.attr.region = NoRegion
	if t == "ATTR_cockpit_region" {
		r, err := im.r.float()
		if err != nil {
			return err
		}
		im.attr.region = int(r)
	}
	return nil
}

func (im *Importer) cmdShade(t string) error {
	im.attr.flat = t == "ATTR_shade_flat"
	return nil
}

func (im *Importer) cmdPolyOS(string) error {
	n, err := im.r.float()
	im.attr.poly = n != 0
	return err
}

func (im *Importer) cmdDepth(t string) error {
	im.attr.poly = t == "ATTR_no_depth"
	return nil
}

func (im *Importer) cmdCull(t string) error {
	im.attr.twoSide = t != "ATTR_cull"
	return nil
}

func (im *Importer) cmdAlpha(t string) error {
	im.attr.alpha = t == "####_alpha"
	return nil
}

func (im *Importer) cmdLayerGroup(string) error {
	name, err := im.r.input(false)
	if err != nil {
		return err
	}
	n, err := im.r.int()
	if err != nil {
		return err
	}
	im.drawGroup = &drawGroup{name: name, offset: n}
	return nil
}

var defaultLOD = [4]int{0, 1000, 4000, 10000}

func (im *Importer) cmdLOD(string) error {
	v, err := im.r.floats(2)
	if err != nil {
		return err
	}
	x, y := int(math.Trunc(v[0])), int(math.Trunc(v[1]))
	if im.layer == 0 {
		im.infof("Multiple Levels Of Detail found")
		if x != 0 {
			im.lod = &[4]int{x, 1000, 4000, 10000}
		}
	}
	if im.layer < 3 {
		im.layer++
	}
	if y != defaultLOD[im.layer] {
		if im.lod == nil {
			lod := defaultLOD
			im.lod = &lod
		}
		im.lod[im.layer] = y
	}
	im.resetAttributes()
	return nil
}

func (im *Importer) cmdReset(string) error {
	im.resetAttributes()
	return nil
}

func (im *Importer) cmdMaterial(t string) error {
	m := *im.mat
	if t == "ATTR_shiny_rat" {
		s, err := im.r.float()
		if err != nil {
			return err
		}
		m.Shininess = s
	} else {
		c, err := im.r.rgb()
		if err != nil {
			return err
		}
		if t == "ATTR_emission_rgb" {
			m.Emission = c
		} else {
			m.Diffuse = c
		}
	}
	im.mat = im.mats.get(m)
	return nil
}
