package xpobj

import (
	"math"
	"strings"

	"github.com/binzume/xpobjconv/dataref"
)

var (
	colorRed    = [3]float64{1, 0, 0}
	colorGreen  = [3]float64{0, 1, 0}
	colorBlue   = [3]float64{0, 0, 1}
	colorWhite  = [3]float64{1, 1, 1}
	colorYellow = [3]float64{1, 1, 0}
)

func grey(v float64) [3]float64 {
	return [3]float64{v, v, v}
}

func oneOf(s string, names ...string) bool {
	for _, n := range names {
		if s == n {
			return true
		}
	}
	return false
}

// namedLightColor guesses a colour for the light names we know about.
func namedLightColor(name string) [3]float64 {
	switch {
	case oneOf(name, "airplane_nav_left", "airplane_beacon") || strings.HasSuffix(name, "_red"):
		return colorRed
	case oneOf(name, "airplane_nav_right", "taxi_center_light", "taxi_g") || strings.HasSuffix(name, "_green"):
		return colorGreen
	case oneOf(name, "taxi_edge_blue", "taxi_b") || strings.HasSuffix(name, "_blue"):
		return colorBlue
	case oneOf(name, "airplane_strobe", "airplane_landing", "airplane_taxi") || strings.HasSuffix(name, "_white"):
		return colorWhite
	}
	return grey(0.75)
}

// codedLight decodes the magic colours of v6/v7 lights.
func codedLight(c [3]float64) (string, [3]float64) {
	switch c {
	case grey(1.1):
		return "airplane_nav_left", colorRed
	case grey(2.2):
		return "airplane_nav_right", colorGreen
	case grey(9.9), grey(3.3):
		return "airplane_beacon", colorRed
	case grey(9.8), grey(4.4):
		return "airplane_strobe", colorWhite
	case grey(5.5):
		return "airplane_landing", colorWhite
	case grey(9.7):
		return "Traffic", colorYellow
	}
	if c[0] < 0 || c[1] < 0 || c[2] < 0 {
		return "Flash", [3]float64{math.Abs(c[0]), math.Abs(c[1]), math.Abs(c[2])}
	}
	return "Lamp", c
}

func containsWord(s, word string) bool {
	for _, w := range strings.Fields(s) {
		if w == word {
			return true
		}
	}
	return false
}

// attach places an object in the current armature or in the import transform.
func (im *Importer) attach(v Vertex) (Vertex, animContext) {
	ctx := im.anim.context()
	return im.anim.position(v), ctx
}

// addLamp adds a named light (name != "") or a light decoded from its colour.
// energy is used by smoke puffs.
func (im *Importer) addLamp(v Vertex, c [3]float64, name string, energy float64) {
	var props Properties
	e := 1.0
	if name != "" {
		switch name {
		case "smoke_black":
			e, c = energy, grey(0)
		case "smoke_white":
			e, c = energy, grey(0.5)
		default:
			c = namedLightColor(name)
		}
		if len(name) > ShortNameLen || containsWord(strings.ToLower(name), "lamp") {
			props.Set("name", name)
			name = "Named light"
		}
	} else {
		name, c = codedLight(c)
	}
	im.debugPrimitive(name)

	pos, ctx := im.attach(v)
	im.lights = append(im.lights, &Light{
		Name:       name,
		Color:      c,
		Energy:     e,
		Position:   pos,
		Properties: props,
		Layers:     im.layerMask(),
		Armature:   ctx.arm,
		Bone:       ctx.bone,
		Transform:  im.objectTransform(ctx),
	})
	im.nprim++
}

func clampRound(v float64) float64 {
	if v < 0 || v > 1 {
		return 1
	}
	return round(v, 3)
}

func (im *Importer) addCustomLight(v Vertex, rgba [4]float64, size float64, uv [4]float64, ref string) {
	name := "Custom light"
	var props Properties
	custom := &CustomLight{Size: size}
	if ref != "none" && ref != "NULL" {
		parts := strings.Split(ref, "/")
		name = parts[len(parts)-1]
		custom.DataRef = ref
		props.Set("name", name)
		if len(parts) > 1 {
			status := dataref.Unknown
			if im.opts.DataRefs != nil {
				status = im.opts.DataRefs.Resolve(name).Status
			}
			if status != dataref.Unambiguous {
				props.Set(name, strings.Join(parts[:len(parts)-1], "/")+"/")
			}
		}
	}
	im.debugPrimitive(name)

	for i := range rgba {
		custom.RGBA[i] = clampRound(rgba[i])
		if rgba[i] != custom.RGBA[i] {
			props.Set("RGBA"[i:i+1], rgba[i])
		}
		custom.UV[i] = round(uv[i], 3)
	}

	pos, ctx := im.attach(v)
	im.lights = append(im.lights, &Light{
		Name:       name,
		Color:      [3]float64{custom.RGBA[0], custom.RGBA[1], custom.RGBA[2]},
		Energy:     1,
		Position:   pos,
		Properties: props,
		Custom:     custom,
		Layers:     im.layerMask(),
		Armature:   ctx.arm,
		Bone:       ctx.bone,
		Transform:  im.objectTransform(ctx),
	})
	im.nprim++
}

func (im *Importer) addLine(v [2]Vertex, c [3]float64) {
	im.debugPrimitive("Line")
	p0, ctx := im.attach(v[0])
	p1, _ := im.attach(v[1])
	im.lines = append(im.lines, &Line{
		Name:      "Line",
		Points:    [2]Vertex{p0, p1},
		Color:     c,
		Material:  im.mats.get(Material{Diffuse: c}),
		Layers:    im.layerMask(),
		Armature:  ctx.arm,
		Bone:      ctx.bone,
		Transform: im.objectTransform(ctx),
	})
	im.nprim++
}
