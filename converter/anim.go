package converter

import (
	"github.com/binzume/xpobjconv/scene"
	"github.com/binzume/xpobjconv/xpobj"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

func (c *xpobjToGltf) addChannel(a *gltf.Animation, node, keysAcc, samplesAcc uint32, path gltf.TRSProperty) {
	a.Samplers = append(a.Samplers, &gltf.AnimationSampler{
		Input:         gltf.Index(keysAcc),
		Output:        gltf.Index(samplesAcc),
		Interpolation: gltf.InterpolationLinear,
	})
	a.Channels = append(a.Channels, &gltf.Channel{
		Sampler: gltf.Index(uint32(len(a.Samplers) - 1)),
		Target: gltf.ChannelTarget{
			Node: gltf.Index(node),
			Path: path,
		},
	})
}

// addBoneAnimation writes one animation per bone. Keyframe i is at
// i * KeyframeInterval seconds. The dataref values of the keyframes are in
// the armature extras.
func (c *xpobjToGltf) addBoneAnimation(arm *scene.Armature, b *xpobj.Bone) {
	node, ok := c.boneNodes[b]
	if !ok || len(b.Keyframes) < 2 {
		return
	}

	rest := restOffset(b)
	var keys []float32
	var translations [][3]float32
	var rotations [][4]float32
	translate, rotate := false, false
	for i, k := range b.Keyframes {
		t, r, _ := k.Decompose()
		keys = append(keys, float32(i)*c.KeyframeInterval)
		translations = append(translations, c.position(rest.Add(xpobj.Vertex{X: t.X, Y: t.Y, Z: t.Z})))
		rotations = append(rotations, rotation(r))
		translate = translate || translations[i] != translations[0]
		rotate = rotate || rotations[i] != rotations[0]
	}
	if !translate && !rotate {
		return
	}

	keysAcc := modeler.WriteAccessor(c.Document, gltf.TargetArrayBuffer, keys)
	c.Accessors[keysAcc].Min = []float32{keys[0]}
	c.Accessors[keysAcc].Max = []float32{keys[len(keys)-1]}

	a := &gltf.Animation{
		Name:   b.Name,
		Extras: map[string]interface{}{"dataref": b.DataRef, "armature": arm.Name},
	}
	if rotate {
		c.addChannel(a, node, keysAcc, modeler.WriteTangent(c.Document, rotations), gltf.TRSRotation)
	}
	if translate {
		c.addChannel(a, node, keysAcc, modeler.WritePosition(c.Document, translations), gltf.TRSTranslation)
	}
	c.Animations = append(c.Animations, a)
	c.logger.Debug("bone animation", zap.String("bone", b.Name), zap.Int("keys", len(keys)),
		zap.Bool("rotate", rotate), zap.Bool("translate", translate))
}
