package xpobj

import "go.uber.org/zap"

var layerTable = [4]int{0, 1, 2, 4}

func (im *Importer) layerMask() int {
	return layerTable[im.layer]
}

func (im *Importer) faceFlags() FaceFlags {
	var flags FaceFlags
	if im.attr.hard {
		flags |= FaceHard
	}
	if im.attr.twoSide {
		flags |= FaceTwoSide
	}
	if im.attr.flat {
		flags |= FaceFlat
	}
	if !im.attr.poly {
		flags |= FaceNPoly
	}
	if im.attr.panel {
		flags |= FacePanel
	}
	if im.attr.alpha {
		flags |= FaceAlpha
	}
	return flags
}

func (im *Importer) addFaces(faces []*Face, forceNew bool) {
	im.acc.add(faces, im.attr.surface, im.attr.deck, im.layerMask(), im.anim.context(), im.mat, forceNew)
}

func (im *Importer) debugPrimitive(token string) {
	im.logger.Debug("importing primitive", zap.String("cmd", token), zap.Int("line", im.r.lineNo))
}

// addFan shares v[0] between all triangles.
func (im *Importer) addFan(token string, v []Vertex, uv []UV) {
	im.debugPrimitive(token)
	flags := im.faceFlags()
	var faces []*Face
	for f := 1; f < len(v)-1; f++ {
		face := newFace(flags, 3)
		face.add(v[0], uv[0])
		face.add(v[f+1], uv[f+1])
		face.add(v[f], uv[f])
		faces = append(faces, face)
	}
	if len(faces) > 0 {
		im.addFaces(faces, false)
		im.nprim++
	}
}

// addStrip builds triangles (len(vorder)==3) or quads from a strip.
// vorder is the order of vertices within each quad.
func (im *Importer) addStrip(token string, v []Vertex, uv []UV, vorder []int) {
	im.debugPrimitive(token)
	flags := im.faceFlags()
	n := len(vorder)
	var faces []*Face
	for f := 2; f < len(v); f += n - 2 {
		face := newFace(flags, n)
		if n == 3 {
			if f%2 == 1 {
				for i := 0; i < 3; i++ {
					face.add(v[f-2+i], uv[f-2+i])
				}
			} else {
				for i := 0; i < 3; i++ {
					face.add(v[f-i], uv[f-i])
				}
			}
		} else {
			if f+1 >= len(v) {
				break
			}
			for i := 0; i < 4; i++ {
				face.add(v[f-2+vorder[i]], uv[f-2+vorder[i]])
			}
		}
		// v6 files use quads as triangles to get round texture mapping
		if face.RemoveDuplicateVertices() < 3 {
			continue
		}
		faces = append(faces, face)
	}
	if len(faces) > 0 {
		im.addFaces(faces, false)
		im.nprim++
	}
}

// addTris adds v8 indexed triangles. Each statement gets its own mesh, and a
// back-to-back duplicate within the statement starts another one.
func (im *Importer) addTris(a, b int) error {
	im.debugPrimitive("TRIS")
	flags := im.faceFlags()
	region := NoRegion
	if im.attr.panel {
		region = im.attr.region
	}

	lookup := map[[3]Vertex]bool{}
	var faces []*Face
	for i := a; i < a+b; i += 3 {
		face := newFace(flags, 3)
		face.Region = region
		var key [3]Vertex
		var normals [3]Vertex
		// points are reversed
		for k := 0; k < 3; k++ {
			j, err := im.index(i + 2 - k)
			if err != nil {
				return err
			}
			if j < 0 || j >= len(im.vt) {
				return im.outOfRange("VT", j)
			}
			vt := im.vt[j]
			face.add(vt.v, vt.uv)
			key[k] = vt.v
			normals[k] = vt.n
		}
		if !im.attr.flat && normals[0].Equals(normals[1]) && normals[1].Equals(normals[2]) {
			face.Flags |= FaceFlat
		}

		// duplicate may be rotated
		if lookup[key] || lookup[[3]Vertex{key[1], key[2], key[0]}] || lookup[[3]Vertex{key[2], key[0], key[1]}] {
			im.addFaces(faces, true)
			faces = nil
			lookup = map[[3]Vertex]bool{}
		}
		lookup[[3]Vertex{key[2], key[1], key[0]}] = true
		faces = append(faces, face)
	}
	im.addFaces(faces, true)
	im.nprim += b / 3
	return nil
}
