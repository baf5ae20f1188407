package xpobj

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/binzume/xpobjconv/geom"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Options struct {
	// Name of the created meshes. Default "Mesh", or the file name for sub-objects.
	Name string
	// SubObject imports the file to be merged into something else.
	// No "Attributes" object is created.
	SubObject bool
	// Transform is applied to objects outside armatures and to armatures.
	Transform *geom.Matrix4
	Merge     MergeMode
	Textures  TextureLocator
	DataRefs  DataRefResolver
	Logger    *zap.Logger
}

type Result struct {
	Format     int
	Primitives int
	// Log holds the warnings to show after import.
	Log       []string
	Texture   *Image
	Meshes    []Handle
	Armatures []*Armature
}

type attributes struct {
	hard    bool
	deck    deckState
	surface string
	twoSide bool
	flat    bool
	alpha   bool
	panel   bool
	poly    bool
	region  int
}

type drawGroup struct {
	name   string
	offset int
}

// Importer reads one OBJ file. It must not be shared between imports.
type Importer struct {
	path   string
	r      *lineReader
	opts   Options
	logger *zap.Logger

	log   []string
	nprim int

	texture *Image
	panel   *Image
	regions []Region

	vt     []vtEntry
	vline  []colorVertex
	vlight []colorVertex
	idx    []int

	attr      attributes
	mat       *Material
	mats      materialCache
	layer     int
	lod       *[4]int
	drawGroup *drawGroup
	slung     float64

	anim   animState
	acc    accumulator
	lights []*Light
	lines  []*Line
}

// NewImporter returns an importer reading r. path is used for texture lookup and naming.
func NewImporter(r io.Reader, path string, opts *Options) *Importer {
	im := &Importer{
		path: path,
		r:    newLineReader(r),
		mats: newMaterialCache(),
	}
	if opts != nil {
		im.opts = *opts
	}
	im.logger = im.opts.Logger
	if im.logger == nil {
		im.logger = zap.NewNop()
	}
	if im.opts.Merge == 0 {
		im.opts.Merge = MergeByAttributes
	}
	im.acc.merge = im.opts.Merge
	im.resetAttributes()
	return im
}

func (im *Importer) resetAttributes() {
	im.attr.hard = false
	im.attr.twoSide = false
	im.attr.flat = false
	im.attr.alpha = false
	im.attr.panel = false
	im.attr.region = NoRegion
	im.attr.poly = false
	im.mat = im.mats.defaultMaterial()
}

func (im *Importer) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	im.log = append(im.log, msg)
	im.logger.Warn(msg, zap.String("file", im.path), zap.Int("line", im.r.lineNo))
}

func (im *Importer) infof(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	im.log = append(im.log, msg)
	im.logger.Info(msg, zap.String("file", im.path))
}

func (im *Importer) meshName() string {
	if im.opts.Name != "" {
		return im.opts.Name
	}
	if im.opts.SubObject && im.path != "" {
		base := filepath.Base(im.path)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return "Mesh"
}

func (im *Importer) objectTransform(ctx animContext) *geom.Matrix4 {
	if ctx.arm != nil {
		return nil
	}
	return im.opts.Transform
}

// TextureBase converts a texture statement to a slash separated path without extension.
func TextureBase(name string) string {
	base := strings.ReplaceAll(name, ":", "/")
	return strings.TrimSuffix(base, path.Ext(base))
}

func (im *Importer) loadTexture(tex string) {
	if tex == "" {
		im.texture = placeholderImage("none")
		im.logger.Debug("no texture")
		return
	}
	base := TextureBase(tex)
	if im.opts.Textures == nil {
		im.texture = placeholderImage(path.Base(base))
		im.warnf("Texture file \"%s\" not found", base)
		return
	}
	img, err := im.opts.Textures.Locate(tex)
	if err != nil {
		im.texture = placeholderImage(path.Base(base))
		if errors.Is(err, ErrTextureNotFound) {
			im.warnf("Texture file \"%s\" not found", base)
		} else {
			im.warnf("Cannot read texture file \"%s\": %v", base, err)
		}
		return
	}
	if img.CopiedFrom != "" {
		im.infof("Created new texture file \"%s\"", img.Path)
	}
	if img.Placeholder {
		im.warnf("Cannot read texture file \"%s\"", img.Path)
	}
	im.logger.Debug("using texture", zap.String("path", img.Path))
	im.texture = img
}

func (im *Importer) loadPanel() error {
	if im.panel != nil {
		return nil
	}
	if im.opts.Textures == nil {
		return im.r.errorf(ErrPanel, "", ErrPanelNotFound.Error())
	}
	img, err := im.opts.Textures.LocatePanel()
	if err != nil {
		return im.r.errorf(ErrPanel, "", err.Error())
	}
	im.panel = img
	return nil
}

// Import parses the whole file, then hands the result to b.
// On error nothing is passed to b.
func (im *Importer) Import(b Builder) (*Result, error) {
	im.logger.Info("starting OBJ import", zap.String("file", im.path))
	tex, err := im.r.readHeader()
	if err != nil {
		return nil, err
	}
	im.logger.Debug("file format", zap.Int("version", im.r.format))
	im.loadTexture(tex)

	if err := im.readObjects(); err != nil {
		return nil, err
	}
	if im.anim.active() {
		im.warnf("Missing ANIM_end")
		for im.anim.active() {
			im.anim.end(im.layerMask())
		}
	}

	res, err := im.emit(b)
	if err != nil {
		return nil, err
	}
	im.logger.Info("finished OBJ import", zap.String("file", im.path), zap.Int("primitives", im.nprim))
	return res, nil
}

func (im *Importer) emit(b Builder) (*Result, error) {
	res := &Result{
		Format:     im.r.format,
		Primitives: im.nprim,
		Log:        im.log,
		Texture:    im.texture,
		Armatures:  im.anim.armatures,
	}

	for _, arm := range im.anim.armatures {
		for _, bone := range arm.Bones {
			if err := b.CreateBone(arm, bone); err != nil {
				return nil, errors.Wrapf(err, "create bone %s", bone.Name)
			}
		}
		if err := b.FinalizeSkeleton(arm); err != nil {
			return nil, errors.Wrap(err, "finalize skeleton")
		}
	}
	for _, l := range im.lights {
		if err := b.CreateLight(l); err != nil {
			return nil, errors.Wrapf(err, "create light %s", l.Name)
		}
	}
	for _, l := range im.lines {
		if err := b.CreateLineSegment(l); err != nil {
			return nil, errors.Wrap(err, "create line")
		}
	}

	images := meshImages{texture: im.texture, panel: im.panel, regions: im.regions}
	for _, pm := range im.acc.meshes {
		h, err := b.CreateMesh(pm.finalize(im.meshName(), images, im.opts.Transform))
		if err != nil {
			return nil, errors.Wrap(err, "create mesh")
		}
		res.Meshes = append(res.Meshes, h)
	}

	if e := im.attributesEmpty(); e != nil {
		if err := b.CreateEmpty(e); err != nil {
			return nil, errors.Wrap(err, "create empty")
		}
	}
	return res, nil
}

// attributesEmpty holds global attributes as properties.
func (im *Importer) attributesEmpty() *Empty {
	if im.opts.SubObject || (im.drawGroup == nil && im.lod == nil && im.slung == 0) {
		return nil
	}
	e := &Empty{Name: "Attributes", Transform: im.opts.Transform}
	if im.drawGroup != nil {
		e.Properties.Set("group_"+im.drawGroup.name, im.drawGroup.offset)
	}
	if im.slung != 0 {
		e.Properties.Set("slung_load_weight", im.slung)
	}
	if im.lod != nil {
		for i, v := range im.lod {
			if v != defaultLOD[i] {
				e.Properties.Set(fmt.Sprintf("LOD_%d", i), v)
			}
		}
	}
	return e
}

// Load imports the file at path.
func Load(path string, b Builder, opts *Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open OBJ")
	}
	defer f.Close()
	return NewImporter(f, path, opts).Import(b)
}
