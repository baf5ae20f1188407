package converter

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/binzume/xpobjconv/xpobj"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

const (
	ddsTextureExt  = "MSFT_texture_dds"
	webpTextureExt = "EXT_texture_webp"
	ddsMimeType    = "image/vnd-ms.dds"
)

var errDDS = errors.New("dds textures are not decoded")

type textureCache struct {
	opts     *XPObjToGLTFOption
	logger   *zap.Logger
	textures map[string]*textureInfo
}

type textureInfo struct {
	id  *uint32
	img image.Image
	err error
}

func newTextureCache(opts *XPObjToGLTFOption, logger *zap.Logger) *textureCache {
	return &textureCache{opts: opts, logger: logger, textures: map[string]*textureInfo{}}
}

func isDDS(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".dds")
}

func (c *textureCache) get(path string) *textureInfo {
	if t, ok := c.textures[path]; ok {
		return t
	}
	t := &textureInfo{}
	c.textures[path] = t
	return t
}

func (c *textureCache) getImage(path string) (image.Image, error) {
	t := c.get(path)
	if t.img != nil || t.err != nil {
		return t.img, t.err
	}
	if isDDS(path) {
		t.err = errDDS
		return nil, t.err
	}
	f, err := os.Open(path)
	if err != nil {
		t.err = err
		return nil, err
	}
	defer f.Close()
	t.img, _, t.err = image.Decode(f)
	return t.img, t.err
}

func (c *textureCache) hasAlpha(img *xpobj.Image) bool {
	if isDDS(img.Path) || strings.EqualFold(filepath.Ext(img.Path), ".bmp") {
		return false
	}
	m, err := c.getImage(img.Path)
	if err != nil {
		return false
	}
	if o, ok := m.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}

func (c *textureCache) scale(path string) (image.Image, error) {
	img, err := c.getImage(path)
	if err != nil {
		return nil, err
	}
	limit := c.opts.TextureResolutionLimit
	rect := img.Bounds()
	if limit <= 0 || (rect.Dx() <= limit && rect.Dy() <= limit) {
		return img, nil
	}
	scale := float64(limit) / float64(rect.Dx())
	if rect.Dy() > rect.Dx() {
		scale = float64(limit) / float64(rect.Dy())
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(rect.Dx())*scale), int(float64(rect.Dy())*scale)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, rect, draw.Over, nil)
	return dst, nil
}

func (c *textureCache) encode(path string) (io.Reader, string, error) {
	img, err := c.scale(path)
	if err != nil {
		return nil, "", err
	}
	w := new(bytes.Buffer)
	if c.opts.TextureFormat == "webp" {
		err = nativewebp.Encode(w, img, nil)
		return w, "image/webp", err
	}
	return w, "image/png", png.Encode(w, img)
}

func (c *textureCache) uri(path string) string {
	if c.opts.BaseDir != "" {
		if rel, err := filepath.Rel(c.opts.BaseDir, path); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}

// add writes img to the document and returns the texture index.
// DDS files are referenced by URI. Other images are embedded, or referenced
// when they are png files and embedding is disabled.
func (c *textureCache) add(conv *xpobjToGltf, img *xpobj.Image) (uint32, error) {
	t := c.get(img.Path)
	if t.id != nil {
		return *t.id, nil
	}
	doc := conv.Document
	tex := &gltf.Texture{Sampler: gltf.Index(0)}

	switch {
	case isDDS(img.Path):
		src := uint32(len(doc.Images))
		doc.Images = append(doc.Images, &gltf.Image{Name: img.Name, URI: c.uri(img.Path), MimeType: ddsMimeType})
		tex.Extensions = gltf.Extensions{ddsTextureExt: map[string]interface{}{"source": src}}
		conv.useExtension(ddsTextureExt, true)
	case !c.opts.EmbedTextures && strings.EqualFold(filepath.Ext(img.Path), ".png") && c.opts.TextureResolutionLimit == 0:
		src := uint32(len(doc.Images))
		doc.Images = append(doc.Images, &gltf.Image{Name: img.Name, URI: c.uri(img.Path), MimeType: "image/png"})
		tex.Source = gltf.Index(src)
	default:
		r, mimeType, err := c.encode(img.Path)
		if err != nil {
			return 0, errors.Wrap(err, img.Path)
		}
		src, err := modeler.WriteImage(doc, img.Name, mimeType, r)
		if err != nil {
			return 0, err
		}
		doc.Buffers[0].ByteLength = uint32(len(doc.Buffers[0].Data)) // avoid AddImage bug
		if mimeType == "image/webp" {
			tex.Extensions = gltf.Extensions{webpTextureExt: map[string]interface{}{"source": src}}
			conv.useExtension(webpTextureExt, true)
		} else {
			tex.Source = gltf.Index(src)
		}
		c.logger.Debug("embedded texture", zap.String("path", img.Path), zap.String("mime", mimeType))
	}

	doc.Textures = append(doc.Textures, tex)
	t.id = gltf.Index(uint32(len(doc.Textures)) - 1)
	return *t.id, nil
}
