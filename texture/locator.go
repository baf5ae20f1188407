// Package texture finds the image files referenced by OBJ files.
package texture

import (
	"encoding/binary"
	"image"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/binzume/xpobjconv/xpobj"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
)

// Extensions in search order.
var Extensions = []string{".dds", ".DDS", ".png", ".PNG", ".bmp", ".BMP"}

var panelExtensions = []string{".dds", ".png", ".bmp"}

const (
	customObjects        = "custom objects"
	customObjectTextures = "custom object textures"
	ddsMagic             = "DDS "
)

var ErrUnknownFormat = errors.New("unknown image format")

// Locator searches next to the OBJ file, and in "custom object textures"
// for files under "custom objects".
type Locator struct {
	objPath string
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[string]*xpobj.Image
	panel *xpobj.Image
}

func NewLocator(objPath string, logger *zap.Logger) *Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{objPath: objPath, logger: logger, cache: map[string]*xpobj.Image{}}
}

// SearchDirs returns the directories searched for textures.
func (l *Locator) SearchDirs() []string {
	dirs := []string{filepath.Dir(l.objPath)}
	if i := strings.LastIndex(l.objPath, customObjects); i >= 0 {
		dirs = append(dirs, l.objPath[:i]+customObjectTextures)
	}
	return dirs
}

func (l *Locator) Locate(name string) (*xpobj.Image, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if img, ok := l.cache[name]; ok {
		return img, nil
	}

	base := filepath.FromSlash(xpobj.TextureBase(name))
	for _, dir := range l.SearchDirs() {
		for _, ext := range Extensions {
			path := filepath.Join(dir, base+ext)
			if st, err := os.Stat(path); err != nil || st.IsDir() {
				continue
			}
			img := &xpobj.Image{Name: filepath.Base(path), Path: path}
			if strings.Contains(base, " ") {
				newPath := filepath.Join(dir, strings.ReplaceAll(base, " ", "_")+ext)
				if err := copyFile(newPath, path); err != nil {
					return nil, errors.Wrap(err, "copy texture")
				}
				img.CopiedFrom = path
				img.Path = newPath
				img.Name = filepath.Base(newPath)
				l.logger.Info("created texture copy", zap.String("from", path), zap.String("to", newPath))
			}
			if err := readSize(img); err != nil {
				l.logger.Warn("cannot read texture", zap.String("path", img.Path), zap.Error(err))
				img.Width, img.Height, img.Placeholder = 1024, 1024, true
			}
			l.cache[name] = img
			return img, nil
		}
	}
	return nil, errors.Wrap(xpobj.ErrTextureNotFound, name)
}

// LocatePanel finds cockpit/-panels-/panel.{dds,png,bmp} next to the OBJ file.
// Directory and file names are matched case-insensitively.
func (l *Locator) LocatePanel() (*xpobj.Image, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.panel != nil {
		return l.panel, nil
	}

	cockpit := findEntry(filepath.Dir(l.objPath), "cockpit", true)
	if cockpit == "" {
		return nil, xpobj.ErrPanelNotFound
	}
	panels := findEntry(cockpit, "-panels-", true)
	if panels == "" {
		return nil, xpobj.ErrPanelNotFound
	}
	for _, ext := range panelExtensions {
		path := findEntry(panels, "panel"+ext, false)
		if path == "" {
			continue
		}
		img := &xpobj.Image{Name: filepath.Base(path), Path: path}
		if err := readSize(img); err != nil {
			l.logger.Debug("unusable panel texture", zap.String("path", path), zap.Error(err))
			continue
		}
		l.panel = img
		return img, nil
	}
	return nil, xpobj.ErrPanelNotFound
}

func findEntry(dir, name string, isDir bool) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.IsDir() == isDir && strings.EqualFold(e.Name(), name) {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}

func copyFile(dst, src string) error {
	r, err := os.Open(src)
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func readSize(img *xpobj.Image) error {
	f, err := os.Open(img.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(img.Path), ".dds") {
		img.Width, img.Height, err = ddsSize(f)
		return err
	}
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return err
	}
	img.Width, img.Height = cfg.Width, cfg.Height
	return nil
}

// ddsSize reads the dimensions from a DDS_HEADER.
func ddsSize(r io.Reader) (int, int, error) {
	var hdr struct {
		Magic  [4]byte
		Size   uint32
		Flags  uint32
		Height uint32
		Width  uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return 0, 0, errors.Wrap(err, "dds header")
	}
	if string(hdr.Magic[:]) != ddsMagic || hdr.Size != 124 {
		return 0, 0, ErrUnknownFormat
	}
	return int(hdr.Width), int(hdr.Height), nil
}
