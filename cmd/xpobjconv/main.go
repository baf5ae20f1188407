package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/xpobjconv/config"
	"github.com/binzume/xpobjconv/converter"
	"github.com/binzume/xpobjconv/dataref"
	"github.com/binzume/xpobjconv/geom"
	"github.com/binzume/xpobjconv/gltfutil"
	"github.com/binzume/xpobjconv/logger"
	"github.com/binzume/xpobjconv/scene"
	"github.com/binzume/xpobjconv/texture"
	"github.com/binzume/xpobjconv/xpobj"
	"go.uber.org/zap"
)

func defaultOutputFile(input string) string {
	ext := filepath.Ext(input)
	return input[0:len(input)-len(ext)] + ".glb"
}

// loadDataRefs returns nil when no DataRefs.txt is available.
func loadDataRefs(cfg *config.Config, input string, log *zap.Logger) xpobj.DataRefResolver {
	path := cfg.Import.DataRefs
	if st, err := os.Stat(path); path == "" || err != nil || st.IsDir() {
		found, err := dataref.Find(path, filepath.Dir(input))
		if err != nil {
			log.Info("datarefs not available", zap.Error(err))
			return nil
		}
		path = found
	}
	reg, err := dataref.Load(path)
	if err != nil {
		log.Warn("cannot load datarefs", zap.Error(err))
		return nil
	}
	log.Debug("loaded datarefs", zap.String("path", path), zap.Int("count", reg.Len()))
	return reg
}

func run(cfg *config.Config, input, output string, log *zap.Logger) error {
	opts := &xpobj.Options{
		Merge:     cfg.MergeMode(),
		SubObject: cfg.Import.SubObject,
		Textures:  texture.NewLocator(input, log),
		DataRefs:  loadDataRefs(cfg, input, log),
		Logger:    log,
	}
	if loc := cfg.Import.Location; loc != [3]float64{} {
		opts.Transform = geom.NewTranslateMatrix4(loc[0], loc[1], loc[2])
	}

	s := scene.New()
	res, err := xpobj.Load(input, s, opts)
	if err != nil {
		return err
	}
	st := s.Stats()
	log.Info("imported",
		zap.String("input", input),
		zap.Int("format", res.Format),
		zap.Int("primitives", res.Primitives),
		zap.Int("meshes", st.Meshes),
		zap.Int("faces", st.Faces),
		zap.Int("lights", st.Lights),
		zap.Int("lines", st.Lines),
		zap.Int("bones", st.Bones),
		zap.Int("warnings", len(res.Log)))

	outDir := filepath.Dir(output)
	conv := converter.NewXPObjToGLTFConverter(&converter.XPObjToGLTFOption{
		Scale:                  cfg.Convert.Scale,
		ForceUnlit:             cfg.Convert.Unlit,
		EmbedTextures:          cfg.Convert.EmbedTextures,
		TextureFormat:          cfg.Convert.TextureFormat,
		TextureResolutionLimit: cfg.Convert.TextureLimit,
		KeyframeInterval:       cfg.Convert.KeyframeInterval,
		BaseDir:                outDir,
		Logger:                 log,
	})
	doc, err := conv.Convert(s)
	if err != nil {
		return err
	}
	if off := cfg.Convert.Offset; off != [3]float64{} {
		gltfutil.Transform(doc, nil, geom.NewVector3(off[0], off[1], off[2]))
	}
	if strings.ToLower(filepath.Ext(output)) == ".glb" && !cfg.Convert.EmbedTextures {
		if err := gltfutil.ToSingleFile(doc, outDir, log); err != nil {
			return err
		}
	}

	log.Info("out", zap.String("path", output))
	return gltfutil.Save(doc, output)
}

func main() {
	flags := config.NewFlags(flag.CommandLine)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s input.obj [output.glb|output.gltf]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return
	}
	cfg, err := config.Load(flags.ConfigPath, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.File)
	defer log.Sync()

	if flags.SaveConfig != "" {
		if err := cfg.SaveTo(flags.SaveConfig); err != nil {
			log.Fatal("cannot save config", zap.Error(err))
		}
	}

	input := flag.Arg(0)
	output := defaultOutputFile(input)
	if flag.NArg() > 1 {
		output = flag.Arg(1)
	}
	if err := run(cfg, input, output, log); err != nil {
		log.Error("conversion failed", zap.String("input", input), zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}
