package config

import "flag"

// Flags are the command line overrides. Only flags that were set override
// the config file.
type Flags struct {
	fs *flag.FlagSet

	ConfigPath string
	SaveConfig string
	Debug      bool

	merge         string
	datarefs      string
	subObject     bool
	scale         float64
	unlit         bool
	textureLimit  int
	embed         bool
	textureFormat string
	logFile       string
}

func NewFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "path to config file")
	fs.StringVar(&f.SaveConfig, "saveconfig", "", "write the effective config to a file")
	fs.BoolVar(&f.Debug, "debug", false, "enable debug logging")
	fs.StringVar(&f.merge, "merge", "", "mesh merging: attributes or all")
	fs.StringVar(&f.datarefs, "datarefs", "", "DataRefs.txt or X-Plane resources directory")
	fs.BoolVar(&f.subObject, "subobject", false, "import as a sub-object")
	fs.Float64Var(&f.scale, "scale", 1, "output scale")
	fs.BoolVar(&f.unlit, "gltfunlit", false, "unlit all materials")
	fs.IntVar(&f.textureLimit, "texlimit", 0, "texture resolution limit (0: unlimited)")
	fs.BoolVar(&f.embed, "embed", false, "embed textures")
	fs.StringVar(&f.textureFormat, "texformat", "", "embedded texture format: png or webp")
	fs.StringVar(&f.logFile, "log", "", "log file")
	return f
}

// Apply applies the flags set on the command line to cfg.
func (f *Flags) Apply(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "merge":
			cfg.Import.Merge = f.merge
		case "datarefs":
			cfg.Import.DataRefs = f.datarefs
		case "subobject":
			cfg.Import.SubObject = f.subObject
		case "scale":
			cfg.Convert.Scale = float32(f.scale)
		case "gltfunlit":
			cfg.Convert.Unlit = f.unlit
		case "texlimit":
			cfg.Convert.TextureLimit = f.textureLimit
		case "embed":
			cfg.Convert.EmbedTextures = f.embed
		case "texformat":
			cfg.Convert.TextureFormat = f.textureFormat
		case "log":
			cfg.Logging.File = f.logFile
		}
	})
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
}
