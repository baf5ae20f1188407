// Package config handles xpobjconv configuration loading.
package config

import (
	"github.com/binzume/xpobjconv/xpobj"
	"github.com/pkg/errors"
)

var ErrInvalid = errors.New("invalid config")

// Config holds all settings of the converter.
type Config struct {
	Import  ImportConfig  `yaml:"import"`
	Convert ConvertConfig `yaml:"convert"`
	Logging LoggingConfig `yaml:"logging"`
}

// ImportConfig holds OBJ reading settings.
type ImportConfig struct {
	Merge    string     `yaml:"merge"`    // "attributes" or "all"
	DataRefs string     `yaml:"datarefs"` // DataRefs.txt or a directory containing it
	Location [3]float64 `yaml:"location"` // Z-up
	// SubObject imports without the "Attributes" object and names the meshes after the file.
	SubObject bool `yaml:"sub_object"`
}

// ConvertConfig holds glTF output settings.
type ConvertConfig struct {
	Scale            float32    `yaml:"scale"`
	Unlit            bool       `yaml:"unlit"`
	TextureLimit     int        `yaml:"texture_limit"`
	EmbedTextures    bool       `yaml:"embed_textures"`
	TextureFormat    string     `yaml:"texture_format"` // "png" or "webp"
	KeyframeInterval float32    `yaml:"keyframe_interval"`
	Offset           [3]float64 `yaml:"offset"` // Y-up, applied after conversion
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func Default() *Config {
	return &Config{
		Import: ImportConfig{
			Merge: "attributes",
		},
		Convert: ConvertConfig{
			Scale:            1,
			TextureFormat:    "png",
			KeyframeInterval: 1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func (c *Config) MergeMode() xpobj.MergeMode {
	if c.Import.Merge == "all" {
		return xpobj.MergeAll
	}
	return xpobj.MergeByAttributes
}

func (c *Config) Validate() error {
	switch c.Import.Merge {
	case "attributes", "all":
	default:
		return errors.Wrapf(ErrInvalid, "import.merge: %q", c.Import.Merge)
	}
	switch c.Convert.TextureFormat {
	case "png", "webp":
	default:
		return errors.Wrapf(ErrInvalid, "convert.texture_format: %q", c.Convert.TextureFormat)
	}
	if c.Convert.Scale <= 0 {
		return errors.Wrapf(ErrInvalid, "convert.scale: %v", c.Convert.Scale)
	}
	if c.Convert.TextureLimit < 0 {
		return errors.Wrapf(ErrInvalid, "convert.texture_limit: %v", c.Convert.TextureLimit)
	}
	if c.Convert.KeyframeInterval <= 0 {
		return errors.Wrapf(ErrInvalid, "convert.keyframe_interval: %v", c.Convert.KeyframeInterval)
	}
	return nil
}
