package core

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is looked up in the working directory when no --config is given.
const ConfigFileName = "morg.yaml"

// Config represents the morg.yaml configuration file.
type Config struct {
	DocumentExt string   `yaml:"document_ext"`
	ImageExts   []string `yaml:"image_exts"`
	ImagesDir   string   `yaml:"images_dir"`
	Journal     string   `yaml:"journal"`
}

// DefaultConfig returns the settings used when morg.yaml is absent.
func DefaultConfig() Config {
	return Config{
		DocumentExt: ".org",
		ImageExts:   []string{".png", ".jpg"},
		ImagesDir:   "images",
	}
}

// LoadConfig reads the configuration file at path.
// Returns DefaultConfig and nil error if the file does not exist.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// withDefaults fills unset fields and normalizes extensions to ".ext".
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.DocumentExt == "" {
		c.DocumentExt = def.DocumentExt
	}
	if len(c.ImageExts) == 0 {
		c.ImageExts = def.ImageExts
	}
	if c.ImagesDir == "" {
		c.ImagesDir = def.ImagesDir
	}
	c.DocumentExt = dotExt(c.DocumentExt)
	exts := make([]string, len(c.ImageExts))
	for i, e := range c.ImageExts {
		exts[i] = dotExt(e)
	}
	c.ImageExts = exts
	return c
}

func (c Config) validate() error {
	if strings.ContainsAny(c.ImagesDir, `/\`) {
		return fmt.Errorf("images_dir must be a single directory name: %q", c.ImagesDir)
	}
	for _, e := range c.ImageExts {
		if strings.EqualFold(e, c.DocumentExt) {
			return fmt.Errorf("extension %s is configured as both document and image", e)
		}
	}
	return nil
}

func dotExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}
