// Package config loads relpipe.yaml and fills in the defaults that match a
// stock VS Code extension checkout.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Promptonauts/relpipe/pkg/models"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFile       = "relpipe.yaml"
	DefaultDescriptor = "package.json"
	DefaultOutputDir  = "vsix"
	DefaultExtension  = "vsix"
	DefaultPattern    = "n8x"
	DefaultExclude    = "n8x.json"
	DefaultMetaDir    = ".n8x"
	DefaultDistDir    = "dist"
	DefaultEchoAddr   = "localhost:4000"
)

func Default() *models.PipelineSpec {
	spec := &models.PipelineSpec{}
	ApplyDefaults(spec)
	return spec
}

func ApplyDefaults(spec *models.PipelineSpec) {
	if spec.Root == "" {
		spec.Root = "."
	}
	if spec.Descriptor == "" {
		spec.Descriptor = DefaultDescriptor
	}
	if spec.OutputDir == "" {
		spec.OutputDir = DefaultOutputDir
	}
	if spec.Extension == "" {
		spec.Extension = DefaultExtension
	}
	if spec.Clean.Enabled == nil {
		spec.Clean.Enabled = boolPtr(true)
	}
	if spec.Clean.Pattern == "" {
		spec.Clean.Pattern = DefaultPattern
	}
	if spec.Clean.Exclude == "" {
		spec.Clean.Exclude = DefaultExclude
	}
	if spec.Clean.Dirs == nil {
		spec.Clean.Dirs = []string{DefaultMetaDir, DefaultDistDir}
	}
	if spec.Packager.Command == "" {
		spec.Packager = models.CommandSpec{Command: "vsce", Args: []string{"package"}}
	}
	if spec.Installer.Command == "" {
		spec.Installer = models.CommandSpec{Command: "code", Args: []string{"--install-extension"}}
	}
	if spec.Install == nil {
		spec.Install = boolPtr(true)
	}
	if spec.Echo.Addr == "" {
		spec.Echo.Addr = DefaultEchoAddr
	}
}

// Load reads path and applies defaults. A missing file is only an error
// when required is set; otherwise the defaults are returned.
func Load(path string, required bool) (*models.PipelineSpec, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var spec models.PipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	ApplyDefaults(&spec)
	return &spec, nil
}

// Resolve joins a config-relative path onto the root.
func Resolve(spec *models.PipelineSpec, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(spec.Root, path)
}

func CleanEnabled(spec *models.PipelineSpec) bool {
	return spec.Clean.Enabled == nil || *spec.Clean.Enabled
}

func InstallEnabled(spec *models.PipelineSpec) bool {
	return spec.Install == nil || *spec.Install
}

func boolPtr(b bool) *bool {
	return &b
}
