package models

type PipelineSpec struct {
	Root       string      `yaml:"root" json:"root"`
	Descriptor string      `yaml:"descriptor" json:"descriptor"`
	OutputDir  string      `yaml:"output_dir" json:"outputDir"`
	Extension  string      `yaml:"extension" json:"extension"`
	Clean      CleanSpec   `yaml:"clean" json:"clean"`
	Packager   CommandSpec `yaml:"packager" json:"packager"`
	Installer  CommandSpec `yaml:"installer" json:"installer"`
	Install    *bool       `yaml:"install,omitempty" json:"install,omitempty"`
	History    string      `yaml:"history,omitempty" json:"history,omitempty"`
	Echo       EchoSpec    `yaml:"echo" json:"echo"`
}

type CleanSpec struct {
	Enabled *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Pattern string   `yaml:"pattern" json:"pattern"`
	Exclude string   `yaml:"exclude" json:"exclude"`
	Dirs    []string `yaml:"dirs,omitempty" json:"dirs,omitempty"`
}

type CommandSpec struct {
	Command string   `yaml:"command" json:"command"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`
}

type EchoSpec struct {
	Addr string `yaml:"addr" json:"addr"`
}
