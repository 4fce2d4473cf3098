package config

import "flag"

// Flags holds command-line overrides. Zero values leave the loaded
// setting untouched.
type Flags struct {
	Config      string
	Input       string
	Output      string
	Workers     int
	Incremental bool
	Shader      string
	Debug       bool
}

// Register binds the flags to a subcommand's flag set.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.StringVar(&f.Input, "input", "", "Directory of source files and sidecars")
	fs.StringVar(&f.Output, "output", "", "Directory for baked assets")
	fs.IntVar(&f.Workers, "workers", 0, "Number of parallel bakes")
	fs.BoolVar(&f.Incremental, "incremental", false, "Skip files whose output is up to date")
	fs.StringVar(&f.Shader, "shader", "", "Shader description for material generation")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Input != "" {
		cfg.Bake.InputDir = f.Input
	}
	if f.Output != "" {
		cfg.Bake.OutputDir = f.Output
	}
	if f.Workers > 0 {
		cfg.Bake.Workers = f.Workers
	}
	if f.Incremental {
		cfg.Bake.Incremental = true
	}
	if f.Shader != "" {
		cfg.Bake.Shader = f.Shader
	}
}
