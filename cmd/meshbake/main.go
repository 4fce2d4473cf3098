// meshbake converts authored scene files into runtime mesh assets.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshbake/internal/asset"
	"github.com/Faultbox/meshbake/internal/bake"
	"github.com/Faultbox/meshbake/internal/config"
	"github.com/Faultbox/meshbake/internal/identity"
	"github.com/Faultbox/meshbake/internal/importer"
	"github.com/Faultbox/meshbake/internal/logger"
	"github.com/Faultbox/meshbake/internal/material"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "bake":
		cmdBake(args)
	case "inspect", "info":
		cmdInspect(args)
	case "config":
		cmdConfig(args)
	case "version", "-v", "--version":
		fmt.Printf("meshbake %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`meshbake - offline mesh asset baker

Usage:
  meshbake <command> [options]

Commands:
  bake [options]             Bake every source file with a sidecar
  inspect <asset>            Print the contents of a baked asset
  config [-o file] [-save]   Print or save the effective configuration
  version                    Print the version
  help                       Show this help

Supported sources: %s

Examples:
  meshbake bake -input assets -output baked -workers 8
  meshbake bake -incremental -debug
  meshbake inspect baked/props/crate.gltf
`, strings.Join(importer.Extensions(), " "))
}

func cmdBake(args []string) {
	fs := flag.NewFlagSet("bake", flag.ExitOnError)
	var flags config.Flags
	flags.Register(fs)
	fs.Parse(args)

	cfg, err := config.Load(&flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	failed, err := runBake(cfg)
	if err != nil {
		logger.Error("Bake aborted", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	if failed > 0 {
		logger.Sync()
		os.Exit(1)
	}
}

// runBake returns the number of files that failed.
func runBake(cfg *config.Config) (int, error) {
	shader := material.StandardShader()
	if cfg.Bake.Shader != "" {
		s, err := material.LoadShader(cfg.Bake.Shader)
		if err != nil {
			return 0, err
		}
		shader = s
	}

	// Texture identities are read-only once mesh baking starts.
	textures, skipped, err := identity.BuildTextureIndex(cfg.Bake.InputDir)
	if err != nil {
		return 0, fmt.Errorf("indexing textures: %w", err)
	}
	for _, p := range skipped {
		logger.Warn("Skipped unreadable texture sidecar", zap.String("file", p))
	}

	tasks, err := bake.Discover(cfg.Bake.InputDir, cfg.Bake.OutputDir)
	if err != nil {
		return 0, err
	}
	logger.Info("Starting bake",
		zap.String("input", cfg.Bake.InputDir),
		zap.String("output", cfg.Bake.OutputDir),
		zap.Int("files", len(tasks)),
		zap.Int("textures", textures.Len()),
		zap.Int("workers", cfg.Bake.Workers))

	b := bake.New(shader, textures, logger.Log)
	_, sum := b.Run(bake.Config{
		Workers:          cfg.Bake.Workers,
		Incremental:      cfg.Bake.Incremental,
		ProgressInterval: cfg.Bake.ProgressInterval,
	}, tasks)

	hits, misses := b.Materials.Registry.Stats()
	logger.Info("Bake finished",
		zap.Int("total", sum.Total),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
		zap.Int("skipped", sum.Skipped),
		zap.Int("materials", b.Materials.Cache.Len()),
		zap.Int("guid_hits", hits),
		zap.Int("guid_misses", misses),
		zap.Duration("duration", sum.Duration))
	return sum.Failed, nil
}

func cmdInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	verbose := fs.Bool("v", false, "List every node and animation channel")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshbake inspect [-v] <asset|material.mat>")
		os.Exit(1)
	}

	if strings.EqualFold(filepath.Ext(fs.Arg(0)), material.Extension) {
		if err := inspectMaterial(fs.Arg(0)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	h, a, err := asset.Read(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Asset:     %s\n", fs.Arg(0))
	fmt.Printf("Header:    %s v%d\n", string(h.Magic[:]), h.Version)
	fmt.Printf("GUID:      %s\n", a.Metadata.GUID)
	fmt.Printf("Source:    %s (%s)\n", a.Metadata.Source, a.Metadata.Format)
	fmt.Printf("Transform: scale %g, rotation %s\n", a.Metadata.Scale, a.Metadata.Rotation)
	fmt.Printf("Nodes:     %d\n", len(a.Nodes))
	fmt.Println()

	fmt.Printf("Meshes (%d):\n", len(a.Meshes))
	for i, m := range a.Meshes {
		mat := m.MaterialGUID
		if mat == "" {
			mat = "(none)"
		}
		fmt.Printf("  [%d] %-24s %-8s %-10s verts=%-6d indices=%-6d bones=%-3d material=%s\n",
			i, m.Name, m.Type, m.Topology, len(m.Positions), len(m.Indices), len(m.Bones), mat)
	}

	if *verbose {
		fmt.Println()
		fmt.Println("Hierarchy:")
		printNode(a.Nodes, 0, 1)
		for i, n := range a.Nodes {
			if n.Parent < 0 && i > 0 {
				printNode(a.Nodes, i, 1)
			}
		}
	}

	fmt.Println()
	fmt.Printf("Animations (%d) at %g fps:\n", len(a.Animations), a.Metadata.FrameRate)
	for _, anim := range a.Animations {
		fmt.Printf("  %-24s %.3fs channels=%d\n", anim.Name, anim.Duration, len(anim.Channels))
		if !*verbose {
			continue
		}
		for _, ch := range anim.Channels {
			name := "?"
			if int(ch.Node) < len(a.Nodes) {
				name = a.Nodes[ch.Node].Name
			}
			fmt.Printf("    %-22s pos=%d rot=%d scale=%d\n", name, len(ch.Positions), len(ch.Rotations), len(ch.Scales))
		}
	}
}

func inspectMaterial(path string) error {
	d, err := material.ReadDescriptor(path)
	if err != nil {
		return err
	}
	guid, ok, err := identity.NewRegistry().Find(path)
	if err != nil {
		return err
	}
	if !ok {
		guid = "(no sidecar)"
	}

	fmt.Printf("Material:  %s\n", path)
	fmt.Printf("GUID:      %s\n", guid)
	fmt.Printf("Shader:    %s\n", d.Shader)
	fmt.Printf("Culling:   %s\n", d.CullingMode)
	fmt.Println()

	fmt.Printf("Parameters (%d):\n", len(d.Parameters))
	for _, p := range d.Parameters {
		var value string
		switch {
		case p.Color != nil:
			value = fmt.Sprintf("%v", *p.Color)
		case p.Texture != nil:
			value = *p.Texture
			if value == "" {
				value = "(unresolved)"
			}
		case p.Wrap != "":
			value = p.Wrap
		case p.Float != nil:
			value = fmt.Sprintf("%g", *p.Float)
		case p.Int != nil:
			value = fmt.Sprintf("%d", *p.Int)
		case p.Vector != nil:
			value = fmt.Sprintf("%v", p.Vector)
		}
		fmt.Printf("  %-28s %-10s %s\n", p.Name, p.Type, value)
	}
	return nil
}

func printNode(nodes []asset.Node, idx, depth int) {
	if idx >= len(nodes) {
		return
	}
	n := nodes[idx]
	suffix := ""
	if len(n.Meshes) > 0 {
		suffix = fmt.Sprintf(" meshes=%v", n.Meshes)
	}
	fmt.Printf("%s%s%s\n", strings.Repeat("  ", depth), n.Name, suffix)
	for _, c := range n.Children {
		printNode(nodes, int(c), depth+1)
	}
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	var flags config.Flags
	flags.Register(fs)
	out := fs.String("o", "", "Write the effective configuration to this file")
	save := fs.Bool("save", false, "Write the effective configuration to the user config directory")
	fs.Parse(args)

	cfg, err := config.Load(&flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *out != "":
		if err := cfg.SaveTo(*out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *out)
	case *save:
		path, err := cfg.Save()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", path)
	default:
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
	}
}
