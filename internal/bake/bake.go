// Package bake runs the per-file pipeline: sidecar, scene import,
// hierarchy, meshes, materials, animation and the asset write.
package bake

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/meshbake/internal/animation"
	"github.com/Faultbox/meshbake/internal/asset"
	"github.com/Faultbox/meshbake/internal/hierarchy"
	"github.com/Faultbox/meshbake/internal/identity"
	"github.com/Faultbox/meshbake/internal/importer"
	"github.com/Faultbox/meshbake/internal/material"
	"github.com/Faultbox/meshbake/internal/mesh"
	"github.com/Faultbox/meshbake/internal/meta"
	"github.com/Faultbox/meshbake/internal/scene"
)

// File-level errors. Each one aborts the bake of a single file.
var (
	ErrInputMissing = errors.New("input file missing")
	ErrSceneLoad    = errors.New("scene load failed")
)

// Task is one source file and the asset it produces.
type Task struct {
	Source string
	Output string
}

// Baker holds the state shared by every file of a batch.
type Baker struct {
	Materials *material.Generator
	Log       *zap.Logger
}

// New returns a Baker with a fresh identity registry and material cache.
// textures must be fully built before any file is baked.
func New(shader *material.Shader, textures *identity.TextureIndex, log *zap.Logger) *Baker {
	if log == nil {
		log = zap.NewNop()
	}
	if shader == nil {
		shader = material.StandardShader()
	}
	return &Baker{
		Materials: &material.Generator{
			Shader:   shader,
			Registry: identity.NewRegistry(),
			Textures: textures,
			Cache:    identity.NewMaterialCache(),
		},
		Log: log,
	}
}

// BakeFile converts one source file. Primitive and texture problems are
// logged and skipped; anything returned means no asset was written.
func (b *Baker) BakeFile(task Task) error {
	log := b.Log.With(zap.String("file", task.Source))

	if _, err := os.Stat(task.Source); err != nil {
		return fmt.Errorf("%w: %v", ErrInputMissing, err)
	}
	sidecar := meta.Path(task.Source)
	opts, err := meta.LoadMesh(sidecar)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %v", ErrInputMissing, err)
		}
		return err
	}
	if opts.GUID == "" {
		opts.GUID = identity.NewGUID()
		if err := meta.SaveMesh(sidecar, opts); err != nil {
			return err
		}
		log.Info("Assigned asset GUID", zap.String("guid", opts.GUID))
	}

	src, err := importer.Open(task.Source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSceneLoad, err)
	}
	defer src.Close()

	h, err := hierarchy.Build(src.Nodes(), hierarchy.Options{
		Scale:    opts.Scale,
		Rotation: hierarchy.Rotation(opts.Rotation),
	})
	if err != nil {
		return err
	}
	if h.HasSyntheticRoot() {
		log.Debug("Injected correction root",
			zap.Float32("scale", opts.Scale),
			zap.String("rotation", hierarchy.Rotation(opts.Rotation).String()))
	}

	materials := b.Materials.Generate(task.Source, src.Materials(), log)
	meshes, nodeMeshes := extractMeshes(src, h, materials, mesh.Options{
		FlipWinding:       opts.FlipWindingOrder,
		FlipUVs:           opts.FlipUVs,
		RegenerateNormals: opts.RegenerateNormals,
		SmoothNormals:     opts.UseSmoothNormals,
	}, log)

	rate := opts.FrameRate
	if rate <= 0 {
		rate = animation.DefaultFrameRate
	}
	clips := animation.Sample(src.Animations(), h, rate, log)

	out := &asset.Asset{
		Metadata: asset.Metadata{
			GUID:      opts.GUID,
			Source:    filepath.Base(task.Source),
			Format:    src.Format(),
			Scale:     opts.Scale,
			Rotation:  hierarchy.Rotation(opts.Rotation).String(),
			FrameRate: rate,
		},
		Meshes:     meshes,
		Nodes:      asset.NewNodes(h, nodeMeshes),
		Animations: asset.NewAnimations(clips),
	}
	if err := asset.WriteFile(task.Output, out); err != nil {
		return err
	}

	log.Info("Baked mesh asset",
		zap.String("output", task.Output),
		zap.Int("nodes", len(out.Nodes)),
		zap.Int("meshes", len(out.Meshes)),
		zap.Int("animations", len(out.Animations)))
	return nil
}

// extractMeshes converts every primitive referenced by a hierarchy node.
// A primitive shared by several nodes is stored once.
func extractMeshes(src scene.Adapter, h *hierarchy.Hierarchy, materials []string, opts mesh.Options, log *zap.Logger) ([]asset.Mesh, map[int][]int) {
	nodes := src.Nodes()
	prims := src.Primitives()

	var meshes []asset.Mesh
	nodeMeshes := make(map[int][]int)
	done := make(map[int]int) // primitive -> mesh index, -1 when skipped

	for final, n := range h.Nodes {
		if n.Source < 0 {
			continue
		}
		for _, pi := range nodes[n.Source].Primitives {
			idx, seen := done[pi]
			if !seen {
				idx = -1
				if pi < 0 || pi >= len(prims) {
					log.Warn("Skipped primitive reference out of range",
						zap.String("node", n.Name),
						zap.Int("primitive", pi))
				} else if m, err := mesh.Extract(&prims[pi], h, opts, log); err != nil {
					log.Warn("Skipped primitive",
						zap.String("node", n.Name),
						zap.Int("primitive", pi),
						zap.Error(err))
				} else {
					idx = len(meshes)
					meshes = append(meshes, asset.NewMesh(m, materialGUID(materials, m.Material)))
				}
				done[pi] = idx
			}
			if idx >= 0 {
				nodeMeshes[final] = append(nodeMeshes[final], idx)
			}
		}
	}
	return meshes, nodeMeshes
}

func materialGUID(guids []string, slot int) string {
	if slot < 0 || slot >= len(guids) {
		return ""
	}
	return guids[slot]
}
