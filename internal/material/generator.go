// Package material derives material descriptors from source materials and
// writes each distinct one to disk exactly once.
package material

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshbake/internal/identity"
	"github.com/Faultbox/meshbake/internal/meta"
	"github.com/Faultbox/meshbake/internal/scene"
)

type colorBinding struct {
	uniform  string
	semantic scene.Semantic
}

type textureBinding struct {
	uniform  string
	semantic scene.Semantic
}

var colorBindings = []colorBinding{
	{"diffuseColor", scene.SemanticBaseColor},
	{"metallicColor", scene.SemanticMetallicRoughness},
	{"emissiveColor", scene.SemanticEmissive},
}

var textureBindings = []textureBinding{
	{"diffuseTexture", scene.SemanticBaseColor},
	{"metallicTexture", scene.SemanticMetallicRoughness},
	{"emissiveTexture", scene.SemanticEmissive},
	{"normalTexture", scene.SemanticNormal},
	{"occlusionTexture", scene.SemanticOcclusion},
}

// Generator writes material descriptors. Registry and Cache are shared by
// every concurrent bake; Textures is read-only.
type Generator struct {
	Shader   *Shader
	Registry *identity.Registry
	Textures *identity.TextureIndex
	Cache    *identity.MaterialCache
}

// Generate returns one material GUID per source material slot. A slot
// whose descriptor cannot be written gets an empty GUID and a warning.
func (g *Generator) Generate(source string, mats []scene.Material, log *zap.Logger) []string {
	if log == nil {
		log = zap.NewNop()
	}
	dir := filepath.Dir(source)
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))

	guids := make([]string, len(mats))
	unnamed := 0
	for i := range mats {
		m := &mats[i]
		name := m.Name
		if name == "" {
			unnamed++
			name = fmt.Sprintf("%s %d", base, unnamed)
		}
		target := filepath.Join(dir, SanitizeName(name)+Extension)

		guid, created, err := g.Cache.GetOrCreate(target, func() (string, error) {
			return g.create(target, m, log)
		})
		if err != nil {
			log.Warn("Failed to generate material",
				zap.String("material", target),
				zap.Error(err))
			continue
		}
		if created {
			log.Debug("Resolved material",
				zap.String("material", target),
				zap.String("guid", guid))
		}
		guids[i] = guid
	}
	return guids
}

// create runs inside the cache's critical section for target.
func (g *Generator) create(target string, m *scene.Material, log *zap.Logger) (string, error) {
	if _, err := os.Stat(target); err == nil {
		return g.Registry.Ensure(target, meta.TypeMaterial)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	base := strings.TrimSuffix(filepath.Base(target), Extension)
	d := g.Describe(m, func(ref *scene.TextureRef) string {
		guid, err := g.resolveTexture(filepath.Dir(target), base, ref)
		if err != nil {
			log.Warn("Texture reference left empty",
				zap.String("material", target),
				zap.Error(err))
			return ""
		}
		return guid
	})

	if err := WriteDescriptor(target, d); err != nil {
		return "", err
	}
	guid, err := g.Registry.Ensure(target, meta.TypeMaterial)
	if err != nil {
		return "", err
	}
	log.Info("Generated material", zap.String("material", target))
	return guid, nil
}

// Describe builds the descriptor of m. Parameters are only emitted for
// uniforms the shader declares. resolve maps a texture to a GUID, or ""
// when it cannot be resolved.
func (g *Generator) Describe(m *scene.Material, resolve func(*scene.TextureRef) string) *Descriptor {
	d := &Descriptor{
		Shader:      g.Shader.GUID,
		ShaderPath:  g.Shader.Path,
		CullingMode: CullBack,
	}
	if m.DoubleSided {
		d.CullingMode = CullNone
	}

	for _, u := range g.Shader.InstanceParameters() {
		if p, ok := defaultParameter(u); ok {
			d.Parameters = append(d.Parameters, p)
		}
	}

	for _, b := range colorBindings {
		ch, ok := m.Channel(b.semantic)
		if !ok || ch.Color == nil || !g.declares(b.uniform, UniformColor) {
			continue
		}
		c := *ch.Color
		d.Parameters = append(d.Parameters, Parameter{
			Name:   b.uniform,
			Type:   UniformColor,
			Source: SourceUniform,
			Color:  &c,
		})
	}

	for _, b := range textureBindings {
		ch, ok := m.Channel(b.semantic)
		if !ok || ch.Texture == nil || !g.declares(b.uniform, UniformTexture) {
			continue
		}
		value := resolve(ch.Texture)

		if g.Shader.Has(b.uniform+"_UMapping") && g.Shader.Has(b.uniform+"_VMapping") {
			u, v := scene.WrapClamp, scene.WrapClamp
			if value != "" {
				u, v = ch.Texture.WrapU, ch.Texture.WrapV
			}
			d.Parameters = append(d.Parameters,
				Parameter{Name: b.uniform + "_UMapping", Type: UniformTextureWrap, Source: SourceUniform, Wrap: u.String()},
				Parameter{Name: b.uniform + "_VMapping", Type: UniformTextureWrap, Source: SourceUniform, Wrap: v.String()},
			)
		}
		d.Parameters = append(d.Parameters, Parameter{
			Name:    b.uniform,
			Type:    UniformTexture,
			Source:  SourceUniform,
			Texture: &value,
		})
	}
	return d
}

// declares reports whether the shader has a non-instance uniform of type t.
func (g *Generator) declares(name string, t UniformType) bool {
	u, ok := g.Shader.Lookup(name)
	return ok && !u.Instance && u.Type == t
}

// SanitizeName replaces characters that are invalid in file names.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || strings.ContainsRune(`<>:"/\|?*`, r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	s := strings.TrimRight(b.String(), " .")
	if s == "" {
		return "_"
	}
	return s
}
