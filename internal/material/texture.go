package material

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshbake/internal/meta"
	"github.com/Faultbox/meshbake/internal/scene"
	"github.com/Faultbox/meshbake/pkg/encoding"
)

// ErrTextureUnresolved is reported when a texture reference cannot be
// matched to a known texture. The parameter is still written, empty.
var ErrTextureUnresolved = errors.New("texture unresolved")

// resolveTexture returns the GUID a material should reference for ref.
func (g *Generator) resolveTexture(dir, base string, ref *scene.TextureRef) (string, error) {
	if ref.Embedded() {
		return g.extractTexture(dir, base, ref)
	}
	if ref.Path == "" {
		return "", fmt.Errorf("%w: texture %d has no image", ErrTextureUnresolved, ref.Index)
	}

	found, ok := findTexture(dir, ref.Path)
	if !ok {
		return "", fmt.Errorf("%w: %s not found", ErrTextureUnresolved, ref.Path)
	}
	guid, ok := g.Textures.Lookup(found)
	if !ok {
		return "", fmt.Errorf("%w: %s has no texture identity", ErrTextureUnresolved, found)
	}
	return guid, nil
}

// extractTexture writes embedded image bytes next to the material, once,
// and returns the GUID of its sidecar.
func (g *Generator) extractTexture(dir, base string, ref *scene.TextureRef) (string, error) {
	ext := ref.Ext
	if ext == "" {
		ext = "png"
	}
	target := filepath.Join(dir, fmt.Sprintf("%s_%d.%s", base, ref.Index, ext))

	if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(target, ref.Data, 0644); err != nil {
			return "", fmt.Errorf("extracting embedded texture: %w", err)
		}
	}
	return g.Registry.Ensure(target, meta.TypeTexture)
}

// findTexture resolves ref relative to dir. When the direct path does not
// exist, leading components are dropped one at a time and each remaining
// suffix is looked for in the subdirectories of its parent and in the
// parent itself.
func findTexture(dir, ref string) (string, bool) {
	ref = encoding.NormalizePath(ref)
	if filepath.IsAbs(ref) {
		if fileExists(ref) {
			return filepath.Clean(ref), true
		}
	} else if p := filepath.Join(dir, filepath.FromSlash(ref)); fileExists(p) {
		return p, true
	}

	var pieces []string
	for _, s := range strings.Split(ref, "/") {
		if s != "" && s != "." {
			pieces = append(pieces, s)
		}
	}
	if filepath.IsAbs(ref) && len(pieces) > 0 {
		// Absolute paths from another machine only contribute their suffix.
		pieces = pieces[len(pieces)-1:]
	}

	for len(pieces) > 0 {
		name := pieces[len(pieces)-1]
		parent := filepath.Join(append([]string{dir}, pieces[:len(pieces)-1]...)...)

		entries, _ := os.ReadDir(parent)
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if p := filepath.Join(parent, e.Name(), name); fileExists(p) {
				return p, true
			}
		}
		if p := filepath.Join(parent, name); fileExists(p) {
			return p, true
		}
		pieces = pieces[1:]
	}
	return "", false
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
