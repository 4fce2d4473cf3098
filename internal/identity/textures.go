package identity

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshbake/internal/meta"
)

// TextureExtensions are the image types the texture index recognizes.
var TextureExtensions = []string{"png", "jpg", "jpeg", "tga", "bmp", "dds", "ktx2", "webp"}

// TextureIndex maps texture paths to the GUIDs written by the texture
// stage. It is built once before mesh baking and only read afterwards.
type TextureIndex struct {
	entries map[string]string // cleaned texture path -> guid
}

// BuildTextureIndex walks root for texture sidecars. Unreadable sidecars
// are skipped and returned by path.
func BuildTextureIndex(root string) (*TextureIndex, []string, error) {
	idx := &TextureIndex{entries: make(map[string]string)}
	exts := make(map[string]bool, len(TextureExtensions))
	for _, e := range TextureExtensions {
		exts["."+e] = true
	}

	var skipped []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, meta.Extension) {
			return nil
		}
		texture := strings.TrimSuffix(path, meta.Extension)
		if !exts[strings.ToLower(filepath.Ext(texture))] {
			return nil
		}
		h, err := meta.ReadHolder(path)
		if err != nil || h.GUID == "" {
			skipped = append(skipped, path)
			return nil
		}
		idx.entries[filepath.Clean(texture)] = h.GUID
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return idx, skipped, nil
}

// Lookup returns the GUID of the texture at path.
func (idx *TextureIndex) Lookup(path string) (string, bool) {
	if idx == nil {
		return "", false
	}
	guid, ok := idx.entries[filepath.Clean(path)]
	return guid, ok
}

// Len returns the number of indexed textures.
func (idx *TextureIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}
