// Package importer opens source scene files and adapts them to scene.Adapter.
package importer

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/meshbake/internal/scene"
)

// ErrUnsupportedFormat is returned for file extensions no importer handles.
var ErrUnsupportedFormat = errors.New("unsupported scene format")

type openFunc func(path string) (scene.Adapter, error)

var openers = map[string]openFunc{
	".gltf": openGLTF,
	".glb":  openGLTF,
	".fbx":  openFBX,
	".obj":  openOBJ,
	".rsm":  openRSM,
}

// Open parses path with the importer selected by its extension.
func Open(path string) (scene.Adapter, error) {
	open, ok := openers[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return open(path)
}

// Supported reports whether path has an extension an importer handles.
func Supported(path string) bool {
	_, ok := openers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions returns the handled extensions, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(openers))
	for ext := range openers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
