// Package meta reads and writes the YAML sidecar files that sit next to
// every source and generated asset.
package meta

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshbake/internal/hierarchy"
)

// Extension is appended to an asset path to name its sidecar.
const Extension = ".meta"

// Asset type names written to sidecars.
const (
	TypeMesh     = "meshbake.Mesh"
	TypeMaterial = "meshbake.Material"
	TypeTexture  = "meshbake.Texture"
)

// ErrMetadataCorrupt is returned when a sidecar exists but cannot be parsed.
var ErrMetadataCorrupt = errors.New("corrupt sidecar metadata")

// Path returns the sidecar path of an asset.
func Path(asset string) string {
	return asset + Extension
}

// AssetHolder is the sidecar of a generated asset.
type AssetHolder struct {
	GUID     string `yaml:"guid"`
	TypeName string `yaml:"typeName"`
}

// ReadHolder reads the sidecar at path. A missing file returns an error
// matching fs.ErrNotExist.
func ReadHolder(path string) (*AssetHolder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var h AssetHolder
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMetadataCorrupt, path, err)
	}
	return &h, nil
}

// WriteHolder writes a sidecar to path.
func WriteHolder(path string, h *AssetHolder) error {
	return write(path, h)
}

// Mesh is the sidecar of a source scene file. It carries the bake options
// and the persisted asset GUID.
type Mesh struct {
	GUID              string   `yaml:"guid"`
	TypeName          string   `yaml:"typeName"`
	Scale             float32  `yaml:"scale"`
	Rotation          Rotation `yaml:"rotation"`
	FrameRate         float32  `yaml:"frameRate"`
	FlipUVs           bool     `yaml:"flipUVs"`
	FlipWindingOrder  bool     `yaml:"flipWindingOrder"`
	RegenerateNormals bool     `yaml:"regenerateNormals"`
	UseSmoothNormals  bool     `yaml:"useSmoothNormals"`
}

// DefaultMesh returns the options used for fields a sidecar omits.
func DefaultMesh() Mesh {
	return Mesh{
		TypeName:         TypeMesh,
		Scale:            1,
		FrameRate:        30,
		FlipUVs:          true,
		FlipWindingOrder: true,
	}
}

// LoadMesh reads a mesh sidecar over the defaults.
func LoadMesh(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := DefaultMesh()
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMetadataCorrupt, path, err)
	}
	if m.TypeName == "" {
		m.TypeName = TypeMesh
	}
	return &m, nil
}

// SaveMesh writes a mesh sidecar.
func SaveMesh(path string, m *Mesh) error {
	return write(path, m)
}

// Rotation is a hierarchy correction that reads either its name or its
// numeric value.
type Rotation hierarchy.Rotation

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Rotation) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: rotation must be a scalar", node.Line)
	}
	v, err := hierarchy.ParseRotation(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*r = Rotation(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r Rotation) MarshalYAML() (any, error) {
	return hierarchy.Rotation(r).String(), nil
}

func write(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
