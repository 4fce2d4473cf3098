package material

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Extension is the file extension of material descriptors.
const Extension = ".mat"

// Culling modes.
const (
	CullBack = "Back"
	CullNone = "None"
)

// Parameter sources.
const (
	SourceInstance = "instance"
	SourceUniform  = "uniform"
)

// Parameter is one named material value. Only the field matching Type is set.
type Parameter struct {
	Name    string      `yaml:"-"`
	Type    UniformType `yaml:"type"`
	Source  string      `yaml:"source"`
	Color   *[4]float32 `yaml:"colorValue,omitempty,flow"`
	Int     *int32      `yaml:"intValue,omitempty"`
	Float   *float32    `yaml:"floatValue,omitempty"`
	Vector  []float32   `yaml:"vectorValue,omitempty,flow"`
	Texture *string     `yaml:"textureValue,omitempty"`
	Wrap    string      `yaml:"textureWrapValue,omitempty"`
}

// Parameters keeps its order when written as a YAML mapping.
type Parameters []Parameter

// Get returns the parameter with the given name.
func (ps Parameters) Get(name string) (Parameter, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// MarshalYAML implements yaml.Marshaler.
func (ps Parameters) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, p := range ps {
		var value yaml.Node
		if err := value.Encode(p); err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Name},
			&value)
	}
	return node, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (ps *Parameters) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: parameters must be a mapping", node.Line)
	}
	out := make(Parameters, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var p Parameter
		if err := node.Content[i+1].Decode(&p); err != nil {
			return err
		}
		p.Name = node.Content[i].Value
		out = append(out, p)
	}
	*ps = out
	return nil
}

// Descriptor is the on-disk material description.
type Descriptor struct {
	Shader      string     `yaml:"shader"`
	ShaderPath  string     `yaml:"shaderPath,omitempty"`
	CullingMode string     `yaml:"cullingMode"`
	Parameters  Parameters `yaml:"parameters"`
}

// ReadDescriptor reads a material descriptor.
func ReadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &d, nil
}

// WriteDescriptor writes a material descriptor.
func WriteDescriptor(path string, d *Descriptor) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// defaultParameter returns the instance default for a uniform type.
func defaultParameter(u Uniform) (Parameter, bool) {
	p := Parameter{Name: u.Name, Type: u.Type, Source: SourceInstance}
	switch u.Type {
	case UniformColor:
		p.Color = &[4]float32{1, 1, 1, 1}
	case UniformInt:
		p.Int = new(int32)
	case UniformFloat:
		p.Float = new(float32)
	case UniformVec2:
		p.Vector = make([]float32, 2)
	case UniformVec3:
		p.Vector = make([]float32, 3)
	case UniformVec4:
		p.Vector = make([]float32, 4)
	case UniformTexture:
		p.Texture = new(string)
	case UniformTextureWrap:
		p.Wrap = "Clamp"
	default:
		return p, false
	}
	return p, true
}
