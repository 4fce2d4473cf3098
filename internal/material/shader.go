package material

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UniformType is the declared type of a shader uniform.
type UniformType string

// Uniform types.
const (
	UniformColor       UniformType = "color"
	UniformInt         UniformType = "int"
	UniformFloat       UniformType = "float"
	UniformVec2        UniformType = "vec2"
	UniformVec3        UniformType = "vec3"
	UniformVec4        UniformType = "vec4"
	UniformTexture     UniformType = "texture"
	UniformTextureWrap UniformType = "textureWrap"
)

// Uniform is one declared shader uniform.
type Uniform struct {
	Name     string      `yaml:"name"`
	Type     UniformType `yaml:"type"`
	Instance bool        `yaml:"instance"`
}

// Shader is the reflection data of the shader generated materials use.
type Shader struct {
	GUID     string    `yaml:"guid"`
	Path     string    `yaml:"path"`
	Uniforms []Uniform `yaml:"uniforms"`

	byName map[string]int
}

//go:embed standard_shader.yaml
var standardShaderYAML []byte

// StandardShader returns the built-in shader description.
func StandardShader() *Shader {
	s, err := ParseShader(standardShaderYAML)
	if err != nil {
		panic(fmt.Sprintf("material: built-in shader: %v", err))
	}
	return s
}

// LoadShader reads a shader description from disk.
func LoadShader(path string) (*Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading shader description: %w", err)
	}
	s, err := ParseShader(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseShader decodes a shader description.
func ParseShader(data []byte) (*Shader, error) {
	var s Shader
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing shader description: %w", err)
	}
	if s.GUID == "" {
		return nil, errors.New("shader description has no guid")
	}
	s.byName = make(map[string]int, len(s.Uniforms))
	for i, u := range s.Uniforms {
		if _, dup := s.byName[u.Name]; dup {
			return nil, fmt.Errorf("uniform %q declared twice", u.Name)
		}
		s.byName[u.Name] = i
	}
	return &s, nil
}

// Has reports whether the shader declares a uniform.
func (s *Shader) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Lookup returns the declaration of a uniform.
func (s *Shader) Lookup(name string) (Uniform, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Uniform{}, false
	}
	return s.Uniforms[i], true
}

// InstanceParameters returns the per-instance uniforms in declaration order.
func (s *Shader) InstanceParameters() []Uniform {
	var out []Uniform
	for _, u := range s.Uniforms {
		if u.Instance {
			out = append(out, u)
		}
	}
	return out
}
