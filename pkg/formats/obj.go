package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrInvalidOBJ is returned for malformed OBJ or MTL statements.
var ErrInvalidOBJ = errors.New("invalid OBJ data")

// OBJIndex references the attributes of one face corner. Absent
// attributes are -1; present ones are 0-based.
type OBJIndex struct {
	Position int
	TexCoord int
	Normal   int
}

// OBJGroup is a run of faces sharing one material.
type OBJGroup struct {
	Material string
	Faces    [][]OBJIndex
}

// OBJ is a parsed Wavefront object file.
type OBJ struct {
	Positions    [][3]float32
	Colors       [][3]float32 // per position, nil unless every vertex has one
	TexCoords    [][2]float32
	Normals      [][3]float32
	Groups       []OBJGroup
	MaterialLibs []string
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening OBJ file: %w", err)
	}
	defer f.Close()
	return ParseOBJ(f)
}

// ParseOBJ parses OBJ statements. Unknown statements are ignored.
func ParseOBJ(r io.Reader) (*OBJ, error) {
	obj := &OBJ{}
	colored := true
	var group *OBJGroup

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(stripComment(scanner.Text()))
		if len(fields) == 0 {
			continue
		}
		ident, args := fields[0], fields[1:]

		switch ident {
		case "v":
			vals, err := parseFloats(args, 3)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, line, err)
			}
			obj.Positions = append(obj.Positions, [3]float32{vals[0], vals[1], vals[2]})
			if len(vals) >= 6 {
				obj.Colors = append(obj.Colors, [3]float32{vals[3], vals[4], vals[5]})
			} else {
				colored = false
			}
		case "vn":
			vals, err := parseFloats(args, 3)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, line, err)
			}
			obj.Normals = append(obj.Normals, [3]float32{vals[0], vals[1], vals[2]})
		case "vt":
			vals, err := parseFloats(args, 1)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, line, err)
			}
			uv := [2]float32{vals[0], 0}
			if len(vals) > 1 {
				uv[1] = vals[1]
			}
			obj.TexCoords = append(obj.TexCoords, uv)
		case "usemtl":
			name := strings.Join(args, " ")
			if group == nil || group.Material != name {
				obj.Groups = append(obj.Groups, OBJGroup{Material: name})
				group = &obj.Groups[len(obj.Groups)-1]
			}
		case "mtllib":
			obj.MaterialLibs = append(obj.MaterialLibs, strings.Join(args, " "))
		case "f":
			if len(args) < 3 {
				return nil, fmt.Errorf("%w: line %d: face with %d corners", ErrInvalidOBJ, line, len(args))
			}
			face := make([]OBJIndex, len(args))
			for i, a := range args {
				idx, err := obj.parseCorner(a)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, line, err)
				}
				face[i] = idx
			}
			if group == nil {
				obj.Groups = append(obj.Groups, OBJGroup{})
				group = &obj.Groups[len(obj.Groups)-1]
			}
			group.Faces = append(group.Faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	if !colored || len(obj.Colors) != len(obj.Positions) {
		obj.Colors = nil
	}
	return obj, nil
}

// parseCorner parses v, v/vt, v//vn or v/vt/vn.
func (obj *OBJ) parseCorner(s string) (OBJIndex, error) {
	parts := strings.Split(s, "/")
	idx := OBJIndex{Position: -1, TexCoord: -1, Normal: -1}

	var err error
	if idx.Position, err = resolveIndex(parts[0], len(obj.Positions)); err != nil || idx.Position < 0 {
		return idx, fmt.Errorf("position index %q: %v", parts[0], err)
	}
	if len(parts) > 1 && parts[1] != "" {
		if idx.TexCoord, err = resolveIndex(parts[1], len(obj.TexCoords)); err != nil {
			return idx, fmt.Errorf("texcoord index %q: %v", parts[1], err)
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if idx.Normal, err = resolveIndex(parts[2], len(obj.Normals)); err != nil {
			return idx, fmt.Errorf("normal index %q: %v", parts[2], err)
		}
	}
	return idx, nil
}

// resolveIndex converts a 1-based or negative relative index to 0-based.
func resolveIndex(s string, n int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return -1, err
	}
	switch {
	case v > 0:
		v--
	case v < 0:
		v += n
	default:
		return -1, errors.New("zero index")
	}
	if v < 0 || v >= n {
		return -1, errors.New("out of range")
	}
	return v, nil
}

func parseFloats(args []string, minCount int) ([]float32, error) {
	if len(args) < minCount {
		return nil, fmt.Errorf("expected %d values, got %d", minCount, len(args))
	}
	vals := make([]float32, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 32)
		if err != nil {
			return nil, err
		}
		vals[i] = float32(f)
	}
	return vals, nil
}

func stripComment(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		return s[:i]
	}
	return s
}

// MTLMaterial is one newmtl block of a material library.
type MTLMaterial struct {
	Name        string
	Diffuse     *[3]float32 // Kd
	Emissive    *[3]float32 // Ke
	Dissolve    float32     // d, or 1 - Tr
	DiffuseMap  string      // map_Kd
	EmissiveMap string      // map_Ke
	NormalMap   string      // map_bump, bump or norm
}

// ParseMTLFile parses a material library from disk.
func ParseMTLFile(path string) ([]MTLMaterial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening MTL file: %w", err)
	}
	defer f.Close()
	return ParseMTL(f)
}

// ParseMTL parses material library statements.
func ParseMTL(r io.Reader) ([]MTLMaterial, error) {
	var mats []MTLMaterial
	var cur *MTLMaterial

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(stripComment(scanner.Text()))
		if len(fields) == 0 {
			continue
		}
		ident, args := fields[0], fields[1:]

		if ident == "newmtl" {
			mats = append(mats, MTLMaterial{Name: strings.Join(args, " "), Dissolve: 1})
			cur = &mats[len(mats)-1]
			continue
		}
		if cur == nil {
			continue
		}

		switch ident {
		case "Kd", "Ke":
			vals, err := parseFloats(args, 3)
			if err != nil {
				return nil, fmt.Errorf("%w: mtl line %d: %v", ErrInvalidOBJ, line, err)
			}
			c := &[3]float32{vals[0], vals[1], vals[2]}
			if ident == "Kd" {
				cur.Diffuse = c
			} else {
				cur.Emissive = c
			}
		case "d", "Tr":
			vals, err := parseFloats(args, 1)
			if err != nil {
				return nil, fmt.Errorf("%w: mtl line %d: %v", ErrInvalidOBJ, line, err)
			}
			cur.Dissolve = vals[0]
			if ident == "Tr" {
				cur.Dissolve = 1 - vals[0]
			}
		case "map_Kd":
			cur.DiffuseMap = lastField(args)
		case "map_Ke":
			cur.EmissiveMap = lastField(args)
		case "map_bump", "map_Bump", "bump", "norm":
			cur.NormalMap = lastField(args)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading MTL: %w", err)
	}
	return mats, nil
}

// lastField skips map options such as "-bm 1" and returns the file name.
func lastField(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[len(args)-1]
}
