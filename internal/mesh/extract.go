package mesh

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshbake/internal/hierarchy"
	"github.com/Faultbox/meshbake/internal/scene"
)

// Extract converts one source primitive. Invalid optional channels are
// dropped with a warning; a nil logger discards warnings.
func Extract(p *scene.Primitive, h *hierarchy.Hierarchy, opts Options, log *zap.Logger) (*Mesh, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("primitive", p.Name))

	n := len(p.Positions)
	if n == 0 {
		return nil, fmt.Errorf("%w: no positions", ErrInvalidPrimitive)
	}

	src := p.Indices
	if src == nil {
		src = sequential(n)
	}
	for _, i := range src {
		if int(i) >= n {
			return nil, fmt.Errorf("%w: index %d out of range for %d vertices", ErrInvalidPrimitive, i, n)
		}
	}

	idx, topo, dropped, err := expand(p.Topology, src)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		log.Warn("Dropped incomplete primitive",
			zap.Stringer("topology", p.Topology),
			zap.Int("indices", dropped))
	}
	// Expansion may return a view of the source slice.
	idx = append([]uint32(nil), idx...)

	m := &Mesh{
		Name:      p.Name,
		Material:  p.Material,
		Topology:  topo,
		Positions: p.Positions,
		Indices:   idx,
	}

	m.Normals = channel(log, "normals", p.Normals, n)
	if topo == TopologyTriangles && (opts.RegenerateNormals || m.Normals == nil) {
		m.Normals = generateNormals(p.Positions, idx, opts.SmoothNormals)
	}

	if tangents := channel(log, "tangents", p.Tangents, n); tangents != nil {
		m.Tangents = make([][3]float32, n)
		for i, t := range tangents {
			m.Tangents[i] = [3]float32{t[0], t[1], t[2]}
		}
		m.Bitangents = channel(log, "bitangents", p.Bitangents, n)
		if m.Bitangents == nil && m.Normals != nil {
			m.Bitangents = bitangents(m.Normals, tangents)
		}
	}

	for ch := range p.UVs {
		uvs := channel(log, fmt.Sprintf("uv%d", ch), p.UVs[ch], n)
		if uvs != nil && opts.FlipUVs {
			flipped := make([][2]float32, n)
			for i, uv := range uvs {
				flipped[i] = [2]float32{uv[0], 1 - uv[1]}
			}
			uvs = flipped
		}
		m.UVs[ch] = uvs
	}
	for ch := range p.Colors {
		m.Colors[ch] = channel(log, fmt.Sprintf("color%d", ch), p.Colors[ch], n)
	}

	if err := m.skin(p, h, log); err != nil {
		return nil, err
	}

	if opts.FlipWinding && topo == TopologyTriangles {
		flipWinding(m.Indices)
	}
	m.Bounds = bounds(p.Positions)
	return m, nil
}

func (m *Mesh) skin(p *scene.Primitive, h *hierarchy.Hierarchy, log *zap.Logger) error {
	if p.Skin == nil || p.Joints == nil {
		return nil
	}
	n := len(p.Positions)
	if len(p.Joints) != n || len(p.Weights) != n {
		log.Warn("Dropped skinning with mismatched length",
			zap.Int("joints", len(p.Joints)),
			zap.Int("weights", len(p.Weights)),
			zap.Int("vertices", n))
		return nil
	}

	order, indices, weights := remapBones(p.Joints, p.Weights)
	if order == nil {
		return nil
	}
	bones, err := resolveBones(order, p.Skin, h)
	if err != nil {
		return err
	}
	m.Type = TypeSkinned
	m.Bones = bones
	m.BoneIndices = indices
	m.BoneWeights = weights
	return nil
}

// channel returns c when it matches the vertex count. Any other non-empty
// length is dropped with a warning.
func channel[T any](log *zap.Logger, name string, c []T, n int) []T {
	if len(c) == 0 {
		return nil
	}
	if len(c) != n {
		log.Warn("Dropped vertex channel with mismatched length",
			zap.String("channel", name),
			zap.Int("length", len(c)),
			zap.Int("vertices", n))
		return nil
	}
	return c
}

func bounds(positions [][3]float32) Bounds {
	lo, hi := positions[0], positions[0]
	for _, p := range positions[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], p[k])
			hi[k] = max(hi[k], p[k])
		}
	}
	var b Bounds
	for k := 0; k < 3; k++ {
		b.Center[k] = (lo[k] + hi[k]) / 2
		b.Extents[k] = hi[k] - lo[k]
	}
	return b
}
