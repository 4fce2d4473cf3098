package mesh

import (
	"fmt"

	"github.com/Faultbox/meshbake/internal/hierarchy"
	"github.com/Faultbox/meshbake/internal/scene"
	"github.com/Faultbox/meshbake/pkg/math"
)

// remapBones builds the mesh-local bone table in first-sight order over
// non-zero influences, rewrites every vertex against it and renormalizes
// the weights. It returns a nil table when no vertex is influenced.
func remapBones(joints [][scene.MaxInfluences]int, weights [][scene.MaxInfluences]float32) (
	[]int, [][scene.MaxInfluences]uint16, [][scene.MaxInfluences]float32,
) {
	local := make(map[int]uint16)
	var order []int
	for i := range joints {
		for k := 0; k < scene.MaxInfluences; k++ {
			if weights[i][k] <= 0 {
				continue
			}
			j := joints[i][k]
			if _, ok := local[j]; !ok {
				local[j] = uint16(len(order))
				order = append(order, j)
			}
		}
	}
	if len(order) == 0 {
		return nil, nil, nil
	}

	indices := make([][scene.MaxInfluences]uint16, len(joints))
	out := make([][scene.MaxInfluences]float32, len(joints))
	for i := range joints {
		var sum float32
		slot := 0
		for k := 0; k < scene.MaxInfluences; k++ {
			w := weights[i][k]
			if w <= 0 {
				continue
			}
			indices[i][slot] = local[joints[i][k]]
			out[i][slot] = w
			sum += w
			slot++
		}
		if sum == 0 {
			out[i][0] = 1
			continue
		}
		for k := 0; k < slot; k++ {
			out[i][k] /= sum
		}
	}
	return order, indices, out
}

// resolveBones maps local bones back to final node indices and inverse
// bind matrices.
func resolveBones(order []int, skin *scene.Skin, h *hierarchy.Hierarchy) ([]Bone, error) {
	bones := make([]Bone, len(order))
	for i, j := range order {
		if j < 0 || j >= len(skin.Joints) {
			return nil, fmt.Errorf("%w: joint %d outside skin of %d joints", ErrInvalidPrimitive, j, len(skin.Joints))
		}
		node, ok := h.Index(skin.Joints[j])
		if !ok {
			return nil, fmt.Errorf("%w: joint %d references node %d outside the hierarchy", ErrInvalidPrimitive, j, skin.Joints[j])
		}
		bones[i] = Bone{Joint: j, Node: node, InverseBind: math.Identity()}
		if j < len(skin.InverseBindMatrices) {
			bones[i].InverseBind = skin.InverseBindMatrices[j]
		}
	}
	return bones, nil
}
