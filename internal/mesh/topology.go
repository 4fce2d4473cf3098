package mesh

import (
	"fmt"

	"github.com/Faultbox/meshbake/internal/scene"
)

// expand converts a source index list into a runtime topology. Trailing
// indices that do not form a whole primitive are reported in dropped.
func expand(t scene.Topology, idx []uint32) (out []uint32, topo Topology, dropped int, err error) {
	switch t {
	case scene.TopologyTriangles:
		n := len(idx) - len(idx)%3
		return idx[:n], TopologyTriangles, len(idx) - n, nil

	case scene.TopologyTriangleStrip:
		if len(idx) < 3 {
			return nil, TopologyTriangles, len(idx), nil
		}
		out = make([]uint32, 0, (len(idx)-2)*3)
		for k := 0; k+2 < len(idx); k++ {
			if k%2 == 0 {
				out = append(out, idx[k], idx[k+1], idx[k+2])
			} else {
				out = append(out, idx[k], idx[k+2], idx[k+1])
			}
		}
		return out, TopologyTriangles, 0, nil

	case scene.TopologyTriangleFan:
		if len(idx) < 3 {
			return nil, TopologyTriangles, len(idx), nil
		}
		out = make([]uint32, 0, (len(idx)-2)*3)
		for k := 1; k+1 < len(idx); k++ {
			out = append(out, idx[0], idx[k], idx[k+1])
		}
		return out, TopologyTriangles, 0, nil

	case scene.TopologyLines:
		n := len(idx) - len(idx)%2
		return idx[:n], TopologyLines, len(idx) - n, nil

	case scene.TopologyLineStrip:
		return idx, TopologyLineStrip, 0, nil

	case scene.TopologyPoints:
		return idx, TopologyPoints, 0, nil

	default:
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnsupportedTopology, t)
	}
}

// flipWinding swaps the second and third index of every triangle.
func flipWinding(idx []uint32) {
	for i := 0; i+2 < len(idx); i += 3 {
		idx[i+1], idx[i+2] = idx[i+2], idx[i+1]
	}
}

func sequential(n int) []uint32 {
	idx := make([]uint32, n)
	for i := range idx {
		idx[i] = uint32(i)
	}
	return idx
}
