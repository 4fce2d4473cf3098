package mesh

import gomath "math"

// generateNormals accumulates area-weighted face normals per vertex.
// Smooth mode merges the sums of vertices at identical positions.
func generateNormals(positions [][3]float32, tris []uint32, smooth bool) [][3]float32 {
	sums := make([][3]float64, len(positions))
	for i := 0; i+2 < len(tris); i += 3 {
		a, b, c := tris[i], tris[i+1], tris[i+2]
		n := faceNormal(positions[a], positions[b], positions[c])
		for _, v := range [3]uint32{a, b, c} {
			sums[v][0] += n[0]
			sums[v][1] += n[1]
			sums[v][2] += n[2]
		}
	}

	if smooth {
		groups := make(map[[3]float32][]int)
		for i, p := range positions {
			groups[p] = append(groups[p], i)
		}
		for _, members := range groups {
			if len(members) < 2 {
				continue
			}
			var total [3]float64
			for _, v := range members {
				total[0] += sums[v][0]
				total[1] += sums[v][1]
				total[2] += sums[v][2]
			}
			for _, v := range members {
				sums[v] = total
			}
		}
	}

	normals := make([][3]float32, len(positions))
	for i, s := range sums {
		normals[i] = unit(s)
	}
	return normals
}

// faceNormal returns the unnormalized cross product, whose length is twice
// the triangle area.
func faceNormal(a, b, c [3]float32) [3]float64 {
	e1 := [3]float64{float64(b[0] - a[0]), float64(b[1] - a[1]), float64(b[2] - a[2])}
	e2 := [3]float64{float64(c[0] - a[0]), float64(c[1] - a[1]), float64(c[2] - a[2])}
	return [3]float64{
		e1[1]*e2[2] - e1[2]*e2[1],
		e1[2]*e2[0] - e1[0]*e2[2],
		e1[0]*e2[1] - e1[1]*e2[0],
	}
}

func unit(v [3]float64) [3]float32 {
	l := gomath.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if l == 0 || gomath.IsNaN(l) || gomath.IsInf(l, 0) {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{float32(v[0] / l), float32(v[1] / l), float32(v[2] / l)}
}

// bitangents derives w * cross(n, t) per vertex.
func bitangents(normals [][3]float32, tangents [][4]float32) [][3]float32 {
	out := make([][3]float32, len(tangents))
	for i, t := range tangents {
		n := normals[i]
		w := t[3]
		if w == 0 {
			w = 1
		}
		out[i] = [3]float32{
			w * (n[1]*t[2] - n[2]*t[1]),
			w * (n[2]*t[0] - n[0]*t[2]),
			w * (n[0]*t[1] - n[1]*t[0]),
		}
	}
	return out
}
