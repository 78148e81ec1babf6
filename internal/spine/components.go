package spine

import (
	"sort"
)

// Component is one connected region of a mask.
type Component struct {
	Size      int
	CentroidR float64 // mean row index (posterior to anterior)
	CentroidC float64 // mean column index (inferior to superior)
	pixels    []int
}

var neighbors4 = [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
var neighbors8 = [][2]int{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {-1, 1}, {1, -1}, {1, 1},
}

// ConnectedComponents labels the mask with 4 or 8 connectivity and
// returns the components sorted by pixel count, largest first.
func ConnectedComponents(m *Mask, connectivity int) []Component {
	offsets := neighbors4
	if connectivity == 8 {
		offsets = neighbors8
	}

	visited := make([]bool, m.Rows*m.Cols)
	var comps []Component
	queue := make([]int, 0, 64)

	for start, set := range m.pix {
		if !set || visited[start] {
			continue
		}
		comp := Component{}
		queue = append(queue[:0], start)
		visited[start] = true
		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			r, c := idx/m.Cols, idx%m.Cols
			comp.Size++
			comp.CentroidR += float64(r)
			comp.CentroidC += float64(c)
			comp.pixels = append(comp.pixels, idx)
			for _, d := range offsets {
				nr, nc := r+d[0], c+d[1]
				if nr < 0 || nr >= m.Rows || nc < 0 || nc >= m.Cols {
					continue
				}
				nidx := nr*m.Cols + nc
				if m.pix[nidx] && !visited[nidx] {
					visited[nidx] = true
					queue = append(queue, nidx)
				}
			}
		}
		comp.CentroidR /= float64(comp.Size)
		comp.CentroidC /= float64(comp.Size)
		comps = append(comps, comp)
	}

	sort.SliceStable(comps, func(i, j int) bool {
		return comps[i].Size > comps[j].Size
	})
	return comps
}

func maskFromComponents(rows, cols int, comps []Component) *Mask {
	out := NewMask(rows, cols)
	for _, comp := range comps {
		for _, idx := range comp.pixels {
			out.pix[idx] = true
		}
	}
	return out
}

// KeepTwoLargest retains the two largest connected components of the
// mask. The second return is false when fewer than two components exist,
// which flags a boundary anomaly on abdominal-only datasets.
func KeepTwoLargest(m *Mask, connectivity int) (*Mask, bool) {
	comps := ConnectedComponents(m, connectivity)
	if len(comps) > 2 {
		comps = comps[:2]
	}
	return maskFromComponents(m.Rows, m.Cols, comps), len(comps) >= 2
}

// RemovePosterior deletes the connected component whose centroid has the
// smallest row coordinate; that component is the posterior spinous
// process, leaving the vertebral body.
func RemovePosterior(m *Mask, connectivity int) *Mask {
	comps := ConnectedComponents(m, connectivity)
	if len(comps) < 2 {
		return m
	}
	posterior := 0
	for i := 1; i < len(comps); i++ {
		if comps[i].CentroidR < comps[posterior].CentroidR {
			posterior = i
		}
	}
	kept := make([]Component, 0, len(comps)-1)
	for i := range comps {
		if i != posterior {
			kept = append(kept, comps[i])
		}
	}
	return maskFromComponents(m.Rows, m.Cols, kept)
}

// CenterOfMass returns the mean of the component centroids of the mask,
// as (row, col). The second return is false for an empty mask.
func CenterOfMass(m *Mask, connectivity int) (r, c float64, ok bool) {
	comps := ConnectedComponents(m, connectivity)
	if len(comps) == 0 {
		return 0, 0, false
	}
	for _, comp := range comps {
		r += comp.CentroidR
		c += comp.CentroidC
	}
	n := float64(len(comps))
	return r / n, c / n, true
}
