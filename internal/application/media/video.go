package media

import (
	"errors"
	"image"
	"math"
	"time"

	domain "github.com/bryanwahyu/storelens/internal/domain/media"
)

const (
	// per grid cell, the motion mask is motionCellSide x motionCellSide samples
	motionCellSide = 8
	motionDelta    = 0.12
	// a cell counts as occupied when this share of its samples moved
	occupiedShare = 0.05
	minBlobSize   = 4
)

var ErrTooFewFrames = errors.New("video has fewer than two usable frames")

// checkpoint positions expressed as fractions of the grid
var checkpoints = []struct {
	name     string
	row, col float64
}{
	{"entrance", 1, 0.5},
	{"checkout", 1, 0},
	{"center", 0.5, 0.5},
	{"back_wall", 0, 0.5},
}

// AnalyzeFrames builds a traffic heatmap, checkpoint dwell times and a
// customer estimate from consecutive sampled frames.
func AnalyzeFrames(frames []image.Image, interval time.Duration, rows, cols int) (domain.VideoFeatures, error) {
	if len(frames) < 2 {
		return domain.VideoFeatures{}, ErrTooFewFrames
	}
	if rows <= 0 || cols <= 0 {
		rows, cols = 4, 4
	}
	gw, gh := cols*motionCellSide, rows*motionCellSide

	grids := make([]lumaGrid, len(frames))
	for i, f := range frames {
		grids[i] = resample(f, gw, gh)
	}

	heat := make([][]float64, rows)
	for r := range heat {
		heat[r] = make([]float64, cols)
	}
	// occupied[pair][cell]
	occupied := make([][]bool, len(frames)-1)
	blobCounts := make([]int, len(frames)-1)

	for i := 1; i < len(grids); i++ {
		mask := make([]bool, gw*gh)
		cellMoves := make([]int, rows*cols)
		prev, cur := grids[i-1], grids[i]
		for y := 0; y < gh; y++ {
			for x := 0; x < gw; x++ {
				if math.Abs(cur.at(x, y)-prev.at(x, y)) > motionDelta {
					mask[y*gw+x] = true
					cellMoves[(y/motionCellSide)*cols+x/motionCellSide]++
				}
			}
		}
		occ := make([]bool, rows*cols)
		per := float64(motionCellSide * motionCellSide)
		for c, n := range cellMoves {
			share := float64(n) / per
			heat[c/cols][c%cols] += share
			occ[c] = share >= occupiedShare
		}
		occupied[i-1] = occ
		blobCounts[i-1] = countBlobs(mask, gw, gh)
	}

	peak := 0.0
	for _, row := range heat {
		for _, v := range row {
			peak = math.Max(peak, v)
		}
	}
	for _, row := range heat {
		for c := range row {
			if peak > 0 {
				row[c] = round3(row[c] / peak)
			}
		}
	}

	step := interval.Seconds()
	cps := make([]domain.CheckpointDwell, 0, len(checkpoints))
	for _, cp := range checkpoints {
		r := int(math.Round(cp.row * float64(rows-1)))
		c := int(math.Round(cp.col * float64(cols-1)))
		cps = append(cps, domain.CheckpointDwell{
			Name:         cp.name,
			Row:          r,
			Col:          c,
			DwellSeconds: round3(meanRun(occupied, r*cols+c) * step),
		})
	}

	return domain.VideoFeatures{
		FramesSampled:    len(frames),
		DurationSeconds:  round3(float64(len(frames)-1) * step),
		Rows:             rows,
		Cols:             cols,
		Heatmap:          heat,
		Checkpoints:      cps,
		CustomerEstimate: arrivals(blobCounts),
	}, nil
}

// resample maps an image of any size onto a w x h luma grid.
func resample(img image.Image, w, h int) lumaGrid {
	b := img.Bounds()
	g := lumaGrid{w: w, h: h, v: make([]float64, w*h)}
	for y := 0; y < h; y++ {
		sy := b.Min.Y + y*b.Dy()/h
		for x := 0; x < w; x++ {
			sx := b.Min.X + x*b.Dx()/w
			g.v[y*w+x] = luma(img.At(sx, sy).RGBA())
		}
	}
	return g
}

// meanRun is the average length of consecutive occupied pairs for one cell.
func meanRun(occupied [][]bool, cell int) float64 {
	runs, total, cur := 0, 0, 0
	for _, occ := range occupied {
		if occ[cell] {
			cur++
			continue
		}
		if cur > 0 {
			runs++
			total += cur
			cur = 0
		}
	}
	if cur > 0 {
		runs++
		total += cur
	}
	if runs == 0 {
		return 0
	}
	return float64(total) / float64(runs)
}

// countBlobs counts 4-connected regions of moving samples large enough to be a person.
func countBlobs(mask []bool, w, h int) int {
	seen := make([]bool, len(mask))
	stack := make([]int, 0, 64)
	blobs := 0
	for start := range mask {
		if !mask[start] || seen[start] {
			continue
		}
		size := 0
		stack = append(stack[:0], start)
		seen[start] = true
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++
			x, y := p%w, p/w
			for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				if n[0] < 0 || n[0] >= w || n[1] < 0 || n[1] >= h {
					continue
				}
				q := n[1]*w + n[0]
				if mask[q] && !seen[q] {
					seen[q] = true
					stack = append(stack, q)
				}
			}
		}
		if size >= minBlobSize {
			blobs++
		}
	}
	return blobs
}

// arrivals estimates distinct customers as the initial blob count plus every
// increase between consecutive frame pairs.
func arrivals(counts []int) int {
	if len(counts) == 0 {
		return 0
	}
	total := counts[0]
	for i := 1; i < len(counts); i++ {
		if d := counts[i] - counts[i-1]; d > 0 {
			total += d
		}
	}
	return total
}
