package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"sort"

	domain "github.com/bryanwahyu/storelens/internal/domain/media"
)

const (
	// longest side of the sampling grid; larger images are strided
	sampleSide = 192

	dominantColorCount = 5
	emptyBlockSide     = 8
	emptyBlockStdDev   = 0.04

	edgeStrength = 0.10
	edgeCoverage = 0.45
)

// MaxImagePixels bounds the decoded size of one image (40 MP).
const MaxImagePixels = 40_000_000

var ErrImageTooLarge = errors.New("image dimensions exceed limit")

// DecodeImage decodes a jpeg, png or gif stream. The header is checked
// first so that a small file declaring huge dimensions is refused before
// any pixel buffer is allocated.
func DecodeImage(r io.Reader) (image.Image, error) {
	var head bytes.Buffer
	cfg, format, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("decode image: empty %s", format)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, fmt.Errorf("%w: %s %dx%d", ErrImageTooLarge, format, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decode image: empty %s", format)
	}
	return img, nil
}

// lumaGrid is a strided grayscale view of an image, values in [0,1].
type lumaGrid struct {
	w, h int
	v    []float64
}

func (g lumaGrid) at(x, y int) float64 { return g.v[y*g.w+x] }

// sampleLuma samples img on a grid of at most side x side points.
func sampleLuma(img image.Image, side int) lumaGrid {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	gw, gh := w, h
	if w > side || h > side {
		if w >= h {
			gw, gh = side, max(1, h*side/w)
		} else {
			gw, gh = max(1, w*side/h), side
		}
	}
	g := lumaGrid{w: gw, h: gh, v: make([]float64, gw*gh)}
	for y := 0; y < gh; y++ {
		sy := b.Min.Y + y*h/gh
		for x := 0; x < gw; x++ {
			sx := b.Min.X + x*w/gw
			g.v[y*gw+x] = luma(img.At(sx, sy).RGBA())
		}
	}
	return g
}

func luma(r, g, b, _ uint32) float64 {
	// Rec. 601 weights on 16-bit channels
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535
}

// AnalyzeImage extracts color, lighting, layout cues and empty space from one image.
func AnalyzeImage(img image.Image) domain.ImageFeatures {
	b := img.Bounds()
	g := sampleLuma(img, sampleSide)

	sum := 0.0
	for _, v := range g.v {
		sum += v
	}
	brightness := sum / float64(len(g.v))

	return domain.ImageFeatures{
		Width:           b.Dx(),
		Height:          b.Dy(),
		DominantColors:  dominantColors(img, dominantColorCount),
		Brightness:      round3(brightness),
		Lighting:        lightingOf(brightness),
		ShelfLines:      horizontalLines(g),
		AisleBoundaries: verticalLines(g),
		EmptySpaceRatio: round3(emptyRatio(g)),
	}
}

func lightingOf(brightness float64) string {
	switch {
	case brightness < 0.35:
		return "dark"
	case brightness > 0.75:
		return "bright"
	}
	return "balanced"
}

// dominantColors quantizes every channel to four levels and returns the n most
// frequent bins. Ties are broken by hex so the result is stable.
func dominantColors(img image.Image, n int) []domain.ColorShare {
	b := img.Bounds()
	stepX := max(1, b.Dx()/sampleSide)
	stepY := max(1, b.Dy()/sampleSide)

	counts := map[uint32]int{}
	total := 0
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			r, g, bl, _ := img.At(x, y).RGBA()
			key := (r>>14)<<4 | (g>>14)<<2 | bl>>14
			counts[key]++
			total++
		}
	}

	out := make([]domain.ColorShare, 0, len(counts))
	for key, c := range counts {
		out = append(out, domain.ColorShare{
			Hex:   binHex(key),
			Share: round3(float64(c) / float64(total)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Share != out[j].Share {
			return out[i].Share > out[j].Share
		}
		return out[i].Hex < out[j].Hex
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// binHex renders the center of a quantization bin.
func binHex(key uint32) string {
	center := func(level uint32) uint32 { return level*64 + 32 }
	return fmt.Sprintf("#%02x%02x%02x", center(key>>4&3), center(key>>2&3), center(key&3))
}

// horizontalLines counts runs of rows where a strong vertical gradient spans
// most of the width, which is how shelf edges show up in a frontal photo.
func horizontalLines(g lumaGrid) int {
	lines, inLine := 0, false
	for y := 1; y < g.h; y++ {
		strong := 0
		for x := 0; x < g.w; x++ {
			if math.Abs(g.at(x, y)-g.at(x, y-1)) > edgeStrength {
				strong++
			}
		}
		edge := float64(strong)/float64(g.w) > edgeCoverage
		if edge && !inLine {
			lines++
		}
		inLine = edge
	}
	return lines
}

// verticalLines counts column runs with a strong horizontal gradient; these
// mark aisle boundaries and shelf ends.
func verticalLines(g lumaGrid) int {
	lines, inLine := 0, false
	for x := 1; x < g.w; x++ {
		strong := 0
		for y := 0; y < g.h; y++ {
			if math.Abs(g.at(x, y)-g.at(x-1, y)) > edgeStrength {
				strong++
			}
		}
		edge := float64(strong)/float64(g.h) > edgeCoverage
		if edge && !inLine {
			lines++
		}
		inLine = edge
	}
	return lines
}

// emptyRatio is the share of blocks with almost no texture (bare floor, wall, ceiling).
func emptyRatio(g lumaGrid) float64 {
	blocks, empty := 0, 0
	for by := 0; by+emptyBlockSide <= g.h; by += emptyBlockSide {
		for bx := 0; bx+emptyBlockSide <= g.w; bx += emptyBlockSide {
			var sum, sq float64
			for y := by; y < by+emptyBlockSide; y++ {
				for x := bx; x < bx+emptyBlockSide; x++ {
					v := g.at(x, y)
					sum += v
					sq += v * v
				}
			}
			n := float64(emptyBlockSide * emptyBlockSide)
			mean := sum / n
			if math.Sqrt(math.Max(0, sq/n-mean*mean)) < emptyBlockStdDev {
				empty++
			}
			blocks++
		}
	}
	if blocks == 0 {
		return 0
	}
	return float64(empty) / float64(blocks)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
