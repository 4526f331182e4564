package imageops

import (
	"fmt"
	"image"
	"image/draw"
	"strings"
)

// Transform is a lossless orientation change: an optional horizontal flip
// followed by a number of clockwise quarter turns. The eight values form a
// group, so transforms compose and always have an inverse.
type Transform struct {
	flip bool
	turn int
}

// Named transforms.
var (
	Identity       = Transform{}
	Rotate90       = Transform{turn: 1}
	Rotate180      = Transform{turn: 2}
	Rotate270      = Transform{turn: 3}
	FlipHorizontal = Transform{flip: true}
	FlipVertical   = Transform{flip: true, turn: 2}
)

var transformNames = map[string]Transform{
	"identity": Identity,
	"rot90":    Rotate90,
	"rot180":   Rotate180,
	"rot270":   Rotate270,
	"fliph":    FlipHorizontal,
	"flipv":    FlipVertical,
}

// ParseTransform looks up a transform by name (rot90, rot180, rot270, fliph,
// flipv, identity).
func ParseTransform(name string) (Transform, error) {
	t, ok := transformNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Identity, fmt.Errorf("unknown transform %q", name)
	}
	return t, nil
}

func (t Transform) String() string {
	for name, v := range transformNames {
		if v == t {
			return name
		}
	}
	// flip then 90 or 270 is a transpose; no short name
	return fmt.Sprintf("flip+rot%d", t.turn*90)
}

// IsIdentity reports whether t leaves images unchanged.
func (t Transform) IsIdentity() bool {
	return t == Identity
}

// Compose returns the transform equivalent to applying t and then next.
func (t Transform) Compose(next Transform) Transform {
	if next.flip {
		// a flip mirrors the direction of the earlier turns
		return Transform{flip: !t.flip, turn: mod4(next.turn - t.turn)}
	}
	return Transform{flip: t.flip, turn: mod4(next.turn + t.turn)}
}

// Reverse returns the inverse of t.
func (t Transform) Reverse() Transform {
	if t.flip {
		return t
	}
	return Transform{turn: mod4(-t.turn)}
}

// Apply returns a transformed copy of src. src is not modified.
func (t Transform) Apply(src image.Image) image.Image {
	out := toNRGBA(src)
	if t.flip {
		out = flipH(out)
	}
	for i := 0; i < t.turn; i++ {
		out = rotate90(out)
	}
	return out
}

func mod4(n int) int {
	return ((n % 4) + 4) % 4
}

func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func flipH(src *image.NRGBA) *image.NRGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetNRGBA(w-1-x, y, src.NRGBAAt(x, y))
		}
	}
	return dst
}

// rotate90 turns src a quarter clockwise.
func rotate90(src *image.NRGBA) *image.NRGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetNRGBA(h-1-y, x, src.NRGBAAt(x, y))
		}
	}
	return dst
}
