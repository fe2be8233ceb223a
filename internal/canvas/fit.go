package canvas

import (
	"image"
	"image/color"
	"math"

	"github.com/ivlev/img2video/internal/media"
	"golang.org/x/image/draw"
)

// Fit scales img into a canvas of the given spec without distortion and
// centres it on black. Sources smaller than the canvas in both dimensions
// are upscaled.
func Fit(img media.ImageAsset, spec media.CanvasSpec) (*RGB, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return Place(img.Image, spec.Width, spec.Height), nil
}

// Placement returns where a w x h source lands inside a canvasW x canvasH
// canvas. The axis that limits the scale fills the canvas exactly; the
// leftover pixel of an odd margin goes to the right/bottom edge.
func Placement(w, h, canvasW, canvasH int) image.Rectangle {
	sx := float64(canvasW) / float64(w)
	sy := float64(canvasH) / float64(h)

	var sw, sh int
	if sx <= sy {
		sw = canvasW
		sh = int(math.Round(float64(h) * sx))
	} else {
		sh = canvasH
		sw = int(math.Round(float64(w) * sy))
	}
	sw = clamp(sw, 1, canvasW)
	sh = clamp(sh, 1, canvasH)

	x := (canvasW - sw) / 2
	y := (canvasH - sh) / 2
	return image.Rect(x, y, x+sw, y+sh)
}

// Place is Fit without validation. Callers must have checked that src has
// pixels and the canvas is non-empty.
func Place(src image.Image, canvasW, canvasH int) *RGB {
	sb := src.Bounds()
	dr := Placement(sb.Dx(), sb.Dy(), canvasW, canvasH)

	// Transparent sources are composited over black.
	scaled := image.NewRGBA(image.Rect(0, 0, dr.Dx(), dr.Dy()))
	draw.Draw(scaled, scaled.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	if sb.Dx() == dr.Dx() && sb.Dy() == dr.Dy() {
		draw.Draw(scaled, scaled.Bounds(), src, sb.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, sb, draw.Over, nil)
	}

	out := NewRGB(image.Rect(0, 0, canvasW, canvasH))
	for y := 0; y < dr.Dy(); y++ {
		si := y * scaled.Stride
		di := out.PixOffset(dr.Min.X, dr.Min.Y+y)
		for x := 0; x < dr.Dx(); x++ {
			out.Pix[di] = scaled.Pix[si]
			out.Pix[di+1] = scaled.Pix[si+1]
			out.Pix[di+2] = scaled.Pix[si+2]
			si += 4
			di += 3
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
