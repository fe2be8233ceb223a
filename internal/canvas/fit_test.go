package canvas

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ivlev/img2video/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) media.ImageAsset {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return media.ImageAsset{Name: "solid", Image: img}
}

func TestFitLetterboxesNarrowSource(t *testing.T) {
	spec := media.CanvasSpec{Width: 1280, Height: 720, FPS: 24}
	src := solid(400, 300, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	out, err := Fit(src, spec)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 1280, 720), out.Bounds())
	assert.Equal(t, image.Rect(160, 0, 1120, 720), Placement(400, 300, 1280, 720))

	// Bars on both sides, picture in the middle.
	assert.Equal(t, color.RGBA{A: 255}, out.At(0, 360))
	assert.Equal(t, color.RGBA{A: 255}, out.At(159, 360))
	assert.Equal(t, color.RGBA{A: 255}, out.At(1120, 360))
	assert.Equal(t, color.RGBA{R: 200, G: 100, B: 50, A: 255}, out.At(640, 360))
	assert.Equal(t, color.RGBA{R: 200, G: 100, B: 50, A: 255}, out.At(160, 0))
}

func TestFitMatchingAspectHasNoPadding(t *testing.T) {
	tests := []struct {
		w, h int
	}{
		{1920, 1080},
		{640, 360},
		{1280, 720},
	}
	for _, tt := range tests {
		r := Placement(tt.w, tt.h, 1280, 720)
		assert.Equal(t, image.Rect(0, 0, 1280, 720), r, "%dx%d", tt.w, tt.h)
	}
}

func TestPlacementPreservesAspect(t *testing.T) {
	canvases := [][2]int{{1280, 720}, {720, 1280}, {1080, 1350}, {640, 480}}
	sources := [][2]int{{400, 300}, {3000, 200}, {17, 911}, {1, 1}, {4000, 3000}, {333, 777}}

	for _, c := range canvases {
		for _, s := range sources {
			r := Placement(s[0], s[1], c[0], c[1])
			require.True(t, r.In(image.Rect(0, 0, c[0], c[1])), "placement %v outside canvas %v", r, c)

			// Width follows from height (or vice versa) within one pixel.
			want := float64(s[0]) / float64(s[1])
			gotW := float64(r.Dy()) * want
			gotH := float64(r.Dx()) / want
			ok := math.Abs(gotW-float64(r.Dx())) <= 1 || math.Abs(gotH-float64(r.Dy())) <= 1
			assert.True(t, ok, "source %v canvas %v placed %v", s, c, r)

			// Centred: margins differ by at most one pixel, extra on right/bottom.
			left, right := r.Min.X, c[0]-r.Max.X
			top, bottom := r.Min.Y, c[1]-r.Max.Y
			assert.Contains(t, []int{0, 1}, right-left)
			assert.Contains(t, []int{0, 1}, bottom-top)
		}
	}
}

func TestFitUpscalesSmallSource(t *testing.T) {
	r := Placement(64, 36, 1280, 720)
	assert.Equal(t, image.Rect(0, 0, 1280, 720), r)

	r = Placement(100, 100, 1280, 720)
	assert.Equal(t, image.Rect(280, 0, 1000, 720), r)
}

func TestFitRejectsInvalidInput(t *testing.T) {
	spec := media.CanvasSpec{Width: 1280, Height: 720, FPS: 24}

	_, err := Fit(media.ImageAsset{Name: "empty", Image: image.NewRGBA(image.Rect(0, 0, 0, 10))}, spec)
	assert.ErrorIs(t, err, media.ErrInvalidAsset)

	_, err = Fit(media.ImageAsset{Name: "nil"}, spec)
	assert.ErrorIs(t, err, media.ErrInvalidAsset)

	_, err = Fit(solid(10, 10, color.RGBA{A: 255}), media.CanvasSpec{Width: 1281, Height: 720, FPS: 24})
	assert.ErrorIs(t, err, media.ErrInvalidConfig)
}

func TestFitCompositesAlphaOverBlack(t *testing.T) {
	spec := media.CanvasSpec{Width: 4, Height: 4, FPS: 1}
	out, err := Fit(solid(4, 4, color.RGBA{}), spec)
	require.NoError(t, err)
	for _, v := range out.Pix {
		assert.Equal(t, uint8(0), v)
	}
}
