package canvas

const blendOne = 1 << 16

// Blend writes out*(1-w) + in*w into dst. All three frames must have the
// same size; dst may alias either input.
func Blend(dst, out, in *RGB, w float64) {
	wi := uint32(w*blendOne + 0.5)
	if wi > blendOne {
		wi = blendOne
	}
	inv := blendOne - wi
	for i := range dst.Pix {
		a := uint32(out.Pix[i])
		b := uint32(in.Pix[i])
		dst.Pix[i] = uint8((a*inv + b*wi + blendOne/2) >> 16)
	}
}
