package bus

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// Standard speaker layouts.
const (
	Mono         = 1
	Stereo       = 2
	Quad         = 4
	FivePointOne = 6
)

// channel indices of the speaker layouts.
const (
	left          = 0
	right         = 1
	quadSurroundL = 2
	quadSurroundR = 3
	center        = 2
	surroundL     = 4
	surroundR     = 5
)

var sqrtHalf = float32(math.Sqrt(0.5))

// mix adds src to dst. The layout of dst is kept. Speakers layouts other
// than mono, stereo, quad and 5.1 are mixed discretely.
func mix(dst, src [][]float32, interpretation Interpretation, scratch []float32) {
	if len(dst) == len(src) || interpretation == Discrete || !speakers(len(dst), len(src)) {
		discrete(dst, src)
		return
	}
	if len(dst) > len(src) {
		upMix(dst, src)
	} else {
		downMix(dst, src, scratch)
	}
}

func speakers(nc ...int) bool {
	for _, n := range nc {
		switch n {
		case Mono, Stereo, Quad, FivePointOne:
		default:
			return false
		}
	}
	return true
}

// discrete sums channels by index. Channels missing in src are untouched,
// extra channels of src are dropped.
func discrete(dst, src [][]float32) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		vek32.Add_Inplace(dst[i], src[i])
	}
}

func upMix(dst, src [][]float32) {
	switch len(src) {
	case Mono:
		if len(dst) == FivePointOne {
			vek32.Add_Inplace(dst[center], src[0])
			return
		}
		vek32.Add_Inplace(dst[left], src[0])
		vek32.Add_Inplace(dst[right], src[0])
	case Stereo:
		vek32.Add_Inplace(dst[left], src[left])
		vek32.Add_Inplace(dst[right], src[right])
	case Quad:
		// only 5.1 is wider than quad.
		vek32.Add_Inplace(dst[left], src[left])
		vek32.Add_Inplace(dst[right], src[right])
		vek32.Add_Inplace(dst[surroundL], src[quadSurroundL])
		vek32.Add_Inplace(dst[surroundR], src[quadSurroundR])
	}
}

func downMix(dst, src [][]float32, scratch []float32) {
	switch len(dst) {
	case Mono:
		switch len(src) {
		case Stereo:
			addScaled(dst[0], src[left], 0.5, scratch)
			addScaled(dst[0], src[right], 0.5, scratch)
		case Quad:
			for i := range src {
				addScaled(dst[0], src[i], 0.25, scratch)
			}
		case FivePointOne:
			addScaled(dst[0], src[left], sqrtHalf, scratch)
			addScaled(dst[0], src[right], sqrtHalf, scratch)
			vek32.Add_Inplace(dst[0], src[center])
			addScaled(dst[0], src[surroundL], 0.5, scratch)
			addScaled(dst[0], src[surroundR], 0.5, scratch)
		}
	case Stereo:
		switch len(src) {
		case Quad:
			addScaled(dst[left], src[left], 0.5, scratch)
			addScaled(dst[left], src[quadSurroundL], 0.5, scratch)
			addScaled(dst[right], src[right], 0.5, scratch)
			addScaled(dst[right], src[quadSurroundR], 0.5, scratch)
		case FivePointOne:
			vek32.Add_Inplace(dst[left], src[left])
			addScaled(dst[left], src[center], sqrtHalf, scratch)
			addScaled(dst[left], src[surroundL], sqrtHalf, scratch)
			vek32.Add_Inplace(dst[right], src[right])
			addScaled(dst[right], src[center], sqrtHalf, scratch)
			addScaled(dst[right], src[surroundR], sqrtHalf, scratch)
		}
	case Quad:
		// only 5.1 is wider than quad, LFE is dropped.
		vek32.Add_Inplace(dst[left], src[left])
		addScaled(dst[left], src[center], sqrtHalf, scratch)
		vek32.Add_Inplace(dst[right], src[right])
		addScaled(dst[right], src[center], sqrtHalf, scratch)
		vek32.Add_Inplace(dst[quadSurroundL], src[surroundL])
		vek32.Add_Inplace(dst[quadSurroundR], src[surroundR])
	}
}

// addScaled does dst += src * gain.
func addScaled(dst, src []float32, gain float32, scratch []float32) {
	vek32.MulNumber_Into(scratch, src, gain)
	vek32.Add_Inplace(dst, scratch)
}
