package audio

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/window"
)

const (
	// zeroCrossings is the one-sided filter half-width in zero crossings of
	// the interpolation sinc.
	zeroCrossings = 16
	// oversample is the number of table entries per zero crossing.
	oversample = 256
)

var (
	filterOnce  sync.Once
	filterTable []float64
)

// sincTable returns the Hann-windowed sinc sampled at 1/oversample steps over
// [-zeroCrossings, zeroCrossings].
func sincTable() []float64 {
	filterOnce.Do(func() {
		n := 2*zeroCrossings*oversample + 1
		table := make([]float64, n)
		for i := range table {
			x := float64(i-zeroCrossings*oversample) / oversample
			table[i] = sinc(x)
		}
		filterTable = window.Hann(table)
	})
	return filterTable
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// InputLength is the number of source samples consumed to produce count
// samples at targetRate: floor(sourceRate*count/targetRate).
func InputLength(sourceRate, targetRate, count int) int {
	if sourceRate <= 0 || targetRate <= 0 || count <= 0 {
		return 0
	}
	return int(int64(sourceRate) * int64(count) / int64(targetRate))
}

// Resample truncates samples to InputLength, band-limits and resamples them
// from sourceRate to targetRate, and zero-pads the result to exactly
// targetCount values. It never truncates audio beyond the input window.
func Resample(samples []float32, sourceRate, targetRate, targetCount int) []float32 {
	out := make([]float32, max(targetCount, 0))
	if targetCount <= 0 || sourceRate <= 0 || targetRate <= 0 {
		return out
	}
	if limit := InputLength(sourceRate, targetRate, targetCount); len(samples) > limit {
		samples = samples[:limit]
	}
	if len(samples) == 0 {
		return out
	}
	if sourceRate == targetRate {
		copy(out, samples)
		return out
	}

	copy(out, resample(samples, sourceRate, targetRate))
	return out
}

// resample interpolates x at targetRate with a windowed-sinc kernel whose
// cutoff follows the lower of the two Nyquist frequencies. The output holds
// ceil(len(x)*targetRate/sourceRate) samples.
func resample(x []float32, sourceRate, targetRate int) []float32 {
	table := sincTable()
	outLen := int((int64(len(x))*int64(targetRate) + int64(sourceRate) - 1) / int64(sourceRate))
	out := make([]float32, outLen)
	ratio := float64(targetRate) / float64(sourceRate)

	cutoff := math.Min(1, ratio)
	// Half-width of the kernel measured in input samples.
	halfWidth := float64(zeroCrossings) / cutoff
	center := float64(zeroCrossings * oversample)

	for i := range out {
		t := float64(i) / ratio
		lo := max(int(math.Ceil(t-halfWidth)), 0)
		hi := min(int(math.Floor(t+halfWidth)), len(x)-1)
		var acc float64
		for j := lo; j <= hi; j++ {
			pos := (t-float64(j))*cutoff*oversample + center
			k := int(pos)
			if k < 0 || k >= len(table)-1 {
				continue
			}
			frac := pos - float64(k)
			w := table[k] + frac*(table[k+1]-table[k])
			acc += float64(x[j]) * w
		}
		out[i] = float32(acc * cutoff)
	}
	return out
}
