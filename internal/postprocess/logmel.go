package postprocess

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"tali/internal/failures"
	"tali/internal/modality"
	"tali/internal/tensor"
	"tali/internal/transform"
)

// Whisper feature extractor constants.
const (
	MelFFTSize     = 400
	MelHopLength   = 160
	MelBins        = 80
	MelWindowSecs  = 30
	melFloor       = 1e-10
	melDynamicBels = 8.0
)

// LogMel converts mono audio into Whisper-style log-mel features of shape
// [MelBins, frames] over a zero-padded 30 second window.
type LogMel struct {
	sampleRate int
	samples    int
	frames     int
	window     []float64
	filters    [][]float64
}

// NewLogMel precomputes the analysis window and the mel filterbank.
func NewLogMel(sampleRate int) (*LogMel, error) {
	if sampleRate <= 0 {
		return nil, failures.Wrap(failures.ErrConfiguration, component, "log-mel", fmt.Sprintf("invalid sample rate %d", sampleRate), nil)
	}
	// Periodic Hann: a symmetric window one sample longer, truncated.
	hann := make([]float64, MelFFTSize+1)
	for i := range hann {
		hann[i] = 1
	}
	hann = window.Hann(hann)[:MelFFTSize]

	samples := MelWindowSecs * sampleRate
	return &LogMel{
		sampleRate: sampleRate,
		samples:    samples,
		frames:     samples / MelHopLength,
		window:     hann,
		filters:    MelFilterbank(sampleRate, MelFFTSize, MelBins),
	}, nil
}

func (*LogMel) Family() modality.Family { return modality.FamilyAudio }

// Frames is the number of feature columns produced.
func (l *LogMel) Frames() int { return l.frames }

func (l *LogMel) Process(v transform.Value) (transform.Value, error) {
	if v.Tensor == nil || v.Tensor.DType() != tensor.Float32 {
		return transform.Value{}, failures.Wrap(failures.ErrConfiguration, component, "log-mel", "expected a float32 tensor", nil)
	}
	features := l.Compute(v.Tensor.Float32s())
	out, err := tensor.FromFloat32(features, MelBins, l.frames)
	if err != nil {
		return transform.Value{}, err
	}
	return transform.Value{Tensor: out}, nil
}

// Compute returns row-major [MelBins, Frames()] features for audio.
func (l *LogMel) Compute(audio []float32) []float32 {
	padded := make([]float64, l.samples+MelFFTSize)
	half := MelFFTSize / 2
	signal := padded[half : half+l.samples]
	for i := 0; i < len(signal) && i < len(audio); i++ {
		signal[i] = float64(audio[i])
	}
	reflectPad(padded, half, l.samples)

	bins := MelFFTSize/2 + 1
	fft := fourier.NewFFT(MelFFTSize)
	frame := make([]float64, MelFFTSize)
	coeffs := make([]complex128, bins)
	power := make([]float64, bins)
	mel := make([]float64, MelBins*l.frames)
	peak := math.Inf(-1)

	for f := 0; f < l.frames; f++ {
		start := f * MelHopLength
		for i := range frame {
			frame[i] = padded[start+i] * l.window[i]
		}
		coeffs = fft.Coefficients(coeffs, frame)
		for k, c := range coeffs {
			power[k] = real(c)*real(c) + imag(c)*imag(c)
		}
		for m, filter := range l.filters {
			var energy float64
			for k, w := range filter {
				energy += w * power[k]
			}
			value := math.Log10(math.Max(energy, melFloor))
			mel[m*l.frames+f] = value
			peak = math.Max(peak, value)
		}
	}

	out := make([]float32, len(mel))
	floor := peak - melDynamicBels
	for i, value := range mel {
		out[i] = float32((math.Max(value, floor) + 4) / 4)
	}
	return out
}

// reflectPad mirrors the signal of length n stored at buf[half:half+n] into
// the half-window margins on both sides.
func reflectPad(buf []float64, half, n int) {
	for i := 1; i <= half; i++ {
		src := min(i, n-1)
		buf[half-i] = buf[half+src]
		buf[half+n-1+i] = buf[half+n-1-src]
	}
}

// MelFilterbank builds Slaney-normalized triangular filters on the Slaney mel
// scale from 0 Hz to Nyquist, shaped [bins][nFFT/2+1].
func MelFilterbank(sampleRate, nFFT, bins int) [][]float64 {
	nFreqs := nFFT/2 + 1
	nyquist := float64(sampleRate) / 2
	fftFreqs := make([]float64, nFreqs)
	for i := range fftFreqs {
		fftFreqs[i] = nyquist * float64(i) / float64(nFreqs-1)
	}

	minMel, maxMel := hzToMel(0), hzToMel(nyquist)
	melFreqs := make([]float64, bins+2)
	for i := range melFreqs {
		melFreqs[i] = melToHz(minMel + (maxMel-minMel)*float64(i)/float64(bins+1))
	}

	filters := make([][]float64, bins)
	for m := range filters {
		lower, center, upper := melFreqs[m], melFreqs[m+1], melFreqs[m+2]
		enorm := 2 / (upper - lower)
		row := make([]float64, nFreqs)
		for k, f := range fftFreqs {
			rising := (f - lower) / (center - lower)
			falling := (upper - f) / (upper - center)
			row[k] = math.Max(0, math.Min(rising, falling)) * enorm
		}
		filters[m] = row
	}
	return filters
}

const (
	melLinearStep = 200.0 / 3
	melLogStartHz = 1000.0
	melLogStart   = melLogStartHz / melLinearStep
)

var melLogStep = math.Log(6.4) / 27

func hzToMel(hz float64) float64 {
	if hz < melLogStartHz {
		return hz / melLinearStep
	}
	return melLogStart + math.Log(hz/melLogStartHz)/melLogStep
}

func melToHz(mel float64) float64 {
	if mel < melLogStart {
		return mel * melLinearStep
	}
	return melLogStartHz * math.Exp(melLogStep*(mel-melLogStart))
}
