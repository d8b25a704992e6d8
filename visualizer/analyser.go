package visualizer

import (
	"encoding/binary"
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	FFTSize           = 256
	FrequencyBinCount = FFTSize / 2

	MinDecibels           = -100.0
	MaxDecibels           = -30.0
	SmoothingTimeConstant = 0.8
)

// Analyser keeps the most recent FFTSize samples of a stream and turns them
// into byte frequency data: Blackman window, real FFT, exponential smoothing
// over time and a dB scale mapped onto 0..255.
type Analyser struct {
	mu     sync.Mutex
	ring   [FFTSize]float64
	pos    int
	filled int

	fft    *fourier.FFT
	window [FFTSize]float64
	prev   [FrequencyBinCount]float64
	coeffs []complex128
	frame  []float64
}

func NewAnalyser() *Analyser {
	a := &Analyser{
		fft:    fourier.NewFFT(FFTSize),
		coeffs: make([]complex128, FFTSize/2+1),
		frame:  make([]float64, FFTSize),
	}
	for n := range a.window {
		x := 2 * math.Pi * float64(n) / FFTSize
		a.window[n] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
	}
	return a
}

// Write consumes 16-bit little-endian mono PCM. Its signature matches
// audio.DataCallback so it can subscribe to a media session directly.
func (a *Analyser) Write(pcm []byte, _ uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i+1 < len(pcm); i += 2 {
		a.ring[a.pos] = float64(int16(binary.LittleEndian.Uint16(pcm[i:]))) / 32768.0
		a.pos = (a.pos + 1) % FFTSize
		if a.filled < FFTSize {
			a.filled++
		}
	}
}

// ByteFrequencyData fills dst (up to FrequencyBinCount entries) with the
// current spectrum and returns how many were written.
func (a *Analyser) ByteFrequencyData(dst []byte) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	for n := 0; n < FFTSize; n++ {
		a.frame[n] = a.ring[(a.pos+n)%FFTSize] * a.window[n]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.frame)

	n := min(len(dst), FrequencyBinCount)
	for k := 0; k < FrequencyBinCount; k++ {
		mag := cmplxAbs(a.coeffs[k]) / FFTSize
		a.prev[k] = SmoothingTimeConstant*a.prev[k] + (1-SmoothingTimeConstant)*mag
		if k < n {
			dst[k] = toByte(a.prev[k])
		}
	}
	return n
}

// Level is the RMS of the current time-domain window, 0..1.
func (a *Analyser) Level() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.filled == 0 {
		return 0
	}
	var sum float64
	for _, s := range a.ring {
		sum += s * s
	}
	return math.Sqrt(sum / float64(a.filled))
}

func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ring = [FFTSize]float64{}
	a.prev = [FrequencyBinCount]float64{}
	a.pos, a.filled = 0, 0
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func toByte(mag float64) byte {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	v := 255 / (MaxDecibels - MinDecibels) * (db - MinDecibels)
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v)
	}
}
