// Package audio turns the motion of the simulation into an ambient pad.
// Kinetic energy opens the filter and stick strain detunes the voices.
package audio

import (
	"io"
	"math"
	"math/cmplx"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
	"github.com/mjibson/go-dsp/fft"
)

const (
	SampleRate = 44100
	BufferSize = 1024
)

// voices of the pad, a G minor seventh with an added ninth
var voices = []float64{98.00, 116.54, 146.83, 174.61, 220.00}

// Sonifier synthesizes stereo audio from simulation observables. Render is
// safe to call without a device, which is how it is tested.
type Sonifier struct {
	stream *portaudio.Stream
	logger *log.Logger

	mu      sync.Mutex
	kinetic float64
	strain  float64

	time      float64
	smooth    float64
	detune    float64
	filter    [2]float64
	delay     [2][]float64
	delayHead int

	spectrum   []complex128
	brightness float64
}

func NewSonifier(logger *log.Logger) *Sonifier {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	n := int(float64(SampleRate) * 0.6)
	return &Sonifier{
		logger:   logger,
		delay:    [2][]float64{make([]float64, n), make([]float64, n)},
		spectrum: make([]complex128, BufferSize),
	}
}

// Start opens the default output device.
func (s *Sonifier) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, SampleRate, BufferSize, s.Render)
	if err != nil {
		portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return err
	}
	s.stream = stream
	s.logger.Info("audio started", "rate", SampleRate, "buffer", BufferSize)
	return nil
}

func (s *Sonifier) Stop() {
	if s.stream == nil {
		return
	}
	s.stream.Stop()
	s.stream.Close()
	portaudio.Terminate()
	s.stream = nil
	s.logger.Info("audio stopped")
}

func (s *Sonifier) Active() bool { return s.stream != nil }

// Update feeds the latest observables; it is called from the tick loop.
func (s *Sonifier) Update(kinetic, strain float64) {
	s.mu.Lock()
	s.kinetic, s.strain = kinetic, strain
	s.mu.Unlock()
}

// Brightness is the spectral centroid of the last rendered block in Hz.
func (s *Sonifier) Brightness() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brightness
}

func triangle(phase float64) float64 {
	p := phase - math.Floor(phase)
	return 4*math.Abs(p-0.5) - 1
}

// lpf is a one pole low pass; it returns the new state.
func lpf(sample, cutoff, dt, state float64) float64 {
	rc := 1 / (2 * math.Pi * cutoff)
	alpha := dt / (rc + dt)
	return state + alpha*(sample-state)
}

// Render fills a stereo block. It is the device callback.
func (s *Sonifier) Render(out [][]float32) {
	s.mu.Lock()
	kinetic, strain := s.kinetic, s.strain
	s.mu.Unlock()

	s.smooth = s.smooth*0.995 + kinetic*0.005
	s.detune = s.detune*0.99 + math.Min(strain, 0.05)*0.01
	cutoff := 300 + math.Min(s.smooth*200, 900)
	dt := 1.0 / SampleRate
	const vol = 0.25

	for i := range out[0] {
		var l, r float64
		g := 1 / float64(len(voices))
		for j, f := range voices {
			lfo := 0.7 + 0.3*math.Sin(s.time*0.2+float64(j))
			l += triangle(s.time*f*(0.999-s.detune)) * g * lfo
			r += triangle(s.time*f*(1.001+s.detune)) * g * lfo
		}
		s.filter[0] = lpf(l, cutoff, dt, s.filter[0])
		s.filter[1] = lpf(r, cutoff, dt, s.filter[1])

		dl, dr := s.delay[0][s.delayHead], s.delay[1][s.delayHead]
		mixL := s.filter[0] + dl*0.3 + dr*0.1
		mixR := s.filter[1] + dr*0.3 + dl*0.1
		s.delay[0][s.delayHead] = mixL * 0.7
		s.delay[1][s.delayHead] = mixR * 0.7
		s.delayHead = (s.delayHead + 1) % len(s.delay[0])

		out[0][i] = float32(mixL * vol)
		if len(out) > 1 {
			out[1][i] = float32(mixR * vol)
		}
		s.time += dt
	}
	s.analyze(out[0])
}

// analyze takes the Hann windowed spectrum of a block.
func (s *Sonifier) analyze(block []float32) {
	n := min(len(block), BufferSize)
	if n < 2 {
		return
	}
	buf := s.spectrum[:n]
	for i := 0; i < n; i++ {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		buf[i] = complex(float64(block[i])*w, 0)
	}
	bins := fft.FFT(buf)

	var num, den float64
	for i := 1; i < n/2; i++ {
		mag := cmplx.Abs(bins[i])
		num += float64(i) * SampleRate / float64(n) * mag
		den += mag
	}
	c := 0.0
	if den > 0 {
		c = num / den
	}
	s.mu.Lock()
	s.brightness = c
	s.mu.Unlock()
}
