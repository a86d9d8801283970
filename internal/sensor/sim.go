package sensor

import (
	"fmt"
	"io"
	"sync"
)

// Sim is a scripted sensor for tests and hardware-less runs. It replays a
// fixed sequence of samples, cycling when exhausted.
type Sim struct {
	kind    Kind
	samples []Sample
	err     error
	offline bool

	mu    sync.Mutex
	next  int
	Reads int // total ReadSample calls, for assertions
}

// NewSim creates a simulated sensor of the given kind replaying samples.
func NewSim(kind Kind, samples []Sample) *Sim {
	return &Sim{kind: kind, samples: samples}
}

// NewSimValues is a convenience for single-channel scripts.
func NewSimValues(values ...int) *Sim {
	samples := make([]Sample, len(values))
	for i, v := range values {
		samples[i].Values[0] = v
		samples[i].Count = 1
	}
	return NewSim(LightLevel, samples)
}

// Fail makes every subsequent read return err.
func (s *Sim) Fail(err error) { s.err = err }

// SetOffline makes Available report false.
func (s *Sim) SetOffline() { s.offline = true }

func (s *Sim) Kind() Kind { return s.kind }

func (s *Sim) Channels() []string {
	switch s.kind {
	case SpectralSix:
		return spectralChannels
	case ColorThree:
		return colorChannels
	}
	return nil
}

func (s *Sim) Available() bool { return !s.offline }

func (s *Sim) ReadSample(verbose bool, echo io.Writer) (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Reads++
	if s.offline {
		return Sample{}, fmt.Errorf("%s %w", s.kind, ErrUnavailable)
	}
	if s.err != nil {
		return Sample{}, s.err
	}
	if len(s.samples) == 0 {
		return Sample{}, fmt.Errorf("%s %w", s.kind, ErrUnavailable)
	}

	sample := s.samples[s.next%len(s.samples)]
	s.next++
	if verbose {
		echoSample(echo, sample, s.Channels())
	}
	return sample, nil
}
