package audio

import (
	"slices"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/floats"
)

const (
	SampleRate = 44100
	Channels   = 2
)

// Signal is planar audio, one slice of samples per channel.
type Signal [][]float64

func NewSignal(channels int, length int) Signal {
	signal := make(Signal, channels)
	for i := range signal {
		signal[i] = make([]float64, length)
	}
	return signal
}

func (s Signal) Channels() int {
	return len(s)
}

func (s Signal) Len() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}

func (s Signal) Clone() Signal {
	clone := make(Signal, len(s))
	for i, channel := range s {
		clone[i] = slices.Clone(channel)
	}
	return clone
}

// Slice copies samples [start, end) of every channel.
func (s Signal) Slice(start int, end int) Signal {
	sliced := make(Signal, len(s))
	for i, channel := range s {
		sliced[i] = slices.Clone(channel[start:end])
	}
	return sliced
}

func (s Signal) Add(other Signal) error {
	if s.Channels() != other.Channels() || s.Len() != other.Len() {
		return errors.Newf("cannot add a %dx%d signal to a %dx%d signal",
			other.Channels(), other.Len(), s.Channels(), s.Len())
	}

	for c := range s {
		floats.Add(s[c], other[c])
	}
	return nil
}

func (s Signal) Scale(factor float64) {
	for c := range s {
		floats.Scale(factor, s[c])
	}
}

func (s Signal) Zero() {
	for c := range s {
		clear(s[c])
	}
}

type Stem struct {
	Name   string
	Signal Signal
}

// StemSet keeps stems in the order the backend produced them.
type StemSet []Stem

func (s StemSet) Get(name string) (Signal, bool) {
	for _, stem := range s {
		if stem.Name == name {
			return stem.Signal, true
		}
	}
	return nil, false
}

func (s StemSet) Names() []string {
	names := []string{}
	for _, stem := range s {
		names = append(names, stem.Name)
	}
	return names
}

// Release drops every buffer so the memory can be reclaimed before the next stage allocates.
func (s StemSet) Release() {
	for i := range s {
		s[i].Signal = nil
	}
}
