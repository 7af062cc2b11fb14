package backend

import "slices"

const (
	Vocals = "vocals"
	Drums  = "drums"
	Bass   = "bass"
	Other  = "other"
	Guitar = "guitar"
	Piano  = "piano"
)

// CanonicalStemOrder is the order stems are reported, named and mixed in.
var CanonicalStemOrder = []string{Vocals, Drums, Bass, Other, Guitar, Piano}

type StemMode string

const (
	FourStemMode       StemMode = "4"
	FiveGuitarStemMode StemMode = "5guitar"
	FivePianoStemMode  StemMode = "5piano"
	SixStemMode        StemMode = "6"
)

var StemModes = []StemMode{FourStemMode, FiveGuitarStemMode, FivePianoStemMode, SixStemMode}

// Reduction folds stems a caller did not ask for into a catch-all stem.
type Reduction struct {
	CatchAll string
	Folded   []string
}

func (r Reduction) IsIdentity() bool {
	return len(r.Folded) == 0
}

var stemModeReductions = map[StemMode]Reduction{
	FourStemMode:       {CatchAll: Other, Folded: []string{Guitar, Piano}},
	FiveGuitarStemMode: {CatchAll: Other, Folded: []string{Piano}},
	FivePianoStemMode:  {CatchAll: Other, Folded: []string{Guitar}},
	SixStemMode:        {CatchAll: Other},
}

type Descriptor struct {
	Kind        Kind
	NativeStems []string
	// Normalize divides a static mix by the number of stems summed into it.
	Normalize bool
	Windowed  bool
}

var fourStems = []string{Vocals, Drums, Bass, Other}

var descriptors = map[Kind]Descriptor{
	BaselineKind: {
		Kind:        BaselineKind,
		NativeStems: fourStems,
		Normalize:   true,
	},
	WindowedMultibandKind: {
		Kind:        WindowedMultibandKind,
		NativeStems: []string{Vocals, Drums, Bass, Other, Guitar, Piano},
		Windowed:    true,
	},
	IterativeKind: {
		Kind:        IterativeKind,
		NativeStems: fourStems,
		Windowed:    true,
	},
	EnsembleKind: {
		Kind:        EnsembleKind,
		NativeStems: fourStems,
		Windowed:    true,
	},
}

func Describe(kind Kind) (Descriptor, bool) {
	descriptor, ok := descriptors[kind]
	return descriptor, ok
}

func (c Config) Descriptor() Descriptor {
	descriptor, ok := descriptors[c.Kind]
	if !ok {
		panic("unknown backend kind " + string(c.Kind))
	}

	return descriptor
}

func (c Config) Reduction() Reduction {
	if c.Kind != WindowedMultibandKind {
		return Reduction{CatchAll: Other}
	}

	return stemModeReductions[c.StemMode]
}

// AvailableStems are the stems left once the backend's reduction table has been applied.
func (c Config) AvailableStems() []string {
	reduction := c.Reduction()
	available := []string{}
	for _, stem := range c.Descriptor().NativeStems {
		if !slices.Contains(reduction.Folded, stem) {
			available = append(available, stem)
		}
	}

	return available
}

func SortStems(stems []string) []string {
	sorted := slices.Clone(stems)
	slices.SortFunc(sorted, func(a, b string) int {
		return stemRank(a) - stemRank(b)
	})
	return sorted
}

func stemRank(stem string) int {
	index := slices.Index(CanonicalStemOrder, stem)
	if index < 0 {
		return len(CanonicalStemOrder)
	}

	return index
}
