package backend

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
)

var (
	InvalidConfigMark = errors.New("invalid backend config")
	InvalidStemsMark  = errors.New("invalid stem selection")
)

// Config is immutable once a job has been created with it. Only the fields that
// belong to Kind are ever set.
type Config struct {
	Kind         Kind         `json:"kind"`
	OutputFormat OutputFormat `json:"output_format"`
	StemMode     StemMode     `json:"stem_mode,omitempty"`
	Iterations   int          `json:"iterations,omitempty"`
	Softmask     bool         `json:"softmask,omitempty"`
	Alpha        float64      `json:"alpha,omitempty"`
	ShiftCount   int          `json:"shift_count,omitempty"`
}

// Label describes the parameters for output file names, without the kind.
func (c Config) Label() string {
	parts := []string{}
	switch c.Kind {
	case WindowedMultibandKind:
		parts = append(parts, fmt.Sprintf("stems %s", c.StemMode))
	case IterativeKind:
		mask := "hardmask"
		if c.Softmask {
			mask = "softmask"
		}
		parts = append(parts,
			fmt.Sprintf("iterations %d", c.Iterations),
			mask,
			fmt.Sprintf("alpha %s", formatFloat(c.Alpha)))
	case EnsembleKind:
		parts = append(parts, fmt.Sprintf("shifts %d", c.ShiftCount))
	}

	parts = append(parts, string(c.OutputFormat))
	return strings.Join(parts, ", ")
}

// Canonical is a stable textual form used for deduplication.
func (c Config) Canonical() string {
	return fmt.Sprintf("kind=%s;format=%s;stem_mode=%s;iterations=%d;softmask=%t;alpha=%s;shifts=%d",
		c.Kind, c.OutputFormat, c.StemMode, c.Iterations, c.Softmask, formatFloat(c.Alpha), c.ShiftCount)
}

func formatFloat(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", f), "0"), ".")
}

// ValidateStaticSelection checks that a static mix asks for a non-empty proper subset
// of the available stems and returns the selection in canonical order.
func ValidateStaticSelection(c Config, requested []string) ([]string, error) {
	available := c.AvailableStems()

	selection, err := validateKnownStems(available, requested)
	if err != nil {
		return nil, err
	}

	if len(selection) == 0 {
		return nil, mark.Message(InvalidStemsMark, "You must check at least one part.")
	}

	if len(selection) == len(available) {
		return nil, mark.Message(InvalidStemsMark, "You must leave at least one part unchecked.")
	}

	return selection, nil
}

// ValidateDynamicSelection always yields every available stem. An explicit request
// must not name stems the backend cannot produce.
func ValidateDynamicSelection(c Config, requested []string) ([]string, error) {
	available := c.AvailableStems()
	if _, err := validateKnownStems(available, requested); err != nil {
		return nil, err
	}

	return SortStems(available), nil
}

func validateKnownStems(available []string, requested []string) ([]string, error) {
	selection := []string{}
	for _, stem := range requested {
		if !slices.Contains(available, stem) {
			return nil, mark.Message(InvalidStemsMark,
				fmt.Sprintf("Unknown part %q, this backend produces: %s", stem, strings.Join(available, ", ")))
		}

		if !slices.Contains(selection, stem) {
			selection = append(selection, stem)
		}
	}

	return SortStems(selection), nil
}
