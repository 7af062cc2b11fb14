package jobentity

import (
	"fmt"
	"regexp"
	"strings"
)

var unsafeFileNameChars = regexp.MustCompile(`[^-\w\s.,\[\]()]`)

func SanitizeFileName(name string) string {
	return strings.TrimSpace(unsafeFileNameChars.ReplaceAllString(name, ""))
}

// OutputFileName names a dynamic job's per stem output, or the single static mix when stem is empty.
func (j Job) OutputFileName(artist string, title string, stem string) string {
	var name string
	switch j.Variant {
	case DynamicVariant:
		name = fmt.Sprintf("%s - %s (%s) [%s, %s]", artist, title, stem, j.Backend.Kind, j.Backend.Label())
	default:
		name = fmt.Sprintf("%s - %s (%s) [%s]", artist, title, strings.Join(j.Stems, ", "), j.Backend.Label())
	}

	return SanitizeFileName(name) + "." + j.Backend.OutputFormat.Ext()
}

// StaticOutputStem is the stem label recorded on a static job's single output ref.
func (j Job) StaticOutputStem() string {
	return strings.Join(j.Stems, "+")
}
