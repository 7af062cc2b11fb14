package backend

type Kind string

const (
	BaselineKind          Kind = "baseline"
	WindowedMultibandKind Kind = "windowed-multiband"
	IterativeKind         Kind = "iterative-refinement"
	EnsembleKind          Kind = "ensemble"
)

var Kinds = []Kind{BaselineKind, WindowedMultibandKind, IterativeKind, EnsembleKind}

func ParseKind(s string) (Kind, bool) {
	for _, kind := range Kinds {
		if string(kind) == s {
			return kind, true
		}
	}

	return "", false
}

type OutputFormat string

const (
	MP3_192 OutputFormat = "mp3-192"
	MP3_256 OutputFormat = "mp3-256"
	MP3_320 OutputFormat = "mp3-320"
	FLAC    OutputFormat = "flac"
	WAV     OutputFormat = "wav"
)

var OutputFormats = []OutputFormat{MP3_192, MP3_256, MP3_320, FLAC, WAV}

func (o OutputFormat) Ext() string {
	switch o {
	case FLAC:
		return "flac"
	case WAV:
		return "wav"
	default:
		return "mp3"
	}
}

// Bitrate is in kbps and is zero for lossless formats.
func (o OutputFormat) Bitrate() int {
	switch o {
	case MP3_192:
		return 192
	case MP3_256:
		return 256
	case MP3_320:
		return 320
	default:
		return 0
	}
}
