package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	"github.com/veedubyou/stemsplit-be/src/shared/config/envvar"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/executor"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

const bytesPerSample = 4

// Codec converts between audio files and planar float PCM through ffmpeg.
type Codec struct {
	ffmpegPath string
	executor   executor.Executor
}

func NewCodec(ffmpegPath string, executor executor.Executor) Codec {
	return Codec{
		ffmpegPath: ffmpegPath,
		executor:   executor,
	}
}

func (c Codec) FFmpegPath() string {
	return c.ffmpegPath
}

// Decode reads any input ffmpeg understands as 44.1kHz stereo.
func (c Codec) Decode(ctx context.Context, inputPath string) (Signal, error) {
	logger := log.WithFields(log.Fields{
		"input": inputPath,
	})
	logger.Info("Decoding audio")

	args := []string{
		"-nostdin", "-v", "error",
		"-i", inputPath,
		"-f", "f32le", "-acodec", "pcm_f32le",
		"-ac", strconv.Itoa(Channels),
		"-ar", strconv.Itoa(SampleRate),
		"pipe:1",
	}

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := c.executor.Command(ctx, c.ffmpegPath, args...)
	cmd.SetStdout(stdout)
	cmd.SetStderr(stderr)

	if err := cmd.Run(); err != nil {
		return nil, c.commandError(err, stderr.String(), "decode", inputPath)
	}

	signal, err := deinterleave(stdout.Bytes(), Channels)
	if err != nil {
		return nil, cerr.Field("input", inputPath).
			Wrap(mark.Wrap(err, jobentity.RuntimeMark, "The source audio could not be read")).
			Error("Malformed audio")
	}

	if signal.Len() == 0 {
		return nil, cerr.Field("input", inputPath).
			Wrap(mark.Message(jobentity.RuntimeMark, "The source audio contains no samples")).
			Error("Malformed audio")
	}

	logger.WithField("samples", signal.Len()).Info("Decoded audio")
	return signal, nil
}

// Encode writes signal to outputPath in the given format.
func (c Codec) Encode(ctx context.Context, signal Signal, format backend.OutputFormat, outputPath string) error {
	logger := log.WithFields(log.Fields{
		"output": outputPath,
		"format": format,
	})
	logger.Info("Encoding audio")

	args := []string{
		"-nostdin", "-v", "error", "-y",
		"-f", "f32le",
		"-ac", strconv.Itoa(signal.Channels()),
		"-ar", strconv.Itoa(SampleRate),
		"-i", "pipe:0",
	}
	args = append(args, codecArgs(format)...)
	args = append(args, outputPath)

	stderr := &bytes.Buffer{}
	cmd := c.executor.Command(ctx, c.ffmpegPath, args...)
	cmd.SetStdin(bytes.NewReader(interleave(signal)))
	cmd.SetStderr(stderr)

	if err := cmd.Run(); err != nil {
		return c.commandError(err, stderr.String(), "encode", outputPath)
	}

	return nil
}

func codecArgs(format backend.OutputFormat) []string {
	switch format {
	case backend.FLAC:
		return []string{"-codec:a", "flac"}
	case backend.WAV:
		return []string{"-codec:a", "pcm_s16le"}
	default:
		return []string{"-codec:a", "libmp3lame", "-b:a", fmt.Sprintf("%dk", format.Bitrate())}
	}
}

func (c Codec) commandError(err error, stderr string, action string, path string) error {
	errctx := cerr.Fields(cerr.F{
		"ffmpeg_path": c.ffmpegPath,
		"path":        path,
		"stderr":      stderr,
	})

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return errctx.Wrap(mark.Message(jobentity.CodecMissingMark, CodecMissingMessage(c.ffmpegPath))).
			Error("Codec tool is missing")
	}

	message := fmt.Sprintf("ffmpeg failed to %s the audio", action)
	if detail := lastLine(stderr); detail != "" {
		message = fmt.Sprintf("%s: %s", message, detail)
	}

	return errctx.Wrap(mark.Wrap(err, jobentity.RuntimeMark, message)).
		Error(fmt.Sprintf("Failed to %s audio", action))
}

// CodecMissingMessage is what a user sees when ffmpeg cannot be run at all.
func CodecMissingMessage(ffmpegPath string) string {
	return fmt.Sprintf("ffmpeg was not found at %q. Install ffmpeg or set %s to its location.",
		ffmpegPath, envvar.FFMPEG_BIN_PATH)
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func deinterleave(raw []byte, channels int) (Signal, error) {
	frameSize := bytesPerSample * channels
	if len(raw)%frameSize != 0 {
		return nil, errors.Newf("%d bytes is not a whole number of %d channel frames", len(raw), channels)
	}

	frames := len(raw) / frameSize
	signal := NewSignal(channels, frames)
	for frame := 0; frame < frames; frame++ {
		for c := 0; c < channels; c++ {
			offset := (frame*channels + c) * bytesPerSample
			bits := binary.LittleEndian.Uint32(raw[offset : offset+bytesPerSample])
			signal[c][frame] = float64(math.Float32frombits(bits))
		}
	}

	return signal, nil
}

func interleave(signal Signal) []byte {
	channels := signal.Channels()
	raw := make([]byte, signal.Len()*channels*bytesPerSample)
	for frame := 0; frame < signal.Len(); frame++ {
		for c := 0; c < channels; c++ {
			offset := (frame*channels + c) * bytesPerSample
			binary.LittleEndian.PutUint32(raw[offset:], math.Float32bits(float32(signal[c][frame])))
		}
	}
	return raw
}

// EncodePCM is the raw little endian float32 interleaved form ffmpeg exchanges with the codec.
func EncodePCM(signal Signal) []byte {
	return interleave(signal)
}

func DecodePCM(raw []byte, channels int) (Signal, error) {
	return deinterleave(raw, channels)
}
