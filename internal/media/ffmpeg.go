package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"

	"tali/internal/config"
	"tali/internal/failures"
	"tali/internal/logging"
	"tali/internal/media/ffprobe"
)

const (
	component = "media"
	// defaultSampleRate is assumed when a container omits its audio rate.
	defaultSampleRate = 44100
)

// FFmpeg decodes clips by shelling out to ffmpeg and ffprobe.
type FFmpeg struct {
	ffmpegBinary  string
	ffprobeBinary string
	logger        *slog.Logger
}

// NewFFmpeg constructs a decoder using the configured binaries.
func NewFFmpeg(cfg *config.Config, logger *slog.Logger) *FFmpeg {
	d := &FFmpeg{ffmpegBinary: "ffmpeg", ffprobeBinary: "ffprobe"}
	if cfg != nil {
		d.ffmpegBinary = cfg.FFmpegBinary()
		d.ffprobeBinary = cfg.FFprobeBinary()
	}
	d.logger = logging.NewComponentLogger(logger, component)
	return d
}

// Probe inspects the container at path.
func (d *FFmpeg) Probe(ctx context.Context, path string) (Info, error) {
	result, err := ffprobe.Inspect(ctx, d.ffprobeBinary, path)
	if err != nil {
		return Info{}, failures.Wrap(failures.ErrMediaDecode, component, "probe", "Could not open container "+path, err)
	}
	info := InfoFromProbe(result)
	if !info.HasVideo && !info.HasAudio {
		return Info{}, failures.Wrap(failures.ErrMediaDecode, component, "probe", "Container has no audio or video streams", nil)
	}
	return info, nil
}

// InfoFromProbe converts a raw ffprobe result.
func InfoFromProbe(result ffprobe.Result) Info {
	info := Info{Duration: result.DurationSeconds()}
	if math.IsNaN(info.Duration) {
		info.Duration = 0
	}
	if video, ok := result.VideoStream(); ok {
		info.HasVideo = video.Width > 0 && video.Height > 0
		info.Width = video.Width
		info.Height = video.Height
		info.FrameRate = video.FrameRate()
	}
	if audio, ok := result.AudioStream(); ok {
		info.HasAudio = true
		info.SampleRate = audio.SampleRateHz()
		if info.SampleRate == 0 {
			info.SampleRate = defaultSampleRate
		}
	}
	return info
}

// DecodeClip decodes [start, end) in a single ffmpeg run. Video frames are
// read as rgb24 from stdout and mono f32le audio from file descriptor 3.
func (d *FFmpeg) DecodeClip(ctx context.Context, path string, start, end float64, req Request) (Clip, error) {
	if !req.Video && !req.Audio {
		return Clip{}, nil
	}
	if end <= start || start < 0 {
		return Clip{}, failures.Wrap(failures.ErrMediaDecode, component, "decode", fmt.Sprintf("Empty window [%.3f, %.3f)", start, end), nil)
	}

	var info Info
	if req.Info != nil {
		info = *req.Info
	} else {
		probed, err := d.Probe(ctx, path)
		if err != nil {
			return Clip{}, err
		}
		info = probed
	}
	if info.Duration > 0 && start >= info.Duration {
		return Clip{}, failures.Wrap(failures.ErrMediaDecode, component, "decode", fmt.Sprintf("Window start %.3f past end of %.3f s container", start, info.Duration), nil)
	}
	if req.Video && !info.HasVideo {
		return Clip{}, failures.Wrap(failures.ErrMediaDecode, component, "decode", "Container has no video stream", nil)
	}
	if req.Audio && !info.HasAudio {
		return Clip{}, failures.Wrap(failures.ErrMediaDecode, component, "decode", "Container has no audio stream", nil)
	}

	args := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-ss", fmt.Sprintf("%.3f", start),
		"-t", fmt.Sprintf("%.3f", end-start),
		// Frames keep the coded size ffprobe reported, ignoring display rotation.
		"-noautorotate",
		"-i", path,
	}
	if req.Video {
		args = append(args, "-map", "0:v:0", "-an", "-f", "rawvideo", "-pix_fmt", "rgb24", "pipe:1")
	}

	var audioReader, audioWriter *os.File
	if req.Audio {
		var err error
		audioReader, audioWriter, err = os.Pipe()
		if err != nil {
			return Clip{}, failures.Wrap(failures.ErrMediaDecode, component, "decode", "Could not create audio pipe", err)
		}
		defer audioReader.Close()
		args = append(args, "-map", "0:a:0", "-vn", "-ac", "1", "-c:a", "pcm_f32le", "-f", "f32le", "pipe:3")
	}

	cmd := exec.CommandContext(ctx, d.ffmpegBinary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if audioWriter != nil {
		cmd.ExtraFiles = []*os.File{audioWriter}
	}

	if err := cmd.Start(); err != nil {
		if audioWriter != nil {
			audioWriter.Close()
		}
		return Clip{}, failures.Wrap(failures.ErrMediaDecode, component, "decode", "Could not start ffmpeg", err)
	}
	if audioWriter != nil {
		// The child holds its own copy; closing ours lets the reader see EOF.
		audioWriter.Close()
	}

	var audioBytes []byte
	var g errgroup.Group
	if audioReader != nil {
		g.Go(func() error {
			data, err := io.ReadAll(audioReader)
			audioBytes = data
			return err
		})
	}
	readErr := g.Wait()
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return Clip{}, ctx.Err()
		}
		return Clip{}, failures.Wrap(failures.ErrMediaDecode, component, "decode",
			fmt.Sprintf("ffmpeg failed: %s", strings.TrimSpace(stderr.String())), err)
	}
	if readErr != nil {
		return Clip{}, failures.Wrap(failures.ErrMediaDecode, component, "decode", "Could not read audio pipe", readErr)
	}

	clip := Clip{Width: info.Width, Height: info.Height, SampleRate: info.SampleRate}
	if req.Video {
		frames, err := SplitRGB24(stdout.Bytes(), info.Width, info.Height)
		if err != nil {
			return Clip{}, failures.Wrap(failures.ErrMediaDecode, component, "decode", "Malformed video output", err)
		}
		if len(frames) == 0 {
			return Clip{}, failures.Wrap(failures.ErrMediaDecode, component, "decode", "Window produced no frames", nil)
		}
		clip.Frames = frames
	}
	if req.Audio {
		clip.Audio = DecodeF32LE(audioBytes)
	}

	d.logger.Debug("clip decoded",
		logging.String("path", path),
		logging.Float64("start", start),
		logging.Float64("end", end),
		logging.Int("frames", len(clip.Frames)),
		logging.Int("audio_samples", len(clip.Audio)),
	)
	return clip, nil
}

// SplitRGB24 slices packed rgb24 frames into images. A trailing partial frame
// is dropped.
func SplitRGB24(data []byte, width, height int) ([]image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("invalid frame dimensions")
	}
	frameSize := width * height * 3
	count := len(data) / frameSize
	frames := make([]image.Image, 0, count)
	for i := 0; i < count; i++ {
		src := data[i*frameSize : (i+1)*frameSize]
		img := image.NewNRGBA(image.Rect(0, 0, width, height))
		for p := 0; p < width*height; p++ {
			img.Pix[p*4] = src[p*3]
			img.Pix[p*4+1] = src[p*3+1]
			img.Pix[p*4+2] = src[p*3+2]
			img.Pix[p*4+3] = 0xff
		}
		frames = append(frames, img)
	}
	return frames, nil
}

// DecodeF32LE converts little-endian float32 PCM into samples.
func DecodeF32LE(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}
