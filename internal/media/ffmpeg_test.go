package media_test

import (
	"context"
	"errors"
	"testing"

	"tali/internal/failures"
	"tali/internal/media"
	"tali/internal/media/ffprobe"
	"tali/internal/testsupport"
)

const probeScript = `cat <<'JSON'
{"streams":[{"index":0,"codec_type":"video","width":2,"height":2,"avg_frame_rate":"25/1"},{"index":1,"codec_type":"audio","sample_rate":"44100","channels":2}],"format":{"duration":"10.0"}}
JSON
`

// Two 2x2 rgb24 frames on stdout and two f32le samples on fd 3.
const decodeScript = `head -c 24 /dev/zero
head -c 8 /dev/zero >&3
`

func TestDecodeClipReadsVideoAndAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFFmpegScript(decodeScript, probeScript))
	decoder := media.NewFFmpeg(cfg, nil)

	clip, err := decoder.DecodeClip(context.Background(), "clip.mp4", 2, 5, media.Request{Video: true, Audio: true})
	if err != nil {
		t.Fatalf("DecodeClip returned error: %v", err)
	}
	if len(clip.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(clip.Frames))
	}
	if b := clip.Frames[0].Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Fatalf("unexpected frame bounds: %v", b)
	}
	if len(clip.Audio) != 2 {
		t.Fatalf("expected 2 audio samples, got %d", len(clip.Audio))
	}
	if clip.SampleRate != 44100 {
		t.Fatalf("unexpected sample rate: %d", clip.SampleRate)
	}
}

func TestDecodeClipKeepsCodedFrameSize(t *testing.T) {
	// Autorotation would hand back frames with swapped dimensions.
	script := `case " $* " in
*" -noautorotate "*) ;;
*) echo 'autorotate enabled' >&2; exit 1 ;;
esac
head -c 24 /dev/zero
`
	cfg := testsupport.NewConfig(t, testsupport.WithFFmpegScript(script, probeScript))
	decoder := media.NewFFmpeg(cfg, nil)

	clip, err := decoder.DecodeClip(context.Background(), "rotated.mp4", 0, 2, media.Request{Video: true})
	if err != nil {
		t.Fatalf("DecodeClip returned error: %v", err)
	}
	if len(clip.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(clip.Frames))
	}
	if b := clip.Frames[1].Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Fatalf("unexpected frame bounds: %v", b)
	}
}

func TestDecodeClipRejectsBadWindows(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFFmpegScript(decodeScript, probeScript))
	decoder := media.NewFFmpeg(cfg, nil)

	tests := []struct {
		name       string
		start, end float64
	}{
		{"empty", 3, 3},
		{"reversed", 4, 2},
		{"past end", 12, 15},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decoder.DecodeClip(context.Background(), "clip.mp4", tc.start, tc.end, media.Request{Video: true})
			if !errors.Is(err, failures.ErrMediaDecode) {
				t.Fatalf("expected ErrMediaDecode, got %v", err)
			}
		})
	}
}

func TestDecodeClipFailsWhenFFmpegFails(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFFmpegScript("echo 'moov atom not found' >&2\nexit 1\n", probeScript))
	decoder := media.NewFFmpeg(cfg, nil)

	_, err := decoder.DecodeClip(context.Background(), "clip.mp4", 0, 3, media.Request{Video: true, Audio: true})
	if !errors.Is(err, failures.ErrMediaDecode) {
		t.Fatalf("expected ErrMediaDecode, got %v", err)
	}
}

func TestProbeFailureIsDecodeError(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFFmpegScript("", "exit 1\n"))
	decoder := media.NewFFmpeg(cfg, nil)

	if _, err := decoder.Probe(context.Background(), "missing.mp4"); !errors.Is(err, failures.ErrMediaDecode) {
		t.Fatalf("expected ErrMediaDecode, got %v", err)
	}
}

func TestInfoFromProbeDefaultsSampleRate(t *testing.T) {
	info := media.InfoFromProbe(ffprobe.Result{
		Streams: []ffprobe.Stream{{CodecType: "audio"}},
		Format:  ffprobe.Format{Duration: "3.5"},
	})
	if !info.HasAudio || info.HasVideo {
		t.Fatalf("unexpected stream flags: %+v", info)
	}
	if info.SampleRate != 44100 {
		t.Fatalf("expected default sample rate, got %d", info.SampleRate)
	}
}

func TestSplitRGB24DropsPartialFrame(t *testing.T) {
	data := make([]byte, 2*2*3*2+5)
	data[0] = 200
	frames, err := media.SplitRGB24(data, 2, 2)
	if err != nil {
		t.Fatalf("SplitRGB24 returned error: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	r, _, _, a := frames[0].At(0, 0).RGBA()
	if r>>8 != 200 || a>>8 != 255 {
		t.Fatalf("unexpected pixel: r=%d a=%d", r>>8, a>>8)
	}
	if _, err := media.SplitRGB24(data, 0, 2); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestDecodeF32LE(t *testing.T) {
	// 1.0 and -0.5 in little-endian IEEE 754.
	data := []byte{0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x00, 0xbf}
	got := media.DecodeF32LE(data)
	if len(got) != 2 || got[0] != 1 || got[1] != -0.5 {
		t.Fatalf("unexpected samples: %v", got)
	}
}
