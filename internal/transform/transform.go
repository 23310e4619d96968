package transform

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"tali/internal/caption"
	"tali/internal/failures"
	"tali/internal/logging"
	"tali/internal/media"
	"tali/internal/media/audio"
	"tali/internal/media/frames"
	"tali/internal/modality"
	"tali/internal/record"
	"tali/internal/subtitles"
	"tali/internal/tensor"
)

const component = "transform"

const (
	descriptionTag = "ydesc"
	subtitleTag    = "ysub"
)

// SubtitleLoader reads the subtitle document at a resolved path.
type SubtitleLoader func(path string) (subtitles.Map, error)

// Option customizes a Transform.
type Option func(*Transform)

// WithClock injects the clock used for non-deterministic seeds.
func WithClock(clock Clock) Option {
	return func(t *Transform) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transform) {
		if logger != nil {
			t.logger = logging.NewComponentLogger(logger, component)
		}
	}
}

// WithSubtitleLoader replaces the filesystem subtitle loader.
func WithSubtitleLoader(loader SubtitleLoader) Option {
	return func(t *Transform) {
		if loader != nil {
			t.loadSubtitles = loader
		}
	}
}

// Transform turns one raw record into a Bundle of the requested modalities.
// It holds no mutable state; Apply is safe for concurrent use.
type Transform struct {
	cfg           Config
	decoder       media.Decoder
	clock         Clock
	logger        *slog.Logger
	resolver      record.Resolver
	loadSubtitles SubtitleLoader
}

var witTextFields = []struct {
	modality modality.Modality
	fields   []string
}{
	{modality.WitCaption, record.TextFields},
	{modality.WitTitle, record.TitleFields},
	{modality.WitMainBody, record.MainBodyFields},
}

var youtubeModalities = []modality.Modality{
	modality.YouTubeImage,
	modality.YouTubeVideo,
	modality.YouTubeAudio,
	modality.YouTubeSubtitles,
}

// New validates cfg and builds a Transform. decoder may be nil only when no
// YouTube media or subtitle modality is requested.
func New(cfg Config, decoder media.Decoder, opts ...Option) (*Transform, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if decoder == nil && cfg.Modalities.Any(youtubeModalities...) {
		return nil, failures.Wrap(failures.ErrConfiguration, component, "new", "youtube modalities require a media decoder", nil)
	}
	t := &Transform{
		cfg:           cfg,
		decoder:       decoder,
		clock:         systemClock{},
		logger:        logging.NewNop(),
		resolver:      cfg.resolver(),
		loadSubtitles: subtitles.Load,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Config returns the transform configuration.
func (t *Transform) Config() Config { return t.cfg }

// Seed returns the per-record seed: the WIT index itself in deterministic
// mode, otherwise offset by the clock's Unix seconds modulo one million.
func (t *Transform) Seed(witIdx int64) int64 {
	if t.cfg.Deterministic {
		return witIdx
	}
	return witIdx + t.clock.Now().Unix()%1_000_000
}

func (t *Transform) newRand(witIdx int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(t.Seed(witIdx)), uint64(t.cfg.Seed)))
}

// Apply builds the bundle for raw. Every failure is returned as a typed
// error; the caller decides whether to resample.
func (t *Transform) Apply(ctx context.Context, raw record.Raw) (Bundle, error) {
	if err := ctx.Err(); err != nil {
		return Bundle{}, err
	}
	rng := t.newRand(raw.WitIdx)
	bundle := Bundle{WitIdx: raw.WitIdx, Values: make(map[modality.Modality]Value, len(t.cfg.Modalities))}

	if err := t.applyWitText(raw, rng, bundle.Values); err != nil {
		return Bundle{}, err
	}
	if t.cfg.Modalities.Has(modality.WitImage) {
		still, err := t.witImage(raw)
		if err != nil {
			return Bundle{}, err
		}
		bundle.Values[modality.WitImage] = Value{Tensor: still}
	}
	if t.cfg.Modalities.Has(modality.YouTubeDescription) {
		bundle.Values[modality.YouTubeDescription] = Value{
			Text: fmt.Sprintf("<%s> %s </%s>", descriptionTag, raw.YouTubeDescriptionText, descriptionTag),
		}
	}
	if err := t.applyYouTube(ctx, raw, rng, &bundle); err != nil {
		return Bundle{}, err
	}

	t.logger.Debug("record transformed",
		logging.Int64(logging.FieldWitIdx, raw.WitIdx),
		logging.String(logging.FieldVideoID, bundle.VideoID),
		logging.Int("values", len(bundle.Values)),
	)
	return bundle, nil
}

func (t *Transform) applyWitText(raw record.Raw, rng *rand.Rand, values map[modality.Modality]Value) error {
	wanted := false
	for _, group := range witTextFields {
		wanted = wanted || t.cfg.Modalities.Has(group.modality)
	}
	if !wanted {
		return nil
	}
	match := caption.MatchExact
	if t.cfg.BaseLanguageMatch {
		match = caption.MatchBase
	}
	_, idx, err := caption.SelectLanguageWith(raw.WitFeatures, t.cfg.PreferredLanguage, match, rng)
	if err != nil {
		return err
	}
	for _, group := range witTextFields {
		if !t.cfg.Modalities.Has(group.modality) {
			continue
		}
		text, err := caption.Choose(raw.WitFeatures, idx, group.fields, rng)
		if err != nil {
			return fmt.Errorf("%s: %w", group.modality, err)
		}
		values[group.modality] = Value{Text: text}
	}
	return nil
}

func (t *Transform) witImage(raw record.Raw) (*tensor.Tensor, error) {
	if len(raw.Image) == 0 {
		return nil, failures.Wrap(failures.ErrMissingField, component, "wit image", "record has no image bytes", nil)
	}
	img, err := frames.DecodeImage(raw.Image)
	if err != nil {
		return nil, failures.Wrap(failures.ErrMediaDecode, component, "wit image", "decode", err)
	}
	still, err := frames.Still(img, t.cfg.ImageSize)
	if err != nil {
		return nil, failures.Wrap(failures.ErrMediaDecode, component, "wit image", "resize", err)
	}
	return still, nil
}

// ChooseCandidate draws uniformly among the first topK references.
func ChooseCandidate(refs []string, topK int, rng *rand.Rand) (record.Candidate, error) {
	if len(refs) == 0 {
		return record.Candidate{}, failures.Wrap(failures.ErrMissingField, component, "candidate", "record has no youtube candidates", nil)
	}
	n := min(len(refs), max(topK, 1))
	return record.ParseCandidate(refs[rng.IntN(n)])
}

// Window picks the clip window inside a container of the given duration.
// The duration is floored to whole seconds; when no full clip fits, the
// window spans the whole container. Otherwise the start is an integer drawn
// uniformly from [0, floor(duration)-clip).
func Window(duration, clip float64, rng *rand.Rand) (float64, float64) {
	span := math.Floor(duration) - clip
	if span <= 0 {
		return 0, duration
	}
	start := float64(rng.IntN(int(math.Ceil(span))))
	return start, start + clip
}

func (t *Transform) applyYouTube(ctx context.Context, raw record.Raw, rng *rand.Rand, bundle *Bundle) error {
	needMedia := t.cfg.Modalities.Any(youtubeModalities...)
	if len(raw.YouTubeContentVideo) == 0 && !needMedia {
		return nil
	}
	candidate, err := ChooseCandidate(raw.YouTubeContentVideo, t.cfg.TopK, rng)
	if err != nil {
		if needMedia {
			return err
		}
		return nil
	}
	bundle.VideoID = candidate.VideoID
	if !needMedia {
		return nil
	}

	path := t.resolver.Resolve(candidate.Ref)
	info, err := t.decoder.Probe(ctx, path)
	if err != nil {
		return err
	}
	if math.IsNaN(info.Duration) || info.Duration <= 0 {
		return failures.Wrap(failures.ErrMediaDecode, component, "window", fmt.Sprintf("%s has no duration", path), nil)
	}
	start, end := Window(info.Duration, t.cfg.ClipDuration, rng)

	if err := t.applyClip(ctx, path, info, start, end, rng, bundle.Values); err != nil {
		return err
	}
	if t.cfg.Modalities.Has(modality.YouTubeSubtitles) {
		text, err := t.subtitleText(raw.YouTubeSubtitleText, candidate.Offset+start, candidate.Offset+end)
		if err != nil {
			return err
		}
		bundle.Values[modality.YouTubeSubtitles] = Value{Text: text}
	}
	return nil
}

func (t *Transform) applyClip(ctx context.Context, path string, info media.Info, start, end float64, rng *rand.Rand, values map[modality.Modality]Value) error {
	wantVideo := t.cfg.Modalities.Has(modality.YouTubeVideo)
	wantAudio := t.cfg.Modalities.Has(modality.YouTubeAudio)
	wantImage := t.cfg.Modalities.Has(modality.YouTubeImage)
	if !wantVideo && !wantAudio && !wantImage {
		return nil
	}

	req := media.Request{Video: wantVideo || wantImage, Audio: wantAudio, Info: &info}
	clipEnd := end
	if wantImage && !wantVideo && !wantAudio {
		clipEnd = min(start+1, end)
	}
	clip, err := t.decoder.DecodeClip(ctx, path, start, clipEnd, req)
	if err != nil {
		return err
	}

	switch {
	case wantVideo:
		video, still, err := frames.Sample(clip.Frames, t.cfg.NumVideoFrames, t.cfg.ImageSize, rng)
		if err != nil {
			return err
		}
		values[modality.YouTubeVideo] = Value{Tensor: video}
		if wantImage {
			values[modality.YouTubeImage] = Value{Tensor: still}
		}
	case wantImage:
		if len(clip.Frames) == 0 {
			return failures.Wrap(failures.ErrMediaDecode, component, "youtube image", path, frames.ErrNoFrames)
		}
		still, err := frames.Still(clip.Frames[rng.IntN(len(clip.Frames))], t.cfg.ImageSize)
		if err != nil {
			return failures.Wrap(failures.ErrMediaDecode, component, "youtube image", path, err)
		}
		values[modality.YouTubeImage] = Value{Tensor: still}
	}

	if wantAudio {
		rate := clip.SampleRate
		if rate <= 0 {
			rate = t.cfg.SourceSampleRate
		}
		samples := audio.Resample(clip.Audio, rate, t.cfg.TargetSampleRate, t.cfg.NumAudioFrames)
		wave, err := tensor.FromFloat32(samples, t.cfg.NumAudioFrames)
		if err != nil {
			return failures.Wrap(failures.ErrMediaDecode, component, "youtube audio", path, err)
		}
		values[modality.YouTubeAudio] = Value{Tensor: wave}
	}
	return nil
}

func (t *Transform) subtitleText(ref string, start, end float64) (string, error) {
	path := t.resolver.Resolve(ref)
	if path == "" {
		return "", failures.Wrap(failures.ErrMissingField, component, "subtitles", "record has no subtitle reference", nil)
	}
	doc, err := t.loadSubtitles(path)
	if err != nil {
		return "", failures.Wrap(failures.ErrMissingField, component, "subtitles", path, err)
	}
	return subtitles.Select(doc, start, end, subtitleTag), nil
}
