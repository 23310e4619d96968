package config

const (
	defaultRootFilepath            = "~/.local/share/tali/media"
	defaultStoreDir                = "~/.local/share/tali/store"
	defaultLogDir                  = "~/.local/share/tali/logs"
	defaultBucketPrefix            = "/data/datasets/tali-wit-2-1-buckets/"
	defaultSetName                 = "train"
	defaultRNGSeed                 = 42
	defaultTopKTali                = 10
	defaultImageSize               = 224
	defaultNumVideoFrames          = 5
	defaultNumAudioFrames          = 16000
	defaultClipDurationSeconds     = 3.0
	defaultPriorityCaptionLanguage = "en"
	defaultSourceSampleRate        = 44100
	defaultTargetSampleRate        = 16000
	defaultMaxAttempts             = 10
	defaultImageTextModelName      = "openai/clip-vit-base-patch16"
	defaultAudioModelName          = "openai/whisper-base"
	defaultMaxTextTokens           = 77
	defaultLoaderWorkers           = 4
	defaultLoaderBatchSize         = 8
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

func defaultModalities() []string {
	return []string{
		"wit_image",
		"wit_caption",
		"wit_title",
		"wit_main_body",
		"youtube_image",
		"youtube_video",
		"youtube_subtitles",
		"youtube_audio",
		"youtube_description",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RootFilepath: defaultRootFilepath,
			StoreDir:     defaultStoreDir,
			LogDir:       defaultLogDir,
			BucketPrefix: defaultBucketPrefix,
		},
		Transform: Transform{
			Modalities:              defaultModalities(),
			RNGSeed:                 defaultRNGSeed,
			TopKTali:                defaultTopKTali,
			ImageSize:               defaultImageSize,
			NumVideoFrames:          defaultNumVideoFrames,
			NumAudioFrames:          defaultNumAudioFrames,
			ClipDurationSeconds:     defaultClipDurationSeconds,
			DeterministicSampling:   true,
			PriorityCaptionLanguage: defaultPriorityCaptionLanguage,
			SourceSampleRate:        defaultSourceSampleRate,
			TargetSampleRate:        defaultTargetSampleRate,
		},
		Dataset: Dataset{
			SetName:     defaultSetName,
			MaxAttempts: defaultMaxAttempts,
		},
		Postprocess: Postprocess{
			UseModelPreprocessing: false,
			ImageTextModelName:    defaultImageTextModelName,
			AudioModelName:        defaultAudioModelName,
			MaxTextTokens:         defaultMaxTextTokens,
		},
		Media: Media{
			FFmpegBinary:  "ffmpeg",
			FFprobeBinary: "ffprobe",
		},
		Loader: Loader{
			Workers:   defaultLoaderWorkers,
			BatchSize: defaultLoaderBatchSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
