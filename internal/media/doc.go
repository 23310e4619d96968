// Package media decodes time windows of video containers into raw RGB frames
// and mono PCM audio.
//
// Decoder is the seam used by the record transform; FFmpeg is the production
// implementation, probing with ffprobe and extracting video and audio from
// one ffmpeg process. Every failure is marked failures.ErrMediaDecode so the
// dataset layer can resample.
package media
