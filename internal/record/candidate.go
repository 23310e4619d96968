package record

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"tali/internal/failures"
)

// Candidate is a parsed reference to one YouTube clip file, laid out as
// ".../<video_id>/<prefix>_<offset>.mp4". Offset is the position in seconds
// of the clip file inside the original video.
type Candidate struct {
	Ref     string
	VideoID string
	Offset  float64
}

// ParseCandidate extracts the video id and start offset from a reference.
func ParseCandidate(ref string) (Candidate, error) {
	trimmed := strings.TrimSpace(ref)
	segments := strings.Split(strings.TrimRight(filepath.ToSlash(trimmed), "/"), "/")
	if len(segments) < 2 {
		return Candidate{}, failures.Wrap(failures.ErrMissingField, "record", "parse candidate", fmt.Sprintf("reference %q has no video directory", ref), nil)
	}
	videoID := segments[len(segments)-2]
	name := segments[len(segments)-1]
	if videoID == "" {
		return Candidate{}, failures.Wrap(failures.ErrMissingField, "record", "parse candidate", fmt.Sprintf("reference %q has an empty video id", ref), nil)
	}

	_, rest, found := strings.Cut(name, "_")
	if !found {
		return Candidate{}, failures.Wrap(failures.ErrMissingField, "record", "parse candidate", fmt.Sprintf("clip name %q has no offset", name), nil)
	}
	token, _, _ := strings.Cut(rest, ".mp4")
	offset, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return Candidate{}, failures.Wrap(failures.ErrMissingField, "record", "parse candidate", fmt.Sprintf("clip name %q has a non-numeric offset", name), err)
	}
	return Candidate{Ref: trimmed, VideoID: videoID, Offset: offset}, nil
}

// Resolver maps stored media references onto the local filesystem.
type Resolver struct {
	Root         string
	BucketPrefix string
}

// Resolve replaces the bucket prefix with the root; other relative references
// are joined to the root and absolute ones are returned unchanged.
func (r Resolver) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if prefix := r.BucketPrefix; prefix != "" {
		trimmedPrefix := strings.TrimRight(prefix, "/")
		if strings.HasPrefix(ref, trimmedPrefix+"/") {
			return filepath.Join(r.Root, filepath.FromSlash(strings.TrimPrefix(ref, trimmedPrefix+"/")))
		}
	}
	if path.IsAbs(filepath.ToSlash(ref)) {
		return ref
	}
	return filepath.Join(r.Root, filepath.FromSlash(ref))
}
