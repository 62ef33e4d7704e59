package domain

import "context"

// ViewMode selects which annotation projection and gesture set is active.
type ViewMode int

const (
	// ModeContinuous is the live playback view. Annotations are displayed
	// by time range and gestures other than play/pause/seek are inert.
	ModeContinuous ViewMode = iota
	// ModeFrameAnnotation is the discrete per-frame editing view.
	ModeFrameAnnotation
)

func (m ViewMode) String() string {
	switch m {
	case ModeContinuous:
		return "continuous"
	case ModeFrameAnnotation:
		return "frame-annotation"
	default:
		return "unknown"
	}
}

// Annotation is a tracked bounding-box region of interest (a "polyp") over
// a frame range of a video. Frame numbers are 1-based to match the backend
// convention; a zero Frame means the annotation belongs to the continuous
// playback view and a zero EndFrame means the annotation is still open.
type Annotation struct {
	ID      int64
	VideoID int64

	// Frame anchors the annotation to a single frame in frame-annotation
	// mode. StartFrame..EndFrame is the inclusive range over which the
	// region is considered present.
	Frame      int
	StartFrame int
	EndFrame   int

	// Bounding box in the pixel space of the rendered surface at the time
	// of the last edit.
	X, Y          float64
	Width, Height float64

	Notes string
}

// Open reports whether the annotation is still editable. An annotation with
// EndFrame set is closed: read-only except for notes and delete.
func (a Annotation) Open() bool { return a.EndFrame == 0 }

// FrameInfo describes one extracted frame of a video as reported by the
// frame-listing collaborator. The sequence is ordered and index-addressable;
// the engine never mutates it, only its current-index pointer.
type FrameInfo struct {
	ID   int64  `json:"id"`
	Path string `json:"path"`
}

// AnnotationRecord is the persistence collaborator's wire shape. The field
// names are the stable contract with the backend: the box is carried both as
// corner pair (x1,y1)-(x2,y2) and as width/height, times are in seconds.
type AnnotationRecord struct {
	VideoID   int64    `json:"video_id"`
	FrameID   int64    `json:"frame_id"`
	PolypID   int64    `json:"polyp_id"`
	Label     string   `json:"label"`
	X1        float64  `json:"x1"`
	Y1        float64  `json:"y1"`
	X2        float64  `json:"x2"`
	Y2        float64  `json:"y2"`
	Width     float64  `json:"width"`
	Height    float64  `json:"height"`
	StartTime float64  `json:"start_time"`
	EndTime   *float64 `json:"end_time"`
	Content   string   `json:"content,omitempty"`
}

// VideoMeta is the subset of video metadata the engine consumes: the
// duration bounds the continuous-mode crop range.
type VideoMeta struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

// FrameService lists the extracted frames of a video at a sampling rate and
// serves individual frame images.
type FrameService interface {
	// ListFrames returns the ordered frame descriptors for a video sampled
	// at the given rate.
	ListFrames(ctx context.Context, videoID int64, rate int) ([]FrameInfo, error)

	// FetchFrameImage returns the raw image bytes of one frame.
	FetchFrameImage(ctx context.Context, videoID int64, frameName string) ([]byte, error)
}

// AnnotationService is the persistence collaborator for annotation records.
type AnnotationService interface {
	// FetchAnnotations returns all records stored for a frame. A frame with
	// no annotations yields an empty slice, not an error.
	FetchAnnotations(ctx context.Context, frameID int64) ([]AnnotationRecord, error)

	// CreateOrUpdate upserts a record keyed by (frame, polyp) and returns
	// the persisted copy.
	CreateOrUpdate(ctx context.Context, rec AnnotationRecord) (AnnotationRecord, error)

	// Delete removes the record for a polyp on a frame.
	Delete(ctx context.Context, frameID, polypID int64) error
}

// VideoService exposes the video-level metadata the engine needs.
type VideoService interface {
	// Metadata returns title and duration for a video.
	Metadata(ctx context.Context, videoID int64) (VideoMeta, error)

	// CountPolyps returns the number of distinct polyp identities annotated
	// on a video.
	CountPolyps(ctx context.Context, videoID int64) (int64, error)
}
