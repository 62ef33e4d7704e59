// Package session is the mode controller for one video-viewing session: it
// toggles between continuous playback and discrete frame annotation, owns
// the frame-index pointer and playback position, and drives annotation
// reloads when the frame changes.
//
// All pointer input and external actions go through the session, which
// serializes access to the annotation store it owns, so gesture mutations
// and network completions interleave as if on a single logical thread.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lewtec/polypmark/internal/domain"
	"github.com/lewtec/polypmark/internal/frametime"
	"github.com/lewtec/polypmark/internal/geometry"
	"github.com/lewtec/polypmark/internal/gesture"
	"github.com/lewtec/polypmark/internal/store"
	"github.com/lewtec/polypmark/internal/syncer"
)

// Config assembles a session's collaborators.
type Config struct {
	VideoID     int64
	Frames      domain.FrameService
	Annotations domain.AnnotationService
	Videos      domain.VideoService // optional; bounds the crop range
	Rate        int                 // sampling rate, frametime.DefaultRate when zero
	MinBoxSize  float64
	Logger      *slog.Logger
}

// Session owns the annotation store and interaction state for one video.
type Session struct {
	mu sync.Mutex

	videoID int64
	frames  domain.FrameService
	annos   domain.AnnotationService
	videos  domain.VideoService
	mapper  frametime.Mapper
	log     *slog.Logger

	store *store.Store
	gest  *gesture.Interpreter
	sync  *syncer.Coordinator

	mode      domain.ViewMode
	frameList []domain.FrameInfo
	index     int
	playback  float64
	cropStart float64
	cropEnd   float64
}

// New builds a session in continuous mode with an empty store.
func New(cfg Config) *Session {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		videoID: cfg.VideoID,
		frames:  cfg.Frames,
		annos:   cfg.Annotations,
		videos:  cfg.Videos,
		mapper:  frametime.NewMapper(cfg.Rate),
		log:     log.With("video", cfg.VideoID),
		store:   store.New(),
		mode:    domain.ModeContinuous,
	}
	s.sync = syncer.New(cfg.Annotations, s.mapper, s.log, s.remap)
	s.gest = gesture.New(gesture.Config{
		Store:   s.store,
		IDs:     domain.NewIDSource(),
		VideoID: cfg.VideoID,
		MinSize: cfg.MinBoxSize,
		Commit:  s.commit,
		Discard: s.discard,
	})
	s.gest.SetView(s.mode, 0)
	return s
}

// Sync exposes the coordinator's saving flag and last error for UI
// feedback.
func (s *Session) Sync() *syncer.Coordinator { return s.sync }

// Mapper returns the frame/time mapper the session converts with.
func (s *Session) Mapper() frametime.Mapper { return s.mapper }

// Mode returns the current view mode.
func (s *Session) Mode() domain.ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetSurface updates the pixel bounds annotations are clamped to.
func (s *Session) SetSurface(width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gest.SetBounds(geometry.Bounds{Width: width, Height: height})
}

// Pointer gestures. Each mutation becomes visible in the store before the
// call returns; synchronization runs behind it.

// Press forwards a pointer press at surface coordinates.
func (s *Session) Press(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gest.Press(x, y)
}

// Move forwards a pointer move.
func (s *Session) Move(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gest.Move(x, y)
}

// Release forwards a pointer release.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gest.Release()
}

// Leave forwards the pointer leaving the surface (implicit release).
func (s *Session) Leave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gest.Leave()
}

// GestureState reports the interpreter's state, for rendering.
func (s *Session) GestureState() gesture.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gest.State()
}

// Draft returns the live preview rectangle while drawing.
func (s *Session) Draft() (geometry.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gest.Draft()
}

// End closes an open annotation at the current frame.
func (s *Session) End(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gest.End(id)
}

// Delete removes an annotation locally and from the backend.
func (s *Session) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gest.Delete(id)
}

// DeleteSelected is the keyboard-delete shortcut.
func (s *Session) DeleteSelected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gest.DeleteSelected()
}

// SetNotes replaces an annotation's free-text label.
func (s *Session) SetNotes(id int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gest.SetNotes(id, text)
}

// LoadMetadata fetches the video duration and derives the continuous-mode
// crop range [0, duration]. Without metadata seeking in continuous mode is
// pinned to 0.
func (s *Session) LoadMetadata(ctx context.Context) error {
	if s.videos == nil {
		return nil
	}
	meta, err := s.videos.Metadata(ctx, s.videoID)
	if err != nil {
		return fmt.Errorf("while fetching video metadata: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cropStart = 0
	s.cropEnd = frametime.ParseDuration(meta.Duration)
	return nil
}

// SetCropRange overrides the continuous-mode seek bounds.
func (s *Session) SetCropRange(start, end float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if end < start {
		start, end = end, start
	}
	s.cropStart, s.cropEnd = start, end
	if s.playback < start {
		s.playback = start
	}
	if s.playback > end {
		s.playback = end
	}
}

// EnterFrameMode fetches the frame descriptor sequence for the video at the
// configured sampling rate and switches to frame-annotation mode at frame
// index 0, reloading that frame's annotations. A failed or empty frame list
// is fatal to the transition: the session stays in continuous mode.
func (s *Session) EnterFrameMode(ctx context.Context) error {
	frames, err := s.frames.ListFrames(ctx, s.videoID, s.mapper.Rate())
	if err != nil {
		return fmt.Errorf("while listing frames: %w", err)
	}
	if len(frames) == 0 {
		return &domain.FetchError{Detail: "no frames available for video"}
	}

	s.mu.Lock()
	s.frameList = frames
	s.mode = domain.ModeFrameAnnotation
	s.index = 0
	s.gest.SetView(s.mode, s.index)
	s.mu.Unlock()

	s.log.Info("entered frame-annotation mode", "frames", len(frames))
	return s.reload(ctx)
}

// ExitFrameMode returns to continuous playback. Frame-scoped annotations
// stay in the store; they are keyed by frame and filtered out of the
// continuous view.
func (s *Session) ExitFrameMode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = domain.ModeContinuous
	s.gest.SetView(s.mode, s.index)
	s.log.Info("exited frame-annotation mode")
}

// Seek moves by direction frames. In frame-annotation mode the index is
// clamped to the frame list and the new frame's annotations are reloaded,
// replacing the store's view for that frame. In continuous mode the
// playback position moves by direction/rate seconds within the crop range.
func (s *Session) Seek(ctx context.Context, direction int) error {
	s.mu.Lock()
	if s.mode == domain.ModeContinuous {
		s.playback += float64(direction) / float64(s.mapper.Rate())
		if s.playback < s.cropStart {
			s.playback = s.cropStart
		}
		if s.playback > s.cropEnd {
			s.playback = s.cropEnd
		}
		s.mu.Unlock()
		return nil
	}

	next := s.index + direction
	if next < 0 {
		next = 0
	}
	if next > len(s.frameList)-1 {
		next = len(s.frameList) - 1
	}
	if next == s.index {
		s.mu.Unlock()
		return nil
	}
	s.index = next
	s.gest.SetView(s.mode, s.index)
	s.mu.Unlock()

	return s.reload(ctx)
}

// FrameIndex returns the 0-based frame index; valid in frame mode only.
func (s *Session) FrameIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// CurrentFrame returns the descriptor of the frame under review.
func (s *Session) CurrentFrame() (domain.FrameInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != domain.ModeFrameAnnotation || s.index >= len(s.frameList) {
		return domain.FrameInfo{}, false
	}
	return s.frameList[s.index], true
}

// FrameCount returns the length of the loaded frame sequence.
func (s *Session) FrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frameList)
}

// Playback returns the continuous-mode position in seconds.
func (s *Session) Playback() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playback
}

// Visible returns the annotation projection for the current mode: the
// current frame's annotations in frame mode, only open annotations in
// continuous mode (closed ones never appear there).
func (s *Session) Visible() []domain.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == domain.ModeFrameAnnotation {
		return s.store.FilterByFrame(s.index + 1)
	}
	return s.store.FilterOpen()
}

// All returns every annotation in the store, in insertion order.
func (s *Session) All() []domain.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.List()
}

// Selected returns the selected annotation, if any.
func (s *Session) Selected() (domain.Annotation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.store.Selected(); ok {
		return s.store.Get(id)
	}
	return domain.Annotation{}, false
}

// reload replaces the store's view of the current frame with the backend's
// records. Fetch failure keeps the previous view and surfaces the error.
func (s *Session) reload(ctx context.Context) error {
	s.mu.Lock()
	if s.index >= len(s.frameList) {
		s.mu.Unlock()
		return nil
	}
	frame := s.frameList[s.index]
	idx := s.index
	s.mu.Unlock()

	recs, err := s.annos.FetchAnnotations(ctx, frame.ID)
	if err != nil {
		return fmt.Errorf("while reloading annotations for frame %d: %w", frame.ID, err)
	}

	anns := make([]domain.Annotation, 0, len(recs))
	for _, rec := range recs {
		anns = append(anns, s.hydrate(rec, idx+1))
	}

	s.mu.Lock()
	s.store.ReplaceFrame(idx+1, anns)
	s.mu.Unlock()
	s.log.Debug("reloaded frame annotations", "frame", frame.ID, "count", len(anns))
	return nil
}

// hydrate converts a wire record into store state, mapping stored seconds
// back to frame numbers through the mapper.
func (s *Session) hydrate(rec domain.AnnotationRecord, frame int) domain.Annotation {
	a := domain.Annotation{
		ID:         rec.PolypID,
		VideoID:    rec.VideoID,
		Frame:      frame,
		StartFrame: s.mapper.SecondsToFrame(rec.StartTime),
		X:          rec.X1,
		Y:          rec.Y1,
		Width:      rec.Width,
		Height:     rec.Height,
		Notes:      rec.Content,
	}
	if rec.EndTime != nil {
		a.EndFrame = s.mapper.SecondsToFrame(*rec.EndTime)
	}
	return a
}

// commit is the gesture interpreter's sink: map the mutated annotation to
// its wire record and hand it to the coordinator. Fire-and-forget; requests
// in flight for a previous frame are left to resolve on their own. Runs
// with s.mu held by the gesture entry points.
func (s *Session) commit(a domain.Annotation) {
	frameID, ok := s.frameIDForLocked(a.Frame)
	if !ok {
		s.log.Warn("no frame descriptor for annotation, skipping sync", "polyp", a.ID, "frame", a.Frame)
		return
	}
	s.sync.Push(context.Background(), s.sync.Record(a, frameID))
}

func (s *Session) discard(a domain.Annotation) {
	frameID, ok := s.frameIDForLocked(a.Frame)
	if !ok {
		return
	}
	s.sync.Drop(context.Background(), frameID, a.ID)
}

// remap runs on a coordinator goroutine when the backend persisted a
// client-created annotation under its own identity: rekey the store entry
// so later edits address the server's copy.
func (s *Session) remap(oldID, newID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store.Rekey(oldID, newID) {
		s.log.Debug("reconciled annotation identity", "old", oldID, "new", newID)
	}
}

// frameIDForLocked resolves a 1-based frame number to the backend's frame
// descriptor identity. Caller holds s.mu.
func (s *Session) frameIDForLocked(frame int) (int64, bool) {
	if frame < 1 || frame > len(s.frameList) {
		return 0, false
	}
	return s.frameList[frame-1].ID, true
}
