package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/lewtec/polypmark/internal/domain"
	"github.com/lewtec/polypmark/internal/gesture"
)

type fakeFrames struct {
	frames []domain.FrameInfo
	err    error
}

func (f *fakeFrames) ListFrames(ctx context.Context, videoID int64, rate int) ([]domain.FrameInfo, error) {
	return f.frames, f.err
}

func (f *fakeFrames) FetchFrameImage(ctx context.Context, videoID int64, frameName string) ([]byte, error) {
	return nil, nil
}

type fakeAnnotations struct {
	mu      sync.Mutex
	byFrame map[int64][]domain.AnnotationRecord
	saves   []domain.AnnotationRecord
	deletes [][2]int64
	remapTo int64
	fetchErr error
}

func (f *fakeAnnotations) FetchAnnotations(ctx context.Context, frameID int64) ([]domain.AnnotationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.byFrame[frameID], nil
}

// CreateOrUpdate mirrors the real backend: upsert keyed (frame, polyp), so
// a later FetchAnnotations returns what was saved.
func (f *fakeAnnotations) CreateOrUpdate(ctx context.Context, rec domain.AnnotationRecord) (domain.AnnotationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, rec)
	if f.remapTo != 0 {
		rec.PolypID = f.remapTo
	}
	if f.byFrame == nil {
		f.byFrame = make(map[int64][]domain.AnnotationRecord)
	}
	for i, existing := range f.byFrame[rec.FrameID] {
		if existing.PolypID == rec.PolypID {
			f.byFrame[rec.FrameID][i] = rec
			return rec, nil
		}
	}
	f.byFrame[rec.FrameID] = append(f.byFrame[rec.FrameID], rec)
	return rec, nil
}

func (f *fakeAnnotations) Delete(ctx context.Context, frameID, polypID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, [2]int64{frameID, polypID})
	return nil
}

func tenFrames() []domain.FrameInfo {
	frames := make([]domain.FrameInfo, 10)
	for i := range frames {
		frames[i] = domain.FrameInfo{ID: int64(100 + i), Path: "frame_000" + string(rune('0'+i)) + ".jpg"}
	}
	return frames
}

func newTestSession(t *testing.T, frames *fakeFrames, annos *fakeAnnotations) *Session {
	t.Helper()
	s := New(Config{
		VideoID:     1,
		Frames:      frames,
		Annotations: annos,
		Rate:        30,
	})
	s.SetSurface(640, 480)
	return s
}

func TestEnterFrameMode(t *testing.T) {
	annos := &fakeAnnotations{byFrame: map[int64][]domain.AnnotationRecord{
		100: {{VideoID: 1, FrameID: 100, PolypID: 7, X1: 10, Y1: 20, Width: 50, Height: 40, StartTime: 1.0 / 30.0}},
	}}
	s := newTestSession(t, &fakeFrames{frames: tenFrames()}, annos)

	if err := s.EnterFrameMode(context.Background()); err != nil {
		t.Fatalf("EnterFrameMode() error = %v", err)
	}
	if s.Mode() != domain.ModeFrameAnnotation {
		t.Errorf("Mode() = %v, want frame-annotation", s.Mode())
	}
	if s.FrameIndex() != 0 {
		t.Errorf("FrameIndex() = %d, want 0", s.FrameIndex())
	}

	anns := s.Visible()
	if len(anns) != 1 {
		t.Fatalf("Visible() returned %d annotations, want 1 hydrated from the backend", len(anns))
	}
	a := anns[0]
	if a.ID != 7 || a.X != 10 || a.Y != 20 || a.Width != 50 || a.Height != 40 {
		t.Errorf("hydrated annotation = %+v", a)
	}
	if a.StartFrame != 1 {
		t.Errorf("StartFrame = %d, want 1 (from start_time)", a.StartFrame)
	}
	if !a.Open() {
		t.Error("record without end_time must hydrate open")
	}
}

func TestEnterFrameModeFailureIsFatal(t *testing.T) {
	t.Run("list error", func(t *testing.T) {
		s := newTestSession(t, &fakeFrames{err: &domain.FetchError{Status: 500}}, &fakeAnnotations{})
		if err := s.EnterFrameMode(context.Background()); err == nil {
			t.Fatal("EnterFrameMode() = nil, want error")
		}
		if s.Mode() != domain.ModeContinuous {
			t.Error("failed transition must leave the session in continuous mode")
		}
	})

	t.Run("empty frame set", func(t *testing.T) {
		s := newTestSession(t, &fakeFrames{}, &fakeAnnotations{})
		err := s.EnterFrameMode(context.Background())
		var fe *domain.FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("EnterFrameMode() = %v, want FetchError", err)
		}
		if s.Mode() != domain.ModeContinuous {
			t.Error("empty frame set must not enter frame mode")
		}
	})
}

func TestSeekFrameMode(t *testing.T) {
	annos := &fakeAnnotations{byFrame: map[int64][]domain.AnnotationRecord{
		102: {{VideoID: 1, FrameID: 102, PolypID: 9, Width: 30, Height: 30, StartTime: 0.1}},
	}}
	s := newTestSession(t, &fakeFrames{frames: tenFrames()}, annos)
	if err := s.EnterFrameMode(context.Background()); err != nil {
		t.Fatalf("EnterFrameMode() error = %v", err)
	}

	if err := s.Seek(context.Background(), 2); err != nil {
		t.Fatalf("Seek(2) error = %v", err)
	}
	if s.FrameIndex() != 2 {
		t.Errorf("FrameIndex() = %d, want 2", s.FrameIndex())
	}
	if got := s.Visible(); len(got) != 1 || got[0].ID != 9 {
		t.Errorf("Visible() = %+v, want the reloaded frame view", got)
	}

	t.Run("clamped at the end", func(t *testing.T) {
		if err := s.Seek(context.Background(), 100); err != nil {
			t.Fatalf("Seek(100) error = %v", err)
		}
		if s.FrameIndex() != 9 {
			t.Errorf("FrameIndex() = %d, want 9", s.FrameIndex())
		}
	})

	t.Run("clamped at the start", func(t *testing.T) {
		if err := s.Seek(context.Background(), -100); err != nil {
			t.Fatalf("Seek(-100) error = %v", err)
		}
		if s.FrameIndex() != 0 {
			t.Errorf("FrameIndex() = %d, want 0", s.FrameIndex())
		}
	})
}

func TestSeekContinuousMode(t *testing.T) {
	s := newTestSession(t, &fakeFrames{frames: tenFrames()}, &fakeAnnotations{})
	s.SetCropRange(0, 2)

	if err := s.Seek(context.Background(), 30); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if got := s.Playback(); got != 1 {
		t.Errorf("Playback() = %v, want 1 (30 frames at rate 30)", got)
	}

	if err := s.Seek(context.Background(), 3000); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if got := s.Playback(); got != 2 {
		t.Errorf("Playback() = %v, want crop end 2", got)
	}

	if err := s.Seek(context.Background(), -9000); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if got := s.Playback(); got != 0 {
		t.Errorf("Playback() = %v, want crop start 0", got)
	}
}

func TestDrawSyncsThroughCoordinator(t *testing.T) {
	annos := &fakeAnnotations{}
	s := newTestSession(t, &fakeFrames{frames: tenFrames()}, annos)
	if err := s.EnterFrameMode(context.Background()); err != nil {
		t.Fatalf("EnterFrameMode() error = %v", err)
	}

	s.Press(50, 50)
	s.Move(150, 120)
	s.Release()
	s.Sync().Wait()

	annos.mu.Lock()
	defer annos.mu.Unlock()
	if len(annos.saves) != 1 {
		t.Fatalf("backend saw %d writes, want 1", len(annos.saves))
	}
	rec := annos.saves[0]
	if rec.FrameID != 100 {
		t.Errorf("FrameID = %d, want the descriptor id 100", rec.FrameID)
	}
	if rec.X1 != 50 || rec.Y1 != 50 || rec.X2 != 150 || rec.Y2 != 120 {
		t.Errorf("corners = (%v,%v)-(%v,%v)", rec.X1, rec.Y1, rec.X2, rec.Y2)
	}
	if rec.StartTime != 1.0/30.0 {
		t.Errorf("StartTime = %v, want frame 1 at rate 30", rec.StartTime)
	}
	if rec.EndTime != nil {
		t.Error("open annotation must not carry end_time")
	}
}

func TestServerIdentityIsReconciled(t *testing.T) {
	annos := &fakeAnnotations{remapTo: 8888}
	s := newTestSession(t, &fakeFrames{frames: tenFrames()}, annos)
	if err := s.EnterFrameMode(context.Background()); err != nil {
		t.Fatalf("EnterFrameMode() error = %v", err)
	}

	s.Press(50, 50)
	s.Move(150, 120)
	s.Release()
	s.Sync().Wait()

	anns := s.Visible()
	if len(anns) != 1 {
		t.Fatalf("Visible() returned %d annotations, want 1", len(anns))
	}
	if anns[0].ID != 8888 {
		t.Errorf("ID = %d, want server identity 8888", anns[0].ID)
	}
}

func TestDeleteReachesBackend(t *testing.T) {
	annos := &fakeAnnotations{}
	s := newTestSession(t, &fakeFrames{frames: tenFrames()}, annos)
	if err := s.EnterFrameMode(context.Background()); err != nil {
		t.Fatalf("EnterFrameMode() error = %v", err)
	}

	s.Press(50, 50)
	s.Move(150, 120)
	s.Release()
	id := s.Visible()[0].ID

	s.Delete(id)
	s.Sync().Wait()

	if len(s.Visible()) != 0 {
		t.Error("annotation still visible after delete")
	}
	annos.mu.Lock()
	defer annos.mu.Unlock()
	if len(annos.deletes) != 1 || annos.deletes[0][0] != 100 {
		t.Errorf("deletes = %v, want one delete on frame 100", annos.deletes)
	}
}

func TestModeSwitchPreservesFrameAnnotations(t *testing.T) {
	annos := &fakeAnnotations{}
	s := newTestSession(t, &fakeFrames{frames: tenFrames()}, annos)
	if err := s.EnterFrameMode(context.Background()); err != nil {
		t.Fatalf("EnterFrameMode() error = %v", err)
	}

	// one open, one closed
	s.Press(50, 50)
	s.Move(150, 120)
	s.Release()
	openID := s.Visible()[0].ID

	s.Press(300, 300)
	s.Move(400, 380)
	s.Release()
	var closedID int64
	for _, a := range s.Visible() {
		if a.ID != openID {
			closedID = a.ID
		}
	}
	if err := s.End(closedID); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	s.Sync().Wait() // let the writes land before leaving the frame view
	s.ExitFrameMode()
	if s.Mode() != domain.ModeContinuous {
		t.Fatalf("Mode() = %v, want continuous", s.Mode())
	}

	cont := s.Visible()
	if len(cont) != 1 || cont[0].ID != openID {
		t.Errorf("continuous view = %+v, want only the open annotation", cont)
	}
	for _, a := range cont {
		if a.EndFrame != 0 {
			t.Error("continuous view must never include closed annotations")
		}
	}

	if err := s.EnterFrameMode(context.Background()); err != nil {
		t.Fatalf("re-EnterFrameMode() error = %v", err)
	}
	if got := len(s.All()); got != 2 {
		t.Errorf("All() = %d annotations after round trip, want 2 (none lost)", got)
	}
}

func TestReloadReplacesNotMerges(t *testing.T) {
	annos := &fakeAnnotations{byFrame: map[int64][]domain.AnnotationRecord{
		100: {{VideoID: 1, FrameID: 100, PolypID: 1, StartTime: 1.0 / 30.0}},
	}}
	s := newTestSession(t, &fakeFrames{frames: tenFrames()}, annos)
	if err := s.EnterFrameMode(context.Background()); err != nil {
		t.Fatalf("EnterFrameMode() error = %v", err)
	}
	if len(s.Visible()) != 1 {
		t.Fatal("expected one annotation on frame 0")
	}

	// the backend view changes while we are away
	annos.mu.Lock()
	annos.byFrame[100] = []domain.AnnotationRecord{
		{VideoID: 1, FrameID: 100, PolypID: 2, StartTime: 1.0 / 30.0},
		{VideoID: 1, FrameID: 100, PolypID: 3, StartTime: 1.0 / 30.0},
	}
	annos.mu.Unlock()

	if err := s.Seek(context.Background(), 1); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if err := s.Seek(context.Background(), -1); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}

	ids := map[int64]bool{}
	for _, a := range s.Visible() {
		ids[a.ID] = true
	}
	if len(ids) != 2 || ids[1] {
		t.Errorf("frame view after reload = %v, want replaced {2,3}", ids)
	}
}

func TestGestureStateExposed(t *testing.T) {
	s := newTestSession(t, &fakeFrames{frames: tenFrames()}, &fakeAnnotations{})
	if err := s.EnterFrameMode(context.Background()); err != nil {
		t.Fatalf("EnterFrameMode() error = %v", err)
	}
	s.Press(10, 10)
	if s.GestureState() != gesture.StateDrawing {
		t.Errorf("GestureState() = %v, want drawing", s.GestureState())
	}
	if _, ok := s.Draft(); !ok {
		t.Error("Draft() should report a live preview while drawing")
	}
	s.Release()
}
