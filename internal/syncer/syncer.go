// Package syncer pushes annotation store mutations to the persistence
// collaborator. Writes are fire-and-forget relative to the caller: the
// interaction stays responsive while a write is outstanding. Per identity at
// most one request is in flight; writes issued behind it are coalesced
// latest-wins. Across identities completions may resolve out of request
// order - the store's in-memory state stays authoritative and the backend
// converges. On failure the local mutation is kept (optimistic updates) and
// the error message is retained for display.
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lewtec/polypmark/internal/domain"
	"github.com/lewtec/polypmark/internal/frametime"
)

// Coordinator serializes writes per annotation identity.
type Coordinator struct {
	svc    domain.AnnotationService
	mapper frametime.Mapper
	log    *slog.Logger

	// onRemap reconciles a client-generated identity with the one the
	// backend persisted, when they differ on first create.
	onRemap func(oldID, newID int64)

	mu       sync.Mutex
	inflight map[int64]*domain.AnnotationRecord
	saving   int
	lastErr  string
	wg       sync.WaitGroup
}

// New returns a coordinator writing through svc. onRemap may be nil.
func New(svc domain.AnnotationService, mapper frametime.Mapper, log *slog.Logger, onRemap func(oldID, newID int64)) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		svc:      svc,
		mapper:   mapper,
		log:      log,
		onRemap:  onRemap,
		inflight: make(map[int64]*domain.AnnotationRecord),
	}
}

// Record maps an annotation and its backend frame identity into the
// collaborator's wire shape: corner pair plus width/height, frame indices
// converted to seconds at the sampling rate.
func (c *Coordinator) Record(a domain.Annotation, frameID int64) domain.AnnotationRecord {
	rec := domain.AnnotationRecord{
		VideoID:   a.VideoID,
		FrameID:   frameID,
		PolypID:   a.ID,
		Label:     "polyp",
		X1:        a.X,
		Y1:        a.Y,
		X2:        a.X + a.Width,
		Y2:        a.Y + a.Height,
		Width:     a.Width,
		Height:    a.Height,
		StartTime: c.mapper.FrameToSeconds(a.StartFrame),
		Content:   a.Notes,
	}
	if a.EndFrame != 0 {
		end := c.mapper.FrameToSeconds(a.EndFrame)
		rec.EndTime = &end
	}
	return rec
}

// Push schedules a create-or-update for the record's polyp identity. If a
// request for that identity is already outstanding the record replaces any
// previously queued one and is sent when the outstanding request resolves.
func (c *Coordinator) Push(ctx context.Context, rec domain.AnnotationRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[rec.PolypID]; busy {
		queued := rec
		c.inflight[rec.PolypID] = &queued
		return
	}
	c.inflight[rec.PolypID] = nil
	c.saving++
	c.wg.Add(1)
	go c.run(ctx, rec)
}

// Drop schedules a delete for a polyp on a frame, independent of any write
// in flight for the same identity.
func (c *Coordinator) Drop(ctx context.Context, frameID, polypID int64) {
	c.mu.Lock()
	c.saving++
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		err := c.svc.Delete(ctx, frameID, polypID)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.saving--
		if err != nil {
			c.lastErr = errMessage(err)
			c.log.Warn("annotation delete failed", "frame", frameID, "polyp", polypID, "error", err)
		}
	}()
}

func (c *Coordinator) run(ctx context.Context, rec domain.AnnotationRecord) {
	defer c.wg.Done()
	id := rec.PolypID
	for {
		resp, err := c.svc.CreateOrUpdate(ctx, rec)

		var remapped int64
		if err == nil && resp.PolypID != rec.PolypID {
			remapped = resp.PolypID
		}
		if remapped != 0 && c.onRemap != nil {
			// The callback re-keys the store; it must run before another
			// write for this identity is issued.
			c.onRemap(rec.PolypID, remapped)
		}

		c.mu.Lock()
		if err != nil {
			c.lastErr = errMessage(err)
			c.log.Warn("annotation save failed", "polyp", rec.PolypID, "error", err)
		} else {
			c.lastErr = ""
		}
		pending := c.inflight[id]
		if pending == nil {
			delete(c.inflight, id)
			c.saving--
			c.mu.Unlock()
			return
		}
		c.inflight[id] = nil
		rec = *pending
		if remapped != 0 {
			rec.PolypID = remapped
		}
		c.mu.Unlock()
	}
}

// Saving reports whether any write or delete is outstanding, for UI
// feedback.
func (c *Coordinator) Saving() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saving > 0
}

// LastError returns the most recent failure message, empty once a
// subsequent write succeeds.
func (c *Coordinator) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Wait blocks until every scheduled request has resolved. Intended for
// tests and orderly shutdown; the interactive path never waits.
func (c *Coordinator) Wait() { c.wg.Wait() }

func errMessage(err error) string {
	var fe *domain.FetchError
	if errors.As(err, &fe) && fe.Detail != "" {
		return fe.Detail
	}
	return err.Error()
}
