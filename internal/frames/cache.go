// Package frames caches per-frame images fetched from the backend on a
// billy filesystem, so stepping back and forth through a video does not
// refetch every frame. Production uses an osfs rooted at the cache dir;
// tests use memfs.
package frames

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/util"

	"github.com/lewtec/polypmark/internal/domain"
)

// Cache is a read-through image cache over a FrameService.
type Cache struct {
	fs  billy.Filesystem
	svc domain.FrameService
	log *slog.Logger
}

// New returns a cache storing images on fs.
func New(fs billy.Filesystem, svc domain.FrameService, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{fs: fs, svc: svc, log: log}
}

// Image returns the bytes of one frame image, fetching and caching on
// first use. Fetched bytes must decode as an image before they are cached.
func (c *Cache) Image(ctx context.Context, videoID int64, frame domain.FrameInfo) ([]byte, error) {
	name := c.entryName(videoID, frame)

	if data, err := util.ReadFile(c.fs, name); err == nil {
		return data, nil
	} else if !os.IsNotExist(err) {
		c.log.Warn("frame cache read failed, refetching", "entry", name, "error", err)
	}

	data, err := c.svc.FetchFrameImage(ctx, videoID, path.Base(frame.Path))
	if err != nil {
		return nil, err
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("while checking frame %d is an image: %w", frame.ID, err)
	}

	if err := c.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		c.log.Warn("frame cache dir create failed", "entry", name, "error", err)
		return data, nil
	}
	if err := util.WriteFile(c.fs, name, data, 0o644); err != nil {
		// serving the image matters more than caching it
		c.log.Warn("frame cache write failed", "entry", name, "error", err)
	}
	return data, nil
}

// Evict drops every cached frame of a video.
func (c *Cache) Evict(videoID int64) error {
	dir := fmt.Sprintf("video_%d", videoID)
	if err := util.RemoveAll(c.fs, dir); err != nil {
		return fmt.Errorf("while evicting cached frames for video %d: %w", videoID, err)
	}
	return nil
}

func (c *Cache) entryName(videoID int64, frame domain.FrameInfo) string {
	return path.Join(fmt.Sprintf("video_%d", videoID), path.Base(frame.Path))
}
