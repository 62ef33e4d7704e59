// Package repository is the local sqlite mirror of the backend's annotation
// records. It backs the offline pull/query/export workflows and doubles as
// a second AnnotationService implementation for review without a backend.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lewtec/polypmark/internal/domain"
)

// AnnotationRepository stores annotation records in sqlite, keyed by
// (frame, polyp) like the backend.
type AnnotationRepository struct {
	db *sql.DB
}

// NewAnnotationRepository wraps an open database. The schema must already
// be migrated; see Migrate.
func NewAnnotationRepository(db *sql.DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

const annotationColumns = "video_id, frame_id, polyp_id, label, x1, y1, x2, y2, width, height, start_time, end_time, content"

// CreateOrUpdate upserts a record on its (frame, polyp) key and returns the
// stored copy.
func (r *AnnotationRepository) CreateOrUpdate(ctx context.Context, rec domain.AnnotationRecord) (domain.AnnotationRecord, error) {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO annotations (`+annotationColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(frame_id, polyp_id) DO UPDATE SET
  label=excluded.label,
  x1=excluded.x1, y1=excluded.y1, x2=excluded.x2, y2=excluded.y2,
  width=excluded.width, height=excluded.height,
  start_time=excluded.start_time, end_time=excluded.end_time,
  content=excluded.content
`, rec.VideoID, rec.FrameID, rec.PolypID, rec.Label,
		rec.X1, rec.Y1, rec.X2, rec.Y2, rec.Width, rec.Height,
		rec.StartTime, rec.EndTime, nullString(rec.Content))
	if err != nil {
		return domain.AnnotationRecord{}, fmt.Errorf("while upserting annotation (frame %d, polyp %d): %w", rec.FrameID, rec.PolypID, err)
	}
	return rec, nil
}

// Get retrieves one record by its (frame, polyp) key, nil when absent.
func (r *AnnotationRepository) Get(ctx context.Context, frameID, polypID int64) (*domain.AnnotationRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+annotationColumns+` FROM annotations WHERE frame_id = ? AND polyp_id = ?
`, frameID, polypID)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("while fetching annotation (frame %d, polyp %d): %w", frameID, polypID, err)
	}
	return &rec, nil
}

// FetchAnnotations returns all records on a frame, insertion order.
func (r *AnnotationRepository) FetchAnnotations(ctx context.Context, frameID int64) ([]domain.AnnotationRecord, error) {
	return r.query(ctx, `
SELECT `+annotationColumns+` FROM annotations WHERE frame_id = ? ORDER BY id
`, frameID)
}

// ListByVideo returns every record of a video ordered by frame then
// insertion.
func (r *AnnotationRepository) ListByVideo(ctx context.Context, videoID int64) ([]domain.AnnotationRecord, error) {
	return r.query(ctx, `
SELECT `+annotationColumns+` FROM annotations WHERE video_id = ? ORDER BY frame_id, id
`, videoID)
}

// Delete removes the record for a polyp on a frame. Deleting an absent
// record is not an error.
func (r *AnnotationRepository) Delete(ctx context.Context, frameID, polypID int64) error {
	_, err := r.db.ExecContext(ctx, `
DELETE FROM annotations WHERE frame_id = ? AND polyp_id = ?
`, frameID, polypID)
	if err != nil {
		return fmt.Errorf("while deleting annotation (frame %d, polyp %d): %w", frameID, polypID, err)
	}
	return nil
}

// CountPolyps returns the number of distinct polyp identities on a video.
func (r *AnnotationRepository) CountPolyps(ctx context.Context, videoID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(DISTINCT polyp_id) FROM annotations WHERE video_id = ?
`, videoID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("while counting polyps for video %d: %w", videoID, err)
	}
	return n, nil
}

// Frames returns the distinct frame identities of a video that carry
// annotations, ascending.
func (r *AnnotationRepository) Frames(ctx context.Context, videoID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT frame_id FROM annotations WHERE video_id = ? ORDER BY frame_id
`, videoID)
	if err != nil {
		return nil, fmt.Errorf("while listing annotated frames for video %d: %w", videoID, err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Videos returns the distinct videos present in the database, ascending.
func (r *AnnotationRepository) Videos(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT video_id FROM annotations ORDER BY video_id
`)
	if err != nil {
		return nil, fmt.Errorf("while listing videos: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *AnnotationRepository) query(ctx context.Context, q string, args ...any) ([]domain.AnnotationRecord, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("while querying annotations: %w", err)
	}
	defer rows.Close()

	var recs []domain.AnnotationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("while scanning annotation row: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (domain.AnnotationRecord, error) {
	var rec domain.AnnotationRecord
	var endTime sql.NullFloat64
	var content sql.NullString
	err := s.Scan(&rec.VideoID, &rec.FrameID, &rec.PolypID, &rec.Label,
		&rec.X1, &rec.Y1, &rec.X2, &rec.Y2, &rec.Width, &rec.Height,
		&rec.StartTime, &endTime, &content)
	if err != nil {
		return rec, err
	}
	if endTime.Valid {
		rec.EndTime = &endTime.Float64
	}
	rec.Content = content.String
	return rec, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Verify the repository can stand in for the backend.
var _ domain.AnnotationService = (*AnnotationRepository)(nil)
