package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shortsmith/internal/segment"
	"shortsmith/internal/services"
)

const entryColumns = "id, video_url, video_id, original_title, start_seconds, end_seconds, output_path, mode, method, confidence, reason, generated_title, generated_description, generated_hashtags, ai_generated, uploaded, uploaded_video_id, created_at, updated_at"

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// Create inserts entry and returns the stored copy with ID and timestamps set.
func (s *Store) Create(ctx context.Context, entry Entry) (*Entry, error) {
	if strings.TrimSpace(entry.VideoURL) == "" {
		return nil, services.Wrap(services.ErrValidation, "history", "create", "video url is required", nil)
	}
	if strings.TrimSpace(entry.OutputPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "history", "create", "output path is required", nil)
	}
	if entry.EndTime <= entry.StartTime {
		return nil, services.Wrap(services.ErrValidation, "history", "create",
			fmt.Sprintf("end time %.2f must be after start time %.2f", entry.EndTime, entry.StartTime), nil)
	}
	if entry.Mode == "" {
		entry.Mode = "shorts"
	}
	timestamp := s.now().UTC().Format(time.RFC3339Nano)

	res, err := s.exec(
		ctx,
		`INSERT INTO shorts (
            video_url, video_id, original_title, start_seconds, end_seconds, output_path, mode,
            method, confidence, reason, generated_title, generated_description, generated_hashtags,
            ai_generated, uploaded, uploaded_video_id, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.VideoURL,
		nullableString(entry.VideoID),
		nullableString(entry.OriginalTitle),
		entry.StartTime,
		entry.EndTime,
		entry.OutputPath,
		entry.Mode,
		nullableString(string(entry.Method)),
		nullableString(string(entry.Confidence)),
		nullableString(entry.Reason),
		nullableString(entry.GeneratedTitle),
		nullableString(entry.GeneratedDescription),
		nullableString(entry.GeneratedHashtags),
		boolToInt(entry.AIGenerated),
		boolToInt(entry.Uploaded),
		nullableString(entry.UploadedVideoID),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert short: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.Get(ctx, id)
}

// Get fetches an entry by ID. A missing entry is services.ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM shorts WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("get", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get short: %w", err)
	}
	return entry, nil
}

// List returns the newest entries first. limit <= 0 uses DefaultListLimit.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM shorts ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list shorts: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shorts: %w", err)
	}
	return entries, nil
}

// MarkUploaded flags an entry as uploaded under the given platform video ID.
func (s *Store) MarkUploaded(ctx context.Context, id int64, uploadedVideoID string) (*Entry, error) {
	uploadedVideoID = strings.TrimSpace(uploadedVideoID)
	if uploadedVideoID == "" {
		return nil, services.Wrap(services.ErrValidation, "history", "mark uploaded", "uploaded video id is required", nil)
	}
	res, err := s.exec(ctx,
		`UPDATE shorts SET uploaded = 1, uploaded_video_id = ?, updated_at = ? WHERE id = ?`,
		uploadedVideoID, s.now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return nil, fmt.Errorf("mark uploaded: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, notFound("mark uploaded", id)
	}
	return s.Get(ctx, id)
}

// Delete removes an entry and reports whether it existed. The output file is
// left for the caller to clean up.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.exec(ctx, `DELETE FROM shorts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete short: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM shorts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count shorts: %w", err)
	}
	return count, nil
}

func notFound(op string, id int64) error {
	return services.Wrap(services.ErrNotFound, "history", op, fmt.Sprintf("short %d not found", id), nil)
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry           Entry
		videoID         sql.NullString
		originalTitle   sql.NullString
		method          sql.NullString
		confidence      sql.NullString
		reason          sql.NullString
		generatedTitle  sql.NullString
		generatedDesc   sql.NullString
		generatedTags   sql.NullString
		aiGenerated     sql.NullInt64
		uploaded        sql.NullInt64
		uploadedVideoID sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.VideoURL,
		&videoID,
		&originalTitle,
		&entry.StartTime,
		&entry.EndTime,
		&entry.OutputPath,
		&entry.Mode,
		&method,
		&confidence,
		&reason,
		&generatedTitle,
		&generatedDesc,
		&generatedTags,
		&aiGenerated,
		&uploaded,
		&uploadedVideoID,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	entry.VideoID = videoID.String
	entry.OriginalTitle = originalTitle.String
	entry.Method = segment.Method(method.String)
	entry.Confidence = segment.Confidence(confidence.String)
	entry.Reason = reason.String
	entry.GeneratedTitle = generatedTitle.String
	entry.GeneratedDescription = generatedDesc.String
	entry.GeneratedHashtags = generatedTags.String
	entry.AIGenerated = aiGenerated.Valid && aiGenerated.Int64 != 0
	entry.Uploaded = uploaded.Valid && uploaded.Int64 != 0
	entry.UploadedVideoID = uploadedVideoID.String

	if created, err := parseTimeString(createdRaw.String); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		entry.UpdatedAt = updated
	}
	return &entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
