package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"medwarehouse/pkg/database"
	"medwarehouse/pkg/logging"
	"medwarehouse/pkg/models"
)

// Reader loads the raw landed datasets from Postgres for a pipeline run.
// Rows come back in a stable order so rebuilds see identical input.
type Reader struct {
	db     database.PostgresConn
	logger logging.Logger
}

func NewReader(db database.PostgresConn, logger logging.Logger) *Reader {
	return &Reader{db: db, logger: logger}
}

const rawMessagesQuery = `
SELECT message_id, channel_username, channel_title, message_date, message_text,
       views, forwards, has_media, image_path, loaded_at
FROM raw.telegram_messages
ORDER BY message_id, channel_username`

// RawMessages reads the complete landed message set. NULLs survive as nil
// pointers; the staging normalizer decides what to do with them.
func (r *Reader) RawMessages(ctx context.Context) ([]models.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx, rawMessagesQuery)
	if err != nil {
		return nil, fmt.Errorf("query raw messages: %w", err)
	}
	defer rows.Close()

	var messages []models.RawMessage
	for rows.Next() {
		var (
			messageID   sql.NullInt64
			username    sql.NullString
			title       sql.NullString
			messageDate sql.NullTime
			text        sql.NullString
			views       sql.NullInt64
			forwards    sql.NullInt64
			hasMedia    sql.NullBool
			imagePath   sql.NullString
			loadedAt    sql.NullTime
		)
		if err := rows.Scan(&messageID, &username, &title, &messageDate, &text,
			&views, &forwards, &hasMedia, &imagePath, &loadedAt); err != nil {
			return nil, fmt.Errorf("scan raw message: %w", err)
		}
		messages = append(messages, models.RawMessage{
			MessageID:       nullInt64Ptr(messageID),
			ChannelUsername: nullStringPtr(username),
			ChannelTitle:    nullStringPtr(title),
			MessageDate:     nullTimePtr(messageDate),
			MessageText:     nullStringPtr(text),
			Views:           nullInt64Ptr(views),
			Forwards:        nullInt64Ptr(forwards),
			HasMedia:        nullBoolPtr(hasMedia),
			ImagePath:       nullStringPtr(imagePath),
			LoadedAt:        nullTimePtr(loadedAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw messages: %w", err)
	}

	r.logger.WithFields(logging.Fields{"rows": len(messages)}).Debug("Raw messages loaded")
	return messages, nil
}

const detectionsQuery = `
SELECT message_id, detected_class, confidence_score, image_category
FROM raw.image_detections
WHERE message_id IS NOT NULL
ORDER BY message_id, detected_class`

// Detections reads the externally produced image-classification dataset.
func (r *Reader) Detections(ctx context.Context) ([]models.DetectionRecord, error) {
	rows, err := r.db.QueryContext(ctx, detectionsQuery)
	if err != nil {
		return nil, fmt.Errorf("query detections: %w", err)
	}
	defer rows.Close()

	var detections []models.DetectionRecord
	for rows.Next() {
		var (
			det        models.DetectionRecord
			confidence sql.NullFloat64
			category   sql.NullString
		)
		if err := rows.Scan(&det.MessageID, &det.DetectedClass, &confidence, &category); err != nil {
			return nil, fmt.Errorf("scan detection: %w", err)
		}
		det.ConfidenceScore = confidence.Float64
		det.ImageCategory = category.String
		detections = append(detections, det)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate detections: %w", err)
	}

	r.logger.WithFields(logging.Fields{"rows": len(detections)}).Debug("Detections loaded")
	return detections, nil
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullBoolPtr(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	return &v.Bool
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}
