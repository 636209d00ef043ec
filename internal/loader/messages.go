package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"medwarehouse/pkg/database"
	sqlschema "medwarehouse/pkg/database/sql"
	"medwarehouse/pkg/logging"
	"medwarehouse/pkg/validation"
)

const messageBatchSize = 500

// MessagesResult counts what one message load pass did.
type MessagesResult struct {
	Files      int
	Records    int
	Inserted   int64
	Conflicted int64
	Invalid    int
}

// MessagesLoader lands scraped channel message JSON files into
// raw.telegram_messages. Files hold one object or an array of them;
// re-loading the same scrape is harmless because the primary key conflict
// leaves existing rows untouched.
type MessagesLoader struct {
	db        database.PostgresConn
	validator *validation.RecordValidator
	logger    logging.Logger
	metrics   *Metrics
	batchSize int
}

func NewMessagesLoader(db database.PostgresConn, logger logging.Logger, metrics *Metrics) *MessagesLoader {
	return &MessagesLoader{
		db:        db,
		validator: validation.NewRecordValidator(),
		logger:    logger,
		metrics:   metrics,
		batchSize: messageBatchSize,
	}
}

// EnsureSchema creates the raw schema and landing tables when absent.
func EnsureSchema(ctx context.Context, db database.PostgresConn) error {
	statements, err := sqlschema.Statements("postgres/raw.sql")
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create raw schema: %w", err)
		}
	}
	return nil
}

// LoadDir walks dir recursively for *.json scrape files, skipping scraper
// manifest files, validates every record and lands the valid ones.
func (l *MessagesLoader) LoadDir(ctx context.Context, dir string) (*MessagesResult, error) {
	result := &MessagesResult{}
	var batch []validation.ScrapedMessage

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") || strings.HasSuffix(d.Name(), "_manifest.json") {
			return nil
		}

		records, err := readMessageFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		result.Files++

		for _, rec := range records {
			result.Records++
			if err := l.validator.ValidateMessage(&rec); err != nil {
				result.Invalid++
				l.metrics.observeRecords("messages", "invalid", 1)
				l.logger.WithFields(logging.Fields{
					"file":  filepath.Base(path),
					"error": err.Error(),
				}).Debug("Skipping invalid message record")
				continue
			}
			batch = append(batch, rec)
			if len(batch) >= l.batchSize {
				if err := l.insertBatch(ctx, batch, result); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(batch) > 0 {
		if err := l.insertBatch(ctx, batch, result); err != nil {
			return nil, err
		}
	}

	l.logger.WithFields(logging.Fields{
		"files":      result.Files,
		"records":    result.Records,
		"inserted":   result.Inserted,
		"conflicted": result.Conflicted,
		"invalid":    result.Invalid,
	}).Info("Message load complete")
	return result, nil
}

// readMessageFile parses one scrape file, accepting either a single
// message object or an array of them.
func readMessageFile(path string) ([]validation.ScrapedMessage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var records []validation.ScrapedMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var record validation.ScrapedMessage
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return nil, err
	}
	return []validation.ScrapedMessage{record}, nil
}

const messageColumnCount = 9

func (l *MessagesLoader) insertBatch(ctx context.Context, batch []validation.ScrapedMessage, result *MessagesResult) error {
	start := time.Now()
	placeholders := make([]string, 0, len(batch))
	args := make([]any, 0, len(batch)*messageColumnCount)
	for i, rec := range batch {
		base := i * messageColumnCount
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
		args = append(args,
			*rec.MessageID,
			rec.ChannelName,
			rec.ChannelTitle,
			rec.MessageDate,
			rec.MessageText,
			int64OrZero(rec.Views),
			int64OrZero(rec.Forwards),
			rec.HasMedia,
			rec.ImagePath,
		)
	}

	query := fmt.Sprintf(`INSERT INTO raw.telegram_messages
(message_id, channel_username, channel_title, message_date, message_text, views, forwards, has_media, image_path)
VALUES %s
ON CONFLICT (message_id, channel_username) DO NOTHING`, strings.Join(placeholders, ", "))

	res, err := l.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert message batch: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("count inserted messages: %w", err)
	}
	result.Inserted += inserted
	result.Conflicted += int64(len(batch)) - inserted

	l.metrics.observeRecords("messages", "inserted", inserted)
	l.metrics.observeRecords("messages", "conflicted", int64(len(batch))-inserted)
	l.metrics.observeBatch("messages", time.Since(start))
	return nil
}

func int64OrZero(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}
