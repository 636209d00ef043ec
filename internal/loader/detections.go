package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"medwarehouse/pkg/database"
	"medwarehouse/pkg/logging"
	"medwarehouse/pkg/validation"
)

const detectionBatchSize = 1000

// DetectionsResult counts what one detection load pass did.
type DetectionsResult struct {
	Records    int
	Inserted   int64
	Conflicted int64
	Invalid    int
}

// DetectionsLoader lands the externally produced image-detection CSV into
// raw.image_detections.
type DetectionsLoader struct {
	db        database.PostgresConn
	validator *validation.RecordValidator
	logger    logging.Logger
	metrics   *Metrics
	batchSize int
}

func NewDetectionsLoader(db database.PostgresConn, logger logging.Logger, metrics *Metrics) *DetectionsLoader {
	return &DetectionsLoader{
		db:        db,
		validator: validation.NewRecordValidator(),
		logger:    logger,
		metrics:   metrics,
		batchSize: detectionBatchSize,
	}
}

// LoadFile reads the CSV at path and lands every valid row. Columns are
// located by header name, so extra columns and reordering are tolerated.
func (l *DetectionsLoader) LoadFile(ctx context.Context, path string) (*DetectionsResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open detections file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read detections header: %w", err)
	}
	idx, err := detectionColumnIndex(header)
	if err != nil {
		return nil, err
	}

	result := &DetectionsResult{}
	var batch []validation.DetectionRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read detections row: %w", err)
		}
		result.Records++

		row, err := parseDetectionRow(record, idx)
		if err == nil {
			err = l.validator.ValidateDetection(row)
		}
		if err != nil {
			result.Invalid++
			l.metrics.observeRecords("detections", "invalid", 1)
			l.logger.WithFields(logging.Fields{
				"row":   result.Records,
				"error": err.Error(),
			}).Debug("Skipping invalid detection row")
			continue
		}

		batch = append(batch, *row)
		if len(batch) >= l.batchSize {
			if err := l.insertBatch(ctx, batch, result); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := l.insertBatch(ctx, batch, result); err != nil {
			return nil, err
		}
	}

	l.logger.WithFields(logging.Fields{
		"records":    result.Records,
		"inserted":   result.Inserted,
		"conflicted": result.Conflicted,
		"invalid":    result.Invalid,
	}).Info("Detection load complete")
	return result, nil
}

type detectionIndex struct {
	messageID  int
	class      int
	confidence int
	category   int
}

func detectionColumnIndex(header []string) (detectionIndex, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(strings.ToLower(name))] = i
	}

	idx := detectionIndex{}
	required := []struct {
		name string
		dst  *int
	}{
		{"message_id", &idx.messageID},
		{"detected_class", &idx.class},
		{"confidence_score", &idx.confidence},
		{"image_category", &idx.category},
	}
	for _, col := range required {
		i, ok := pos[col.name]
		if !ok {
			return idx, fmt.Errorf("detections file missing %s column", col.name)
		}
		*col.dst = i
	}
	return idx, nil
}

func parseDetectionRow(record []string, idx detectionIndex) (*validation.DetectionRow, error) {
	for _, i := range []int{idx.messageID, idx.class, idx.confidence, idx.category} {
		if i >= len(record) {
			return nil, fmt.Errorf("row has %d fields, need at least %d", len(record), i+1)
		}
	}

	messageID, err := strconv.ParseInt(strings.TrimSpace(record[idx.messageID]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad message_id: %w", err)
	}
	confidence, err := strconv.ParseFloat(strings.TrimSpace(record[idx.confidence]), 64)
	if err != nil {
		return nil, fmt.Errorf("bad confidence_score: %w", err)
	}
	return &validation.DetectionRow{
		MessageID:       messageID,
		DetectedClass:   strings.TrimSpace(record[idx.class]),
		ConfidenceScore: confidence,
		ImageCategory:   strings.TrimSpace(record[idx.category]),
	}, nil
}

const detectionColumnCount = 4

func (l *DetectionsLoader) insertBatch(ctx context.Context, batch []validation.DetectionRow, result *DetectionsResult) error {
	start := time.Now()
	placeholders := make([]string, 0, len(batch))
	args := make([]any, 0, len(batch)*detectionColumnCount)
	for i, row := range batch {
		base := i * detectionColumnCount
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4))
		args = append(args, row.MessageID, row.DetectedClass, row.ConfidenceScore, row.ImageCategory)
	}

	query := fmt.Sprintf(`INSERT INTO raw.image_detections
(message_id, detected_class, confidence_score, image_category)
VALUES %s
ON CONFLICT (message_id, detected_class) DO NOTHING`, strings.Join(placeholders, ", "))

	res, err := l.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert detection batch: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("count inserted detections: %w", err)
	}
	result.Inserted += inserted
	result.Conflicted += int64(len(batch)) - inserted

	l.metrics.observeRecords("detections", "inserted", inserted)
	l.metrics.observeRecords("detections", "conflicted", int64(len(batch))-inserted)
	l.metrics.observeBatch("detections", time.Since(start))
	return nil
}
