package pipeline

import (
	"strings"
	"time"
	"unicode/utf8"

	"medwarehouse/pkg/models"
)

// StagingResult carries the normalized rows together with the counted
// exclusions, so nothing leaves the pipeline without a number attached.
type StagingResult struct {
	Rows               []models.StagedMessage
	DroppedNonMessages int
	RejectedRows       int
}

// NormalizeMessages cleans and types raw landed rows into canonical staged
// messages. Rows without an identifier or text are service events rather
// than messages and are dropped; rows missing the post timestamp are
// malformed and rejected without failing the batch. Character length is
// measured on the text as landed, word count on the trimmed text.
func NormalizeMessages(raws []models.RawMessage, buildTime time.Time) StagingResult {
	result := StagingResult{Rows: make([]models.StagedMessage, 0, len(raws))}
	transformedAt := buildTime.UTC()

	for _, raw := range raws {
		if raw.MessageID == nil || raw.MessageText == nil {
			result.DroppedNonMessages++
			continue
		}
		if raw.MessageDate == nil {
			result.RejectedRows++
			continue
		}

		rawText := *raw.MessageText
		content := strings.TrimSpace(rawText)

		loadedAt := transformedAt
		if raw.LoadedAt != nil {
			loadedAt = raw.LoadedAt.UTC()
		}

		result.Rows = append(result.Rows, models.StagedMessage{
			MessageID:       *raw.MessageID,
			ChannelUsername: stringOrEmpty(raw.ChannelUsername),
			ChannelTitle:    stringOrEmpty(raw.ChannelTitle),
			MessageAt:       raw.MessageDate.UTC(),
			MessageContent:  content,
			ViewCount:       int64OrZero(raw.Views),
			ForwardCount:    int64OrZero(raw.Forwards),
			HasMedia:        raw.HasMedia != nil && *raw.HasMedia,
			ImagePath:       raw.ImagePath,
			CharLength:      utf8.RuneCountInString(rawText),
			WordCount:       len(strings.Fields(content)),
			LoadedAt:        loadedAt,
			TransformedAt:   transformedAt,
		})
	}
	return result
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func int64OrZero(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}
