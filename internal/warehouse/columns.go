package warehouse

import "medwarehouse/pkg/models"

// Column lists and value builders are paired per table; order must match
// the table definitions in pkg/database/sql/clickhouse/marts.sql. The
// native batch interface is strict about Go types, hence the integer
// casts onto exact column widths.

var stagedColumns = []string{
	"message_id", "channel_username", "channel_title", "message_at", "message_content",
	"view_count", "forward_count", "has_media", "image_path", "char_length",
	"word_count", "loaded_at", "transformed_at",
}

func stagedValues(row models.StagedMessage) []any {
	return []any{
		row.MessageID,
		row.ChannelUsername,
		row.ChannelTitle,
		row.MessageAt,
		row.MessageContent,
		row.ViewCount,
		row.ForwardCount,
		row.HasMedia,
		row.ImagePath,
		int32(row.CharLength),
		int32(row.WordCount),
		row.LoadedAt,
		row.TransformedAt,
	}
}

var dateColumns = []string{
	"date_key", "full_date", "day_name", "day_of_week", "week_of_year",
	"month_num", "month_name", "quarter", "year", "is_weekend",
}

func dateValues(row models.DateDim) []any {
	return []any{
		int32(row.DateKey),
		row.FullDate,
		row.DayName,
		int8(row.DayOfWeek),
		int8(row.WeekOfYear),
		int8(row.MonthNum),
		row.MonthName,
		int8(row.Quarter),
		int16(row.Year),
		row.IsWeekend,
	}
}

var channelColumns = []string{
	"channel_key", "channel_name", "channel_title", "channel_type",
	"first_post_at", "last_post_at", "post_count", "avg_view_count",
}

func channelValues(row models.ChannelDim) []any {
	return []any{
		row.ChannelKey,
		row.ChannelName,
		row.ChannelTitle,
		row.ChannelType,
		row.FirstPostAt,
		row.LastPostAt,
		row.PostCount,
		row.AvgViewCount,
	}
}

var factColumns = []string{
	"message_id", "channel_key", "date_key", "message_text", "message_length",
	"view_count", "forward_count", "has_media",
}

func factValues(row models.FactMessage) []any {
	return []any{
		row.MessageID,
		row.ChannelKey,
		int32(row.DateKey),
		row.MessageText,
		int32(row.MessageLength),
		row.ViewCount,
		row.ForwardCount,
		row.HasMedia,
	}
}

var detectionColumns = []string{
	"message_id", "channel_key", "date_key", "detected_class", "confidence_score", "image_category",
}

func detectionValues(row models.MessageDetection) []any {
	return []any{
		row.MessageID,
		row.ChannelKey,
		int32(row.DateKey),
		row.DetectedClass,
		row.ConfidenceScore,
		row.ImageCategory,
	}
}
