package models

import "time"

// RawMessage represents one landed row from raw.telegram_messages.
// Every field may be absent at the source; pointers carry the NULLs.
type RawMessage struct {
	MessageID       *int64     `json:"message_id"`
	ChannelUsername *string    `json:"channel_username"`
	ChannelTitle    *string    `json:"channel_title"`
	MessageDate     *time.Time `json:"message_date"`
	MessageText     *string    `json:"message_text"`
	Views           *int64     `json:"views"`
	Forwards        *int64     `json:"forwards"`
	HasMedia        *bool      `json:"has_media"`
	ImagePath       *string    `json:"image_path"`
	LoadedAt        *time.Time `json:"loaded_at"`
}

// StagedMessage represents one normalized row in stg_messages
type StagedMessage struct {
	MessageID       int64     `json:"message_id"`
	ChannelUsername string    `json:"channel_username"`
	ChannelTitle    string    `json:"channel_title"`
	MessageAt       time.Time `json:"message_at"`
	MessageContent  string    `json:"message_content"`
	ViewCount       int64     `json:"view_count"`
	ForwardCount    int64     `json:"forward_count"`
	HasMedia        bool      `json:"has_media"`
	ImagePath       *string   `json:"image_path"`
	CharLength      int       `json:"char_length"`
	WordCount       int       `json:"word_count"`
	LoadedAt        time.Time `json:"loaded_at"`
	TransformedAt   time.Time `json:"transformed_at"`
}
