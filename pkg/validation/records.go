package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ScrapedMessage is the JSON shape one scraped channel message arrives in.
// Files hold either a single object or an array of them; counts default to
// zero at landing time so the raw table mirrors what the scraper saw.
type ScrapedMessage struct {
	MessageID    *int64     `json:"message_id" validate:"required"`
	ChannelName  string     `json:"channel_name" validate:"required"`
	ChannelTitle *string    `json:"channel_title"`
	MessageDate  *time.Time `json:"message_date"`
	MessageText  *string    `json:"message_text"`
	Views        *int64     `json:"views"`
	Forwards     *int64     `json:"forwards"`
	HasMedia     bool       `json:"has_media"`
	ImagePath    *string    `json:"image_path"`
}

// DetectionRow is one parsed line of the external image-detection CSV.
type DetectionRow struct {
	MessageID       int64   `json:"message_id" validate:"required"`
	DetectedClass   string  `json:"detected_class" validate:"required"`
	ConfidenceScore float64 `json:"confidence_score" validate:"gte=0,lte=1"`
	ImageCategory   string  `json:"image_category" validate:"required"`
}

// RecordValidator performs structural validation on raw input records
// before they are landed. Semantic data-quality checks belong to the
// warehouse validation layer, not here.
type RecordValidator struct {
	validator *validator.Validate
}

// NewRecordValidator constructs a RecordValidator with standard struct validation.
func NewRecordValidator() *RecordValidator {
	return &RecordValidator{
		validator: validator.New(),
	}
}

// ValidateMessage checks that a scraped message is identifiable enough to land.
func (v *RecordValidator) ValidateMessage(msg *ScrapedMessage) error {
	if err := v.validator.Struct(msg); err != nil {
		return fmt.Errorf("message validation failed: %w", err)
	}
	if strings.TrimSpace(msg.ChannelName) == "" {
		return fmt.Errorf("message validation failed: channel_name is blank")
	}
	return nil
}

// ValidateDetection checks that a detection row is complete and its
// confidence score is a probability.
func (v *RecordValidator) ValidateDetection(row *DetectionRow) error {
	if err := v.validator.Struct(row); err != nil {
		return fmt.Errorf("detection validation failed: %w", err)
	}
	if strings.TrimSpace(row.DetectedClass) == "" {
		return fmt.Errorf("detection validation failed: detected_class is blank")
	}
	return nil
}
