package pipeline

import (
	"unicode/utf8"

	"medwarehouse/pkg/models"
)

// FactResult carries the built fact rows plus a count for each exclusion
// the dimension lookups produced.
type FactResult struct {
	Rows           []models.FactMessage
	MissingChannel int
	MissingDate    int
}

// BuildFacts resolves every staged message against both dimensions and
// emits one fact row per message where both keys resolve. The channel
// lookup runs first; a message failing either lookup is excluded and
// counted rather than silently lost.
func BuildFacts(staged []models.StagedMessage, channels []models.ChannelDim, dates []models.DateDim) FactResult {
	keyByHandle := make(map[string]string, len(channels))
	for _, ch := range channels {
		keyByHandle[ch.ChannelName] = ch.ChannelKey
	}
	knownDates := make(map[int]struct{}, len(dates))
	for _, d := range dates {
		knownDates[d.DateKey] = struct{}{}
	}

	result := FactResult{Rows: make([]models.FactMessage, 0, len(staged))}
	for _, msg := range staged {
		channelKey, ok := keyByHandle[msg.ChannelUsername]
		if !ok {
			result.MissingChannel++
			continue
		}
		dateKey := DateKey(msg.MessageAt)
		if _, ok := knownDates[dateKey]; !ok {
			result.MissingDate++
			continue
		}
		result.Rows = append(result.Rows, models.FactMessage{
			MessageID:     msg.MessageID,
			ChannelKey:    channelKey,
			DateKey:       dateKey,
			MessageText:   msg.MessageContent,
			MessageLength: utf8.RuneCountInString(msg.MessageContent),
			ViewCount:     msg.ViewCount,
			ForwardCount:  msg.ForwardCount,
			HasMedia:      msg.HasMedia,
		})
	}
	return result
}
