package pipeline

import (
	"crypto/md5"
	"encoding/hex"
	"math"
	"sort"
	"strings"
	"time"

	"medwarehouse/pkg/models"
)

// Rule is one ordered classification step: a case-insensitive substring
// pattern and the category it assigns. First match wins.
type Rule struct {
	Pattern  string `yaml:"pattern"`
	Category string `yaml:"category"`
}

// ChannelKey derives the surrogate key for a channel handle. The key is a
// content hash, not a sequence, so independent rebuilds assign identical
// keys without coordination.
func ChannelKey(handle string) string {
	sum := md5.Sum([]byte(handle))
	return hex.EncodeToString(sum[:])
}

// ClassifyChannel walks the ordered rule list top to bottom and returns
// the category of the first pattern contained in the handle, or the
// terminal default when none match.
func ClassifyChannel(handle string, rules []Rule, defaultCategory string) string {
	lower := strings.ToLower(handle)
	for _, rule := range rules {
		if strings.Contains(lower, strings.ToLower(rule.Pattern)) {
			return rule.Category
		}
	}
	return defaultCategory
}

// BuildChannelDim groups staged messages by handle and aggregates one
// dimension row per distinct channel. Output is sorted by handle so a
// rebuild over unchanged input is byte-identical.
func BuildChannelDim(staged []models.StagedMessage, rules []Rule, defaultCategory string) []models.ChannelDim {
	type channelAgg struct {
		title   string
		first   time.Time
		last    time.Time
		posts   int64
		viewSum int64
	}

	groups := make(map[string]*channelAgg)
	for _, msg := range staged {
		agg, ok := groups[msg.ChannelUsername]
		if !ok {
			agg = &channelAgg{title: msg.ChannelTitle, first: msg.MessageAt, last: msg.MessageAt}
			groups[msg.ChannelUsername] = agg
		}
		if msg.MessageAt.Before(agg.first) {
			agg.first = msg.MessageAt
		}
		if msg.MessageAt.After(agg.last) {
			agg.last = msg.MessageAt
		}
		if agg.title == "" && msg.ChannelTitle != "" {
			agg.title = msg.ChannelTitle
		}
		agg.posts++
		agg.viewSum += msg.ViewCount
	}

	dims := make([]models.ChannelDim, 0, len(groups))
	for handle, agg := range groups {
		dims = append(dims, models.ChannelDim{
			ChannelKey:   ChannelKey(handle),
			ChannelName:  handle,
			ChannelTitle: agg.title,
			ChannelType:  ClassifyChannel(handle, rules, defaultCategory),
			FirstPostAt:  agg.first,
			LastPostAt:   agg.last,
			PostCount:    agg.posts,
			AvgViewCount: math.Round(float64(agg.viewSum)/float64(agg.posts)*100) / 100,
		})
	}

	sort.Slice(dims, func(i, j int) bool { return dims[i].ChannelName < dims[j].ChannelName })
	return dims
}
