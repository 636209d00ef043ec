package models

import "time"

// DateDim represents one calendar day in dim_dates. Day-of-week ordinals
// run 0=Sunday through 6=Saturday; the weekend is {0, 6}.
type DateDim struct {
	DateKey    int       `json:"date_key"`
	FullDate   time.Time `json:"full_date"`
	DayName    string    `json:"day_name"`
	DayOfWeek  int       `json:"day_of_week"`
	WeekOfYear int       `json:"week_of_year"`
	MonthNum   int       `json:"month_num"`
	MonthName  string    `json:"month_name"`
	Quarter    int       `json:"quarter"`
	Year       int       `json:"year"`
	IsWeekend  bool      `json:"is_weekend"`
}

// ChannelDim represents one observed channel in dim_channels. ChannelKey is
// a content hash of the handle, stable across rebuilds.
type ChannelDim struct {
	ChannelKey   string    `json:"channel_key"`
	ChannelName  string    `json:"channel_name"`
	ChannelTitle string    `json:"channel_title"`
	ChannelType  string    `json:"channel_type"`
	FirstPostAt  time.Time `json:"first_post_at"`
	LastPostAt   time.Time `json:"last_post_at"`
	PostCount    int64     `json:"post_count"`
	AvgViewCount float64   `json:"avg_view_count"`
}
