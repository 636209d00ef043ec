package pipeline

import (
	"fmt"
	"time"

	"medwarehouse/pkg/models"
)

// DateKey derives the integer YYYYMMDD key for a timestamp. The date
// dimension and the fact builder share this single derivation; it is the
// join predicate between them.
func DateKey(t time.Time) int {
	u := t.UTC()
	return u.Year()*10000 + int(u.Month())*100 + u.Day()
}

// DateFromKey inverts DateKey back to a UTC midnight date.
func DateFromKey(key int) time.Time {
	return time.Date(key/10000, time.Month(key/100%100), key%100, 0, 0, 0, 0, time.UTC)
}

// BuildDateDim enumerates every day in [start, end] inclusive and derives
// the calendar attributes for each by pure computation. Weekday ordinals
// run 0=Sunday through 6=Saturday; Saturday and Sunday are the weekend.
func BuildDateDim(start, end time.Time) ([]models.DateDim, error) {
	startDay := midnightUTC(start)
	endDay := midnightUTC(end)
	if endDay.Before(startDay) {
		return nil, fmt.Errorf("date range end %s precedes start %s",
			endDay.Format("2006-01-02"), startDay.Format("2006-01-02"))
	}

	days := int(endDay.Sub(startDay).Hours()/24) + 1
	dims := make([]models.DateDim, 0, days)
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		dow := int(d.Weekday())
		_, week := d.ISOWeek()
		dims = append(dims, models.DateDim{
			DateKey:    DateKey(d),
			FullDate:   d,
			DayName:    d.Weekday().String(),
			DayOfWeek:  dow,
			WeekOfYear: week,
			MonthNum:   int(d.Month()),
			MonthName:  d.Month().String(),
			Quarter:    (int(d.Month())-1)/3 + 1,
			Year:       d.Year(),
			IsWeekend:  dow == 0 || dow == 6,
		})
	}
	return dims, nil
}

func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
