package domain

import "time"

// DreamEntry is one record of the dream diary.
type DreamEntry struct {
	ID        string
	UserID    string
	Title     string
	Body      string
	Date      string // dd/MM/yyyy
	CreatedAt time.Time
}

// SleepRecord is the self-reported quality of one night.
type SleepRecord struct {
	ID     string
	UserID string
	Date   time.Time // instant within the day the record belongs to
	Good   bool
}

// Tip is a sleep-hygiene tip.
type Tip struct {
	ID          string `json:"id"`
	Title       string `json:"titulo"`
	Description string `json:"descricao"`
}

// Alarm is a one-shot wake alarm; a user has at most one.
type Alarm struct {
	UserID    string
	ChatID    int64
	FireAt    time.Time // UTC
	CreatedAt time.Time // UTC
}

// YesterdayBounds returns the first and last millisecond of the calendar day
// before now, in now's location.
func YesterdayBounds(now time.Time) (start, end time.Time) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	start = today.AddDate(0, 0, -1)
	end = today.Add(-time.Millisecond)
	return start, end
}

// QualityPercentage is the share of good nights in records, 0..100, rounded down.
func QualityPercentage(records []SleepRecord) int {
	if len(records) == 0 {
		return 0
	}
	good := 0
	for _, r := range records {
		if r.Good {
			good++
		}
	}
	return good * 100 / len(records)
}
