package tournament

import (
	"strings"
	"time"

	"sweeps-casino/internal/ledger"
)

// ParseTimeOfDay parses "HH:MM" on a 24h clock.
func ParseTimeOfDay(v string) (hour, minute int, err error) {
	v = strings.TrimSpace(v)
	if len(v) != 5 || v[2] != ':' {
		return 0, 0, ErrInvalidTimeOfDay
	}
	for _, i := range []int{0, 1, 3, 4} {
		if v[i] < '0' || v[i] > '9' {
			return 0, 0, ErrInvalidTimeOfDay
		}
	}
	hour = int(v[0]-'0')*10 + int(v[1]-'0')
	minute = int(v[3]-'0')*10 + int(v[4]-'0')
	if hour > 23 || minute > 59 {
		return 0, 0, ErrInvalidTimeOfDay
	}
	return hour, minute, nil
}

// NextOccurrence returns today at timeOfDay in loc, or the same wall time
// one period later when that moment is not after now.
func NextOccurrence(now time.Time, timeOfDay string, r Recurrence, loc *time.Location) (time.Time, error) {
	if !r.Recurring() {
		return time.Time{}, ErrInvalidRecurrence
	}
	hour, minute, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	at := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if at.After(now) {
		return at, nil
	}
	return advance(at, r), nil
}

// advance moves a start time forward by one recurrence period, keeping the
// wall clock time.
func advance(t time.Time, r Recurrence) time.Time {
	switch r {
	case RecurrenceWeekly:
		return t.AddDate(0, 0, 7)
	case RecurrenceMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// Template is a recurring tournament definition seeded at startup.
type Template struct {
	Config
	// Weekday pins a weekly template to a day; nil keeps today's weekday.
	Weekday *time.Weekday
}

func weekday(d time.Weekday) *time.Weekday { return &d }

// DefaultTemplates returns the three canonical recurring tournaments.
func DefaultTemplates() []Template {
	return []Template{
		{
			Config: Config{
				Name:          "Daily Freeroll Hold'em",
				GameType:      GamePoker,
				Type:          TypeFreeroll,
				BasePrizePool: ledger.Amount{GC: 10000, SC: 100},
				MinPlayers:    2,
				MaxPlayers:    100,
				Schedule:      Schedule{Recurrence: RecurrenceDaily, TimeOfDay: "20:00"},
			},
		},
		{
			Config: Config{
				Name:          "Daily Freeroll Bingo",
				GameType:      GameBingo,
				Type:          TypeFreeroll,
				BasePrizePool: ledger.Amount{GC: 5000, SC: 50},
				MinPlayers:    2,
				MaxPlayers:    50,
				Schedule:      Schedule{Recurrence: RecurrenceDaily, TimeOfDay: "18:00"},
			},
		},
		{
			Config: Config{
				Name:       "Sunday High Roller",
				GameType:   GamePoker,
				Type:       TypeScheduled,
				BuyIn:      ledger.Amount{GC: 50000, SC: 50},
				MinPlayers: 2,
				MaxPlayers: 50,
				Schedule:   Schedule{Recurrence: RecurrenceWeekly, TimeOfDay: "21:00"},
			},
			Weekday: weekday(time.Sunday),
		},
	}
}

// firstOccurrence resolves a template's first start, honoring a pinned
// weekday for weekly templates.
func (tpl Template) firstOccurrence(now time.Time, loc *time.Location) (time.Time, error) {
	at, err := NextOccurrence(now, tpl.Schedule.TimeOfDay, tpl.Schedule.Recurrence, loc)
	if err != nil || tpl.Weekday == nil {
		return at, err
	}
	for at.Weekday() != *tpl.Weekday {
		at = at.AddDate(0, 0, 1)
	}
	return at, nil
}
