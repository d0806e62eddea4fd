package draws

import (
	"fmt"
	"strings"
	"time"

	"mutapa-lotto/scheduler/config"

	mapset "github.com/deckarep/golang-set/v2"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Schedule yields the trigger times of one draw type: a fixed local
// time of day on a set of weekdays. Replaces cron expressions with an
// explicit next-fire-time computation so tests can shift logical time.
type Schedule struct {
	hour     int
	minute   int
	weekdays mapset.Set[time.Weekday] // empty set means every day
	loc      *time.Location
}

func NewSchedule(cfg config.DrawTypeConfig, loc *time.Location) (*Schedule, error) {
	hour, minute, err := parseTriggerTime(cfg.TriggerTime)
	if err != nil {
		return nil, err
	}
	weekdays, err := parseWeekdays(cfg.Weekdays)
	if err != nil {
		return nil, err
	}
	return &Schedule{
		hour:     hour,
		minute:   minute,
		weekdays: weekdays,
		loc:      loc,
	}, nil
}

// NextFireTime returns the first trigger time strictly after now.
func (s *Schedule) NextFireTime(now time.Time) time.Time {
	local := now.In(s.loc)
	fire := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.loc)
	for !fire.After(now) || !s.runsOn(fire.Weekday()) {
		fire = fire.AddDate(0, 0, 1)
	}
	return fire
}

func (s *Schedule) runsOn(day time.Weekday) bool {
	return s.weekdays.Cardinality() == 0 || s.weekdays.Contains(day)
}

func parseTriggerTime(value string) (int, int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid trigger time %q: %w", value, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid trigger time %q", value)
	}
	return hour, minute, nil
}

func parseWeekdays(days []string) (mapset.Set[time.Weekday], error) {
	weekdays := mapset.NewThreadUnsafeSet[time.Weekday]()
	for _, day := range days {
		weekday, ok := weekdayNames[strings.ToLower(day)]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", day)
		}
		weekdays.Add(weekday)
	}
	return weekdays, nil
}
