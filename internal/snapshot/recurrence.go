package snapshot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/sandeepkv93/blockd/internal/model"
)

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// parseRecurrence reads either an object
// {"type": "every_n_days", "interval": 2, "weekdays": ["mon"]} or a pattern
// string such as "daily", "weekdays", "weekly" or "every_n_days:3". An
// absent pattern means daily.
func parseRecurrence(v gjson.Result, anchor time.Time) (*model.RecurrenceRule, error) {
	rule := model.RecurrenceRule{Type: model.RecurrenceEveryNDays, Interval: 1, Anchor: anchor}

	switch {
	case !v.Exists() || v.Type == gjson.Null:
	case v.IsObject():
		rule.Type = model.RecurrenceType(strings.ToLower(v.Get("type").String()))
		if n := v.Get("interval"); n.Exists() {
			rule.Interval = int(n.Int())
		}
		var bad error
		v.Get("weekdays").ForEach(func(_, w gjson.Result) bool {
			day, err := parseWeekday(w)
			if err != nil {
				bad = err
				return false
			}
			rule.Weekdays = append(rule.Weekdays, day)
			return true
		})
		if bad != nil {
			return nil, bad
		}
	default:
		if err := applyPattern(&rule, v.String()); err != nil {
			return nil, err
		}
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return &rule, nil
}

func applyPattern(rule *model.RecurrenceRule, pattern string) error {
	name, arg, hasArg := strings.Cut(strings.ToLower(strings.TrimSpace(pattern)), ":")
	switch name {
	case "", "daily":
		rule.Type = model.RecurrenceEveryNDays
	case "weekdays", "workdays":
		rule.Type = model.RecurrenceEveryWeekday
	case "weekly":
		rule.Type = model.RecurrenceEveryNWeeks
	case "monthly_last_day":
		rule.Type = model.RecurrenceLastDayOfMonth
	default:
		rule.Type = model.RecurrenceType(name)
	}
	if hasArg {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("snapshot: recurrence interval %q: %w", arg, err)
		}
		rule.Interval = n
	}
	return nil
}

func parseWeekday(v gjson.Result) (time.Weekday, error) {
	if v.Type == gjson.Number {
		n := v.Int()
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("snapshot: weekday %d out of range", n)
		}
		return time.Weekday(n), nil
	}
	name := strings.ToLower(strings.TrimSpace(v.String()))
	if len(name) >= 3 {
		if day, ok := weekdayNames[name[:3]]; ok {
			return day, nil
		}
	}
	return 0, fmt.Errorf("snapshot: unknown weekday %q", v.String())
}
