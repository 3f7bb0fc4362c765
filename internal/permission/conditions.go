package permission

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
)

const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"

	lastMinuteOfDay = 23*60 + 59
)

// TimeRestriction limits when a rule is in effect. The zero value is unrestricted.
type TimeRestriction struct {
	// AllowedDays uses ISO-8601 numbering, 1 = Monday .. 7 = Sunday. Empty means every day.
	AllowedDays []int `json:"allowed_days,omitempty"`
	// StartTime and EndTime are HH:MM bounds of a same-day window, both inclusive.
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	// StartDate and EndDate are optional YYYY-MM-DD bounds, both inclusive.
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Validate rejects unknown days, malformed clock or date values and inverted windows.
func (t *TimeRestriction) Validate() error {
	if t == nil {
		return nil
	}

	for _, d := range t.AllowedDays {
		if d < 1 || d > 7 {
			return fmt.Errorf("%w: allowed day %d is outside 1..7", ErrValidation, d)
		}
	}

	start, end, err := t.window()
	if err != nil {
		return err
	}

	if start > end {
		return fmt.Errorf("%w: start_time %s is after end_time %s", ErrValidation, t.StartTime, t.EndTime)
	}

	from, to, err := t.dates()
	if err != nil {
		return err
	}

	if from != "" && to != "" && from > to {
		return fmt.Errorf("%w: start_date %s is after end_date %s", ErrValidation, t.StartDate, t.EndDate)
	}

	return nil
}

// Allows reports whether now falls inside the restriction. now is interpreted in its own location.
// A malformed restriction returns an error and must be treated as not allowing.
func (t *TimeRestriction) Allows(now time.Time) (bool, error) {
	if t == nil {
		return true, nil
	}

	if err := t.Validate(); err != nil {
		return false, err
	}

	if len(t.AllowedDays) > 0 && !containsDay(t.AllowedDays, isoWeekday(now)) {
		return false, nil
	}

	start, end, _ := t.window()

	minute := now.Hour()*60 + now.Minute()
	if minute < start || minute > end {
		return false, nil
	}

	from, to, _ := t.dates()
	day := now.Format(dateLayout)

	if from != "" && day < from {
		return false, nil
	}

	if to != "" && day > to {
		return false, nil
	}

	return true, nil
}

func (t *TimeRestriction) window() (start, end int, err error) {
	start, end = 0, lastMinuteOfDay

	if s := strings.TrimSpace(t.StartTime); s != "" {
		if start, err = minuteOfDay(s); err != nil {
			return 0, 0, fmt.Errorf("%w: start_time: %w", ErrValidation, err)
		}
	}

	if s := strings.TrimSpace(t.EndTime); s != "" {
		if end, err = minuteOfDay(s); err != nil {
			return 0, 0, fmt.Errorf("%w: end_time: %w", ErrValidation, err)
		}
	}

	return start, end, nil
}

func (t *TimeRestriction) dates() (from, to string, err error) {
	if s := strings.TrimSpace(t.StartDate); s != "" {
		d, perr := time.Parse(dateLayout, s)
		if perr != nil {
			return "", "", fmt.Errorf("%w: start_date: %w", ErrValidation, perr)
		}

		from = d.Format(dateLayout)
	}

	if s := strings.TrimSpace(t.EndDate); s != "" {
		d, perr := time.Parse(dateLayout, s)
		if perr != nil {
			return "", "", fmt.Errorf("%w: end_date: %w", ErrValidation, perr)
		}

		to = d.Format(dateLayout)
	}

	return from, to, nil
}

func minuteOfDay(s string) (int, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, err
	}

	return t.Hour()*60 + t.Minute(), nil
}

func isoWeekday(t time.Time) int {
	if wd := int(t.Weekday()); wd != 0 {
		return wd
	}

	return 7 //nolint:mnd // Sunday
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}

	return false
}

// ValidateIPs rejects entries that are neither an IP address nor a CIDR block.
func ValidateIPs(entries []string) error {
	for _, e := range entries {
		if _, err := parseIPEntry(e); err != nil {
			return fmt.Errorf("%w: allowed ip %q: %w", ErrValidation, e, err)
		}
	}

	return nil
}

// IPAllowed reports whether clientIP matches one of the entries. An empty list allows
// every client. Malformed entries never match and are returned so they can be reported.
func IPAllowed(entries []string, clientIP string) (bool, []string) {
	if len(entries) == 0 {
		return true, nil
	}

	addr, err := netip.ParseAddr(strings.TrimSpace(clientIP))
	if err != nil {
		return false, nil
	}

	addr = addr.Unmap()

	var malformed []string

	for _, e := range entries {
		prefix, err := parseIPEntry(e)
		if err != nil {
			malformed = append(malformed, e)
			continue
		}

		if prefix.Contains(addr) {
			return true, malformed
		}
	}

	return false, malformed
}

// parseIPEntry turns a literal address or a CIDR block into a prefix.
func parseIPEntry(entry string) (netip.Prefix, error) {
	entry = strings.TrimSpace(entry)

	if strings.Contains(entry, "/") {
		p, err := netip.ParsePrefix(entry)
		if err != nil {
			return netip.Prefix{}, err
		}

		if p.Addr().Is4In6() {
			p = netip.PrefixFrom(p.Addr().Unmap(), p.Bits()-96) //nolint:mnd
		}

		return p.Masked(), nil
	}

	a, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, err
	}

	a = a.Unmap()

	return netip.PrefixFrom(a, a.BitLen()), nil
}

// Conditions are the optional restrictions of a persisted role row.
type Conditions struct {
	TimeRestriction *TimeRestriction `json:"time_restriction,omitempty"`
	AllowedIPs      []string         `json:"allowed_ips,omitempty"`
}

// Validate checks both the time window and the IP entries.
func (c *Conditions) Validate() error {
	if c == nil {
		return nil
	}

	if err := c.TimeRestriction.Validate(); err != nil {
		return err
	}

	return ValidateIPs(c.AllowedIPs)
}

// conditionCheck is the shared outcome of evaluating a time window and an IP allowlist.
type conditionCheck struct {
	holds     bool
	malformed error
	badIPs    []string
}

func checkConditions(tr *TimeRestriction, ips []string, now time.Time, clientIP string) conditionCheck {
	inWindow, err := tr.Allows(now)
	if err != nil {
		return conditionCheck{malformed: err}
	}

	if !inWindow {
		return conditionCheck{}
	}

	ipOK, bad := IPAllowed(ips, clientIP)

	return conditionCheck{holds: ipOK, badIPs: bad}
}
