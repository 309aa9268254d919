package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDuration = errors.New("invalid_duration")

// Duration is a calendar period in ISO-8601 form, e.g. P1M or P30D.
type Duration struct {
	Years   int
	Months  int
	Weeks   int
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// ParseDuration parses P[nY][nM][nW][nD][T[nH][nM][nS]]. Zero components such
// as P0Y0M30DT0H0M0S are accepted.
func ParseDuration(raw string) (Duration, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if len(s) < 2 || s[0] != 'P' {
		return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
	}

	var d Duration
	inTime := false
	num := ""
	seen, timeSeen := false, false
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
			continue
		case r == 'T':
			if inTime || num != "" {
				return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
			}
			inTime = true
			continue
		}

		if num == "" {
			return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
		}
		num = ""
		seen = true
		timeSeen = timeSeen || inTime

		switch {
		case !inTime && r == 'Y':
			d.Years = n
		case !inTime && r == 'M':
			d.Months = n
		case !inTime && r == 'W':
			d.Weeks = n
		case !inTime && r == 'D':
			d.Days = n
		case inTime && r == 'H':
			d.Hours = n
		case inTime && r == 'M':
			d.Minutes = n
		case inTime && r == 'S':
			d.Seconds = n
		default:
			return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
		}
	}
	if num != "" || !seen || (inTime && !timeSeen) {
		return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
	}
	return d, nil
}

func MustParseDuration(raw string) Duration {
	d, err := ParseDuration(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Duration) IsZero() bool {
	return d == Duration{}
}

// String renders the shortest ISO-8601 form.
func (d Duration) String() string {
	if d.IsZero() {
		return "PT0S"
	}
	var b strings.Builder
	b.WriteByte('P')
	write := func(n int, unit byte) {
		if n != 0 {
			b.WriteString(strconv.Itoa(n))
			b.WriteByte(unit)
		}
	}
	write(d.Years, 'Y')
	write(d.Months, 'M')
	write(d.Weeks, 'W')
	write(d.Days, 'D')
	if d.Hours != 0 || d.Minutes != 0 || d.Seconds != 0 {
		b.WriteByte('T')
		write(d.Hours, 'H')
		write(d.Minutes, 'M')
		write(d.Seconds, 'S')
	}
	return b.String()
}

// AddTo returns t shifted by the period.
func (d Duration) AddTo(t time.Time) time.Time {
	t = t.AddDate(d.Years, d.Months, d.Weeks*7+d.Days)
	return t.Add(time.Duration(d.Hours)*time.Hour +
		time.Duration(d.Minutes)*time.Minute +
		time.Duration(d.Seconds)*time.Second)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDuration, string(data))
	}
	parsed, err := ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
