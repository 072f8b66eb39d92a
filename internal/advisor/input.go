package advisor

import (
	"math"
	"strings"
)

// FormSource is anything that yields submitted form values by key, such as
// url.Values.
type FormSource interface {
	Get(key string) string
}

// Form keys read by CollectForm.
const (
	FieldYear     = "year"
	FieldMaxGames = "max_games"
)

// CollectForm reads the year and max-games fields from form.
func CollectForm(form FormSource) (PredictionRequest, error) {
	return Collect(form.Get(FieldYear), form.Get(FieldMaxGames))
}

// Collect validates raw year and max-games input and coerces both to
// integers. No upper bound is enforced; the backend owns that decision.
func Collect(year, maxGames string) (PredictionRequest, error) {
	y, ok := parseLeadingInt(year)
	if !ok {
		return PredictionRequest{}, ErrMissingYear
	}
	n, ok := parseLeadingInt(maxGames)
	if !ok || n < 1 {
		return PredictionRequest{}, ErrInvalidGameCount
	}
	return PredictionRequest{Year: y, MaxGames: n}, nil
}

// parseLeadingInt reads an optional sign followed by decimal digits and
// ignores anything after them, so "12abc" and "12.9" both yield 12. Values
// beyond the int range saturate; only input without digits is rejected.
func parseLeadingInt(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	value := 0
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		d := int(r - '0')
		digits++
		if value > (math.MaxInt-d)/10 {
			value = math.MaxInt
			break
		}
		value = value*10 + d
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		value = -value
	}
	return value, true
}
