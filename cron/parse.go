package cron

import (
	"fmt"
	"strconv"
	"strings"

	cronlib "github.com/robfig/cron/v3"

	"github.com/xraph/conduct"
)

// cronParser handles the five standard fields. Expressions are run
// through ValidateExpr first, so the parser only sees the restricted
// grammar.
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow,
)

// fieldRange bounds one cron field.
type fieldRange struct {
	name string
	min  int
	max  int
}

var fieldRanges = [5]fieldRange{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day of month", 1, 31},
	{"month", 1, 12},
	{"day of week", 0, 6},
}

// ValidateExpr checks a cron expression against the restricted grammar:
// exactly five whitespace-separated fields, each either "*" or a single
// integer within the field's range. Ranges, lists, steps, and names are
// rejected.
func ValidateExpr(expr string) error {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return fmt.Errorf("%w: %q: want 5 fields, got %d",
			conduct.ErrInvalidCronExpression, expr, len(fields))
	}
	for i, field := range fields {
		if field == "*" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return fmt.Errorf("%w: %q: %s field %q is not \"*\" or an integer",
				conduct.ErrInvalidCronExpression, expr, fieldRanges[i].name, field)
		}
		if n < fieldRanges[i].min || n > fieldRanges[i].max {
			return fmt.Errorf("%w: %q: %s %d out of range [%d, %d]",
				conduct.ErrInvalidCronExpression, expr, fieldRanges[i].name,
				n, fieldRanges[i].min, fieldRanges[i].max)
		}
	}
	return nil
}

// ParseExpr validates expr and returns its schedule for computing
// successive fire times.
func ParseExpr(expr string) (cronlib.Schedule, error) {
	if err := ValidateExpr(expr); err != nil {
		return nil, err
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", conduct.ErrInvalidCronExpression, expr, err)
	}
	return sched, nil
}
