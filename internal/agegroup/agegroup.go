// Package agegroup derives ages and ten-year brackets from national identifiers
// of the form YYMMDD-SNNNNNN, where S selects the birth century.
package agegroup

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/gunuduru/assignment-auth/internal/errs"
)

const (
	MinBracket = 10
	MaxBracket = 80
)

var identifierPattern = regexp.MustCompile(`^[0-9]{6}-[0-9]{7}$`)

// AgeFromIdentifier returns the number of whole years between the birth date
// encoded in id and now. A birth date after now is a format error.
func AgeFromIdentifier(id string, now time.Time) (int, error) {
	birth, err := BirthDate(id)
	if err != nil {
		return 0, err
	}
	if birth.After(now.UTC()) {
		return 0, fmt.Errorf("%w: birth date %s is in the future", errs.ErrFormat, birth.Format(time.DateOnly))
	}
	return yearsBetween(birth, now), nil
}

// BirthDate parses the birth date encoded in id.
func BirthDate(id string) (time.Time, error) {
	if !identifierPattern.MatchString(id) {
		return time.Time{}, fmt.Errorf("%w: %q does not match YYMMDD-NNNNNNN", errs.ErrFormat, id)
	}

	yy, _ := strconv.Atoi(id[0:2])
	mm, _ := strconv.Atoi(id[2:4])
	dd, _ := strconv.Atoi(id[4:6])

	var century int
	switch id[7] {
	case '1', '2':
		century = 1900
	case '3', '4':
		century = 2000
	case '9', '0':
		century = 1800
	default:
		return time.Time{}, fmt.Errorf("%w: unknown century selector %q", errs.ErrFormat, id[7])
	}

	year := century + yy
	birth := time.Date(year, time.Month(mm), dd, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range values, so round-trip to reject them
	if birth.Year() != year || int(birth.Month()) != mm || birth.Day() != dd {
		return time.Time{}, fmt.Errorf("%w: invalid calendar date %04d-%02d-%02d", errs.ErrFormat, year, mm, dd)
	}
	return birth, nil
}

// BracketOf truncates age to its ten-year bracket.
func BracketOf(age int) int {
	return (age / 10) * 10
}

// IsInBracket reports whether the holder of id currently falls into bracket.
func IsInBracket(id string, bracket int, now time.Time) (bool, error) {
	age, err := AgeFromIdentifier(id, now)
	if err != nil {
		return false, err
	}
	return BracketOf(age) == bracket, nil
}

// ValidBracket reports whether b is a targetable bracket (10..80, step 10).
func ValidBracket(b int) bool {
	return b >= MinBracket && b <= MaxBracket && b%10 == 0
}

func yearsBetween(birth, now time.Time) int {
	now = now.UTC()
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// Classifier binds the package functions to a clock so services can be tested
// against a fixed date.
type Classifier struct {
	now func() time.Time
}

func NewClassifier(now func() time.Time) *Classifier {
	if now == nil {
		now = time.Now
	}
	return &Classifier{now: now}
}

func (c *Classifier) Age(id string) (int, error) {
	return AgeFromIdentifier(id, c.now())
}

func (c *Classifier) Bracket(id string) (int, error) {
	age, err := c.Age(id)
	if err != nil {
		return 0, err
	}
	return BracketOf(age), nil
}

func (c *Classifier) IsInBracket(id string, bracket int) (bool, error) {
	return IsInBracket(id, bracket, c.now())
}
