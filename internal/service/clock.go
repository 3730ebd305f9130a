package service

import (
	"fmt"
	"time"

	"github.com/segyhp/loan-engine/pkg/utils"
)

// Clock tells the business date commands and the COB job run on.
type Clock interface {
	Today() time.Time
}

// BusinessClock derives the business date from the wall clock in a time zone, unless a
// fixed date is configured.
type BusinessClock struct {
	fixed    *time.Time
	location *time.Location
	now      func() time.Time
}

// NewBusinessClock builds a clock for timezone. A non-empty override pins the business
// date, which is how test environments and back-dated runs are driven.
func NewBusinessClock(override, timezone string) (*BusinessClock, error) {
	location := time.UTC
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load business timezone %q: %w", timezone, err)
		}
		location = loc
	}

	clock := &BusinessClock{location: location, now: time.Now}
	if override != "" {
		date, err := utils.ParseDate(override)
		if err != nil {
			return nil, fmt.Errorf("business date override: %w", err)
		}
		clock.fixed = &date
	}
	return clock, nil
}

func (c *BusinessClock) Today() time.Time {
	if c.fixed != nil {
		return *c.fixed
	}
	return utils.StartOfDay(c.now().In(c.location))
}

// FixedClock always answers the same business date.
type FixedClock time.Time

func (c FixedClock) Today() time.Time { return time.Time(c) }
