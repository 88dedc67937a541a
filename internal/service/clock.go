package service

import "time"

// Clock is the single injectable time source. All date+time arithmetic and
// expiry comparisons run in its configured location.
type Clock interface {
	Now() time.Time
}

type realClock struct {
	loc *time.Location
}

func NewClock(loc *time.Location) Clock {
	return &realClock{loc: loc}
}

func (c *realClock) Now() time.Time {
	return time.Now().In(c.loc)
}
