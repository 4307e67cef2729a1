package algorithm

import (
	"fmt"
	"passwordCrackerEngine/internal/core/domain"
	"time"
)

// DefaultDateLayout renders dates as DDMMYYYY.
const DefaultDateLayout = "02012006"

const secondsPerDay = 24 * 60 * 60

// Dates emits every calendar day between start and end inclusive.
type Dates struct {
	indexed
	start  time.Time
	layout string
}

func NewDates(spec domain.SourceSpec) (*Dates, error) {
	d := spec.Date
	if d == nil {
		return nil, fmt.Errorf("%w: date source without a range", domain.ErrInvalidSource)
	}
	start, end := midnight(d.Start), midnight(d.End)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %s before start date %s", domain.ErrInvalidSource,
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	layout := d.Layout
	if layout == "" {
		layout = DefaultDateLayout
	}

	// Both ends are UTC midnights; time.Duration would saturate past ~292 years.
	days := uint64((end.Unix()-start.Unix())/secondsPerDay) + 1
	ds := &Dates{start: start, layout: layout}
	ds.indexed = indexed{spec: spec, size: days, at: ds.at}
	return ds, nil
}

func (d *Dates) at(i uint64) domain.Candidate {
	return domain.Candidate(d.start.AddDate(0, 0, int(i)).Format(d.layout))
}

func midnight(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
