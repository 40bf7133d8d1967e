// Package dataset holds the immutable set of price observations a breadth run is computed from.
package dataset

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"MarketBreadth/internal/model"
)

var (
	ErrEmpty                = errors.New("dataset is empty")
	ErrDuplicateObservation = errors.New("duplicate observation")
	ErrInvalidObservation   = errors.New("invalid observation")
)

// Dataset is an immutable, per-instrument, day-ordered view of observations.
type Dataset struct {
	series      map[string][]model.PriceObservation
	instruments []string
	days        []time.Time
	size        int
}

// New validates and copies the observations. Each (instrument, day) pair may appear once.
func New(observations []model.PriceObservation) (*Dataset, error) {
	if len(observations) == 0 {
		return nil, ErrEmpty
	}

	series := make(map[string][]model.PriceObservation)
	seen := make(map[string]map[time.Time]struct{})
	daySet := make(map[time.Time]struct{})

	for _, o := range observations {
		if o.Instrument == "" {
			return nil, fmt.Errorf("%w: empty instrument on %s", ErrInvalidObservation, o.Day.Format(time.DateOnly))
		}
		if o.Day.IsZero() {
			return nil, fmt.Errorf("%w: %s has no trading day", ErrInvalidObservation, o.Instrument)
		}
		if o.Close.IsNegative() {
			return nil, fmt.Errorf("%w: %s close %s is negative", ErrInvalidObservation, o.Instrument, o.Close)
		}

		o.Day = model.TradingDay(o.Day)
		days, ok := seen[o.Instrument]
		if !ok {
			days = make(map[time.Time]struct{})
			seen[o.Instrument] = days
		}
		if _, dup := days[o.Day]; dup {
			return nil, fmt.Errorf("%w: %s on %s", ErrDuplicateObservation, o.Instrument, o.Day.Format(time.DateOnly))
		}
		days[o.Day] = struct{}{}
		daySet[o.Day] = struct{}{}
		series[o.Instrument] = append(series[o.Instrument], o)
	}

	ds := &Dataset{
		series:      series,
		instruments: make([]string, 0, len(series)),
		days:        make([]time.Time, 0, len(daySet)),
		size:        len(observations),
	}
	for inst, obs := range series {
		sort.Slice(obs, func(i, j int) bool { return obs[i].Day.Before(obs[j].Day) })
		ds.instruments = append(ds.instruments, inst)
	}
	sort.Strings(ds.instruments)
	for d := range daySet {
		ds.days = append(ds.days, d)
	}
	sort.Slice(ds.days, func(i, j int) bool { return ds.days[i].Before(ds.days[j]) })
	return ds, nil
}

// Instruments returns the instrument ids in lexical order.
func (d *Dataset) Instruments() []string {
	out := make([]string, len(d.instruments))
	copy(out, d.instruments)
	return out
}

// Series returns the instrument's observations in ascending day order.
func (d *Dataset) Series(instrument string) []model.PriceObservation {
	obs := d.series[instrument]
	out := make([]model.PriceObservation, len(obs))
	copy(out, obs)
	return out
}

// Days returns every distinct trading day present in the dataset, ascending.
func (d *Dataset) Days() []time.Time {
	out := make([]time.Time, len(d.days))
	copy(out, d.days)
	return out
}

// Len returns the number of observations.
func (d *Dataset) Len() int { return d.size }
