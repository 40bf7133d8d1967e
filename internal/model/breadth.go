package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// Status classifies an instrument's close against its previous close.
type Status int

const (
	StatusUnchanged Status = iota
	StatusAdvancing
	StatusDeclining
)

func (s Status) String() string {
	switch s {
	case StatusAdvancing:
		return "ADVANCING"
	case StatusDeclining:
		return "DECLINING"
	default:
		return "UNCHANGED"
	}
}

// DailyBreadth holds the per-day counts and the URSI derived from them.
// URSI is invalid when no instrument advanced or declined that day.
type DailyBreadth struct {
	Day       time.Time  `json:"date"`
	Advancing int        `json:"advancing_stocks"`
	Declining int        `json:"declining_stocks"`
	Unchanged int        `json:"unchanged_stocks"`
	Total     int        `json:"total_stocks"`
	URSI      null.Float `json:"ursi"`
}

// MovingAverage is a rolling mean aligned one-to-one with a breadth series.
type MovingAverage struct {
	Window int          `json:"window"`
	Values []null.Float `json:"values"`
}

// Last returns the most recent value of the average.
func (m MovingAverage) Last() null.Float {
	if len(m.Values) == 0 {
		return null.Float{}
	}
	return m.Values[len(m.Values)-1]
}

// Summary aggregates a breadth series. Statistics cover days with a defined URSI only.
type Summary struct {
	Start          time.Time    `json:"start"`
	End            time.Time    `json:"end"`
	TradingDays    int          `json:"trading_days"`
	DefinedDays    int          `json:"defined_days"`
	Mean           null.Float   `json:"mean"`
	Median         null.Float   `json:"median"`
	Min            null.Float   `json:"min"`
	Max            null.Float   `json:"max"`
	StdDev         null.Float   `json:"std_dev"`
	DaysOverbought int          `json:"days_overbought"`
	DaysOversold   int          `json:"days_oversold"`
	DaysNeutral    int          `json:"days_neutral"`
	Latest         DailyBreadth `json:"latest"`
}

// MonthlyAverage holds calendar-month means of a breadth series.
type MonthlyAverage struct {
	Month       time.Time  `json:"month"`
	URSI        null.Float `json:"ursi"`
	Advancing   float64    `json:"advancing"`
	Declining   float64    `json:"declining"`
	Unchanged   float64    `json:"unchanged"`
	TradingDays int        `json:"trading_days"`
}
