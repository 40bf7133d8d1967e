package calculator

import (
	"errors"
	"fmt"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/guregu/null/v6"

	"MarketBreadth/internal/model"
)

// MinWindow is the shortest moving-average window accepted.
const MinWindow = 2

// DefaultWindows are the averages carried in the daily spreadsheet.
var DefaultWindows = []int{5, 10, 20, 50}

// ErrInvalidParameter is returned for a window outside [MinWindow, len(series)].
var ErrInvalidParameter = errors.New("invalid parameter")

// WindowError reports the valid window range back to the caller.
type WindowError struct {
	Window int
	Min    int
	Max    int
}

func (e *WindowError) Error() string {
	if e.Max < e.Min {
		return fmt.Sprintf("%s: window %d, series of %d days is too short for a moving average", ErrInvalidParameter, e.Window, e.Max)
	}
	if e.Window < e.Min {
		return fmt.Sprintf("%s: window %d, minimum is %d", ErrInvalidParameter, e.Window, e.Min)
	}
	return fmt.Sprintf("%s: window %d, maximum is %d", ErrInvalidParameter, e.Window, e.Max)
}

func (e *WindowError) Unwrap() error { return ErrInvalidParameter }

// ValidateWindow checks window against a series of the given length.
func ValidateWindow(window, length int) error {
	if window < MinWindow || window > length {
		return &WindowError{Window: window, Min: MinWindow, Max: length}
	}
	return nil
}

// MovingAverage computes the rolling mean of the series' URSI over window days.
func MovingAverage(series []model.DailyBreadth, window int) (model.MovingAverage, error) {
	return CalculateSMA(Values(series), window)
}

// CalculateSMA returns a simple moving average aligned with values.
// Position i is invalid for i < window-1 and whenever the window covers an invalid value.
func CalculateSMA(values []null.Float, window int) (model.MovingAverage, error) {
	if err := ValidateWindow(window, len(values)); err != nil {
		return model.MovingAverage{}, err
	}

	out := make([]null.Float, len(values))
	start := -1
	for i := 0; i <= len(values); i++ {
		if i < len(values) && values[i].Valid {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			smaRun(out[start:i], values[start:i], window)
			start = -1
		}
	}
	return model.MovingAverage{Window: window, Values: out}, nil
}

// smaRun fills dst with the rolling mean of a gap-free run.
func smaRun(dst, run []null.Float, window int) {
	if len(run) < window {
		return
	}
	floats := make([]float64, len(run))
	for i, v := range run {
		floats[i] = v.Float64
	}

	sma := trend.NewSmaWithPeriod[float64](window)
	avgs := helper.ChanToSlice(sma.Compute(helper.SliceToChan(floats)))

	// The indicator drops its idle period; realign to the end of the run.
	offset := len(run) - len(avgs)
	for i, a := range avgs {
		dst[offset+i] = null.FloatFrom(a)
	}
}
