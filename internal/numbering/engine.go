// Package numbering assigns progressive document numbers per period.
//
// A format (kind, initial value, width, optional template) and a period
// (year, month) define a prefix. The next number is the highest existing
// number under that prefix + 1, or the initial value when the period has no
// numbers yet. The engine reads but never writes: uniqueness is enforced by
// the store's unique index and the caller retries on conflict.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ddt-backend/internal/models"
)

// Store is the read side the engine needs.
type Store interface {
	// LastNumberWithPrefix returns the greatest number starting with prefix,
	// longer numbers first, then lexicographically. False when there is none.
	LastNumberWithPrefix(ctx context.Context, prefix string) (string, bool, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	// ActiveFormat returns the active format, creating the default one when
	// no format is active.
	ActiveFormat(ctx context.Context) (models.NumberingFormat, error)
}

// maxSkip bounds the scan for a free number past the computed one.
const maxSkip = 1000

var ErrNoFreeNumber = errors.New("nessun numero libero")

type Engine struct {
	store  Store
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewEngine(store Store, logger *zap.Logger, loc *time.Location) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Engine{store: store, logger: logger, loc: loc, now: time.Now}
}

// Period returns year and month, defaulting zero values to the current date
// in the engine's time zone.
func (e *Engine) Period(year, month int) (int, int) {
	today := e.now().In(e.loc)
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = int(today.Month())
	}
	return year, month
}

// Today is the current calendar date in the engine's time zone, as midnight UTC.
func (e *Engine) Today() time.Time {
	y, m, d := e.now().In(e.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextNumber computes the next number for f in the given period. Store
// errors are returned unchanged.
func (e *Engine) NextNumber(ctx context.Context, f models.NumberingFormat, year, month int) (string, error) {
	year, month = e.Period(year, month)
	l := layoutFor(f, year, month)

	last, found, err := e.store.LastNumberWithPrefix(ctx, l.head)
	if err != nil {
		return "", err
	}

	next := f.InitialValue
	if found {
		if n, ok := l.sequence(last); ok {
			next = n + 1
		} else {
			e.logger.Warn("document number with unparseable sequence, restarting from initial value",
				zap.String("number", last),
				zap.String("prefix", l.head),
				zap.Int("initial_value", f.InitialValue),
			)
		}
	}

	// step past issued numbers, e.g. after a fallback to the initial value
	for skip := 0; skip < maxSkip; skip++ {
		number := l.build(pad(next+skip, f.Width))
		exists, err := e.store.NumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			if skip > 0 {
				e.logger.Warn("skipped issued document numbers",
					zap.String("prefix", l.head),
					zap.Int("skipped", skip),
				)
			}
			return number, nil
		}
	}
	return "", fmt.Errorf("%w: %d numeri occupati dopo %s", ErrNoFreeNumber, maxSkip, l.build(pad(next, f.Width)))
}

// Next is NextNumber with the active format.
func (e *Engine) Next(ctx context.Context, year, month int) (string, models.NumberingFormat, error) {
	f, err := e.store.ActiveFormat(ctx)
	if err != nil {
		return "", models.NumberingFormat{}, err
	}
	number, err := e.NextNumber(ctx, f, year, month)
	if err != nil {
		return "", f, err
	}
	return number, f, nil
}

// Available reports whether number is not used by any stored record.
func (e *Engine) Available(ctx context.Context, number string) (bool, error) {
	exists, err := e.store.NumberExists(ctx, number)
	if err != nil {
		return false, err
	}
	return !exists, nil
}
