package service

import "context"

// Strategy is one step of an ordered lookup. Build returns ok=false when the
// step does not apply to key.
type Strategy[K, Q any] struct {
	Name  string
	Build func(key K) (Q, bool)
}

// StrategyNone labels a lookup where every strategy came back empty.
const StrategyNone = "none"

// runFallback executes strategies in order and stops at the first non-empty
// result. Attempt errors are reported to onErr. In lenient mode they do not
// stop the chain, and the error is returned only when the last executed
// attempt failed and nothing was found. Callers about to write use strict
// mode, where the first failed attempt ends the lookup: the unreadable step
// may hold the document that a later empty step would hide.
func runFallback[K, Q, R any](
	ctx context.Context,
	key K,
	strategies []Strategy[K, Q],
	exec func(context.Context, Q) (R, bool, error),
	onErr func(strategy string, err error),
	strict bool,
) (R, string, error) {
	var (
		zero    R
		lastErr error
	)
	for _, st := range strategies {
		q, ok := st.Build(key)
		if !ok {
			continue
		}
		res, found, err := exec(ctx, q)
		if err != nil {
			if onErr != nil {
				onErr(st.Name, err)
			}
			if strict {
				return zero, StrategyNone, err
			}
			lastErr = err
			continue
		}
		lastErr = nil
		if found {
			return res, st.Name, nil
		}
	}
	return zero, StrategyNone, lastErr
}
