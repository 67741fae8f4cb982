package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringStrategies(names ...string) []Strategy[string, string] {
	out := make([]Strategy[string, string], 0, len(names))
	for _, n := range names {
		name := n
		out = append(out, Strategy[string, string]{Name: name, Build: func(key string) (string, bool) {
			return key + ":" + name, name != "skip"
		}})
	}
	return out
}

func TestRunFallbackStopsAtFirstHit(t *testing.T) {
	var executed []string
	res, used, err := runFallback(context.Background(), "k", stringStrategies("one", "skip", "two", "three"),
		func(ctx context.Context, q string) (string, bool, error) {
			executed = append(executed, q)
			return q, q == "k:two", nil
		}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "k:two", res)
	assert.Equal(t, "two", used)
	assert.Equal(t, []string{"k:one", "k:two"}, executed)
}

func TestRunFallbackErrorSemantics(t *testing.T) {
	boom := errors.New("boom")
	var reported []string
	onErr := func(strategy string, err error) { reported = append(reported, strategy) }

	_, used, err := runFallback(context.Background(), "k", stringStrategies("one", "two"),
		func(ctx context.Context, q string) (string, bool, error) {
			if q == "k:one" {
				return "", false, boom
			}
			return "", false, nil
		}, onErr, false)
	require.NoError(t, err)
	assert.Equal(t, StrategyNone, used)
	assert.Equal(t, []string{"one"}, reported)

	_, _, err = runFallback(context.Background(), "k", stringStrategies("one", "two"),
		func(ctx context.Context, q string) (string, bool, error) {
			if q == "k:two" {
				return "", false, boom
			}
			return "", false, nil
		}, nil, false)
	assert.ErrorIs(t, err, boom)
}

func TestRunFallbackStrictStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	var executed []string
	_, used, err := runFallback(context.Background(), "k", stringStrategies("one", "two"),
		func(ctx context.Context, q string) (string, bool, error) {
			executed = append(executed, q)
			if q == "k:one" {
				return "", false, boom
			}
			return "", false, nil
		}, nil, true)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StrategyNone, used)
	assert.Equal(t, []string{"k:one"}, executed)
}

func TestGeneration(t *testing.T) {
	var g Generation
	first := g.Next()
	assert.True(t, g.IsCurrent(first))
	second := g.Next()
	assert.False(t, g.IsCurrent(first))
	assert.True(t, g.IsCurrent(second))
}
