package panicerr

import (
	"context"

	"github.com/sourcegraph/conc/panics"
)

// Safe wraps a function that returns an error, catching any panics and returning them as an error.
func Safe(fn func() error) func() error {
	return func() error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn()
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}

// SafeValue is Safe for functions that also produce a value. The zero value
// is returned when fn panics.
func SafeValue[T any](fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		var (
			catcher panics.Catcher
			v       T
			err     error
		)
		catcher.Try(func() {
			v, err = fn(ctx)
		})
		if rerr := catcher.Recovered().AsError(); rerr != nil {
			var zero T
			return zero, rerr
		}
		return v, err
	}
}
