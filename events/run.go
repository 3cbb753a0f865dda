package events

import (
	"context"
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
)

// PanicError is returned by Run when the tick panicked.
type PanicError struct {
	Value any
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("tick panicked: %v", p.Value)
}

// Run executes fn as one tick wrapped by hook. A panic in fn is recovered and returned
// as a *PanicError. After is always called, last.
func Run[T any](ctx context.Context, hook Hook, tick Tick, fn func(context.Context, *Tick) (T, error)) (result T, err error) {
	if hook == nil {
		hook = NewCompositeHook()
	}
	tick.Started = strfmt.DateTime(time.Now())
	hook.Before(ctx, tick)

	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = &PanicError{Value: r}
			tick.Panicked = true
		}
		tick.Duration = time.Since(time.Time(tick.Started))
		if err != nil {
			hook.OnError(ctx, tick, err)
		}
		hook.After(ctx, tick)
	}()

	return fn(ctx, &tick)
}
