package globals

import (
	"context"

	"mytimetable-scraper/internal/components/telemetry"
	"mytimetable-scraper/internal/config"
)

type key struct{}

type Value struct {
	Config config.Config
	Tel    telemetry.API
	// Cancel stops the command's context with a cause.
	Cancel context.CancelCauseFunc
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, key{}, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(key{}).(*Value)
}
