// Package telemetry records how long branch and ledger operations take.
//
// A Collector travels in the context so instrumented code does not need an
// extra parameter. Without a collector every timer is a no-op.
//
//	collector := telemetry.NewTimingCollector()
//	ctx := telemetry.WithCollector(ctx, collector)
//
//	timer := telemetry.StartTimer(ctx, "branch.rename")
//	defer timer.End()
//
//	collector.Report(os.Stderr, styles)
package telemetry

import (
	"context"
	"io"
)

type contextKey struct{}

// Collector gathers timings.
type Collector interface {
	// Start begins timing an operation. Timers started while another one is
	// running are nested under it.
	Start(name string) Timer

	// Report writes the collected timings to w. styles may be nil.
	Report(w io.Writer, styles Styler)
}

// Timer tracks a single operation.
type Timer interface {
	End()

	// Child starts a timer nested under this one.
	Child(name string) Timer
}

// Styler decorates report output. *output.Styles satisfies it.
type Styler interface {
	Keyword(text string) string
	Dim(text string) string
	Warning(text string) string
}

// WithCollector returns a context carrying collector.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, contextKey{}, collector)
}

// FromContext returns the collector in ctx, or a no-op collector.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(contextKey{}).(Collector); ok {
		return collector
	}
	return noOp{}
}

// StartTimer starts a timer on the collector in ctx.
func StartTimer(ctx context.Context, name string) Timer {
	return FromContext(ctx).Start(name)
}

type noOp struct{}

func (noOp) Start(string) Timer { return noOp{} }
func (noOp) Report(io.Writer, Styler) {}
func (noOp) End() {}
func (noOp) Child(string) Timer { return noOp{} }
