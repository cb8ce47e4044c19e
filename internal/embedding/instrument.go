package embedding

import (
	"context"
	"time"
)

// Recorder receives one observation per encoder call.
type Recorder interface {
	RecordEncode(ctx context.Context, provider, model string, duration time.Duration, status string)
}

type instrumented struct {
	Embedder
	recorder Recorder
	provider string
}

// Instrument wraps e so every Embed call is timed and counted.
func Instrument(e Embedder, r Recorder) Embedder {
	if r == nil {
		return e
	}
	return &instrumented{Embedder: e, recorder: r, provider: providerName(e)}
}

func (i *instrumented) Provider() string { return i.provider }

func (i *instrumented) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := i.Embedder.Embed(ctx, text)
	status := "success"
	if err != nil {
		status = "error"
	}
	i.recorder.RecordEncode(ctx, i.provider, i.Embedder.Model(), time.Since(start), status)
	return vec, err
}
