package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vidloop/keystoned/internal/api"
	"github.com/vidloop/keystoned/internal/app"
	"github.com/vidloop/keystoned/internal/capture"
	"github.com/vidloop/keystoned/internal/color"
	"github.com/vidloop/keystoned/internal/control"
	"github.com/vidloop/keystoned/internal/output"
	"github.com/vidloop/keystoned/internal/pipeline"
	"github.com/vidloop/keystoned/internal/preview"
	"github.com/vidloop/keystoned/internal/stats"
	"github.com/vidloop/keystoned/internal/state"
	"github.com/vidloop/keystoned/internal/warp"
	"github.com/vidloop/keystoned/pkg/framepool"
	"github.com/vidloop/keystoned/pkg/shell"
)

func main() {
	app.Init()

	src, err := capture.Open(app.Input, app.Width, app.Height, app.FPS, false)
	if err != nil {
		app.Logger.Fatal().Err(err).Msg("open capture device")
	}

	pool := framepool.New()

	sink, err := output.Open(app.Output, src.Width, src.Height, src.FPS, pool)
	if err != nil {
		app.Logger.Fatal().Err(err).Msg("open output device")
	}

	mgr := state.New(src.Width, src.Height)
	colorStage := &color.Stage{}
	warpStage := &warp.Stage{}
	prev := &preview.Encoder{}
	st := &stats.Stats{}

	p := pipeline.New(src, sink, pool, mgr, colorStage, warpStage, prev, st)

	ctrl := control.New(mgr, prev, st)
	ctrl.Video = &control.Video{Source: src}
	cam := &control.Camera{Source: src}

	handler := api.Init(api.Deps{Controller: ctrl, Camera: cam, Frames: p})

	go func() {
		if err := p.Run(); err != nil {
			app.Logger.Fatal().Err(err).Msg("pipeline stopped")
		}
	}()

	go func() {
		if err := api.Serve(handler); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Fatal().Err(err).Msg("http server stopped")
		}
	}()

	sig := shell.RunUntilSignal()
	app.Logger.Info().Str("signal", sig).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := api.Shutdown(ctx); err != nil {
		app.Logger.Warn().Err(err).Msg("http server shutdown")
	}

	p.Stop()
	_ = sink.Close()
	_ = src.Close()
}
