package chartengine

import (
	"fmt"
	"image"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/vizboard/vizboard/src/dataset"
	"github.com/vizboard/vizboard/src/logging"
)

// Backend produces a rendered artifact from transformed chart data.
type Backend interface {
	Name() string
	Render(data *ChartData, cfg Config) (*Artifact, error)
}

// RenderError is returned only when the primary and the fallback
// backend both failed.
type RenderError struct {
	Primary  error
	Fallback error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed on both backends: primary: %v; fallback: %v", e.Primary, e.Fallback)
}

func (e *RenderError) Unwrap() error { return e.Fallback }

// Engine renders charts, preferring the interactive backend and
// retrying once on the static one.
type Engine struct {
	primary  Backend
	fallback Backend
}

// New returns an engine with the default backend pair.
func New() *Engine {
	return &Engine{primary: &EChartsBackend{}, fallback: &StaticBackend{}}
}

// NewWithBackends wires explicit backends (tests force failures this way).
func NewWithBackends(primary, fallback Backend) *Engine {
	return &Engine{primary: primary, fallback: fallback}
}

// Render transforms the dataset per cfg and renders it. On a primary
// backend failure it retries once with the fallback and tags the
// result's origin accordingly. The returned result carries a frozen
// copy of cfg; mutating the caller's Config afterwards changes nothing.
func (e *Engine) Render(ds *dataset.Dataset, cfg Config) (*ChartResult, error) {
	cfg = cfg.withDefaults()
	data, err := Transform(ds, cfg.Type, cfg.XColumn, cfg.YColumn)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "chartengine")
	}
	start := time.Now()
	art, primaryErr := e.primary.Render(data, cfg)
	if primaryErr == nil {
		return &ChartResult{Artifact: *art, Origin: OriginPrimary, Duration: time.Since(start), Points: data.Points(), Config: cfg}, nil
	}
	logging.Warnf("primary backend %s failed (%v), retrying with %s", e.primary.Name(), primaryErr, e.fallback.Name())
	art, fallbackErr := e.fallback.Render(data, cfg)
	if fallbackErr != nil {
		return nil, &RenderError{Primary: primaryErr, Fallback: fallbackErr}
	}
	return &ChartResult{Artifact: *art, Origin: OriginFallback, Duration: time.Since(start), Points: data.Points(), Config: cfg}, nil
}

// Preview renders a static PNG image for display in a UI canvas,
// bypassing the primary/fallback dance. The interactive artifact from
// Render remains the exportable chart.
func (e *Engine) Preview(ds *dataset.Dataset, cfg Config) (image.Image, error) {
	cfg = cfg.withDefaults()
	data, err := Transform(ds, cfg.Type, cfg.XColumn, cfg.YColumn)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "chartengine")
	}
	art, err := e.fallback.Render(data, cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "chartengine: preview")
	}
	return art.Image, nil
}
