package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/vizboard/vizboard/src/chartengine"
	"github.com/vizboard/vizboard/src/dataset"
	"github.com/vizboard/vizboard/src/logging"
	"github.com/vizboard/vizboard/src/perfmon"
)

// RunExportMode renders charts for filePath and writes the artifacts
// under outDir without opening a window. Every applicable chart type is
// rendered unless onlyType narrows it to one. Each chart is written
// twice: the backend artifact (HTML, or PNG when the fallback produced
// it) and a captioned preview PNG.
func RunExportMode(filePath, outDir, policy, onlyType string) error {
	if filePath == "" {
		return fmt.Errorf("-export requires -file")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}

	missing := dataset.MissingKeep
	switch policy {
	case "drop":
		missing = dataset.MissingDrop
	case "fill":
		missing = dataset.MissingFill
	}

	mon := perfmon.New()
	var ds *dataset.Dataset
	err := mon.Track("parse "+filepath.Base(filePath), 0, func() error {
		var perr error
		ds, perr = dataset.ParseFile(filePath, "", dataset.ParseOptions{Missing: missing})
		return perr
	})
	if err != nil {
		return err
	}

	types := chartengine.ChartTypes()
	if onlyType != "" {
		t, terr := chartengine.ParseChartType(onlyType)
		if terr != nil {
			return terr
		}
		types = []chartengine.ChartType{t}
	}

	eng := chartengine.New()
	for _, typ := range types {
		cfg := chartengine.Config{Type: typ, Title: filepath.Base(filePath)}
		var res *chartengine.ChartResult
		rerr := mon.Track("render "+string(typ), ds.Len(), func() error {
			var e error
			res, e = eng.Render(ds, cfg)
			return e
		})
		if rerr != nil {
			// A time series needs a time column; other datasets simply
			// skip that chart type instead of failing the whole export.
			if onlyType == "" {
				logging.Warnf("skipping %s chart: %v", typ, rerr)
				continue
			}
			return rerr
		}

		name := "chart_" + string(typ) + res.Artifact.Format.Ext()
		if werr := os.WriteFile(filepath.Join(outDir, name), res.Artifact.Bytes, 0o644); werr != nil {
			return fmt.Errorf("write %s: %w", name, werr)
		}

		img, perr := eng.Preview(ds, cfg)
		if perr != nil {
			return perr
		}
		caption := filepath.Base(filePath)
		if res.Origin == chartengine.OriginFallback {
			caption += " (fallback render)"
		}
		f, ferr := os.Create(filepath.Join(outDir, "chart_"+string(typ)+"_preview.png"))
		if ferr != nil {
			return ferr
		}
		if eerr := png.Encode(f, chartengine.AnnotateImage(img, caption)); eerr != nil {
			f.Close()
			return eerr
		}
		if cerr := f.Close(); cerr != nil {
			return cerr
		}
		logging.Infof("exported %s chart to %s", typ, outDir)
	}

	sum := mon.Summarize()
	logging.Infof("export done: %d operations, avg %s, max %s, %d warnings",
		sum.Total, sum.AvgDuration, sum.MaxDuration, sum.Warnings)
	return nil
}
