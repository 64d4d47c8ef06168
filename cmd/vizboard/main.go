package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	png "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/vizboard/vizboard/cmd/vizboard/uihelpers"
	"github.com/vizboard/vizboard/src/chartengine"
	"github.com/vizboard/vizboard/src/dataset"
	"github.com/vizboard/vizboard/src/envcheck"
	"github.com/vizboard/vizboard/src/logging"
	"github.com/vizboard/vizboard/src/perfmon"
)

// previewRowLimit caps how many rows feed the interactive preview.
// Bigger files are thinned on load; the export path uses the full set.
const previewRowLimit = 50_000

type uiState struct {
	app      fyne.App
	window   fyne.Window
	filePath string

	env     envcheck.Manifest
	engine  *chartengine.Engine
	mon     *perfmon.Monitor
	ds      *dataset.Dataset
	lastRes *chartengine.ChartResult

	// selections
	missingPolicy string // "drop", "fill" or "keep"
	chartType     chartengine.ChartType
	scheme        chartengine.ColorScheme
	xColumn       string // "(auto)" maps to engine auto-pick
	yColumn       string
	chartTitle    string

	// widgets
	table        *widget.Table
	chartCanvas  *canvas.Image
	statusLabel  *widget.Label
	perfTable    *widget.Table
	summaryLabel *widget.Label
	xSelect      *widget.Select
	ySelect      *widget.Select
}

const autoColumn = "(auto)"

func (s *uiState) policy() dataset.MissingPolicy {
	switch s.missingPolicy {
	case "drop":
		return dataset.MissingDrop
	case "fill":
		return dataset.MissingFill
	default:
		return dataset.MissingKeep
	}
}

// dark theme wrapper
type darkTheme struct{}

func (d *darkTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}
func (d *darkTheme) Font(style fyne.TextStyle) fyne.Resource { return theme.DefaultTheme().Font(style) }
func (d *darkTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}
func (d *darkTheme) Size(name fyne.ThemeSizeName) float32 { return theme.DefaultTheme().Size(name) }

func main() {
	var fileFlag, exportFlag, policyFlag, typeFlag, logLevel string
	flag.StringVar(&fileFlag, "file", "", "Path to a CSV or JSON data file to open")
	flag.StringVar(&exportFlag, "export", "", "Render all chart types for -file into this directory and exit")
	flag.StringVar(&policyFlag, "policy", "keep", "Missing value policy: drop, fill or keep")
	flag.StringVar(&typeFlag, "type", "", "Restrict -export to one chart type")
	flag.StringVar(&logLevel, "loglevel", "info", "Log level: debug, info, warn or error")
	flag.Parse()

	logging.SetLevel(logLevel)

	env, err := envcheck.Setup(".")
	if err != nil {
		// Unusable environment is fatal before any window opens.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if exportFlag != "" {
		if err := RunExportMode(fileFlag, exportFlag, policyFlag, typeFlag); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	a := app.NewWithID("com.vizboard.app")
	a.Settings().SetTheme(&darkTheme{})
	w := a.NewWindow("VizBoard")
	w.Resize(fyne.NewSize(1100, 800))

	state := &uiState{
		app:           a,
		window:        w,
		filePath:      fileFlag,
		env:           env,
		engine:        chartengine.New(),
		mon:           perfmon.New(),
		missingPolicy: policyFlag,
		chartType:     chartengine.TypeBar,
		scheme:        chartengine.SchemeDefault,
		xColumn:       autoColumn,
		yColumn:       autoColumn,
	}

	// top bar controls
	fileLabel := widget.NewLabel(uihelpers.TruncatePath(state.filePath, 60))
	// Create selects without callbacks first; wiring happens after the
	// chart canvas exists so a change can trigger a redraw.
	policySelect := widget.NewSelect([]string{"drop", "fill", "keep"}, nil)
	policySelect.Selected = state.missingPolicy
	typeOptions := make([]string, 0, len(chartengine.ChartTypes()))
	for _, t := range chartengine.ChartTypes() {
		typeOptions = append(typeOptions, string(t))
	}
	typeSelect := widget.NewSelect(typeOptions, nil)
	typeSelect.Selected = string(state.chartType)
	schemeOptions := make([]string, 0, len(chartengine.ColorSchemes()))
	for _, s := range chartengine.ColorSchemes() {
		schemeOptions = append(schemeOptions, string(s))
	}
	schemeSelect := widget.NewSelect(schemeOptions, nil)
	schemeSelect.Selected = string(state.scheme)
	state.xSelect = widget.NewSelect([]string{autoColumn}, nil)
	state.xSelect.Selected = autoColumn
	state.ySelect = widget.NewSelect([]string{autoColumn}, nil)
	state.ySelect.Selected = autoColumn
	titleEntry := widget.NewEntry()
	titleEntry.SetPlaceHolder("Chart title")

	// Data table (parsed rows with a header row)
	state.table = widget.NewTable(
		func() (int, int) {
			if state.ds == nil || len(state.ds.Columns) == 0 {
				return 1, 1
			}
			return state.ds.Len() + 1, len(state.ds.Columns)
		},
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.TableCellID, o fyne.CanvasObject) {
			lbl := o.(*widget.Label)
			if state.ds == nil || len(state.ds.Columns) == 0 {
				lbl.SetText("no data loaded")
				return
			}
			col := state.ds.Columns[id.Col]
			if id.Row == 0 {
				lbl.SetText(fmt.Sprintf("%s (%s)", col, state.ds.Schema[col]))
				return
			}
			rix := id.Row - 1
			if rix < 0 || rix >= state.ds.Len() {
				lbl.SetText("")
				return
			}
			v := state.ds.Rows[rix][col]
			if n, ok := v.Float(); ok {
				lbl.SetText(uihelpers.FormatNumericCell(n))
				return
			}
			lbl.SetText(v.Label())
		},
	)

	// Performance table (newest sample first)
	state.perfTable = widget.NewTable(
		func() (int, int) { return len(state.mon.Samples()) + 1, 6 },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.TableCellID, o fyne.CanvasObject) {
			lbl := o.(*widget.Label)
			if id.Row == 0 {
				lbl.SetText([]string{"Operation", "Grade", "Duration", "Points", "Mem Delta", "Started"}[id.Col])
				return
			}
			samples := state.mon.Samples()
			rix := len(samples) - id.Row
			if rix < 0 || rix >= len(samples) {
				lbl.SetText("")
				return
			}
			s := samples[rix]
			switch id.Col {
			case 0:
				lbl.SetText(s.Op)
			case 1:
				lbl.SetText(s.Class.String())
			case 2:
				lbl.SetText(uihelpers.FormatDurationCell(s.Duration))
			case 3:
				lbl.SetText(fmt.Sprintf("%d", s.Points))
			case 4:
				lbl.SetText(uihelpers.FormatByteDelta(s.MemDelta))
			case 5:
				lbl.SetText(s.Start.Format("15:04:05"))
			}
		},
	)
	state.perfTable.SetColumnWidth(0, 160)
	state.perfTable.SetColumnWidth(1, 70)
	state.perfTable.SetColumnWidth(2, 100)
	state.perfTable.SetColumnWidth(3, 90)
	state.perfTable.SetColumnWidth(4, 110)
	state.perfTable.SetColumnWidth(5, 90)
	state.summaryLabel = widget.NewLabel("no operations tracked yet")

	// chart preview placeholder
	state.chartCanvas = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 100, 60)))
	state.chartCanvas.FillMode = canvas.ImageFillContain
	state.chartCanvas.SetMinSize(fyne.NewSize(900, 420))
	state.statusLabel = widget.NewLabel("")

	top := container.NewHBox(
		widget.NewButton("Open…", func() { openFileDialog(state, fileLabel) }),
		widget.NewButton("Reload", func() { loadDataset(state, fileLabel) }),
		widget.NewLabel("Missing:"), policySelect,
		widget.NewLabel("Chart:"), typeSelect,
		widget.NewLabel("Colors:"), schemeSelect,
		widget.NewLabel("X:"), state.xSelect,
		widget.NewLabel("Y:"), state.ySelect,
		widget.NewLabel("File:"), fileLabel,
	)

	chartColumn := container.NewBorder(
		container.NewVBox(titleEntry), state.statusLabel, nil, nil,
		container.NewVScroll(state.chartCanvas),
	)
	perfColumn := container.NewBorder(state.summaryLabel, nil, nil, nil, state.perfTable)

	tabs := container.NewAppTabs(
		container.NewTabItem("Data", state.table),
		container.NewTabItem("Chart", chartColumn),
		container.NewTabItem("Performance", perfColumn),
	)
	tabs.SetTabLocation(container.TabLocationTop)
	tabs.OnSelected = func(ti *container.TabItem) {
		if state != nil && state.app != nil {
			state.app.Preferences().SetInt("selectedTabIndex", tabs.SelectedIndex())
		}
	}
	w.SetContent(container.NewBorder(top, nil, nil, nil, tabs))

	// Redraw the preview on window resize so it scales with width
	if w.Canvas() != nil {
		prevW := int(w.Canvas().Size().Width)
		done := make(chan struct{})
		w.SetOnClosed(func() {
			savePrefs(state)
			close(done)
		})
		go func() {
			t := time.NewTicker(300 * time.Millisecond)
			defer t.Stop()
			for {
				select {
				case <-done:
					return
				case <-t.C:
					c := w.Canvas()
					if c == nil {
						continue
					}
					curW := int(c.Size().Width)
					if curW != prevW {
						prevW = curW
						redrawChart(state)
					}
				}
			}
		}()
	}

	// Now that the canvas exists, assign the control callbacks
	policySelect.OnChanged = func(v string) {
		state.missingPolicy = v
		savePrefs(state)
		loadDataset(state, fileLabel)
	}
	typeSelect.OnChanged = func(v string) {
		t, err := chartengine.ParseChartType(v)
		if err != nil {
			return
		}
		state.chartType = t
		savePrefs(state)
		redrawChart(state)
	}
	schemeSelect.OnChanged = func(v string) {
		state.scheme = chartengine.ColorScheme(v)
		savePrefs(state)
		redrawChart(state)
	}
	state.xSelect.OnChanged = func(v string) {
		state.xColumn = v
		savePrefs(state)
		redrawChart(state)
	}
	state.ySelect.OnChanged = func(v string) {
		state.yColumn = v
		savePrefs(state)
		redrawChart(state)
	}
	titleEntry.OnChanged = func(v string) {
		state.chartTitle = v
		savePrefs(state)
		redrawChart(state)
	}

	buildMenus(state, fileLabel)
	loadPrefs(state, fileLabel, policySelect, typeSelect, schemeSelect, titleEntry, tabs)
	loadDataset(state, fileLabel)

	w.ShowAndRun()
}

// menus and dialogs
func buildMenus(state *uiState, fileLabel *widget.Label) {
	if state == nil || state.window == nil || state.app == nil {
		return
	}
	var items []*fyne.MenuItem
	for _, f := range recentFiles(state) {
		f := f
		items = append(items, fyne.NewMenuItem(uihelpers.TruncatePath(f, 60), func() {
			state.filePath = f
			fileLabel.SetText(uihelpers.TruncatePath(state.filePath, 60))
			savePrefs(state)
			loadDataset(state, fileLabel)
		}))
	}
	clearRecent := fyne.NewMenuItem("Clear Recent", func() { clearRecentFiles(state); buildMenus(state, fileLabel) })
	recentMenu := fyne.NewMenu("Open Recent", append(items, clearRecent)...)
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open…", func() { openFileDialog(state, fileLabel) }),
		fyne.NewMenuItem("Reload", func() { loadDataset(state, fileLabel) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Chart…", func() { exportChartArtifact(state) }),
		fyne.NewMenuItem("Export Preview PNG…", func() { exportPreviewPNG(state) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { state.window.Close() }),
	)
	state.window.SetMainMenu(fyne.NewMainMenu(fileMenu, recentMenu))

	canv := state.window.Canvas()
	if canv != nil {
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierSuper}, func(fyne.Shortcut) { openFileDialog(state, fileLabel) })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { openFileDialog(state, fileLabel) })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyR, Modifier: fyne.KeyModifierSuper}, func(fyne.Shortcut) { loadDataset(state, fileLabel) })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyR, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { loadDataset(state, fileLabel) })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: fyne.KeyModifierSuper}, func(fyne.Shortcut) { state.window.Close() })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { state.window.Close() })
	}
}

func openFileDialog(state *uiState, fileLabel *widget.Label) {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		state.filePath = rc.URI().Path()
		fileLabel.SetText(uihelpers.TruncatePath(state.filePath, 60))
		addRecentFile(state, state.filePath)
		savePrefs(state)
		loadDataset(state, fileLabel)
	}, state.window)
	d.Show()
}

// load data and render
func loadDataset(state *uiState, fileLabel *widget.Label) {
	if state.filePath == "" {
		return
	}
	var ds *dataset.Dataset
	err := state.mon.Track("parse "+filepath.Base(state.filePath), 0, func() error {
		var perr error
		ds, perr = dataset.ParseFile(state.filePath, "", dataset.ParseOptions{Missing: state.policy()})
		return perr
	})
	if err != nil {
		dialog.ShowError(err, state.window)
		refreshPerf(state)
		return
	}
	if ds.Len() > previewRowLimit {
		ds = perfmon.SampleDataset(ds, previewRowLimit)
	}
	state.ds = ds
	logging.Infof("loaded %s: %d rows, %d columns", state.filePath, ds.Len(), len(ds.Columns))

	// refresh column pickers
	xOpts := append([]string{autoColumn}, ds.Columns...)
	yOpts := append([]string{autoColumn}, ds.NumericColumns()...)
	state.xSelect.Options = xOpts
	if !contains(xOpts, state.xColumn) {
		state.xColumn = autoColumn
		state.xSelect.Selected = autoColumn
	}
	state.xSelect.Refresh()
	state.ySelect.Options = yOpts
	if !contains(yOpts, state.yColumn) {
		state.yColumn = autoColumn
		state.ySelect.Selected = autoColumn
	}
	state.ySelect.Refresh()

	if state.table != nil {
		if state.window != nil && state.window.Canvas() != nil {
			cw := uihelpers.ComputeColumnWidth(state.window.Canvas().Size().Width, len(ds.Columns))
			for i := range ds.Columns {
				state.table.SetColumnWidth(i, float32(cw))
			}
		}
		state.table.Refresh()
	}
	redrawChart(state)
}

func chartConfig(state *uiState) chartengine.Config {
	w, h := 900, 420
	if state.window != nil && state.window.Canvas() != nil {
		w, h = uihelpers.ComputeChartDimensions(int(state.window.Canvas().Size().Width * 0.95))
	}
	x, y := state.xColumn, state.yColumn
	if x == autoColumn {
		x = ""
	}
	if y == autoColumn {
		y = ""
	}
	return chartengine.Config{
		Type:    state.chartType,
		Title:   state.chartTitle,
		Scheme:  state.scheme,
		XColumn: x,
		YColumn: y,
		Width:   w,
		Height:  h,
	}
}

func redrawChart(state *uiState) {
	if state == nil || state.ds == nil || state.chartCanvas == nil {
		return
	}
	cfg := chartConfig(state)
	var res *chartengine.ChartResult
	err := state.mon.Track("render "+string(cfg.Type), state.ds.Len(), func() error {
		var rerr error
		res, rerr = state.engine.Render(state.ds, cfg)
		return rerr
	})
	if err != nil {
		state.statusLabel.SetText("render failed: " + err.Error())
		refreshPerf(state)
		return
	}
	state.lastRes = res
	img, perr := state.engine.Preview(state.ds, cfg)
	if perr == nil && img != nil {
		state.chartCanvas.Image = img
		state.chartCanvas.SetMinSize(fyne.NewSize(float32(cfg.Width), float32(cfg.Height)))
		state.chartCanvas.Refresh()
	}
	origin := "interactive backend"
	if res.Origin == chartengine.OriginFallback {
		origin = "static fallback backend"
	}
	state.statusLabel.SetText(fmt.Sprintf("%s chart, %d points, rendered by the %s in %s",
		cfg.Type, res.Points, origin, res.Duration.Round(time.Millisecond)))
	refreshPerf(state)
}

func refreshPerf(state *uiState) {
	if state.perfTable != nil {
		state.perfTable.Refresh()
	}
	if state.summaryLabel != nil {
		sum := state.mon.Summarize()
		state.summaryLabel.SetText(fmt.Sprintf("%d operations, avg %s, max %s, %d warnings, %d over twice budget",
			sum.Total, uihelpers.FormatDurationCell(sum.AvgDuration), uihelpers.FormatDurationCell(sum.MaxDuration),
			sum.Warnings, sum.Failures))
	}
}

// exportChartArtifact saves the last rendered artifact, HTML when the
// interactive backend produced it and PNG otherwise.
func exportChartArtifact(state *uiState) {
	if state == nil || state.window == nil || state.lastRes == nil {
		dialog.ShowInformation("Export", "No chart to export.", state.window)
		return
	}
	res := state.lastRes
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if _, werr := wc.Write(res.Artifact.Bytes); werr != nil {
			dialog.ShowError(werr, state.window)
		}
	}, state.window)
	fs.SetFileName("chart_" + string(res.Config.Type) + res.Artifact.Format.Ext())
	fs.Show()
}

// exportPreviewPNG saves the preview image with a source caption.
func exportPreviewPNG(state *uiState) {
	if state == nil || state.window == nil || state.chartCanvas == nil || state.chartCanvas.Image == nil {
		dialog.ShowInformation("Export", "No chart to export.", state.window)
		return
	}
	caption := filepath.Base(state.filePath)
	if state.lastRes != nil && state.lastRes.Origin == chartengine.OriginFallback {
		caption += " (fallback render)"
	}
	img := chartengine.AnnotateImage(state.chartCanvas.Image, caption)
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		_ = png.Encode(wc, img)
	}, state.window)
	fs.SetFileName("chart_preview.png")
	fs.Show()
}

// recent files helpers
func recentFiles(state *uiState) []string {
	prefs := state.app.Preferences()
	raw := prefs.StringWithFallback("recentFiles", "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func addRecentFile(state *uiState, path string) {
	prefs := state.app.Preferences()
	list := recentFiles(state)
	filtered := []string{path}
	for _, f := range list {
		if f != path && len(filtered) < 10 {
			filtered = append(filtered, f)
		}
	}
	prefs.SetString("recentFiles", strings.Join(filtered, "\n"))
}

func clearRecentFiles(state *uiState) {
	if state == nil || state.app == nil {
		return
	}
	state.app.Preferences().SetString("recentFiles", "")
}

// prefs
func savePrefs(state *uiState) {
	if state == nil || state.app == nil {
		return
	}
	prefs := state.app.Preferences()
	prefs.SetString("lastFile", state.filePath)
	prefs.SetString("missingPolicy", state.missingPolicy)
	prefs.SetString("chartType", string(state.chartType))
	prefs.SetString("colorScheme", string(state.scheme))
	prefs.SetString("xColumn", state.xColumn)
	prefs.SetString("yColumn", state.yColumn)
	prefs.SetString("chartTitle", state.chartTitle)
}

func loadPrefs(state *uiState, fileLabel *widget.Label, policySelect, typeSelect, schemeSelect *widget.Select, titleEntry *widget.Entry, tabs *container.AppTabs) {
	if state == nil || state.app == nil {
		return
	}
	prefs := state.app.Preferences()
	if f := prefs.StringWithFallback("lastFile", state.filePath); f != "" {
		state.filePath = f
		if fileLabel != nil {
			fileLabel.SetText(uihelpers.TruncatePath(state.filePath, 60))
		}
	}
	switch p := prefs.StringWithFallback("missingPolicy", state.missingPolicy); p {
	case "drop", "fill", "keep":
		state.missingPolicy = p
		if policySelect != nil {
			policySelect.Selected = p
		}
	}
	if t, err := chartengine.ParseChartType(prefs.StringWithFallback("chartType", string(state.chartType))); err == nil {
		state.chartType = t
		if typeSelect != nil {
			typeSelect.Selected = string(t)
		}
	}
	if s := prefs.StringWithFallback("colorScheme", string(state.scheme)); s != "" {
		state.scheme = chartengine.ColorScheme(s)
		if schemeSelect != nil {
			schemeSelect.Selected = s
		}
	}
	state.xColumn = prefs.StringWithFallback("xColumn", state.xColumn)
	state.yColumn = prefs.StringWithFallback("yColumn", state.yColumn)
	state.chartTitle = prefs.StringWithFallback("chartTitle", state.chartTitle)
	if titleEntry != nil && state.chartTitle != "" {
		titleEntry.SetText(state.chartTitle)
	}
	if tabs != nil {
		idx := prefs.IntWithFallback("selectedTabIndex", 0)
		if idx >= 0 && idx < len(tabs.Items) {
			tabs.SelectIndex(idx)
		}
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
