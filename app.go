package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tdewolff/canvas"
	"go.uber.org/zap"

	"github.com/kwv/flatfeat/enrich"
)

// App encapsulates the application state and dependencies
type App struct {
	Config    *enrich.Config
	Logger    *zap.Logger
	Publisher *enrich.ReportPublisher

	// CLI Flags (effectively dependencies)
	ConfigFile   string
	OutputFile   string
	RenderFormat string
	EnvFile      string
}

// AppOptions holds CLI options for the App
type AppOptions struct {
	ConfigFile   string
	OutputFile   string
	RenderFormat string
	EnvFile      string

	// Mode selection
	RunPipeline  bool
	ConvertInput string
	RenderOnly   bool
}

// NewApp creates a new App instance
func NewApp(logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{Logger: logger}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.OutputFile = opts.OutputFile
	a.RenderFormat = opts.RenderFormat
	a.EnvFile = opts.EnvFile
}

// LoadConfig loads the configuration file once.
func (a *App) LoadConfig() error {
	if a.Config != nil {
		return nil
	}
	cfg, err := enrich.LoadConfig(a.ConfigFile)
	if err != nil {
		return err
	}
	a.Config = cfg
	return nil
}

// loadEnv reads the optional dotenv file. A missing file is not an error.
func (a *App) loadEnv() error {
	if a.EnvFile == "" {
		return nil
	}
	if err := godotenv.Load(a.EnvFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", a.EnvFile, err)
	}
	a.Logger.Debug("loaded environment file", zap.String("path", a.EnvFile))
	return nil
}

// inputTable is one listing table with its short name.
type inputTable struct {
	name string
	path string
	data *enrich.Dataset
}

func (a *App) readInputs() ([]inputTable, error) {
	var tables []inputTable
	for _, path := range []string{a.Config.Input.Train, a.Config.Input.Test} {
		if path == "" {
			continue
		}
		ds, dropped, err := enrich.ReadDatasetFile(path)
		if err != nil {
			return nil, err
		}
		if len(dropped) > 0 {
			a.Logger.Warn("dropped non-numeric columns",
				zap.String("path", path),
				zap.Strings("columns", dropped))
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		a.Logger.Info("loaded listings",
			zap.String("dataset", name),
			zap.Int("rows", ds.Len()),
			zap.Int("columns", len(ds.Columns())))
		tables = append(tables, inputTable{name: name, path: path, data: ds})
	}
	return tables, nil
}

// RunPipeline imputes and derives features for every configured listing
// table and writes {output.dir}/{name}_features.csv for each.
func (a *App) RunPipeline() error {
	if err := a.loadEnv(); err != nil {
		return err
	}
	if err := a.LoadConfig(); err != nil {
		return err
	}

	tables, err := a.readInputs()
	if err != nil {
		return err
	}
	sets := make([]*enrich.Dataset, len(tables))
	for i, t := range tables {
		sets[i] = t.data
	}
	population := enrich.Concat(sets...)

	refs, err := enrich.LoadReferences(a.Config, a.Logger)
	if err != nil {
		return err
	}
	pipeline, err := enrich.BuildPipeline(a.Config, refs, population, a.Logger)
	if err != nil {
		return err
	}
	a.Logger.Info("pipeline ready", zap.Strings("stages", pipeline.Stages()))

	if a.Publisher == nil {
		client, err := enrich.ConnectMQTT(a.Config.Publish, a.Logger)
		if err != nil {
			// Reports are informational; a broker outage must not fail the run.
			a.Logger.Warn("run reports disabled", zap.Error(err))
		}
		a.Publisher = enrich.NewReportPublisher(client, a.Config.Publish.Prefix, a.Logger)
		defer a.Publisher.Close()
	}

	if err := os.MkdirAll(a.Config.Output.Dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for _, t := range tables {
		out, reports, err := pipeline.Run(t.data)
		if err != nil {
			return fmt.Errorf("dataset %s: %w", t.name, err)
		}
		path := filepath.Join(a.Config.Output.Dir, t.name+"_features.csv")
		if err := enrich.WriteDatasetFile(path, out); err != nil {
			return err
		}
		a.Logger.Info("wrote features",
			zap.String("dataset", t.name),
			zap.String("path", path),
			zap.Int("columns", len(out.Columns())))

		report := enrich.RunReport{
			Dataset:   t.name,
			Rows:      out.Len(),
			Columns:   len(out.Columns()),
			Stages:    reports,
			Timestamp: time.Now().Unix(),
		}
		if err := a.Publisher.Publish(report); err != nil {
			a.Logger.Warn("publishing run report failed", zap.String("dataset", t.name), zap.Error(err))
		}
	}
	return nil
}

// RunConvert converts a GeoJSON FeatureCollection into a coordinate CSV next
// to the input unless an output file is given.
func (a *App) RunConvert(input string) error {
	output := a.OutputFile
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".csv"
	}
	n, err := enrich.ConvertGeoJSONFile(input, output)
	if err != nil {
		return err
	}
	a.Logger.Info("converted GeoJSON",
		zap.String("input", input),
		zap.String("output", output),
		zap.Int("features", n))
	return nil
}

// RunRender draws the configured districts, facilities and training
// listings.
func (a *App) RunRender() error {
	if err := a.LoadConfig(); err != nil {
		return err
	}
	format := a.RenderFormat
	if format == "" {
		format = a.Config.Render.Format
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("%w: unknown render format %q", enrich.ErrConfiguration, format)
	}
	output := a.OutputFile
	if output == "" {
		output = "listings-map." + format
	}

	refs, err := enrich.LoadReferences(a.Config, a.Logger)
	if err != nil {
		return err
	}
	train, _, err := enrich.ReadDatasetFile(a.Config.Input.Train)
	if err != nil {
		return err
	}

	var facilities []*enrich.FacilitySet
	for _, set := range []*enrich.FacilitySet{refs.Metro, refs.Hospitals, refs.Airports} {
		if set != nil {
			facilities = append(facilities, set)
		}
	}
	r := enrich.NewMapRenderer(refs.Districts, facilities, enrich.DatasetLocations(train))
	if a.Config.Render.Resolution > 0 {
		r.Resolution = canvas.DPI(a.Config.Render.Resolution)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	defer f.Close()

	if format == "png" {
		err = r.RenderToPNG(f)
	} else {
		err = r.RenderToSVG(f)
	}
	if err != nil {
		return fmt.Errorf("rendering %s: %w", output, err)
	}
	a.Logger.Info("rendered map", zap.String("output", output), zap.String("format", format))
	return nil
}
