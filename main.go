package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// Version is set at build time via -ldflags
var Version = "dev"

// Runner is the set of modes the command line can dispatch to.
type Runner interface {
	ApplyOptions(opts AppOptions)
	RunPipeline() error
	RunConvert(input string) error
	RunRender() error
}

func main() {
	logger, err := newLogger(os.Getenv("FLATFEAT_DEBUG") != "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(os.Args[1:], os.Stdout, NewApp(logger)); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

// run parses args and dispatches to the selected mode.
func run(args []string, out io.Writer, app Runner) error {
	fs := flag.NewFlagSet("flatfeat", flag.ContinueOnError)
	fs.SetOutput(out)

	var opts AppOptions
	fs.StringVar(&opts.ConfigFile, "config", "config.yaml", "Path to configuration file")
	fs.BoolVar(&opts.RunPipeline, "run", false, "Impute and derive features for the configured listing tables")
	fs.StringVar(&opts.ConvertInput, "convert", "", "Convert a GeoJSON FeatureCollection to a latitude,longitude CSV and exit")
	fs.BoolVar(&opts.RenderOnly, "render", false, "Render districts, facilities and listings to a map and exit")
	fs.StringVar(&opts.OutputFile, "output", "", "Output file for --convert and --render")
	fs.StringVar(&opts.RenderFormat, "format", "", "Render format: svg or png (default from config)")
	fs.StringVar(&opts.EnvFile, "env-file", ".env", "Optional dotenv file with MQTT settings")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintf(out, "flatfeat version: %s\n", Version)
	app.ApplyOptions(opts)

	switch {
	case opts.ConvertInput != "":
		return app.RunConvert(opts.ConvertInput)
	case opts.RenderOnly:
		return app.RunRender()
	case opts.RunPipeline:
		return app.RunPipeline()
	default:
		fmt.Fprintln(out, "Use --run to impute and derive listing features")
		fmt.Fprintln(out, "Use --convert=FILE.geojson to convert GeoJSON to a coordinate CSV")
		fmt.Fprintln(out, "Use --render to draw a map of districts, facilities and listings")
		fmt.Fprintln(out, "\nConfiguration:")
		fmt.Fprintln(out, "  config.yaml - inputs, reference data, locations and feature flags")
		fmt.Fprintln(out, "  .env        - MQTT_BROKER and credentials for run-report publishing")
		return nil
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
