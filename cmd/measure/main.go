package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/woozymasta/dzmeasure/internal/config"
	"github.com/woozymasta/dzmeasure/internal/geo"
	"github.com/woozymasta/dzmeasure/internal/logger"
	"github.com/woozymasta/dzmeasure/internal/measure"
	"github.com/woozymasta/dzmeasure/internal/render"
	"github.com/woozymasta/dzmeasure/internal/source"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Input      string        `short:"i" long:"in"       description:"Trail file, URL or - for stdin" required:"true"`
	Mode       string        `short:"m" long:"mode"     description:"Measurement mode" choice:"distance" choice:"area" default:"distance"`
	ConfigFile string        `short:"c" long:"config"   env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Map        string        `long:"map"                description:"Map name or alias from the configuration"`
	CRS        string        `long:"crs"                description:"Override coordinate reference system (earth, simple, sphere)"`
	Radius     float64       `long:"radius"             description:"Sphere radius in meters for --crs sphere"`
	Units      string        `short:"u" long:"units"    description:"Override unit system" choice:"metric" choice:"imperial"`
	Format     string        `short:"f" long:"format"   description:"Input format" choice:"auto" choice:"geojson" choice:"points" choice:"game" default:"auto"`
	MapSize    float64       `short:"s" long:"map-size" description:"Game map size in meters, for game coordinates"`
	Output     string        `short:"o" long:"output"   description:"Result output format" choice:"text" choice:"json" choice:"yaml" default:"text"`
	GeoJSON    string        `long:"geojson"            description:"Write the result as GeoJSON to this file"`
	Render     string        `short:"r" long:"render"   description:"Render a preview image (.webp or .png)"`
	Width      int           `long:"width"              description:"Preview width in pixels" default:"512"`
	Height     int           `long:"height"             description:"Preview height in pixels" default:"512"`
	Timeout    time.Duration `long:"timeout"            description:"HTTP timeout for URL inputs" default:"30s"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, world, err := loadConfig(&opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	mc, err := cfg.Measurement(world)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid measurement configuration")
	}
	engine, err := measure.NewEngine(mc)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create measurement engine")
	}

	mode, err := measure.ParseMode(opts.Mode)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid mode")
	}

	client := &http.Client{Timeout: opts.Timeout}
	points, err := source.Load(client, opts.Input, source.Options{Format: opts.Format, MapSize: world.Size})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load trail")
	}

	log.Debug().
		Str("crs", mc.CRS.Name).
		Str("mode", string(mode)).
		Int("points", len(points)).
		Msg("Measuring trail")

	res, err := run(engine, mode, points, &opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Measurement failed")
	}

	if opts.GeoJSON != "" {
		if err := source.SaveGeoJSON(opts.GeoJSON, res); err != nil {
			log.Fatal().Err(err).Str("file", opts.GeoJSON).Msg("Failed to write GeoJSON")
		}
		log.Info().Str("file", opts.GeoJSON).Msg("GeoJSON saved")
	}

	if err := printResult(res, opts.Output); err != nil {
		log.Fatal().Err(err).Msg("Failed to print result")
	}
}

// loadConfig reads the configuration (defaults when the file is missing)
// and resolves the map the trail is measured on, with CLI overrides applied.
func loadConfig(opts *Options) (*config.Config, *config.Map, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("file", opts.ConfigFile).Msg("Configuration file not found, using defaults")
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return nil, nil, err
	}

	world := &config.Map{}
	if opts.Map != "" {
		found := false
		for i := range cfg.Maps {
			m := &cfg.Maps[i]
			if m.Name == opts.Map || contains(m.Aliases, opts.Map) {
				copied := *m
				world, found = &copied, true
				break
			}
		}
		if !found {
			return nil, nil, fmt.Errorf("unknown map %q", opts.Map)
		}
	}

	if opts.CRS != "" {
		world.CRS, world.Radius = opts.CRS, opts.Radius
	}
	if opts.Units != "" {
		world.Units = opts.Units
	}
	if opts.MapSize > 0 {
		world.Size = opts.MapSize
	}

	return cfg, world, nil
}

// run measures points, replaying them through a session on a canvas
// when a preview image is requested.
func run(engine *measure.Engine, mode measure.Mode, points []geo.Point, opts *Options) (measure.Result, error) {
	if opts.Render == "" {
		return engine.Measure(mode, points)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(opts.Render)), ".")
	if format != "webp" && format != "png" {
		return measure.Result{}, fmt.Errorf("unsupported preview format %q", format)
	}

	ro := render.DefaultOptions()
	ro.CRS = engine.CRS()
	ro.Width, ro.Height = opts.Width, opts.Height
	canvas := render.NewCanvas(ro)

	session, err := measure.NewSession(engine, mode, canvas)
	if err != nil {
		return measure.Result{}, err
	}
	for _, p := range points {
		if err := session.Click(p); err != nil {
			return measure.Result{}, err
		}
	}
	res, err := session.Finish(measure.EventDoubleClick)
	if err != nil {
		return measure.Result{}, err
	}
	if res == nil {
		// too few points to measure, fall back to the zero result
		r, err := engine.Measure(mode, points)
		if err != nil {
			return measure.Result{}, err
		}
		res = &r
	}

	f, err := os.Create(opts.Render)
	if err != nil {
		return measure.Result{}, err
	}
	if err := canvas.Encode(f, format); err != nil {
		_ = f.Close()
		return measure.Result{}, err
	}
	if err := f.Close(); err != nil {
		return measure.Result{}, err
	}
	log.Info().Str("file", opts.Render).Str("format", format).Msg("Preview rendered")

	return *res, nil
}

func printResult(res measure.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Println(res.Text)
		return err
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
