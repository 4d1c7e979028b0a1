// Command socialmapper is the minimal entry point: it loads the
// runtime configuration and a single job file, then runs one analysis
// through the orchestrator. It parses no flags — the config path and
// job path are read from environment variables (or fall back to
// ./config.yaml and ./job.yaml), matching spec.md's "no CLI flag
// surface" non-goal while still giving operators a file to edit.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/socialmapper/socialmapper/internal/config"
	"github.com/socialmapper/socialmapper/internal/errs"
	"github.com/socialmapper/socialmapper/internal/orchestrator"
	"github.com/socialmapper/socialmapper/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := envOr("SOCIALMAPPER_CONFIG_FILE", "./config.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)

	jobPath := envOr("SOCIALMAPPER_JOB_FILE", "./job.yaml")
	source, opts, err := loadJob(jobPath)
	if err != nil {
		return err
	}

	orc, err := orchestrator.New(cfg, logger)
	if err != nil {
		return err
	}
	defer orc.Close()

	bundle, err := orc.Run(context.Background(), source, opts)
	if err != nil {
		return err
	}

	logger.Info("analysis complete",
		"pois", bundle.POICount,
		"units_analyzed", bundle.UnitsAnalyzed,
		"rows", len(bundle.Rows),
		"files", bundle.FilesGenerated,
	)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error", "err":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}

// jobFile is the on-disk shape of job.yaml, mirroring
// types.POISource/types.AnalysisOptions with mapstructure tags viper
// can unmarshal directly.
type jobFile struct {
	Source struct {
		Kind string `mapstructure:"kind"`
		OSM  struct {
			GeocodeArea    string            `mapstructure:"geocode_area"`
			State          string            `mapstructure:"state"`
			City           string            `mapstructure:"city"`
			POIType        string            `mapstructure:"poi_type"`
			POIName        string            `mapstructure:"poi_name"`
			AdditionalTags map[string]string `mapstructure:"additional_tags"`
			SearchRadiusKM float64           `mapstructure:"search_radius_km"`
		} `mapstructure:"osm"`
		FilePath  string   `mapstructure:"file_path"`
		Addresses []string `mapstructure:"addresses"`
	} `mapstructure:"source"`
	Analysis struct {
		TravelTimeMinutes int      `mapstructure:"travel_time_minutes"`
		TravelMode        string   `mapstructure:"travel_mode"`
		GeographyLevel    string   `mapstructure:"geography_level"`
		CensusVariables   []string `mapstructure:"census_variables"`
		OutputDir         string   `mapstructure:"output_dir"`
		ExportCSV         bool     `mapstructure:"export_csv"`
		ExportMaps        bool     `mapstructure:"export_maps"`
		ExportIsochrones  bool     `mapstructure:"export_isochrones"`
		MaxPOICount       int      `mapstructure:"max_poi_count"`
	} `mapstructure:"analysis"`
}

func loadJob(path string) (types.POISource, types.AnalysisOptions, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return types.POISource{}, types.AnalysisOptions{}, errs.Wrap(errs.KindConfiguration, "main", err,
			fmt.Sprintf("failed to read job file %q", path),
			"set SOCIALMAPPER_JOB_FILE or create ./job.yaml")
	}

	var job jobFile
	if err := v.Unmarshal(&job); err != nil {
		return types.POISource{}, types.AnalysisOptions{}, errs.Wrap(errs.KindConfiguration, "main", err, "failed to parse job file")
	}

	source := types.POISource{
		Kind: types.POISourceKind(job.Source.Kind),
		OSM: types.OSMPOISpec{
			GeocodeArea:    job.Source.OSM.GeocodeArea,
			State:          job.Source.OSM.State,
			City:           job.Source.OSM.City,
			POIType:        job.Source.OSM.POIType,
			POIName:        job.Source.OSM.POIName,
			AdditionalTags: job.Source.OSM.AdditionalTags,
			SearchRadiusKM: job.Source.OSM.SearchRadiusKM,
		},
		FilePath:  job.Source.FilePath,
		Addresses: job.Source.Addresses,
	}

	opts := types.AnalysisOptions{
		TravelTimeMinutes: job.Analysis.TravelTimeMinutes,
		TravelMode:        types.TravelMode(job.Analysis.TravelMode),
		GeographyLevel:    types.GeographyLevel(job.Analysis.GeographyLevel),
		CensusVariables:   job.Analysis.CensusVariables,
		OutputDir:         job.Analysis.OutputDir,
		ExportCSV:         job.Analysis.ExportCSV,
		ExportMaps:        job.Analysis.ExportMaps,
		ExportIsochrones:  job.Analysis.ExportIsochrones,
		MaxPOICount:       job.Analysis.MaxPOICount,
	}
	if opts.TravelTimeMinutes == 0 {
		opts.TravelTimeMinutes = 15
	}
	if opts.TravelMode == "" {
		opts.TravelMode = types.ModeDrive
	}
	return source, opts, nil
}
