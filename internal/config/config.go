// Package config loads SocialMapper's typed runtime configuration from
// a YAML file and environment variables, mirroring the teacher's
// initConfig idiom but without any flag-parsing surface.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/socialmapper/socialmapper/internal/errs"
)

// CacheStrategy enumerates the supported C2 cache backends.
type CacheStrategy string

const (
	CacheMemory CacheStrategy = "memory"
	CacheFile   CacheStrategy = "file"
	CacheHybrid CacheStrategy = "hybrid"
	CacheNone   CacheStrategy = "none"
)

// RepositoryType enumerates the supported C4 neighbor-store backends.
type RepositoryType string

const (
	RepositorySQLite RepositoryType = "sqlite"
	RepositoryMemory RepositoryType = "memory"
)

// Config is the full set of operator-controlled knobs. Default()
// supplies a value for every field; a zero-value Config does not pass
// Validate.
type Config struct {
	CacheStrategy  CacheStrategy
	CacheDir       string
	CacheTTL       time.Duration
	MaxCacheFiles  int
	MaxCacheBytes  int64

	RateLimitRPM map[string]int // per-host requests/minute; "default" key applies elsewhere
	APITimeout   time.Duration
	MaxRetries   int

	RepositoryType RepositoryType
	RepositoryPath string

	CensusAPIKey string

	LogLevel string

	MaxConcurrentFetches int
	ClusterMaxRadiusKM   float64
	MinClusterSize       int

	DefaultTravelSpeedKMH float64

	OutputDir         string
	MaxPOICount       int
	TravelTimeMinutes int
	GeographyLevel    string
	CensusVariables   []string
	CensusYear        int
	CensusDataset     string
	OverpassEndpoint  string
	UserAgent         string
}

// Default returns the configuration used when no file or environment
// override is present, matching the values spec.md §5 names as
// defaults.
func Default() Config {
	return Config{
		CacheStrategy:         CacheHybrid,
		CacheDir:              ".socialmapper/cache",
		CacheTTL:              30 * 24 * time.Hour,
		MaxCacheFiles:         10000,
		MaxCacheBytes:         1 << 30,
		RateLimitRPM:          map[string]int{"default": 60, "api.census.gov": 60, "overpass-api.de": 60},
		APITimeout:            30 * time.Second,
		MaxRetries:            3,
		RepositoryType:        RepositorySQLite,
		RepositoryPath:        ".socialmapper/neighbors.db",
		LogLevel:              "info",
		MaxConcurrentFetches:  8,
		ClusterMaxRadiusKM:    10.0,
		MinClusterSize:        2,
		DefaultTravelSpeedKMH: 50.0,
		OutputDir:             ".socialmapper/output",
		MaxPOICount:           0, // 0 means no subsampling
		TravelTimeMinutes:     15,
		GeographyLevel:        "block-group",
		CensusVariables:       []string{"B01003_001E", "B19013_001E"},
		CensusYear:            2022,
		CensusDataset:         "acs/acs5",
		OverpassEndpoint:      "https://overpass-api.de/api/interpreter",
		UserAgent:             "socialmapper/1.0",
	}
}

// Load reads configuration from an optional YAML file plus
// SOCIALMAPPER_-prefixed environment variables, layering over Default().
// path may be empty, in which case only environment and defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("SOCIALMAPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errs.Wrap(errs.KindConfiguration, "config", err,
				fmt.Sprintf("failed to read config file %q", path),
				"check the file exists and is valid YAML")
		}
	}

	cfg.CacheStrategy = CacheStrategy(v.GetString("cache_strategy"))
	cfg.CacheDir = v.GetString("cache_dir")
	cfg.CacheTTL = v.GetDuration("cache_ttl")
	cfg.MaxCacheFiles = v.GetInt("max_cache_files")
	cfg.MaxCacheBytes = v.GetInt64("max_cache_bytes")
	cfg.APITimeout = v.GetDuration("api_timeout")
	cfg.MaxRetries = v.GetInt("max_retries")
	cfg.RepositoryType = RepositoryType(v.GetString("repository_type"))
	cfg.RepositoryPath = v.GetString("repository_path")
	cfg.CensusAPIKey = v.GetString("census_api_key")
	cfg.LogLevel = v.GetString("log_level")
	cfg.MaxConcurrentFetches = v.GetInt("max_concurrent_fetches")
	cfg.ClusterMaxRadiusKM = v.GetFloat64("cluster_max_radius_km")
	cfg.MinClusterSize = v.GetInt("min_cluster_size")
	cfg.DefaultTravelSpeedKMH = v.GetFloat64("default_travel_speed_kmh")
	cfg.OutputDir = v.GetString("output_dir")
	cfg.MaxPOICount = v.GetInt("max_poi_count")
	cfg.TravelTimeMinutes = v.GetInt("travel_time_minutes")
	cfg.GeographyLevel = v.GetString("geography_level")
	cfg.CensusYear = v.GetInt("census_year")
	cfg.CensusDataset = v.GetString("census_dataset")
	cfg.OverpassEndpoint = v.GetString("overpass_endpoint")
	cfg.UserAgent = v.GetString("user_agent")
	if vars := v.GetStringSlice("census_variables"); len(vars) > 0 {
		cfg.CensusVariables = vars
	}

	if rl := v.GetStringMap("rate_limit_rpm"); len(rl) > 0 {
		merged := map[string]int{}
		for k, val := range rl {
			if n, ok := val.(int); ok {
				merged[k] = n
			} else if f, ok := val.(float64); ok {
				merged[k] = int(f)
			}
		}
		for k, n := range merged {
			cfg.RateLimitRPM[k] = n
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("cache_strategy", string(cfg.CacheStrategy))
	v.SetDefault("cache_dir", cfg.CacheDir)
	v.SetDefault("cache_ttl", cfg.CacheTTL)
	v.SetDefault("max_cache_files", cfg.MaxCacheFiles)
	v.SetDefault("max_cache_bytes", cfg.MaxCacheBytes)
	v.SetDefault("api_timeout", cfg.APITimeout)
	v.SetDefault("max_retries", cfg.MaxRetries)
	v.SetDefault("repository_type", string(cfg.RepositoryType))
	v.SetDefault("repository_path", cfg.RepositoryPath)
	v.SetDefault("census_api_key", "")
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("max_concurrent_fetches", cfg.MaxConcurrentFetches)
	v.SetDefault("cluster_max_radius_km", cfg.ClusterMaxRadiusKM)
	v.SetDefault("min_cluster_size", cfg.MinClusterSize)
	v.SetDefault("default_travel_speed_kmh", cfg.DefaultTravelSpeedKMH)
	v.SetDefault("output_dir", cfg.OutputDir)
	v.SetDefault("max_poi_count", cfg.MaxPOICount)
	v.SetDefault("travel_time_minutes", cfg.TravelTimeMinutes)
	v.SetDefault("geography_level", cfg.GeographyLevel)
	v.SetDefault("census_variables", cfg.CensusVariables)
	v.SetDefault("census_year", cfg.CensusYear)
	v.SetDefault("census_dataset", cfg.CensusDataset)
	v.SetDefault("overpass_endpoint", cfg.OverpassEndpoint)
	v.SetDefault("user_agent", cfg.UserAgent)
}

// Validate enforces basic range/membership constraints so a
// misconfigured run fails fast with a remediation suggestion rather
// than deep inside the pipeline.
func (c Config) Validate() error {
	switch c.CacheStrategy {
	case CacheMemory, CacheFile, CacheHybrid, CacheNone:
	default:
		return errs.New(errs.KindConfiguration, "config",
			fmt.Sprintf("unknown cache_strategy %q", c.CacheStrategy),
			"use one of: memory, file, hybrid, none")
	}
	switch c.RepositoryType {
	case RepositorySQLite, RepositoryMemory:
	default:
		return errs.New(errs.KindConfiguration, "config",
			fmt.Sprintf("unknown repository_type %q", c.RepositoryType),
			"use one of: sqlite, memory")
	}
	if c.MaxRetries < 0 {
		return errs.New(errs.KindConfiguration, "config", "max_retries must be >= 0")
	}
	if c.APITimeout <= 0 {
		return errs.New(errs.KindConfiguration, "config", "api_timeout must be positive")
	}
	if c.ClusterMaxRadiusKM <= 0 {
		return errs.New(errs.KindConfiguration, "config", "cluster_max_radius_km must be positive")
	}
	if c.TravelTimeMinutes <= 0 {
		return errs.New(errs.KindConfiguration, "config", "travel_time_minutes must be positive")
	}
	return nil
}
