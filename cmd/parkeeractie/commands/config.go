package commands

import (
	"context"
	"fmt"
	"log/slog"
	"parkeeractie/internal/components/chrono"
	"parkeeractie/internal/components/telemetry"
	"parkeeractie/internal/scrapers/parkeeractie"
	"parkeeractie/lib/configutil"
	"time"
)

const restyDumpDir = ".dev/resty/parkeeractie"

type Config struct {
	Username          string           `json:"username"`
	Password          string           `json:"password"`
	BaseUrl           string           `json:"base_url"`
	DebugDir          string           `json:"debug_dir"`
	ScanInterval      int              `json:"scan_interval"`
	RequestsPerSecond float64          `json:"requests_per_second"`
	TimeoutSeconds    int              `json:"timeout_seconds"`
	Telemetry         telemetry.Config `json:"telemetry"`
}

var defaultConfig = Config{
	BaseUrl:           parkeeractie.DefaultBaseUrl,
	DebugDir:          parkeeractie.DefaultDebugDir,
	ScanInterval:      300,
	RequestsPerSecond: 2,
	TimeoutSeconds:    30,
}

func readConfig() (Config, error) {
	cfg, err := configutil.ReadConfig(configPath, defaultConfig)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", configPath, err)
	}
	if cfg.Username == "" || cfg.Password == "" {
		return Config{}, fmt.Errorf("read config %s: username and password are required", configPath)
	}
	return cfg, nil
}

// environment is everything a command needs to talk to the portal.
type environment struct {
	cfg       Config
	client    *parkeeractie.Client
	clock     chrono.StandardImpl
	tel       telemetry.API
	telemetry telemetry.Telemetry
}

func (e environment) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := e.telemetry.Shutdown(ctx)
	if err != nil {
		slog.Warn("failed to shutdown telemetry", "err", err)
	}
}

func setup(ctx context.Context) (environment, error) {
	cfg, err := readConfig()
	if err != nil {
		return environment{}, err
	}

	otel, err := telemetry.Setup(ctx, "parkeeractie", cfg.Telemetry)
	if err != nil {
		return environment{}, fmt.Errorf("setup telemetry: %w", err)
	}

	clock, err := chrono.NewStandardImpl()
	if err != nil {
		return environment{}, fmt.Errorf("load timezone: %w", err)
	}

	var output telemetry.Output
	if verbose {
		dump, err := telemetry.NewCleanFilesystemOutput(restyDumpDir)
		if err != nil {
			return environment{}, fmt.Errorf("prepare %s: %w", restyDumpDir, err)
		}
		output = dump
	}

	tel := telemetry.SlogAPI{}
	httpClient, err := parkeeractie.NewHttpClient(parkeeractie.HttpOptions{
		BaseUrl:           cfg.BaseUrl,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Timeout:           time.Duration(cfg.TimeoutSeconds) * time.Second,
		Output:            output,
	}, tel)
	if err != nil {
		return environment{}, fmt.Errorf("create http client: %w", err)
	}

	client := parkeeractie.NewClient(httpClient, parkeeractie.ClientOptions{
		BaseUrl:  cfg.BaseUrl,
		Username: cfg.Username,
		Password: cfg.Password,
		DebugDir: cfg.DebugDir,
	}, tel, clock)

	return environment{
		cfg:       cfg,
		client:    client,
		clock:     clock,
		tel:       tel,
		telemetry: otel,
	}, nil
}
