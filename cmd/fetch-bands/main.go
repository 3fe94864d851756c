package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"grid-constraints/internal/config"
	"grid-constraints/internal/data"

	"go.uber.org/zap"
)

func main() {
	var (
		grid       = flag.String("grid", "", "Grid district ID")
		baseURL    = flag.String("url", "", "Band service base URL (default: http://localhost:8090)")
		outputPath = flag.String("output", "", "Output file path (default: ./data/flexibility_bands.json)")
		cfgPath    = flag.String("config", "", "YAML config with powermodels.flexibility_use_cases")
		useCases   = flag.String("use-cases", "", "Comma-separated use cases (overrides config)")
		timeout    = flag.Duration("timeout", time.Minute, "Request timeout")
	)
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if *grid == "" {
		log.Fatal("--grid is required")
	}
	if *outputPath == "" {
		*outputPath = data.DefaultBandsPath()
	}

	cfg := config.Default()
	if *cfgPath != "" {
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatal("failed to load config", zap.Error(err))
		}
	}
	cases := cfg.PowerModels.FlexibilityUseCases
	if *useCases != "" {
		cases = strings.Split(*useCases, ",")
	}

	client := data.NewFlexBandClient(os.Getenv("FLEX_BAND_API_KEY"), *baseURL, log)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Printf("Fetching flexibility bands for grid %s (use cases: %s)\n", *grid, strings.Join(cases, ","))
	bands, err := client.FlexibilityBands(ctx, *grid, cases)
	if err != nil {
		log.Fatal("failed to fetch flexibility bands", zap.Error(err))
	}

	f := &data.BandsFile{
		Grid:      *grid,
		UseCases:  cases,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Bands:     *bands,
	}
	if err := data.SaveFlexibilityBands(f, *outputPath); err != nil {
		log.Fatal("failed to save flexibility bands", zap.Error(err))
	}

	fmt.Printf("Saved bands of %d charging points to %s\n", bands.UpperPower.Cols(), *outputPath)
}
