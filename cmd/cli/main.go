package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"grid-constraints/internal/checks"
	"grid-constraints/internal/config"
	"grid-constraints/internal/data"
	"grid-constraints/internal/model"
	"grid-constraints/internal/powermodels"
	"grid-constraints/internal/report"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "check":
		cmdCheck(os.Args[2:])
	case "station":
		cmdStation(os.Args[2:])
	case "lines":
		cmdLines(os.Args[2:])
	case "relative":
		cmdRelative(os.Args[2:])
	case "export":
		cmdExport(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli check --snapshot data/snapshot.json --config config.yaml --out results/violations.csv")
	fmt.Println("  cli station --snapshot data/snapshot.json --grid LVGrid_3")
	fmt.Println("  cli lines --snapshot data/snapshot.json --level mv")
	fmt.Println("  cli relative --snapshot data/snapshot.json --out results/relative_load.csv")
	fmt.Println("  cli export --network data/network.json --flex-cps CP_1,CP_2 --bands data/flexibility_bands.json --out results/pm.json")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - check writes one CSV row per violating line, station or bus")
	fmt.Println("  - without --config the stock load factors and voltage deviations are used")
}

func newLogger(verbose bool) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if verbose {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return log
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func newChecker(snapshotPath, cfgPath string, log *zap.Logger) *checks.Checker {
	snap, err := data.LoadSnapshot(snapshotPath)
	if err != nil {
		panic(err)
	}
	return checks.New(&snap.Topology, &snap.Results, snap.Cases, loadConfig(cfgPath), log)
}

func ensureDir(path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		panic(err)
	}
}

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	snapshotPath := fs.String("snapshot", "data/snapshot.json", "Path to snapshot JSON (topology, results, cases)")
	cfgPath := fs.String("config", "", "Path to YAML config (default: stock values)")
	outPath := fs.String("out", "results/violations.csv", "Output CSV path")
	jsonPath := fs.String("json", "", "Optional: also write the full result as JSON")
	tenPercent := fs.Bool("ten-percent", false, "Abort if any voltage leaves [0.9, 1.1] p.u.")
	mvLevels := fs.String("mv-levels", checks.LevelsMVLV, "MV voltage limits: mv_lv or mv")
	lvLevels := fs.String("lv-levels", checks.LevelsMVLV, "LV voltage limits: mv_lv or lv")
	skipVoltage := fs.Bool("skip-voltage", false, "Only run overload checks")
	verbose := fs.Bool("v", false, "Verbose logging")
	_ = fs.Parse(args)

	log := newLogger(*verbose)
	defer func() { _ = log.Sync() }()

	chk := newChecker(*snapshotPath, *cfgPath, log)
	res, err := chk.Run(context.Background(), checks.RunOptions{
		TenPercentCheck: *tenPercent,
		MVVoltageLevels: *mvLevels,
		LVVoltageLevels: *lvLevels,
		SkipVoltage:     *skipVoltage,
	})
	if err != nil {
		panic(err)
	}

	rows := report.Rows(res)
	ensureDir(*outPath)
	if err := report.WriteViolationsCSV(*outPath, rows); err != nil {
		panic(err)
	}
	if *jsonPath != "" {
		ensureDir(*jsonPath)
		raw, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			panic(err)
		}
		if err := os.WriteFile(*jsonPath, raw, 0o644); err != nil {
			panic(err)
		}
	}

	fmt.Printf("Wrote %d rows to %s\n", len(rows), *outPath)
	for _, k := range []string{"hv_mv_stations", "mv_lv_stations", "mv_lines", "lv_lines", "mv_voltage", "lv_station_voltage", "lv_voltage"} {
		fmt.Printf("  %-20s %d\n", k, res.Counts()[k])
	}
}

func cmdStation(args []string) {
	fs := flag.NewFlagSet("station", flag.ExitOnError)
	snapshotPath := fs.String("snapshot", "data/snapshot.json", "Path to snapshot JSON")
	cfgPath := fs.String("config", "", "Path to YAML config (default: stock values)")
	gridName := fs.String("grid", "", "Grid whose station is checked, e.g. MVGrid_1 or LVGrid_3")
	verbose := fs.Bool("v", false, "Verbose logging")
	_ = fs.Parse(args)

	log := newLogger(*verbose)
	defer func() { _ = log.Sync() }()

	chk := newChecker(*snapshotPath, *cfgPath, log)
	g, ok := chk.Topology().GridByName(*gridName)
	if !ok {
		fmt.Fprintf(os.Stderr, "grid %q not found in topology\n", *gridName)
		os.Exit(1)
	}
	v, err := chk.StationOverload(g)
	if err != nil {
		panic(err)
	}
	if v == nil {
		fmt.Printf("%s: no overload\n", g.StationName())
		return
	}
	fmt.Printf("%s: %.6f MVA missing at %s\n", v.Station, v.SMissing, v.TimeIndex.Format(time.RFC3339))
}

func cmdLines(args []string) {
	fs := flag.NewFlagSet("lines", flag.ExitOnError)
	snapshotPath := fs.String("snapshot", "data/snapshot.json", "Path to snapshot JSON")
	cfgPath := fs.String("config", "", "Path to YAML config (default: stock values)")
	levelName := fs.String("level", "mv", "Voltage level of the lines: mv or lv")
	verbose := fs.Bool("v", false, "Verbose logging")
	_ = fs.Parse(args)

	level, err := model.ParseVoltageLevel(*levelName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := newLogger(*verbose)
	defer func() { _ = log.Sync() }()

	chk := newChecker(*snapshotPath, *cfgPath, log)
	var crit []checks.LineViolation
	if level == model.MV {
		crit, err = chk.MVLineOverload()
	} else {
		crit, err = chk.LVLineOverload()
	}
	if err != nil {
		panic(err)
	}
	fmt.Printf("%d overloaded %s lines\n", len(crit), level)
	for _, v := range crit {
		fmt.Printf("  %-20s %.4f at %s\n", v.Line, v.MaxRelOverload, v.TimeIndex.Format(time.RFC3339))
	}
}

func cmdRelative(args []string) {
	fs := flag.NewFlagSet("relative", flag.ExitOnError)
	snapshotPath := fs.String("snapshot", "data/snapshot.json", "Path to snapshot JSON")
	cfgPath := fs.String("config", "", "Path to YAML config (default: stock values)")
	outPath := fs.String("out", "results/relative_load.csv", "Output CSV path")
	verbose := fs.Bool("v", false, "Verbose logging")
	_ = fs.Parse(args)

	log := newLogger(*verbose)
	defer func() { _ = log.Sync() }()

	loading, err := newChecker(*snapshotPath, *cfgPath, log).ComponentsRelativeLoad()
	if err != nil {
		panic(err)
	}
	ensureDir(*outPath)
	if err := report.WriteFrameCSV(*outPath, loading); err != nil {
		panic(err)
	}
	fmt.Printf("Wrote %d components x %d time steps to %s\n", loading.Cols(), loading.Rows(), *outPath)
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	networkPath := fs.String("network", "data/network.json", "Path to network JSON")
	cfgPath := fs.String("config", "", "Path to YAML config (default: stock values)")
	bandsPath := fs.String("bands", "", "Path to flexibility bands JSON")
	bandService := fs.String("band-service", "", "Band service base URL (used if --bands is empty)")
	flexCPs := fs.String("flex-cps", "", "Comma-separated flexible charging points")
	flexHPs := fs.String("flex-hps", "", "Comma-separated flexible heat pumps")
	outPath := fs.String("out", "results/powermodels.json", "Output JSON path")
	verbose := fs.Bool("v", false, "Verbose logging")
	_ = fs.Parse(args)

	log := newLogger(*verbose)
	defer func() { _ = log.Sync() }()

	n, err := data.LoadNetwork(*networkPath)
	if err != nil {
		panic(err)
	}
	cfg := loadConfig(*cfgPath)

	var bands powermodels.BandProvider
	switch {
	case *bandsPath != "":
		bands = data.FileBands{Path: *bandsPath}
	case *bandService != "":
		bands = data.NewFlexBandClient(os.Getenv("FLEX_BAND_API_KEY"), *bandService, log)
	}

	pm, err := powermodels.NewExporter(cfg.PowerModels, bands, log).
		Export(context.Background(), n, splitList(*flexCPs), splitList(*flexHPs))
	if err != nil {
		panic(err)
	}

	raw, err := json.MarshalIndent(pm, "", "  ")
	if err != nil {
		panic(err)
	}
	ensureDir(*outPath)
	if err := os.WriteFile(*outPath, raw, 0o644); err != nil {
		panic(err)
	}
	fmt.Printf("Wrote %s (%d buses, %d branches) to %s\n", pm.Name, len(pm.Bus), len(pm.Branch), *outPath)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
