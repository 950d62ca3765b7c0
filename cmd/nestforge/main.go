// Command nestforge nests a single irregular design across a sheet-size
// catalogue and writes a PDF cut report: one to-scale layout page per
// sheet plus one QR label per placement.
//
//	go build ./cmd/nestforge
//	nestforge -dxf part.dxf -out report.pdf
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/piwi3910/nestforge/internal/dispatch"
	"github.com/piwi3910/nestforge/internal/ingest"
	"github.com/piwi3910/nestforge/internal/model"
	"github.com/piwi3910/nestforge/internal/nesting"
	"github.com/piwi3910/nestforge/internal/report"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "nestforge:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dxfPath     = flag.String("dxf", "", "path to the DXF file describing the part to nest (required)")
		outPath     = flag.String("out", "report.pdf", "path to write the PDF cut report to")
		presetsPath = flag.String("presets", "", "optional Excel workbook of sheet presets; defaults to the built-in catalogue")
		configPath  = flag.String("config", "", "optional JSON nesting config; defaults to ~/.nestforge/config.json if present")
		saveConfig  = flag.Bool("save-config", false, "write the effective config to -config (or its default path) and exit")
		algorithm   = flag.String("algorithm", "", "override the nesting algorithm: fast, nfp, or nfp-ga")
		margin      = flag.Float64("margin", -1, "override the placement margin in mm")
		rotStep     = flag.Float64("rotation-step", -1, "override the rotation search step in degrees")
		seed        = flag.Int64("seed", -1, "override the random seed used by nfp-ga")
	)
	flag.Parse()

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = nesting.DefaultConfigPath()
	}
	cfg, err := nesting.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(&cfg, *algorithm, *margin, *rotStep, *seed)

	if *saveConfig {
		if err := nesting.SaveConfig(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println("wrote config to", cfgPath)
		return nil
	}

	if *dxfPath == "" {
		flag.Usage()
		return fmt.Errorf("-dxf is required")
	}

	loaded := ingest.LoadDXF(*dxfPath)
	for _, w := range loaded.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	if len(loaded.Errors) > 0 {
		return fmt.Errorf("load DXF: %v", loaded.Errors)
	}

	sheets, err := loadSheets(*presetsPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := dispatch.Start(ctx, loaded.Design, sheets, cfg)
	results, err := drain(job)
	if err != nil {
		return err
	}

	for _, r := range results {
		fmt.Printf("%-24s %-8s %3d placed  %5.1f%% efficiency\n", r.Sheet.Name, r.Strategy, r.Count, r.Efficiency)
		if r.Warning {
			fmt.Println("  warning: a placement is within 3mm of the sheet edge")
		}
	}

	if err := report.GenerateReport(*outPath, results); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	fmt.Println("wrote report to", *outPath)
	return nil
}

func applyOverrides(cfg *model.Config, algorithm string, margin, rotStep float64, seed int64) {
	switch algorithm {
	case string(model.AlgorithmFast), string(model.AlgorithmNFP), string(model.AlgorithmNFPGA):
		cfg.Algorithm = model.Algorithm(algorithm)
	}
	if margin >= 0 {
		cfg.Margin = margin
	}
	if rotStep > 0 {
		cfg.RotationStep = rotStep
	}
	if seed >= 0 {
		cfg.Seed = seed
	}
}

func loadSheets(presetsPath string) ([]model.SheetPreset, error) {
	if presetsPath == "" {
		return ingest.DefaultPresets(), nil
	}
	sheets, err := ingest.LoadPresetsXLSX(presetsPath)
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}
	return sheets, nil
}

func drain(job *dispatch.Job) ([]model.NestingResult, error) {
	for outcome := range job.Outcomes() {
		switch outcome.Kind {
		case dispatch.OutcomeProgress:
			fmt.Fprintf(os.Stderr, "\rnesting... %5.1f%%", outcome.Percent)
		case dispatch.OutcomeComplete:
			fmt.Fprintln(os.Stderr)
			return outcome.Results, nil
		case dispatch.OutcomeError:
			fmt.Fprintln(os.Stderr)
			return nil, outcome.Err
		case dispatch.OutcomeCancelled:
			fmt.Fprintln(os.Stderr)
			return nil, outcome.Err
		}
	}
	return nil, fmt.Errorf("job ended without a terminal outcome")
}
