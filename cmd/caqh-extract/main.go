package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/teampbs/caqh-intake/internal/config"
	"github.com/teampbs/caqh-intake/internal/doccheck"
	"github.com/teampbs/caqh-intake/internal/extract"
	"github.com/teampbs/caqh-intake/internal/fieldcfg"
	"github.com/teampbs/caqh-intake/internal/integrity"
	"github.com/teampbs/caqh-intake/internal/pdfread"
	"github.com/teampbs/caqh-intake/internal/textrec"
	"github.com/teampbs/caqh-intake/internal/validate"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// DocumentReport bundles everything the pipeline learned about one
// file.
type DocumentReport struct {
	Path      string                  `json:"path"`
	Integrity integrity.Result        `json:"integrity"`
	Document  *extract.DocumentResult `json:"document,omitempty"`
	Summary   *extract.Summary        `json:"summary,omitempty"`
	Decision  *validate.Decision      `json:"decision,omitempty"`
}

// Report is the full run output.
type Report struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Version     string           `json:"version"`
	Documents   []DocumentReport `json:"documents"`
	Totals      Totals           `json:"totals"`
}

// Totals counts triage outcomes across the run.
type Totals struct {
	Processed   int `json:"processed"`
	LooksGood   int `json:"looks_good"`
	Rejected    int `json:"rejected"`
	NeedsReview int `json:"needs_human_review"`
	Unreadable  int `json:"unreadable"`
}

// pipeline holds the wired components for one run.
type pipeline struct {
	cfg       *config.Config
	verifier  *integrity.Verifier
	reader    *pdfread.Reader
	orch      *extract.Orchestrator
	validator *validate.Validator
}

func newPipeline(cfg *config.Config) (*pipeline, error) {
	var rules *fieldcfg.Table
	var err error
	if cfg.RulesPath != "" {
		rules, err = fieldcfg.Load(cfg.RulesPath)
	} else {
		rules, err = fieldcfg.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("load field rules: %w", err)
	}

	ex := extract.NewExtractor()
	orch := extract.NewOrchestrator(rules, extract.DefaultRegistry(ex), doccheck.NewChecker(), log.Default())
	orch.SkipGate = cfg.SkipGate

	validator := validate.NewValidator()
	validator.MinConfidence = cfg.MinConfidence

	return &pipeline{
		cfg:       cfg,
		verifier:  integrity.NewVerifier(),
		reader:    pdfread.NewReader(),
		orch:      orch,
		validator: validator,
	}, nil
}

// processOne runs the full chain on a single file. Every failure mode
// still produces a report entry.
func (p *pipeline) processOne(path string) DocumentReport {
	report := DocumentReport{Path: path}

	report.Integrity = p.verifier.Verify(path)
	if !report.Integrity.OK {
		report.Document = p.orch.Failed(path,
			fmt.Errorf("integrity check failed (%s): %s", report.Integrity.Corruption, report.Integrity.Detail))
		return report
	}

	text, err := p.reader.ReadText(path)
	if err != nil {
		report.Document = p.orch.Failed(path, err)
		return report
	}
	if textrec.LooksScanned(text) {
		log.Printf("pdfread: %s has little native text, likely a scan", filepath.Base(path))
	}

	report.Document = p.orch.Process(path, text, p.fields())

	summary := extract.Summarize(report.Document)
	report.Summary = &summary

	decision := p.validator.Evaluate(report.Document)
	report.Decision = &decision
	return report
}

func (p *pipeline) fields() []string {
	if len(p.cfg.Fields) == 0 {
		return nil
	}
	return p.cfg.Fields
}

// collectPaths expands the input into a sorted list of PDF paths.
func collectPaths(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{input}, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			paths = append(paths, filepath.Join(input, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no PDF files found in %s", input)
	}
	sort.Strings(paths)
	return paths, nil
}

func run(cfg *config.Config) error {
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	paths, err := collectPaths(cfg.InputPath)
	if err != nil {
		return err
	}

	report := Report{
		GeneratedAt: time.Now(),
		Version:     cfg.Version,
	}
	for _, path := range paths {
		dr := p.processOne(path)
		report.Documents = append(report.Documents, dr)

		report.Totals.Processed++
		switch {
		case dr.Decision == nil:
			report.Totals.Unreadable++
		case dr.Decision.Status == validate.StatusLooksGood:
			report.Totals.LooksGood++
		case dr.Decision.Status == validate.StatusRejected:
			report.Totals.Rejected++
		default:
			report.Totals.NeedsReview++
		}
	}

	return writeReport(cfg, &report)
}

func writeReport(cfg *config.Config, report *Report) error {
	out := os.Stdout
	if cfg.OutputPath != "" {
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if cfg.Format == config.FormatPretty {
		return writePretty(out, report)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writePretty(out *os.File, report *Report) error {
	for _, dr := range report.Documents {
		fmt.Fprintf(out, "%s\n", dr.Path)
		if dr.Document == nil || dr.Decision == nil {
			fmt.Fprintf(out, "  unreadable: %s\n\n", dr.Integrity.Detail)
			continue
		}
		fmt.Fprintf(out, "  status: %s  (avg confidence %.2f)\n", dr.Decision.Status, dr.Decision.AvgConfidence)
		for _, fr := range dr.Document.Fields {
			if fr.Extracted() {
				fmt.Fprintf(out, "  %-40s %-30q %.2f %s\n", fr.FieldName, fr.Value, fr.Confidence, fr.Method)
			} else {
				fmt.Fprintf(out, "  %-40s <not found> (%s)\n", fr.FieldName, fr.Method)
			}
		}
		for _, r := range dr.Decision.Reasons {
			fmt.Fprintf(out, "  ! %s\n", r)
		}
		fmt.Fprintln(out)
	}
	_, err := fmt.Fprintf(out, "processed %d: %d good, %d rejected, %d review, %d unreadable\n",
		report.Totals.Processed, report.Totals.LooksGood, report.Totals.Rejected,
		report.Totals.NeedsReview, report.Totals.Unreadable)
	return err
}

// setupLogging configures logging based on the configured level.
func setupLogging(cfg *config.Config) {
	log.SetOutput(os.Stderr)
	if cfg.IsDebug() {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	if err := run(cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Fatalf("Input not found: %v", err)
		}
		log.Fatalf("Extraction run failed: %v", err)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("CAQH Intake Extractor\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
