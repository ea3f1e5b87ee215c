package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/surgitrack/surgitrack/internal/config"
	"github.com/surgitrack/surgitrack/internal/platform/pdfkit"
	"github.com/surgitrack/surgitrack/internal/platform/reports"
)

type renderFlags struct {
	in     string
	out    string
	testID string
	now    string
	trace  bool
}

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a report from a snapshot file (JSON or YAML)",
	}

	dischargeFlags := &renderFlags{}
	discharge := &cobra.Command{
		Use:   "discharge",
		Short: "Render the A4 discharge summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.OutOrStdout(), reports.DischargeSummaryDocument(), dischargeFlags)
		},
	}
	bindRenderFlags(discharge, dischargeFlags)

	testFlags := &renderFlags{}
	test := &cobra.Command{
		Use:   "test",
		Short: "Render the US Letter report of one test",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.OutOrStdout(), reports.TestReportDocument(), testFlags)
		},
	}
	bindRenderFlags(test, testFlags)
	test.Flags().StringVar(&testFlags.testID, "test", "", "test id (default: first test in the snapshot)")

	cmd.AddCommand(discharge, test)
	return cmd
}

func bindRenderFlags(cmd *cobra.Command, f *renderFlags) {
	cmd.Flags().StringVar(&f.in, "in", "", "snapshot file (.json, .yaml or .yml)")
	cmd.Flags().StringVar(&f.out, "out", "", "output PDF path (default: generated file name in the current directory)")
	cmd.Flags().StringVar(&f.now, "now", "", "fixed generation time, RFC 3339")
	cmd.Flags().BoolVar(&f.trace, "trace", false, "print the layout trace as JSON")
	_ = cmd.MarkFlagRequired("in")
}

// loadSnapshot decodes a snapshot file, choosing the decoder by extension.
func loadSnapshot(path string) (*reports.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	snap := &reports.Snapshot{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, snap); err != nil {
			return nil, fmt.Errorf("decode yaml snapshot: %w", err)
		}
	default:
		if err := json.Unmarshal(data, snap); err != nil {
			return nil, fmt.Errorf("decode json snapshot: %w", err)
		}
	}
	return snap, nil
}

func parseClock(now string) (func() time.Time, error) {
	if now == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, now)
	if err != nil {
		return nil, fmt.Errorf("parse --now: %w", err)
	}
	return func() time.Time { return t }, nil
}

// pageTrace summarises the draw calls that landed on one page.
type pageTrace struct {
	Page  int      `json:"page"`
	Ops   int      `json:"ops"`
	Texts []string `json:"texts,omitempty"`
}

type renderTrace struct {
	File  string        `json:"file"`
	Stats reports.Stats `json:"stats"`
	Pages []pageTrace   `json:"pages"`
}

func tracePages(ops []pdfkit.Op) []pageTrace {
	var pages []pageTrace
	for _, op := range ops {
		if op.Page < 1 {
			continue
		}
		for len(pages) < op.Page {
			pages = append(pages, pageTrace{Page: len(pages) + 1})
		}
		p := &pages[op.Page-1]
		p.Ops++
		if op.Kind == "text" {
			p.Texts = append(p.Texts, op.Text)
		}
	}
	return pages
}

func runRender(w io.Writer, doc reports.Document, f *renderFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env, cfg.LogLevel)

	clock, err := parseClock(f.now)
	if err != nil {
		return err
	}
	if clock == nil {
		clock = time.Now
	}

	snap, err := loadSnapshot(f.in)
	if err != nil {
		return err
	}
	if doc.Kind == reports.DocumentTestReport {
		if snap, err = reports.ForTest(snap, f.testID); err != nil {
			return err
		}
	}

	assembler := newAssembler(cfg, &logger, clock, nil)
	surface := pdfkit.NewFPDFSurface(doc.PageSize, cfg.ReportCompress)
	rec := pdfkit.NewRecorder(surface)
	stats := assembler.Render(doc, snap, rec)

	out := f.out
	if out == "" {
		out = reports.FileName(doc, snap, clock())
	}
	if err := writeDocument(out, surface); err != nil {
		return err
	}

	logger.Info().
		Str("file", out).
		Str("kind", stats.Kind).
		Int("pages", stats.Pages).
		Int("estimated_pages", stats.EstimatedPages).
		Msg("report written")

	if f.trace {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(renderTrace{File: out, Stats: stats, Pages: tracePages(rec.Ops)})
	}
	return nil
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the page count of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read pdf: %w", err)
			}
			n, err := pdfkit.CountPages(data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages\n", args[0], n)
			return nil
		},
	}
}

type documentWriter interface {
	Output(w io.Writer) error
}

// writeDocument serialises doc to path. On failure the partial file is
// removed so no truncated PDF is left behind.
func writeDocument(path string, doc documentWriter) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := doc.Output(file); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("%w: %w", reports.ErrGenerationFailed, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}
