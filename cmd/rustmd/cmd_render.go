package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"rustmd/internal/config"
	"rustmd/internal/document"
	"rustmd/internal/logging"
	"rustmd/internal/render"
	"rustmd/internal/watch"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	renderFormat      string
	renderOutDir      string
	renderStyle       string
	renderDebugColors bool
	renderWatch       bool
)

// renderCmd renders rustmd documents
var renderCmd = &cobra.Command{
	Use:   "render <file>...",
	Short: "Render rustmd documents to HTML or the terminal",
	Long: `Renders each document and writes the result to stdout, in argument
order, or into --out as <name>.html / <name>.txt.

Formats:
  - html:     HTML fragment
  - page:     standalone HTML page with stylesheet
  - terminal: styled terminal text

With --watch, documents are re-rendered whenever they change until
interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "", "Output format: html, page, terminal (default from config)")
	renderCmd.Flags().StringVarP(&renderOutDir, "out", "o", "", "Write output files into this directory")
	renderCmd.Flags().StringVar(&renderStyle, "style", "", "Chroma style for HTML output (default from config)")
	renderCmd.Flags().BoolVar(&renderDebugColors, "debug-colors", false, "Tint layout blocks")
	renderCmd.Flags().BoolVarP(&renderWatch, "watch", "w", false, "Re-render on change")
}

// renderSettings merges command flags over the loaded config.
func renderSettings(cmd *cobra.Command) (config.RenderConfig, error) {
	rc := cfg.Render
	if cmd.Flags().Changed("format") {
		rc.Format = renderFormat
	}
	if cmd.Flags().Changed("style") {
		rc.Style = renderStyle
	}
	if cmd.Flags().Changed("debug-colors") {
		rc.DebugColors = renderDebugColors
	}
	merged := *cfg
	merged.Render = rc
	if err := merged.Validate(); err != nil {
		return rc, err
	}
	return rc, nil
}

// docRenderer renders one file with fixed settings.
type docRenderer struct {
	settings config.RenderConfig
	html     *render.HTMLRenderer
}

func newDocRenderer(rc config.RenderConfig) (*docRenderer, error) {
	hr, err := render.NewHTMLRenderer(
		render.WithStyle(rc.Style),
		render.WithDebugColors(rc.DebugColors),
	)
	if err != nil {
		return nil, err
	}
	return &docRenderer{settings: rc, html: hr}, nil
}

// loadDocument reads and parses path.
func loadDocument(path string) (*document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := document.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// renderFile reads, parses and renders path.
func (d *docRenderer) renderFile(path string) ([]byte, error) {
	doc, err := loadDocument(path)
	if err != nil {
		return nil, err
	}
	lang := document.LanguageFromPath(path)

	var buf bytes.Buffer
	switch d.settings.Format {
	case "html":
		err = d.html.Render(&buf, doc, lang)
	case "page":
		err = d.html.RenderPage(&buf, doc, lang, filepath.Base(path))
	case "terminal":
		// glamour renderers are not shared between goroutines. TermStyle is
		// already concrete, so building one does not touch the terminal.
		var tr *render.TerminalRenderer
		tr, err = render.NewTerminalRenderer(d.settings.TermStyle, d.settings.WordWrap)
		if err == nil {
			var out string
			out, err = tr.Render(doc, lang)
			buf.WriteString(out)
		}
	default:
		err = fmt.Errorf("unknown format %q", d.settings.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

// outputName maps a source path to its file name under --out.
func outputName(path, format string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if format == "terminal" {
		return base + ".txt"
	}
	return base + ".html"
}

func runRender(cmd *cobra.Command, args []string) error {
	rc, err := renderSettings(cmd)
	if err != nil {
		return err
	}
	if rc.Format == "terminal" {
		// Resolve "auto" once, before any worker starts.
		rc.TermStyle = render.ResolveTermStyle(rc.TermStyle)
	}
	dr, err := newDocRenderer(rc)
	if err != nil {
		return err
	}
	if renderOutDir != "" {
		if err := os.MkdirAll(renderOutDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if !renderWatch {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return renderAll(ctx, dr, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return watchAndRender(ctx, dr, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// renderAll renders paths concurrently, bounded by the configured concurrency,
// then writes the results in argument order.
func renderAll(ctx context.Context, dr *docRenderer, paths []string, stdout, stderr io.Writer) error {
	renderID := uuid.NewString()
	log := logging.Get(logging.CategoryRender).With(zap.String("render_id", renderID))
	start := time.Now()

	results := make([][]byte, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dr.settings.Concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := dr.renderFile(path)
			if err != nil {
				return err
			}
			results[i] = out
			log.Debug("Rendered document", zap.String("file", path), zap.Int("bytes", len(out)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, path := range paths {
		if err := emit(path, results[i], dr.settings.Format, stdout); err != nil {
			return err
		}
	}

	log.Info("Render complete",
		zap.Int("files", len(paths)),
		zap.String("format", dr.settings.Format),
		zap.Duration("elapsed", time.Since(start)))
	if renderOutDir != "" {
		fmt.Fprintln(stderr, successStyle.Render(fmt.Sprintf("rendered %d file(s) into %s", len(paths), renderOutDir)))
	}
	return nil
}

// emit writes one rendered document to --out or to stdout.
func emit(path string, out []byte, format string, stdout io.Writer) error {
	if renderOutDir == "" {
		_, err := stdout.Write(out)
		return err
	}
	dest := filepath.Join(renderOutDir, outputName(path, format))
	if err := os.WriteFile(dest, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}

// watchAndRender renders once, then re-renders each file as it changes
// until ctx is done.
func watchAndRender(ctx context.Context, dr *docRenderer, paths []string, stdout, stderr io.Writer) error {
	if err := renderAll(ctx, dr, paths, stdout, stderr); err != nil {
		return err
	}

	// The watcher reports absolute paths; map them back to what was asked for.
	byAbs := make(map[string]string, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		byAbs[abs] = p
	}

	w, err := watch.New(paths, cfg.GetDebounce(), func(abs string) {
		path := byAbs[abs]
		out, err := dr.renderFile(path)
		if err != nil {
			logging.Get(logging.CategoryWatch).Warn("Re-render failed", zap.String("file", path), zap.Error(err))
			fmt.Fprintln(stderr, errorStyle.Render(err.Error()))
			return
		}
		if err := emit(path, out, dr.settings.Format, stdout); err != nil {
			logging.Get(logging.CategoryWatch).Warn("Write failed", zap.String("file", path), zap.Error(err))
			return
		}
		logging.Watch("re-rendered %s", path)
		fmt.Fprintln(stderr, mutedStyle.Render("re-rendered "+path))
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return err
	}
	fmt.Fprintln(stderr, mutedStyle.Render(fmt.Sprintf("watching %d file(s), press Ctrl+C to stop", len(paths))))

	<-ctx.Done()
	w.Stop()
	stats := w.Stats()
	logging.Get(logging.CategoryWatch).Info("Watch stopped",
		zap.Int("events", stats.Events),
		zap.Int("renders", stats.Callbacks))
	return nil
}
