package main

import (
	"context"
	"fmt"
	"time"

	"rustmd/internal/document"
	"rustmd/internal/logging"
	"rustmd/internal/preview"
	"rustmd/internal/render"
	"rustmd/internal/watch"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// previewCmd opens the live terminal preview
var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Preview a rustmd document in the terminal with live reload",
	Long: `Opens a scrollable terminal view of the rendered document. The view
refreshes when the file changes on disk.

Keys: arrows/pgup/pgdown scroll, g/G jump to top/bottom, q quits.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

// loadTerminal renders path for the terminal preview.
func loadTerminal(tr *render.TerminalRenderer, path string) (string, error) {
	doc, err := loadDocument(path)
	if err != nil {
		return "", err
	}
	return tr.Render(doc, document.LanguageFromPath(path))
}

// reloadMsg renders path into a message for the preview model.
func reloadMsg(tr *render.TerminalRenderer, path string) preview.ReloadMsg {
	content, err := loadTerminal(tr, path)
	return preview.ReloadMsg{Content: content, Err: err, At: time.Now()}
}

func runPreview(cmd *cobra.Command, args []string) error {
	path := args[0]

	// The style is resolved before bubbletea owns the terminal. The watcher
	// reloads one change at a time, so it reuses this renderer.
	tr, err := render.NewTerminalRenderer(render.ResolveTermStyle(cfg.Render.TermStyle), cfg.Render.WordWrap)
	if err != nil {
		return err
	}
	content, err := loadTerminal(tr, path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(preview.New(path, content), tea.WithAltScreen(), tea.WithContext(ctx))

	w, err := watch.New([]string{path}, cfg.GetDebounce(), func(string) {
		p.Send(reloadMsg(tr, path))
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return err
	}
	defer w.Stop()

	logging.Get(logging.CategoryPreview).Info("Preview started", zap.String("file", path))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}
	return nil
}
