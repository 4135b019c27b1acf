// Package export writes static dashboard pages: one directory per filter
// value holding index.md, index.html and the PNG figures, plus a bundle.json
// manifest at the root.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/KaramelBytes/salesdash/internal/dashboard"
	"github.com/KaramelBytes/salesdash/internal/dataset"
	"github.com/KaramelBytes/salesdash/internal/utils"
)

const bundleFileName = "bundle.json"

// Bundle is the manifest of one export run.
type Bundle struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Source  string    `json:"source,omitempty"`
	LoadID  string    `json:"load_id,omitempty"`
	Created time.Time `json:"created_at"`
	Pages   []Page    `json:"pages"`
}

// Page describes one exported selection.
type Page struct {
	ID         string        `json:"id"`
	Selection  string        `json:"selection"`
	Dir        string        `json:"dir"`
	Rows       int           `json:"rows"`
	Warnings   []string      `json:"warnings,omitempty"`
	Diagnostic string        `json:"diagnostic,omitempty"`
	Figures    []FigureEntry `json:"figures"`
}

// FigureEntry points at a figure file relative to the page directory.
type FigureEntry struct {
	Kind  dashboard.ChartKind `json:"kind"`
	Title string              `json:"title"`
	File  string              `json:"file"`
	Bytes int                 `json:"bytes"`
}

// Exporter renders pages into Dir.
type Exporter struct {
	Dir      string
	Plotter  dashboard.Plotter
	Settings dashboard.Settings
	Logger   *slog.Logger
}

// ErrUnknownSelection is returned when a requested value is not a filter option.
var ErrUnknownSelection = errors.New("unknown selection")

// Selections resolves which values to export. With all set every filter
// option is exported; otherwise value (or the first option when empty).
// A table without the identifier column yields a single unfiltered page.
func Selections(t *dataset.Table, cfg dashboard.Settings, value string, all bool) ([]string, error) {
	opts, ok := dashboard.FilterOptions(t, cfg.Roles.Identifier)
	if !ok {
		return []string{""}, nil
	}
	if all {
		if len(opts) == 0 {
			return []string{""}, nil
		}
		return opts, nil
	}
	if value == "" {
		return []string{dashboard.DefaultSelection(opts)}, nil
	}
	if dashboard.IsOption(opts, value) {
		return []string{value}, nil
	}
	return nil, fmt.Errorf("%w %q for column %s", ErrUnknownSelection, value, cfg.Roles.Identifier)
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Export renders one page per selection and writes the bundle manifest.
// Figures are written as they are drawn; a failure stops the export.
func (e *Exporter) Export(t *dataset.Table, selections []string, source string, rep dataset.LoadReport) (*Bundle, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := utils.EnsureDir(e.Dir); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	b := &Bundle{
		ID:      uuid.NewString(),
		Title:   e.Settings.Title,
		Source:  source,
		LoadID:  rep.ID,
		Created: time.Now().UTC(),
	}
	used := map[string]bool{}
	for _, sel := range selections {
		dir := dirName(sel, used)
		page, err := e.exportPage(t, sel, dir)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", dir, err)
		}
		logger.Debug("exported page", "selection", sel, "dir", dir, "figures", len(page.Figures))
		b.Pages = append(b.Pages, *page)
	}
	if err := e.writeIndex(b); err != nil {
		return nil, err
	}
	data, err := utils.PrettyJSON(b)
	if err != nil {
		return nil, err
	}
	if err := utils.SafeWriteFile(filepath.Join(e.Dir, bundleFileName), data); err != nil {
		return nil, err
	}
	return b, nil
}

// dirName returns a directory for sel that no earlier page uses. Taken
// names, generated ones included, are recorded in used.
func dirName(sel string, used map[string]bool) string {
	base := "all"
	if sel != "" {
		base = utils.Slug(sel)
	}
	name := base
	for n := 2; used[name]; n++ {
		name = fmt.Sprintf("%s-%d", base, n)
	}
	used[name] = true
	return name
}

func (e *Exporter) exportPage(t *dataset.Table, sel, dir string) (*Page, error) {
	abs := filepath.Join(e.Dir, dir)
	if err := utils.EnsureDir(abs); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	h := &host{dir: abs, selection: sel}
	v, err := dashboard.Run(h, e.Plotter, t, e.Settings)
	if err != nil {
		return nil, err
	}
	if h.err != nil {
		return nil, h.err
	}
	if err := writePage(abs, h.title, h.md.Bytes()); err != nil {
		return nil, err
	}
	return &Page{
		ID:         uuid.NewString(),
		Selection:  v.Selected,
		Dir:        dir,
		Rows:       v.Rows,
		Warnings:   v.Warnings,
		Diagnostic: v.Diagnostic,
		Figures:    h.figures,
	}, nil
}

func (e *Exporter) writeIndex(b *Bundle) error {
	var md bytes.Buffer
	fmt.Fprintf(&md, "# %s\n\n", b.Title)
	for _, p := range b.Pages {
		label := p.Selection
		if label == "" {
			label = "All rows"
		}
		fmt.Fprintf(&md, "- [%s](%s/index.html) (%d rows)\n", label, p.Dir, p.Rows)
	}
	return writePage(e.Dir, b.Title, md.Bytes())
}

// writePage writes index.md and its HTML rendering into dir.
func writePage(dir, title string, md []byte) error {
	if err := utils.SafeWriteFile(filepath.Join(dir, "index.md"), md); err != nil {
		return err
	}
	var body bytes.Buffer
	if err := markdown.Convert(md, &body); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	var doc strings.Builder
	doc.WriteString("<!doctype html>\n<html><head><meta charset=\"utf-8\">\n")
	fmt.Fprintf(&doc, "<title>%s</title>\n", html.EscapeString(title))
	doc.WriteString("<style>body{font-family:sans-serif;max-width:1100px;margin:2em auto}img{max-width:100%}</style>\n")
	doc.WriteString("</head><body>\n")
	doc.Write(body.Bytes())
	doc.WriteString("</body></html>\n")
	return utils.SafeWriteFile(filepath.Join(dir, "index.html"), []byte(doc.String()))
}

// host is a dashboard.Host that accumulates Markdown and writes figures.
type host struct {
	dir       string
	selection string
	title     string
	md        bytes.Buffer
	figures   []FigureEntry
	err       error
}

func (h *host) SetPageConfig(title, layout string) {
	h.title = title
}

func (h *host) SidebarTitle(text string) {
	fmt.Fprintf(&h.md, "**%s**\n\n", text)
}

func (h *host) SelectBox(label string, options []string) string {
	choice := dashboard.DefaultSelection(options)
	if dashboard.IsOption(options, h.selection) {
		choice = h.selection
	}
	fmt.Fprintf(&h.md, "%s `%s` (of %d)\n\n", label, choice, len(options))
	return choice
}

func (h *host) Warning(text string) {
	fmt.Fprintf(&h.md, "> **Warning:** %s\n\n", text)
}

func (h *host) Error(text string) {
	fmt.Fprintf(&h.md, "> **Error:** %s\n\n", text)
}

func (h *host) Heading(text string) {
	fmt.Fprintf(&h.md, "# %s\n\n", text)
}

func (h *host) Subheading(text string) {
	fmt.Fprintf(&h.md, "## %s\n\n", text)
}

func (h *host) Figure(f dashboard.Figure) {
	if h.err != nil {
		return
	}
	ext := f.Format
	if ext == "text" {
		ext = "txt"
	}
	name := fmt.Sprintf("%s.%s", f.Kind, ext)
	if err := utils.SafeWriteFile(filepath.Join(h.dir, name), f.Body); err != nil {
		h.err = fmt.Errorf("write figure: %w", err)
		return
	}
	h.figures = append(h.figures, FigureEntry{Kind: f.Kind, Title: f.Title, File: name, Bytes: len(f.Body)})
	if f.Format == "text" {
		fmt.Fprintf(&h.md, "```\n%s```\n\n", f.Body)
		return
	}
	fmt.Fprintf(&h.md, "![%s](%s)\n\n", f.Title, name)
}
