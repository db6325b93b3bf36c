// Package bundle assembles uploaded PDF documents into one paginated legal
// bundle: merged content pages behind a generated index, section-prefixed
// page labels, optional divider pages, clickable index links, bookmarks,
// running page-number stamps, an optional preview watermark, and a split
// into page-capped volumes when the bundle grows past the cap.
//
// The engine is stateless between runs. A run is strictly sequential:
// resolve sources, plan the content page sequence, settle the index size,
// assemble, annotate, then write. Per-document source resolution is the only
// concurrent part.
package bundle

import (
	"github.com/edocket/bindery/observability"
	"github.com/edocket/bindery/stamp"
	"github.com/edocket/bindery/toc"
	"github.com/edocket/bindery/volumes"
	"github.com/edocket/bindery/writer"
)

// Document is one uploaded source document.
type Document struct {
	ID   string
	Name string
	// Title, when set, replaces Name everywhere the document is shown.
	Title string
	Date  string

	// Data is the original upload. Edited, when non-empty, replaces it
	// outright. SelectedPages, when non-nil, subsets Data by 0-based page
	// index in the order given; it is ignored while Edited is present.
	Data          []byte
	Edited        []byte
	SelectedPages []int

	Order int
}

// DisplayTitle returns the custom title when set, else the upload name.
func (d *Document) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Name
}

// Section is one ordered group of documents sharing a label prefix. Prefix
// uniqueness across sections is the caller's responsibility.
type Section struct {
	ID     string
	Name   string
	Prefix string
	// StartPage seeds the section's label counter; zero means 1.
	StartPage int
	// Divider inserts a generated title page before the section's documents.
	// The divider consumes the section's first label.
	Divider   bool
	Documents []Document
	Order     int
}

// Entry, Metadata and StampSettings are the index row, caption block and
// page-number configuration shared with the layout and stamping packages.
type (
	Entry         = toc.Entry
	Metadata      = toc.Metadata
	StampSettings = stamp.Settings
)

// Notes is optional front-matter text rendered before the index. Markdown
// wins when both forms are set.
type Notes struct {
	Markdown string
	HTML     string
}

func (n Notes) empty() bool { return n.Markdown == "" && n.HTML == "" }

// Engine runs bundle assemblies. Construct with New; the zero value is not
// usable.
type Engine struct {
	layout      toc.Config
	stamps      StampSettings
	watermark   string
	notes       Notes
	volumeCap   int
	labelDigits int
	workers     int
	writerCfg   writer.Config
	progress    func(Stage)
	log         observability.Logger
	tracer      observability.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLayout replaces the index layout configuration.
func WithLayout(cfg toc.Config) Option {
	return func(e *Engine) { e.layout = cfg }
}

// WithStamp configures the running page-number stamps.
func WithStamp(s StampSettings) Option {
	return func(e *Engine) { e.stamps = s }
}

// WithWatermark draws text diagonally across every page. Empty text disables
// the watermark.
func WithWatermark(text string) Option {
	return func(e *Engine) { e.watermark = text }
}

// WithNotes adds front-matter pages rendered from Markdown or HTML.
func WithNotes(n Notes) Option {
	return func(e *Engine) { e.notes = n }
}

// WithVolumeCap sets the page cap above which the bundle splits into
// volumes.
func WithVolumeCap(pages int) Option {
	return func(e *Engine) { e.volumeCap = pages }
}

// WithLabelDigits sets the zero-padded width of the numeric label part.
func WithLabelDigits(digits int) Option {
	return func(e *Engine) { e.labelDigits = digits }
}

// WithWorkers bounds concurrent source resolution. Zero means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithWriter replaces the output serialization configuration.
func WithWriter(cfg writer.Config) Option {
	return func(e *Engine) { e.writerCfg = cfg }
}

// WithProgress registers a hook fired as each pipeline stage completes.
func WithProgress(fn func(Stage)) Option {
	return func(e *Engine) { e.progress = fn }
}

// WithLogger sets the structured logger.
func WithLogger(l observability.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithTracer sets the stage tracer.
func WithTracer(t observability.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// New builds an engine with A4 Helvetica index layout, bottom-right 10pt
// stamps, a 350-page volume cap and deterministic compressed output.
func New(opts ...Option) *Engine {
	e := &Engine{
		layout:      toc.DefaultConfig(),
		stamps:      stamp.DefaultSettings(),
		volumeCap:   volumes.DefaultCap,
		labelDigits: DefaultLabelDigits,
		writerCfg:   writer.DefaultConfig(),
		log:         observability.NopLogger{},
		tracer:      observability.NopTracer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = observability.NopLogger{}
	}
	if e.tracer == nil {
		e.tracer = observability.NopTracer()
	}
	return e
}
