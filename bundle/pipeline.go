package bundle

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/edocket/bindery/cover"
	"github.com/edocket/bindery/observability"
	"github.com/edocket/bindery/parser"
	"github.com/edocket/bindery/pdf"
	"github.com/edocket/bindery/stamp"
	"github.com/edocket/bindery/toc"
	"github.com/edocket/bindery/volumes"
	"github.com/edocket/bindery/writer"
)

// MaxLayoutPasses caps the measure/shift fixed point. Index size depends
// only on entry count and kind, so the second pass normally confirms the
// first; the cap guards against a layout change breaking that property.
const MaxLayoutPasses = 3

// Stage identifies a completed pipeline phase, reported through the
// WithProgress hook. The optional stages fire only when their feature runs.
type Stage int

const (
	StagePlanned Stage = iota
	StageMeasured
	StageShifted
	StageAssembled
	StageAnnotated
	StageWatermarked
	StageSplit
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StagePlanned:
		return "planned"
	case StageMeasured:
		return "measured"
	case StageShifted:
		return "shifted"
	case StageAssembled:
		return "assembled"
	case StageAnnotated:
		return "annotated"
	case StageWatermarked:
		return "watermarked"
	case StageSplit:
		return "split"
	case StageDone:
		return "done"
	}
	return "unknown"
}

// Result is one finished assembly run.
type Result struct {
	// Data is the final artifact: a PDF file, or a zip archive of volumes
	// and their manifest when Archive is set.
	Data    []byte
	Archive bool

	// Document is the assembled bundle before any volume split.
	Document *pdf.Document
	// Labels maps page index to display label; front pages are empty.
	Labels     []string
	CoverPages int
	IndexPages int
	// Volumes is the split partition, empty when the bundle fit the cap.
	Volumes []volumes.Volume
}

// Run assembles one bundle. Sections and their documents are walked in
// Order; the inputs are not mutated.
func (e *Engine) Run(ctx context.Context, sections []Section, meta Metadata) (*Result, error) {
	ctx, span := e.tracer.StartSpan(ctx, "bundle.run")
	defer span.Finish()

	res, err := e.run(ctx, span, sections, meta)
	if err != nil {
		span.SetError(err)
		e.log.Error("bundle failed", observability.Error("err", err))
		return nil, err
	}
	return res, nil
}

func (e *Engine) run(ctx context.Context, span observability.Span, sections []Section, meta Metadata) (*Result, error) {
	secs := orderSections(sections)
	docs := flattenDocs(secs)

	p := parser.New(parser.Config{Logger: e.log})
	resolveStart := time.Now()
	resolved, err := ResolveAll(ctx, p, docs, e.workers)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	span.SetTag(observability.MetricResolveTime, time.Since(resolveStart))

	plan, err := BuildPlan(secs, resolved, e.labelDigits)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	span.SetTag(observability.MetricPlanLabels, plan.PageCount())
	e.log.Debug("content planned",
		observability.Int("sections", len(secs)),
		observability.Int("documents", len(docs)),
		observability.Int("pages", plan.PageCount()))
	e.step(StagePlanned)

	coverPages, err := e.coverPages()
	if err != nil {
		return nil, fmt.Errorf("cover: %w", err)
	}

	measure := func(entries []Entry) int {
		return toc.Measure(entries, meta, e.layout).PageCount
	}
	indexPages, ok := settle(plan.Entries, len(coverPages), measure)
	if !ok {
		return nil, fmt.Errorf("layout: %w", ErrLayoutDiverged)
	}
	span.SetTag(observability.MetricIndexPages, indexPages)
	e.step(StageMeasured)

	final := shiftEntries(plan.Entries, len(coverPages)+indexPages)
	layout := toc.Measure(final, meta, e.layout)
	e.step(StageShifted)

	front := append(coverPages, toc.Render(layout)...)
	assembleStart := time.Now()
	doc, err := Assemble(ctx, front, plan, layout.Config)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	doc.Info = &pdf.Info{Title: meta.Caption, Producer: "bindery"}
	span.SetTag(observability.MetricAssemblePages, doc.PageCount())
	span.SetTag(observability.MetricAssembleTime, time.Since(assembleStart))
	e.step(StageAssembled)

	Annotate(doc, layout, len(coverPages), e.stamps)
	e.step(StageAnnotated)

	if e.watermark != "" {
		stamp.WatermarkPages(doc.Pages, e.watermark)
		e.step(StageWatermarked)
	}

	res := &Result{
		Document:   doc,
		Labels:     doc.PageLabels,
		CoverPages: len(coverPages),
		IndexPages: indexPages,
	}

	volumeCap := e.volumeCap
	if volumeCap <= 0 {
		volumeCap = volumes.DefaultCap
	}
	writeStart := time.Now()
	vols := volumes.Split(doc.PageCount(), volumeCap)
	if len(vols) > 1 {
		var buf bytes.Buffer
		if err := volumes.Package(ctx, &buf, doc, vols, meta.Reference, e.writerCfg); err != nil {
			return nil, fmt.Errorf("split: %w", err)
		}
		res.Volumes = vols
		res.Data = buf.Bytes()
		res.Archive = true
		span.SetTag(observability.MetricVolumeCount, len(vols))
		e.step(StageSplit)
	} else {
		var buf bytes.Buffer
		if err := writer.Write(ctx, doc, &buf, e.writerCfg); err != nil {
			return nil, fmt.Errorf("write: %w", err)
		}
		res.Data = buf.Bytes()
	}
	span.SetTag(observability.MetricWriteTime, time.Since(writeStart))
	e.step(StageDone)

	e.log.Info("bundle assembled",
		observability.Int("pages", doc.PageCount()),
		observability.Int("index_pages", indexPages),
		observability.Int("volumes", len(res.Volumes)),
		observability.Int("bytes", len(res.Data)))
	return res, nil
}

func (e *Engine) step(s Stage) {
	if e.progress != nil {
		e.progress(s)
	}
	e.log.Debug("stage complete", observability.String("stage", s.String()))
}

// coverPages renders the optional front-matter notes.
func (e *Engine) coverPages() ([]*pdf.Page, error) {
	if e.notes.empty() {
		return nil, nil
	}
	cfg := cover.DefaultConfig()
	cfg.PageSize = e.layout.PageSize
	if e.notes.Markdown != "" {
		return cover.Markdown(e.notes.Markdown, cfg)
	}
	return cover.HTML(e.notes.HTML, cfg)
}

// settle runs the measure/shift fixed point: measure the provisional
// entries, shift by the front matter the measurement implies, and re-measure
// until the index page count stops moving. Returns the settled count, or
// ok=false when MaxLayoutPasses passes were not enough.
func settle(entries []Entry, coverCount int, measure func([]Entry) int) (int, bool) {
	count := measure(entries)
	for pass := 0; pass < MaxLayoutPasses; pass++ {
		shifted := shiftEntries(entries, coverCount+count)
		n := measure(shifted)
		if n == count {
			return count, true
		}
		count = n
	}
	return 0, false
}

// shiftEntries rebases entry targets from content-only to final coordinates.
// It returns a fresh slice; the provisional entries stay untouched so every
// pass shifts from the same baseline.
func shiftEntries(entries []Entry, front int) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	for i := range out {
		out[i].PageIndex += front
	}
	return out
}

// orderSections copies the input and sorts sections and their documents by
// Order key, stably, leaving the caller's slices alone.
func orderSections(sections []Section) []*Section {
	out := make([]*Section, len(sections))
	for i := range sections {
		s := sections[i]
		s.Documents = append([]Document(nil), s.Documents...)
		sort.SliceStable(s.Documents, func(a, b int) bool {
			return s.Documents[a].Order < s.Documents[b].Order
		})
		out[i] = &s
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Order < out[b].Order })
	return out
}

// flattenDocs lists every document pointer in section walk order, the order
// ResolveAll and BuildPlan both consume.
func flattenDocs(sections []*Section) []*Document {
	var docs []*Document
	for _, sec := range sections {
		for i := range sec.Documents {
			docs = append(docs, &sec.Documents[i])
		}
	}
	return docs
}
