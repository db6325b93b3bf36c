// Command bindery assembles a paginated legal bundle from a JSON description
// and the document files it names.
//
// Usage:
//
//	bindery [flags] <bundle.json>
//
// The description lists sections and their documents; document and notes
// paths resolve relative to the description file. Output is a single PDF,
// or a zip of volumes plus a manifest when the bundle exceeds the page cap.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/edocket/bindery/bundle"
	"github.com/edocket/bindery/fonts"
	"github.com/edocket/bindery/observability"
	"github.com/edocket/bindery/stamp"
	"github.com/edocket/bindery/toc"
)

type options struct {
	specPath  string
	outPath   string
	watermark string
	volumeCap int
	stampPos  string
	stampSize float64
	stampBold bool
	fontPath  string
	verbose   bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bindery: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "bindery: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: bindery [flags] <bundle.json>\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.outPath, "o", "", "Output path (default: description name with .pdf or .zip)")
	flag.StringVar(&opts.watermark, "watermark", "", "Text drawn diagonally across every page")
	flag.IntVar(&opts.volumeCap, "cap", 0, "Volume page cap (0 keeps the 350-page default)")
	flag.StringVar(&opts.stampPos, "stamp-pos", "bottom-right", "Stamp corner: top/bottom crossed with left/center/right")
	flag.Float64Var(&opts.stampSize, "stamp-size", 0, "Stamp font size in points (0 keeps the default)")
	flag.BoolVar(&opts.stampBold, "stamp-bold", false, "Stamp labels in bold")
	flag.StringVar(&opts.fontPath, "font", "", "TrueType font for the index (default: Helvetica)")
	flag.BoolVar(&opts.verbose, "v", false, "Log pipeline stages to stderr")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return options{}, fmt.Errorf("missing bundle description path")
	}
	opts.specPath = flag.Arg(0)
	if _, err := parsePosition(opts.stampPos); err != nil {
		return options{}, err
	}
	return opts, nil
}

// bundleSpec is the on-disk description format.
type bundleSpec struct {
	Caption   string        `json:"caption"`
	Court     string        `json:"court"`
	Reference string        `json:"reference"`
	Date      string        `json:"date"`
	Parties   []string      `json:"parties"`
	Notes     string        `json:"notes"`
	Sections  []sectionSpec `json:"sections"`
}

type sectionSpec struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Prefix    string    `json:"prefix"`
	StartPage int       `json:"startPage"`
	Divider   bool      `json:"divider"`
	Documents []docSpec `json:"documents"`
}

type docSpec struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
	File  string `json:"file"`
	Pages []int  `json:"pages"`
}

func run(opts options) error {
	raw, err := os.ReadFile(opts.specPath)
	if err != nil {
		return fmt.Errorf("read description: %w", err)
	}
	var spec bundleSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return fmt.Errorf("parse description: %w", err)
	}
	if len(spec.Sections) == 0 {
		return fmt.Errorf("description lists no sections")
	}
	baseDir := filepath.Dir(opts.specPath)

	sections, err := loadSections(spec.Sections, baseDir)
	if err != nil {
		return err
	}
	engineOpts, err := engineOptions(opts, spec, baseDir)
	if err != nil {
		return err
	}

	eng := bundle.New(engineOpts...)
	res, err := eng.Run(context.Background(), sections, toc.Metadata{
		Caption:   spec.Caption,
		Court:     spec.Court,
		Date:      spec.Date,
		Parties:   spec.Parties,
		Reference: spec.Reference,
	})
	if err != nil {
		return err
	}

	outPath := opts.outPath
	if outPath == "" {
		outPath = strings.TrimSuffix(opts.specPath, filepath.Ext(opts.specPath))
	}
	outPath = withExtension(outPath, res.Archive)
	if err := os.WriteFile(outPath, res.Data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	total := len(res.Labels)
	fmt.Printf("%s: %d pages (%d index)", outPath, total, res.IndexPages)
	if res.Archive {
		fmt.Printf(", %d volumes", len(res.Volumes))
	}
	fmt.Println()
	return nil
}

func loadSections(specs []sectionSpec, baseDir string) ([]bundle.Section, error) {
	sections := make([]bundle.Section, 0, len(specs))
	for i, ss := range specs {
		if ss.Prefix == "" {
			return nil, fmt.Errorf("section %q has no label prefix", ss.Name)
		}
		sec := bundle.Section{
			ID:        ss.ID,
			Name:      ss.Name,
			Prefix:    ss.Prefix,
			StartPage: ss.StartPage,
			Divider:   ss.Divider,
			Order:     i,
		}
		for j, ds := range ss.Documents {
			if ds.File == "" {
				return nil, fmt.Errorf("section %q document %d names no file", ss.Name, j)
			}
			path := ds.File
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read document: %w", err)
			}
			id := ds.ID
			if id == "" {
				id = fmt.Sprintf("%s-%d", ss.Prefix, j)
			}
			sec.Documents = append(sec.Documents, bundle.Document{
				ID:            id,
				Name:          filepath.Base(ds.File),
				Title:         ds.Title,
				Date:          ds.Date,
				Data:          data,
				SelectedPages: ds.Pages,
				Order:         j,
			})
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

func engineOptions(opts options, spec bundleSpec, baseDir string) ([]bundle.Option, error) {
	var engineOpts []bundle.Option

	pos, err := parsePosition(opts.stampPos)
	if err != nil {
		return nil, err
	}
	stamps := stamp.DefaultSettings()
	stamps.Position = pos
	stamps.Bold = opts.stampBold
	if opts.stampSize > 0 {
		stamps.Size = opts.stampSize
	}
	engineOpts = append(engineOpts, bundle.WithStamp(stamps))

	if opts.watermark != "" {
		engineOpts = append(engineOpts, bundle.WithWatermark(opts.watermark))
	}
	if opts.volumeCap > 0 {
		engineOpts = append(engineOpts, bundle.WithVolumeCap(opts.volumeCap))
	}
	if opts.fontPath != "" {
		data, err := os.ReadFile(opts.fontPath)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		name := strings.TrimSuffix(filepath.Base(opts.fontPath), filepath.Ext(opts.fontPath))
		face, err := fonts.NewFace(name, data)
		if err != nil {
			return nil, err
		}
		cfg := toc.DefaultConfig()
		cfg.Regular = face
		engineOpts = append(engineOpts, bundle.WithLayout(cfg))
	}
	if spec.Notes != "" {
		path := spec.Notes
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read notes: %w", err)
		}
		notes := bundle.Notes{Markdown: string(data)}
		if ext := strings.ToLower(filepath.Ext(path)); ext == ".html" || ext == ".htm" {
			notes = bundle.Notes{HTML: string(data)}
		}
		engineOpts = append(engineOpts, bundle.WithNotes(notes))
	}
	if opts.verbose {
		engineOpts = append(engineOpts, bundle.WithLogger(stderrLogger{}))
	}
	return engineOpts, nil
}

func parsePosition(s string) (stamp.Position, error) {
	switch s {
	case "top-left":
		return stamp.TopLeft, nil
	case "top-center":
		return stamp.TopCenter, nil
	case "top-right":
		return stamp.TopRight, nil
	case "bottom-left":
		return stamp.BottomLeft, nil
	case "bottom-center":
		return stamp.BottomCenter, nil
	case "bottom-right":
		return stamp.BottomRight, nil
	}
	return 0, fmt.Errorf("unknown stamp position %q", s)
}

func withExtension(path string, archive bool) string {
	want := ".pdf"
	if archive {
		want = ".zip"
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".pdf" || ext == ".zip" {
		path = strings.TrimSuffix(path, filepath.Ext(path))
	}
	return path + want
}

// stderrLogger writes engine log lines to standard error.
type stderrLogger struct{ fields []observability.Field }

func (l stderrLogger) log(level, msg string, fields []observability.Field) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", level, msg)
	for _, f := range append(l.fields, fields...) {
		fmt.Fprintf(&b, " %s=%v", f.Key(), f.Value())
	}
	fmt.Fprintln(os.Stderr, b.String())
}

func (l stderrLogger) Debug(msg string, fields ...observability.Field) { l.log("DEBUG", msg, fields) }
func (l stderrLogger) Info(msg string, fields ...observability.Field)  { l.log("INFO", msg, fields) }
func (l stderrLogger) Warn(msg string, fields ...observability.Field)  { l.log("WARN", msg, fields) }
func (l stderrLogger) Error(msg string, fields ...observability.Field) { l.log("ERROR", msg, fields) }
func (l stderrLogger) With(fields ...observability.Field) observability.Logger {
	return stderrLogger{fields: append(append([]observability.Field(nil), l.fields...), fields...)}
}
