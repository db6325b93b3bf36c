package bundle

import "fmt"

// DefaultLabelDigits is the zero-padded width of the numeric label part, so
// the first page of a section with prefix "A" is labelled A001.
const DefaultLabelDigits = 3

// Block is one contiguous run of content pages: a generated divider page
// when Doc is nil, else the pages imported from a resolved document.
type Block struct {
	DividerTitle string
	Doc          *ResolvedDocument
}

// PageCount returns the number of pages the block contributes.
func (b Block) PageCount() int {
	if b.Doc == nil {
		return 1
	}
	return len(b.Doc.Pages)
}

// Plan is the content-only page sequence: blocks in final order, one label
// per content page, and the provisional index entries. Entry targets are
// content-only page indices until the front-matter shift.
type Plan struct {
	Blocks  []Block
	Labels  []string
	Entries []Entry
}

// PageCount returns the number of content pages the plan lays out.
func (p *Plan) PageCount() int { return len(p.Labels) }

// BuildPlan walks the ordered sections and lays out the content page
// sequence. resolved lists the sections' documents in walk order, as
// produced by ResolveAll over the same sections. Each section counts labels
// from StartPage; a divider consumes the first label before any document.
// Sections contributing no pages are skipped.
func BuildPlan(sections []*Section, resolved []*ResolvedDocument, digits int) (*Plan, error) {
	if digits <= 0 {
		digits = DefaultLabelDigits
	}
	limit := 1
	for i := 0; i < digits; i++ {
		limit *= 10
	}

	var total int
	for _, sec := range sections {
		total += len(sec.Documents)
	}
	if total != len(resolved) {
		return nil, fmt.Errorf("plan: %d resolved documents for %d listed", len(resolved), total)
	}

	plan := &Plan{}
	k := 0
	for _, sec := range sections {
		docs := resolved[k : k+len(sec.Documents)]
		k += len(sec.Documents)

		pages := 0
		if sec.Divider {
			pages++
		}
		for _, rd := range docs {
			pages += len(rd.Pages)
		}
		if pages == 0 {
			continue
		}

		counter := sec.StartPage
		if counter < 1 {
			counter = 1
		}

		sectionStart := len(plan.Labels)
		var headerStart, headerEnd string
		if sec.Divider {
			label, err := makeLabel(sec, counter, digits, limit)
			if err != nil {
				return nil, err
			}
			counter++
			plan.Blocks = append(plan.Blocks, Block{DividerTitle: sec.Name})
			plan.Labels = append(plan.Labels, label)
			headerStart, headerEnd = label, label
		}
		plan.Entries = append(plan.Entries, Entry{
			Title:      sec.Name,
			StartLabel: headerStart,
			EndLabel:   headerEnd,
			PageIndex:  sectionStart,
			Header:     true,
		})

		for _, rd := range docs {
			if len(rd.Pages) == 0 {
				continue
			}
			target := len(plan.Labels)
			var first, last string
			for j := 0; j < len(rd.Pages); j++ {
				label, err := makeLabel(sec, counter, digits, limit)
				if err != nil {
					return nil, err
				}
				counter++
				if j == 0 {
					first = label
				}
				last = label
				plan.Labels = append(plan.Labels, label)
			}
			plan.Blocks = append(plan.Blocks, Block{Doc: rd})
			plan.Entries = append(plan.Entries, Entry{
				Title:      rd.Doc.DisplayTitle(),
				StartLabel: first,
				EndLabel:   last,
				PageIndex:  target,
				Indent:     true,
				Date:       rd.Doc.Date,
			})
		}
	}
	return plan, nil
}

func makeLabel(sec *Section, counter, digits, limit int) (string, error) {
	if counter >= limit {
		return "", fmt.Errorf("section %s: counter %d does not fit %d digits: %w",
			sec.Name, counter, digits, ErrLabelCapacity)
	}
	return fmt.Sprintf("%s%0*d", sec.Prefix, digits, counter), nil
}
