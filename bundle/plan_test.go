package bundle_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/edocket/bindery/bundle"
	"github.com/edocket/bindery/pdf"
)

// fakeResolved stands in for a parsed source with n pages.
func fakeResolved(doc *bundle.Document, n int) *bundle.ResolvedDocument {
	src := &pdf.Document{}
	pages := make([]int, n)
	for i := 0; i < n; i++ {
		src.AddPage(&pdf.Page{MediaBox: pdf.A4})
		pages[i] = i
	}
	return &bundle.ResolvedDocument{Doc: doc, Source: src, Pages: pages}
}

func TestPlanLabelsTwoSections(t *testing.T) {
	docA := &bundle.Document{ID: "a1", Name: "Claim Form"}
	docB := &bundle.Document{ID: "b1", Name: "Witness Statement"}
	sections := []*bundle.Section{
		{Name: "Statements of Case", Prefix: "A", StartPage: 1, Documents: []bundle.Document{*docA}},
		{Name: "Evidence", Prefix: "B", StartPage: 1, Documents: []bundle.Document{*docB}},
	}
	resolved := []*bundle.ResolvedDocument{fakeResolved(docA, 3), fakeResolved(docB, 2)}

	plan, err := bundle.BuildPlan(sections, resolved, 3)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	wantLabels := []string{"A001", "A002", "A003", "B001", "B002"}
	if len(plan.Labels) != len(wantLabels) {
		t.Fatalf("labels = %v, want %v", plan.Labels, wantLabels)
	}
	for i, want := range wantLabels {
		if plan.Labels[i] != want {
			t.Errorf("label %d = %q, want %q", i, plan.Labels[i], want)
		}
	}
	if plan.PageCount() != 5 {
		t.Errorf("page count = %d, want 5", plan.PageCount())
	}
	if len(plan.Blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(plan.Blocks))
	}

	if len(plan.Entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(plan.Entries))
	}
	header := plan.Entries[0]
	if !header.Header || header.Title != "Statements of Case" || header.PageIndex != 0 {
		t.Errorf("section entry = %+v", header)
	}
	if header.StartLabel != "" || header.EndLabel != "" {
		t.Errorf("section without divider has range %q-%q", header.StartLabel, header.EndLabel)
	}
	row := plan.Entries[1]
	if row.Header || !row.Indent {
		t.Errorf("document entry flags = %+v", row)
	}
	if row.StartLabel != "A001" || row.EndLabel != "A003" || row.PageIndex != 0 {
		t.Errorf("document entry = %+v", row)
	}
	if e := plan.Entries[2]; e.PageIndex != 3 {
		t.Errorf("second section targets page %d, want 3", e.PageIndex)
	}
	if e := plan.Entries[3]; e.StartLabel != "B001" || e.EndLabel != "B002" || e.PageIndex != 3 {
		t.Errorf("second document entry = %+v", e)
	}
}

func TestPlanDividerConsumesLabel(t *testing.T) {
	doc := &bundle.Document{Name: "Exhibit"}
	sections := []*bundle.Section{
		{Name: "Exhibits", Prefix: "C", StartPage: 1, Divider: true, Documents: []bundle.Document{*doc}},
	}
	plan, err := bundle.BuildPlan(sections, []*bundle.ResolvedDocument{fakeResolved(doc, 2)}, 3)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	wantLabels := []string{"C001", "C002", "C003"}
	for i, want := range wantLabels {
		if plan.Labels[i] != want {
			t.Fatalf("labels = %v, want %v", plan.Labels, wantLabels)
		}
	}
	if len(plan.Blocks) != 2 || plan.Blocks[0].Doc != nil || plan.Blocks[0].DividerTitle != "Exhibits" {
		t.Fatalf("blocks = %+v", plan.Blocks)
	}
	if plan.Blocks[0].PageCount() != 1 {
		t.Errorf("divider pages = %d, want 1", plan.Blocks[0].PageCount())
	}

	header := plan.Entries[0]
	if header.StartLabel != "C001" || header.EndLabel != "C001" || header.PageIndex != 0 {
		t.Errorf("header entry = %+v", header)
	}
	row := plan.Entries[1]
	if row.StartLabel != "C002" || row.EndLabel != "C003" || row.PageIndex != 1 {
		t.Errorf("document entry = %+v", row)
	}
}

func TestPlanStartPageSeedsCounter(t *testing.T) {
	doc := &bundle.Document{Name: "Continued"}
	sections := []*bundle.Section{
		{Name: "Part Two", Prefix: "A", StartPage: 5, Documents: []bundle.Document{*doc}},
	}
	plan, err := bundle.BuildPlan(sections, []*bundle.ResolvedDocument{fakeResolved(doc, 2)}, 3)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Labels[0] != "A005" || plan.Labels[1] != "A006" {
		t.Fatalf("labels = %v", plan.Labels)
	}
}

func TestPlanLabelWidth(t *testing.T) {
	doc := &bundle.Document{Name: "Wide"}
	sections := []*bundle.Section{
		{Name: "Wide", Prefix: "B", Documents: []bundle.Document{*doc}},
	}
	plan, err := bundle.BuildPlan(sections, []*bundle.ResolvedDocument{fakeResolved(doc, 1)}, 4)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Labels[0] != "B0001" {
		t.Fatalf("label = %q, want B0001", plan.Labels[0])
	}
}

func TestPlanLabelCapacity(t *testing.T) {
	doc := &bundle.Document{Name: "Overflow"}
	sections := []*bundle.Section{
		{Name: "Authorities", Prefix: "Z", StartPage: 999, Documents: []bundle.Document{*doc}},
	}
	_, err := bundle.BuildPlan(sections, []*bundle.ResolvedDocument{fakeResolved(doc, 2)}, 3)
	if err == nil {
		t.Fatal("expected label capacity error")
	}
	if !errors.Is(err, bundle.ErrLabelCapacity) {
		t.Fatalf("err = %v, want ErrLabelCapacity", err)
	}
	if !strings.Contains(err.Error(), "Authorities") {
		t.Errorf("error does not name the section: %v", err)
	}
}

func TestPlanSkipsEmptySections(t *testing.T) {
	doc := &bundle.Document{Name: "Only"}
	sections := []*bundle.Section{
		{Name: "Empty", Prefix: "A"},
		{Name: "Full", Prefix: "B", Documents: []bundle.Document{*doc}},
	}
	plan, err := bundle.BuildPlan(sections, []*bundle.ResolvedDocument{fakeResolved(doc, 1)}, 3)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.Entries) != 2 || plan.Entries[0].Title != "Full" {
		t.Fatalf("entries = %+v", plan.Entries)
	}
	if len(plan.Labels) != 1 || plan.Labels[0] != "B001" {
		t.Fatalf("labels = %v", plan.Labels)
	}
}

func TestPlanRejectsResolutionMismatch(t *testing.T) {
	sections := []*bundle.Section{
		{Name: "A", Prefix: "A", Documents: []bundle.Document{{Name: "one"}}},
	}
	if _, err := bundle.BuildPlan(sections, nil, 3); err == nil {
		t.Fatal("expected mismatch error")
	}
}
