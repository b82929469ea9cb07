package layout

import (
	"reflect"
	"testing"
	"time"

	"github.com/equipviz/rotorline/pkg/scene"
	"github.com/equipviz/rotorline/pkg/timeline"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func outageRec(id string, d time.Time) timeline.Record {
	return timeline.Record{
		EquipmentID: id,
		ShortLabel:  id,
		OutageKind:  timeline.DefaultOutageKind,
		OutageDate:  d,
	}
}

var testSpan = timeline.Span{First: 2025, Last: 2030}

func TestBuildHeaderNodes(t *testing.T) {
	cfg := DefaultConfig()
	s := Build(nil, testSpan, cfg)

	year, ok := s.Node("year_2026")
	if !ok {
		t.Fatal("year_2026 missing")
	}
	if year.X != cfg.LabelWidth+cfg.YearWidth {
		t.Errorf("year_2026 X = %v, want %v", year.X, cfg.LabelWidth+cfg.YearWidth)
	}
	if year.Label != "2026" {
		t.Errorf("year label = %q", year.Label)
	}

	// Four quarter ticks per year, labeled 1-4.
	for q := 1; q <= 4; q++ {
		tick, ok := s.Node("quarter_2026_" + string(rune('0'+q)))
		if !ok {
			t.Fatalf("quarter_2026_%d missing", q)
		}
		wantX := year.X + float64(q-1)*cfg.QuarterWidth
		if tick.X != wantX {
			t.Errorf("quarter %d X = %v, want %v", q, tick.X, wantX)
		}
	}
}

func TestBuildRowGeometry(t *testing.T) {
	cfg := DefaultConfig()
	records := []timeline.Record{
		outageRec("SN-1", date(2025, 2, 10)),
		outageRec("SN-2", date(2026, 8, 10)),
	}
	groups := timeline.GroupRecords(records)
	s := Build(groups, testSpan, cfg)

	label, ok := s.Node("equipment_SN-2")
	if !ok {
		t.Fatal("row label missing")
	}
	if want := cfg.HeaderHeight + cfg.RowHeight; label.Y != want {
		t.Errorf("row 1 top = %v, want %v", label.Y, want)
	}

	// SN-1: February 2025, zero-based month 1, quarter ceil(1/3) = 1.
	m1, ok := s.Node("outage_SN-1_2025")
	if !ok {
		t.Fatal("outage_SN-1_2025 missing")
	}
	wantX := cfg.LabelWidth + 0*cfg.YearWidth + markerIndent + 1*cfg.QuarterWidth
	if m1.X != wantX {
		t.Errorf("SN-1 marker X = %v, want %v", m1.X, wantX)
	}
	wantY := cfg.HeaderHeight + cfg.RowHeight // row 0: no row adjustment
	if m1.Y != wantY {
		t.Errorf("SN-1 marker Y = %v, want %v", m1.Y, wantY)
	}

	// SN-2: August 2026, zero-based month 7, quarter ceil(7/3) = 3, row 1.
	m2, ok := s.Node("outage_SN-2_2026")
	if !ok {
		t.Fatal("outage_SN-2_2026 missing")
	}
	wantX = cfg.LabelWidth + 1*cfg.YearWidth + markerIndent + 3*cfg.QuarterWidth
	if m2.X != wantX {
		t.Errorf("SN-2 marker X = %v, want %v", m2.X, wantX)
	}
	rowTop := cfg.HeaderHeight + 1*cfg.RowHeight
	wantY = rowTop + cfg.RowHeight + (cfg.RowHeight-50)*1
	if m2.Y != wantY {
		t.Errorf("SN-2 marker Y = %v, want %v", m2.Y, wantY)
	}
}

func TestQuarterOf(t *testing.T) {
	// ceil(month/3) over zero-based months.
	want := map[int]int{0: 0, 1: 1, 2: 1, 3: 1, 4: 2, 5: 2, 6: 2, 7: 3, 8: 3, 9: 3, 10: 4, 11: 4}
	for month, q := range want {
		if got := quarterOf(month); got != q {
			t.Errorf("quarterOf(%d) = %d, want %d", month, got, q)
		}
	}
}

func TestBuildEndOfLifeMarker(t *testing.T) {
	cfg := DefaultConfig()
	r := outageRec("SN-1", date(2025, 5, 10)) // May: month 4, quarter 2
	r.EndOfLifeEnd = date(2027, 1, 1)
	groups := timeline.GroupRecords([]timeline.Record{r})
	s := Build(groups, testSpan, cfg)

	eol, ok := s.Node("eol_SN-1_2027")
	if !ok {
		t.Fatal("end-of-life marker missing")
	}
	// x is anchored on the end-of-life year but keeps the outage's quarter
	// slot plus the month adjustment.
	wantX := cfg.LabelWidth + 2*cfg.YearWidth + markerIndent + 2*cfg.QuarterWidth + 4
	if eol.X != wantX {
		t.Errorf("eol X = %v, want %v", eol.X, wantX)
	}
	if eol.Label != endOfLifeTag {
		t.Errorf("eol label = %q", eol.Label)
	}
	outage, _ := s.Node("outage_SN-1_2025")
	if eol.Y != outage.Y+endOfLifeInset {
		t.Errorf("eol Y = %v, want outage Y + %v", eol.Y, endOfLifeInset)
	}
}

func TestBuildSeedMarker(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name      string
		source    string
		extension string
		wantSeed  bool
	}{
		{"no lineage, custom extension", "", "Seed", true},
		{"no lineage, standard extension", "", timeline.StandardExtensionKind, false},
		{"no lineage, no extension", "", "", false},
		{"lineage present", "SN-0", "Seed", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := outageRec("SN-1", date(2025, 1, 10))
			r.SourceEquipmentID = tt.source
			r.LifeExtensionKind = tt.extension
			groups := timeline.GroupRecords([]timeline.Record{r})
			s := Build(groups, testSpan, cfg)

			seed, ok := s.Node("seed_SN-1_2025")
			if ok != tt.wantSeed {
				t.Fatalf("seed present = %v, want %v", ok, tt.wantSeed)
			}
			if tt.wantSeed {
				outage, _ := s.Node("outage_SN-1_2025")
				if seed.X != outage.X-seedOffset {
					t.Errorf("seed X = %v, want %v", seed.X, outage.X-seedOffset)
				}
				if seed.Y != outage.Y {
					t.Errorf("seed Y = %v, want %v", seed.Y, outage.Y)
				}
			}
		})
	}
}

func TestBuildSameYearCollisionLastWins(t *testing.T) {
	cfg := DefaultConfig()
	first := outageRec("SN-1", date(2025, 1, 10))
	second := outageRec("SN-1", date(2025, 10, 10)) // same year: same marker id
	groups := timeline.GroupRecords([]timeline.Record{first, second})
	s := Build(groups, testSpan, cfg)

	var outages int
	for _, n := range s.Nodes {
		if n.Kind == scene.KindOutage {
			outages++
		}
	}
	if outages != 1 {
		t.Fatalf("got %d outage markers, want 1 (last write wins)", outages)
	}
	n, _ := s.Node("outage_SN-1_2025")
	// October: zero-based month 9, quarter 3.
	wantX := cfg.LabelWidth + markerIndent + 3*cfg.QuarterWidth
	if n.X != wantX {
		t.Errorf("surviving marker X = %v, want %v (the later outage)", n.X, wantX)
	}
}

func TestBuildRepeatedCompanionMarkersKeepBoth(t *testing.T) {
	cfg := DefaultConfig()
	first := outageRec("SN-1", date(2025, 1, 10))
	first.EndOfLifeEnd = date(2027, 3, 1)
	first.LifeExtensionKind = "Seed"
	second := outageRec("SN-1", date(2025, 10, 10))
	second.EndOfLifeEnd = date(2027, 6, 1)
	second.LifeExtensionKind = "Seed"
	groups := timeline.GroupRecords([]timeline.Record{first, second})
	s := Build(groups, testSpan, cfg)

	// Outage markers collide per equipment and year, but each record
	// keeps its own end-of-life and seed rectangles.
	var outages, eols, seeds int
	for _, n := range s.Nodes {
		switch n.Kind {
		case scene.KindOutage:
			outages++
		case scene.KindEndOfLife:
			eols++
		case scene.KindSeed:
			seeds++
		}
	}
	if outages != 1 {
		t.Errorf("got %d outage markers, want 1", outages)
	}
	if eols != 2 {
		t.Errorf("got %d end-of-life markers, want 2", eols)
	}
	if seeds != 2 {
		t.Errorf("got %d seed markers, want 2", seeds)
	}
	if _, ok := s.Node("eol_SN-1_2027_2"); !ok {
		t.Error("second end-of-life marker id missing")
	}
	if _, ok := s.Node("seed_SN-1_2025_2"); !ok {
		t.Error("second seed marker id missing")
	}
}

func TestBuildDeterminism(t *testing.T) {
	cfg := DefaultConfig()
	records := []timeline.Record{
		outageRec("SN-1", date(2025, 2, 10)),
		outageRec("SN-2", date(2026, 8, 10)),
		outageRec("SN-1", date(2027, 11, 1)),
	}
	records[1].SourceEquipmentID = "SN-1"

	span := timeline.ResolveSpan(records, date(2025, 6, 1))
	a := Compose(records, span, cfg)
	b := Compose(records, span, cfg)

	if !reflect.DeepEqual(a.Nodes, b.Nodes) {
		t.Error("node geometry differs across identical runs")
	}
	if !reflect.DeepEqual(a.Edges, b.Edges) {
		t.Error("edge geometry differs across identical runs")
	}
}

func TestRowLabelMetric(t *testing.T) {
	r := outageRec("SN-1", date(2025, 1, 1))
	r.ShortLabel = "GT1"
	r.MetricValue = 120000
	groups := timeline.GroupRecords([]timeline.Record{r})
	s := Build(groups, testSpan, DefaultConfig())

	label, _ := s.Node("equipment_SN-1")
	if label.Label != "GT1\n120K" {
		t.Errorf("row label = %q, want GT1\\n120K", label.Label)
	}
}
