package layout

import (
	"github.com/equipviz/rotorline/pkg/scene"
	"github.com/equipviz/rotorline/pkg/timeline"
)

// Connect resolves lineage edges into routed connectors on the scene.
//
// Records are walked in their original stored order. A record produces an
// edge when it has a lineage source, a present outage date, and the source
// id resolves to a known group; the source endpoint is the first record in
// the source group with a present outage date (first match in stored order,
// not the most recent). An edge whose endpoint marker ids don't resolve to
// scene nodes is silently dropped, never an error.
func Connect(s *scene.Scene, records []timeline.Record, groups timeline.Groups) {
	for _, r := range records {
		if !r.HasLineage() || !r.HasOutage() {
			continue
		}
		sourceGroup, ok := groups.ByID(r.SourceEquipmentID)
		if !ok {
			continue
		}
		sourceRec, ok := sourceGroup.FirstOutage()
		if !ok {
			continue
		}

		sourceID := OutageMarkerID(sourceRec.EquipmentID, sourceRec.OutageDate.Year())
		targetID := OutageMarkerID(r.EquipmentID, r.OutageDate.Year())

		src, okS := s.Node(sourceID)
		tgt, okT := s.Node(targetID)
		if !okS || !okT {
			continue
		}

		s.AddEdge(scene.Edge{
			ID:       scene.EdgeID(sourceID, targetID),
			SourceID: sourceID,
			TargetID: targetID,
			Path:     scene.Route(*src, *tgt),
		})
	}
}

// Compose runs the full layout pass: grouping, span-aware node placement,
// and connector routing. It is the one-call form used by the pipeline and
// the server; Build and Connect remain available separately.
func Compose(records []timeline.Record, span timeline.Span, cfg Config) *scene.Scene {
	groups := timeline.GroupRecords(records)
	s := Build(groups, span, cfg)
	Connect(s, records, groups)
	return s
}
