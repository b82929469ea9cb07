package timeline

// Group holds all records sharing one equipment id, in insertion order.
// The representative display data (label, metric) comes from the first
// record.
type Group struct {
	ID      string
	Records []Record
}

// Label returns the group's display label, taken from the first record.
func (g Group) Label() string { return g.Records[0].ShortLabel }

// Metric returns the group's gauge value, taken from the first record.
func (g Group) Metric() float64 { return g.Records[0].MetricValue }

// FirstOutage returns the first record in stored order that carries an
// outage date. The tie-break is deliberately first-match, not most-recent.
func (g Group) FirstOutage() (Record, bool) {
	for _, r := range g.Records {
		if r.HasOutage() {
			return r, true
		}
	}
	return Record{}, false
}

// Groups is an ordered partition of records by equipment identity.
type Groups []Group

// GroupRecords partitions records by equipment id, preserving the order in
// which ids were first encountered. That order later becomes row order. No
// sorting, no deduplication beyond the grouping itself.
func GroupRecords(records []Record) Groups {
	index := make(map[string]int, len(records))
	var groups Groups
	for _, r := range records {
		if i, ok := index[r.EquipmentID]; ok {
			groups[i].Records = append(groups[i].Records, r)
			continue
		}
		index[r.EquipmentID] = len(groups)
		groups = append(groups, Group{ID: r.EquipmentID, Records: []Record{r}})
	}
	return groups
}

// ByID returns the group with the given equipment id.
func (gs Groups) ByID(id string) (Group, bool) {
	for _, g := range gs {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}
