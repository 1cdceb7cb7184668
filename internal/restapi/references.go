package restapi

import (
	"metroroute.org/internal/models"
	"metroroute.org/internal/network"
	"metroroute.org/internal/transit"
)

// referenceBuilder collects the lines and stations an entry or list points at,
// each once, in first-seen order.
type referenceBuilder struct {
	snap     *transit.Snapshot
	refs     models.ReferencesModel
	lines    map[string]bool
	stations map[string]bool
}

func newReferenceBuilder(snap *transit.Snapshot) *referenceBuilder {
	return &referenceBuilder{
		snap:     snap,
		refs:     models.NewEmptyReferences(),
		lines:    map[string]bool{},
		stations: map[string]bool{},
	}
}

func (b *referenceBuilder) addLineOf(s network.Station) {
	key := s.LineID + "\x00" + s.Line
	if b.lines[key] {
		return
	}
	b.lines[key] = true
	b.refs.Lines = append(b.refs.Lines, models.LineReference{
		Id:    s.LineID,
		Name:  s.Line,
		Color: b.snap.LineColor(s),
	})
}

func (b *referenceBuilder) addStation(s network.Station) {
	if b.stations[s.ID] {
		return
	}
	b.stations[s.ID] = true
	b.refs.Stations = append(b.refs.Stations, models.NewStation(s))
}

func (b *referenceBuilder) build() models.ReferencesModel {
	return b.refs
}
