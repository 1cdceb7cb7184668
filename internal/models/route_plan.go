package models

// RoutePlan is the answer to plan-route.json. Distances are in kilometres.
type RoutePlan struct {
	FromStationId string          `json:"fromStationId"`
	ToStationId   string          `json:"toStationId"`
	Found         bool            `json:"found"`
	TotalDistance float64         `json:"totalDistance"`
	TransferCount int             `json:"transferCount"`
	StationIds    []string        `json:"stationIds"`
	Segments      []RouteSegment  `json:"segments"`
	Itinerary     []ItineraryStep `json:"itinerary"`
}

type RouteSegment struct {
	Index      int      `json:"index"`
	LineId     string   `json:"lineId"`
	Line       string   `json:"line"`
	Color      string   `json:"color"`
	Distance   float64  `json:"distance"`
	StationIds []string `json:"stationIds"`
	// Polyline is the segment geometry in Google encoded polyline format.
	Polyline string `json:"polyline"`
}

type ItineraryStep struct {
	Index        int    `json:"index"`
	Line         string `json:"line"`
	From         string `json:"from"`
	To           string `json:"to"`
	StationCount int    `json:"stationCount"`
}
