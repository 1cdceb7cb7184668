package models

import "metroroute.org/internal/network"

type Station struct {
	Id       string  `json:"id"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	LineId   string  `json:"lineId"`
	Line     string  `json:"line"`
	Sequence int     `json:"sequence"`
	Transfer bool    `json:"transfer"`
}

func NewStation(s network.Station) Station {
	return Station{
		Id:       s.ID,
		Name:     s.Name,
		Lat:      s.Lat,
		Lon:      s.Lon,
		LineId:   s.LineID,
		Line:     s.Line,
		Sequence: s.Sequence,
		Transfer: s.Transfer,
	}
}

func NewStations(stations []network.Station) []Station {
	out := make([]Station, 0, len(stations))
	for _, s := range stations {
		out = append(out, NewStation(s))
	}
	return out
}

// StationWithDistance is a station found near a query point.
type StationWithDistance struct {
	Station
	Distance float64 `json:"distance"`
}

type Line struct {
	Id         string   `json:"id"`
	Name       string   `json:"name"`
	Color      string   `json:"color"`
	StationIds []string `json:"stationIds"`
}

func NewLine(l network.Line) Line {
	ids := make([]string, 0, len(l.Stations))
	for _, s := range l.Stations {
		ids = append(ids, s.ID)
	}
	return Line{
		Id:         l.ID,
		Name:       l.Name,
		Color:      l.Color,
		StationIds: ids,
	}
}

func NewLineReference(l network.Line) LineReference {
	return LineReference{Id: l.ID, Name: l.Name, Color: l.Color}
}
