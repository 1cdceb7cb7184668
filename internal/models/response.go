package models

import "metroroute.org/internal/clock"

// ResponseModel is the envelope shared by every /api/where endpoint.
type ResponseModel struct {
	Code        int         `json:"code"`
	CurrentTime int64       `json:"currentTime"`
	Data        interface{} `json:"data,omitempty"`
	Text        string      `json:"text"`
	Version     int         `json:"version"`
}

type LineReference struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type ReferencesModel struct {
	Lines    []LineReference `json:"lines"`
	Stations []Station       `json:"stations"`
}

type EntryData struct {
	Entry      interface{}     `json:"entry"`
	References ReferencesModel `json:"references"`
}

type ListData struct {
	LimitExceeded bool            `json:"limitExceeded"`
	List          interface{}     `json:"list"`
	References    ReferencesModel `json:"references"`
}

func NewEmptyReferences() ReferencesModel {
	return ReferencesModel{
		Lines:    []LineReference{},
		Stations: []Station{},
	}
}

func ResponseCurrentTime(c clock.Clock) int64 {
	return c.NowUnixMilli()
}

func NewOKResponse(data interface{}, c clock.Clock) ResponseModel {
	return ResponseModel{
		Code:        200,
		CurrentTime: ResponseCurrentTime(c),
		Data:        data,
		Text:        "OK",
		Version:     2,
	}
}

func NewEntryResponse(entry interface{}, references ReferencesModel, c clock.Clock) ResponseModel {
	return NewOKResponse(EntryData{Entry: entry, References: references}, c)
}

func NewListResponse(list interface{}, references ReferencesModel, limitExceeded bool, c clock.Clock) ResponseModel {
	return NewOKResponse(ListData{
		LimitExceeded: limitExceeded,
		List:          list,
		References:    references,
	}, c)
}
