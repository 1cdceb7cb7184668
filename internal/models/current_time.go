package models

import "time"

type CurrentTimeModel struct {
	Time         int64  `json:"time"`
	ReadableTime string `json:"readableTime"`
}

func NewCurrentTime(t time.Time) CurrentTimeModel {
	return CurrentTimeModel{
		Time:         t.UnixMilli(),
		ReadableTime: t.Format(time.RFC3339),
	}
}
