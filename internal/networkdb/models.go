package networkdb

type Line struct {
	Position int64
	ID       string
	Name     string
	Color    string
}

type Station struct {
	ID           string
	Name         string
	Lat          float64
	Lon          float64
	LineID       string
	LineName     string
	LinePosition int64
	LineIndex    int64
	Sequence     int64
	Transfer     int64
	Position     int64
}

type ImportMetadatum struct {
	FileHash   string
	FileSource string
	Format     string
	ImportTime int64
}
