package db

type Outcome struct {
	Course     string
	Term       string
	Ok         bool
	Stage      string
	CnKey      string
	Va         string
	HttpStatus int64
	XmlPath    string
	Error      string
}

type ClassDatum struct {
	Term  string
	CnKey string
	Body  string
}
