package catalog

// LineStations is one row of the line/station view. Each station entry may
// itself be a comma-joined list.
type LineStations struct {
	CodLineaProd  string   `json:"coD_LINEA_PROD"`
	CodPostazione []string `json:"coD_POSTAZIONE"`
}

type Tipologia struct {
	ID          int    `json:"id"`
	Descrizione string `json:"descrizione"`
}

// Option is a value/label pair for filter dropdowns.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
