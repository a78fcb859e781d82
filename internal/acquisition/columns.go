package acquisition

import (
	"strconv"
	"time"

	"smartmob-dashboard/internal/table"
)

// Columns drive search and sort of acquisition tables. Verdicts are searchable
// by their labels (positivo/negativo).
var Columns = []table.Column[Acquisition]{
	{Key: "id", Kind: table.Number,
		Text:   func(a Acquisition) string { return strconv.Itoa(a.ID) },
		Number: func(a Acquisition) (float64, bool) { return float64(a.ID), true }},
	{Key: "coD_LINEA", Kind: table.Text, Text: func(a Acquisition) string { return a.CodLinea }},
	{Key: "coD_POSTAZIONE", Kind: table.Text, Text: func(a Acquisition) string { return a.CodPostazione }},
	{Key: "codicE_ARTICOLO", Kind: table.Text, Text: func(a Acquisition) string { return a.CodiceArticolo }},
	{Key: "codicE_ORDINE", Kind: table.Text, Text: func(a Acquisition) string { return a.CodiceOrdine }},
	{Key: "esitO_CQ_ARTICOLO", Kind: table.Text, Text: Acquisition.ArticleVerdict},
	{Key: "esitO_CQ_BOX", Kind: table.Text, Text: Acquisition.BoxVerdict},
	{Key: "scostamentO_CQ_ARTICOLO", Kind: table.Number,
		Text:   func(a Acquisition) string { return a.ScostamentoCQArticolo.String() },
		Number: func(a Acquisition) (float64, bool) { return a.ScostamentoCQArticolo.Value, a.ScostamentoCQArticolo.Valid }},
	{Key: "confidenzA_CQ_BOX", Kind: table.Number, NoSearch: true,
		Number: func(a Acquisition) (float64, bool) { return a.ConfidenzaCQBox.Value, a.ConfidenzaCQBox.Valid }},
	{Key: "dT_INS", Kind: table.Date, Time: func(a Acquisition) time.Time { return a.DtIns.Time }},
	{Key: "dT_AGG", Kind: table.Date, Time: func(a Acquisition) time.Time { return a.DtAgg.Time }},
}
