package qualitycheck

import (
	"strconv"
	"strings"
	"time"

	"smartmob-dashboard/internal/table"
	"smartmob-dashboard/internal/util"
)

// Record enables or disables the quality check of one article on a
// line/station pair.
type Record struct {
	ID             int            `json:"id"`
	CodLineaProd   string         `json:"codLineaProd"`
	CodPostazione  string         `json:"codPostazione"`
	CodiceArticolo string         `json:"codiceArticolo"`
	Descrizione    string         `json:"descrizione"`
	AbilitaCQ      bool           `json:"abilitaCQ"`
	DtIns          util.Timestamp `json:"dtIns"`
	DtAgg          util.Timestamp `json:"dtAgg"`
}

func (r Record) values() map[string]string {
	return Input{
		CodLineaProd:   r.CodLineaProd,
		CodPostazione:  r.CodPostazione,
		CodiceArticolo: r.CodiceArticolo,
		Descrizione:    r.Descrizione,
	}.Values()
}

type Input struct {
	CodLineaProd   string `json:"codLineaProd" binding:"notblank,max=50"`
	CodPostazione  string `json:"codPostazione" binding:"notblank,max=50"`
	CodiceArticolo string `json:"codiceArticolo" binding:"notblank,max=18"`
	Descrizione    string `json:"descrizione" binding:"max=100"`
	AbilitaCQ      bool   `json:"abilitaCQ"`
}

func (in Input) Values() map[string]string {
	return map[string]string{
		"codLineaProd":   in.CodLineaProd,
		"codPostazione":  in.CodPostazione,
		"codiceArticolo": in.CodiceArticolo,
		"descrizione":    in.Descrizione,
	}
}

func (in Input) trimmed() Input {
	in.CodLineaProd = strings.TrimSpace(in.CodLineaProd)
	in.CodPostazione = strings.TrimSpace(in.CodPostazione)
	in.CodiceArticolo = strings.TrimSpace(in.CodiceArticolo)
	in.Descrizione = strings.TrimSpace(in.Descrizione)
	return in
}

var Rules = []table.Rule{
	{Field: "codLineaProd", Label: "Linea di produzione", Max: 50, Required: true},
	{Field: "codPostazione", Label: "Postazione", Max: 50, Required: true},
	{Field: "codiceArticolo", Label: "Codice articolo", Max: 18, Required: true},
	{Field: "descrizione", Label: "Descrizione", Max: 100},
}

func enabledLabel(r Record) string {
	if r.AbilitaCQ {
		return "abilitato"
	}
	return "disabilitato"
}

var Columns = []table.Column[Record]{
	{Key: "id", Kind: table.Number,
		Text:   func(r Record) string { return strconv.Itoa(r.ID) },
		Number: func(r Record) (float64, bool) { return float64(r.ID), true }},
	{Key: "codLineaProd", Kind: table.Text, Text: func(r Record) string { return r.CodLineaProd }},
	{Key: "codPostazione", Kind: table.Text, Text: func(r Record) string { return r.CodPostazione }},
	{Key: "codiceArticolo", Kind: table.Text, Text: func(r Record) string { return r.CodiceArticolo }},
	{Key: "descrizione", Kind: table.Text, Text: func(r Record) string { return r.Descrizione }},
	{Key: "abilitaCQ", Kind: table.Text, Text: enabledLabel},
	{Key: "dtIns", Kind: table.Date, Time: func(r Record) time.Time { return r.DtIns.Time }},
	{Key: "dtAgg", Kind: table.Date, Time: func(r Record) time.Time { return r.DtAgg.Time }},
}
