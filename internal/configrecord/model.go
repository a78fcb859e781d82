package configrecord

import (
	"strconv"
	"strings"
	"time"

	"smartmob-dashboard/internal/table"
	"smartmob-dashboard/internal/util"
)

type Record struct {
	ID            int            `json:"id"`
	Descrizione   string         `json:"descrizione"`
	Valore        string         `json:"valore"`
	CodLineaProd  string         `json:"codLineaProd"`
	CodPostazione string         `json:"codPostazione"`
	Tipologia     util.Code      `json:"tipologia"`
	DtIns         util.Timestamp `json:"dtIns"`
	DtAgg         util.Timestamp `json:"dtAgg"`
}

func (r Record) values() map[string]string {
	return map[string]string{
		"descrizione":   r.Descrizione,
		"valore":        r.Valore,
		"codLineaProd":  r.CodLineaProd,
		"codPostazione": r.CodPostazione,
		"tipologia":     string(r.Tipologia),
	}
}

// Input is the body of create and full update.
type Input struct {
	Descrizione   string    `json:"descrizione" binding:"notblank,max=100"`
	Valore        string    `json:"valore" binding:"notblank,max=500"`
	CodLineaProd  string    `json:"codLineaProd" binding:"max=50"`
	CodPostazione string    `json:"codPostazione" binding:"max=50"`
	Tipologia     util.Code `json:"tipologia" binding:"notblank"`
}

func (in Input) Values() map[string]string {
	return map[string]string{
		"descrizione":   in.Descrizione,
		"valore":        in.Valore,
		"codLineaProd":  in.CodLineaProd,
		"codPostazione": in.CodPostazione,
		"tipologia":     string(in.Tipologia),
	}
}

func (in Input) trimmed() Input {
	return Input{
		Descrizione:   strings.TrimSpace(in.Descrizione),
		Valore:        strings.TrimSpace(in.Valore),
		CodLineaProd:  strings.TrimSpace(in.CodLineaProd),
		CodPostazione: strings.TrimSpace(in.CodPostazione),
		Tipologia:     util.Code(strings.TrimSpace(string(in.Tipologia))),
	}
}

// ValueInput is the body of the quick "valore only" edit.
type ValueInput struct {
	Valore string `json:"valore" binding:"notblank,max=500"`
}

func (in ValueInput) Values() map[string]string {
	return map[string]string{"valore": in.Valore}
}

var Rules = []table.Rule{
	{Field: "descrizione", Label: "Descrizione", Max: 100, Required: true},
	{Field: "valore", Label: "Valore", Max: 500, Required: true},
	{Field: "codLineaProd", Label: "Linea di produzione", Max: 50},
	{Field: "codPostazione", Label: "Postazione", Max: 50},
	{Field: "tipologia", Label: "Tipologia", Required: true},
}

var valueRules = []table.Rule{Rules[1]}

var Columns = []table.Column[Record]{
	{Key: "id", Kind: table.Number,
		Text:   func(r Record) string { return strconv.Itoa(r.ID) },
		Number: func(r Record) (float64, bool) { return float64(r.ID), true }},
	{Key: "descrizione", Kind: table.Text, Text: func(r Record) string { return r.Descrizione }},
	{Key: "valore", Kind: table.Text, Text: func(r Record) string { return r.Valore }},
	{Key: "codLineaProd", Kind: table.Text, Text: func(r Record) string { return r.CodLineaProd }},
	{Key: "codPostazione", Kind: table.Text, Text: func(r Record) string { return r.CodPostazione }},
	{Key: "tipologia", Kind: table.Text, Text: func(r Record) string { return string(r.Tipologia) }},
	{Key: "dtIns", Kind: table.Date, Time: func(r Record) time.Time { return r.DtIns.Time }},
	{Key: "dtAgg", Kind: table.Date, Time: func(r Record) time.Time { return r.DtAgg.Time }},
}
