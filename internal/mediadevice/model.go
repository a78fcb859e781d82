package mediadevice

import (
	"strconv"
	"strings"
	"time"

	"smartmob-dashboard/internal/table"
	"smartmob-dashboard/internal/util"
)

// Record is a capture device of a station and where its files are moved.
type Record struct {
	ID                          int            `json:"id"`
	CodLineaProd                string         `json:"codLineaProd"`
	CodPostazione               string         `json:"codPostazione"`
	SerialeDispositivo          string         `json:"serialeDispositivo"`
	PathStorageDispositivo      string         `json:"pathStorageDispositivo"`
	PathDestinazioneSpostamento string         `json:"pathDestinazioneSpostamento"`
	DtIns                       util.Timestamp `json:"dtIns"`
	DtAgg                       util.Timestamp `json:"dtAgg"`
}

func (r Record) values() map[string]string {
	return Input{
		CodLineaProd:                r.CodLineaProd,
		CodPostazione:               r.CodPostazione,
		SerialeDispositivo:          r.SerialeDispositivo,
		PathStorageDispositivo:      r.PathStorageDispositivo,
		PathDestinazioneSpostamento: r.PathDestinazioneSpostamento,
	}.Values()
}

type Input struct {
	CodLineaProd                string `json:"codLineaProd" binding:"notblank,max=50"`
	CodPostazione               string `json:"codPostazione" binding:"notblank,max=50"`
	SerialeDispositivo          string `json:"serialeDispositivo" binding:"notblank,max=100"`
	PathStorageDispositivo      string `json:"pathStorageDispositivo" binding:"notblank,max=500"`
	PathDestinazioneSpostamento string `json:"pathDestinazioneSpostamento" binding:"notblank,max=500"`
}

func (in Input) Values() map[string]string {
	return map[string]string{
		"codLineaProd":                in.CodLineaProd,
		"codPostazione":               in.CodPostazione,
		"serialeDispositivo":          in.SerialeDispositivo,
		"pathStorageDispositivo":      in.PathStorageDispositivo,
		"pathDestinazioneSpostamento": in.PathDestinazioneSpostamento,
	}
}

func (in Input) trimmed() Input {
	return Input{
		CodLineaProd:                strings.TrimSpace(in.CodLineaProd),
		CodPostazione:               strings.TrimSpace(in.CodPostazione),
		SerialeDispositivo:          strings.TrimSpace(in.SerialeDispositivo),
		PathStorageDispositivo:      strings.TrimSpace(in.PathStorageDispositivo),
		PathDestinazioneSpostamento: strings.TrimSpace(in.PathDestinazioneSpostamento),
	}
}

var Rules = []table.Rule{
	{Field: "codLineaProd", Label: "Linea di produzione", Max: 50, Required: true},
	{Field: "codPostazione", Label: "Postazione", Max: 50, Required: true},
	{Field: "serialeDispositivo", Label: "Seriale dispositivo", Max: 100, Required: true},
	{Field: "pathStorageDispositivo", Label: "Path storage dispositivo", Max: 500, Required: true},
	{Field: "pathDestinazioneSpostamento", Label: "Path destinazione spostamento", Max: 500, Required: true},
}

var Columns = []table.Column[Record]{
	{Key: "id", Kind: table.Number,
		Text:   func(r Record) string { return strconv.Itoa(r.ID) },
		Number: func(r Record) (float64, bool) { return float64(r.ID), true }},
	{Key: "codLineaProd", Kind: table.Text, Text: func(r Record) string { return r.CodLineaProd }},
	{Key: "codPostazione", Kind: table.Text, Text: func(r Record) string { return r.CodPostazione }},
	{Key: "serialeDispositivo", Kind: table.Text, Text: func(r Record) string { return r.SerialeDispositivo }},
	{Key: "pathStorageDispositivo", Kind: table.Text, Text: func(r Record) string { return r.PathStorageDispositivo }},
	{Key: "pathDestinazioneSpostamento", Kind: table.Text, Text: func(r Record) string { return r.PathDestinazioneSpostamento }},
	{Key: "dtIns", Kind: table.Date, Time: func(r Record) time.Time { return r.DtIns.Time }},
	{Key: "dtAgg", Kind: table.Date, Time: func(r Record) time.Time { return r.DtAgg.Time }},
}
