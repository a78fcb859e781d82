package acquisition

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{
	"id", "linea", "postazione", "codice_articolo", "codice_ordine",
	"esito_articolo", "esito_box", "scostamento_articolo", "confidenza_box",
	"abilita_cq", "foto_superiore", "foto_frontale", "foto_box", "dt_ins", "dt_agg",
}

func exportRow(a Acquisition) []string {
	return []string{
		strconv.Itoa(a.ID),
		a.CodLinea,
		a.CodPostazione,
		a.CodiceArticolo,
		a.CodiceOrdine,
		a.ArticleVerdict(),
		a.BoxVerdict(),
		a.ScostamentoCQArticolo.String(),
		a.ConfidenzaCQBox.String(),
		strconv.FormatBool(a.AbilitaCQ),
		a.FotoSuperiore,
		a.FotoFrontale,
		a.FotoBox,
		a.DtIns.Display(),
		a.DtAgg.Display(),
	}
}

// Export renders rows as csv, xlsx or json and returns content type, file
// name and body.
func Export(rows []Acquisition, format string, now time.Time) (contentType, filename string, out []byte, err error) {
	stamp := now.Format("20060102_150405")
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		out, err = buildCSV(rows)
		return "text/csv; charset=utf-8", "acquisizioni_" + stamp + ".csv", out, err
	case "xlsx", "excel":
		out, err = buildXLSX(rows)
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "acquisizioni_" + stamp + ".xlsx", out, err
	case "json":
		out, err = json.MarshalIndent(rows, "", "  ")
		return "application/json", "acquisizioni_" + stamp + ".json", out, err
	default:
		return "", "", nil, fmt.Errorf("unsupported export format %q (use csv, xlsx or json)", format)
	}
}

func buildCSV(rows []Acquisition) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, a := range rows {
		if err := w.Write(exportRow(a)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildXLSX(rows []Acquisition) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E2E8F0"}},
	})
	failStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FDE2E1"}},
	})

	const sheet = "Acquisizioni"
	defaultSheet := f.GetSheetName(0)
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, err
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, err
	}

	header := make([]interface{}, 0, len(exportHeader))
	for _, h := range exportHeader {
		header = append(header, excelize.Cell{Value: h, StyleID: headerStyle})
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, err
	}

	for i, a := range rows {
		failed := (a.EsitoCQArticolo != nil && !*a.EsitoCQArticolo) || (a.EsitoCQBox != nil && !*a.EsitoCQBox)
		values := make([]interface{}, 0, len(exportHeader))
		for j, v := range exportRow(a) {
			switch {
			case j == 0:
				values = append(values, a.ID)
			case failed:
				values = append(values, excelize.Cell{Value: v, StyleID: failStyle})
			default:
				values = append(values, v)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, values); err != nil {
			return nil, err
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}

	if defaultSheet != "" && defaultSheet != sheet {
		f.DeleteSheet(defaultSheet)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
