package acquisition

import (
	"smartmob-dashboard/internal/util"
)

// Acquisition is one captured quality-check event. JSON keys follow the
// backend's casing.
type Acquisition struct {
	ID            int    `json:"id"`
	CodLinea      string `json:"coD_LINEA"`
	CodPostazione string `json:"coD_POSTAZIONE"`

	FotoSuperiore string `json:"fotO_SUPERIORE,omitempty"`
	FotoFrontale  string `json:"fotO_FRONTALE,omitempty"`
	FotoBox       string `json:"fotO_BOX,omitempty"`

	// nil means not evaluated yet, which is not a failure.
	EsitoCQArticolo *bool `json:"esitO_CQ_ARTICOLO"`
	EsitoCQBox      *bool `json:"esitO_CQ_BOX"`

	ConfidenzaCQBox       util.Measure `json:"confidenzA_CQ_BOX"`
	ScostamentoCQArticolo util.Measure `json:"scostamentO_CQ_ARTICOLO"`

	CodiceArticolo string `json:"codicE_ARTICOLO"`
	CodiceOrdine   string `json:"codicE_ORDINE"`

	DtIns util.Timestamp `json:"dT_INS"`
	DtAgg util.Timestamp `json:"dT_AGG"`

	AbilitaCQ bool `json:"abilitA_CQ"`
}

const (
	VerdictPass    = "positivo"
	VerdictFail    = "negativo"
	VerdictPending = "non valutato"
)

func VerdictLabel(v *bool) string {
	switch {
	case v == nil:
		return VerdictPending
	case *v:
		return VerdictPass
	default:
		return VerdictFail
	}
}

func (a Acquisition) ArticleVerdict() string { return VerdictLabel(a.EsitoCQArticolo) }
func (a Acquisition) BoxVerdict() string     { return VerdictLabel(a.EsitoCQBox) }

// UpdatedBeforeInserted flags records whose update time precedes their
// insert time.
func (a Acquisition) UpdatedBeforeInserted() bool {
	return !a.DtIns.IsZero() && !a.DtAgg.IsZero() && a.DtAgg.Before(a.DtIns.Time)
}

// NewerThan reports whether a carries a strictly later update time than b.
func (a Acquisition) NewerThan(b Acquisition) bool {
	return !a.DtAgg.IsZero() && a.DtAgg.After(b.DtAgg.Time)
}

type Slot string

const (
	SlotTop   Slot = "superiore"
	SlotFront Slot = "frontale"
	SlotBox   Slot = "box"
)

var Slots = []Slot{SlotTop, SlotFront, SlotBox}

func ParseSlot(s string) (Slot, bool) {
	switch Slot(s) {
	case SlotTop, SlotFront, SlotBox:
		return Slot(s), true
	}
	return "", false
}

func (a Acquisition) Image(slot Slot) string {
	switch slot {
	case SlotTop:
		return a.FotoSuperiore
	case SlotFront:
		return a.FotoFrontale
	case SlotBox:
		return a.FotoBox
	}
	return ""
}

// Page is one backend page of acquisitions.
type Page struct {
	Items      []Acquisition `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalCount int           `json:"total_count"`
}
