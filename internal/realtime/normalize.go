package realtime

import (
	"encoding/json"

	"smartmob-dashboard/internal/acquisition"
	"smartmob-dashboard/internal/backend"
	"smartmob-dashboard/internal/logger"
)

type UpdateKind string

const (
	KindSnapshot UpdateKind = "snapshot"
	KindInsert   UpdateKind = "insert"
)

// Update is a push event normalized to a list of records.
type Update struct {
	Kind    UpdateKind
	Records []acquisition.Acquisition
}

// Normalize decodes hub arguments into an Update. Each argument may be an
// array, a single object or a {"data": ...} envelope.
func Normalize(kind UpdateKind, args []json.RawMessage) (Update, error) {
	u := Update{Kind: kind, Records: []acquisition.Acquisition{}}
	for _, arg := range args {
		rows, err := backend.DecodeList[acquisition.Acquisition](arg)
		if err != nil {
			return u, err
		}
		u.Records = append(u.Records, rows...)
	}
	return u, nil
}

// Apply merges u into current and returns the new list. current is not
// modified. A snapshot replaces the list keeping the first occurrence of each
// id. An insert drops any held copy of the same id and prepends the new
// records in payload order, unless the held copy is strictly newer.
func Apply(current []acquisition.Acquisition, u Update, log *logger.Logger) []acquisition.Acquisition {
	for _, a := range u.Records {
		if a.UpdatedBeforeInserted() && log != nil {
			log.Warning("acquisition %d: dT_AGG %s precedes dT_INS %s", a.ID, a.DtAgg.Display(), a.DtIns.Display())
		}
	}

	if u.Kind == KindSnapshot {
		return dedupe(u.Records)
	}

	fresh := make([]acquisition.Acquisition, 0, len(u.Records))
	for _, a := range dedupe(u.Records) {
		if idx := indexOf(current, a.ID); idx >= 0 && current[idx].NewerThan(a) {
			continue
		}
		fresh = append(fresh, a)
	}
	if len(fresh) == 0 {
		return append([]acquisition.Acquisition{}, current...)
	}

	out := make([]acquisition.Acquisition, 0, len(current)+len(fresh))
	out = append(out, fresh...)
	for _, a := range current {
		if indexOf(fresh, a.ID) < 0 {
			out = append(out, a)
		}
	}
	return out
}

func dedupe(rows []acquisition.Acquisition) []acquisition.Acquisition {
	seen := make(map[int]bool, len(rows))
	out := make([]acquisition.Acquisition, 0, len(rows))
	for _, a := range rows {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}
	return out
}

func indexOf(rows []acquisition.Acquisition, id int) int {
	for i := range rows {
		if rows[i].ID == id {
			return i
		}
	}
	return -1
}
