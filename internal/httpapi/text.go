package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/BrandonDHaskell/doorbot/internal/doorbot/types"
)

// memberLines renders rfid,name,active(1/0),externalId.
func memberLines(ms []types.Member) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, strings.Join([]string{
			m.RFID, m.FullName, flag(m.Active), m.ExternalIDOrEmpty(),
		}, ","))
	}
	return out
}

// entryLines renders name,rfid,entry_time,is_active(1/0),is_found(1/0),location.
func entryLines(es []types.EntryLogEntry) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, strings.Join([]string{
			e.FullName, e.RFID, e.EntryTime, flag(e.IsActiveTag), flag(e.IsFoundTag), e.Location,
		}, ","))
	}
	return out
}

func locationLines(ls []types.Location) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, strconv.FormatInt(l.ID, 10)+","+l.Name)
	}
	return out
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func writeLines(w http.ResponseWriter, status int, lines []string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	for _, l := range lines {
		_, _ = w.Write([]byte(l + "\n"))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "json marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
