package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"stipendi/internal/core"
	"stipendi/internal/navigation"
)

type wireState struct {
	View     *wireCursor     `json:"view"`
	Salaries json.RawMessage `json:"salaries"`
	Theme    string          `json:"theme"`
}

type wireCursor struct {
	Year  flexInt `json:"year"`
	Month string  `json:"monthId"`
}

// flexInt accepts 2026 as well as "2026".
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("year %s is not an integer", b)
	}
	*n = flexInt(v)
	return nil
}

// Encode serializes state as compact JSON with sorted keys.
func Encode(state core.LedgerState) ([]byte, error) {
	if state.Salaries == nil {
		state.Salaries = core.Salaries{}
	}
	if state.Theme == "" {
		state.Theme = core.ThemeLight
	}
	b, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return b, nil
}

// Export is the downloadable backup. Import(Export(s)) equals s.
func Export(state core.LedgerState) ([]byte, error) {
	return Encode(state)
}

// RemoteContent is the pretty-printed form committed to the remote file.
func RemoteContent(state core.LedgerState) ([]byte, error) {
	compact, err := Encode(state)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("indent ledger: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode validates raw as a ledger.
//
// salaries is required. A missing view falls back to fallback; a view out of
// bounds is clamped. Null and empty-string amounts are dropped, as older
// backups stored cleared cells that way. Anything else malformed yields a
// *core.FormatError and no state.
func Decode(raw []byte, b core.Bounds, fallback core.Cursor) (core.LedgerState, error) {
	var w wireState
	if err := json.Unmarshal(raw, &w); err != nil {
		return core.LedgerState{}, &core.FormatError{Reason: "not a JSON object", Err: err}
	}
	if len(w.Salaries) == 0 || bytes.Equal(bytes.TrimSpace(w.Salaries), []byte("null")) {
		return core.LedgerState{}, &core.FormatError{Reason: "salaries field is required", Err: core.ErrMissingSalaries}
	}

	var years map[string]map[string]json.RawMessage
	if err := json.Unmarshal(w.Salaries, &years); err != nil {
		return core.LedgerState{}, &core.FormatError{Reason: "salaries must map years to months", Err: err}
	}

	state := core.LedgerState{Salaries: core.Salaries{}, Theme: core.ParseTheme(w.Theme)}
	for yk, months := range years {
		year, err := strconv.Atoi(strings.TrimSpace(yk))
		if err != nil {
			return core.LedgerState{}, &core.FormatError{Reason: fmt.Sprintf("year key %q", yk), Err: err}
		}
		for mk, rawAmount := range months {
			code := core.MonthCode(mk)
			if !code.Valid() {
				return core.LedgerState{}, &core.FormatError{Reason: fmt.Sprintf("month key %q in %d", mk, year), Err: core.ErrUnknownMonth}
			}
			if isEmptyValue(rawAmount) {
				continue
			}
			var a core.Amount
			if err := json.Unmarshal(rawAmount, &a); err != nil {
				return core.LedgerState{}, &core.FormatError{Reason: fmt.Sprintf("amount %d/%s", year, mk), Err: err}
			}
			state.Put(year, code, a)
		}
	}

	nav := navigation.New(b)
	if w.View == nil {
		state.View = nav.Clamp(fallback)
	} else {
		state.View = nav.Clamp(core.Cursor{Year: int(w.View.Year), Month: core.MonthCode(w.View.Month)})
	}
	return state, nil
}

func isEmptyValue(raw json.RawMessage) bool {
	s := string(bytes.TrimSpace(raw))
	return s == "null" || s == `""` || s == ""
}
