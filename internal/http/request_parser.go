package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"stipendi/internal/core"
	"stipendi/internal/ledger"
	"stipendi/internal/navigation"
)

const (
	maxFormBytes   = 64 << 10
	maxImportBytes = 1 << 20
)

var errEmptyBody = errors.New("empty request body")

// Navigation actions accepted by POST /api/navigate.
const (
	ActionSelectMonth = "select_month"
	ActionNextMonth   = "next_month"
	ActionPrevMonth   = "prev_month"
	ActionSetYear     = "set_year"
	ActionNextYear    = "next_year"
	ActionPrevYear    = "prev_year"
)

// requestValues reads a JSON object or an urlencoded form into flat string
// values, so handlers accept both fetch() calls and plain HTML forms.
func requestValues(r *http.Request) (url.Values, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "application/json" {
		r.Body = http.MaxBytesReader(nil, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		return r.Form, nil
	}

	var raw map[string]json.RawMessage
	dec := json.NewDecoder(io.LimitReader(r.Body, maxFormBytes))
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return url.Values{}, nil
		}
		return nil, fmt.Errorf("decode json: %w", err)
	}
	out := url.Values{}
	for k, v := range raw {
		out.Set(k, jsonScalar(v))
	}
	return out, nil
}

// jsonScalar renders a JSON string or number as plain text.
func jsonScalar(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	if bytes.Equal(v, []byte("null")) {
		return ""
	}
	return string(v)
}

// ParseSalaryRequest returns the raw amount typed by the user. A missing
// or blank amount clears the month.
func ParseSalaryRequest(r *http.Request) (ledger.Command, error) {
	values, err := requestValues(r)
	if err != nil {
		return ledger.Command{}, err
	}
	return ledger.SaveAmount(sanitizeInput(values.Get("amount"))), nil
}

// ParseNavigateRequest maps an action and its argument to a ledger command.
func ParseNavigateRequest(r *http.Request) (ledger.Command, error) {
	values, err := requestValues(r)
	if err != nil {
		return ledger.Command{}, err
	}
	action := strings.TrimSpace(values.Get("action"))
	switch action {
	case ActionSelectMonth:
		return ledger.SelectMonth(core.MonthCode(strings.TrimSpace(values.Get("monthId")))), nil
	case ActionNextMonth:
		return ledger.StepMonth(navigation.Forward), nil
	case ActionPrevMonth:
		return ledger.StepMonth(navigation.Back), nil
	case ActionNextYear:
		return ledger.StepYear(navigation.Forward), nil
	case ActionPrevYear:
		return ledger.StepYear(navigation.Back), nil
	case ActionSetYear:
		y, err := strconv.Atoi(strings.TrimSpace(values.Get("year")))
		if err != nil {
			return ledger.Command{}, &core.ValidationError{Field: "year", Value: values.Get("year"), Err: err}
		}
		return ledger.SetYear(y), nil
	default:
		return ledger.Command{}, &core.ValidationError{Field: "action", Value: action, Err: ledger.ErrUnknownCommand}
	}
}

// ParseThemeRequest returns SetTheme when a theme is given, ToggleTheme otherwise.
func ParseThemeRequest(r *http.Request) (ledger.Command, error) {
	values, err := requestValues(r)
	if err != nil {
		return ledger.Command{}, err
	}
	switch t := strings.TrimSpace(values.Get("theme")); t {
	case "":
		return ledger.ToggleTheme(), nil
	case string(core.ThemeLight), string(core.ThemeDark):
		return ledger.SetTheme(core.Theme(t)), nil
	default:
		return ledger.Command{}, &core.ValidationError{Field: "theme", Value: t, Err: errors.New("expected light or dark")}
	}
}

// ReadImportBody returns the backup document from a raw body or from the
// "file" part of a multipart upload.
func ReadImportBody(r *http.Request) ([]byte, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var src io.Reader = r.Body
	if ct == "multipart/form-data" {
		r.Body = http.MaxBytesReader(nil, r.Body, maxImportBytes+maxFormBytes)
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			return nil, fmt.Errorf("parse upload: %w", err)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		defer f.Close()
		src = f
	}
	data, err := io.ReadAll(io.LimitReader(src, maxImportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxImportBytes {
		return nil, fmt.Errorf("backup larger than %d bytes", maxImportBytes)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errEmptyBody
	}
	return data, nil
}

// ParseComparePair reads years a and b from the query, defaulting to the
// year before fallback and fallback itself.
func ParseComparePair(q url.Values, fallback int) (int, int, error) {
	a, b := fallback-1, fallback
	for _, p := range []struct {
		name string
		dst  *int
	}{{"a", &a}, {"b", &b}} {
		v := strings.TrimSpace(q.Get(p.name))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, &core.ValidationError{Field: p.name, Value: v, Err: err}
		}
		*p.dst = n
	}
	return a, b, nil
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
