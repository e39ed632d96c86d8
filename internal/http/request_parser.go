package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// maxPerPage bounds a single listing request. The bulk fetch used by the
// dashboard requests large pages, so this sits above the UI default.
const maxPerPage = 1000

// parsePageParams reads page/per_page query values with clamping.
func parsePageParams(query url.Values) storage.PageParams {
	p := storage.PageParams{}
	if v := strings.TrimSpace(query.Get("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.Page = n
		}
	}
	if v := strings.TrimSpace(query.Get("per_page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.PerPage = n
		}
	}
	return storage.ClampPage(p, maxPerPage)
}

// parseTimeRange reads the range query value, defaulting to monthly.
func parseTimeRange(query url.Values) (core.TimeRange, error) {
	v := strings.TrimSpace(query.Get("range"))
	if v == "" {
		return core.RangeMonthly, nil
	}
	tr := core.TimeRange(v)
	if !tr.Valid() {
		return "", &core.ValidationError{Field: "range", Reason: fmt.Sprintf("unknown range %q", v)}
	}
	return tr, nil
}

// parseTransactionFilter reads optional type/category_id/start_date/end_date filters.
func parseTransactionFilter(query url.Values) (storage.TransactionFilter, error) {
	var f storage.TransactionFilter
	if v := strings.TrimSpace(query.Get("type")); v != "" {
		tt := core.TransactionType(v)
		if !tt.Valid() {
			return f, &core.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown type %q", v)}
		}
		f.Type = tt
	}
	if v := strings.TrimSpace(query.Get("category_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, &core.ValidationError{Field: "category_id", Reason: "must be an integer"}
		}
		f.CategoryID = id
	}
	for _, bound := range []struct {
		param string
		dst   *core.Date
	}{
		{"start_date", &f.From},
		{"end_date", &f.To},
	} {
		if v := strings.TrimSpace(query.Get(bound.param)); v != "" {
			var d core.Date
			if err := d.UnmarshalJSON([]byte(strconv.Quote(v))); err != nil {
				return f, &core.ValidationError{Field: bound.param, Reason: "expected YYYY-MM-DD"}
			}
			*bound.dst = d
		}
	}
	return f, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &core.ValidationError{Reason: "malformed JSON body: " + err.Error()}
	}
	return nil
}
