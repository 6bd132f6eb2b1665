package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"networth/internal/core"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// RequestBodyParser reads a JSON object or form-encoded body once and exposes
// its fields as sanitized strings.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}
	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed := strings.TrimSpace(string(p.body)); strings.HasPrefix(trimmed, "{") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = fmt.Errorf("invalid JSON body: %w", err)
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Has reports whether key was present in the body, even if empty.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseID reads the {id} path value.
func ParseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: "id", Reason: fmt.Sprintf("invalid id %q", raw)}
	}
	return id, nil
}

// ParseClassQuery reads ?class=; an absent parameter means all classes.
func ParseClassQuery(q url.Values) (core.Class, error) {
	raw := strings.TrimSpace(q.Get("class"))
	if raw == "" {
		return "", nil
	}
	return core.ParseClass(raw)
}

// parseDateOr parses s, falling back to today when it is empty.
func parseDateOr(s string, now time.Time) (core.Date, error) {
	if s == "" {
		return core.DateOf(now), nil
	}
	return core.ParseDate(s)
}

func parseAmountField(field, s string) (core.Money, error) {
	m, err := core.ParseAmount(s)
	if err != nil {
		return core.Money{}, &core.ValidationError{Field: field, Reason: err.Error()}
	}
	return m, nil
}

// ParseEntryInput reads the body of POST /api/entries.
func ParseEntryInput(p *RequestBodyParser, now time.Time) (core.Entry, error) {
	class, err := core.ParseClass(p.Get("class"))
	if err != nil {
		return core.Entry{}, err
	}
	date, err := parseDateOr(p.Get("date"), now)
	if err != nil {
		return core.Entry{}, err
	}
	value, err := parseAmountField("value", p.Get("value"))
	if err != nil {
		return core.Entry{}, err
	}
	return core.Entry{
		Date:        date,
		Class:       class,
		Subcategory: p.Get("subcategory"),
		Description: p.Get("description"),
		Value:       value,
	}, nil
}

// EntryChange is the body of PUT /api/entries/{id}.
type EntryChange struct {
	Value       core.Money
	Description string
	Date        core.Date
}

// ParseEntryChange reads a value update. A missing description keeps the
// current one and a missing date means today.
func ParseEntryChange(p *RequestBodyParser, current core.Entry, now time.Time) (EntryChange, error) {
	value, err := parseAmountField("value", p.Get("value"))
	if err != nil {
		return EntryChange{}, err
	}
	date, err := parseDateOr(p.Get("date"), now)
	if err != nil {
		return EntryChange{}, err
	}
	desc := current.Description
	if p.Has("description") {
		desc = p.Get("description")
	}
	return EntryChange{Value: value, Description: desc, Date: date}, nil
}

// GoalInput is the body of POST /api/goals.
type GoalInput struct {
	Type        core.GoalType
	Subcategory string
	Target      core.Money
}

func ParseGoalInput(p *RequestBodyParser) (GoalInput, error) {
	typ, err := core.ParseGoalType(p.Get("type"))
	if err != nil {
		return GoalInput{}, err
	}
	target, err := parseAmountField("target_amount", p.Get("target_amount"))
	if err != nil {
		return GoalInput{}, err
	}
	return GoalInput{Type: typ, Subcategory: p.Get("subcategory"), Target: target}, nil
}
