package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Asset     Class = "asset"
	Liability Class = "liability"
	CashFlow  Class = "cash-flow"
)

const (
	GoalAsset     GoalType = "asset"
	GoalLiability GoalType = "liability"
	GoalCashFlow  GoalType = "cash-flow"
	GoalNetWorth  GoalType = "net-worth"
)

const (
	KindCreated HistoryKind = "created"
	KindUpdated HistoryKind = "updated"
)

// DateLayout is the calendar-day layout used in storage and JSON.
const DateLayout = "2006-01-02"

// MaxDescriptionLen bounds entry descriptions.
const MaxDescriptionLen = 200

type (
	// Class is the kind of ledger entry.
	Class string

	// GoalType selects what a goal measures.
	GoalType string

	// HistoryKind tags a history record as the entry's first record or a later change.
	HistoryKind string

	Date struct {
		time.Time
	}

	// Entry is a point-in-time asset, liability or cash-flow value.
	Entry struct {
		ID          int64  `json:"id"`
		Date        Date   `json:"date"`
		Class       Class  `json:"class"`
		Subcategory string `json:"subcategory"`
		Description string `json:"description"`
		Value       Money  `json:"value"`
	}

	// HistoryRecord is one immutable value change of an entry.
	HistoryRecord struct {
		ID          int64       `json:"id"`
		EntryID     int64       `json:"entry_id"`
		Kind        HistoryKind `json:"kind"`
		Date        Date        `json:"date"`
		OldValue    Money       `json:"old_value"`
		NewValue    Money       `json:"new_value"`
		Difference  Money       `json:"difference"`
		Description string      `json:"description"`
	}

	// Goal is a target threshold with a progress snapshot taken when it was set.
	Goal struct {
		ID          int64     `json:"id"`
		Type        GoalType  `json:"type"`
		Subcategory string    `json:"subcategory,omitempty"`
		Target      Money     `json:"target_amount"`
		Progress    Money     `json:"progress"`
		CreatedAt   time.Time `json:"created_at"`
	}
)

// Classes lists every entry class in display order.
func Classes() []Class {
	return []Class{Asset, Liability, CashFlow}
}

// IsValid reports whether c is a known class.
func (c Class) IsValid() bool {
	switch c {
	case Asset, Liability, CashFlow:
		return true
	default:
		return false
	}
}

// ParseClass accepts the canonical names plus the plural forms used by older exports.
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asset", "assets":
		return Asset, nil
	case "liability", "liabilities":
		return Liability, nil
	case "cash-flow", "cash flow", "cashflow", "cash_flow":
		return CashFlow, nil
	}
	return "", &ValidationError{Field: "class", Reason: fmt.Sprintf("unknown class %q", s)}
}

// IsValid reports whether t is a known goal type.
func (t GoalType) IsValid() bool {
	switch t {
	case GoalAsset, GoalLiability, GoalCashFlow, GoalNetWorth:
		return true
	default:
		return false
	}
}

// Class returns the entry class a goal type sums over. Net-worth goals have none.
func (t GoalType) Class() (Class, bool) {
	switch t {
	case GoalAsset:
		return Asset, true
	case GoalLiability:
		return Liability, true
	case GoalCashFlow:
		return CashFlow, true
	default:
		return "", false
	}
}

// ParseGoalType accepts the canonical names and a few spellings used in forms.
func ParseGoalType(s string) (GoalType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asset":
		return GoalAsset, nil
	case "liability":
		return GoalLiability, nil
	case "cash-flow", "cash flow", "cashflow", "cash_flow":
		return GoalCashFlow, nil
	case "net-worth", "net worth", "networth", "net_worth":
		return GoalNetWorth, nil
	}
	return "", &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown goal type %q", s)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Reason: fmt.Sprintf("invalid date %q", s)}
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Before reports whether d is an earlier day than o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func validateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLen {
		return &ValidationError{Field: "description", Reason: fmt.Sprintf("too long (max %d characters)", MaxDescriptionLen)}
	}
	return nil
}

// Validate checks the fields an entry must carry regardless of the category registry.
func (e Entry) Validate() error {
	if !e.Class.IsValid() {
		return &ValidationError{Field: "class", Reason: fmt.Sprintf("unknown class %q", e.Class)}
	}
	if strings.TrimSpace(e.Subcategory) == "" {
		return &ValidationError{Field: "subcategory", Reason: "required"}
	}
	if err := e.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Reason: err.Error()}
	}
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	if err := e.Value.Validate(); err != nil {
		return &ValidationError{Field: "value", Reason: err.Error()}
	}
	return nil
}

// ValidateChange checks the mutable fields passed to an update.
func ValidateChange(value Money, description string, date Date) error {
	if err := value.Validate(); err != nil {
		return &ValidationError{Field: "value", Reason: err.Error()}
	}
	if err := validateDescription(description); err != nil {
		return err
	}
	if err := date.Validate(); err != nil {
		return &ValidationError{Field: "date", Reason: err.Error()}
	}
	return nil
}

// NewCreatedRecord builds the first history record of a freshly inserted entry.
func NewCreatedRecord(e Entry) HistoryRecord {
	return HistoryRecord{
		EntryID:     e.ID,
		Kind:        KindCreated,
		Date:        e.Date,
		OldValue:    Money{},
		NewValue:    e.Value,
		Difference:  e.Value,
		Description: e.Description,
	}
}

// NewUpdatedRecord builds the history record for a value change from old to value.
func NewUpdatedRecord(entryID int64, old, value Money, description string, on Date) HistoryRecord {
	return HistoryRecord{
		EntryID:     entryID,
		Kind:        KindUpdated,
		Date:        on,
		OldValue:    old,
		NewValue:    value,
		Difference:  value.Sub(old),
		Description: description,
	}
}
