package ledger

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/clubexpense/internal/model"
)

// DateLayout is the format of ExpenseDay.Date.
const DateLayout = "2006-01-02"

// MaxAmount caps a single event amount. It keeps totals well inside int64
// and every amount exact through a float64 JSON round trip.
const MaxAmount int64 = 1_000_000_000_000

const (
	defaultMemberName  = "華道花子"
	defaultMemberClass = "2-3"
	defaultAmount      = 1000
)

// now is replaced in tests.
var now = time.Now

// Today returns the local calendar date as YYYY-MM-DD.
func Today() string {
	return now().Format(DateLayout)
}

// NewDefault returns the seed document: one member, one event dated today,
// attendance false.
func NewDefault() model.Document {
	memberID := NewID("member")
	dayID := NewID("date")
	return model.Document{
		Members: []model.Member{
			{ID: memberID, Name: defaultMemberName, ClassName: defaultMemberClass},
		},
		ExpenseDays: []model.ExpenseDay{
			{ID: dayID, Date: Today(), Amount: defaultAmount},
		},
		Attendance: model.Attendance{
			memberID: {dayID: false},
		},
	}
}

// SanitizeJSON decodes data and passes it through Sanitize. Undecodable input
// yields the default document.
func SanitizeJSON(data []byte) model.Document {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return NewDefault()
	}
	return Sanitize(raw)
}

// Sanitize converts a decoded JSON value into a well-formed, normalized
// document. Malformed members and events are dropped; when nothing usable
// remains of either list the default document is returned instead.
func Sanitize(raw any) model.Document {
	obj, ok := raw.(map[string]any)
	if !ok {
		return NewDefault()
	}

	members := sanitizeMembers(obj["members"])
	days := sanitizeDays(obj["expenseDays"])
	if len(members) == 0 || len(days) == 0 {
		return NewDefault()
	}

	return Normalize(model.Document{
		Members:     members,
		ExpenseDays: days,
		Attendance:  sanitizeAttendance(obj["attendance"]),
	})
}

// ValidateImport is the strict entry point for user-supplied files. Where
// Sanitize would silently fall back to defaults it returns an *ImportError.
func ValidateImport(raw any) (model.Document, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return model.Document{}, &ImportError{Kind: KindWrongType, Message: "the file is not a ledger document"}
	}

	for _, field := range []string{"members", "expenseDays"} {
		v, present := obj[field]
		if !present || v == nil {
			return model.Document{}, &ImportError{Kind: KindMissingField, Field: field, Message: "members or expenseDays is missing"}
		}
		if _, ok := v.([]any); !ok {
			return model.Document{}, &ImportError{Kind: KindWrongType, Field: field, Message: "members and expenseDays must be lists"}
		}
	}

	if len(obj["members"].([]any)) == 0 {
		return model.Document{}, &ImportError{Kind: KindEmptyCollection, Field: "members", Message: "the file contains no members"}
	}
	if len(obj["expenseDays"].([]any)) == 0 {
		return model.Document{}, &ImportError{Kind: KindEmptyCollection, Field: "expenseDays", Message: "the file contains no dates"}
	}

	if len(sanitizeMembers(obj["members"])) == 0 {
		return model.Document{}, &ImportError{Kind: KindEmptyCollection, Field: "members", Message: "the file contains no usable members"}
	}
	if len(sanitizeDays(obj["expenseDays"])) == 0 {
		return model.Document{}, &ImportError{Kind: KindEmptyCollection, Field: "expenseDays", Message: "the file contains no usable dates"}
	}

	return Sanitize(obj), nil
}

func sanitizeMembers(v any) []model.Member {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var members []model.Member
	seen := make(map[string]bool, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, idOK := scalarString(m["id"])
		name, nameOK := scalarString(m["name"])
		class, classOK := scalarString(m["className"])
		if !idOK || !nameOK || !classOK || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, model.Member{ID: id, Name: name, ClassName: class})
	}
	return members
}

func sanitizeDays(v any) []model.ExpenseDay {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var days []model.ExpenseDay
	seen := make(map[string]bool, len(list))
	for _, item := range list {
		d, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, idOK := scalarString(d["id"])
		date, dateOK := scalarString(d["date"])
		amount, present := d["amount"]
		if !idOK || !dateOK || !present || seen[id] {
			continue
		}
		seen[id] = true
		days = append(days, model.ExpenseDay{ID: id, Date: date, Amount: coerceAmount(amount)})
	}
	return days
}

func sanitizeAttendance(v any) model.Attendance {
	out := model.Attendance{}
	obj, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for memberID, rowValue := range obj {
		row, ok := rowValue.(map[string]any)
		if !ok {
			continue
		}
		cells := make(map[string]bool, len(row))
		for eventID, cell := range row {
			if b, ok := cell.(bool); ok {
				cells[eventID] = b
			}
		}
		out[memberID] = cells
	}
	return out
}

// scalarString returns the string form of a non-empty scalar JSON value.
// Empty strings, zero, false, null and nested values are not usable.
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, x != ""
	case float64:
		if x == 0 || math.IsNaN(x) {
			return "", false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case json.Number:
		return x.String(), x.String() != "0"
	case bool:
		if !x {
			return "", false
		}
		return "true", true
	default:
		return "", false
	}
}

// coerceAmount turns any JSON value into a non-negative whole amount.
// Invalid or non-finite values become 0, halves round up and anything over
// MaxAmount is capped.
func coerceAmount(v any) int64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if x {
			f = 1
		}
	default:
		return 0
	}
	return clampAmount(f)
}

func clampAmount(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	r := math.Round(f)
	if r >= float64(MaxAmount) {
		return MaxAmount
	}
	return int64(r)
}
