package visibility

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formtemplate/pkg/template"
)

// IsVisible evaluates conditions left to right. The first row seeds the
// result; every later row is combined with the running result using its own
// OperatorWithPrev (AND when unset). Both sides are always evaluated. An
// empty list is visible.
func IsVisible(conditions []template.Condition, values map[string]any) bool {
	if len(conditions) == 0 {
		return true
	}
	result := holds(conditions[0], values)
	for _, cond := range conditions[1:] {
		next := holds(cond, values)
		if cond.OperatorWithPrev == template.JoinOr {
			result = result || next
		} else {
			result = result && next
		}
	}
	return result
}

// IsRequired reports whether f must be filled given the current values.
func IsRequired(f template.Field, values map[string]any) bool {
	switch f.RequiredWhen {
	case template.RequiredNever:
		return false
	case template.RequiredWhenVisible:
		return IsVisible(f.Conditions, values)
	default:
		return f.Required
	}
}

// HasValue reports whether v counts as entered: not nil, not the empty
// string and not an empty list.
func HasValue(v any) bool {
	switch typed := v.(type) {
	case nil:
		return false
	case string:
		return typed != ""
	case []any:
		return len(typed) > 0
	case []string:
		return len(typed) > 0
	default:
		return true
	}
}

func holds(cond template.Condition, values map[string]any) bool {
	if cond.ShowWhen == template.ShowAlways {
		return true
	}
	ref := strings.TrimSpace(cond.ReferenceFieldID)
	if ref == "" {
		return false
	}
	value := values[ref]

	switch cond.ShowWhen {
	case template.ShowFieldEquals:
		return matches(value, cond.Value)
	case template.ShowFieldNotEquals:
		return !matches(value, cond.Value)
	case template.ShowFieldHasValue:
		return HasValue(value)
	default:
		return false
	}
}

// matches compares string forms: string values are trimmed and compared
// exactly, non-string numbers and booleans are formatted first. Multi-valued
// inputs match when any member does.
func matches(value any, want string) bool {
	want = strings.TrimSpace(want)
	switch typed := value.(type) {
	case []any:
		for _, item := range typed {
			if rawString(item) == want {
				return true
			}
		}
		return false
	case []string:
		for _, item := range typed {
			if strings.TrimSpace(item) == want {
				return true
			}
		}
		return false
	default:
		return rawString(value) == want
	}
}

func rawString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case json.Number:
		return strings.TrimSpace(v.String())
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}
