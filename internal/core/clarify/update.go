package clarify

import (
	"regexp"
	"strings"

	"github.com/atvirokodosprendimai/saveclarify/internal/core/domain"
)

// trailingZeros matches a decimal point followed by a run of zeros. The run
// need not be the whole fractional part: "16.05" becomes "165".
var trailingZeros = regexp.MustCompile(`\.0+`)

// StripTrailingZeroSequences deletes every point-and-zeros run in s.
func StripTrailingZeroSequences(s string) string {
	return trailingZeros.ReplaceAllString(s, "")
}

// ChangedField is one property value about to be committed.
type ChangedField struct {
	Identifier string
	Value      string
}

// ChangedFieldSnapshot keeps changed fields in first-insertion order.
type ChangedFieldSnapshot struct {
	fields []ChangedField
	index  map[string]int
}

// Set adds a field or replaces the value of an existing one in place.
func (s *ChangedFieldSnapshot) Set(identifier, value string) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[identifier]; ok {
		s.fields[i].Value = value
		return
	}
	s.index[identifier] = len(s.fields)
	s.fields = append(s.fields, ChangedField{Identifier: identifier, Value: value})
}

func (s *ChangedFieldSnapshot) Fields() []ChangedField {
	out := make([]ChangedField, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *ChangedFieldSnapshot) Len() int { return len(s.fields) }

// BuildChangedFieldSnapshot collects non-null values of added entities and
// of the modified properties of modified entities. Unchanged and deleted
// entities never contribute.
func BuildChangedFieldSnapshot(entries []domain.EntitySnapshot) *ChangedFieldSnapshot {
	snapshot := &ChangedFieldSnapshot{}
	for _, entry := range entries {
		state := entry.State()
		if state != domain.StateAdded && state != domain.StateModified {
			continue
		}
		for _, name := range entry.PropertyNames() {
			if state == domain.StateModified && !entry.IsModified(name) {
				continue
			}
			value, ok := entry.CurrentValue(name)
			if !ok || domain.IsNull(value) {
				continue
			}
			snapshot.Set(name, domain.FormatValue(value))
		}
	}
	return snapshot
}

// TranslateUpdate names the field whose value an argument-invalid cause
// echoes. The first cause, outermost first, with a matching field wins; within
// a cause the earliest changed field wins.
func TranslateUpdate(chain domain.UpdateFailureChain, changed []domain.EntitySnapshot, timestamp string) (string, bool) {
	snapshot := BuildChangedFieldSnapshot(changed)

	for _, cause := range chain {
		if cause.Kind != domain.CauseArgumentInvalid {
			continue
		}
		basic := "Error code " + timestamp + ". " + StripTrailingZeroSequences(cause.Message)

		lowered := strings.ToLower(basic)
		for _, field := range snapshot.fields {
			if strings.Contains(lowered, "'"+strings.ToLower(field.Value)+"'") {
				return "Error code " + timestamp + domain.ErrorCodeSeparator +
					NormalizeFieldCode(field.Identifier) + ". " + cause.Message, true
			}
		}
	}
	return "", false
}
