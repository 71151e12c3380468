package clarify

import (
	"fmt"
	"strings"

	"github.com/atvirokodosprendimai/saveclarify/internal/core/domain"
)

const (
	mustWord        = "must"
	shouldWord      = "should"
	stringArrayType = " a string or array type "
	textType        = " text "
)

// Suggestion rephrases a validator message from its first "must" onwards.
// It reports false when the message has no "must" clause.
func Suggestion(message string) (string, bool) {
	idx := strings.Index(message, mustWord)
	if idx == -1 {
		return "", false
	}
	s := strings.ReplaceAll(message[idx:], mustWord, shouldWord)
	return strings.ReplaceAll(s, stringArrayType, textType), true
}

// TranslateValidation builds the clarified message for a validation failure.
// Groups and their errors are read in the order given.
func TranslateValidation(groups []domain.EntityValidationGroup, timestamp string) (string, bool) {
	var msgs []string
	for _, group := range groups {
		for _, fe := range group.Errors {
			if strings.TrimSpace(fe.Message) == "" {
				continue
			}
			suggestion, ok := Suggestion(fe.Message)
			if !ok {
				continue
			}

			var value any
			if group.Entry != nil {
				value, _ = group.Entry.CurrentValue(fe.PropertyIdentifier)
			}
			msgs = append(msgs, fmt.Sprintf("The field code '%s' with value '%s' %s",
				NormalizeFieldCode(fe.PropertyIdentifier), domain.FormatValue(value), suggestion))
		}
	}

	if len(msgs) == 0 {
		return "", false
	}
	return fmt.Sprintf("Error code %s.\n%s", timestamp, strings.Join(msgs, " ")), true
}
