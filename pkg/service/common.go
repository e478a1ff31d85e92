package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/parley-chat/parley/pkg/event"
)

// DefaultUserID is the implicit account every request acts as.
const DefaultUserID uint = 1

func now() time.Time {
	return time.Now().UTC()
}

// estimateTokens approximates the token count of text at four characters
// per token, rounding up.
func estimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

func emit(e *event.Emitter, ev event.Event) {
	if e != nil {
		e.Emit(ev)
	}
}

// likePattern escapes LIKE wildcards so search terms match literally.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}
