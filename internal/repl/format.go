package repl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/dshills/rewind/internal/history"
)

// FormatText renders v as past=[..] present=".." future=[..].
func FormatText[T any](v history.View[T]) string {
	return fmt.Sprintf("past=%s present=%s future=%s",
		quoteList(v.Past), quote(v.Present), quoteList(v.Future))
}

func quote(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return strconv.Quote(fmt.Sprint(v))
}

func quoteList[T any](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = quote(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FormatJSON renders v as a JSON object.
func FormatJSON[T any](v history.View[T]) (string, error) {
	out := "{}"
	var err error

	set := func(path string, value any) {
		if err != nil {
			return
		}
		out, err = sjson.Set(out, path, value)
	}
	setList := func(path string, values []T) {
		if err != nil {
			return
		}
		if len(values) == 0 {
			out, err = sjson.SetRaw(out, path, "[]")
			return
		}
		set(path, values)
	}

	setList("past", v.Past)
	set("present", v.Present)
	setList("future", v.Future)
	set("canUndo", v.CanUndo)
	set("canRedo", v.CanRedo)
	set("cursor", v.Cursor)

	if err != nil {
		return "", fmt.Errorf("format view: %w", err)
	}
	return out, nil
}
