package logging

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

type infoField struct {
	label string
	value string
}

const infoAttrLimit = 8

var infoHighlightKeys = []string{
	FieldAlert,
	FieldEventType,
	FieldErrorKind,
	"error",
	FieldErrorHint,
	FieldImpact,
	"model",
	"temperature",
	"attempts",
	"max_attempts",
	"candidates",
	"perplexity",
	"original_perplexity",
	"modified_perplexity",
	"payload_digits",
	"payload_capacity",
	"elapsed",
}

// selectInfoFields returns formatted info-level fields and a count of hidden entries.
// limit=0 means no limit. includeDebug controls whether debug-only keys are allowed.
func selectInfoFields(attrs []kv, limit int, includeDebug bool) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	if limit < 0 {
		limit = 0
	}
	used := make([]bool, len(attrs))
	formatted := make([]string, len(attrs))
	formattedSet := make([]bool, len(attrs))
	ensureValue := func(idx int) string {
		if !formattedSet[idx] {
			formatted[idx] = formatValueForKeyWithAttrs(attrs[idx].key, attrs[idx].value)
			formattedSet[idx] = true
		}
		return formatted[idx]
	}
	result := make([]infoField, 0, infoAttrLimit)
	hidden := 0

	for _, key := range infoHighlightKeys {
		if limit > 0 && len(result) >= limit {
			break
		}
		for idx, attr := range attrs {
			if used[idx] || attr.key != key {
				continue
			}
			used[idx] = true
			if skipInfoKey(attr.key) {
				break
			}
			if !includeDebug && isDebugOnlyKey(attr.key) {
				hidden++
				break
			}
			val := ensureValue(idx)
			if !includeDebug && shouldHideInfoValue(attr.key, val) {
				hidden++
				break
			}
			result = append(result, infoField{label: displayLabel(attr.key), value: val})
			break
		}
	}

	for idx, attr := range attrs {
		if used[idx] {
			continue
		}
		used[idx] = true
		if skipInfoKey(attr.key) {
			continue
		}
		if !includeDebug && isDebugOnlyKey(attr.key) {
			hidden++
			continue
		}
		val := ensureValue(idx)
		if !includeDebug && shouldHideInfoValue(attr.key, val) {
			hidden++
			continue
		}
		if limit <= 0 || len(result) < limit {
			result = append(result, infoField{label: displayLabel(attr.key), value: val})
		} else if limit > 0 {
			hidden++
		}
	}

	return result, hidden
}

// formatValueForKeyWithAttrs applies formatting based on the key name.
func formatValueForKeyWithAttrs(key string, v slog.Value) string {
	v = v.Resolve()

	if isDurationKey(key) && v.Kind() == slog.KindDuration {
		return formatDurationHuman(v.Duration())
	}
	if isPerplexityKey(key) && v.Kind() == slog.KindFloat64 {
		return strconv.FormatFloat(v.Float64(), 'f', 2, 64)
	}
	if isRatioKey(key) && v.Kind() == slog.KindFloat64 {
		return strconv.FormatFloat(v.Float64()*100, 'f', 1, 64) + "%"
	}

	if v.Kind() == slog.KindBool {
		if v.Bool() {
			return "yes"
		}
		return "no"
	}

	value := formatValue(v)
	if key == "error" {
		value = truncateErrorValue(value)
	}
	return value
}

func isDurationKey(key string) bool {
	return strings.HasSuffix(key, "_duration") ||
		key == "elapsed" ||
		key == "duration" ||
		key == "backoff"
}

func isPerplexityKey(key string) bool {
	return strings.HasSuffix(key, "perplexity")
}

func isRatioKey(key string) bool {
	return strings.HasSuffix(key, "_capacity") || strings.HasSuffix(key, "_ratio")
}

func formatDurationHuman(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

func truncateErrorValue(value string) string {
	value = strings.TrimSpace(value)
	const maxLen = 200
	if len(value) > maxLen {
		value = value[:maxLen] + "…"
	}
	return value
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldStrategy, FieldAttempt, FieldComponent:
		return true
	default:
		return false
	}
}

// isDebugOnlyKey hides correlation and oracle plumbing at info level.
func isDebugOnlyKey(key string) bool {
	if key == "" {
		return true
	}
	switch key {
	case "key", "base_url", "csv", "path":
		return true
	}
	return strings.HasSuffix(key, "_id") || strings.HasSuffix(key, "_path")
}

func shouldHideInfoValue(key, value string) bool {
	switch key {
	case "error", "message":
		return false
	}
	return len(value) > 120
}

func displayLabel(key string) string {
	switch key {
	case FieldAlert:
		return "Alert"
	case FieldEventType:
		return "Event"
	case FieldErrorKind:
		return "Kind"
	case FieldErrorHint:
		return "Hint"
	case "max_attempts":
		return "Max Attempts"
	case "payload_capacity":
		return "Capacity"
	case "payload_digits":
		return "Payload Digits"
	case "original_perplexity":
		return "Original PPL"
	case "modified_perplexity":
		return "Modified PPL"
	case "perplexity":
		return "PPL"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	if key == "" {
		return ""
	}
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-'
	})
	if len(parts) == 0 {
		return strings.ToUpper(key[:1]) + strings.ToLower(key[1:])
	}
	for i, part := range parts {
		parts[i] = capitalizeASCII(part)
	}
	return strings.Join(parts, " ")
}

func capitalizeASCII(value string) string {
	switch len(value) {
	case 0:
		return ""
	case 1:
		return strings.ToUpper(value)
	default:
		lower := strings.ToLower(value)
		return strings.ToUpper(lower[:1]) + lower[1:]
	}
}

// infoSummaryKey scopes repeated-field suppression to one run when a run id
// is attached, otherwise to the component.
func infoSummaryKey(component string, attrs []kv) string {
	if run := attrValue(attrs, FieldRunID); run != "" {
		return "run:" + run
	}
	return component
}

func attrValue(attrs []kv, key string) string {
	for _, kv := range attrs {
		if kv.key == key {
			return attrString(kv.value)
		}
	}
	return ""
}
