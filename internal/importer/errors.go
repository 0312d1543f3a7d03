package importer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FallbackErrorMessage is shown when an error payload carries nothing usable.
const FallbackErrorMessage = "Import service request failed."

// ExtractErrorMessage normalizes an error response body into one
// human-readable string. The service (and the proxies in front of it) emit
// `detail`, `message` or `error` keys whose value may be a plain string, a
// structured object carrying `msg`/`loc`, or a list of either. Anything
// unparseable degrades to the fallback instead of surfacing raw JSON.
func ExtractErrorMessage(body []byte, fallback string) string {
	if fallback == "" {
		fallback = FallbackErrorMessage
	}
	if len(body) == 0 {
		return fallback
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return fallback
	}

	for _, key := range []string{"detail", "message", "error"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		if msg := normalizeErrorValue(raw); msg != "" {
			return msg
		}
	}
	return fallback
}

func normalizeErrorValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var parts []string
		for _, item := range list {
			if msg := normalizeErrorValue(item); msg != "" {
				parts = append(parts, msg)
			}
		}
		return strings.Join(parts, "; ")
	}

	var obj struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Loc     []any  `json:"loc"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		msg := obj.Msg
		if msg == "" {
			msg = obj.Message
		}
		if msg == "" {
			msg = obj.Detail
		}
		msg = strings.TrimSpace(msg)
		if msg != "" && len(obj.Loc) > 0 {
			return fmt.Sprintf("%s (%s)", msg, joinLoc(obj.Loc))
		}
		return msg
	}
	return ""
}

func joinLoc(loc []any) string {
	parts := make([]string, 0, len(loc))
	for _, item := range loc {
		parts = append(parts, fmt.Sprintf("%v", item))
	}
	return strings.Join(parts, ".")
}
