package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// errorEnvelope is the backend's error body. detail is either a plain string
// or a list of validation records; message is a legacy fallback some
// endpoints still send.
type errorEnvelope struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

// validationRecord is one entry of a validation-error detail list.
type validationRecord struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// extractMessage pulls a human-readable message out of an error response
// body. Malformed JSON yields an empty message; the HTTP status already
// describes the failure and must not be masked by a parse error.
func extractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}

	if len(env.Detail) > 0 && string(env.Detail) != "null" {
		var s string
		if err := json.Unmarshal(env.Detail, &s); err == nil {
			return s
		}
		var records []validationRecord
		if err := json.Unmarshal(env.Detail, &records); err == nil {
			return joinValidation(records)
		}
		return env.Message
	}

	return env.Message
}

// joinValidation renders validation records as "field: message" pairs joined
// by "; ". The field is the last element of the record's location path, which
// names the offending input rather than its position in the request schema.
func joinValidation(records []validationRecord) string {
	parts := make([]string, 0, len(records))
	for _, r := range records {
		field := ""
		if len(r.Loc) > 0 {
			field = fmt.Sprint(r.Loc[len(r.Loc)-1])
		}
		if field == "" {
			parts = append(parts, r.Msg)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", field, r.Msg))
	}
	return strings.Join(parts, "; ")
}
