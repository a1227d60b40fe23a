package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/simp-lee/smarttenders/internal/domain"
)

// Envelope is the wrapper the remote API puts around every response.
type Envelope struct {
	Status  string                     `json:"status"`
	Code    int                        `json:"code"`
	Message string                     `json:"message"`
	Data    json.RawMessage            `json:"data"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

func (e *Envelope) failed() bool {
	switch strings.ToLower(e.Status) {
	case "error", "fail", "failed", "false":
		return true
	}
	return false
}

func decodeResponse(status int, body []byte, out any) error {
	var env Envelope
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 {
		if err := json.Unmarshal(trimmed, &env); err != nil {
			if status >= http.StatusBadRequest {
				return statusError(status, "", nil)
			}
			return domain.NewAppError(domain.CodeInternal, "decode response envelope", err)
		}
	}

	if status >= http.StatusBadRequest {
		return statusError(status, env.Message, env.Errors)
	}
	if env.failed() {
		code := env.Code
		if code < http.StatusBadRequest {
			code = http.StatusBadRequest
		}
		return statusError(code, env.Message, env.Errors)
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return domain.NewAppError(domain.CodeInternal, "decode response data", err)
	}
	return nil
}

// statusError maps an HTTP status and envelope details to a domain error.
func statusError(status int, message string, fieldErrs map[string]json.RawMessage) *domain.AppError {
	switch {
	case status == http.StatusUnprocessableEntity || (status == http.StatusBadRequest && len(fieldErrs) > 0):
		fields := flattenFieldErrors(fieldErrs)
		msg := joinFieldMessages(fields)
		if msg == "" {
			msg = fallbackMessage(message, "the submitted data is invalid")
		}
		appErr := domain.NewAppError(domain.CodeValidation, msg, nil)
		appErr.Fields = fields
		return appErr
	case status == http.StatusBadRequest:
		return domain.NewAppError(domain.CodeValidation, fallbackMessage(message, "the request was rejected"), nil)
	case status == http.StatusUnauthorized:
		return domain.NewAppError(domain.CodeUnauthorized, fallbackMessage(message, "please log in to continue"), nil)
	case status == http.StatusForbidden:
		return domain.NewAppError(domain.CodeForbidden, fallbackMessage(message, "you do not have access to this resource"), nil)
	case status == http.StatusNotFound:
		return domain.NewAppError(domain.CodeNotFound, fallbackMessage(message, "not found"), nil)
	case status == http.StatusConflict:
		return domain.NewAppError(domain.CodeAlreadyExists, fallbackMessage(message, "already exists"), nil)
	default:
		return domain.NewAppError(domain.CodeInternal, fallbackMessage(message, "the tender service failed"),
			fmt.Errorf("remote status %d", status))
	}
}

// flattenFieldErrors reduces {"field": ["msg", ...]} or {"field": "msg"} to
// one message per field.
func flattenFieldErrors(raw map[string]json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for field, v := range raw {
		var list []string
		if err := json.Unmarshal(v, &list); err == nil {
			msgs := make([]string, 0, len(list))
			for _, m := range list {
				if m = strings.TrimSpace(m); m != "" {
					msgs = append(msgs, m)
				}
			}
			if len(msgs) > 0 {
				out[field] = strings.Join(msgs, " ")
			}
			continue
		}
		var single string
		if err := json.Unmarshal(v, &single); err == nil && strings.TrimSpace(single) != "" {
			out[field] = strings.TrimSpace(single)
		}
	}
	return out
}

// joinFieldMessages renders field messages as one sentence list, ordered by
// field name.
func joinFieldMessages(fields map[string]string) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fields[k])
	}
	return strings.Join(msgs, " ")
}

func fallbackMessage(msg, fallback string) string {
	if m := strings.TrimSpace(msg); m != "" {
		return m
	}
	return fallback
}
