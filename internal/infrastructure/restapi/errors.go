package restapi

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/99minutos/storefront/internal/core/domain"
)

// decodeError turns a non-2xx answer into a domain error. The message is taken
// from "detail", then "error", then the first other field in document order.
// Field-level messages make the result a *domain.ValidationError.
func decodeError(status int, body []byte) error {
	re := &domain.RequestError{Status: status}

	fields, order, ok := parseErrorDocument(body)
	if !ok {
		re.Message = domain.DefaultErrorMessage
		return re
	}

	switch {
	case len(fields["detail"]) > 0:
		re.Message = fields["detail"][0]
	case len(fields["error"]) > 0:
		re.Message = fields["error"][0]
	default:
		for _, k := range order {
			if msgs := fields[k]; len(msgs) > 0 {
				re.Message = msgs[0]
				break
			}
		}
	}
	if re.Message == "" {
		re.Message = domain.DefaultErrorMessage
	}

	delete(fields, "detail")
	delete(fields, "error")
	if len(fields) == 0 {
		return re
	}
	re.Fields = fields
	if status == http.StatusBadRequest {
		return &domain.ValidationError{RequestError: re}
	}
	return re
}

// parseErrorDocument walks the top-level object keeping key order. Values may
// be a string, a list of strings, or a nested object whose first message is
// used.
func parseErrorDocument(body []byte) (map[string][]string, []string, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, false
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, false
	}

	fields := make(map[string][]string)
	var order []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, false
		}
		key, _ := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, false
		}
		if msgs := messagesOf(raw); len(msgs) > 0 {
			fields[key] = msgs
			order = append(order, key)
		}
	}
	return fields, order, true
}

func messagesOf(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var out []string
		for _, item := range list {
			out = append(out, messagesOf(item)...)
		}
		return out
	}
	if nested, order, ok := parseErrorDocument(raw); ok && len(order) > 0 {
		return nested[order[0]]
	}
	return nil
}
