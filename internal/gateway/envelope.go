package gateway

import (
	"bytes"
	"encoding/json"
)

// Page carries pagination metadata when the backend sends it.
type Page struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// envelopeKeys are the only keys a {success, data, message} wrapper has.
var envelopeKeys = map[string]struct{}{
	"success": {},
	"data":    {},
	"message": {},
	"status":  {},
	"meta":    {},
}

// maxDataDepth bounds how many nested "data" keys are followed.
const maxDataDepth = 3

// DecodeList extracts a list from any of the shapes the backend uses: a bare
// array, {data: [...]}, {data: {data: [...], ...pagination}} or one more
// level of nesting. Anything else is an empty list.
func DecodeList[T any](raw json.RawMessage) ([]T, error) {
	items, _, err := DecodePage[T](raw)
	return items, err
}

// DecodePage is DecodeList plus pagination metadata, if present.
func DecodePage[T any](raw json.RawMessage) ([]T, Page, error) {
	var page Page
	raw = bytes.TrimSpace(raw)
	if err := CheckSuccess(raw); err != nil {
		return nil, page, err
	}

	cur := raw
	for depth := 0; depth <= maxDataDepth; depth++ {
		switch firstByte(cur) {
		case '[':
			var items []T
			if err := json.Unmarshal(cur, &items); err != nil {
				return nil, page, &RequestError{Message: "the server returned an unreadable list"}
			}
			if items == nil {
				items = []T{}
			}
			return items, page, nil
		case '{':
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(cur, &obj); err != nil {
				return nil, page, &RequestError{Message: "the server returned an unreadable list"}
			}
			mergePage(&page, cur, obj)
			next, ok := obj["data"]
			if !ok {
				return []T{}, page, nil
			}
			cur = bytes.TrimSpace(next)
		default:
			return []T{}, page, nil
		}
	}
	return []T{}, page, nil
}

// DecodeItem extracts a single object from either a bare object or a
// {success, data, message} envelope. An empty body is an error; writes that
// may legitimately answer 201/204 with no body use DecodeWritten.
func DecodeItem[T any](raw json.RawMessage) (T, error) {
	var zero T
	raw = bytes.TrimSpace(raw)
	if err := CheckSuccess(raw); err != nil {
		return zero, err
	}
	if len(raw) == 0 {
		return zero, &RequestError{Message: "the server returned an empty response"}
	}

	target := raw
	if firstByte(raw) == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err == nil && isEnvelope(obj) {
			target = obj["data"]
		}
	}
	var out T
	if err := json.Unmarshal(target, &out); err != nil {
		return zero, &RequestError{Message: "the server returned an unreadable response"}
	}
	return out, nil
}

// DecodeWritten decodes the echo of a create or update. An empty 2xx body
// means the write was accepted without a representation and yields the zero
// value.
func DecodeWritten[T any](raw json.RawMessage) (T, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		var zero T
		return zero, nil
	}
	return DecodeItem[T](raw)
}

// Message returns the envelope's message field, if any.
func Message(raw json.RawMessage) string {
	var env struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	return env.Message
}

// CheckSuccess turns a 2xx {success:false, message} into a RequestError.
// Any other body, including an empty one, passes.
func CheckSuccess(raw json.RawMessage) error {
	raw = bytes.TrimSpace(raw)
	if firstByte(raw) != '{' {
		return nil
	}
	var env struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil
	}
	if env.Success != nil && !*env.Success {
		return &RequestError{Message: env.Message}
	}
	return nil
}

func isEnvelope(obj map[string]json.RawMessage) bool {
	if _, ok := obj["data"]; !ok {
		return false
	}
	for k := range obj {
		if _, ok := envelopeKeys[k]; !ok {
			return false
		}
	}
	return true
}

func mergePage(page *Page, raw []byte, obj map[string]json.RawMessage) {
	if _, ok := obj["current_page"]; ok {
		_ = json.Unmarshal(raw, page)
		return
	}
	if meta, ok := obj["meta"]; ok {
		_ = json.Unmarshal(meta, page)
	}
}

func firstByte(b []byte) byte {
	if len(b) == 0 {
		return 0
	}
	return b[0]
}
