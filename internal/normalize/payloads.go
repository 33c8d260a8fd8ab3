package normalize

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// listFields is the lookup order for favorites style payloads
var listFields = []string{"data", "careers", "items", "favorites", "result", "results"}

// maxDepth bounds recursion into nested wrappers
const maxDepth = 4

// ExtractList digs a list of objects out of a payload of unknown shape. It
// accepts a bare array, an array under one of the usual wrapper fields
// (searched recursively through nested objects), a single object carrying an
// id, or an object keyed by id whose values are objects.
func ExtractList(raw []byte) []json.RawMessage {
	return extractList(bytes.TrimSpace(raw), 0)
}

func extractList(raw []byte, depth int) []json.RawMessage {
	if len(raw) == 0 || depth > maxDepth {
		return []json.RawMessage{}
	}
	if elems, ok := array(raw); ok {
		return elems
	}
	if raw[0] != '{' {
		return []json.RawMessage{}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return []json.RawMessage{}
	}

	for _, name := range listFields {
		v := bytes.TrimSpace(fields[name])
		if len(v) == 0 {
			continue
		}
		if elems, ok := array(v); ok {
			return elems
		}
		if v[0] == '{' {
			if deep := extractList(v, depth+1); len(deep) > 0 {
				return deep
			}
		}
	}

	if hasID(fields) {
		return []json.RawMessage{raw}
	}

	keyed := make([]json.RawMessage, 0, len(fields))
	for _, v := range sortedValues(fields) {
		v = bytes.TrimSpace(v)
		if len(v) > 0 && v[0] == '{' {
			keyed = append(keyed, v)
		}
	}
	if len(keyed) > 0 {
		var first map[string]json.RawMessage
		if err := json.Unmarshal(keyed[0], &first); err == nil && hasID(first) {
			return keyed
		}
	}

	return []json.RawMessage{}
}

// DecodeList runs ExtractList and decodes each element into T, skipping
// elements that fail to decode
func DecodeList[T any](raw []byte) []T {
	elems := ExtractList(raw)
	out := make([]T, 0, len(elems))
	for _, elem := range elems {
		var item T
		if err := json.Unmarshal(elem, &item); err != nil {
			continue
		}
		out = append(out, item)
	}
	return out
}

// ParseBool reads the favorite-check style answers: a bare boolean, or an
// object where is_favorite, data or result is true
func ParseBool(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	for _, name := range []string{"is_favorite", "data", "result"} {
		if v, ok := fields[name]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("true")) {
			return true
		}
	}
	return false
}

// ExtractToken finds the bearer token in a login response. The OAuth2
// access_token wins over the wrapped data.token form and the bare token
// fields older builds returned.
func ExtractToken(raw []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}
	var data map[string]json.RawMessage
	_ = json.Unmarshal(fields["data"], &data)

	candidates := []json.RawMessage{
		fields["access_token"],
		data["token"],
		data["access_token"],
		fields["token"],
		fields["auth_token"],
	}
	for _, c := range candidates {
		var t string
		if err := json.Unmarshal(c, &t); err != nil {
			continue
		}
		if t = strings.TrimSpace(t); t != "" {
			return t
		}
	}
	return ""
}

// ExtractUser returns the user object from a /me style response: the data
// field when it is an object, otherwise the response itself provided it has
// both id and username
func ExtractUser(raw []byte) (json.RawMessage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, false
	}
	if data := bytes.TrimSpace(fields["data"]); len(data) > 0 && data[0] == '{' {
		return data, true
	}
	_, hasID := fields["id"]
	_, hasName := fields["username"]
	if hasID && hasName {
		return bytes.TrimSpace(raw), true
	}
	return nil, false
}

func hasID(fields map[string]json.RawMessage) bool {
	v, ok := fields["id"]
	if !ok {
		return false
	}
	v = bytes.TrimSpace(v)
	switch {
	case len(v) == 0, bytes.Equal(v, []byte("null")), bytes.Equal(v, []byte(`""`)),
		bytes.Equal(v, []byte("0")), bytes.Equal(v, []byte("false")):
		return false
	}
	return true
}

// sortedValues orders an id-keyed object by key, numerically when every key
// is a number
func sortedValues(fields map[string]json.RawMessage) []json.RawMessage {
	keys := slices.Collect(maps.Keys(fields))
	numeric := true
	for _, k := range keys {
		if _, err := strconv.Atoi(k); err != nil {
			numeric = false
			break
		}
	}
	slices.SortFunc(keys, func(a, b string) int {
		if numeric {
			x, _ := strconv.Atoi(a)
			y, _ := strconv.Atoi(b)
			return x - y
		}
		return strings.Compare(a, b)
	})

	out := make([]json.RawMessage, 0, len(keys))
	for _, k := range keys {
		out = append(out, fields[k])
	}
	return out
}
