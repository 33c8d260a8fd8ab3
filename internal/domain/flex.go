package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ID is an identifier the backend sends either as a JSON string or number
type ID string

// UnmarshalJSON accepts "33", 33, 33.0 and null
func (id *ID) UnmarshalJSON(b []byte) error {
	*id = ID(flexString(b))
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Int returns the numeric form of the id, if it has one
func (id ID) Int() (int, bool) {
	n, err := strconv.Atoi(string(id))
	if err != nil {
		return 0, false
	}
	return n, true
}

var jsonNull = []byte("null")

func isNull(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) == 0 || bytes.Equal(b, jsonNull)
}

// flexString renders strings, numbers and bools as plain text
func flexString(b []byte) string {
	if isNull(b) {
		return ""
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
		return n.String()
	}
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		return strconv.FormatBool(v)
	}
	return ""
}

// flexFloat reads numbers and numeric strings
func flexFloat(b []byte) float64 {
	if isNull(b) {
		return 0
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0
}

func flexInt(b []byte) int {
	return int(flexFloat(b))
}

func flexBool(b []byte) bool {
	if isNull(b) {
		return false
	}
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		return v
	}
	switch strings.ToLower(flexString(b)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// flexStrings reads a string array, an array of {name: ...} objects or a
// comma separated string
func flexStrings(b []byte) []string {
	if isNull(b) {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(b, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			var named struct {
				Name string `json:"name"`
			}
			if s := flexString(item); s != "" {
				out = append(out, s)
			} else if err := json.Unmarshal(item, &named); err == nil && named.Name != "" {
				out = append(out, named.Name)
			}
		}
		return out
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return nil
}

// firstOf returns the first present, non-null field among keys
func firstOf(fields map[string]json.RawMessage, keys ...string) (json.RawMessage, string, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok && !isNull(v) {
			return v, k, true
		}
	}
	return nil, "", false
}
