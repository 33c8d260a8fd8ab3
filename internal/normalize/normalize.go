// Package normalize turns the backend's assorted list envelopes into one
// paginated shape and decodes the other boolean-ish and token-ish payloads
// the portal API returns.
package normalize

import (
	"bytes"
	"encoding/json"
	"math"
)

// Shape identifies which envelope a list payload arrived in
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeItems
	ShapeData
	ShapeCareers
	ShapeResults
	ShapeArray
)

func (s Shape) String() string {
	switch s {
	case ShapeItems:
		return "items"
	case ShapeData:
		return "data"
	case ShapeCareers:
		return "careers"
	case ShapeResults:
		return "results"
	case ShapeArray:
		return "array"
	default:
		return "unknown"
	}
}

// envelopeFields is checked in order; the first array field wins
var envelopeFields = []struct {
	name  string
	shape Shape
}{
	{"items", ShapeItems},
	{"data", ShapeData},
	{"careers", ShapeCareers},
	{"results", ShapeResults},
}

// Envelope is the detected form of a list response
type Envelope struct {
	Shape Shape
	// Elements holds the raw list elements, nil for ShapeUnknown
	Elements []json.RawMessage
	// Total and Count are the wrapper's counters when they are numbers
	Total *float64
	Count *float64
}

// Detect classifies raw without decoding the list elements. It never fails:
// anything unrecognised is ShapeUnknown.
func Detect(raw []byte) Envelope {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Envelope{Shape: ShapeUnknown}
	}

	switch raw[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return Envelope{Shape: ShapeUnknown}
		}
		return Envelope{Shape: ShapeArray, Elements: nonNil(elems)}
	case '{':
	default:
		return Envelope{Shape: ShapeUnknown}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Envelope{Shape: ShapeUnknown}
	}

	env := Envelope{
		Shape: ShapeUnknown,
		Total: number(fields["total"]),
		Count: number(fields["count"]),
	}
	for _, f := range envelopeFields {
		if elems, ok := array(fields[f.name]); ok {
			env.Shape = f.shape
			env.Elements = elems
			break
		}
	}
	return env
}

// Normalize converts any list response into a PaginatedResult. Elements that
// do not decode into T are dropped and counted. Total comes from "total",
// then "count", then the number of items.
func Normalize[T any](raw []byte, p PaginationParams) PaginatedResult[T] {
	env := Detect(raw)

	items := make([]T, 0, len(env.Elements))
	dropped := 0
	for _, elem := range env.Elements {
		var item T
		if err := json.Unmarshal(elem, &item); err != nil {
			dropped++
			continue
		}
		items = append(items, item)
	}

	res := Paginate(items, env.resolveTotal(len(items)), p)
	res.Shape = env.Shape
	res.Dropped = dropped
	return res
}

// resolveTotal treats zero and negative counters as absent, so a wrapper
// reporting total 0 next to a non-empty list still reports its length
func (e Envelope) resolveTotal(n int) int {
	if e.Total != nil && *e.Total > 0 {
		return toInt(*e.Total)
	}
	if e.Count != nil && *e.Count > 0 {
		return toInt(*e.Count)
	}
	return n
}

// toInt truncates f, saturating at math.MaxInt
func toInt(f float64) int {
	if f >= float64(math.MaxInt) {
		return math.MaxInt
	}
	return int(f)
}

func array(raw json.RawMessage) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false
	}
	return nonNil(elems), true
}

func number(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return &f
}

func nonNil(elems []json.RawMessage) []json.RawMessage {
	if elems == nil {
		return []json.RawMessage{}
	}
	return elems
}
