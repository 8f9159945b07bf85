package model

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

type ValueKind int

// Value shapes accepted for loosely-typed fields (answers, table cells,
// expected answers).
const (
	ValueEmpty ValueKind = iota
	ValueText
	ValueNumber
	ValueSelection
	ValueTable
	ValueFunction
)

// Value is a tagged variant for fields whose wire representation is
// dynamically typed: free text, a number, a list of selected option ids,
// table rows, or a function dependency expression. Anything else is rejected
// at decode time.
type Value struct {
	Kind      ValueKind
	Text      string
	Number    float64
	Selection []string
	Table     []TableRow
	Function  *FunctionExpr
}

// FunctionExpr is a computed-cell expression referencing other attributes.
type FunctionExpr struct {
	Type         string   `json:"type"`
	Expression   string   `json:"expression,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

func TextValue(s string) *Value    { return &Value{Kind: ValueText, Text: s} }
func NumberValue(n float64) *Value { return &Value{Kind: ValueNumber, Number: n} }

func SelectionValue(ids ...string) *Value {
	return &Value{Kind: ValueSelection, Selection: ids}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value{Kind: ValueText, Text: s}
		return nil

	case '[':
		var selection []string
		if err := json.Unmarshal(data, &selection); err == nil {
			*v = Value{Kind: ValueSelection, Selection: selection}
			return nil
		}
		var rows []TableRow
		if err := json.Unmarshal(data, &rows); err == nil {
			*v = Value{Kind: ValueTable, Table: rows}
			return nil
		}
		return errors.New("array value must hold option ids or table rows")

	case '{':
		var fn FunctionExpr
		if err := json.Unmarshal(data, &fn); err == nil && fn.Type == "function" {
			*v = Value{Kind: ValueFunction, Function: &fn}
			return nil
		}
		return errors.New("object value must be a function dependency")

	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.New("value must be text, a number, a selection list, table rows or a function dependency")
		}
		*v = Value{Kind: ValueNumber, Number: n}
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueText:
		return json.Marshal(v.Text)
	case ValueNumber:
		return json.Marshal(v.Number)
	case ValueSelection:
		return json.Marshal(v.Selection)
	case ValueTable:
		return json.Marshal(v.Table)
	case ValueFunction:
		return json.Marshal(v.Function)
	default:
		return []byte("null"), nil
	}
}
