package command

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueType tags which field of a Value is set
type ValueType int

const (
	ValueNone ValueType = iota
	ValueFloat
	ValueBool
	ValueText
)

// Value holds exactly one of a float, a bool or a string
type Value struct {
	typ  ValueType
	num  float64
	flag bool
	text string
}

func FloatValue(v float64) Value { return Value{typ: ValueFloat, num: v} }
func BoolValue(v bool) Value     { return Value{typ: ValueBool, flag: v} }
func TextValue(v string) Value   { return Value{typ: ValueText, text: v} }

func (v Value) Type() ValueType { return v.typ }
func (v Value) IsZero() bool    { return v.typ == ValueNone }

func (v Value) AsFloat() (float64, bool) {
	return v.num, v.typ == ValueFloat
}

func (v Value) AsBool() (bool, bool) {
	return v.flag, v.typ == ValueBool
}

func (v Value) AsText() (string, bool) {
	return v.text, v.typ == ValueText
}

// Interface returns the held value as float64, bool, string or nil
func (v Value) Interface() any {
	switch v.typ {
	case ValueFloat:
		return v.num
	case ValueBool:
		return v.flag
	case ValueText:
		return v.text
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.typ {
	case ValueFloat:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.flag)
	case ValueText:
		return v.text
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Value{}
	case float64:
		*v = FloatValue(x)
	case bool:
		*v = BoolValue(x)
	case string:
		*v = TextValue(x)
	default:
		return fmt.Errorf("unsupported parameter value %s", string(data))
	}
	return nil
}
