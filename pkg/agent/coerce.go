package agent

import (
	"bytes"
	"encoding/json"
	"strings"
)

// StringList decodes an array, a single string, a newline or semicolon
// delimited string, or null into a list of trimmed non-empty strings.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = StringList{}
		return nil
	}
	switch data[0] {
	case '[':
		var items []flexString
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(StringList, 0, len(items))
		for _, item := range items {
			if s := strings.TrimSpace(string(item)); s != "" {
				out = append(out, s)
			}
		}
		*l = out
		return nil
	default:
		var s flexString
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = splitList(string(s))
		return nil
	}
}

func splitList(s string) StringList {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '\n' || r == ';'
	})
	out := make(StringList, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(f), "-•*"))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// flexString accepts strings, numbers and booleans.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(v))
		return nil
	}
	*s = flexString(data)
	return nil
}

func (s flexString) String() string { return string(s) }

// flexBool accepts true/false, "sim"/"não", "true"/"false", "yes"/"no" and 1/0.
// Anything else, including null, is false.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = flexBool(truthy(v))
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "sim", "s", "yes", "y", "1", "verdadeiro":
			return true
		}
	}
	return false
}

// nullableString maps absent, null, empty and placeholder values to nil.
type nullableString struct {
	Value *string
}

func (n *nullableString) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := strings.TrimSpace(string(s))
	switch strings.ToLower(v) {
	case "", "null", "n/a", "na", "-", "none", "nenhum", "não consta", "nao consta", "não informado", "nao informado":
		n.Value = nil
	default:
		n.Value = &v
	}
	return nil
}
