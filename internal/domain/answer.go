package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AnswerKind tags the shape of a submitted answer.
type AnswerKind int

const (
	AnswerChoice AnswerKind = iota
	AnswerBool
	AnswerTextList
)

// AnswerValue is a submitted answer: Choice(string) | Bool(bool) | TextList([]string).
// The zero value is an empty Choice, which is how a missing answer is graded.
type AnswerValue struct {
	kind  AnswerKind
	text  string
	flag  bool
	items []string
}

func Choice(s string) AnswerValue { return AnswerValue{kind: AnswerChoice, text: s} }
func Bool(b bool) AnswerValue     { return AnswerValue{kind: AnswerBool, flag: b} }

func TextList(items []string) AnswerValue {
	cp := make([]string, len(items))
	copy(cp, items)
	return AnswerValue{kind: AnswerTextList, items: cp}
}

func (v AnswerValue) Kind() AnswerKind { return v.kind }

// Text returns the Choice string, or false for other kinds.
func (v AnswerValue) Text() (string, bool) { return v.text, v.kind == AnswerChoice }

// Flag returns the Bool value, or false for other kinds.
func (v AnswerValue) Flag() (bool, bool) { return v.flag, v.kind == AnswerBool }

// Items returns a copy of the TextList entries, or false for other kinds.
func (v AnswerValue) Items() ([]string, bool) {
	if v.kind != AnswerTextList {
		return nil, false
	}
	cp := make([]string, len(v.items))
	copy(cp, v.items)
	return cp, true
}

// String renders the answer as the grader compares it: lists are joined with ", ".
func (v AnswerValue) String() string {
	switch v.kind {
	case AnswerBool:
		return strconv.FormatBool(v.flag)
	case AnswerTextList:
		return strings.Join(v.items, ", ")
	default:
		return v.text
	}
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case AnswerBool:
		return json.Marshal(v.flag)
	case AnswerTextList:
		if v.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.items)
	default:
		return json.Marshal(v.text)
	}
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Choice("")
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Choice(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			var item AnswerValue
			if err := item.UnmarshalJSON(r); err != nil {
				return err
			}
			items = append(items, item.String())
		}
		*v = AnswerValue{kind: AnswerTextList, items: items}
	default:
		// numbers are graded by their literal text
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unsupported answer value %s", data)
		}
		*v = Choice(n.String())
	}
	return nil
}

// CanonicalAnswer is either a single reference string or a set of acceptable
// alternatives (any member matching is correct).
type CanonicalAnswer struct {
	values []string
	set    bool
}

func SingleAnswer(s string) CanonicalAnswer { return CanonicalAnswer{values: []string{s}} }

func AnswerSet(values ...string) CanonicalAnswer {
	cp := make([]string, len(values))
	copy(cp, values)
	return CanonicalAnswer{values: cp, set: true}
}

// IsSet reports whether the answer is a set of alternatives.
func (c CanonicalAnswer) IsSet() bool { return c.set }

// Values returns a copy of the reference strings.
func (c CanonicalAnswer) Values() []string {
	cp := make([]string, len(c.values))
	copy(cp, c.values)
	return cp
}

// IsEmpty reports whether there is no usable reference answer.
func (c CanonicalAnswer) IsEmpty() bool {
	for _, v := range c.values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (c CanonicalAnswer) String() string {
	return strings.Join(c.values, ", ")
}

func (c CanonicalAnswer) MarshalJSON() ([]byte, error) {
	if c.set {
		if c.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(c.values)
	}
	if len(c.values) == 0 {
		return []byte(`""`), nil
	}
	return json.Marshal(c.values[0])
}

func (c *CanonicalAnswer) UnmarshalJSON(data []byte) error {
	var v AnswerValue
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	if items, ok := v.Items(); ok {
		*c = AnswerSet(items...)
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = CanonicalAnswer{}
		return nil
	}
	*c = SingleAnswer(v.String())
	return nil
}
