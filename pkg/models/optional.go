package models

import (
	"bytes"
	"encoding/json"
)

// NullableID distinguishes an absent JSON field from an explicit null in
// partial updates: Set is true whenever the key was present.
type NullableID struct {
	Set   bool
	Value *uint
}

func (n *NullableID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v uint
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n NullableID) MarshalJSON() ([]byte, error) {
	if !n.Set || n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// SetID is a NullableID carrying v.
func SetID(v uint) NullableID {
	return NullableID{Set: true, Value: &v}
}
