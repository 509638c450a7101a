package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// NullDays is a delta-day result that may be absent ("no data").
type NullDays struct {
	Value int
	Valid bool
}

// Days wraps a present delta-day value.
func Days(v int) NullDays {
	return NullDays{Value: v, Valid: true}
}

// AsFloat converts the value for averaging and reporting.
func (n NullDays) AsFloat() NullFloat {
	if !n.Valid {
		return NullFloat{}
	}
	return Float(float64(n.Value))
}

func (n NullDays) String() string {
	if !n.Valid {
		return "no data"
	}
	return strconv.Itoa(n.Value)
}

// MarshalJSON encodes an absent value as null.
func (n NullDays) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON decodes null as an absent value.
func (n *NullDays) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullDays{}
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// NullFloat is a numeric result that may be absent ("no data").
type NullFloat struct {
	Value float64
	Valid bool
}

// Float wraps a present value.
func Float(v float64) NullFloat {
	return NullFloat{Value: v, Valid: true}
}

func (n NullFloat) String() string {
	if !n.Valid {
		return "no data"
	}
	return fmt.Sprintf("%.2f", n.Value)
}

// MarshalJSON encodes an absent value as null.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON decodes null as an absent value.
func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullFloat{}
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}
