package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// prices go out as numbers, the dashboard does arithmetic on them
	decimal.MarshalJSONWithoutQuotes = true
}

// ItemDetails is the structured form of an inventory item's free-form details.
// Keys other than the known ones are preserved in Extra.
type ItemDetails struct {
	Color    string         `json:"color,omitempty"`
	Material string         `json:"material,omitempty"`
	Shape    string         `json:"shape,omitempty"`
	AddedAt  string         `json:"added_at,omitempty"`
	Extra    map[string]any `json:"-"`
}

var itemDetailKeys = map[string]bool{"color": true, "material": true, "shape": true, "added_at": true}

func (d ItemDetails) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+4)
	for k, v := range d.Extra {
		out[k] = v
	}
	if d.Color != "" {
		out["color"] = d.Color
	}
	if d.Material != "" {
		out["material"] = d.Material
	}
	if d.Shape != "" {
		out["shape"] = d.Shape
	}
	if d.AddedAt != "" {
		out["added_at"] = d.AddedAt
	}
	return json.Marshal(out)
}

func (d *ItemDetails) UnmarshalJSON(b []byte) error {
	raw, err := unwrapJSONString(b)
	if err != nil {
		return err
	}
	*d = ItemDetails{}
	if len(raw) == 0 {
		return nil
	}

	type plain ItemDetails
	var p plain
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(raw, &all); err != nil {
		return err
	}
	for k, v := range all {
		if itemDetailKeys[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = v
	}
	*d = ItemDetails(p)
	return nil
}

// unwrapJSONString returns the JSON document inside b. Older clients send
// objects double-encoded as a string ("{\"color\":\"Gold\"}"); null and ""
// come back empty.
func unwrapJSONString(b []byte) ([]byte, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil, nil
	}
	if b[0] != '"' {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil, nil
	}
	return []byte(s), nil
}

// FlexInt decodes from a JSON number or a numeric string. Form selects post
// ids as strings. Anything unparseable decodes to zero rather than failing
// the whole request.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	s := string(b)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = FlexInt(i)
		return nil
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(fl) && !math.IsInf(fl, 0) {
		*f = FlexInt(int64(fl))
		return nil
	}
	*f = 0
	return nil
}

func (f FlexInt) Int() int { return int(f) }
func (f FlexInt) Uint() uint {
	if f < 0 {
		return 0
	}
	return uint(f)
}

// FlexString keeps a value exactly as sent, whether the client posted it as
// a JSON string or a bare number ("-1.25" and -1.25 both become "-1.25").
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	if b[0] == '{' || b[0] == '[' {
		return fmt.Errorf("models: cannot use %s as a text value", b)
	}
	*f = FlexString(b)
	return nil
}

func (f FlexString) String() string { return string(f) }
