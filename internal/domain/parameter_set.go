package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParameterSet is the named field map exchanged with the processor. Names are
// unique under case-insensitive comparison; the authored spelling is kept.
// A ParameterSet is not safe for concurrent mutation.
type ParameterSet struct {
	values map[string]string
	folded map[string]string // lower(name) -> authored name
}

// NewParameterSet returns an empty set
func NewParameterSet() *ParameterSet {
	return &ParameterSet{
		values: make(map[string]string),
		folded: make(map[string]string),
	}
}

// NewParameterSetFromMap builds a set from a plain map, failing on names that
// collide once case is ignored.
func NewParameterSetFromMap(fields map[string]string) (*ParameterSet, error) {
	p := NewParameterSet()
	for _, name := range sortedKeys(fields) {
		if err := p.Set(name, fields[name]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// NewParameterSetFromValues builds a set from decoded form or query values.
// A name carrying more than one value is malformed.
func NewParameterSetFromValues(values url.Values) (*ParameterSet, error) {
	p := NewParameterSet()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		vs := values[name]
		if len(vs) > 1 {
			return nil, NewFieldError(ErrorCodeValidationDuplicateField, name, "field submitted more than once")
		}
		value := ""
		if len(vs) == 1 {
			value = vs[0]
		}
		if err := p.Set(name, value); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Set stores value under name. Overwriting the exact same name is allowed;
// a different spelling of an existing name is rejected.
func (p *ParameterSet) Set(name, value string) error {
	if name == "" {
		return NewValidationError(name, "field name must not be empty")
	}
	key := strings.ToLower(name)
	if existing, ok := p.folded[key]; ok && existing != name {
		return NewFieldError(ErrorCodeValidationDuplicateField, name,
			fmt.Sprintf("field conflicts with %q (names are case-insensitive)", existing))
	}
	p.folded[key] = name
	p.values[name] = value
	return nil
}

// SetValue coerces a scalar and stores it
func (p *ParameterSet) SetValue(name string, value any) error {
	s, err := CoerceValue(value)
	if err != nil {
		return NewValidationError(name, err.Error())
	}
	return p.Set(name, s)
}

// Get returns the value stored under the exact name, or "" when absent
func (p *ParameterSet) Get(name string) string {
	if p == nil {
		return ""
	}
	return p.values[name]
}

// Lookup returns the value stored under the exact name
func (p *ParameterSet) Lookup(name string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.values[name]
	return v, ok
}

// First returns the value of the first present name, in argument order
func (p *ParameterSet) First(names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := p.Lookup(name); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Has reports whether the exact name is present
func (p *ParameterSet) Has(name string) bool {
	_, ok := p.Lookup(name)
	return ok
}

// HasFold reports whether any spelling of name is present
func (p *ParameterSet) HasFold(name string) bool {
	if p == nil {
		return false
	}
	_, ok := p.folded[strings.ToLower(name)]
	return ok
}

// Delete removes the exact name
func (p *ParameterSet) Delete(name string) {
	if p == nil {
		return
	}
	if _, ok := p.values[name]; !ok {
		return
	}
	delete(p.values, name)
	delete(p.folded, strings.ToLower(name))
}

// Names returns the field names sorted by their lowercase form
func (p *ParameterSet) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.values))
	for name := range p.values {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		li, lj := strings.ToLower(names[i]), strings.ToLower(names[j])
		if li != lj {
			return li < lj
		}
		return names[i] < names[j]
	})
	return names
}

// Len returns the number of fields
func (p *ParameterSet) Len() int {
	if p == nil {
		return 0
	}
	return len(p.values)
}

// Clone returns an independent copy
func (p *ParameterSet) Clone() *ParameterSet {
	c := NewParameterSet()
	if p == nil {
		return c
	}
	for name, value := range p.values {
		c.values[name] = value
		c.folded[strings.ToLower(name)] = name
	}
	return c
}

// Map returns a copy of the fields as a plain map
func (p *ParameterSet) Map() map[string]string {
	m := make(map[string]string, p.Len())
	if p == nil {
		return m
	}
	for name, value := range p.values {
		m[name] = value
	}
	return m
}

// MarshalJSON encodes the set as a flat object with sorted keys
func (p *ParameterSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range p.Names() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat object of scalars. Numbers keep the textual
// form they were transmitted in. A name repeated in the object is malformed,
// as it is for form-encoded input.
func (p *ParameterSet) UnmarshalJSON(data []byte) error {
	fields, err := decodeObjectFields(data, "parameters")
	if err != nil {
		return err
	}

	decoded := NewParameterSet()
	for _, name := range sortedKeys(fields) {
		dec := json.NewDecoder(bytes.NewReader(fields[name]))
		dec.UseNumber()

		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if err := decoded.SetValue(name, value); err != nil {
			return err
		}
	}
	*p = *decoded
	return nil
}

// decodeObjectFields splits a JSON object into its raw members. Unlike
// decoding into a map it rejects a member name that appears twice.
func decodeObjectFields(data []byte, what string) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, NewValidationError("", what+" must be a JSON object")
	}

	fields := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in object", tok)
		}
		if _, seen := fields[name]; seen {
			return nil, NewFieldError(ErrorCodeValidationDuplicateField, name, "field submitted more than once")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		fields[name] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

// CoerceValue converts a scalar input into the string that is transmitted
// and hashed. Composite values are rejected.
func CoerceValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return formatFloat(float64(v), 32)
	case float64:
		return formatFloat(v, 64)
	case json.Number:
		return v.String(), nil
	case decimal.Decimal:
		return v.String(), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}

func formatFloat(f float64, bitSize int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("value must be a finite number")
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
