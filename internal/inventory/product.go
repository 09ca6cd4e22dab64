package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

const (
	fieldName     = "name"
	fieldQuantity = "quantity"
	fieldCategory = "category"
)

// Product is the record stored under a SKU. Attributes carries any extra
// fields the caller supplied; the manager keeps them but never interprets them.
type Product struct {
	Name       string
	Quantity   int
	Category   string
	Attributes map[string]any
}

// Entry pairs a SKU with its record.
type Entry struct {
	SKU     string  `json:"sku"`
	Product Product `json:"product"`
}

func (p Product) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Attributes)+3)
	for k, v := range p.Attributes {
		out[k] = v
	}
	out[fieldName] = p.Name
	out[fieldQuantity] = p.Quantity
	out[fieldCategory] = p.Category
	return json.Marshal(out)
}

func (p *Product) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("product must be a json object")
	}

	var out Product
	if v, ok := raw[fieldName]; ok {
		if err := json.Unmarshal(v, &out.Name); err != nil {
			return fmt.Errorf("field %q: %w", fieldName, err)
		}
		delete(raw, fieldName)
	}
	if v, ok := raw[fieldQuantity]; ok {
		if err := json.Unmarshal(v, &out.Quantity); err != nil {
			return fmt.Errorf("field %q: %w", fieldQuantity, err)
		}
		delete(raw, fieldQuantity)
	}
	if v, ok := raw[fieldCategory]; ok {
		if err := json.Unmarshal(v, &out.Category); err != nil {
			return fmt.Errorf("field %q: %w", fieldCategory, err)
		}
		delete(raw, fieldCategory)
	}

	if len(raw) > 0 {
		out.Attributes = make(map[string]any, len(raw))
		for k, v := range raw {
			x, err := decodeAttribute(v)
			if err != nil {
				return fmt.Errorf("field %q: %w", k, err)
			}
			out.Attributes[k] = x
		}
	}

	*p = out
	return nil
}

// decodeAttribute keeps numbers as json.Number so integers beyond 2^53 and
// the original literal survive a round trip.
func decodeAttribute(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var x any
	if err := dec.Decode(&x); err != nil {
		return nil, err
	}
	return x, nil
}

// Clone returns a copy of p that shares no mutable state with it.
func (p Product) Clone() Product {
	out := p
	if p.Attributes != nil {
		out.Attributes = make(map[string]any, len(p.Attributes))
		for k, v := range p.Attributes {
			out.Attributes[k] = cloneValue(v)
		}
	}
	return out
}

func cloneValue(v any) any {
	if v == nil {
		return nil
	}
	return deepCopy(reflect.ValueOf(v)).Interface()
}

// deepCopy copies maps, slices, arrays, pointers and exported struct fields
// of any type. Unexported struct fields and funcs/chans are shared.
func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out

	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out

	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out

	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(deepCopy(v.Elem()))
		return out

	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(deepCopy(v.Elem()))
		return out

	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			out.Field(i).Set(deepCopy(v.Field(i)))
		}
		return out

	default:
		return v
	}
}

func (p Product) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	if p.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0, got %d", ErrInvalidArgument, p.Quantity)
	}
	return nil
}
