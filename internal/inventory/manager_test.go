package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestManager_AddAndGetProduct(t *testing.T) {
	m := NewManager()

	if err := m.AddProduct("SKU1", Product{Name: "Item", Quantity: 10, Category: "General"}); err != nil {
		t.Fatalf("AddProduct: %v", err)
	}

	got, err := m.GetProduct("SKU1")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if got.Name != "Item" || got.Quantity != 10 || got.Category != "General" {
		t.Fatalf("got %+v", got)
	}
}

func TestManager_OverwriteLastWriteWins(t *testing.T) {
	m := NewManager()

	_ = m.AddProduct("SKU1", Product{Name: "Item", Quantity: 10, Category: "General", Attributes: map[string]any{"color": "red"}})
	_ = m.AddProduct("SKU1", Product{Name: "Item", Quantity: 5, Category: "General"})

	got, err := m.GetProduct("SKU1")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if got.Quantity != 5 {
		t.Fatalf("quantity=%d want 5", got.Quantity)
	}
	if got.Attributes != nil {
		t.Fatalf("attributes survived overwrite: %#v", got.Attributes)
	}
	if m.Len() != 1 {
		t.Fatalf("len=%d want 1", m.Len())
	}
}

func TestManager_GetMissingIsNotFound(t *testing.T) {
	m := NewManager()
	_ = m.AddProduct("a", Product{Name: "A"})

	got, err := m.GetProduct("b")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
	if got.Name != "" || got.Attributes != nil {
		t.Fatalf("fabricated record: %+v", got)
	}
}

func TestManager_AddProductRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		sku  string
		p    Product
	}{
		{"empty sku", "", Product{Name: "Item"}},
		{"blank sku", "   ", Product{Name: "Item"}},
		{"missing name", "SKU1", Product{Quantity: 1}},
		{"blank name", "SKU1", Product{Name: "   ", Quantity: 1}},
		{"negative quantity", "SKU1", Product{Name: "Item", Quantity: -1}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := NewManager()
			err := m.AddProduct(c.sku, c.p)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("err=%v want ErrInvalidArgument", err)
			}
			if m.Len() != 0 {
				t.Fatalf("invalid product stored")
			}
		})
	}
}

func TestManager_InvalidAddKeepsPrevious(t *testing.T) {
	m := NewManager()
	_ = m.AddProduct("SKU1", Product{Name: "Item", Quantity: 3})

	if err := m.AddProduct("SKU1", Product{Name: "Item", Quantity: -3}); err == nil {
		t.Fatalf("expected error")
	}

	got, _ := m.GetProduct("SKU1")
	if got.Quantity != 3 {
		t.Fatalf("quantity=%d want 3", got.Quantity)
	}
}

func TestManager_CopySemantics(t *testing.T) {
	m := NewManager()

	in := Product{
		Name: "Item",
		Attributes: map[string]any{
			"dims": map[string]any{"w": 1.0},
			"tags": []any{"a"},
		},
	}
	_ = m.AddProduct("SKU1", in)

	in.Name = "changed"
	in.Attributes["dims"].(map[string]any)["w"] = 99.0

	out, _ := m.GetProduct("SKU1")
	out.Attributes["tags"].([]any)[0] = "z"
	out.Attributes["new"] = true

	got, _ := m.GetProduct("SKU1")
	if got.Name != "Item" {
		t.Fatalf("name=%q", got.Name)
	}
	if w := got.Attributes["dims"].(map[string]any)["w"]; w != 1.0 {
		t.Fatalf("dims.w=%v, caller mutation leaked in", w)
	}
	if tag := got.Attributes["tags"].([]any)[0]; tag != "a" {
		t.Fatalf("tags[0]=%v, returned copy aliased storage", tag)
	}
	if _, ok := got.Attributes["new"]; ok {
		t.Fatalf("returned copy aliased attribute map")
	}
}

func TestManager_CopySemanticsTypedValues(t *testing.T) {
	type dims struct {
		W, H []int
	}

	m := NewManager()

	sizes := map[string]int{"s": 1}
	ids := []int{1, 2}
	box := &dims{W: []int{3}, H: []int{4}}
	_ = m.AddProduct("SKU1", Product{
		Name: "Item",
		Attributes: map[string]any{
			"sizes": sizes,
			"ids":   ids,
			"box":   box,
			"grid":  [][]string{{"a"}},
		},
	})

	sizes["s"] = 99
	box.W[0] = 99

	out, _ := m.GetProduct("SKU1")
	out.Attributes["ids"].([]int)[0] = 42
	out.Attributes["grid"].([][]string)[0][0] = "z"
	out.Attributes["box"].(*dims).H[0] = 42

	got, _ := m.GetProduct("SKU1")
	if s := got.Attributes["sizes"].(map[string]int)["s"]; s != 1 {
		t.Fatalf("sizes[s]=%d want 1", s)
	}
	if id := got.Attributes["ids"].([]int)[0]; id != 1 {
		t.Fatalf("ids[0]=%d want 1", id)
	}
	if g := got.Attributes["grid"].([][]string)[0][0]; g != "a" {
		t.Fatalf("grid[0][0]=%q want a", g)
	}
	b := got.Attributes["box"].(*dims)
	if b == box || b.W[0] != 3 || b.H[0] != 4 {
		t.Fatalf("box=%+v shares state", b)
	}
}

func TestManager_ListSortedBySKU(t *testing.T) {
	m := NewManager()
	for _, sku := range []string{"c", "a", "b"} {
		_ = m.AddProduct(sku, Product{Name: sku})
	}

	got := m.List()
	if len(got) != 3 {
		t.Fatalf("len=%d", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].SKU != want || got[i].Product.Name != want {
			t.Fatalf("list[%d]=%+v want sku %q", i, got[i], want)
		}
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sku := fmt.Sprintf("SKU%d", i%4)
			for j := 0; j < 100; j++ {
				_ = m.AddProduct(sku, Product{Name: "Item", Quantity: j})
				_, _ = m.GetProduct(sku)
				_ = m.List()
			}
		}(i)
	}
	wg.Wait()

	if m.Len() != 4 {
		t.Fatalf("len=%d want 4", m.Len())
	}
}

func TestProduct_JSONKeepsExtraFields(t *testing.T) {
	raw := `{"name":"Item","quantity":10,"category":"General","color":"red","tags":["a","b"]}`

	var p Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Name != "Item" || p.Quantity != 10 || p.Category != "General" {
		t.Fatalf("got %+v", p)
	}
	if p.Attributes["color"] != "red" {
		t.Fatalf("color=%v", p.Attributes["color"])
	}
	if _, ok := p.Attributes["name"]; ok {
		t.Fatalf("known field leaked into attributes")
	}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var flat map[string]any
	if err := json.Unmarshal(b, &flat); err != nil {
		t.Fatalf("unmarshal flat: %v", err)
	}
	if flat["color"] != "red" || flat["quantity"] != float64(10) || flat["name"] != "Item" {
		t.Fatalf("flat=%v", flat)
	}
}

func TestProduct_JSONKeepsLargeIntegers(t *testing.T) {
	raw := `{"name":"Item","quantity":1,"barcode":9007199254740993,"dims":{"w":12345678901234567890}}`

	var p Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"barcode":9007199254740993`, `"w":12345678901234567890`} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("%s lost in %s", want, b)
		}
	}
}

func TestProduct_JSONRejectsBadShapes(t *testing.T) {
	for _, raw := range []string{
		`[1,2]`,
		`{"name":"Item","quantity":"ten"}`,
		`{"name":"Item","quantity":1.5}`,
		`{"name":7}`,
	} {
		var p Product
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			t.Errorf("unmarshal %s: expected error, got %+v", raw, p)
		}
	}
}
