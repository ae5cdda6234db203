// Package catalog は品種リストと色リストを保持します。
// コードは読み込み時にリスト上の位置 (1始まり、重複は最初の出現) で一度だけ決まり、以後変わりません。
package catalog

import (
	"fmt"

	"batchgen/model"

	"github.com/shopspring/decimal"
)

// Catalog は品種・色の名前からコードを引く不変のテーブルです。
type Catalog struct {
	types      []model.ProductType
	colors     []model.Color
	typeIndex  map[string]int
	colorIndex map[string]int
}

// New は順序付きのエントリから Catalog を組み立てます。
// 重複した名前は最初の位置を保ち、空の名前は無視します。
func New(types []TypeEntry, colors []string) *Catalog {
	c := &Catalog{
		typeIndex:  make(map[string]int),
		colorIndex: make(map[string]int),
	}
	for _, t := range types {
		if t.Name == "" {
			continue
		}
		if _, ok := c.typeIndex[t.Name]; ok {
			continue
		}
		price := t.Price
		if price == "" {
			price = "0"
		}
		c.typeIndex[t.Name] = len(c.types)
		c.types = append(c.types, model.ProductType{
			Name:  t.Name,
			Code:  len(c.types) + 1,
			Price: price,
		})
	}
	for _, name := range colors {
		if name == "" {
			continue
		}
		if _, ok := c.colorIndex[name]; ok {
			continue
		}
		c.colorIndex[name] = len(c.colors)
		c.colors = append(c.colors, model.Color{Name: name, Code: len(c.colors) + 1})
	}
	return c
}

// TypeEntry は品種リストの1行です。Price はファイルに書かれたままの文字列です。
type TypeEntry struct {
	Name  string
	Price string
}

// ProductType は名前で品種を引きます。
func (c *Catalog) ProductType(name string) (model.ProductType, bool) {
	i, ok := c.typeIndex[name]
	if !ok {
		return model.ProductType{}, false
	}
	return c.types[i], true
}

// Color は名前で色を引きます。
func (c *Catalog) Color(name string) (model.Color, bool) {
	i, ok := c.colorIndex[name]
	if !ok {
		return model.Color{}, false
	}
	return c.colors[i], true
}

// ProductTypes はコード順の品種一覧のコピーを返します。
func (c *Catalog) ProductTypes() []model.ProductType {
	return append([]model.ProductType(nil), c.types...)
}

// Colors はコード順の色一覧のコピーを返します。
func (c *Catalog) Colors() []model.Color {
	return append([]model.Color(nil), c.colors...)
}

// Validate は採番に使えるリストかどうかを確認します。
func (c *Catalog) Validate() error {
	if len(c.types) == 0 {
		return fmt.Errorf("catalog: product type list is empty")
	}
	if len(c.colors) == 0 {
		return fmt.Errorf("catalog: color list is empty")
	}
	// 色コードは2桁
	if len(c.colors) > 99 {
		return fmt.Errorf("catalog: %d colors do not fit a two digit color code", len(c.colors))
	}
	for _, t := range c.types {
		if _, err := decimal.NewFromString(t.Price); err != nil {
			return fmt.Errorf("catalog: invalid price %q for %s: %w", t.Price, t.Name, err)
		}
	}
	return nil
}
