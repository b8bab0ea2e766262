package catalog

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// fileTables mirrors the JSON layout of a catalog file.
type fileTables struct {
	Product    Product     `json:"product"`
	Coupons    []Coupon    `json:"coupons"`
	Affiliates []Affiliate `json:"affiliates"`
}

// Load reads a JSON catalog file. An empty path yields the built-in tables.
func Load(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return nil, fmt.Errorf("load catalog file: %w", err)
	}
	var tables fileTables
	if err := k.UnmarshalWithConf("", &tables, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode catalog file: %w", err)
	}
	return New(tables.Product, tables.Coupons, tables.Affiliates)
}
