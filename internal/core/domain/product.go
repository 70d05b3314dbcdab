package domain

import (
	"fmt"
	"time"
)

// Defaults applied when a SKU is created lazily on its first stock addition.
const (
	DefaultMaxCapacity int64 = 100
	DefaultThreshold   int64 = 10
	DefaultShelf             = "A-1"
	DefaultZone              = "default"
)

// Product is the primary inventory record for a single SKU.
// Quantity is never negative; overstock beyond MaxCapacity is permitted.
type Product struct {
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Quantity      int64     `json:"quantity"`
	MaxCapacity   int64     `json:"max_capacity"`
	Threshold     int64     `json:"threshold"`
	Shelf         string    `json:"shelf"`
	Zone          string    `json:"zone"`
	Cost          float64   `json:"cost"`
	Price         float64   `json:"price"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated"`
}

// IsLowStock reports whether the record belongs in the low-stock index.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.Threshold
}

// ProductDefaults carries the optional product attributes supplied with the
// first stock addition for a new SKU. Zero values fall back to system
// defaults.
type ProductDefaults struct {
	Name        string  `json:"name,omitempty"`
	MaxCapacity int64   `json:"max_capacity,omitempty"`
	Threshold   int64   `json:"threshold,omitempty"`
	Shelf       string  `json:"shelf,omitempty"`
	Zone        string  `json:"zone,omitempty"`
	Cost        float64 `json:"cost,omitempty"`
	Price       float64 `json:"price,omitempty"`
}

// Normalized fills in system defaults for any unset field.
func (d ProductDefaults) Normalized(sku string) ProductDefaults {
	if d.Name == "" {
		d.Name = fmt.Sprintf("Product %s", sku)
	}
	if d.MaxCapacity <= 0 {
		d.MaxCapacity = DefaultMaxCapacity
	}
	if d.Threshold <= 0 {
		d.Threshold = DefaultThreshold
	}
	if d.Threshold > d.MaxCapacity {
		d.Threshold = d.MaxCapacity
	}
	if d.Shelf == "" {
		d.Shelf = DefaultShelf
	}
	if d.Zone == "" {
		d.Zone = DefaultZone
	}
	return d
}

// StockLevel is the state of a record immediately after an atomic quantity
// delta, as reported by the storage engine. Threshold rides along so index
// maintenance needs no second read.
type StockLevel struct {
	Quantity  int64
	Threshold int64
}
