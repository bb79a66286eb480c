package domain

// Product is a read-only catalog entry. Price is expressed in minor units (cents).
type Product struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Category  string `json:"category,omitempty" yaml:"category"`
	Price     int64  `json:"price" yaml:"price"`
	Available bool   `json:"available" yaml:"available"`
}
