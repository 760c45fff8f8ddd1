package models

type Status int

const (
	StatusInactive Status = 0
	StatusActive   Status = 1
)

type Category struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Product struct {
	ID            uint64          `json:"id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	CategoryID    uint64          `json:"category_id"`
	Presentation  *string         `json:"presentation,omitempty"`
	Concentration *string         `json:"concentration,omitempty"`
	Image         *string         `json:"image,omitempty"`
	Status        Status          `json:"status"`
	Category      *Category       `json:"category,omitempty"`
	Batches       []MedicineBatch `json:"batches,omitempty"`
}

// Stock sums the stock of the product's active batches.
func (p Product) Stock() int {
	total := 0
	for _, b := range p.Batches {
		if b.Status != StatusActive || b.Stock == nil {
			continue
		}
		total += *b.Stock
	}
	return total
}

type ProductCreate struct {
	Name          string  `json:"name" validate:"required"`
	Description   *string `json:"description,omitempty"`
	CategoryID    uint64  `json:"category_id" validate:"required"`
	Presentation  string  `json:"presentation"`
	Concentration string  `json:"concentration"`
	Image         *string `json:"image,omitempty"`
}

type ProductUpdate struct {
	Name          string  `validate:"required"`
	Description   *string
	CategoryID    uint64 `validate:"required"`
	Presentation  *string
	Concentration *string
}

type MedicineBatch struct {
	ID             uint64   `json:"id"`
	ProductID      uint64   `json:"product_id"`
	ExpirationDate string   `json:"expiration_date,omitempty"`
	Stock          *int     `json:"stock,omitempty"`
	PurchasePrice  *float64 `json:"purchase_price,omitempty"`
	SalePrice      *float64 `json:"sale_price,omitempty"`
	Status         Status   `json:"status"`
}

type MedicineBatchCreate struct {
	ProductID      uint64   `json:"product_id" validate:"required"`
	ExpirationDate string   `json:"expiration_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Stock          *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
	PurchasePrice  *float64 `json:"purchase_price,omitempty" validate:"omitempty,gte=0"`
	SalePrice      *float64 `json:"sale_price,omitempty" validate:"omitempty,gte=0"`
}

// MedicineBatchUpdate is sent as {id, ...fields}; nil fields are omitted.
type MedicineBatchUpdate struct {
	ID             uint64   `json:"id"`
	ProductID      *uint64  `json:"product_id,omitempty"`
	ExpirationDate *string  `json:"expiration_date,omitempty"`
	Stock          *int     `json:"stock,omitempty"`
	PurchasePrice  *float64 `json:"purchase_price,omitempty"`
	SalePrice      *float64 `json:"sale_price,omitempty"`
	Status         *Status  `json:"status,omitempty"`
}
