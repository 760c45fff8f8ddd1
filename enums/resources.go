package enums

const (
	ProductResource  = "products"
	CategoryResource = "categories"
	BatchResource    = "batches"
	AuthResource     = "auth"
)
