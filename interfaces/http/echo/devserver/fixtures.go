package devserver

import (
	"sort"
	"sync"

	"github.com/octabyte/pharmacy-session/enums"
	"github.com/octabyte/pharmacy-session/models"
)

type account struct {
	password string
	user     models.User
}

// fixtures is the in-memory data the dev backend serves.
type fixtures struct {
	mu         sync.RWMutex
	accounts   map[string]account
	categories map[uint64]models.Category
	products   map[uint64]models.Product
	batches    map[uint64]models.MedicineBatch
	nextID     uint64
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func newFixtures() *fixtures {
	c := &fixtures{
		accounts: map[string]account{
			"admin@farmaciamariarios.com": {
				password: "admin123",
				user:     models.User{ID: 1, Email: "admin@farmaciamariarios.com", FirstName: "Admin", LastName: "Farmacia Maria Rios", RoleID: enums.RoleAdmin},
			},
			"ventas@farmaciamariarios.com": {
				password: "ventas123",
				user:     models.User{ID: 2, Email: "ventas@farmaciamariarios.com", FirstName: "Lucia", LastName: "Rios", RoleID: enums.RoleSeller},
			},
		},
		categories: map[uint64]models.Category{
			1: {ID: 1, Name: "Analgesicos", Description: "Alivio del dolor"},
			2: {ID: 2, Name: "Antibioticos"},
		},
		products: map[uint64]models.Product{
			1: {ID: 1, Name: "Paracetamol", CategoryID: 1, Presentation: strPtr("tabletas"), Concentration: strPtr("500mg"), Status: models.StatusActive},
			2: {ID: 2, Name: "Amoxicilina", CategoryID: 2, Presentation: strPtr("capsulas"), Concentration: strPtr("500mg"), Status: models.StatusActive},
		},
		batches: map[uint64]models.MedicineBatch{
			1: {ID: 1, ProductID: 1, ExpirationDate: "2027-01-31", Stock: intPtr(40), PurchasePrice: floatPtr(1.2), SalePrice: floatPtr(2.5), Status: models.StatusActive},
			2: {ID: 2, ProductID: 1, ExpirationDate: "2025-12-31", Stock: intPtr(5), PurchasePrice: floatPtr(1.1), SalePrice: floatPtr(2.5), Status: models.StatusInactive},
			3: {ID: 3, ProductID: 2, ExpirationDate: "2026-11-30", Stock: intPtr(18), PurchasePrice: floatPtr(3.4), SalePrice: floatPtr(6.0), Status: models.StatusActive},
		},
		nextID: 100,
	}
	return c
}

func (c *fixtures) authenticate(email, password string) (models.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.accounts[email]
	if !ok || a.password != password {
		return models.User{}, false
	}
	return a.user, true
}

func (c *fixtures) id() uint64 {
	c.nextID++
	return c.nextID
}

func (c *fixtures) listCategories() []models.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Category, 0, len(c.categories))
	for _, cat := range c.categories {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *fixtures) category(id uint64) (models.Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, ok := c.categories[id]
	return cat, ok
}

// listProducts returns products with their category and batches attached.
func (c *fixtures) listProducts() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, c.expand(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *fixtures) expand(p models.Product) models.Product {
	if cat, ok := c.categories[p.CategoryID]; ok {
		p.Category = &cat
	}
	p.Batches = nil
	for _, b := range c.batches {
		if b.ProductID == p.ID {
			p.Batches = append(p.Batches, b)
		}
	}
	sort.Slice(p.Batches, func(i, j int) bool { return p.Batches[i].ID < p.Batches[j].ID })
	return p
}

func (c *fixtures) createProduct(in models.ProductCreate) (models.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.categories[in.CategoryID]; !ok {
		return models.Product{}, false
	}
	p := models.Product{
		ID:            c.id(),
		Name:          in.Name,
		Description:   in.Description,
		CategoryID:    in.CategoryID,
		Presentation:  strPtr(in.Presentation),
		Concentration: strPtr(in.Concentration),
		Image:         in.Image,
		Status:        models.StatusActive,
	}
	c.products[p.ID] = p
	return c.expand(p), true
}

func (c *fixtures) updateProduct(id uint64, in models.ProductUpdate) (models.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return models.Product{}, false
	}
	p.Name = in.Name
	p.CategoryID = in.CategoryID
	p.Description = in.Description
	p.Presentation = in.Presentation
	p.Concentration = in.Concentration
	c.products[id] = p
	return c.expand(p), true
}

func (c *fixtures) deleteProduct(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[id]; !ok {
		return false
	}
	delete(c.products, id)
	for bid, b := range c.batches {
		if b.ProductID == id {
			delete(c.batches, bid)
		}
	}
	return true
}

func (c *fixtures) listBatches() []models.MedicineBatch {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.MedicineBatch, 0, len(c.batches))
	for _, b := range c.batches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *fixtures) createBatch(in models.MedicineBatchCreate) (models.MedicineBatch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[in.ProductID]; !ok {
		return models.MedicineBatch{}, false
	}
	b := models.MedicineBatch{
		ID:             c.id(),
		ProductID:      in.ProductID,
		ExpirationDate: in.ExpirationDate,
		Stock:          in.Stock,
		PurchasePrice:  in.PurchasePrice,
		SalePrice:      in.SalePrice,
		Status:         models.StatusActive,
	}
	c.batches[b.ID] = b
	return b, true
}

func (c *fixtures) updateBatch(in models.MedicineBatchUpdate) (models.MedicineBatch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.batches[in.ID]
	if !ok {
		return models.MedicineBatch{}, false
	}
	if in.ProductID != nil {
		b.ProductID = *in.ProductID
	}
	if in.ExpirationDate != nil {
		b.ExpirationDate = *in.ExpirationDate
	}
	if in.Stock != nil {
		b.Stock = in.Stock
	}
	if in.PurchasePrice != nil {
		b.PurchasePrice = in.PurchasePrice
	}
	if in.SalePrice != nil {
		b.SalePrice = in.SalePrice
	}
	if in.Status != nil {
		b.Status = *in.Status
	}
	c.batches[b.ID] = b
	return b, true
}

func (c *fixtures) deleteBatch(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.batches[id]; !ok {
		return false
	}
	delete(c.batches, id)
	return true
}
