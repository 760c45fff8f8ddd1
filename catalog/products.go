package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/octabyte/pharmacy-session/enums"
	"github.com/octabyte/pharmacy-session/models"
)

var productsPath = "/" + enums.ProductResource

type Products struct {
	service
}

func NewProducts(client *resty.Client) *Products {
	return &Products{service: newService(client)}
}

func (p *Products) All(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := p.execute(ctx, p.client.R().SetResult(&out), http.MethodGet, productsPath+"/all"); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Products) Create(ctx context.Context, in models.ProductCreate) (*models.Product, error) {
	if err := p.check(ctx, "product", in); err != nil {
		return nil, err
	}
	var out models.Product
	req := p.client.R().SetHeader("Content-Type", "application/json").SetBody(in).SetResult(&out)
	if err := p.execute(ctx, req, http.MethodPost, productsPath+"/create"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update sends the product as a multipart form keyed by product_id. Empty
// optional fields are left out.
func (p *Products) Update(ctx context.Context, id uint64, in models.ProductUpdate) (*models.Product, error) {
	if err := p.check(ctx, "product", in); err != nil {
		return nil, err
	}

	form := map[string]string{
		"product_id":  strconv.FormatUint(id, 10),
		"name":        strings.TrimSpace(in.Name),
		"category_id": strconv.FormatUint(in.CategoryID, 10),
	}
	optional := map[string]*string{
		"description":   in.Description,
		"presentation":  in.Presentation,
		"concentration": in.Concentration,
	}
	for k, v := range optional {
		if v != nil && strings.TrimSpace(*v) != "" {
			form[k] = strings.TrimSpace(*v)
		}
	}

	var out models.Product
	req := p.client.R().SetMultipartFormData(form).SetResult(&out)
	if err := p.execute(ctx, req, http.MethodPut, productsPath+"/update"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Products) Delete(ctx context.Context, id uint64) error {
	return p.execute(ctx, p.client.R(), http.MethodDelete, fmt.Sprintf("%s/delete/%d", productsPath, id))
}
