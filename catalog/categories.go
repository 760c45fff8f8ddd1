package catalog

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/octabyte/pharmacy-session/enums"
	"github.com/octabyte/pharmacy-session/models"
)

var categoriesPath = "/" + enums.CategoryResource

type Categories struct {
	service
}

func NewCategories(client *resty.Client) *Categories {
	return &Categories{service: newService(client)}
}

func (c *Categories) All(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := c.execute(ctx, c.client.R().SetResult(&out), http.MethodGet, categoriesPath+"/all"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Categories) Get(ctx context.Context, id uint64) (*models.Category, error) {
	var out models.Category
	if err := c.execute(ctx, c.client.R().SetResult(&out), http.MethodGet, fmt.Sprintf("%s/%d", categoriesPath, id)); err != nil {
		return nil, err
	}
	return &out, nil
}
