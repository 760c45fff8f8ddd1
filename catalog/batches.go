package catalog

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/octabyte/pharmacy-session/enums"
	"github.com/octabyte/pharmacy-session/models"
)

var batchesPath = "/" + enums.BatchResource

type Batches struct {
	service
}

func NewBatches(client *resty.Client) *Batches {
	return &Batches{service: newService(client)}
}

func (b *Batches) All(ctx context.Context) ([]models.MedicineBatch, error) {
	var out []models.MedicineBatch
	if err := b.execute(ctx, b.client.R().SetResult(&out), http.MethodGet, batchesPath+"/all"); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Batches) Create(ctx context.Context, in models.MedicineBatchCreate) (*models.MedicineBatch, error) {
	if err := b.check(ctx, "batch", in); err != nil {
		return nil, err
	}
	var out models.MedicineBatch
	req := b.client.R().SetHeader("Content-Type", "application/json").SetBody(in).SetResult(&out)
	if err := b.execute(ctx, req, http.MethodPost, batchesPath+"/create"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update sends {id, ...fields}. The trailing slash is part of the route.
func (b *Batches) Update(ctx context.Context, id uint64, in models.MedicineBatchUpdate) (*models.MedicineBatch, error) {
	in.ID = id
	var out models.MedicineBatch
	req := b.client.R().SetHeader("Content-Type", "application/json").SetBody(in).SetResult(&out)
	if err := b.execute(ctx, req, http.MethodPut, batchesPath+"/update/"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Batches) Delete(ctx context.Context, id uint64) error {
	return b.execute(ctx, b.client.R(), http.MethodDelete, fmt.Sprintf("%s/delete/%d", batchesPath, id))
}
