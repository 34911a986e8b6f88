package remote

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/and161185/stock-keeper/internal/convert"
	"github.com/and161185/stock-keeper/internal/model"
)

// ListItems fetches every inventory item, oldest first.
func (c *Client) ListItems(ctx context.Context) ([]model.Item, error) {
	var out []convert.ItemDTO
	err := c.do(ctx, "list items", func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&out).Get("/v1/inventory_items")
	})
	if err != nil {
		return nil, err
	}
	return convert.FromItemDTOs(out), nil
}

// CreateItems inserts a batch; the backend assigns ids and timestamps.
func (c *Client) CreateItems(ctx context.Context, items []model.NewItem) ([]model.Item, error) {
	body := make([]convert.ItemDTO, 0, len(items))
	for _, n := range items {
		body = append(body, convert.ToItemDTO(n.Materialize("", time.Time{})))
	}
	var out []convert.ItemDTO
	err := c.do(ctx, "create items", func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(body).SetResult(&out).Post("/v1/inventory_items")
	})
	if err != nil {
		return nil, err
	}
	return convert.FromItemDTOs(out), nil
}

// UpsertItem writes an item under its own id.
func (c *Client) UpsertItem(ctx context.Context, it model.Item) (model.Item, error) {
	var out convert.ItemDTO
	err := c.do(ctx, "upsert item", func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("id", it.ID).
			SetBody(convert.ToItemDTO(it)).
			SetResult(&out).
			Put("/v1/inventory_items/{id}")
	})
	if err != nil {
		return model.Item{}, err
	}
	return convert.FromItemDTO(out), nil
}

// DeleteItem removes an item; errs.ErrNotFound when the backend has no such id.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, "delete item", func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("id", id).Delete("/v1/inventory_items/{id}")
	})
}

// ReduceQuantity calls the reduce_inventory_quantity procedure and returns the stock left.
func (c *Client) ReduceQuantity(ctx context.Context, id string, qty int) (int, error) {
	var out convert.ReduceResponse
	err := c.do(ctx, "reduce quantity", func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(convert.ReduceRequest{ItemID: id, QuantityToReduce: qty}).
			SetResult(&out).
			Post("/v1/rpc/reduce_inventory_quantity")
	})
	if err != nil {
		return 0, err
	}
	return out.Quantity, nil
}
