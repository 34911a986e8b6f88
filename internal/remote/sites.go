package remote

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/and161185/stock-keeper/internal/convert"
	"github.com/and161185/stock-keeper/internal/model"
)

func (c *Client) ListJobSites(ctx context.Context) ([]model.JobSite, error) {
	var out []convert.JobSiteDTO
	err := c.do(ctx, "list job sites", func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&out).Get("/v1/job_sites")
	})
	if err != nil {
		return nil, err
	}
	return convert.FromJobSiteDTOs(out), nil
}

func (c *Client) CreateJobSite(ctx context.Context, n model.NewJobSite) (model.JobSite, error) {
	var out convert.JobSiteDTO
	err := c.do(ctx, "create job site", func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(convert.ToJobSiteDTO(n.Materialize("", time.Time{}))).
			SetResult(&out).
			Post("/v1/job_sites")
	})
	if err != nil {
		return model.JobSite{}, err
	}
	return convert.FromJobSiteDTO(out), nil
}

func (c *Client) UpsertJobSite(ctx context.Context, js model.JobSite) (model.JobSite, error) {
	var out convert.JobSiteDTO
	err := c.do(ctx, "upsert job site", func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("id", js.ID).
			SetBody(convert.ToJobSiteDTO(js)).
			SetResult(&out).
			Put("/v1/job_sites/{id}")
	})
	if err != nil {
		return model.JobSite{}, err
	}
	return convert.FromJobSiteDTO(out), nil
}

func (c *Client) ListUsage(ctx context.Context) ([]model.Usage, error) {
	var out []convert.UsageDTO
	err := c.do(ctx, "list usage", func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&out).Get("/v1/job_site_usage")
	})
	if err != nil {
		return nil, err
	}
	return convert.FromUsageDTOs(out), nil
}

// RecordUsage appends a usage record; the backend decrements the item in the same transaction.
// Recording an id twice is a no-op on the backend.
func (c *Client) RecordUsage(ctx context.Context, u model.Usage) (model.Usage, error) {
	var out convert.UsageDTO
	err := c.do(ctx, "record usage", func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(convert.ToUsageDTO(u)).SetResult(&out).Post("/v1/job_site_usage")
	})
	if err != nil {
		return model.Usage{}, err
	}
	return convert.FromUsageDTO(out), nil
}

// IssueKey exchanges the shared secret for an access key.
func (c *Client) IssueKey(ctx context.Context, secret string) (string, time.Time, error) {
	var out convert.TokenResponse
	err := c.do(ctx, "issue key", func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(convert.TokenRequest{Secret: secret}).SetResult(&out).Post("/v1/auth/token")
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return out.Token, out.ExpiresAt, nil
}
