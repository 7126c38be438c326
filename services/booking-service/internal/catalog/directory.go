package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/scheduling"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
)

type ProviderSummary struct {
	Provider model.User
	Services []model.Service
}

type ProviderDetail struct {
	Provider     model.User
	Services     []model.Service
	Availability []model.Availability
	Blocks       []model.Block
}

// Providers lists every provider with the services they offer.
func (c *Catalog) Providers(ctx context.Context) ([]ProviderSummary, error) {
	providers, err := c.store.ListProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	out := make([]ProviderSummary, 0, len(providers))
	for _, p := range providers {
		services, err := c.ListServices(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ProviderSummary{Provider: p, Services: services})
	}
	return out, nil
}

func (c *Catalog) Provider(ctx context.Context, id string) (ProviderDetail, error) {
	p, err := c.store.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !p.IsProvider) {
		return ProviderDetail{}, scheduling.NotFound("provider")
	}
	if err != nil {
		return ProviderDetail{}, fmt.Errorf("load provider: %w", err)
	}
	return c.detail(ctx, p)
}

// Me is the acting provider's own catalog.
func (c *Catalog) Me(ctx context.Context, actorID string) (ProviderDetail, error) {
	p, err := c.requireProvider(ctx, actorID)
	if err != nil {
		return ProviderDetail{}, err
	}
	return c.detail(ctx, p)
}

func (c *Catalog) detail(ctx context.Context, p model.User) (ProviderDetail, error) {
	d := ProviderDetail{Provider: p}
	var err error
	if d.Services, err = c.ListServices(ctx, p.ID); err != nil {
		return ProviderDetail{}, err
	}
	if d.Availability, err = c.ListAvailability(ctx, p.ID); err != nil {
		return ProviderDetail{}, err
	}
	if d.Blocks, err = c.ListBlocks(ctx, p.ID); err != nil {
		return ProviderDetail{}, err
	}
	return d, nil
}
