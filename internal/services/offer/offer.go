// Package offer разрешает идентификатор предложения в цены для нового абонемента.
package offer

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

// Repository хранилище предложений.
type Repository interface {
	GetOffer(ctx context.Context, offerID int64) (*models.Offer, error)
}

// Catalog каталог предложений клуба. Правка предложений выполняется вне этого сервиса.
type Catalog struct {
	repo Repository
}

// NewCatalog создает Catalog.
func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

// Resolve возвращает активное предложение. Отсутствующее или неактивное даёт ErrOfferNotFound.
func (c *Catalog) Resolve(ctx context.Context, offerID int64) (*models.Offer, error) {
	const op = "offer.Resolve"
	o, err := c.repo.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !o.IsActive {
		return nil, fmt.Errorf("%s: offer %d is inactive: %w", op, offerID, models.ErrOfferNotFound)
	}
	if o.DurationMonths <= 0 {
		return nil, fmt.Errorf("%s: offer %d has no duration: %w", op, offerID, models.ErrOfferNotFound)
	}
	return o, nil
}
