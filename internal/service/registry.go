package service

import (
	"context"
	"errors"
	"time"

	"github.com/arenatix/ticketing/internal/config"
	"github.com/arenatix/ticketing/internal/model"
	"github.com/arenatix/ticketing/internal/pricing"
	"github.com/arenatix/ticketing/internal/repository"
)

// SaleStore is the persistence contract the registry needs.
type SaleStore interface {
	Create(ctx context.Context, s model.FlashSale) (uint64, error)
	Update(ctx context.Context, id uint64, s model.FlashSale) error
	Delete(ctx context.Context, id uint64) error
	SetActive(ctx context.Context, id uint64, active bool) error
	GetByID(ctx context.Context, id uint64) (model.FlashSale, error)
	List(ctx context.Context) ([]model.FlashSale, error)
	ListActiveSharingTiers(ctx context.Context, tierIDs []uint64, excludeID uint64) ([]model.FlashSale, error)
}

// TierGetter resolves tier ids during sale validation.
type TierGetter interface {
	GetByID(ctx context.Context, id uint64) (model.TicketTier, error)
}

// Registry is the flash-sale registry: admin CRUD over time-windowed price
// overrides plus enforcement of the per-tier non-overlap invariant. The
// overlap check is read-then-write and therefore only race-free under
// non-concurrent admin edits. It never touches capacity.
type Registry struct {
	sales    SaleStore
	tiers    TierGetter
	features config.Features
}

// NewRegistry builds the registry. The feature flags are injected here so
// a disabled configuration can be constructed deterministically in tests.
func NewRegistry(sales SaleStore, tiers TierGetter, features config.Features) *Registry {
	return &Registry{sales: sales, tiers: tiers, features: features}
}

// CreateSaleInput is the admin request to schedule a sale.
type CreateSaleInput struct {
	Title         string
	StartAt       time.Time
	EndAt         time.Time
	TargetTierIDs []uint64
	SalePriceRef  string
}

// Create validates, overlap-checks and persists a new sale. Every target
// tier must exist; the first target's base price is snapshotted for audit.
// Window collisions with an active sale sharing any target tier are
// rejected with *repository.OverlapError.
func (r *Registry) Create(ctx context.Context, in CreateSaleInput) (model.FlashSale, error) {
	if !r.features.FlashSalesEnabled {
		return model.FlashSale{}, ErrFlashSalesDisabled
	}

	snapshot, err := r.baseSnapshot(ctx, in.TargetTierIDs)
	if err != nil {
		return model.FlashSale{}, err
	}
	sale, err := model.NewFlashSale(in.Title, in.StartAt, in.EndAt, in.TargetTierIDs, in.SalePriceRef, snapshot)
	if err != nil {
		return model.FlashSale{}, &ValidationError{Msg: err.Error()}
	}
	if err := r.checkOverlap(ctx, sale, 0); err != nil {
		return model.FlashSale{}, err
	}
	id, err := r.sales.Create(ctx, sale)
	if err != nil {
		return model.FlashSale{}, err
	}
	sale.ID = id
	return sale, nil
}

// UpdateSaleInput patches an existing sale; nil fields are left unchanged.
type UpdateSaleInput struct {
	Title         *string
	StartAt       *time.Time
	EndAt         *time.Time
	TargetTierIDs *[]uint64
	SalePriceRef  *string
}

// Update applies the patch and re-runs the overlap check against all other
// active sales using the patched values before anything is written.
func (r *Registry) Update(ctx context.Context, id uint64, in UpdateSaleInput) (model.FlashSale, error) {
	if !r.features.FlashSalesEnabled {
		return model.FlashSale{}, ErrFlashSalesDisabled
	}

	existing, err := r.sales.GetByID(ctx, id)
	if err != nil {
		return model.FlashSale{}, err
	}

	title := existing.Title
	if in.Title != nil {
		title = *in.Title
	}
	startAt := existing.StartAt
	if in.StartAt != nil {
		startAt = *in.StartAt
	}
	endAt := existing.EndAt
	if in.EndAt != nil {
		endAt = *in.EndAt
	}
	targets := existing.TargetTierIDs
	if in.TargetTierIDs != nil {
		targets = *in.TargetTierIDs
	}
	salePriceRef := existing.SalePriceRef
	if in.SalePriceRef != nil {
		salePriceRef = *in.SalePriceRef
	}

	snapshot := existing.BasePriceRefSnapshot
	if in.TargetTierIDs != nil {
		if snapshot, err = r.baseSnapshot(ctx, targets); err != nil {
			return model.FlashSale{}, err
		}
	}

	patched, err := model.NewFlashSale(title, startAt, endAt, targets, salePriceRef, snapshot)
	if err != nil {
		return model.FlashSale{}, &ValidationError{Msg: err.Error()}
	}
	patched.ID = id
	patched.IsActive = existing.IsActive

	if err := r.checkOverlap(ctx, patched, id); err != nil {
		return model.FlashSale{}, err
	}
	if err := r.sales.Update(ctx, id, patched); err != nil {
		return model.FlashSale{}, err
	}
	return patched, nil
}

// Delete removes a sale. No overlap check is needed.
func (r *Registry) Delete(ctx context.Context, id uint64) error {
	return r.sales.Delete(ctx, id)
}

// Activate turns the administrative switch on. Per the registry contract
// this is a plain state toggle, like Deactivate.
func (r *Registry) Activate(ctx context.Context, id uint64) error {
	if !r.features.FlashSalesEnabled {
		return ErrFlashSalesDisabled
	}
	return r.sales.SetActive(ctx, id, true)
}

// Deactivate turns the administrative switch off.
func (r *Registry) Deactivate(ctx context.Context, id uint64) error {
	return r.sales.SetActive(ctx, id, false)
}

// Get returns one sale by id.
func (r *Registry) Get(ctx context.Context, id uint64) (model.FlashSale, error) {
	return r.sales.GetByID(ctx, id)
}

// List returns all sales.
func (r *Registry) List(ctx context.Context) ([]model.FlashSale, error) {
	return r.sales.List(ctx)
}

// checkOverlap rejects the sale if its window intersects any active sale
// (other than excludeID) sharing at least one target tier. Only active
// sales matter: inactive ones can never be in force, so they cannot create
// a pricing ambiguity.
func (r *Registry) checkOverlap(ctx context.Context, sale model.FlashSale, excludeID uint64) error {
	candidates, err := r.sales.ListActiveSharingTiers(ctx, sale.TargetTierIDs, excludeID)
	if err != nil {
		return err
	}
	for _, other := range candidates {
		if pricing.Overlaps(sale.StartAt, sale.EndAt, other.StartAt, other.EndAt) {
			return &repository.OverlapError{ConflictingID: other.ID, ConflictingTitle: other.Title}
		}
	}
	return nil
}

// baseSnapshot verifies every target tier exists and returns the first
// target's base price reference for the audit snapshot.
func (r *Registry) baseSnapshot(ctx context.Context, tierIDs []uint64) (string, error) {
	if len(tierIDs) == 0 {
		return "", &ValidationError{Msg: model.ErrSaleNoTargets.Error()}
	}
	var snapshot string
	for i, id := range tierIDs {
		tier, err := r.tiers.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrTierNotFound) {
				return "", validationf("target tier %d does not exist", id)
			}
			return "", err
		}
		if i == 0 {
			snapshot = tier.BasePriceRef
		}
	}
	return snapshot, nil
}
