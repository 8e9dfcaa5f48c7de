package model

import (
	"errors"
	"time"
)

// FlashSale is a time-boxed price override targeting one or more tiers.
// The window is half-open: the sale is in force at StartAt and no longer in
// force at EndAt. IsActive is an independent administrative switch: both it
// and the time window must hold for the override to apply.
//
// BasePriceRefSnapshot records the price the sale was overriding when it was
// created; it exists for audit and display only and plays no part in price
// resolution.
type FlashSale struct {
	ID                   uint64
	Title                string
	StartAt              time.Time
	EndAt                time.Time
	TargetTierIDs        []uint64
	SalePriceRef         string
	BasePriceRefSnapshot string
	IsActive             bool
}

// Validation errors returned by NewFlashSale.
var (
	ErrSaleTitleRequired = errors.New("flash sale title is required")
	ErrSalePriceRequired = errors.New("flash sale price ref is required")
	ErrSaleBadWindow     = errors.New("flash sale must end after it starts")
	ErrSaleNoTargets     = errors.New("flash sale must target at least one tier")
)

// NewFlashSale validates and builds a sale. Target tier IDs are
// deduplicated; window and target invariants are enforced here, overlap
// against other sales is the registry's job.
func NewFlashSale(title string, startAt, endAt time.Time, targetTierIDs []uint64, salePriceRef, baseSnapshot string) (FlashSale, error) {
	if title == "" {
		return FlashSale{}, ErrSaleTitleRequired
	}
	if salePriceRef == "" {
		return FlashSale{}, ErrSalePriceRequired
	}
	if !endAt.After(startAt) {
		return FlashSale{}, ErrSaleBadWindow
	}
	targets := make([]uint64, 0, len(targetTierIDs))
	seen := make(map[uint64]struct{}, len(targetTierIDs))
	for _, id := range targetTierIDs {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			targets = append(targets, id)
		}
	}
	if len(targets) == 0 {
		return FlashSale{}, ErrSaleNoTargets
	}
	return FlashSale{
		Title:                title,
		StartAt:              startAt.UTC(),
		EndAt:                endAt.UTC(),
		TargetTierIDs:        targets,
		SalePriceRef:         salePriceRef,
		BasePriceRefSnapshot: baseSnapshot,
		IsActive:             true,
	}, nil
}

// Targets reports whether the sale applies to the given tier.
func (s FlashSale) Targets(tierID uint64) bool {
	for _, id := range s.TargetTierIDs {
		if id == tierID {
			return true
		}
	}
	return false
}

// InForce reports whether the sale overrides pricing at the given instant:
// administratively active and now within [StartAt, EndAt).
func (s FlashSale) InForce(now time.Time) bool {
	return s.IsActive && !now.Before(s.StartAt) && now.Before(s.EndAt)
}
