package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	lineitemdomain "github.com/smallbiznis/eshop/internal/lineitem/domain"
	"github.com/smallbiznis/eshop/internal/order/domain"
	"gorm.io/gorm"
)

type reconcileStats struct {
	created int
	updated int
	deleted int
}

// reconcileLineItems makes the order's items equal to incoming. Items whose id
// matches a current item are updated in place, items without an id or with an
// id unknown to the store are created, and current items left unmatched are
// deleted. An id owned by another order fails the whole write.
// Inputs must already have passed validateLineItems.
func (s *Service) reconcileLineItems(
	ctx context.Context,
	tx *gorm.DB,
	orderID snowflake.ID,
	current []lineitemdomain.LineItem,
	incoming []lineitemdomain.Input,
	now time.Time,
) ([]lineitemdomain.LineItem, reconcileStats, error) {
	var stats reconcileStats

	byID := make(map[snowflake.ID]lineitemdomain.LineItem, len(current))
	for _, item := range current {
		byID[item.ID] = item
	}

	ids := make([]snowflake.ID, len(incoming))
	var unmatched []snowflake.ID
	for i, in := range incoming {
		id, ok, err := lineItemID(in)
		if err != nil {
			return nil, stats, &domain.LineItemError{Index: i, Err: err}
		}
		if !ok {
			continue
		}
		ids[i] = id
		if _, mine := byID[id]; !mine {
			unmatched = append(unmatched, id)
		}
	}

	if len(unmatched) > 0 {
		foreign, err := s.lineItems.FindByIDs(ctx, tx, unmatched)
		if err != nil {
			return nil, stats, err
		}
		for _, item := range foreign {
			if item.OrderID != orderID {
				for i, id := range ids {
					if id == item.ID {
						return nil, stats, &domain.LineItemError{Index: i, Err: domain.ErrLineItemNotOwned}
					}
				}
				return nil, stats, domain.ErrLineItemNotOwned
			}
		}
	}

	kept := make(map[snowflake.ID]struct{}, len(incoming))
	items := make([]lineitemdomain.LineItem, 0, len(incoming))
	for i, in := range incoming {
		if existing, ok := byID[ids[i]]; ok {
			existing.Apply(in)
			existing.UpdatedAt = now
			if err := s.lineItems.Update(ctx, tx, &existing); err != nil {
				return nil, stats, err
			}
			kept[existing.ID] = struct{}{}
			items = append(items, existing)
			stats.updated++
			continue
		}

		item := lineitemdomain.LineItem{
			ID:        s.genID.Generate(),
			OrderID:   orderID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		item.Apply(in)
		if err := s.lineItems.Insert(ctx, tx, &item); err != nil {
			return nil, stats, err
		}
		kept[item.ID] = struct{}{}
		items = append(items, item)
		stats.created++
	}

	var stale []snowflake.ID
	for _, item := range current {
		if _, ok := kept[item.ID]; !ok {
			stale = append(stale, item.ID)
		}
	}
	if err := s.lineItems.DeleteByIDs(ctx, tx, stale); err != nil {
		return nil, stats, err
	}
	stats.deleted = len(stale)

	return items, stats, nil
}
