package memory

import (
	"context"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// トランザクション外で使うカート・カタログ
// 呼び出し1回ごとにコミットする
type AutoRepos struct {
	s *Store
}

func (s *Store) Auto() *AutoRepos { return &AutoRepos{s: s} }

var (
	_ repo.CartRepository     = (*AutoRepos)(nil)
	_ repo.CartItemRepository = (*AutoRepos)(nil)
	_ repo.CatalogReader      = (*AutoRepos)(nil)
)

func (a *AutoRepos) GetOrCreateActiveByCustomerID(ctx context.Context, customerID int64) (c model.Cart, err error) {
	err = a.s.auto(ctx, func(r *txRepos) error {
		c, err = r.Carts().GetOrCreateActiveByCustomerID(ctx, customerID)
		return err
	})
	return c, err
}

func (a *AutoRepos) FindActiveByCustomerID(ctx context.Context, customerID int64) (c model.Cart, err error) {
	err = a.s.auto(ctx, func(r *txRepos) error {
		c, err = r.Carts().FindActiveByCustomerID(ctx, customerID)
		return err
	})
	return c, err
}

func (a *AutoRepos) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	return a.s.auto(ctx, func(r *txRepos) error {
		return r.Carts().UpdateStatus(ctx, cartID, status)
	})
}

func (a *AutoRepos) Clear(ctx context.Context, cartID int64) error {
	return a.s.auto(ctx, func(r *txRepos) error {
		return r.Carts().Clear(ctx, cartID)
	})
}

func (a *AutoRepos) ListByCartID(ctx context.Context, cartID int64) (items []model.CartItem, err error) {
	err = a.s.auto(ctx, func(r *txRepos) error {
		items, err = r.CartItems().ListByCartID(ctx, cartID)
		return err
	})
	return items, err
}

func (a *AutoRepos) UpsertByCartAndItem(ctx context.Context, cartID int64, ref model.ItemRef, addQty int64, unitPriceSnapshot int64) error {
	return a.s.auto(ctx, func(r *txRepos) error {
		return r.CartItems().UpsertByCartAndItem(ctx, cartID, ref, addQty, unitPriceSnapshot)
	})
}

func (a *AutoRepos) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	return a.s.auto(ctx, func(r *txRepos) error {
		return r.CartItems().UpdateQuantity(ctx, cartItemID, qty)
	})
}

func (a *AutoRepos) DeleteByID(ctx context.Context, cartItemID int64) error {
	return a.s.auto(ctx, func(r *txRepos) error {
		return r.CartItems().DeleteByID(ctx, cartItemID)
	})
}

func (a *AutoRepos) FindByID(ctx context.Context, cartItemID int64) (it model.CartItem, err error) {
	err = a.s.auto(ctx, func(r *txRepos) error {
		it, err = r.CartItems().FindByID(ctx, cartItemID)
		return err
	})
	return it, err
}

func (a *AutoRepos) IsOwnedByCustomer(ctx context.Context, cartItemID int64, customerID int64) (ok bool, err error) {
	err = a.s.auto(ctx, func(r *txRepos) error {
		ok, err = r.CartItems().IsOwnedByCustomer(ctx, cartItemID, customerID)
		return err
	})
	return ok, err
}

func (a *AutoRepos) GetCurrentPriceAndStock(ctx context.Context, productID int64, variantID *int64) (e repo.CatalogEntry, err error) {
	err = a.s.auto(ctx, func(r *txRepos) error {
		e, err = r.Products().GetCurrentPriceAndStock(ctx, productID, variantID)
		return err
	})
	return e, err
}
