package usecase

import (
	"context"
	"errors"
	"net/http"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// /cart の業務ロジック
// カートはCartとCartItemを分けて持つ
type CartUsecase struct {
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	catalog      repo.CatalogReader
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	catalog repo.CatalogReader,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		catalog:      catalog,
	}
}

// price は unit_price_snapshot（追加時点の価格）
type CartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total int64              `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	VariantID *int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// 公開中の商品・バリエーションだけ
func (u *CartUsecase) lookup(ctx context.Context, ref model.ItemRef) (repo.CatalogEntry, error) {
	entry, err := u.catalog.GetCurrentPriceAndStock(ctx, ref.ProductID, ref.VariantID)
	if errors.Is(err, repo.ErrNotFound) {
		return repo.CatalogEntry{}, ErrProductUnavailable(ref)
	}
	if err != nil {
		return repo.CatalogEntry{}, persistenceError(err)
	}
	if !entry.IsAvailable {
		return repo.CatalogEntry{}, ErrProductUnavailable(ref)
	}
	return entry, nil
}

// カート取得（無ければACTIVEを作って空を返す）
func (u *CartUsecase) GetCart(ctx context.Context, customerID int64) (CartResponse, error) {
	if customerID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.GetOrCreateActiveByCustomerID(ctx, customerID)
	if err != nil {
		return CartResponse{}, persistenceError(err)
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// カートに追加（同一商品・同一バリエーションは数量加算）
func (u *CartUsecase) AddToCart(ctx context.Context, customerID int64, in AddCartInput) (CartResponse, error) {
	if customerID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, ErrValidation("invalid product_id")
	}
	if in.VariantID != nil && *in.VariantID <= 0 {
		return CartResponse{}, ErrValidation("invalid variant_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, ErrValidation("invalid quantity")
	}
	ref := model.ItemRef{ProductID: in.ProductID, VariantID: in.VariantID}

	cart, err := u.cartRepo.GetOrCreateActiveByCustomerID(ctx, customerID)
	if err != nil {
		return CartResponse{}, persistenceError(err)
	}

	entry, err := u.lookup(ctx, ref)
	if err != nil {
		return CartResponse{}, err
	}

	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, persistenceError(err)
	}

	var existingQty int64
	for _, it := range items {
		if it.Ref().Key() == ref.Key() {
			existingQty = it.Quantity
			break
		}
	}

	//ここでの在庫チェックは目安。確定は注文時の予約
	newQty := existingQty + in.Quantity
	if newQty > entry.Stock {
		return CartResponse{}, ErrInsufficientStock(ref, entry.Stock, newQty)
	}

	if err := u.cartItemRepo.UpsertByCartAndItem(ctx, cart.ID, ref, in.Quantity, entry.Price); err != nil {
		return CartResponse{}, persistenceError(err)
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// 数量変更（所有チェック＋在庫チェック）
func (u *CartUsecase) UpdateCartItem(ctx context.Context, customerID int64, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if customerID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, ErrValidation("invalid id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, ErrValidation("invalid quantity")
	}

	owned, err := u.cartItemRepo.IsOwnedByCustomer(ctx, cartItemID, customerID)
	if err != nil {
		return CartResponse{}, persistenceError(err)
	}
	if !owned {
		return CartResponse{}, ErrNotFound("cart item")
	}

	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if err != nil {
		return CartResponse{}, lookupError(err, "cart item")
	}

	entry, err := u.lookup(ctx, item.Ref())
	if err != nil {
		return CartResponse{}, err
	}
	if in.Quantity > entry.Stock {
		return CartResponse{}, ErrInsufficientStock(item.Ref(), entry.Stock, in.Quantity)
	}

	if err := u.cartItemRepo.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		return CartResponse{}, lookupError(err, "cart item")
	}

	return u.buildCartResponse(ctx, item.CartID)
}

// 明細削除
func (u *CartUsecase) DeleteCartItem(ctx context.Context, customerID int64, cartItemID int64) (CartResponse, error) {
	if customerID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, ErrValidation("invalid id")
	}

	owned, err := u.cartItemRepo.IsOwnedByCustomer(ctx, cartItemID, customerID)
	if err != nil {
		return CartResponse{}, persistenceError(err)
	}
	if !owned {
		return CartResponse{}, ErrNotFound("cart item")
	}

	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if err != nil {
		return CartResponse{}, lookupError(err, "cart item")
	}
	if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
		return CartResponse{}, lookupError(err, "cart item")
	}

	return u.buildCartResponse(ctx, item.CartID)
}

// カートを空にする
func (u *CartUsecase) ClearCart(ctx context.Context, customerID int64) error {
	if customerID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	cart, err := u.cartRepo.FindActiveByCustomerID(ctx, customerID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return persistenceError(err)
	}
	return persistenceError(u.cartRepo.Clear(ctx, cart.ID))
}

// cartIDの明細をまとめてCartResponseを作る
// 公開停止になった商品は表示しない
func (u *CartUsecase) buildCartResponse(ctx context.Context, cartID int64) (CartResponse, error) {
	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartResponse{}, persistenceError(err)
	}

	respItems := make([]CartItemResponse, 0, len(items))
	var total int64

	for _, it := range items {
		entry, err := u.catalog.GetCurrentPriceAndStock(ctx, it.ProductID, it.VariantID)
		if err != nil || !entry.IsAvailable {
			continue
		}

		respItems = append(respItems, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Name:      entry.Name,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})

		total += it.UnitPriceSnapshot * it.Quantity
	}

	return CartResponse{Items: respItems, Total: total}, nil
}
