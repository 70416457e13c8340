package memory

import (
	"context"
	"errors"
	"slices"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

func sameRef(productID int64, variantID *int64, ref model.ItemRef) bool {
	other := model.ItemRef{ProductID: productID, VariantID: variantID}
	return other.Key() == ref.Key()
}

// ---- orders ----

type orderRepo struct{ *txRepos }

func (r *orderRepo) FindByID(_ context.Context, orderID int64) (model.Order, error) {
	o, ok := r.st.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r *orderRepo) ListByCustomerID(_ context.Context, customerID int64, page int, limit int) ([]model.Order, int64, error) {
	all := sortedValues(r.st.orders, func(o model.Order) int64 { return -o.ID })
	all = slices.DeleteFunc(all, func(o model.Order) bool { return o.CustomerID != customerID })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *orderRepo) Create(_ context.Context, o model.Order) (int64, error) {
	if o.IdempotencyKey != nil {
		for _, existing := range r.st.orders {
			if existing.CustomerID == o.CustomerID && existing.IdempotencyKey != nil && *existing.IdempotencyKey == *o.IdempotencyKey {
				return 0, repo.ErrConflict
			}
		}
	}
	now := r.now()
	o.ID = r.st.nextID("orders")
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	r.st.orders[o.ID] = o
	return o.ID, nil
}

func (r *orderRepo) UpdateStatus(_ context.Context, orderID int64, from, to model.OrderStatus) error {
	o, ok := r.st.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	if o.Status != from {
		return repo.ErrConflict
	}
	o.Status = to
	o.UpdatedAt = r.now()
	r.st.orders[orderID] = o
	return nil
}

func (r *orderRepo) UpdatePaymentStatus(_ context.Context, orderID int64, from, to model.PaymentStatus) error {
	o, ok := r.st.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	if o.PaymentStatus != from {
		return repo.ErrConflict
	}
	o.PaymentStatus = to
	o.UpdatedAt = r.now()
	r.st.orders[orderID] = o
	return nil
}

func (r *orderRepo) FindByIdempotencyKey(_ context.Context, customerID int64, key string) (model.Order, bool, error) {
	for _, o := range r.st.orders {
		if o.CustomerID == customerID && o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			return o, true, nil
		}
	}
	return model.Order{}, false, nil
}

func (r *orderRepo) ListAdmin(_ context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	all := sortedValues(r.st.orders, func(o model.Order) int64 { return -o.ID })
	all = slices.DeleteFunc(all, func(o model.Order) bool {
		switch {
		case f.Status != "" && string(o.Status) != f.Status:
			return true
		case f.CustomerID != nil && o.CustomerID != *f.CustomerID:
			return true
		case f.From != nil && o.CreatedAt.Before(*f.From):
			return true
		case f.To != nil && o.CreatedAt.After(*f.To):
			return true
		}
		return false
	})
	return paginate(all, f.Page, f.Limit), int64(len(all)), nil
}

func (r *orderRepo) CountActiveByCustomerAndCoupon(_ context.Context, customerID int64, couponID int64) (int64, error) {
	var n int64
	for _, o := range r.st.orders {
		if o.CustomerID != customerID || o.CouponID == nil || *o.CouponID != couponID {
			continue
		}
		if o.Status == model.OrderStatusCanceled || o.Status == model.OrderStatusFailed {
			continue
		}
		n++
	}
	return n, nil
}

// ---- sub orders ----

type subOrderRepo struct{ *txRepos }

func (r *subOrderRepo) CreateBulk(_ context.Context, orderID int64, subOrders []model.SubOrder) ([]model.SubOrder, error) {
	out := make([]model.SubOrder, 0, len(subOrders))
	now := r.now()
	for _, s := range subOrders {
		s.ID = r.st.nextID("sub_orders")
		s.OrderID = orderID
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.StatusUpdatedAt.IsZero() {
			s.StatusUpdatedAt = now
		}
		r.st.subOrders[s.ID] = s
		out = append(out, s)
	}
	return out, nil
}

func (r *subOrderRepo) FindByID(_ context.Context, subOrderID int64) (model.SubOrder, error) {
	s, ok := r.st.subOrders[subOrderID]
	if !ok {
		return model.SubOrder{}, repo.ErrNotFound
	}
	return s, nil
}

func (r *subOrderRepo) ListByOrderID(_ context.Context, orderID int64) ([]model.SubOrder, error) {
	all := sortedValues(r.st.subOrders, func(s model.SubOrder) int64 { return s.ID })
	all = slices.DeleteFunc(all, func(s model.SubOrder) bool { return s.OrderID != orderID })
	slices.SortStableFunc(all, func(a, b model.SubOrder) int {
		switch {
		case a.SellerID < b.SellerID:
			return -1
		case a.SellerID > b.SellerID:
			return 1
		}
		return 0
	})
	return all, nil
}

func (r *subOrderRepo) ListBySellerID(_ context.Context, sellerID int64, status string, page int, limit int) ([]model.SubOrder, int64, error) {
	all := sortedValues(r.st.subOrders, func(s model.SubOrder) int64 { return -s.ID })
	all = slices.DeleteFunc(all, func(s model.SubOrder) bool {
		return s.SellerID != sellerID || (status != "" && string(s.Status) != status)
	})
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *subOrderRepo) UpdateStatus(_ context.Context, u repo.SubOrderStatusUpdate) error {
	s, ok := r.st.subOrders[u.SubOrderID]
	if !ok {
		return repo.ErrNotFound
	}
	if s.Status != u.From {
		return repo.ErrConflict
	}
	s.Status = u.To
	s.StatusUpdatedAt = u.At
	if u.TrackingNumber != nil {
		s.TrackingNumber = u.TrackingNumber
	}
	if u.ShippingProvider != nil {
		s.ShippingProvider = u.ShippingProvider
	}
	r.st.subOrders[s.ID] = s
	return nil
}

// ---- order items ----

type orderItemRepo struct{ *txRepos }

func (r *orderItemRepo) CreateBulk(_ context.Context, orderID int64, items []model.OrderItem) error {
	now := r.now()
	for _, it := range items {
		if it.SubOrderID == 0 {
			return errors.New("order item without sub order")
		}
		it.ID = r.st.nextID("order_items")
		it.OrderID = orderID
		if it.CreatedAt.IsZero() {
			it.CreatedAt = now
		}
		r.st.orderItems[it.ID] = it
	}
	return nil
}

func (r *orderItemRepo) ListByOrderID(_ context.Context, orderID int64) ([]model.OrderItem, error) {
	all := sortedValues(r.st.orderItems, func(it model.OrderItem) int64 { return it.ID })
	return slices.DeleteFunc(all, func(it model.OrderItem) bool { return it.OrderID != orderID }), nil
}

func (r *orderItemRepo) ListBySubOrderID(_ context.Context, subOrderID int64) ([]model.OrderItem, error) {
	all := sortedValues(r.st.orderItems, func(it model.OrderItem) int64 { return it.ID })
	return slices.DeleteFunc(all, func(it model.OrderItem) bool { return it.SubOrderID != subOrderID }), nil
}

// ---- carts ----

type cartRepo struct{ *txRepos }

func (r *cartRepo) FindActiveByCustomerID(_ context.Context, customerID int64) (model.Cart, error) {
	all := sortedValues(r.st.carts, func(c model.Cart) int64 { return -c.ID })
	for _, c := range all {
		if c.CustomerID == customerID && c.Status == model.CartStatusActive {
			return c, nil
		}
	}
	return model.Cart{}, repo.ErrNotFound
}

func (r *cartRepo) GetOrCreateActiveByCustomerID(ctx context.Context, customerID int64) (model.Cart, error) {
	c, err := r.FindActiveByCustomerID(ctx, customerID)
	if err == nil {
		return c, nil
	}
	now := r.now()
	c = model.Cart{
		ID:         r.st.nextID("carts"),
		CustomerID: customerID,
		Status:     model.CartStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.st.carts[c.ID] = c
	return c, nil
}

func (r *cartRepo) UpdateStatus(_ context.Context, cartID int64, status model.CartStatus) error {
	c, ok := r.st.carts[cartID]
	if !ok {
		return repo.ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = r.now()
	r.st.carts[cartID] = c
	return nil
}

func (r *cartRepo) Clear(_ context.Context, cartID int64) error {
	for id, it := range r.st.cartItems {
		if it.CartID == cartID {
			delete(r.st.cartItems, id)
		}
	}
	return nil
}

type cartItemRepo struct{ *txRepos }

func (r *cartItemRepo) ListByCartID(_ context.Context, cartID int64) ([]model.CartItem, error) {
	all := sortedValues(r.st.cartItems, func(it model.CartItem) int64 { return it.ID })
	return slices.DeleteFunc(all, func(it model.CartItem) bool { return it.CartID != cartID }), nil
}

func (r *cartItemRepo) UpsertByCartAndItem(_ context.Context, cartID int64, ref model.ItemRef, addQty int64, unitPriceSnapshot int64) error {
	if addQty <= 0 {
		return errors.New("invalid quantity")
	}
	now := r.now()
	for id, it := range r.st.cartItems {
		if it.CartID == cartID && sameRef(it.ProductID, it.VariantID, ref) {
			it.Quantity += addQty
			it.UpdatedAt = now
			r.st.cartItems[id] = it
			return nil
		}
	}
	it := model.CartItem{
		ID:                r.st.nextID("cart_items"),
		CartID:            cartID,
		ProductID:         ref.ProductID,
		VariantID:         ref.VariantID,
		Quantity:          addQty,
		UnitPriceSnapshot: unitPriceSnapshot,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	r.st.cartItems[it.ID] = it
	return nil
}

func (r *cartItemRepo) UpdateQuantity(_ context.Context, cartItemID int64, qty int64) error {
	it, ok := r.st.cartItems[cartItemID]
	if !ok {
		return repo.ErrNotFound
	}
	it.Quantity = qty
	it.UpdatedAt = r.now()
	r.st.cartItems[cartItemID] = it
	return nil
}

func (r *cartItemRepo) DeleteByID(_ context.Context, cartItemID int64) error {
	if _, ok := r.st.cartItems[cartItemID]; !ok {
		return repo.ErrNotFound
	}
	delete(r.st.cartItems, cartItemID)
	return nil
}

func (r *cartItemRepo) FindByID(_ context.Context, cartItemID int64) (model.CartItem, error) {
	it, ok := r.st.cartItems[cartItemID]
	if !ok {
		return model.CartItem{}, repo.ErrNotFound
	}
	return it, nil
}

func (r *cartItemRepo) IsOwnedByCustomer(_ context.Context, cartItemID int64, customerID int64) (bool, error) {
	it, ok := r.st.cartItems[cartItemID]
	if !ok {
		return false, nil
	}
	c, ok := r.st.carts[it.CartID]
	return ok && c.CustomerID == customerID, nil
}

// ---- inventory ----

type inventoryRepo struct{ *txRepos }

// 在庫の読み書き先（バリエーション or 商品）
func (r *inventoryRepo) stock(ref model.ItemRef) (int64, func(int64), error) {
	return r.lookup(ref, false)
}

// withDeleted: 論理削除済みの商品も対象にする（在庫戻し用）
func (r *inventoryRepo) lookup(ref model.ItemRef, withDeleted bool) (int64, func(int64), error) {
	if ref.HasVariant() {
		v, ok := r.st.variants[*ref.VariantID]
		if !ok || v.ProductID != ref.ProductID {
			return 0, nil, repo.ErrNotFound
		}
		return v.Stock, func(n int64) {
			v.Stock = n
			v.UpdatedAt = r.now()
			r.st.variants[v.ID] = v
		}, nil
	}
	p, ok := r.st.products[ref.ProductID]
	if !ok || (p.DeletedAt.Valid && !withDeleted) {
		return 0, nil, repo.ErrNotFound
	}
	return p.Stock, func(n int64) {
		p.Stock = n
		p.UpdatedAt = r.now()
		r.st.products[p.ID] = p
	}, nil
}

func (r *inventoryRepo) DecreaseStockIfEnough(_ context.Context, ref model.ItemRef, qty int64) (bool, error) {
	cur, set, err := r.stock(ref)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if cur < qty {
		return false, nil
	}
	set(cur - qty)
	return true, nil
}

func (r *inventoryRepo) IncreaseStock(_ context.Context, ref model.ItemRef, qty int64) error {
	cur, set, err := r.lookup(ref, true)
	if err != nil {
		return err
	}
	set(cur + qty)
	return nil
}

func (r *inventoryRepo) CurrentStock(_ context.Context, ref model.ItemRef) (int64, error) {
	cur, _, err := r.stock(ref)
	return cur, err
}

func (r *inventoryRepo) SetStock(_ context.Context, ref model.ItemRef, newStock int64) (int64, error) {
	if newStock < 0 {
		return 0, errors.New("stock must not be negative")
	}
	cur, set, err := r.stock(ref)
	if err != nil {
		return 0, err
	}
	set(newStock)
	return cur, nil
}

func (r *inventoryRepo) CreateAdjustment(_ context.Context, a model.InventoryAdjustment) error {
	a.ID = r.st.nextID("inventory_adjustments")
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now()
	}
	r.st.adjustments = append(r.st.adjustments, a)
	return nil
}

// ---- products ----

type productRepo struct{ *txRepos }

func (r *productRepo) FindByID(_ context.Context, id int64) (model.Product, error) {
	p, ok := r.st.products[id]
	if !ok || p.DeletedAt.Valid {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *productRepo) FindVariantByID(_ context.Context, variantID int64) (model.ProductVariant, error) {
	v, ok := r.st.variants[variantID]
	if !ok {
		return model.ProductVariant{}, repo.ErrNotFound
	}
	return v, nil
}

func (r *productRepo) GetCurrentPriceAndStock(ctx context.Context, productID int64, variantID *int64) (repo.CatalogEntry, error) {
	p, err := r.FindByID(ctx, productID)
	if err != nil {
		return repo.CatalogEntry{}, err
	}
	ref := model.ItemRef{ProductID: productID, VariantID: variantID}
	entry := repo.CatalogEntry{
		Ref:         ref,
		SellerID:    p.SellerID,
		Name:        p.Name,
		Price:       p.Price,
		Stock:       p.Stock,
		IsAvailable: p.IsActive,
	}
	if !ref.HasVariant() {
		return entry, nil
	}
	v, err := r.FindVariantByID(ctx, *variantID)
	if err != nil {
		return repo.CatalogEntry{}, err
	}
	if v.ProductID != p.ID {
		return repo.CatalogEntry{}, repo.ErrNotFound
	}
	entry.Name = p.Name + " / " + v.Name
	entry.Price = v.EffectivePrice(p.Price)
	entry.Stock = v.Stock
	entry.IsAvailable = p.IsActive && v.IsActive
	return entry, nil
}

// ---- coupons ----

type couponRepo struct{ *txRepos }

func (r *couponRepo) FindByCode(_ context.Context, code string) (model.Coupon, error) {
	for _, c := range r.st.coupons {
		if c.Code == code {
			return c, nil
		}
	}
	return model.Coupon{}, repo.ErrNotFound
}

func (r *couponRepo) IncrementUsageIfBelowLimit(_ context.Context, couponID int64) (bool, error) {
	c, ok := r.st.coupons[couponID]
	if !ok {
		return false, nil
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return false, nil
	}
	c.UsedCount++
	c.UpdatedAt = r.now()
	r.st.coupons[couponID] = c
	return true, nil
}

func (r *couponRepo) ListAssignments(_ context.Context, couponID int64, customerID int64) ([]model.UserCoupon, error) {
	all := sortedValues(r.st.userCoupons, func(uc model.UserCoupon) int64 { return uc.ID })
	return slices.DeleteFunc(all, func(uc model.UserCoupon) bool {
		return uc.CouponID != couponID || uc.CustomerID != customerID
	}), nil
}

func (r *couponRepo) MarkUserCouponUsed(_ context.Context, userCouponID int64, orderID *int64, at time.Time) (bool, error) {
	uc, ok := r.st.userCoupons[userCouponID]
	if !ok || uc.IsUsed {
		return false, nil
	}
	uc.IsUsed = true
	uc.UsedAt = &at
	uc.OrderID = orderID
	r.st.userCoupons[userCouponID] = uc
	return true, nil
}

func (r *couponRepo) FindUserCouponByID(_ context.Context, userCouponID int64) (model.UserCoupon, error) {
	uc, ok := r.st.userCoupons[userCouponID]
	if !ok {
		return model.UserCoupon{}, repo.ErrNotFound
	}
	return uc, nil
}

// ---- addresses / audit logs ----

type addressRepo struct{ *txRepos }

func (r *addressRepo) FindByID(_ context.Context, addressID int64) (model.Address, error) {
	a, ok := r.st.addresses[addressID]
	if !ok {
		return model.Address{}, repo.ErrNotFound
	}
	return a, nil
}

type auditLogRepo struct{ *txRepos }

func (r *auditLogRepo) Create(_ context.Context, log model.AuditLog) error {
	log.ID = r.st.nextID("audit_logs")
	if log.CreatedAt.IsZero() {
		log.CreatedAt = r.now()
	}
	r.st.auditLogs = append(r.st.auditLogs, log)
	return nil
}

func (r *auditLogRepo) List(_ context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	out := make([]model.AuditLog, 0)
	for i := len(r.st.auditLogs) - 1; i >= 0; i-- {
		l := r.st.auditLogs[i]
		switch {
		case f.ActorUserID != nil && l.ActorUserID != *f.ActorUserID,
			f.ActorRole != nil && l.ActorRole != *f.ActorRole,
			f.OrderID != nil && !r.inOrderTrail(l, *f.OrderID),
			f.Action != nil && l.Action != *f.Action,
			f.ResourceType != nil && l.ResourceType != *f.ResourceType,
			f.ResourceID != nil && l.ResourceID != *f.ResourceID,
			f.CreatedFrom != nil && l.CreatedAt.Before(*f.CreatedFrom),
			f.CreatedTo != nil && l.CreatedAt.After(*f.CreatedTo):
			continue
		}
		out = append(out, l)
	}
	limit := f.Limit
	if limit <= 0 || limit > repo.MaxAuditLogLimit {
		limit = repo.DefaultAuditLogLimit
	}
	offset := max(f.Offset, 0)
	if offset >= len(out) {
		return []model.AuditLog{}, nil
	}
	return out[offset:min(offset+limit, len(out))], nil
}

func (r *auditLogRepo) inOrderTrail(l model.AuditLog, orderID int64) bool {
	switch l.ResourceType {
	case model.AuditResourceOrder:
		return l.ResourceID == orderID
	case model.AuditResourceSubOrder:
		so, ok := r.st.subOrders[l.ResourceID]
		return ok && so.OrderID == orderID
	}
	return false
}
