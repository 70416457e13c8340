package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"

	"marketplace/internal/domain/model"
	"marketplace/internal/notify"
	repo "marketplace/internal/repository"

	"github.com/sirupsen/logrus"
)

// 注文入力の形式チェック（DBを見ない）。実装はinternal/validator
type CheckoutValidator interface {
	ValidateCheckout(customerID int64, in CheckoutInput) error
}

type CheckoutLine struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Quantity  int64  `json:"quantity"`
}

func (l CheckoutLine) Ref() model.ItemRef {
	return model.ItemRef{ProductID: l.ProductID, VariantID: l.VariantID}
}

// Itemsが空ならACTIVEカートの中身を使う
type CheckoutInput struct {
	AddressID      int64
	Items          []CheckoutLine
	CouponCode     string
	PaymentMethod  model.PaymentMethod
	IdempotencyKey string
}

// 同じキーの注文が同時に作られたとき、rollbackして読み直すための合図
var errIdempotentReplay = errors.New("idempotent replay")

type CheckoutUsecase struct {
	tx        repo.TransactionManager
	validator CheckoutValidator
	shipping  ShippingPolicy
	tax       TaxPolicy
	deps      Deps
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	validator CheckoutValidator,
	shipping ShippingPolicy,
	tax TaxPolicy,
	deps Deps,
) *CheckoutUsecase {
	if shipping == nil {
		shipping = NoShipping{}
	}
	if tax == nil {
		tax = NoTax{}
	}
	return &CheckoutUsecase{
		tx:        tx,
		validator: validator,
		shipping:  shipping,
		tax:       tax,
		deps:      deps.withDefaults(),
	}
}

// 価格確定済みの1行
type pricedLine struct {
	ref      model.ItemRef
	sellerID int64
	name     string
	price    int64
	quantity int64
}

type sellerBucket struct {
	group SellerGroup
	lines []pricedLine
}

func (u *CheckoutUsecase) Checkout(ctx context.Context, customerID int64, in CheckoutInput) (OrderOutput, error) {
	out, err := u.checkout(ctx, customerID, in)
	if err != nil {
		code := string(CodeInternal)
		if he, ok := AsHTTPError(err); ok {
			code = string(he.Code)
		}
		u.deps.Metrics.CheckoutFailed(code)
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *CheckoutUsecase) checkout(ctx context.Context, customerID int64, in CheckoutInput) (OrderOutput, error) {
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
	if u.validator != nil {
		if err := u.validator.ValidateCheckout(customerID, in); err != nil {
			if _, ok := AsHTTPError(err); ok {
				return OrderOutput{}, err
			}
			return OrderOutput{}, ErrValidation(err.Error())
		}
	}

	var (
		out     OrderOutput
		created bool
		coupon  CouponValidation
		sellers []int64
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if in.IdempotencyKey != "" {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, customerID, in.IdempotencyKey)
			if err != nil {
				return persistenceError(err)
			}
			if found {
				//同じキーなら同じ結果（予約はしない）
				out, err = loadOrderOutput(ctx, r, existing)
				return err
			}
		}

		//ACTIVEカート（無ければnil）
		var cart *model.Cart
		c, err := r.Carts().FindActiveByCustomerID(ctx, customerID)
		switch {
		case err == nil:
			cart = &c
		case !errors.Is(err, repo.ErrNotFound):
			return persistenceError(err)
		}

		lines := in.Items
		fromCart := len(lines) == 0
		if fromCart && cart != nil {
			items, err := r.CartItems().ListByCartID(ctx, cart.ID)
			if err != nil {
				return persistenceError(err)
			}
			for _, ci := range items {
				lines = append(lines, CheckoutLine{ProductID: ci.ProductID, VariantID: ci.VariantID, Quantity: ci.Quantity})
			}
		}
		if len(lines) == 0 {
			return ErrEmptyCart()
		}
		lines = mergeCheckoutLines(lines)

		//住所の存在確認＋所有チェック
		addr, err := r.Addresses().FindByID(ctx, in.AddressID)
		if err != nil {
			return lookupError(err, "address")
		}
		if addr.UserID != customerID {
			return ErrForbidden("address does not belong to customer")
		}

		//現在の価格・公開状態を読む
		priced := make([]pricedLine, 0, len(lines))
		for _, l := range lines {
			entry, err := r.Products().GetCurrentPriceAndStock(ctx, l.ProductID, l.VariantID)
			if errors.Is(err, repo.ErrNotFound) {
				return ErrProductUnavailable(l.Ref())
			}
			if err != nil {
				return persistenceError(err)
			}
			if !entry.IsAvailable {
				return ErrProductUnavailable(l.Ref())
			}
			priced = append(priced, pricedLine{
				ref:      l.Ref(),
				sellerID: entry.SellerID,
				name:     entry.Name,
				price:    entry.Price,
				quantity: l.Quantity,
			})
		}

		buckets := groupBySeller(priced)
		groups := make([]SellerGroup, 0, len(buckets))
		var total int64
		for _, b := range buckets {
			groups = append(groups, b.group)
			sellers = append(sellers, b.group.SellerID)
			total += b.group.Subtotal
		}

		var discount int64
		var cv *CouponValidator
		if code := strings.TrimSpace(in.CouponCode); code != "" {
			cv = NewCouponValidator(r.Coupons(), r.Orders(), u.deps.Clock)
			coupon, err = cv.Validate(ctx, customerID, code, total)
			if err != nil {
				return err
			}
			if !coupon.IsValid {
				return ErrCouponInvalid(coupon.Message)
			}
			discount = coupon.DiscountAmount
		}

		shippingFee := u.shipping.ShippingFee(addr, groups)
		tax := u.tax.Tax(addr, total-discount)
		final := model.ComputeFinalAmount(total, discount, shippingFee, tax)

		//在庫予約（失敗したら予約済みを戻してエラー）
		ledger := NewStockLedger(r.Inventory())
		stock := make([]StockLine, 0, len(priced))
		for _, b := range buckets {
			for _, l := range b.lines {
				stock = append(stock, StockLine{Ref: l.ref, Quantity: l.quantity})
			}
		}
		if err := ledger.ReserveAll(ctx, stock); err != nil {
			return err
		}

		var couponID *int64
		if coupon.Coupon != nil {
			if err := cv.ConsumeGlobalUsage(ctx, coupon.Coupon.ID); err != nil {
				return err
			}
			id := coupon.Coupon.ID
			couponID = &id
		}

		now := u.deps.Clock.Now()
		order := model.Order{
			OrderNumber:    u.deps.NewOrderNumber(),
			CustomerID:     customerID,
			AddressID:      in.AddressID,
			CouponID:       couponID,
			TotalAmount:    total,
			DiscountAmount: discount,
			ShippingFee:    shippingFee,
			TaxAmount:      tax,
			FinalAmount:    final,
			PaymentMethod:  in.PaymentMethod,
			PaymentStatus:  model.PaymentStatusPending,
			Status:         model.OrderStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if in.IdempotencyKey != "" {
			key := in.IdempotencyKey
			order.IdempotencyKey = &key
		}
		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			if errors.Is(err, repo.ErrConflict) && in.IdempotencyKey != "" {
				return errIdempotentReplay
			}
			return persistenceError(err)
		}
		order.ID = orderID

		subs := make([]model.SubOrder, 0, len(buckets))
		for _, b := range buckets {
			subs = append(subs, model.SubOrder{
				OrderID:         orderID,
				SellerID:        b.group.SellerID,
				Subtotal:        b.group.Subtotal,
				Status:          model.SubOrderStatusPending,
				StatusUpdatedAt: now,
				CreatedAt:       now,
			})
		}
		subs, err = r.SubOrders().CreateBulk(ctx, orderID, subs)
		if err != nil {
			return persistenceError(err)
		}

		items := make([]model.OrderItem, 0, len(priced))
		for i, b := range buckets {
			for _, l := range b.lines {
				items = append(items, model.OrderItem{
					SubOrderID:          subs[i].ID,
					OrderID:             orderID,
					ProductID:           l.ref.ProductID,
					VariantID:           l.ref.VariantID,
					ProductNameSnapshot: l.name,
					Quantity:            l.quantity,
					PriceAtPurchase:     l.price,
					TotalPrice:          l.price * l.quantity,
					CreatedAt:           now,
				})
			}
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, items); err != nil {
			return persistenceError(err)
		}

		if err := ledger.Journal(ctx, &orderID, customerID, now); err != nil {
			return err
		}

		//カートをクリア（カートから注文したときはCHECKED_OUTにする）
		if cart != nil {
			if fromCart {
				if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
					return persistenceError(err)
				}
			}
			if err := r.Carts().Clear(ctx, cart.ID); err != nil {
				return persistenceError(err)
			}
		}

		out, err = loadOrderOutput(ctx, r, order)
		if err != nil {
			return err
		}
		created = true
		return nil
	})

	if errors.Is(err, errIdempotentReplay) {
		return u.replay(ctx, customerID, in.IdempotencyKey)
	}
	if err != nil {
		return OrderOutput{}, err
	}
	if !created {
		return out, nil
	}

	//使用済み化はcommit後。失敗しても注文は有効
	if coupon.UserCoupon != nil {
		orderID := out.ID
		err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			return NewCouponValidator(r.Coupons(), r.Orders(), u.deps.Clock).MarkUsed(ctx, coupon.UserCoupon.ID, &orderID)
		})
		if err != nil {
			u.deps.Logger.WithFields(logrus.Fields{
				"order_id":       out.ID,
				"user_coupon_id": coupon.UserCoupon.ID,
			}).WithError(err).Warn("failed to mark coupon used")
			out.Warnings = append(out.Warnings, "coupon usage could not be recorded")
		}
	}

	u.deps.Metrics.CheckoutSucceeded(len(out.SubOrders), out.FinalAmount)
	for _, s := range out.SubOrders {
		for _, it := range s.Items {
			u.deps.Metrics.StockMoved(string(model.AdjustmentReserve), it.Quantity)
		}
	}
	u.deps.publish(ctx, notify.Event{
		Type:       notify.EventOrderCreated,
		OrderID:    out.ID,
		CustomerID: customerID,
		SellerIDs:  sellers,
		To:         out.Status,
		Amount:     out.FinalAmount,
		OccurredAt: out.CreatedAt,
	})
	return out, nil
}

// 同時に同じキーで作られた注文を読み直す
func (u *CheckoutUsecase) replay(ctx context.Context, customerID int64, key string) (OrderOutput, error) {
	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, customerID, key)
		if err != nil {
			return persistenceError(err)
		}
		if !found {
			return newCodeError(CodeConflict, "idempotency conflict")
		}
		out, err = loadOrderOutput(ctx, r, existing)
		return err
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 同じ商品・同じバリエーションの行はまとめる（最初に出た順）
func mergeCheckoutLines(lines []CheckoutLine) []CheckoutLine {
	merged := make([]CheckoutLine, 0, len(lines))
	index := map[string]int{}
	for _, l := range lines {
		k := l.Ref().Key()
		if i, ok := index[k]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[k] = len(merged)
		merged = append(merged, l)
	}
	return merged
}

// 出品者IDの昇順でまとめる
func groupBySeller(lines []pricedLine) []sellerBucket {
	byID := map[int64]*sellerBucket{}
	for _, l := range lines {
		b, ok := byID[l.sellerID]
		if !ok {
			b = &sellerBucket{group: SellerGroup{SellerID: l.sellerID}}
			byID[l.sellerID] = b
		}
		b.lines = append(b.lines, l)
		b.group.Subtotal += l.price * l.quantity
		b.group.Units += l.quantity
	}
	out := make([]sellerBucket, 0, len(byID))
	for _, b := range byID {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].group.SellerID < out[j].group.SellerID })
	return out
}
