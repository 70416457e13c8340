package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// プロセス内ストア（開発用・テスト用）
// トランザクションは1本ずつ直列に実行し、失敗したら変更を捨てる
type Store struct {
	mu   sync.Mutex
	data *state
	now  func() time.Time
}

type state struct {
	products    map[int64]model.Product
	variants    map[int64]model.ProductVariant
	addresses   map[int64]model.Address
	carts       map[int64]model.Cart
	cartItems   map[int64]model.CartItem
	coupons     map[int64]model.Coupon
	userCoupons map[int64]model.UserCoupon
	orders      map[int64]model.Order
	subOrders   map[int64]model.SubOrder
	orderItems  map[int64]model.OrderItem
	adjustments []model.InventoryAdjustment
	auditLogs   []model.AuditLog
	seq         map[string]int64
}

func newState() *state {
	return &state{
		products:    map[int64]model.Product{},
		variants:    map[int64]model.ProductVariant{},
		addresses:   map[int64]model.Address{},
		carts:       map[int64]model.Cart{},
		cartItems:   map[int64]model.CartItem{},
		coupons:     map[int64]model.Coupon{},
		userCoupons: map[int64]model.UserCoupon{},
		orders:      map[int64]model.Order{},
		subOrders:   map[int64]model.SubOrder{},
		orderItems:  map[int64]model.OrderItem{},
		seq:         map[string]int64{},
	}
}

// 値はコピー、ポインタ項目は共有（更新時は構造体ごと差し替える）
func (s *state) clone() *state {
	return &state{
		products:    maps.Clone(s.products),
		variants:    maps.Clone(s.variants),
		addresses:   maps.Clone(s.addresses),
		carts:       maps.Clone(s.carts),
		cartItems:   maps.Clone(s.cartItems),
		coupons:     maps.Clone(s.coupons),
		userCoupons: maps.Clone(s.userCoupons),
		orders:      maps.Clone(s.orders),
		subOrders:   maps.Clone(s.subOrders),
		orderItems:  maps.Clone(s.orderItems),
		adjustments: slices.Clone(s.adjustments),
		auditLogs:   slices.Clone(s.auditLogs),
		seq:         maps.Clone(s.seq),
	}
}

func (s *state) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func NewStore() *Store {
	return &Store{data: newState(), now: time.Now}
}

var _ repo.TransactionManager = (*Store)(nil)

func (s *Store) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&txRepos{st: work, now: s.now}); err != nil {
		return err
	}
	s.data = work
	return nil
}

// 1操作ずつコミットする（トランザクション外のリポジトリ呼び出し用）
func (s *Store) auto(ctx context.Context, fn func(r *txRepos) error) error {
	return s.WithinTx(ctx, func(r repo.TxRepos) error {
		return fn(r.(*txRepos))
	})
}

type txRepos struct {
	st  *state
	now func() time.Time
}

func (r *txRepos) Orders() repo.OrderRepository         { return &orderRepo{r} }
func (r *txRepos) SubOrders() repo.SubOrderRepository   { return &subOrderRepo{r} }
func (r *txRepos) OrderItems() repo.OrderItemRepository { return &orderItemRepo{r} }
func (r *txRepos) Carts() repo.CartRepository           { return &cartRepo{r} }
func (r *txRepos) CartItems() repo.CartItemRepository   { return &cartItemRepo{r} }
func (r *txRepos) Inventory() repo.InventoryRepository  { return &inventoryRepo{r} }
func (r *txRepos) Products() repo.ProductRepository     { return &productRepo{r} }
func (r *txRepos) Coupons() repo.CouponRepository       { return &couponRepo{r} }
func (r *txRepos) Addresses() repo.AddressRepository    { return &addressRepo{r} }
func (r *txRepos) AuditLogs() repo.AuditLogRepository   { return &auditLogRepo{r} }

// 初期データ投入。IDが0なら採番する
func (s *Store) AddProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.data.nextID("products")
	} else if p.ID > s.data.seq["products"] {
		s.data.seq["products"] = p.ID
	}
	s.data.products[p.ID] = p
	return p
}

func (s *Store) AddVariant(v model.ProductVariant) model.ProductVariant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == 0 {
		v.ID = s.data.nextID("product_variants")
	} else if v.ID > s.data.seq["product_variants"] {
		s.data.seq["product_variants"] = v.ID
	}
	s.data.variants[v.ID] = v
	return v
}

func (s *Store) AddAddress(a model.Address) model.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.data.nextID("addresses")
	} else if a.ID > s.data.seq["addresses"] {
		s.data.seq["addresses"] = a.ID
	}
	s.data.addresses[a.ID] = a
	return a
}

func (s *Store) AddCoupon(c model.Coupon) model.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.data.nextID("coupons")
	} else if c.ID > s.data.seq["coupons"] {
		s.data.seq["coupons"] = c.ID
	}
	c.Code = model.NormalizeCouponCode(c.Code)
	s.data.coupons[c.ID] = c
	return c
}

func (s *Store) AddUserCoupon(uc model.UserCoupon) model.UserCoupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uc.ID == 0 {
		uc.ID = s.data.nextID("user_coupons")
	} else if uc.ID > s.data.seq["user_coupons"] {
		s.data.seq["user_coupons"] = uc.ID
	}
	s.data.userCoupons[uc.ID] = uc
	return uc
}

// 参照用（テスト・デバッグ）
func (s *Store) Product(id int64) (model.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.products[id]
	return p, ok
}

func (s *Store) Variant(id int64) (model.ProductVariant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data.variants[id]
	return v, ok
}

func (s *Store) Coupon(id int64) (model.Coupon, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.coupons[id]
	return c, ok
}

func (s *Store) UserCoupon(id int64) (model.UserCoupon, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uc, ok := s.data.userCoupons[id]
	return uc, ok
}

func (s *Store) Orders() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.data.orders, func(o model.Order) int64 { return o.ID })
}

func (s *Store) Adjustments() []model.InventoryAdjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.data.adjustments)
}

func (s *Store) AuditLogs() []model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.data.auditLogs)
}

func sortedValues[T any](m map[int64]T, id func(T) int64) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int {
		return cmp.Compare(id(a), id(b))
	})
	return out
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 || limit < 1 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}
