package usecase

import (
	"context"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// 管理者・出品者向けの参照
type AdminOrderUsecase struct {
	tx repo.TransactionManager
}

func NewAdminOrderUsecase(tx repo.TransactionManager) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx}
}

// 注文一覧（status / customer / 期間で絞り込み）
func (u *AdminOrderUsecase) List(ctx context.Context, actor model.Actor, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	if !actor.IsAdmin() {
		return OrderListOutput{}, ErrForbidden("admin only")
	}
	if err := checkPaging(f.Page, f.Limit); err != nil {
		return OrderListOutput{}, err
	}
	if f.Status != "" {
		st, ok := model.ParseOrderStatus(f.Status)
		if !ok {
			return OrderListOutput{}, ErrInvalidStatusValue("order", f.Status)
		}
		f.Status = string(st)
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return OrderListOutput{}, ErrValidation("from must be before to")
	}

	out := OrderListOutput{Page: f.Page, Limit: f.Limit}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return persistenceError(err)
		}
		out.Total = total
		out.Items = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			oo, err := loadOrderOutput(ctx, r, o)
			if err != nil {
				return err
			}
			out.Items = append(out.Items, oo)
		}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

type SubOrderListOutput struct {
	Items []SubOrderOutput `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// 出品者の出品者別注文一覧（自分の分だけ）
func (u *AdminOrderUsecase) ListSellerSubOrders(ctx context.Context, actor model.Actor, status string, page, limit int) (SubOrderListOutput, error) {
	if actor.Role != model.RoleSeller {
		return SubOrderListOutput{}, ErrForbidden("seller only")
	}
	if err := checkPaging(page, limit); err != nil {
		return SubOrderListOutput{}, err
	}
	if status != "" {
		st, ok := model.ParseSubOrderStatus(status)
		if !ok {
			return SubOrderListOutput{}, ErrInvalidStatusValue("suborder", status)
		}
		status = string(st)
	}

	out := SubOrderListOutput{Page: page, Limit: limit}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		subs, total, err := r.SubOrders().ListBySellerID(ctx, actor.ID, status, page, limit)
		if err != nil {
			return persistenceError(err)
		}
		out.Total = total
		out.Items = make([]SubOrderOutput, 0, len(subs))
		for _, s := range subs {
			items, err := r.OrderItems().ListBySubOrderID(ctx, s.ID)
			if err != nil {
				return persistenceError(err)
			}
			out.Items = append(out.Items, toSubOrderOutput(s, items))
		}
		return nil
	})
	if err != nil {
		return SubOrderListOutput{}, err
	}
	return out, nil
}

// 期間パラメータ。空ならnil、形式不正ならfalse
func ParseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
