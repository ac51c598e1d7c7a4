package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cafeshop/internal/domain/model"
	repo "cafeshop/internal/repository"
)

// 編集・削除でゲートウェイ価格のキャッシュを捨てる
type PriceInvalidator interface {
	Invalidate(cafeID int64)
}

type CafeUsecase struct {
	cafeRepo  repo.CafeRepository
	auditRepo repo.AuditLogRepository
	txm       repo.TransactionManager
	prices    PriceInvalidator
	currency  string
}

// DI
func NewCafeUsecase(
	cafeRepo repo.CafeRepository,
	auditRepo repo.AuditLogRepository,
	txm repo.TransactionManager,
	prices PriceInvalidator,
	currency string,
) *CafeUsecase {
	return &CafeUsecase{
		cafeRepo:  cafeRepo,
		auditRepo: auditRepo,
		txm:       txm,
		prices:    prices,
		currency:  strings.ToLower(currency),
	}
}

// フォーム・取り込みファイルから変換済みの値
type CafeInput struct {
	Name         string
	MapURL       string
	ImgURL       string
	Location     string
	Seats        string
	HasToilet    bool
	HasWifi      bool
	HasSockets   bool
	CanTakeCalls bool
	Price        int64
}

func (in CafeInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if strings.TrimSpace(in.Location) == "" {
		return NewHTTPError(http.StatusBadRequest, "location required")
	}
	if strings.TrimSpace(in.MapURL) == "" || strings.TrimSpace(in.ImgURL) == "" {
		return NewHTTPError(http.StatusBadRequest, "map_url and img_url required")
	}
	if strings.TrimSpace(in.Seats) == "" {
		return NewHTTPError(http.StatusBadRequest, "seats required")
	}
	if in.Price < 0 {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	return nil
}

func (u *CafeUsecase) toModel(in CafeInput) model.Cafe {
	return model.Cafe{
		Name:         strings.TrimSpace(in.Name),
		MapURL:       strings.TrimSpace(in.MapURL),
		ImgURL:       strings.TrimSpace(in.ImgURL),
		Location:     strings.TrimSpace(in.Location),
		Seats:        strings.TrimSpace(in.Seats),
		HasToilet:    in.HasToilet,
		HasWifi:      in.HasWifi,
		HasSockets:   in.HasSockets,
		CanTakeCalls: in.CanTakeCalls,
		Price:        in.Price,
		Currency:     u.currency,
	}
}

func (u *CafeUsecase) ListAll(ctx context.Context) ([]model.Cafe, error) {
	cafes, err := u.cafeRepo.ListAll(ctx)
	if err != nil {
		return []model.Cafe{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return cafes, nil
}

func (u *CafeUsecase) Get(ctx context.Context, cafeID int64) (model.Cafe, error) {
	if cafeID <= 0 {
		return model.Cafe{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	c, err := u.cafeRepo.FindByID(ctx, cafeID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cafe{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Cafe{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

// ログインユーザーなら誰でも追加できる
func (u *CafeUsecase) Create(ctx context.Context, actorID int64, in CafeInput) (model.Cafe, error) {
	if actorID <= 0 {
		return model.Cafe{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return model.Cafe{}, err
	}

	var created model.Cafe
	err := u.txm.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Cafes().Create(ctx, u.toModel(in))
		if err != nil {
			return err
		}
		created = c
		return r.AuditLogs().Create(ctx, auditEntry(actorID, model.AuditActionCreateCafe, c.ID, nil, c))
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return model.Cafe{}, NewHTTPError(http.StatusConflict, "cafe already exists")
	}
	if err != nil {
		return model.Cafe{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

// 全項目を上書きする（管理者）
func (u *CafeUsecase) Update(ctx context.Context, actorID int64, cafeID int64, in CafeInput) (model.Cafe, error) {
	if actorID <= 0 {
		return model.Cafe{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return model.Cafe{}, err
	}

	var updated model.Cafe
	err := u.txm.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Cafes().FindByID(ctx, cafeID)
		if err != nil {
			return err
		}
		after := u.toModel(in)
		after.ID = before.ID
		after.CreatedAt = before.CreatedAt
		after.UpdatedAt = time.Now()
		if err := r.Cafes().Update(ctx, after); err != nil {
			return err
		}
		updated = after
		return r.AuditLogs().Create(ctx, auditEntry(actorID, model.AuditActionUpdateCafe, cafeID, before, after))
	})
	if err != nil {
		return model.Cafe{}, cafeWriteError(err)
	}

	u.prices.Invalidate(cafeID)
	return updated, nil
}

// カフェと、それを参照するカート明細を同じTxで消す
func (u *CafeUsecase) Delete(ctx context.Context, actorID int64, cafeID int64) error {
	if actorID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	err := u.txm.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Cafes().FindByID(ctx, cafeID)
		if err != nil {
			return err
		}
		if _, err := r.CartItems().DeleteByCafeID(ctx, cafeID); err != nil {
			return err
		}
		if err := r.Cafes().Delete(ctx, cafeID); err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, auditEntry(actorID, model.AuditActionDeleteCafe, cafeID, before, nil))
	})
	if err != nil {
		return cafeWriteError(err)
	}

	u.prices.Invalidate(cafeID)
	return nil
}

type ImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// 不正・重複の行は飛ばして数える。監査ログは1件だけ
func (u *CafeUsecase) Import(ctx context.Context, actorID int64, rows []CafeInput) (ImportResult, error) {
	var res ImportResult
	if actorID <= 0 {
		return res, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	for i, in := range rows {
		if err := in.validate(); err != nil {
			he, _ := AsHTTPError(err)
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %s", i+1, he.Message))
			continue
		}
		if _, err := u.cafeRepo.Create(ctx, u.toModel(in)); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				res.Skipped++
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: duplicate name %q", i+1, in.Name))
				continue
			}
			return res, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		res.Created++
	}

	if err := u.auditRepo.Create(ctx, auditEntry(actorID, model.AuditActionImportCafes, 0, nil, res)); err != nil {
		return res, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return res, nil
}

func cafeWriteError(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, repo.ErrDuplicate):
		return NewHTTPError(http.StatusConflict, "cafe already exists")
	default:
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
}

// 「誰が」「何を」「どの対象に」「どう変えたか」を残す
func auditEntry(actorID int64, action model.AuditAction, resourceID int64, before, after any) model.AuditLog {
	return model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: model.AuditResourceCafe,
		ResourceID:   resourceID,
		BeforeJSON:   toJSON(before),
		AfterJSON:    toJSON(after),
		CreatedAt:    time.Now(),
	}
}

func toJSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
