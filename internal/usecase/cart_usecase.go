package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"
)

// CartUsecase は /cart の業務ロジック。
// カートは (user_id, product_id) で1行、価格は表示時に商品から読む。
type CartUsecase struct {
	carts    repo.CartRepository
	products repo.ProductRepository
	pricing  model.PricingPolicy
	logger   *slog.Logger
}

func NewCartUsecase(carts repo.CartRepository, products repo.ProductRepository, pricing model.PricingPolicy, logger *slog.Logger) *CartUsecase {
	return &CartUsecase{carts: carts, products: products, pricing: pricing, logger: logger}
}

type CartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Note      string `json:"note,omitempty"`
	Available bool   `json:"available"`
}

// 送料は見込み（確定はcheckout時）
type CartResponse struct {
	Items       []CartItemResponse `json:"items"`
	Total       int64              `json:"total"`
	ShippingFee int64              `json:"shipping_fee"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
	Note      string
}

type UpdateCartItemInput struct {
	Quantity int64
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized()
	}
	return u.buildCartResponse(ctx, userID)
}

// 同一商品は数量加算
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized()
	}
	if in.ProductID <= 0 {
		return CartResponse{}, errValidation("invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, errValidation("invalid quantity")
	}
	note := strings.TrimSpace(in.Note)
	if len(note) > 255 {
		return CartResponse{}, errValidation("note too long")
	}

	p, err := u.activeProduct(ctx, in.ProductID)
	if err != nil {
		return CartResponse{}, err
	}

	items, err := u.carts.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, u.internal(ctx, "list cart failed", err)
	}
	var existingQty int64
	for _, it := range items {
		if it.ProductID == in.ProductID {
			existingQty = it.Quantity
			break
		}
	}
	if existingQty+in.Quantity > p.Stock {
		return CartResponse{}, errBusiness(CodeInsufficientStock, "stock exceeded")
	}

	if _, err := u.carts.Upsert(ctx, userID, in.ProductID, in.Quantity, note); err != nil {
		return CartResponse{}, u.internal(ctx, "upsert cart item failed", err)
	}
	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized()
	}
	if cartItemID <= 0 {
		return CartResponse{}, errValidation("invalid id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, errValidation("invalid quantity")
	}

	item, err := u.ownedItem(ctx, userID, cartItemID)
	if err != nil {
		return CartResponse{}, err
	}

	p, err := u.activeProduct(ctx, item.ProductID)
	if err != nil {
		return CartResponse{}, err
	}
	if in.Quantity > p.Stock {
		return CartResponse{}, errBusiness(CodeInsufficientStock, "stock exceeded")
	}

	if err := u.carts.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, errNotFound()
		}
		return CartResponse{}, u.internal(ctx, "update cart item failed", err)
	}
	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID int64, cartItemID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized()
	}
	if cartItemID <= 0 {
		return CartResponse{}, errValidation("invalid id")
	}

	if _, err := u.ownedItem(ctx, userID, cartItemID); err != nil {
		return CartResponse{}, err
	}
	if err := u.carts.DeleteByID(ctx, cartItemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, errNotFound()
		}
		return CartResponse{}, u.internal(ctx, "delete cart item failed", err)
	}
	return u.buildCartResponse(ctx, userID)
}

// 他人の明細は404
func (u *CartUsecase) ownedItem(ctx context.Context, userID, cartItemID int64) (model.CartItem, error) {
	item, err := u.carts.FindByID(ctx, cartItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartItem{}, errNotFound()
	}
	if err != nil {
		return model.CartItem{}, u.internal(ctx, "find cart item failed", err)
	}
	if item.UserID != userID {
		return model.CartItem{}, errNotFound()
	}
	return item, nil
}

func (u *CartUsecase) activeProduct(ctx context.Context, productID int64) (model.Product, error) {
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, errBusiness(CodeProductInactive, "product is not available")
	}
	if err != nil {
		return model.Product{}, u.internal(ctx, "find product failed", err)
	}
	if !p.IsActive() {
		return model.Product{}, errBusiness(CodeProductInactive, "product is not available")
	}
	return p, nil
}

// 販売停止の商品は行を残したまま合計から外す（checkoutで弾かれる）
func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64) (CartResponse, error) {
	items, err := u.carts.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, u.internal(ctx, "list cart failed", err)
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := u.products.FindByIDs(ctx, ids)
	if err != nil {
		return CartResponse{}, u.internal(ctx, "load products failed", err)
	}

	resp := CartResponse{Items: make([]CartItemResponse, 0, len(items))}
	for _, it := range items {
		p, ok := products[it.ProductID]
		row := CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Note:      it.Note,
		}
		if ok {
			row.Name = p.Name
			row.ImageURL = p.ImageURL
			row.Price = p.Price
			row.Available = p.IsActive() && p.Stock >= it.Quantity
		}
		if row.Available {
			resp.Total += p.Price * it.Quantity
		}
		resp.Items = append(resp.Items, row)
	}
	if len(resp.Items) > 0 {
		resp.ShippingFee = u.pricing.ShippingFeeFor(resp.Total)
	}
	return resp, nil
}

func (u *CartUsecase) internal(ctx context.Context, msg string, err error) error {
	u.logger.ErrorContext(ctx, msg, slog.Any("error", err))
	return errInternal()
}
