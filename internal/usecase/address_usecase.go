package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"
)

type AddressDTO struct {
	ID            int64   `json:"id"`
	UserID        int64   `json:"user_id"`
	RecipientName string  `json:"recipient_name"`
	Phone         string  `json:"phone"`
	Province      string  `json:"province"`
	District      string  `json:"district"`
	Ward          string  `json:"ward"`
	Street        string  `json:"street"`
	IsDefault     bool    `json:"is_default"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     *string `json:"updated_at,omitempty"`
}

type AddressInput struct {
	RecipientName string `json:"recipient_name" validate:"required,max=255"`
	Phone         string `json:"phone" validate:"required,max=30"`
	Province      string `json:"province" validate:"required,max=100"`
	District      string `json:"district" validate:"required,max=100"`
	Ward          string `json:"ward" validate:"max=100"`
	Street        string `json:"street" validate:"required,max=255"`
}

type AddressUsecase struct {
	addresses repo.AddressRepository
	clock     Clock
	logger    *slog.Logger
}

func NewAddressUsecase(addresses repo.AddressRepository, clock Clock, logger *slog.Logger) *AddressUsecase {
	return &AddressUsecase{addresses: addresses, clock: clock, logger: logger}
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]AddressDTO, error) {
	if userID <= 0 {
		return nil, errUnauthorized()
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, u.internal(ctx, "list addresses failed", err)
	}

	out := make([]AddressDTO, 0, len(list))
	for i := range list {
		out = append(out, toAddressDTO(&list[i]))
	}
	return out, nil
}

func (u *AddressUsecase) Create(ctx context.Context, userID int64, in AddressInput) (AddressDTO, error) {
	if userID <= 0 {
		return AddressDTO{}, errUnauthorized()
	}
	in = trimAddress(in)
	if in.RecipientName == "" || in.Phone == "" || in.Province == "" || in.District == "" || in.Street == "" {
		return AddressDTO{}, errValidation("validation error")
	}

	now := u.clock.Now()
	created, err := u.addresses.Create(ctx, model.Address{
		UserID:        userID,
		RecipientName: in.RecipientName,
		Phone:         in.Phone,
		Province:      in.Province,
		District:      in.District,
		Ward:          in.Ward,
		Street:        in.Street,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return AddressDTO{}, u.internal(ctx, "create address failed", err)
	}
	return toAddressDTO(&created), nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, in AddressInput) error {
	if err := u.checkOwner(ctx, userID, addressID); err != nil {
		return err
	}
	in = trimAddress(in)

	err := u.addresses.Update(ctx, model.Address{
		ID:            addressID,
		RecipientName: in.RecipientName,
		Phone:         in.Phone,
		Province:      in.Province,
		District:      in.District,
		Ward:          in.Ward,
		Street:        in.Street,
		UpdatedAt:     u.clock.Now(),
	})
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return u.internal(ctx, "update address failed", err)
	}
	return nil
}

// 注文が参照中の住所は消せない（409）
func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	if err := u.checkOwner(ctx, userID, addressID); err != nil {
		return err
	}

	err := u.addresses.Delete(ctx, addressID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return errNotFound()
	case errors.Is(err, repo.ErrInUse):
		u.logger.WarnContext(ctx, "address in use", slog.Int64("address_id", addressID))
		return errConflict(CodeConflict, "address is in use")
	case err != nil:
		return u.internal(ctx, "delete address failed", err)
	}
	return nil
}

// user内でdefaultは1つ
func (u *AddressUsecase) SetDefault(ctx context.Context, userID int64, addressID int64) error {
	if err := u.checkOwner(ctx, userID, addressID); err != nil {
		return err
	}

	err := u.addresses.SetDefault(ctx, userID, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return u.internal(ctx, "set default address failed", err)
	}
	return nil
}

// 他人の住所は存在しない扱い
func (u *AddressUsecase) checkOwner(ctx context.Context, userID, addressID int64) error {
	if userID <= 0 {
		return errUnauthorized()
	}
	if addressID <= 0 {
		return errValidation("invalid id")
	}
	owned, err := u.addresses.IsOwnedByUser(ctx, addressID, userID)
	if err != nil {
		return u.internal(ctx, "address ownership check failed", err)
	}
	if !owned {
		return errNotFound()
	}
	return nil
}

func (u *AddressUsecase) internal(ctx context.Context, msg string, err error) error {
	u.logger.ErrorContext(ctx, msg, slog.Any("error", err))
	return errInternal()
}

func trimAddress(in AddressInput) AddressInput {
	in.RecipientName = strings.TrimSpace(in.RecipientName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Province = strings.TrimSpace(in.Province)
	in.District = strings.TrimSpace(in.District)
	in.Ward = strings.TrimSpace(in.Ward)
	in.Street = strings.TrimSpace(in.Street)
	return in
}

func toAddressDTO(a *model.Address) AddressDTO {
	dto := AddressDTO{
		ID:            a.ID,
		UserID:        a.UserID,
		RecipientName: a.RecipientName,
		Phone:         a.Phone,
		Province:      a.Province,
		District:      a.District,
		Ward:          a.Ward,
		Street:        a.Street,
		IsDefault:     a.IsDefault,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
	t := a.UpdatedAt.Format(time.RFC3339)
	dto.UpdatedAt = &t
	return dto
}
