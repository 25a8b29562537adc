package repository

import (
	"context"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"

	"gorm.io/gorm"
)

// 配送先住所。所有チェックは呼び出し側（AddressUsecase）で行う。
type AddressGormRepository struct {
	db *gorm.DB
}

func NewAddressGormRepository(db *gorm.DB) *AddressGormRepository {
	return &AddressGormRepository{db: db}
}

func (r *AddressGormRepository) Create(ctx context.Context, a model.Address) (model.Address, error) {
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		return model.Address{}, err
	}
	return a, nil
}

func (r *AddressGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	list := make([]model.Address, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("id").
		Find(&list).Error
	return list, err
}

func (r *AddressGormRepository) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	var a model.Address
	err := r.db.WithContext(ctx).Take(&a, "id = ?", addressID).Error
	if isNotFound(err) {
		return model.Address{}, repo.ErrNotFound
	}
	return a, err
}

// 受取人と所在地だけ。user_id / is_default / created_at は触らない
func (r *AddressGormRepository) Update(ctx context.Context, a model.Address) error {
	res := r.db.WithContext(ctx).
		Model(&model.Address{ID: a.ID}).
		Updates(map[string]any{
			"recipient_name": a.RecipientName,
			"phone":          a.Phone,
			"province":       a.Province,
			"district":       a.District,
			"ward":           a.Ward,
			"street":         a.Street,
			"updated_at":     a.UpdatedAt,
		})
	return affectedOne(res)
}

// 注文が参照していればFK違反 → ErrInUse
func (r *AddressGormRepository) Delete(ctx context.Context, addressID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Address{}, addressID)
	if isForeignKeyViolation(res.Error) {
		return repo.ErrInUse
	}
	return affectedOne(res)
}

func (r *AddressGormRepository) IsOwnedByUser(ctx context.Context, addressID, userID int64) (bool, error) {
	var owned bool
	err := r.db.WithContext(ctx).
		Raw("SELECT EXISTS (SELECT 1 FROM addresses WHERE id = ? AND user_id = ?)", addressID, userID).
		Scan(&owned).Error
	return owned, err
}

// 1本のUPDATEで切り替える。他人の住所を指定したら何も変えない
func (r *AddressGormRepository) SetDefault(ctx context.Context, userID, addressID int64) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE addresses
		   SET is_default = (id = ?)
		 WHERE user_id = ?
		   AND (is_default OR id = ?)
		   AND EXISTS (SELECT 1 FROM addresses WHERE id = ? AND user_id = ?)`,
		addressID, userID, addressID, addressID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func affectedOne(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
