package usecase

import (
	"context"
	"testing"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAddressFixture() (*memStore, *AddressUsecase) {
	store := newMemStore()
	return store, NewAddressUsecase(memAddresses{store}, newFixedClock(checkoutNow), discardLogger())
}

func validAddress() AddressInput {
	return AddressInput{
		RecipientName: " Tran Thi B ",
		Phone:         "0911222333",
		Province:      "Ho Chi Minh",
		District:      "District 1",
		Ward:          "Ben Nghe",
		Street:        "12 Le Loi",
	}
}

func TestAddress_CreateListDefault(t *testing.T) {
	_, uc := newAddressFixture()

	a1, err := uc.Create(context.Background(), 7, validAddress())
	require.NoError(t, err)
	assert.Equal(t, "Tran Thi B", a1.RecipientName)
	a2, err := uc.Create(context.Background(), 7, validAddress())
	require.NoError(t, err)

	require.NoError(t, uc.SetDefault(context.Background(), 7, a2.ID))

	list, err := uc.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a2.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)
	assert.False(t, list[1].IsDefault)
}

func TestAddress_ForeignIsNotFound(t *testing.T) {
	store, uc := newAddressFixture()
	other := store.addAddress(99)

	err := uc.Update(context.Background(), 7, other.ID, validAddress())
	assert.Equal(t, CodeNotFound, httpCode(err))
	err = uc.Delete(context.Background(), 7, other.ID)
	assert.Equal(t, CodeNotFound, httpCode(err))
	err = uc.SetDefault(context.Background(), 7, other.ID)
	assert.Equal(t, CodeNotFound, httpCode(err))
}

// 注文に使われた住所は消せない
func TestAddress_DeleteInUseIsConflict(t *testing.T) {
	store, uc := newAddressFixture()
	a := store.addAddress(7)
	store.orders[1] = model.Order{ID: 1, UserID: 7, AddressID: a.ID}

	err := uc.Delete(context.Background(), 7, a.ID)
	assert.Equal(t, CodeConflict, httpCode(err))
}

func TestAddress_CreateValidation(t *testing.T) {
	_, uc := newAddressFixture()
	in := validAddress()
	in.Street = "   "

	_, err := uc.Create(context.Background(), 7, in)
	assert.Equal(t, CodeValidation, httpCode(err))
}
