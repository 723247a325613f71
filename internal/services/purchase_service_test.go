package services

import (
	"context"
	"testing"
	"time"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseService_Batch(t *testing.T) {
	env := newTestEnv(t)
	svc := NewPurchaseService(env.purchases, env.events)
	ctx := context.Background()
	bahan := env.category(t, "Bahan Baku")
	cash := env.paymentMethod(t, "Tunai")
	date := model.NewDate(2026, time.March, 4)

	created, err := svc.Create(ctx, model.PurchaseInput{
		TransactionDate: date,
		PaymentMethodID: &cash.ID,
		Lines: []model.PurchaseLineInput{
			{CategoryID: bahan.ID, Description: " Tepung ", Amount: dec(120000)},
			{CategoryID: bahan.ID, Description: "Mentega", Amount: dec(0)},
			{CategoryID: bahan.ID, Description: "  ", Amount: dec(5000)},
			{CategoryID: uuid.Nil, Description: "Gula", Amount: dec(5000)},
			{CategoryID: bahan.ID, Description: "Telur", Amount: dec(-1)},
		},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "Tepung", created[0].Description)
	assert.Len(t, env.events.kinds(), 2)

	got, err := svc.Get(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Bahan Baku", got.CategoryName)
	assert.Equal(t, "Tunai", got.PaymentMethodName)

	_, err = svc.Create(ctx, model.PurchaseInput{TransactionDate: date, Lines: []model.PurchaseLineInput{{Description: "Gula"}}})
	require.Error(t, err)
	assert.Equal(t, "Lengkapi kategori, keterangan dan nominal", err.Error())

	_, err = svc.Create(ctx, model.PurchaseInput{Lines: []model.PurchaseLineInput{{CategoryID: bahan.ID, Description: "Gula", Amount: dec(1)}}})
	assert.True(t, model.IsValidation(err))

	list, total, err := svc.List(ctx, model.PurchaseFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)
}

func TestPurchaseService_UpdateDelete(t *testing.T) {
	env := newTestEnv(t)
	svc := NewPurchaseService(env.purchases, env.events)
	ctx := context.Background()
	bahan := env.category(t, "Bahan Baku")
	kemasan := env.category(t, "Kemasan")

	created, err := svc.Create(ctx, model.PurchaseInput{
		TransactionDate: model.NewDate(2026, time.March, 4),
		Lines:           []model.PurchaseLineInput{{CategoryID: bahan.ID, Description: "Tepung", Amount: dec(120000)}},
	})
	require.NoError(t, err)
	id := created[0].ID

	updated, err := svc.Update(ctx, id, model.PurchaseInput{
		TransactionDate: model.NewDate(2026, time.March, 6),
		Lines:           []model.PurchaseLineInput{{CategoryID: kemasan.ID, Description: "Toples", Amount: dec(60000)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Kemasan", updated.CategoryName)
	assert.True(t, updated.Amount.Equal(dec(60000)))
	assert.True(t, updated.TransactionDate.Equal(model.NewDate(2026, time.March, 6).Time))

	_, err = svc.Update(ctx, id, model.PurchaseInput{
		TransactionDate: model.NewDate(2026, time.March, 6),
		Lines: []model.PurchaseLineInput{
			{CategoryID: kemasan.ID, Description: "a", Amount: dec(1)},
			{CategoryID: kemasan.ID, Description: "b", Amount: dec(1)},
		},
	})
	assert.True(t, model.IsValidation(err), "edit takes a single line")

	_, err = svc.Update(ctx, uuid.New(), model.PurchaseInput{
		TransactionDate: model.NewDate(2026, time.March, 6),
		Lines:           []model.PurchaseLineInput{{CategoryID: kemasan.ID, Description: "a", Amount: dec(1)}},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(ctx, id))
	assert.ErrorIs(t, svc.Delete(ctx, id), ErrNotFound)
}
