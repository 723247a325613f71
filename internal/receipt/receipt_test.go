package receipt

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDraft() *model.Draft {
	return &model.Draft{
		ID:                uuid.New(),
		State:             model.DraftPreview,
		Date:              model.NewDate(2026, time.March, 5),
		PaymentMethodName: "QRIS",
		Lines: []model.DraftLine{
			{ProductID: uuid.New(), ProductName: "Nastar", Unit: "toples", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(85000)},
			{ProductID: uuid.Nil, ProductName: "blank row", Quantity: decimal.NewFromInt(1)},
		},
		Total: decimal.NewFromInt(170000),
	}
}

func TestLines(t *testing.T) {
	rows := Lines(sampleDraft(), "Dapur Asri")
	text := ""
	for _, r := range rows {
		assert.LessOrEqual(t, len([]rune(r)), columns, r)
		text += r + "\n"
	}

	assert.Contains(t, text, "05 Maret 2026")
	assert.Contains(t, text, "Pembayaran: QRIS")
	assert.Contains(t, text, "2 toples x 85.000")
	assert.Contains(t, text, "170.000")
	assert.Contains(t, text, "Rp 170.000")
	assert.NotContains(t, text, "blank row")
}

func TestRender_Scales(t *testing.T) {
	one, err := Render(sampleDraft(), Options{Scale: 1})
	require.NoError(t, err)
	two, err := Render(sampleDraft(), Options{Scale: 2})
	require.NoError(t, err)

	img1, err := png.Decode(bytes.NewReader(one))
	require.NoError(t, err)
	img2, err := png.Decode(bytes.NewReader(two))
	require.NoError(t, err)

	assert.Equal(t, img1.Bounds().Dx()*2, img2.Bounds().Dx())
	assert.Equal(t, img1.Bounds().Dy()*2, img2.Bounds().Dy())
}

func TestRender_NilDraft(t *testing.T) {
	_, err := Render(nil, Options{})
	assert.Error(t, err)
}
