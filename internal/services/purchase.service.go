package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/pkg/logger"
	"github.com/dapurasri/backoffice/pkg/prom"
	"github.com/google/uuid"
)

type PurchaseRepository interface {
	CreateBatch(ctx context.Context, rows []model.PurchaseTransaction) ([]model.PurchaseTransaction, error)
	Update(ctx context.Context, p *model.PurchaseTransaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.PurchaseTransaction, error)
	List(ctx context.Context, f model.PurchaseFilter) ([]model.PurchaseTransaction, int64, error)
}

type PurchaseService struct {
	purchases PurchaseRepository
	events    EventPublisher
}

func NewPurchaseService(purchases PurchaseRepository, events EventPublisher) *PurchaseService {
	return &PurchaseService{purchases: purchases, events: publisherOrNop(events)}
}

// Create stores one purchase row per valid line. Lines missing a category or
// description, or with a negative amount, are skipped.
func (s *PurchaseService) Create(ctx context.Context, in model.PurchaseInput) ([]model.PurchaseTransaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	lines := in.ValidLines()
	rows := make([]model.PurchaseTransaction, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, model.PurchaseTransaction{
			CategoryID:      l.CategoryID,
			Description:     l.Description,
			Amount:          l.Amount,
			TransactionDate: in.TransactionDate,
			PaymentMethodID: in.PaymentMethodID,
		})
	}

	created, err := s.purchases.CreateBatch(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("insert purchases: %w", err)
	}

	prom.IncDocumentCommitted(KindPurchase, "new")
	for _, p := range created {
		s.events.DocumentChanged(ctx, KindPurchase, p.ID, p.TransactionDate)
	}
	logger.Info("purchases recorded", "count", len(created), "date", in.TransactionDate.String())
	return created, nil
}

// Update edits a single purchase row from the first line of in.
func (s *PurchaseService) Update(ctx context.Context, id uuid.UUID, in model.PurchaseInput) (*model.PurchaseTransaction, error) {
	if in.TransactionDate.IsZero() {
		return nil, model.Invalid("transaction_date", "Tanggal wajib diisi")
	}
	if len(in.Lines) != 1 {
		return nil, model.Invalid("lines", "Edit hanya untuk satu baris")
	}
	line := in.Lines[0]
	if !line.Valid() {
		return nil, model.Invalid("lines", "Lengkapi kategori, keterangan dan nominal")
	}

	old, err := s.purchases.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}

	updated := &model.PurchaseTransaction{
		ID:              id,
		CategoryID:      line.CategoryID,
		Description:     strings.TrimSpace(line.Description),
		Amount:          line.Amount,
		TransactionDate: in.TransactionDate,
		PaymentMethodID: in.PaymentMethodID,
	}
	if err := s.purchases.Update(ctx, updated); err != nil {
		return nil, mapErr(err)
	}

	prom.IncDocumentCommitted(KindPurchase, "edit")
	s.events.DocumentChanged(ctx, KindPurchase, id, in.TransactionDate)
	if old.TransactionDate.Year() != in.TransactionDate.Year() {
		s.events.DocumentChanged(ctx, KindPurchase, id, old.TransactionDate)
	}
	return s.Get(ctx, id)
}

func (s *PurchaseService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.purchases.Get(ctx, id)
	if err != nil {
		return mapErr(err)
	}
	if err := s.purchases.Delete(ctx, id); err != nil {
		return mapErr(err)
	}
	s.events.DocumentChanged(ctx, KindPurchase, id, p.TransactionDate)
	return nil
}

func (s *PurchaseService) Get(ctx context.Context, id uuid.UUID) (*model.PurchaseTransaction, error) {
	p, err := s.purchases.Get(ctx, id)
	return p, mapErr(err)
}

func (s *PurchaseService) List(ctx context.Context, f model.PurchaseFilter) ([]model.PurchaseTransaction, int64, error) {
	return s.purchases.List(ctx, f)
}
