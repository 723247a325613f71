package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dapurasri/backoffice/internal/aggregate"
	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/internal/numbering"
	"github.com/dapurasri/backoffice/internal/receipt"
	"github.com/dapurasri/backoffice/internal/saga"
	"github.com/dapurasri/backoffice/pkg/logger"
	"github.com/dapurasri/backoffice/pkg/pg"
	"github.com/dapurasri/backoffice/pkg/prom"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SalesRepository interface {
	CreateHeader(ctx context.Context, txn *model.SalesTransaction) (*model.SalesTransaction, error)
	UpdateHeader(ctx context.Context, txn *model.SalesTransaction) error
	InsertDetails(ctx context.Context, txID uuid.UUID, details []model.SalesDetail) error
	DeleteDetails(ctx context.Context, txID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.SalesTransaction, error)
	List(ctx context.Context, f model.SalesFilter) ([]model.SalesTransaction, int64, error)
}

type ProductCatalog interface {
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error)
}

type LookupGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Lookup, error)
}

type OrderGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
}

// SalesService runs the sales entry flow: entry, preview, commit.
type SalesService struct {
	sales    SalesRepository
	products ProductCatalog
	methods  LookupGetter
	orders   OrderGetter
	drafts   DraftStore
	numbers  numbering.Allocator
	events   EventPublisher
	clock    Clock
	appName  string
}

func NewSalesService(
	sales SalesRepository,
	products ProductCatalog,
	methods LookupGetter,
	orders OrderGetter,
	drafts DraftStore,
	numbers numbering.Allocator,
	events EventPublisher,
	clock Clock,
) *SalesService {
	return &SalesService{
		sales:    sales,
		products: products,
		methods:  methods,
		orders:   orders,
		drafts:   drafts,
		numbers:  numbers,
		events:   publisherOrNop(events),
		clock:    clock.normalized(),
		appName:  "Dapur Asri",
	}
}

/* --------------------------------- Drafts ----------------------------------- */

func (s *SalesService) StartDraft(ctx context.Context, in model.DraftInput) (*model.Draft, error) {
	now := s.clock.Now()
	d := &model.Draft{
		ID:        uuid.New(),
		State:     model.DraftEntry,
		CreatedAt: now,
	}
	if err := s.apply(ctx, d, in); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return d, nil
}

func (s *SalesService) GetDraft(ctx context.Context, id uuid.UUID) (*model.Draft, error) {
	return s.drafts.Get(ctx, id)
}

// UpdateDraft replaces the entry data. Prices captured when a product was
// first picked are kept.
func (s *SalesService) UpdateDraft(ctx context.Context, id uuid.UUID, in model.DraftInput) (*model.Draft, error) {
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.State != model.DraftEntry {
		return nil, fmt.Errorf("%w: draft is %s", ErrInvalidState, d.State)
	}
	if err := s.apply(ctx, d, in); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return d, nil
}

func (s *SalesService) apply(ctx context.Context, d *model.Draft, in model.DraftInput) error {
	inv := in.Invoice
	if inv == nil {
		inv = model.StandardInvoice{}
	}
	date := in.Date
	if date.IsZero() {
		date = s.clock.Today()
	}

	lines, err := s.priceLines(ctx, inv, pinnedLines(d.Lines))
	if err != nil {
		return err
	}

	d.Invoice = inv
	d.Date = date
	d.PaymentMethodID = in.PaymentMethodID
	d.PaymentMethodName = ""
	d.Lines = lines
	d.Total = aggregate.LinesTotal(lines)
	d.UpdatedAt = s.clock.Now()
	return nil
}

func pinnedLines(lines []model.DraftLine) map[uuid.UUID]model.DraftLine {
	out := make(map[uuid.UUID]model.DraftLine, len(lines))
	for _, l := range lines {
		if l.ProductID == uuid.Nil {
			continue
		}
		if _, ok := out[l.ProductID]; !ok {
			out[l.ProductID] = l
		}
	}
	return out
}

// priceLines resolves names, units and prices. A product seen in an earlier
// version of the draft keeps the price captured then; new products are
// priced from the catalog.
func (s *SalesService) priceLines(ctx context.Context, inv model.InvoiceKind, pinned map[uuid.UUID]model.DraftLine) ([]model.DraftLine, error) {
	var missing []uuid.UUID
	for _, id := range inv.ProductIDs() {
		if _, ok := pinned[id]; !ok && id != uuid.Nil {
			missing = append(missing, id)
		}
	}
	catalog, err := s.products.GetMany(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	base := func(id uuid.UUID, qty decimal.Decimal) (model.DraftLine, error) {
		line := model.DraftLine{ProductID: id, Quantity: qty}
		if id == uuid.Nil {
			return line, nil
		}
		if !model.FitsScale(qty, model.QuantityScale) {
			return line, model.Invalid("lines", "Jumlah maksimal 3 angka desimal")
		}
		if p, ok := pinned[id]; ok {
			line.ProductName, line.Unit = p.ProductName, p.Unit
			line.CatalogPrice, line.UnitPrice = p.CatalogPrice, p.CatalogPrice
			return line, nil
		}
		p, ok := catalog[id]
		if !ok {
			return line, model.Invalid("lines", "Produk tidak ditemukan")
		}
		line.ProductName, line.Unit = p.Name, p.Unit
		line.CatalogPrice, line.UnitPrice = p.Price, p.Price
		return line, nil
	}

	var lines []model.DraftLine
	switch v := inv.(type) {
	case model.StandardInvoice:
		for _, l := range v.Lines {
			line, err := base(l.ProductID, l.Quantity)
			if err != nil {
				return nil, err
			}
			lines = append(lines, line)
		}
	case model.CustomPricedInvoice:
		for _, l := range v.Lines {
			line, err := base(l.ProductID, l.Quantity)
			if err != nil {
				return nil, err
			}
			line.UnitPrice = line.CatalogPrice
			if l.CustomPrice != nil {
				if l.CustomPrice.IsNegative() {
					return nil, model.Invalid("lines", "Harga tidak boleh negatif")
				}
				if !model.FitsScale(*l.CustomPrice, model.MoneyScale) {
					return nil, model.Invalid("lines", "Harga maksimal 2 angka desimal")
				}
				line.UnitPrice = *l.CustomPrice
			}
			lines = append(lines, line)
		}
	default:
		return nil, fmt.Errorf("unsupported invoice kind %T", inv)
	}

	for i := range lines {
		lines[i].Subtotal = model.LineSubtotal(lines[i].Quantity, lines[i].UnitPrice)
	}
	return lines, nil
}

// Preview validates the draft and freezes its lines and total.
func (s *SalesService) Preview(ctx context.Context, id uuid.UUID) (*model.Draft, error) {
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.State.CanMoveTo(model.DraftPreview) {
		return nil, fmt.Errorf("%w: cannot preview a %s draft", ErrInvalidState, d.State)
	}

	valid := d.ValidLines()
	if len(valid) == 0 {
		return nil, model.Invalid("lines", "Tambahkan minimal satu produk")
	}
	total := aggregate.LinesTotal(valid)
	if !total.IsPositive() {
		return nil, model.Invalid("total", "Total harus lebih dari 0")
	}

	d.PaymentMethodName = ""
	if d.PaymentMethodID != nil {
		m, err := s.methods.Get(ctx, *d.PaymentMethodID)
		if err != nil {
			if errors.Is(mapErr(err), ErrNotFound) {
				return nil, model.Invalid("payment_method_id", "Metode pembayaran tidak ditemukan")
			}
			return nil, err
		}
		d.PaymentMethodName = m.Name
	}

	d.Lines = valid
	d.Total = total
	d.State = model.DraftPreview
	d.UpdatedAt = s.clock.Now()
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return d, nil
}

func (s *SalesService) Back(ctx context.Context, id uuid.UUID) (*model.Draft, error) {
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.State != model.DraftPreview {
		return nil, fmt.Errorf("%w: cannot go back from %s", ErrInvalidState, d.State)
	}
	d.State = model.DraftEntry
	d.UpdatedAt = s.clock.Now()
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return d, nil
}

// Cancel throws an uncommitted draft away.
func (s *SalesService) Cancel(ctx context.Context, id uuid.UUID) error {
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return err
	}
	if !d.State.CanMoveTo(model.DraftCancelled) {
		return fmt.Errorf("%w: cannot cancel a %s draft", ErrInvalidState, d.State)
	}
	return s.drafts.Delete(ctx, id)
}

// Receipt renders a previewed or committed draft as PNG.
func (s *SalesService) Receipt(ctx context.Context, id uuid.UUID, scale int) ([]byte, error) {
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.State != model.DraftPreview && d.State != model.DraftCommitted {
		return nil, fmt.Errorf("%w: receipt needs a previewed draft", ErrInvalidState)
	}
	return receipt.Render(d, receipt.Options{Title: s.appName, Scale: scale})
}

/* --------------------------------- Commit ----------------------------------- */

// Commit writes a previewed draft. The draft lock makes a double submit
// commit once; committing an already committed draft returns its
// transaction.
func (s *SalesService) Commit(ctx context.Context, id uuid.UUID) (*model.SalesTransaction, error) {
	token, ok, err := s.drafts.Lock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: lock draft: %w", ErrRetryable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: draft is being committed", ErrRetryable)
	}
	defer func() {
		if err := s.drafts.Unlock(context.WithoutCancel(ctx), id, token); err != nil {
			logger.Warn("failed to release draft lock", "draft", id, "error", err)
		}
	}()

	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.State == model.DraftCommitted && d.TransactionID != nil {
		txn, err := s.sales.Get(ctx, *d.TransactionID)
		return txn, mapErr(err)
	}
	if !d.State.CanMoveTo(model.DraftCommitted) {
		return nil, fmt.Errorf("%w: cannot commit a %s draft", ErrInvalidState, d.State)
	}

	details, total := detailsFromLines(d.ValidLines())
	if len(details) == 0 {
		return nil, model.Invalid("lines", "Tambahkan minimal satu produk")
	}

	var (
		txn  *model.SalesTransaction
		mode string
	)
	if d.EditingID != nil {
		mode = "edit"
		txn, err = s.commitEdit(ctx, d, details, total)
	} else {
		mode = "new"
		txn, err = s.commitNew(ctx, d, details, total)
	}
	if err != nil {
		return nil, err
	}

	d.State = model.DraftCommitted
	d.TransactionID = &txn.ID
	d.TransactionNo = txn.TransactionNo
	d.UpdatedAt = s.clock.Now()
	saveErr := s.markCommitted(ctx, d)

	prom.IncDocumentCommitted(KindSales, mode)
	s.events.DocumentChanged(ctx, KindSales, txn.ID, txn.TransactionDate)
	logger.Info("sales transaction committed", "transaction_no", txn.TransactionNo, "mode", mode, "total", txn.Total.String())

	if saveErr != nil {
		return txn, &CommittedError{TransactionID: txn.ID, TransactionNo: txn.TransactionNo, Err: saveErr}
	}

	stored, err := s.sales.Get(ctx, txn.ID)
	if err != nil {
		return txn, nil
	}
	return stored, nil
}

// markCommitted stores the committed draft, retrying with 2/4/8 ms backoff.
// When every attempt fails the draft is dropped so a retried commit cannot
// store the transaction a second time.
func (s *SalesService) markCommitted(ctx context.Context, d *model.Draft) error {
	const maxRetries = 3
	const baseDelay = 2 * time.Millisecond

	ctx = context.WithoutCancel(ctx)
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = s.drafts.Save(ctx, d); err == nil {
			return nil
		}
		if attempt < maxRetries {
			time.Sleep(baseDelay * time.Duration(1<<attempt))
		}
	}

	logger.Error("failed to mark draft committed", "draft", d.ID, "transaction", d.TransactionNo, "error", err)
	if delErr := s.drafts.Delete(ctx, d.ID); delErr != nil {
		logger.Error("failed to drop committed draft", "draft", d.ID, "error", delErr)
	}
	return err
}

func detailsFromLines(lines []model.DraftLine) ([]model.SalesDetail, decimal.Decimal) {
	details := make([]model.SalesDetail, 0, len(lines))
	total := decimal.Zero
	for _, l := range lines {
		subtotal := model.LineSubtotal(l.Quantity, l.UnitPrice)
		details = append(details, model.SalesDetail{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  subtotal,
		})
		total = total.Add(subtotal)
	}
	return details, total
}

func (s *SalesService) commitNew(ctx context.Context, d *model.Draft, details []model.SalesDetail, total decimal.Decimal) (*model.SalesTransaction, error) {
	var created *model.SalesTransaction
	err := createNumbered(ctx, s.numbers, numbering.ScopeSales, d.Date, func(number string) error {
		header := &model.SalesTransaction{
			TransactionNo:   number,
			TransactionDate: d.Date,
			Total:           total,
			PaymentMethodID: d.PaymentMethodID,
			SourceOrderID:   d.SourceOrderID,
		}
		return saga.New("sales.create",
			saga.Step{
				Name: "insert header",
				Do: func(ctx context.Context) error {
					h, err := s.sales.CreateHeader(ctx, header)
					if pg.IsDuplicate(err) {
						return errNumberTaken
					}
					created = h
					return err
				},
				Undo: func(ctx context.Context) error {
					return s.sales.Delete(ctx, created.ID)
				},
			},
			saga.Step{
				Name: "insert details",
				Do: func(ctx context.Context) error {
					return s.sales.InsertDetails(ctx, created.ID, details)
				},
			},
		).Run(ctx)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// commitEdit rewrites an existing transaction. A failure restores the old
// header and the old details.
func (s *SalesService) commitEdit(ctx context.Context, d *model.Draft, details []model.SalesDetail, total decimal.Decimal) (*model.SalesTransaction, error) {
	old, err := s.sales.Get(ctx, *d.EditingID)
	if err != nil {
		return nil, mapErr(err)
	}

	updated := *old
	updated.Details = nil
	updated.TransactionDate = d.Date
	updated.Total = total
	updated.PaymentMethodID = d.PaymentMethodID

	oldDetails := make([]model.SalesDetail, len(old.Details))
	copy(oldDetails, old.Details)

	err = saga.New("sales.edit",
		saga.Step{
			Name: "update header",
			Do:   func(ctx context.Context) error { return s.sales.UpdateHeader(ctx, &updated) },
			Undo: func(ctx context.Context) error { return s.sales.UpdateHeader(ctx, old) },
		},
		saga.Step{
			Name: "delete details",
			Do:   func(ctx context.Context) error { return s.sales.DeleteDetails(ctx, old.ID) },
			Undo: func(ctx context.Context) error { return s.sales.InsertDetails(ctx, old.ID, oldDetails) },
		},
		saga.Step{
			Name: "insert details",
			Do:   func(ctx context.Context) error { return s.sales.InsertDetails(ctx, old.ID, details) },
			Undo: func(ctx context.Context) error { return s.sales.DeleteDetails(ctx, old.ID) },
		},
	).Run(ctx)
	if err != nil {
		return nil, mapErr(err)
	}

	if old.TransactionDate.Year() != updated.TransactionDate.Year() {
		s.events.DocumentChanged(ctx, KindSales, old.ID, old.TransactionDate)
	}
	return &updated, nil
}

/* ------------------------------ Edit / convert ------------------------------ */

// StartEdit opens a standard draft filled from a stored transaction. Lines
// keep the stored prices.
func (s *SalesService) StartEdit(ctx context.Context, txID uuid.UUID) (*model.Draft, error) {
	txn, err := s.sales.Get(ctx, txID)
	if err != nil {
		return nil, mapErr(err)
	}

	inv := model.StandardInvoice{}
	lines := make([]model.DraftLine, 0, len(txn.Details))
	for _, det := range txn.Details {
		inv.Lines = append(inv.Lines, model.StandardLine{ProductID: det.ProductID, Quantity: det.Quantity})
		lines = append(lines, model.DraftLine{
			ProductID:    det.ProductID,
			ProductName:  det.ProductName,
			Unit:         det.Unit,
			Quantity:     det.Quantity,
			CatalogPrice: det.UnitPrice,
			UnitPrice:    det.UnitPrice,
			Subtotal:     det.Subtotal,
		})
	}

	now := s.clock.Now()
	d := &model.Draft{
		ID:              uuid.New(),
		State:           model.DraftEntry,
		Invoice:         inv,
		Date:            txn.TransactionDate,
		PaymentMethodID: txn.PaymentMethodID,
		Lines:           lines,
		Total:           aggregate.LinesTotal(lines),
		EditingID:       &txn.ID,
		SourceOrderID:   txn.SourceOrderID,
		TransactionNo:   txn.TransactionNo,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return d, nil
}

// ConvertOrder opens a standard draft from an order's items. Converting the
// same order again is allowed and opens another draft.
func (s *SalesService) ConvertOrder(ctx context.Context, orderID uuid.UUID) (*model.Draft, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, mapErr(err)
	}

	lines := aggregate.MergeOrderItems(o.Items)
	if len(lines) == 0 {
		return nil, model.Invalid("items", "Pesanan tidak memiliki produk")
	}
	inv := model.StandardInvoice{}
	for _, l := range lines {
		inv.Lines = append(inv.Lines, model.StandardLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	now := s.clock.Now()
	d := &model.Draft{
		ID:                uuid.New(),
		State:             model.DraftEntry,
		Invoice:           inv,
		Date:              s.clock.Today(),
		Lines:             lines,
		Total:             aggregate.LinesTotal(lines),
		SourceOrderID:     &o.ID,
		SourceOrderNumber: o.OrderNumber,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return d, nil
}

/* -------------------------------- Read side --------------------------------- */

func (s *SalesService) List(ctx context.Context, f model.SalesFilter) ([]model.SalesTransaction, int64, error) {
	return s.sales.List(ctx, f)
}

func (s *SalesService) Get(ctx context.Context, id uuid.UUID) (*model.SalesTransaction, error) {
	txn, err := s.sales.Get(ctx, id)
	return txn, mapErr(err)
}

func (s *SalesService) Delete(ctx context.Context, id uuid.UUID) error {
	txn, err := s.sales.Get(ctx, id)
	if err != nil {
		return mapErr(err)
	}
	if err := s.sales.Delete(ctx, id); err != nil {
		return mapErr(err)
	}
	s.events.DocumentChanged(ctx, KindSales, id, txn.TransactionDate)
	return nil
}
