package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dapurasri/backoffice/internal/aggregate"
	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/internal/numbering"
	"github.com/dapurasri/backoffice/internal/saga"
	"github.com/dapurasri/backoffice/pkg/logger"
	"github.com/dapurasri/backoffice/pkg/pg"
	"github.com/dapurasri/backoffice/pkg/prom"
	"github.com/google/uuid"
)

type OrderRepository interface {
	CreateHeader(ctx context.Context, o *model.Order) (*model.Order, error)
	UpdateHeader(ctx context.Context, o *model.Order) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error
	InsertItems(ctx context.Context, orderID uuid.UUID, items []model.OrderItem) error
	DeleteItems(ctx context.Context, orderID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, f model.OrderFilter) ([]model.Order, int64, error)
	FindAll(ctx context.Context, f model.OrderFilter) ([]model.Order, error)
}

type CustomerFinder interface {
	FindOrCreateByName(ctx context.Context, name string) (*model.Customer, error)
}

type OrderService struct {
	orders    OrderRepository
	customers CustomerFinder
	products  ProductCatalog
	numbers   numbering.Allocator
	events    EventPublisher
	clock     Clock
}

func NewOrderService(
	orders OrderRepository,
	customers CustomerFinder,
	products ProductCatalog,
	numbers numbering.Allocator,
	events EventPublisher,
	clock Clock,
) *OrderService {
	return &OrderService{
		orders:    orders,
		customers: customers,
		products:  products,
		numbers:   numbers,
		events:    publisherOrNop(events),
		clock:     clock.normalized(),
	}
}

// buildItems prices the valid input lines. Products already on the order
// keep the price written then; new products take the catalog price.
func (s *OrderService) buildItems(ctx context.Context, in []model.OrderItemInput, existing []model.OrderItem) ([]model.OrderItem, error) {
	kept := make(map[uuid.UUID]model.OrderItem, len(existing))
	for _, it := range existing {
		if _, ok := kept[it.ProductID]; !ok {
			kept[it.ProductID] = it
		}
	}

	var missing []uuid.UUID
	for _, it := range in {
		if _, ok := kept[it.ProductID]; !ok {
			missing = append(missing, it.ProductID)
		}
	}
	catalog, err := s.products.GetMany(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	items := make([]model.OrderItem, 0, len(in))
	for _, it := range in {
		item := model.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity}
		if k, ok := kept[it.ProductID]; ok {
			item.ProductName, item.Unit, item.UnitPrice = k.ProductName, k.Unit, k.UnitPrice
		} else if p, ok := catalog[it.ProductID]; ok {
			item.ProductName, item.Unit, item.UnitPrice = p.Name, p.Unit, p.Price
		} else {
			return nil, model.Invalid("items", "Produk tidak ditemukan")
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *OrderService) Create(ctx context.Context, in model.OrderInput) (*model.OrderView, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	items, err := s.buildItems(ctx, in.ValidItems(), nil)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.FindOrCreateByName(ctx, strings.TrimSpace(in.CustomerName))
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}

	orderDate := in.OrderDate
	if orderDate.IsZero() {
		orderDate = s.clock.Today()
	}

	var created *model.Order
	err = createNumbered(ctx, s.numbers, numbering.ScopeOrder, orderDate, func(number string) error {
		header := &model.Order{
			OrderNumber: number,
			CustomerID:  customer.ID,
			OrderDate:   orderDate,
			TargetDate:  in.TargetDate,
			Status:      model.OrderPending,
		}
		return saga.New("order.create",
			saga.Step{
				Name: "insert header",
				Do: func(ctx context.Context) error {
					o, err := s.orders.CreateHeader(ctx, header)
					if pg.IsDuplicate(err) {
						return errNumberTaken
					}
					created = o
					return err
				},
				Undo: func(ctx context.Context) error { return s.orders.Delete(ctx, created.ID) },
			},
			saga.Step{
				Name: "insert items",
				Do:   func(ctx context.Context) error { return s.orders.InsertItems(ctx, created.ID, items) },
			},
		).Run(ctx)
	})
	if err != nil {
		return nil, err
	}

	prom.IncDocumentCommitted(KindOrder, "new")
	s.events.DocumentChanged(ctx, KindOrder, created.ID, created.OrderDate)
	logger.Info("order created", "order_number", created.OrderNumber, "customer", customer.Name)
	return s.Get(ctx, created.ID)
}

// Update rewrites the customer, target date and items. The order date and
// number never change.
func (s *OrderService) Update(ctx context.Context, id uuid.UUID, in model.OrderInput) (*model.OrderView, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	old, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	items, err := s.buildItems(ctx, in.ValidItems(), old.Items)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.FindOrCreateByName(ctx, strings.TrimSpace(in.CustomerName))
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}

	updated := *old
	updated.Items = nil
	updated.CustomerID = customer.ID
	updated.TargetDate = in.TargetDate

	oldItems := make([]model.OrderItem, len(old.Items))
	copy(oldItems, old.Items)

	err = saga.New("order.edit",
		saga.Step{
			Name: "update header",
			Do:   func(ctx context.Context) error { return s.orders.UpdateHeader(ctx, &updated) },
			Undo: func(ctx context.Context) error { return s.orders.UpdateHeader(ctx, old) },
		},
		saga.Step{
			Name: "delete items",
			Do:   func(ctx context.Context) error { return s.orders.DeleteItems(ctx, id) },
			Undo: func(ctx context.Context) error { return s.orders.InsertItems(ctx, id, oldItems) },
		},
		saga.Step{
			Name: "insert items",
			Do:   func(ctx context.Context) error { return s.orders.InsertItems(ctx, id, items) },
			Undo: func(ctx context.Context) error { return s.orders.DeleteItems(ctx, id) },
		},
	).Run(ctx)
	if err != nil {
		return nil, mapErr(err)
	}

	prom.IncDocumentCommitted(KindOrder, "edit")
	s.events.DocumentChanged(ctx, KindOrder, id, old.OrderDate)
	return s.Get(ctx, id)
}

func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.OrderView, error) {
	if !status.Valid() {
		return nil, model.Invalid("status", "Status tidak dikenal")
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, mapErr(err)
	}
	view, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.DocumentChanged(ctx, KindOrder, id, view.OrderDate)
	return view, nil
}

func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return mapErr(err)
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return mapErr(err)
	}
	s.events.DocumentChanged(ctx, KindOrder, id, o.OrderDate)
	return nil
}

func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*model.OrderView, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	view := aggregate.ViewOrder(*o)
	return &view, nil
}

// List pages through the orders matching f. The grand total covers every
// order, not only the matching ones.
func (s *OrderService) List(ctx context.Context, f model.OrderFilter) (*model.OrderList, error) {
	orders, total, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, err
	}
	all, err := s.orders.FindAll(ctx, model.OrderFilter{})
	if err != nil {
		return nil, err
	}

	out := &model.OrderList{
		Items:      make([]model.OrderView, 0, len(orders)),
		Total:      total,
		GrandTotal: aggregate.GrandTotal(all),
	}
	for _, o := range orders {
		out.Items = append(out.Items, aggregate.ViewOrder(o))
	}
	return out, nil
}

// ProductSummary totals ordered quantities per product over all orders.
func (s *OrderService) ProductSummary(ctx context.Context) ([]model.ProductQuantity, error) {
	all, err := s.orders.FindAll(ctx, model.OrderFilter{})
	if err != nil {
		return nil, err
	}
	return aggregate.ProductTotals(all), nil
}

// CustomerSummary lists who ordered productName and how much.
func (s *OrderService) CustomerSummary(ctx context.Context, productName string) ([]model.CustomerQuantity, error) {
	if strings.TrimSpace(productName) == "" {
		return nil, model.Invalid("product", "Produk wajib dipilih")
	}
	all, err := s.orders.FindAll(ctx, model.OrderFilter{})
	if err != nil {
		return nil, err
	}
	return aggregate.ProductCustomers(all, productName), nil
}
