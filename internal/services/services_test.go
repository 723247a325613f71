package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/internal/numbering"
	"github.com/dapurasri/backoffice/internal/repository"
	"github.com/dapurasri/backoffice/internal/testutil"
	"github.com/dapurasri/backoffice/pkg/pg"
	"github.com/dapurasri/backoffice/pkg/redis"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*3600)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func fixedClock() Clock {
	return Clock{
		Now:      func() time.Time { return time.Date(2026, time.March, 5, 10, 0, 0, 0, wib) },
		Location: wib,
	}
}

type event struct {
	Kind string
	ID   uuid.UUID
	Date model.Date
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event
}

func (p *recordingPublisher) DocumentChanged(_ context.Context, kind string, id uuid.UUID, date model.Date) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event{Kind: kind, ID: id, Date: date})
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

// flakySales fails the first failInserts calls to InsertDetails.
type flakySales struct {
	*repository.SalesRepository
	mu          sync.Mutex
	failInserts int
}

func (f *flakySales) InsertDetails(ctx context.Context, txID uuid.UUID, details []model.SalesDetail) error {
	f.mu.Lock()
	fail := f.failInserts > 0
	if fail {
		f.failInserts--
	}
	f.mu.Unlock()
	if fail {
		return errors.New("connection reset")
	}
	return f.SalesRepository.InsertDetails(ctx, txID, details)
}

type flakyOrders struct {
	*repository.OrderRepository
	failInserts int
}

func (f *flakyOrders) InsertItems(ctx context.Context, orderID uuid.UUID, items []model.OrderItem) error {
	if f.failInserts > 0 {
		f.failInserts--
		return errors.New("connection reset")
	}
	return f.OrderRepository.InsertItems(ctx, orderID, items)
}

// flakyDrafts fails the next failSaves calls to Save.
type flakyDrafts struct {
	*RedisDraftStore
	failSaves int
}

func (f *flakyDrafts) Save(ctx context.Context, d *model.Draft) error {
	if f.failSaves != 0 {
		if f.failSaves > 0 {
			f.failSaves--
		}
		return errors.New("redis: connection refused")
	}
	return f.RedisDraftStore.Save(ctx, d)
}

type testEnv struct {
	db         *pg.DB
	redis      redis.RedisAdapter
	mr         *miniredis.Miniredis
	products   *repository.ProductRepository
	methods    *repository.LookupRepository
	categories *repository.LookupRepository
	customers  *repository.CustomerRepository
	orders     *repository.OrderRepository
	sales      *flakySales
	purchases  *repository.PurchaseRepository
	numbers    numbering.Allocator
	drafts     *RedisDraftStore
	events     *recordingPublisher
	clock      Clock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t, repository.Entities()...)
	r, mr := testutil.NewRedis(t, "test:")

	env := &testEnv{
		db:         db,
		redis:      r,
		mr:         mr,
		products:   repository.NewProductRepository(db),
		methods:    repository.NewLookupRepository(db, model.LookupPaymentMethod),
		categories: repository.NewLookupRepository(db, model.LookupPurchaseCategory),
		customers:  repository.NewCustomerRepository(db),
		orders:     repository.NewOrderRepository(db),
		sales:      &flakySales{SalesRepository: repository.NewSalesRepository(db)},
		purchases:  repository.NewPurchaseRepository(db),
		drafts:     NewRedisDraftStore(r, 0),
		events:     &recordingPublisher{},
		clock:      fixedClock(),
	}
	env.numbers = numbering.NewCounterAllocator(repository.NewCounterRepository(db), map[string]numbering.Seeder{
		numbering.ScopeSales.Name: env.sales,
		numbering.ScopeOrder.Name: env.orders,
	})
	return env
}

func (e *testEnv) salesService() *SalesService {
	return NewSalesService(e.sales, e.products, e.methods, e.orders, e.drafts, e.numbers, e.events, e.clock)
}

func (e *testEnv) orderService(orders OrderRepository) *OrderService {
	if orders == nil {
		orders = e.orders
	}
	return NewOrderService(orders, e.customers, e.products, e.numbers, e.events, e.clock)
}

func (e *testEnv) product(t *testing.T, name string, price int64, unit string) *model.Product {
	t.Helper()
	p, err := e.products.Create(context.Background(), model.ProductInput{Name: name, Price: dec(price), Unit: unit})
	require.NoError(t, err)
	return p
}

func (e *testEnv) paymentMethod(t *testing.T, name string) *model.Lookup {
	t.Helper()
	m, err := e.methods.Create(context.Background(), model.LookupInput{Name: name})
	require.NoError(t, err)
	return m
}

func (e *testEnv) category(t *testing.T, name string) *model.Lookup {
	t.Helper()
	c, err := e.categories.Create(context.Background(), model.LookupInput{Name: name})
	require.NoError(t, err)
	return c
}

func standard(lines ...model.StandardLine) model.StandardInvoice {
	return model.StandardInvoice{Lines: lines}
}
