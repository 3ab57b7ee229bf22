package order

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"savora-be/internal/address"
	"savora-be/internal/cart"
	"savora-be/internal/catalog"
	"savora-be/internal/discount"
	"savora-be/internal/payment"
	"savora-be/internal/pricing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateOrderTx(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetByNumber(ctx context.Context, number string) (*Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) ListByUser(ctx context.Context, userID uint, limit, page int) ([]*Order, error) {
	args := m.Called(ctx, userID, limit, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockRepository) UpdatePaymentStateByNumber(ctx context.Context, number string, state PaymentState) error {
	args := m.Called(ctx, number, state)
	return args.Error(0)
}

// MockCartService is a mock for the cart service
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Add(ctx context.Context, params cart.AddParams) (*cart.Line, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Line), args.Error(1)
}

func (m *MockCartService) Lines(ctx context.Context, owner cart.Owner) ([]*cart.Line, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cart.Line), args.Error(1)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, params cart.UpdateParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockCartService) Remove(ctx context.Context, owner cart.Owner, lineID uuid.UUID) error {
	args := m.Called(ctx, owner, lineID)
	return args.Error(0)
}

func (m *MockCartService) Clear(ctx context.Context, owner cart.Owner) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

func (m *MockCartService) MergeGuest(ctx context.Context, guestID uuid.UUID, userID uint) error {
	args := m.Called(ctx, guestID, userID)
	return args.Error(0)
}

// MockDiscountService is a mock for the discount service
type MockDiscountService struct {
	mock.Mock
}

func (m *MockDiscountService) Lookup(ctx context.Context, code string, subtotal int64) (*discount.Code, int64, error) {
	args := m.Called(ctx, code, subtotal)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).(*discount.Code), args.Get(1).(int64), args.Error(2)
}

// MockPaymentRepository is a mock for the payment repository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByReferenceID(ctx context.Context, referenceID string) (*payment.Payment, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetLatestByOrderID(ctx context.Context, orderID uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, referenceID, status string) error {
	args := m.Called(ctx, referenceID, status)
	return args.Error(0)
}

// MockGateway is a mock for the payment gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateHandle(ctx context.Context, params payment.CreateHandleParams) (*payment.Handle, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Handle), args.Error(1)
}

func (m *MockGateway) GetStatus(ctx context.Context, referenceID string) (*payment.Status, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Status), args.Error(1)
}

func (m *MockGateway) VerifySignature(r *http.Request) error {
	args := m.Called(r)
	return args.Error(0)
}

// stubCatalogRepo backs the resolver with a fixed product set.
type stubCatalogRepo struct {
	products map[string]*catalog.ResolvedProduct
}

func (s *stubCatalogRepo) ListCategories(context.Context) ([]*catalog.Category, error) {
	return nil, nil
}
func (s *stubCatalogRepo) ListMenu(context.Context, *string) ([]*catalog.MenuItem, error) {
	return nil, nil
}
func (s *stubCatalogRepo) GetMenuItem(context.Context, string) (*catalog.MenuItem, error) {
	return nil, catalog.ErrNotFound
}
func (s *stubCatalogRepo) GetDish(context.Context, string) (*catalog.Dish, error) {
	return nil, catalog.ErrNotFound
}
func (s *stubCatalogRepo) GetLegacyProduct(context.Context, string) (*catalog.LegacyProduct, error) {
	return nil, catalog.ErrNotFound
}
func (s *stubCatalogRepo) GetByRef(_ context.Context, ref catalog.ProductRef) (*catalog.ResolvedProduct, error) {
	if p, ok := s.products[ref.Key()]; ok {
		return p, nil
	}
	return nil, catalog.ErrNotFound
}

var testPricing = pricing.Config{
	DeliveryFee:           500,
	FreeDeliveryThreshold: 5000,
	TaxRatePercent:        8,
}

type fixture struct {
	repo      *MockRepository
	carts     *MockCartService
	discounts *MockDiscountService
	payRepo   *MockPaymentRepository
	gateway   *MockGateway
	svc       Service
}

func newFixture(products map[string]*catalog.ResolvedProduct) *fixture {
	f := &fixture{
		repo:      new(MockRepository),
		carts:     new(MockCartService),
		discounts: new(MockDiscountService),
		payRepo:   new(MockPaymentRepository),
		gateway:   new(MockGateway),
	}
	resolver := catalog.NewResolver(&stubCatalogRepo{products: products}, 16)
	f.svc = NewService(f.repo, f.carts, resolver, f.discounts, f.payRepo, f.gateway, testPricing, "USD")
	return f
}

var menuRef = catalog.ProductRef{Kind: catalog.KindMenuItem, ID: "m-1"}

func cartOf(owner cart.Owner) []*cart.Line {
	return []*cart.Line{{ID: uuid.New(), Ref: menuRef, Quantity: 2}}
}

func liveProducts() map[string]*catalog.ResolvedProduct {
	return map[string]*catalog.ResolvedProduct{
		menuRef.Key(): {Ref: menuRef, Name: "Pad Thai", Price: 1200, Available: true, Source: catalog.SourceLookup},
	}
}

func validAddress() address.Form {
	return address.Form{
		Mode:       address.ModeManual,
		FullName:   "Dana Osei",
		Line1:      "12 Crescent Rd",
		City:       "Springfield",
		Region:     "IL",
		PostalCode: "62701",
		Country:    "US",
		Phone:      "15551234567",
	}
}

func TestService_Quote(t *testing.T) {
	ctx := context.Background()
	owner := cart.UserOwner(1)

	t.Run("EmptyCart", func(t *testing.T) {
		f := newFixture(liveProducts())
		f.carts.On("Lines", mock.Anything, owner).Return([]*cart.Line{}, nil)

		_, err := f.svc.Quote(ctx, owner, nil)
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("PricesResolvedLines", func(t *testing.T) {
		f := newFixture(liveProducts())
		f.carts.On("Lines", mock.Anything, owner).Return(cartOf(owner), nil)

		q, err := f.svc.Quote(ctx, owner, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2400), q.Totals.Subtotal)
		assert.Equal(t, int64(500), q.Totals.DeliveryFee)
		assert.Equal(t, int64(192), q.Totals.Tax)
		assert.Equal(t, int64(3092), q.Totals.GrandTotal)
	})

	t.Run("DiscountValidatedAgainstSubtotal", func(t *testing.T) {
		f := newFixture(liveProducts())
		f.carts.On("Lines", mock.Anything, owner).Return(cartOf(owner), nil)

		code := &discount.Code{ID: uuid.New(), Code: "SAVE10"}
		f.discounts.On("Lookup", mock.Anything, "SAVE10", int64(2400)).Return(code, int64(240), nil)

		c := "SAVE10"
		q, err := f.svc.Quote(ctx, owner, &c)
		require.NoError(t, err)
		assert.Equal(t, int64(240), q.Totals.Discount)
		assert.Equal(t, int64(2852), q.Totals.GrandTotal)
		assert.Equal(t, code, q.Discount)
	})

	t.Run("ReapplyingSameCodeIsIdempotent", func(t *testing.T) {
		f := newFixture(liveProducts())
		f.carts.On("Lines", mock.Anything, owner).Return(cartOf(owner), nil)

		code := &discount.Code{ID: uuid.New(), Code: "SAVE10"}
		f.discounts.On("Lookup", mock.Anything, "SAVE10", int64(2400)).Return(code, int64(240), nil)

		c := "SAVE10"
		first, err := f.svc.Quote(ctx, owner, &c)
		require.NoError(t, err)
		second, err := f.svc.Quote(ctx, owner, &c)
		require.NoError(t, err)
		assert.Equal(t, first.Totals, second.Totals)
	})

	t.Run("MissingProductStillQuotesViaFallback", func(t *testing.T) {
		f := newFixture(map[string]*catalog.ResolvedProduct{})
		price := int64(1200)
		f.carts.On("Lines", mock.Anything, owner).Return([]*cart.Line{
			{ID: uuid.New(), Ref: menuRef, Quantity: 2, PriceAtAdd: &price},
		}, nil)

		q, err := f.svc.Quote(ctx, owner, nil)
		require.NoError(t, err)
		require.Len(t, q.Products, 1)
		assert.Equal(t, catalog.SourcePlaceholder, q.Products[0].Source)
		assert.Equal(t, int64(2400), q.Totals.Subtotal)
	})
}

func TestService_Place(t *testing.T) {
	ctx := context.Background()
	owner := cart.UserOwner(1)

	params := PlaceParams{
		Owner:   owner,
		Address: validAddress(),
		Email:   "dana@example.com",
	}

	t.Run("Success", func(t *testing.T) {
		f := newFixture(liveProducts())
		f.carts.On("Lines", mock.Anything, owner).Return(cartOf(owner), nil)
		f.repo.On("CreateOrderTx", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)

		var capturedRef string
		f.gateway.On("CreateHandle", mock.Anything, mock.MatchedBy(func(p payment.CreateHandleParams) bool {
			capturedRef = p.ReferenceID
			return p.Amount == 3092 && p.Currency == "USD"
		})).Return(&payment.Handle{ProviderPaymentID: "pi_1", Status: payment.StatusPending}, nil)
		f.payRepo.On("Save", mock.Anything, mock.AnythingOfType("*payment.Payment")).Return(nil)

		o, handle, err := f.svc.Place(ctx, params)
		require.NoError(t, err)
		require.NotNil(t, handle)
		assert.Equal(t, o.Number, capturedRef)
		assert.Equal(t, PaymentStateUnpaid, o.PaymentState)
		assert.Nil(t, o.GuestEmail)
		assert.Equal(t, "+15551234567", o.Address.Phone)

		// Placement never touches the cart; it is cleared only on payment success.
		f.carts.AssertNotCalled(t, "Clear")
	})

	t.Run("GuestOrderKeepsEmail", func(t *testing.T) {
		guest := cart.GuestOwner(uuid.New())
		f := newFixture(liveProducts())
		f.carts.On("Lines", mock.Anything, guest).Return(cartOf(guest), nil)
		f.repo.On("CreateOrderTx", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)
		f.gateway.On("CreateHandle", mock.Anything, mock.Anything).
			Return(&payment.Handle{ProviderPaymentID: "pi_2", Status: payment.StatusPending}, nil)
		f.payRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		o, _, err := f.svc.Place(ctx, PlaceParams{
			Owner: guest, Address: validAddress(), Email: "guest@example.com",
		})
		require.NoError(t, err)
		require.NotNil(t, o.GuestEmail)
		assert.Equal(t, "guest@example.com", *o.GuestEmail)
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		f := newFixture(liveProducts())

		p := params
		p.Email = "not-an-email"
		_, _, err := f.svc.Place(ctx, p)
		assert.ErrorIs(t, err, ErrInvalidEmail)
	})

	t.Run("AddressValidation", func(t *testing.T) {
		f := newFixture(liveProducts())

		p := params
		p.Address.Phone = ""
		_, _, err := f.svc.Place(ctx, p)

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Len(t, vErr.Fields, 1)
	})

	t.Run("RejectionPropagatesAndLeavesCart", func(t *testing.T) {
		f := newFixture(liveProducts())
		f.carts.On("Lines", mock.Anything, owner).Return(cartOf(owner), nil)

		rej := &PlacementRejection{LineName: "Pad Thai", Reason: "item is no longer available"}
		f.repo.On("CreateOrderTx", mock.Anything, mock.Anything).Return(rej)

		_, _, err := f.svc.Place(ctx, params)

		var got *PlacementRejection
		require.ErrorAs(t, err, &got)
		assert.Contains(t, got.Error(), "Pad Thai")
		f.gateway.AssertNotCalled(t, "CreateHandle")
		f.carts.AssertNotCalled(t, "Clear")
	})

	t.Run("HandleFailureReturnsOrder", func(t *testing.T) {
		f := newFixture(liveProducts())
		f.carts.On("Lines", mock.Anything, owner).Return(cartOf(owner), nil)
		f.repo.On("CreateOrderTx", mock.Anything, mock.Anything).Return(nil)
		f.gateway.On("CreateHandle", mock.Anything, mock.Anything).
			Return(nil, errors.New("processor timeout"))

		o, handle, err := f.svc.Place(ctx, params)

		var payErr *PaymentHandleError
		require.ErrorAs(t, err, &payErr)
		require.NotNil(t, o)
		assert.Nil(t, handle)
		assert.Equal(t, o.ID, payErr.OrderID)
		assert.Equal(t, o.Number, payErr.Number)
	})
}

func TestService_RetryPayment(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	existing := &Order{
		ID:           orderID,
		Number:       "ORD-20260901-120000-001-abcd",
		PaymentState: PaymentStateUnpaid,
		Totals:       pricing.Totals{GrandTotal: 3092},
	}

	t.Run("ReusesOrderAndReference", func(t *testing.T) {
		f := newFixture(liveProducts())
		f.repo.On("GetByID", mock.Anything, orderID).Return(existing, nil)
		f.payRepo.On("GetLatestByOrderID", mock.Anything, orderID).Return(nil, payment.ErrPaymentNotFound)

		f.gateway.On("CreateHandle", mock.Anything, mock.MatchedBy(func(p payment.CreateHandleParams) bool {
			return p.ReferenceID == existing.Number && p.Amount == 3092
		})).Return(&payment.Handle{ProviderPaymentID: "pi_retry", Status: payment.StatusPending}, nil)
		f.payRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		o, handle, err := f.svc.RetryPayment(ctx, orderID)
		require.NoError(t, err)
		require.NotNil(t, handle)
		assert.Equal(t, existing.Number, o.Number)

		// No new order is ever created on retry.
		f.repo.AssertNotCalled(t, "CreateOrderTx")
	})

	t.Run("ExpiresSupersededPendingAttempt", func(t *testing.T) {
		f := newFixture(liveProducts())
		f.repo.On("GetByID", mock.Anything, orderID).Return(existing, nil)
		f.payRepo.On("GetLatestByOrderID", mock.Anything, orderID).
			Return(&payment.Payment{ReferenceID: existing.Number, Status: payment.StatusPending}, nil)
		f.payRepo.On("UpdateStatus", mock.Anything, existing.Number, payment.StatusExpired).Return(nil)

		f.gateway.On("CreateHandle", mock.Anything, mock.Anything).
			Return(&payment.Handle{ProviderPaymentID: "pi_retry2", Status: payment.StatusPending}, nil)
		f.payRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		_, handle, err := f.svc.RetryPayment(ctx, orderID)
		require.NoError(t, err)
		require.NotNil(t, handle)

		// The old handle is voided before the new one is saved, so only the
		// newest payment row reads pending.
		f.payRepo.AssertCalled(t, "UpdateStatus", mock.Anything, existing.Number, payment.StatusExpired)
	})

	t.Run("SettledAttemptIsLeftAlone", func(t *testing.T) {
		f := newFixture(liveProducts())
		f.repo.On("GetByID", mock.Anything, orderID).Return(existing, nil)
		f.payRepo.On("GetLatestByOrderID", mock.Anything, orderID).
			Return(&payment.Payment{ReferenceID: existing.Number, Status: payment.StatusFailed}, nil)

		f.gateway.On("CreateHandle", mock.Anything, mock.Anything).
			Return(&payment.Handle{ProviderPaymentID: "pi_retry3", Status: payment.StatusPending}, nil)
		f.payRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		_, _, err := f.svc.RetryPayment(ctx, orderID)
		require.NoError(t, err)
		f.payRepo.AssertNotCalled(t, "UpdateStatus")
	})

	t.Run("AlreadyPaid", func(t *testing.T) {
		f := newFixture(liveProducts())
		paid := *existing
		paid.PaymentState = PaymentStatePaid
		f.repo.On("GetByID", mock.Anything, orderID).Return(&paid, nil)

		_, _, err := f.svc.RetryPayment(ctx, orderID)
		assert.ErrorIs(t, err, ErrAlreadyPaid)
	})
}

func TestService_MarkAsPaid(t *testing.T) {
	ctx := context.Background()
	number := "ORD-20260901-120000-001-abcd"

	t.Run("TransitionsAndUpdatesPaymentRow", func(t *testing.T) {
		f := newFixture(liveProducts())
		f.repo.On("GetByNumber", mock.Anything, number).
			Return(&Order{Number: number, PaymentState: PaymentStateUnpaid}, nil)
		f.repo.On("UpdatePaymentStateByNumber", mock.Anything, number, PaymentStatePaid).Return(nil)
		f.payRepo.On("UpdateStatus", mock.Anything, number, payment.StatusPaid).Return(nil)

		err := f.svc.MarkAsPaid(ctx, number)
		assert.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("IdempotentWhenAlreadyPaid", func(t *testing.T) {
		f := newFixture(liveProducts())
		f.repo.On("GetByNumber", mock.Anything, number).
			Return(&Order{Number: number, PaymentState: PaymentStatePaid}, nil)

		err := f.svc.MarkAsPaid(ctx, number)
		assert.NoError(t, err)
		f.repo.AssertNotCalled(t, "UpdatePaymentStateByNumber")
	})
}
