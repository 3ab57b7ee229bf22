package order

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"savora-be/internal/cart"
	"savora-be/internal/catalog"
	"savora-be/internal/discount"
	"savora-be/internal/logger"
	"savora-be/internal/payment"
	"savora-be/internal/pricing"
	"savora-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Service interface {
	// Quote prices the current cart, optionally with a discount code.
	Quote(ctx context.Context, owner cart.Owner, discountCode *string) (*Quote, error)

	// Place runs the atomic creation call, then requests a payment handle.
	// The two are deliberately decoupled: a handle failure comes back as
	// *PaymentHandleError with the order already persisted and unpaid.
	Place(ctx context.Context, params PlaceParams) (*Order, *payment.Handle, error)

	// RetryPayment requests a new handle for an existing unpaid order. No
	// duplicate order is ever created.
	RetryPayment(ctx context.Context, orderID uuid.UUID) (*Order, *payment.Handle, error)

	GetOrders(ctx context.Context, userID uint, limit, page int) ([]*Order, error)
	GetOrderDetail(ctx context.Context, userID uint, orderID uuid.UUID, isAdmin bool) (*Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status Status) error

	MarkAsPaid(ctx context.Context, referenceID string) error
	MarkAsFailed(ctx context.Context, referenceID string) error
}

type service struct {
	repo       Repository
	cartSvc    cart.Service
	resolver   *catalog.Resolver
	discounts  discount.Service
	payRepo    payment.Repository
	gateway    payment.Gateway
	pricingCfg pricing.Config
	currency   string
}

func NewService(
	repo Repository,
	cartSvc cart.Service,
	resolver *catalog.Resolver,
	discounts discount.Service,
	payRepo payment.Repository,
	gateway payment.Gateway,
	pricingCfg pricing.Config,
	currency string,
) Service {
	return &service{
		repo:       repo,
		cartSvc:    cartSvc,
		resolver:   resolver,
		discounts:  discounts,
		payRepo:    payRepo,
		gateway:    gateway,
		pricingCfg: pricingCfg,
		currency:   currency,
	}
}

func (s *service) Quote(ctx context.Context, owner cart.Owner, discountCode *string) (*Quote, error) {
	lines, err := s.cartSvc.Lines(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	products := s.resolver.Resolve(ctx, cart.LineViews(lines))

	items := make([]pricing.Item, 0, len(lines))
	for i, l := range lines {
		items = append(items, pricing.Item{
			UnitPrice: products[i].Price,
			Quantity:  l.Quantity,
		})
	}

	// Subtotal first: discount constraints depend on it.
	base := pricing.Calculate(items, s.pricingCfg, 0)

	var code *discount.Code
	var amount int64
	if discountCode != nil && *discountCode != "" {
		code, amount, err = s.discounts.Lookup(ctx, *discountCode, base.Subtotal)
		if err != nil {
			return nil, err
		}
	}

	return &Quote{
		Lines:    lines,
		Products: products,
		Totals:   pricing.Calculate(items, s.pricingCfg, amount),
		Discount: code,
	}, nil
}

func (s *service) Place(ctx context.Context, params PlaceParams) (*Order, *payment.Handle, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "Order"),
		zap.String("method", "Place"),
	)

	if !emailRegex.MatchString(params.Email) {
		return nil, nil, ErrInvalidEmail
	}

	if fieldErrs := params.Address.Validate(); len(fieldErrs) > 0 {
		return nil, nil, &ValidationError{Fields: fieldErrs}
	}
	if params.Address.Phone != "" {
		params.Address.Phone = utils.NormalizePhone(params.Address.Phone)
	}

	quote, err := s.Quote(ctx, params.Owner, params.DiscountCode)
	if err != nil {
		return nil, nil, err
	}

	o := &Order{
		ID:           uuid.New(),
		Number:       utils.GenerateOrderNumber(),
		UserID:       params.Owner.UserID,
		Status:       StatusPending,
		PaymentState: PaymentStateUnpaid,
		Address:      params.Address,
		Totals:       quote.Totals,
		CreatedAt:    time.Now(),
	}
	if params.Owner.IsGuest() {
		email := params.Email
		o.GuestEmail = &email
	}
	if quote.Discount != nil {
		id := quote.Discount.ID
		o.DiscountCodeID = &id
	}

	for i, l := range quote.Lines {
		p := quote.Products[i]
		o.Items = append(o.Items, Item{
			ID:            uuid.New(),
			OrderID:       o.ID,
			Ref:           l.Ref,
			Name:          p.Name,
			VariantID:     l.VariantID,
			CombinationID: l.CombinationID,
			Quantity:      l.Quantity,
			UnitPrice:     p.Price,
			Subtotal:      p.Price * int64(l.Quantity),
		})
	}

	// Atomic creation; a rejection leaves nothing behind and the cart intact.
	if err := s.repo.CreateOrderTx(ctx, o); err != nil {
		log.Warn("order creation rejected", zap.Error(err))
		return nil, nil, err
	}

	log.Info("order created",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.Number),
		zap.Int64("grand_total", o.Totals.GrandTotal),
	)

	handle, err := s.requestHandle(ctx, o, params.Email)
	if err != nil {
		return o, nil, &PaymentHandleError{OrderID: o.ID, Number: o.Number, Err: err}
	}

	return o, handle, nil
}

func (s *service) requestHandle(ctx context.Context, o *Order, email string) (*payment.Handle, error) {
	handle, err := s.gateway.CreateHandle(ctx, payment.CreateHandleParams{
		ReferenceID:   o.Number,
		Amount:        o.Totals.GrandTotal,
		Currency:      s.currency,
		CustomerEmail: email,
	})
	if err != nil {
		return nil, err
	}

	p := &payment.Payment{
		OrderID:           o.ID,
		ReferenceID:       o.Number,
		ProviderPaymentID: handle.ProviderPaymentID,
		Amount:            handle.Amount,
		Currency:          handle.Currency,
		Status:            handle.Status,
		ClientSecret:      handle.ClientSecret,
		RedirectURL:       handle.RedirectURL,
	}
	if err := s.payRepo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	return handle, nil
}

func (s *service) RetryPayment(ctx context.Context, orderID uuid.UUID) (*Order, *payment.Handle, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	if o.PaymentState == PaymentStatePaid {
		return nil, nil, ErrAlreadyPaid
	}

	email := utils.GetUserEmailFromContext(ctx)
	if email == "" && o.GuestEmail != nil {
		email = *o.GuestEmail
	}

	// Void the superseded attempt before minting a new handle, so at most one
	// payment row per order reads PENDING.
	prev, err := s.payRepo.GetLatestByOrderID(ctx, o.ID)
	switch {
	case err == nil && prev.Status == payment.StatusPending:
		if err := s.payRepo.UpdateStatus(ctx, prev.ReferenceID, payment.StatusExpired); err != nil {
			logger.FromCtx(ctx).Warn("failed to expire previous payment attempt",
				zap.String("order_number", o.Number), zap.Error(err))
		}
	case err != nil && !errors.Is(err, payment.ErrPaymentNotFound):
		logger.FromCtx(ctx).Warn("previous payment attempt lookup failed",
			zap.String("order_number", o.Number), zap.Error(err))
	}

	handle, err := s.requestHandle(ctx, o, email)
	if err != nil {
		return o, nil, &PaymentHandleError{OrderID: o.ID, Number: o.Number, Err: err}
	}

	return o, handle, nil
}

func (s *service) GetOrders(ctx context.Context, userID uint, limit, page int) ([]*Order, error) {
	return s.repo.ListByUser(ctx, userID, limit, page)
}

func (s *service) GetOrderDetail(ctx context.Context, userID uint, orderID uuid.UUID, isAdmin bool) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !isAdmin && (o.UserID == nil || *o.UserID != userID) {
		return nil, fmt.Errorf("unauthorized: cannot access others' orders")
	}

	return o, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status Status) error {
	validStatuses := map[Status]bool{
		StatusAccepted: true,
		StatusRejected: true,
		StatusCanceled: true,
	}

	if !validStatuses[status] {
		return fmt.Errorf("invalid status: %s", status)
	}

	return s.repo.UpdateStatus(ctx, orderID, status)
}

func (s *service) MarkAsPaid(ctx context.Context, referenceID string) error {
	o, err := s.repo.GetByNumber(ctx, referenceID)
	if err != nil {
		return err
	}

	if o.PaymentState == PaymentStatePaid {
		logger.FromCtx(ctx).Info("order already marked as paid",
			zap.String("order_number", referenceID))
		return nil
	}

	if err := s.repo.UpdatePaymentStateByNumber(ctx, referenceID, PaymentStatePaid); err != nil {
		return err
	}
	_ = s.payRepo.UpdateStatus(ctx, referenceID, payment.StatusPaid)

	logger.FromCtx(ctx).Info("order marked as paid", zap.String("order_number", referenceID))
	return nil
}

func (s *service) MarkAsFailed(ctx context.Context, referenceID string) error {
	o, err := s.repo.GetByNumber(ctx, referenceID)
	if err != nil {
		return err
	}

	if o.PaymentState == PaymentStateFailed {
		return nil
	}

	if err := s.repo.UpdatePaymentStateByNumber(ctx, referenceID, PaymentStateFailed); err != nil {
		return err
	}
	_ = s.payRepo.UpdateStatus(ctx, referenceID, payment.StatusFailed)

	logger.FromCtx(ctx).Info("order marked as failed", zap.String("order_number", referenceID))
	return nil
}
