package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"mall/internal/models"
	"mall/internal/repositories"
)

// EventPublisher publishes order lifecycle events to the message broker.
// Implemented by pkg/rabbitmq.Client; nil is allowed and skips publication.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// PlaceOrderLine is one requested SKU+quantity entry of an order placement.
type PlaceOrderLine struct {
	SkuID  string `json:"sku_id" validate:"required"`
	Amount int    `json:"amount" validate:"required,min=1"`
}

// OrderHook runs synchronously after a lifecycle transition commits, with the
// transitioned order. Used to decouple derived-data recompute (sold count,
// product rating) from the transactional core.
type OrderHook func(order *models.Order)

// OrderService composes the ledgers, the order repository and the delayed
// closer into the public order lifecycle operations.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	skuRepo     repositories.SkuRepository
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
	stock       *StockLedger
	coupons     *CouponLedger
	closer      *DelayedCloser
	closeDelay  time.Duration
	publisher   EventPublisher

	paidHooks     []OrderHook
	reviewedHooks []OrderHook
}

// NewOrderService creates a new OrderService. closeDelay is how long an
// unpaid order survives before the auto-close task fires.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	skuRepo repositories.SkuRepository,
	productRepo repositories.ProductRepository,
	userRepo repositories.UserRepository,
	couponRepo repositories.CouponRepository,
	publisher EventPublisher,
	closeDelay time.Duration,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		skuRepo:     skuRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		stock:       NewStockLedger(skuRepo),
		coupons:     NewCouponLedger(couponRepo),
		closer:      NewDelayedCloser(),
		closeDelay:  closeDelay,
		publisher:   publisher,
	}
}

// OnPaid registers a hook invoked after each successful payment settlement.
func (s *OrderService) OnPaid(hook OrderHook) {
	s.paidHooks = append(s.paidHooks, hook)
}

// OnReviewed registers a hook invoked after each successful review submission.
func (s *OrderService) OnReviewed(hook OrderHook) {
	s.reviewedHooks = append(s.reviewedHooks, hook)
}

// Stop cancels all pending auto-close timers. Called on shutdown.
func (s *OrderService) Stop() {
	s.closer.Stop()
}

// PlaceOrder creates an order for the given user: it snapshots the address
// and the product titles/prices, reserves stock for every line and a coupon
// use if a code was supplied, persists the order with its items and arms the
// auto-close timer. Any failure releases every reservation already made, so
// a failed placement leaves all counters untouched.
func (s *OrderService) PlaceOrder(userID, addressID, remark string, lines []PlaceOrderLine, couponCode string) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("order needs at least one item: %w", models.ErrInvalidState)
	}

	address, err := s.userRepo.GetAddressByID(addressID)
	if err != nil {
		return nil, err
	}
	if address.UserID != userID {
		return nil, fmt.Errorf("address %s does not belong to user %s: %w", addressID, userID, models.ErrForbidden)
	}

	// Snapshot titles and prices and compute the raw total. These reads are
	// not transactional with the reservation below; the conditional
	// decrement re-validates the stock regardless.
	var (
		items      []models.OrderItem
		stockLines []StockLine
		total      float64
	)
	for _, line := range lines {
		sku, err := s.skuRepo.GetByID(line.SkuID)
		if err != nil {
			return nil, err
		}
		product, err := s.productRepo.GetByID(sku.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.OnSale {
			return nil, fmt.Errorf("product %s is not on sale: %w", product.ID, models.ErrInvalidState)
		}
		items = append(items, models.OrderItem{
			ProductID:    product.ID,
			ProductSkuID: sku.ID,
			ProductTitle: product.Title,
			Price:        sku.Price,
			Amount:       line.Amount,
		})
		stockLines = append(stockLines, StockLine{SkuID: sku.ID, Amount: line.Amount})
		total += sku.Price * float64(line.Amount)
	}

	if err := s.stock.ReserveAll(stockLines); err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:       userID,
		Address:      address.Address,
		Contact:      address.Contact,
		Phone:        address.Phone,
		Remark:       remark,
		TotalAmount:  total,
		ShipStatus:   models.ShipStatusPending,
		RefundStatus: models.RefundStatusPending,
		Items:        items,
	}

	if couponCode != "" {
		coupon, err := s.coupons.Reserve(couponCode, time.Now())
		if err != nil {
			s.stock.ReleaseAll(stockLines)
			return nil, err
		}
		if total < coupon.MinAmount {
			s.coupons.Release(couponCode)
			s.stock.ReleaseAll(stockLines)
			return nil, fmt.Errorf("order total below coupon minimum of %.2f: %w",
				coupon.MinAmount, models.ErrCouponUnavailable)
		}
		order.TotalAmount = coupon.AdjustedTotal(total)
		order.CouponCode = &coupon.Code
	}

	if err := s.orderRepo.Create(order); err != nil {
		if order.CouponCode != nil {
			s.coupons.Release(*order.CouponCode)
		}
		s.stock.ReleaseAll(stockLines)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.closer.Schedule(order.ID, s.closeDelay, func(orderID string) {
		if err := s.AutoClose(orderID); err != nil {
			log.Printf("Auto-close of order %s failed: %v", orderID, err)
		}
	})

	s.publishEvent("order.created", order)
	return order, nil
}

// AutoClose closes an order whose payment never arrived and gives every
// reservation back. The conditional close in the repository decides the race
// against payment settlement: if this call did not flip the closed flag
// itself, the order was paid (or closed) meanwhile and no counter is touched.
func (s *OrderService) AutoClose(orderID string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}

	closed, err := s.orderRepo.CloseIfUnpaid(orderID)
	if err != nil {
		return err
	}
	if !closed {
		return nil
	}

	var stockLines []StockLine
	for _, item := range order.Items {
		stockLines = append(stockLines, StockLine{SkuID: item.ProductSkuID, Amount: item.Amount})
	}
	s.stock.ReleaseAll(stockLines)
	if order.CouponCode != nil {
		s.coupons.Release(*order.CouponCode)
	}

	log.Printf("Order %s auto-closed, %d stock lines released", orderID, len(stockLines))
	return nil
}

// SettlePayment records a confirmed payment: it sets paid_at, cancels the
// pending auto-close and runs the paid hooks. The reservation made at
// placement is consumed permanently; nothing is released. Fails with
// models.ErrInvalidState if the order was already paid or already closed.
func (s *OrderService) SettlePayment(orderID string) (*models.Order, error) {
	paid, err := s.orderRepo.MarkPaid(orderID, time.Now())
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, fmt.Errorf("order %s is already paid or closed: %w", orderID, models.ErrInvalidState)
	}

	s.closer.Cancel(orderID)

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	s.publishEvent("order.paid", order)
	for _, hook := range s.paidHooks {
		hook(order)
	}
	return order, nil
}

// Ship marks a paid order as delivered, storing the express company and
// tracking number in the order's metadata.
func (s *OrderService) Ship(orderID, company, trackingNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsPaid() {
		return nil, fmt.Errorf("order %s is not paid yet: %w", orderID, models.ErrInvalidState)
	}

	extra := map[string]string{
		models.ExtraShipCompany:    company,
		models.ExtraShipTrackingNo: trackingNo,
	}
	moved, err := s.orderRepo.UpdateShipStatus(orderID, models.ShipStatusPending, models.ShipStatusDelivered, extra)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, fmt.Errorf("order %s is not pending shipment: %w", orderID, models.ErrInvalidState)
	}
	return s.orderRepo.GetByID(orderID)
}

// MarkReceived confirms delivery of an order owned by the caller. Fails with
// models.ErrInvalidState unless the order is currently delivered.
func (s *OrderService) MarkReceived(userID, orderID string) (*models.Order, error) {
	order, err := s.getOwnedOrder(userID, orderID)
	if err != nil {
		return nil, err
	}

	moved, err := s.orderRepo.UpdateShipStatus(order.ID, models.ShipStatusDelivered, models.ShipStatusReceived, nil)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, fmt.Errorf("order %s has not been delivered yet: %w", orderID, models.ErrInvalidState)
	}
	return s.orderRepo.GetByID(orderID)
}

// SubmitReview records ratings for the given order items and marks the order
// reviewed, all in one transaction. The order must be paid and not yet
// reviewed, and every item id must belong to it; otherwise nothing persists.
func (s *OrderService) SubmitReview(userID, orderID string, reviews []repositories.ItemReview) (*models.Order, error) {
	order, err := s.getOwnedOrder(userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsPaid() {
		return nil, fmt.Errorf("order %s is not paid yet: %w", orderID, models.ErrInvalidState)
	}
	if order.Reviewed {
		return nil, fmt.Errorf("order %s was already reviewed: %w", orderID, models.ErrInvalidState)
	}
	if len(reviews) == 0 {
		return nil, fmt.Errorf("review submission is empty: %w", models.ErrInvalidState)
	}
	for _, review := range reviews {
		if !order.OwnsItem(review.ItemID) {
			return nil, fmt.Errorf("item %s does not belong to order %s: %w",
				review.ItemID, orderID, models.ErrInvalidState)
		}
	}

	if err := s.orderRepo.SaveReview(orderID, reviews, time.Now()); err != nil {
		return nil, err
	}

	order, err = s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	s.publishEvent("order.reviewed", order)
	for _, hook := range s.reviewedHooks {
		hook(order)
	}
	return order, nil
}

// ApplyRefund files a refund request for a paid order, recording the reason.
// A second application fails with models.ErrInvalidState.
func (s *OrderService) ApplyRefund(userID, orderID, reason string) (*models.Order, error) {
	order, err := s.getOwnedOrder(userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsPaid() {
		return nil, fmt.Errorf("order %s is not paid yet: %w", orderID, models.ErrInvalidState)
	}

	applied, err := s.orderRepo.ApplyRefund(order.ID, reason)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("refund for order %s was already applied: %w", orderID, models.ErrInvalidState)
	}
	return s.orderRepo.GetByID(orderID)
}

// GetOrder retrieves a single order owned by the caller.
func (s *OrderService) GetOrder(userID, orderID string) (*models.Order, error) {
	return s.getOwnedOrder(userID, orderID)
}

// ListOrders retrieves all orders of the caller, newest first.
func (s *OrderService) ListOrders(userID string) ([]models.Order, error) {
	return s.orderRepo.ListByUser(userID)
}

func (s *OrderService) getOwnedOrder(userID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order %s does not belong to user %s: %w", orderID, userID, models.ErrForbidden)
	}
	return order, nil
}

func (s *OrderService) publishEvent(routingKey string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.TotalAmount,
	})
	if err != nil {
		log.Printf("Failed to marshal %s event for order %s: %v", routingKey, order.ID, err)
		return
	}
	if err := s.publisher.Publish(routingKey, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", routingKey, order.ID, err)
	}
}
