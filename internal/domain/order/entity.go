package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const refundPrefix = "SIM_REFUND_"

// Item is a snapshot of the product at checkout time.
type Item struct {
	ProductID     uuid.UUID       `json:"productId"`
	NameSnapshot  string          `json:"nameSnapshot"`
	PriceSnapshot decimal.Decimal `json:"priceSnapshot"`
	Qty           int             `json:"qty"`
}

type Payment struct {
	Method PaymentMethod
	ID     string
	Last4  string
}

type Order struct {
	id            uuid.UUID
	userID        uuid.UUID
	items         []Item
	total         decimal.Decimal
	payment       Payment
	paymentStatus PaymentStatus
	refundID      string
	status        Status
	createdAt     time.Time
	updatedAt     time.Time
	cancelledAt   *time.Time
	refundedAt    *time.Time
	shippedAt     *time.Time
	deliveredAt   *time.Time
}

// CancelOutcome is what a cancellation did to the payment.
type CancelOutcome struct {
	PaymentStatus PaymentStatus
	RefundID      string
}

func NewOrder(userID uuid.UUID, items []Item, payment Payment, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	status := PaymentPaid
	switch payment.Method {
	case PaymentCardSim:
		if strings.TrimSpace(payment.ID) == "" {
			return nil, ErrPaymentRequired
		}
	case PaymentCOD:
		status = PaymentPending
	default:
		return nil, ErrInvalidPaymentMethod
	}

	return &Order{
		id:            uuid.New(),
		userID:        userID,
		items:         append([]Item(nil), items...),
		total:         Total(items),
		payment:       payment,
		paymentStatus: status,
		status:        StatusPending,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

type Snapshot struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Items         []Item
	Total         decimal.Decimal
	Payment       Payment
	PaymentStatus PaymentStatus
	RefundID      string
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CancelledAt   *time.Time
	RefundedAt    *time.Time
	ShippedAt     *time.Time
	DeliveredAt   *time.Time
}

func ReconstructOrder(s Snapshot) *Order {
	return &Order{
		id:            s.ID,
		userID:        s.UserID,
		items:         append([]Item(nil), s.Items...),
		total:         s.Total,
		payment:       s.Payment,
		paymentStatus: s.PaymentStatus,
		refundID:      s.RefundID,
		status:        s.Status,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
		cancelledAt:   s.CancelledAt,
		refundedAt:    s.RefundedAt,
		shippedAt:     s.ShippedAt,
		deliveredAt:   s.DeliveredAt,
	}
}

func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:            o.id,
		UserID:        o.userID,
		Items:         o.Items(),
		Total:         o.total,
		Payment:       o.payment,
		PaymentStatus: o.paymentStatus,
		RefundID:      o.refundID,
		Status:        o.status,
		CreatedAt:     o.createdAt,
		UpdatedAt:     o.updatedAt,
		CancelledAt:   o.cancelledAt,
		RefundedAt:    o.refundedAt,
		ShippedAt:     o.shippedAt,
		DeliveredAt:   o.deliveredAt,
	}
}

// Total sums price x qty over the lines and rounds once at the end.
func Total(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.PriceSnapshot.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	return sum.Round(2)
}

// Cancel moves a pending order to cancelled and settles the simulated payment.
func (o *Order) Cancel(now time.Time) (CancelOutcome, error) {
	if o.status != StatusPending {
		return CancelOutcome{}, ErrNotPending
	}
	if err := CheckTransition(o.status, StatusCancelled); err != nil {
		return CancelOutcome{}, err
	}

	o.status = StatusCancelled
	o.cancelledAt = &now

	switch o.paymentStatus {
	case PaymentPaid:
		o.paymentStatus = PaymentRefunded
		o.refundedAt = &now
		if o.refundID == "" {
			o.refundID = RefundID(o.id)
		}
	case PaymentPending:
		o.paymentStatus = PaymentUnpaid
	}
	o.updatedAt = now

	return CancelOutcome{PaymentStatus: o.paymentStatus, RefundID: o.refundID}, nil
}

// Advance applies an admin fulfilment step and stamps its timestamp.
func (o *Order) Advance(next Status, now time.Time) error {
	if !next.IsValid() {
		return ErrInvalidStatus
	}
	if next == StatusCancelled && !o.status.IsTerminal() {
		return &TransitionError{From: o.status, To: next}
	}
	if err := CheckTransition(o.status, next); err != nil {
		return err
	}

	o.status = next
	switch next {
	case StatusShipped:
		o.shippedAt = &now
	case StatusDelivered:
		o.deliveredAt = &now
	}
	o.updatedAt = now
	return nil
}

// RefundID derives the simulated refund reference from the order id.
func RefundID(id uuid.UUID) string {
	s := strings.ReplaceAll(id.String(), "-", "")
	return refundPrefix + strings.ToUpper(s[len(s)-6:])
}

func (o *Order) ID() uuid.UUID                { return o.id }
func (o *Order) UserID() uuid.UUID            { return o.userID }
func (o *Order) Items() []Item                { return append([]Item(nil), o.items...) }
func (o *Order) Total() decimal.Decimal       { return o.total }
func (o *Order) Payment() Payment             { return o.payment }
func (o *Order) PaymentStatus() PaymentStatus { return o.paymentStatus }
func (o *Order) RefundID() string             { return o.refundID }
func (o *Order) Status() Status               { return o.status }
func (o *Order) CreatedAt() time.Time         { return o.createdAt }
func (o *Order) UpdatedAt() time.Time         { return o.updatedAt }
func (o *Order) CancelledAt() *time.Time      { return o.cancelledAt }
func (o *Order) RefundedAt() *time.Time       { return o.refundedAt }
func (o *Order) ShippedAt() *time.Time        { return o.shippedAt }
func (o *Order) DeliveredAt() *time.Time      { return o.deliveredAt }
