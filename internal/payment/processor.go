// Package payment drives checkout against the hosted payment widget. The one
// hard rule here: a provider callback claiming success is never trusted on
// its own. The transaction ID must be confirmed with the backend before the
// order counts as paid and the cart is cleared.
package payment

import (
	"context"
	"log"

	"github.com/google/uuid"

	"storefront/internal/api"
	"storefront/internal/cart"
	"storefront/internal/models"
)

// StatusSuccessful is the only callback status that can lead to a paid order.
const StatusSuccessful = "successful"

// Charge is what the hosted payment widget is invoked with.
type Charge struct {
	PublicKey     string  `json:"public_key"`
	TxRef         string  `json:"tx_ref"`
	OrderID       string  `json:"order_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	CustomerEmail string  `json:"customer_email"`
	CustomerPhone string  `json:"customer_phone"`
	CustomerName  string  `json:"customer_name"`
}

// Callback is what the widget reports back when the user finishes or abandons
// the payment flow.
type Callback struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// Processor orchestrates order creation, charge construction, and callback
// confirmation.
type Processor struct {
	api       *api.Client
	cart      *cart.Manager
	publicKey string
	currency  string
}

// NewProcessor creates a Processor. publicKey identifies the store to the
// payment provider; currency applies to every charge.
func NewProcessor(client *api.Client, cartManager *cart.Manager, publicKey, currency string) *Processor {
	return &Processor{
		api:       client,
		cart:      cartManager,
		publicKey: publicKey,
		currency:  currency,
	}
}

// BeginCheckout creates the order server-side from the current cart and
// returns the charge to hand to the payment widget. The cart is left intact;
// it is cleared only after a confirmed payment.
func (p *Processor) BeginCheckout(ctx context.Context, user *models.User) (*Charge, api.Result) {
	// One snapshot of the cart; a Clear racing this call cannot thin the
	// order between the emptiness check and submission.
	items := p.cart.OrderItems()
	if len(items) == 0 {
		return nil, api.Result{Success: false, Message: "Your cart is empty"}
	}
	if user == nil {
		return nil, api.Result{Success: false, Message: "Please log in to continue with your purchase"}
	}

	order, res := p.api.CreateOrder(ctx, items)
	if !res.Success {
		return nil, res
	}

	return &Charge{
		PublicKey:     p.publicKey,
		TxRef:         uuid.New().String(),
		OrderID:       order.ID,
		Amount:        order.TotalAmount,
		Currency:      p.currency,
		CustomerEmail: user.Email,
		CustomerPhone: user.PhoneNumber,
		CustomerName:  user.FirstName + " " + user.LastName,
	}, res
}

// HandleCallback processes the widget's callback for orderID. Any status
// other than "successful" fails immediately. A successful status is confirmed
// with the backend; only then is the cart cleared.
func (p *Processor) HandleCallback(ctx context.Context, orderID string, cb Callback) api.Result {
	if cb.Status != StatusSuccessful {
		return api.Result{Success: false, Message: "Payment was not completed"}
	}
	if cb.TransactionID == "" {
		return api.Result{Success: false, Message: "Payment was not completed"}
	}

	res := p.api.ConfirmPayment(ctx, orderID, cb.TransactionID)
	if !res.Success {
		return res
	}

	if err := p.cart.Clear(); err != nil {
		// The order is paid; a failed cart write must not undo that.
		log.Printf("Failed to clear cart after payment: %v", err)
	}
	return res
}
