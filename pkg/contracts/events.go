package contracts

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Defaults wired by the infrastructure stack. Services read the live values
// from config; these are the fallbacks.
const (
	DefaultEventBusName    = "SwnEventBus"
	DefaultEventSource     = "com.swn.basket.checkout"
	DefaultEventDetailType = "CheckoutBasket"
)

// Item is a basket line. The same shape is carried on the checkout event and
// copied onto the order row.
type Item struct {
	ProductID   string  `json:"productId" dynamodbav:"productId"`
	ProductName string  `json:"productName" dynamodbav:"productName"`
	Quantity    int     `json:"quantity" dynamodbav:"quantity"`
	Color       string  `json:"color" dynamodbav:"color"`
	Price       float64 `json:"price" dynamodbav:"price"`
}

// CheckoutBasket is the detail of the checkout event published by the basket
// service and consumed by the order service.
type CheckoutBasket struct {
	UserName      string  `json:"userName" validate:"required"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Email         string  `json:"email"`
	Address       string  `json:"address"`
	CardInfo      string  `json:"cardInfo"`
	PaymentMethod int     `json:"paymentMethod"`
	TotalPrice    float64 `json:"totalPrice"`
	Items         []Item  `json:"items" validate:"dive"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the fields the order writer dereferences.
func (c *CheckoutBasket) Validate() error {
	if err := validatorInstance().Struct(c); err != nil {
		return fmt.Errorf("invalid checkout payload: %w", err)
	}
	return nil
}

// DecodeCheckoutBasket unmarshals and validates an event detail.
func DecodeCheckoutBasket(detail []byte) (*CheckoutBasket, error) {
	if len(detail) == 0 {
		return nil, fmt.Errorf("empty checkout detail")
	}
	var payload CheckoutBasket
	if err := json.Unmarshal(detail, &payload); err != nil {
		return nil, fmt.Errorf("decode checkout detail: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return &payload, nil
}
