package models

import (
	"time"

	"github.com/yashrajoria/swn-shop/pkg/contracts"
)

// CreatedAtLayout is fixed width so the sort key orders lexically and keeps
// nanoseconds apart.
const CreatedAtLayout = "2006-01-02T15:04:05.000000000Z"

// FormatCreatedAt renders t in UTC with CreatedAtLayout.
func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(CreatedAtLayout)
}

// Order is keyed by (userName, createdAt). Rows are written once and never
// updated.
type Order struct {
	UserName      string           `json:"userName" dynamodbav:"userName" gorm:"primaryKey;column:user_name;type:varchar(128)"`
	CreatedAt     string           `json:"createdAt" dynamodbav:"createdAt" gorm:"primaryKey;column:created_at;type:varchar(32)"`
	FirstName     string           `json:"firstName" dynamodbav:"firstName" gorm:"column:first_name"`
	LastName      string           `json:"lastName" dynamodbav:"lastName" gorm:"column:last_name"`
	Email         string           `json:"email" dynamodbav:"email" gorm:"column:email"`
	Address       string           `json:"address" dynamodbav:"address" gorm:"column:address"`
	CardInfo      string           `json:"cardInfo" dynamodbav:"cardInfo" gorm:"column:card_info"`
	PaymentMethod int              `json:"paymentMethod" dynamodbav:"paymentMethod" gorm:"column:payment_method"`
	TotalPrice    float64          `json:"totalPrice" dynamodbav:"totalPrice" gorm:"column:total_price"`
	Items         []contracts.Item `json:"items" dynamodbav:"items" gorm:"column:items;type:jsonb;serializer:json"`
}

func (Order) TableName() string { return "orders" }

// NewOrder copies a checkout payload onto an order row.
func NewOrder(p *contracts.CheckoutBasket, createdAt string) *Order {
	return &Order{
		UserName:      p.UserName,
		CreatedAt:     createdAt,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Email:         p.Email,
		Address:       p.Address,
		CardInfo:      p.CardInfo,
		PaymentMethod: p.PaymentMethod,
		TotalPrice:    p.TotalPrice,
		Items:         p.Items,
	}
}
