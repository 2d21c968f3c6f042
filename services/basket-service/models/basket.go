package models

import "github.com/yashrajoria/swn-shop/pkg/contracts"

// Basket is stored whole under userName; writes replace the previous row.
type Basket struct {
	UserName string           `json:"userName" dynamodbav:"userName"`
	Items    []contracts.Item `json:"items" dynamodbav:"items"`
}

// CheckoutRequest is the body of POST /basket/checkout.
type CheckoutRequest struct {
	UserName      string `json:"userName"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	CardInfo      string `json:"cardInfo"`
	PaymentMethod int    `json:"paymentMethod"`
}
