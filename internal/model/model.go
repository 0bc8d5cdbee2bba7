package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// CheckoutEvent is the abandoned checkout payload posted by the store platform.
// Only the fields the notifier acts on are decoded.
type CheckoutEvent struct {
	ID                   CheckoutID `json:"id"`
	Phone                string     `json:"phone"`
	ShippingAddress      *Address   `json:"shipping_address"`
	AbandonedCheckoutURL string     `json:"abandoned_checkout_url"`
	Customer             *Customer  `json:"customer"`
}

type Address struct {
	Phone string `json:"phone"`
}

type Customer struct {
	FirstName string `json:"first_name"`
}

// CheckoutID accepts both numeric and string identifiers and keeps
// the value verbatim as text.
type CheckoutID string

func (id *CheckoutID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = CheckoutID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = CheckoutID(n.String())
	return nil
}

// Checkout is a normalized event, ready for scheduling.
type Checkout struct {
	ID          string `json:"id"`
	Phone       string `json:"phone"`
	URL         string `json:"url"`
	DisplayName string `json:"display_name"`
}

type TaskKind string

const (
	TaskRegister TaskKind = "register"
	TaskSend     TaskKind = "send"
)

// Task is a unit of outbound provider work picked up by the dispatcher.
type Task struct {
	ID        string    `json:"id"`
	Kind      TaskKind  `json:"kind"`
	Checkout  Checkout  `json:"checkout"`
	CreatedAt time.Time `json:"created_at"`
}
