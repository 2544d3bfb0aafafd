package groups

import (
	"errors"
	"time"
)

// PaymentStatus tracks whether a group's shared expense has been settled.
type PaymentStatus struct {
	Amount   int64     `json:"amount"`
	Currency string    `json:"currency"`
	Date     time.Time `json:"date"`
	IsPaid   bool      `json:"isPaid"`
}

// Group is a shared-expense group. Membership is tracked by email; the
// admin is always a member.
type Group struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	AdminEmail   string        `json:"adminEmail"`
	MembersEmail []string      `json:"membersEmail"`
	Thumbnail    string        `json:"thumbnail,omitempty"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	LastSettled  *time.Time    `json:"lastSettled,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Page describes pagination metadata returned with group listings.
type Page struct {
	TotalItems   int `json:"totalItems"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
}

var (
	ErrNotFound      = errors.New("groups: not found")
	ErrMissingFields = errors.New("groups: missing required fields")
)
