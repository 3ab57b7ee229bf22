package address

import (
	"github.com/google/uuid"
)

type Address struct {
	ID     uuid.UUID
	UserID uint

	FullName string
	Phone    *string

	Line1 string
	Line2 *string

	City       string
	Region     string
	PostalCode string
	Country    string

	IsDefault bool
	IsActive  bool
}

type CreateAddressInput struct {
	FullName     string
	Phone        *string
	Line1        string
	Line2        *string
	City         string
	Region       string
	PostalCode   string
	Country      string
	SetAsDefault bool
}

type UpdateAddressInput struct {
	AddressID    string
	FullName     string
	Phone        *string
	Line1        string
	Line2        *string
	City         string
	Region       string
	PostalCode   string
	Country      string
	SetAsDefault bool
}
