package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrInstrumentNotFound = errors.New("instrument not found")

type Availability string

const (
	// Available instruments can be reserved through checkout.
	Available Availability = "available"
	// Reserved instruments are held by an unpaid order.
	Reserved Availability = "reserved"
	// InBuild instruments are listed but still on the workbench.
	InBuild Availability = "in_build"
	// Sold is permanent; set when the order reaches delivered.
	Sold Availability = "sold"
)

func (a Availability) Valid() bool {
	switch a {
	case Available, Reserved, InBuild, Sold:
		return true
	}
	return false
}

func ParseAvailability(s string) (Availability, error) {
	a := Availability(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown availability %q", s)
	}
	return a, nil
}

// Instrument is a single physical item. There are no stock quantities;
// every row is one build, so availability is the whole inventory story.
type Instrument struct {
	ID           string
	Title        string
	Maker        string
	PriceCents   int64
	Availability Availability
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
