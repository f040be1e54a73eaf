package store

import (
	"errors"
	"fmt"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	// the normalized shape app.Save returns when a record insert trips a
	// unique index
	normalized := validation.Errors{
		"registration_id": validation.NewError("validation_not_unique", "Value must be unique"),
		"slot":            validation.NewError("validation_not_unique", "Value must be unique"),
	}
	assert.True(t, isUniqueViolation(normalized))
	assert.True(t, isUniqueViolation(fmt.Errorf("save record: %w", normalized)))

	// the raw SQLite message from queries that bypass normalization
	assert.True(t, isUniqueViolation(errors.New("UNIQUE constraint failed: tickets.qr_token")))

	assert.False(t, isUniqueViolation(validation.Errors{
		"code": validation.NewError("validation_required", "cannot be blank"),
	}))
	assert.False(t, isUniqueViolation(errors.New("disk I/O error")))
	assert.False(t, isUniqueViolation(nil))
}

func TestRegistrationPriceRoundTrip(t *testing.T) {
	collection := core.NewBaseCollection("registrations")
	collection.Fields.Add(&core.TextField{Name: "price"})

	record := core.NewRecord(collection)
	// a value float64 cannot represent exactly
	record.Set("price", "0.1")

	reg := registrationFromRecord(record)
	assert.True(t, decimal.RequireFromString("0.1").Equal(reg.Price))
	assert.Equal(t, "0.1", reg.Price.String())
}

func TestRegistrationPriceUnparsableDefaultsToZero(t *testing.T) {
	collection := core.NewBaseCollection("registrations")
	collection.Fields.Add(&core.TextField{Name: "price"})

	record := core.NewRecord(collection)

	reg := registrationFromRecord(record)
	assert.True(t, reg.Price.IsZero())
}
