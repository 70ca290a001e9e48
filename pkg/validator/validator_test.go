package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name   string          `json:"name" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"money"`
}

func newValidate(t *testing.T) *validator.Validate {
	v := validator.New()
	require.NoError(t, Register(v))
	return v
}

func TestMoneyRule(t *testing.T) {
	v := newValidate(t)

	tests := []struct {
		amount string
		ok     bool
	}{
		{"0", true},
		{"300", true},
		{"120.50", true},
		{"-1", false},
		{"0.001", false},
		{"9999999999999999.99", true},
		{"10000000000000000", false},
		{"123456789012345678", false},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			err := v.Struct(payload{Name: "x", Amount: decimal.RequireFromString(tt.amount)})
			assert.Equal(t, tt.ok, err == nil, "%v", err)
		})
	}
}

func TestDescribe_UsesJSONNames(t *testing.T) {
	v := newValidate(t)

	err := v.Struct(payload{Amount: decimal.RequireFromString("-5")})
	fields, ok := Describe(err)

	require.True(t, ok)
	require.Len(t, fields, 2)
	assert.Equal(t, FieldError{Field: "name", Message: "name is required"}, fields[0])
	assert.Equal(t, "amount", fields[1].Field)
}

func TestDescribe_OtherErrors(t *testing.T) {
	_, ok := Describe(errors.New("unexpected EOF"))
	assert.False(t, ok)
}
