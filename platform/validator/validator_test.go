package validator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type line struct {
	Price decimal.Decimal `validate:"money"`
}

func TestMoney(t *testing.T) {
	v := New("BD")

	for _, ok := range []string{"0", "12", "1999.99", "0.5"} {
		assert.NoError(t, v.Struct(line{Price: decimal.RequireFromString(ok)}), ok)
	}
	for _, bad := range []string{"-1", "10.125", "-0.01"} {
		assert.Error(t, v.Struct(line{Price: decimal.RequireFromString(bad)}), bad)
	}
}

func TestPhone(t *testing.T) {
	v := New("BD")

	assert.NoError(t, v.Var("01712345678", "phone"))
	assert.NoError(t, v.Var("+8801712345678", "phone"))
	assert.Error(t, v.Var("12", "phone"))
}
