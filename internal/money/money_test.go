package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in  string
		out Amount
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true},
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"1200", 120000, true},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.out, got)
		})
	}
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "0.00", Zero.String())
	assert.Equal(t, "12.50", Amount(1250).String())
	assert.Equal(t, "1500.00", MustParse("1500").String())
}

func TestFromDecimal(t *testing.T) {
	assert.Equal(t, Amount(1235), FromDecimal(decimal.RequireFromString("12.345")))
	assert.Equal(t, Amount(-1235), FromDecimal(decimal.RequireFromString("-12.345")))
	assert.True(t, MustParse("12.34").Decimal().Equal(decimal.RequireFromString("12.34")))
}

func TestSumIsExact(t *testing.T) {
	// 0.1 added a thousand times drifts in float64; in minor units it must not.
	parts := make([]Amount, 1000)
	for i := range parts {
		parts[i] = MustParse("0.10")
	}
	assert.Equal(t, MustParse("100"), Sum(parts...))
}

func TestAmountJSON(t *testing.T) {
	t.Run("marshal", func(t *testing.T) {
		data, err := json.Marshal(struct {
			Amount Amount `json:"amount"`
		}{Amount: 123456})
		require.NoError(t, err)
		assert.JSONEq(t, `{"amount":1234.56}`, string(data))
	})

	t.Run("unmarshal number and string", func(t *testing.T) {
		var v struct {
			A Amount `json:"a"`
			B Amount `json:"b"`
			C Amount `json:"c"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"a":12.5,"b":"7,25","c":null}`), &v))
		assert.Equal(t, Amount(1250), v.A)
		assert.Equal(t, Amount(725), v.B)
		assert.Equal(t, Zero, v.C)
	})

	t.Run("rejects negative", func(t *testing.T) {
		var v struct {
			A Amount `json:"a"`
		}
		assert.Error(t, json.Unmarshal([]byte(`{"a":-3}`), &v))
	})
}
