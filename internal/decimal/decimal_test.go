package decimal_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	dec "fenrir/internal/decimal"
)

func TestSqrt(t *testing.T) {
	cfg := dec.DefaultSqrtConfig()

	cases := []struct {
		name  string
		input decimal.Decimal
		want  decimal.Decimal
	}{
		{"zero", decimal.Zero, decimal.Zero},
		{"four", decimal.NewFromInt(4), decimal.NewFromInt(2)},
		{"nine", decimal.NewFromInt(9), decimal.NewFromInt(3)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := dec.Sqrt(tc.input, cfg)
			assert.True(t, got.Sub(tc.want).Abs().LessThanOrEqual(decimal.New(1, -2)), "sqrt(%s) = %s, want ~%s", tc.input, got, tc.want)
		})
	}
}

func TestSqrt_Irrational(t *testing.T) {
	cfg := dec.DefaultSqrtConfig()
	got := dec.Sqrt(decimal.NewFromInt(2), cfg)
	want := decimal.RequireFromString("1.4142135624")
	assert.True(t, got.Sub(want).Abs().LessThanOrEqual(decimal.New(1, -2)))
}

func TestSqrt_SelfConsistent(t *testing.T) {
	cfg := dec.DefaultSqrtConfig()
	for _, v := range []string{"0.00000001", "1", "100", "100000000"} {
		x := decimal.RequireFromString(v)
		root := dec.Sqrt(x, cfg)
		sq := root.Mul(root)
		assert.True(t, sq.Sub(x).Abs().LessThanOrEqual(decimal.New(1, -6)), "sqrt(%s)^2 = %s", v, sq)
	}
}
