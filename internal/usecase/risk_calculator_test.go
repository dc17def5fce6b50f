package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vitos/futures_risk_guard/internal/domain"
)

func TestProtectiveDefaultsLong(t *testing.T) {
	calc := NewRiskCalculator(2)

	sl, tp := calc.ProtectiveDefaults(100, domain.SideLong)
	assert.Equal(t, 98.0, sl)
	assert.Equal(t, 103.0, tp)
}

func TestProtectiveDefaultsShort(t *testing.T) {
	calc := NewRiskCalculator(2)

	sl, tp := calc.ProtectiveDefaults(100, domain.SideShort)
	assert.Equal(t, 102.0, sl)
	assert.Equal(t, 97.0, tp)
}

func TestProtectiveDefaultsRounding(t *testing.T) {
	calc := NewRiskCalculator(2)

	sl, tp := calc.ProtectiveDefaults(0.12345, domain.SideLong)
	assert.Equal(t, 0.12, sl)
	assert.Equal(t, 0.13, tp)
}

func TestProtectiveDefaultsNonPositivePrice(t *testing.T) {
	calc := NewRiskCalculator(2)

	sl, tp := calc.ProtectiveDefaults(0, domain.SideLong)
	assert.Zero(t, sl)
	assert.Zero(t, tp)

	sl, tp = calc.ProtectiveDefaults(-5, domain.SideShort)
	assert.Zero(t, sl)
	assert.Zero(t, tp)
}

func TestRiskReward(t *testing.T) {
	calc := NewRiskCalculator(2)

	cases := []struct {
		name       string
		price      float64
		stopLoss   float64
		takeProfit float64
		side       domain.Side
		want       string
	}{
		{name: "long template ratio", price: 100, stopLoss: 98, takeProfit: 103, side: domain.SideLong, want: "1:1.50"},
		{name: "short template ratio", price: 100, stopLoss: 102, takeProfit: 97, side: domain.SideShort, want: "1:1.50"},
		{name: "long even ratio", price: 100, stopLoss: 95, takeProfit: 105, side: domain.SideLong, want: "1:1.00"},
		{name: "inverted stop for long", price: 100, stopLoss: 105, takeProfit: 110, side: domain.SideLong, want: RiskRewardInvalid},
		{name: "inverted target for short", price: 100, stopLoss: 102, takeProfit: 103, side: domain.SideShort, want: RiskRewardInvalid},
		{name: "no price", price: 0, stopLoss: 98, takeProfit: 103, side: domain.SideLong, want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, calc.RiskReward(tc.price, tc.stopLoss, tc.takeProfit, tc.side))
		})
	}
}
