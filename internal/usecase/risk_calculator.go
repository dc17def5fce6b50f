package usecase

import (
	"fmt"
	"math"

	"github.com/vitos/futures_risk_guard/internal/domain"
)

// Fixed risk template the order form prefills: 2% stop buffer, 3% target,
// mirrored for shorts.
const (
	stopLossPct   = 0.02
	takeProfitPct = 0.03
)

// RiskRewardInvalid is returned when the computed risk or reward is not
// positive (inverted stop/target for the side).
const RiskRewardInvalid = "Invalid"

// RiskCalculator is pure: default protective prices and risk-reward ratio
// from price and side. No side effects, no network.
type RiskCalculator struct {
	precision int // decimal places of the exchange price step
}

func NewRiskCalculator(precision int) *RiskCalculator {
	if precision <= 0 {
		precision = 2
	}
	return &RiskCalculator{precision: precision}
}

// ProtectiveDefaults returns the template stop-loss and take-profit for an
// entry at price. A non-positive price yields zeros (no calculation).
func (c *RiskCalculator) ProtectiveDefaults(price float64, side domain.Side) (stopLoss, takeProfit float64) {
	if price <= 0 {
		return 0, 0
	}
	switch side {
	case domain.SideShort:
		stopLoss = c.round(price * (1 + stopLossPct))
		takeProfit = c.round(price * (1 - takeProfitPct))
	default:
		stopLoss = c.round(price * (1 - stopLossPct))
		takeProfit = c.round(price * (1 + takeProfitPct))
	}
	return stopLoss, takeProfit
}

// RiskReward formats the reward-to-risk ratio as "1:<ratio>". It returns
// RiskRewardInvalid when risk or reward is non-positive and an empty string
// when there is no price to calculate from.
func (c *RiskCalculator) RiskReward(price, stopLoss, takeProfit float64, side domain.Side) string {
	if price <= 0 {
		return ""
	}

	var risk, reward float64
	if side == domain.SideShort {
		risk = stopLoss - price
		reward = price - takeProfit
	} else {
		risk = price - stopLoss
		reward = takeProfit - price
	}

	if risk <= 0 || reward <= 0 {
		return RiskRewardInvalid
	}
	return fmt.Sprintf("1:%.2f", reward/risk)
}

func (c *RiskCalculator) round(v float64) float64 {
	p := math.Pow10(c.precision)
	return math.Round(v*p) / p
}
