package discount

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"ms-campus/internal/models"
)

// ApplyDiscountResult represents the result of applying a promo code
type ApplyDiscountResult struct {
	IsValid         bool     // Whether the discount is valid and applicable
	DiscountCents   int64    // Amount of the discount to be applied
	Reason          string   // Reason why discount was not applied (if invalid)
	ApplicableTiers []string // Tiers to which the discount applies
}

// Evaluate validates promo against the order lines and calculates the
// discount in cents. Only ticket lines for the promo's event count, and the
// discount never exceeds their subtotal. An error means the promo itself is
// misconfigured; an inapplicable promo is reported through Reason.
func Evaluate(promo *models.PromoCode, lines []models.OrderLine, now time.Time) (*ApplyDiscountResult, error) {
	result := &ApplyDiscountResult{ApplicableTiers: make([]string, 0)}
	if promo == nil {
		return result, nil
	}

	// universal pre-condition checks
	if !promo.Active {
		result.Reason = "Promo code is not active"
		return result, nil
	}
	if now.Before(promo.ActiveFrom) {
		result.Reason = "Promo code is not yet active"
		return result, nil
	}
	if !now.Before(promo.ExpiresAt) {
		result.Reason = "Promo code has expired"
		return result, nil
	}
	if promo.MaxUsage > 0 && promo.CurrentUsage >= promo.MaxUsage {
		result.Reason = "Promo code usage limit has been reached"
		return result, nil
	}

	applicableTierIDs := make(map[string]bool, len(promo.ApplicableTiers))
	for _, id := range promo.ApplicableTiers {
		applicableTierIDs[id] = true
		result.ApplicableTiers = append(result.ApplicableTiers, id)
	}

	// one entry per seat so BUY_N_GET_N_FREE can pick the cheapest ones
	var unitPrices []int64
	var applicableSubtotal int64
	for _, line := range lines {
		if line.Kind != models.LineKindTicket || line.EventID != promo.EventID {
			continue
		}
		if len(applicableTierIDs) > 0 && !applicableTierIDs[line.RefID] {
			continue
		}
		for i := 0; i < line.Quantity; i++ {
			unitPrices = append(unitPrices, line.UnitPriceCents)
		}
		applicableSubtotal += line.TotalCents()
	}

	if len(unitPrices) == 0 {
		result.Reason = "No tickets in the order match this promo code"
		return result, nil
	}

	params := promo.Parameters
	if params.Type == models.PERCENTAGE || params.Type == models.FLAT_OFF {
		if params.MinSpend != nil && applicableSubtotal < *params.MinSpend {
			result.Reason = fmt.Sprintf("Order does not meet the minimum spend of %d cents", *params.MinSpend)
			return result, nil
		}
	}

	var discount int64
	switch params.Type {
	case models.FLAT_OFF:
		if params.Amount == nil {
			return nil, errors.New("amount parameter is required for FLAT_OFF discount type")
		}
		discount = *params.Amount

	case models.PERCENTAGE:
		if params.Percentage == nil {
			return nil, errors.New("percentage parameter is required for PERCENTAGE discount type")
		}
		discount = int64(math.Round(float64(applicableSubtotal) * *params.Percentage / 100))
		if params.MaxDiscount != nil && discount > *params.MaxDiscount {
			discount = *params.MaxDiscount
		}

	case models.BUY_N_GET_N_FREE:
		if params.BuyQuantity == nil || params.GetQuantity == nil {
			return nil, errors.New("buy_quantity and get_quantity parameters are required for BUY_N_GET_N_FREE discount type")
		}
		buyQty, getQty := *params.BuyQuantity, *params.GetQuantity
		groupSize := buyQty + getQty
		if len(unitPrices) < groupSize {
			result.Reason = fmt.Sprintf("Not enough tickets for this offer (need %d, have %d)", groupSize, len(unitPrices))
			return result, nil
		}

		// every full group of buy+get seats makes its get cheapest seats free
		sort.Slice(unitPrices, func(i, j int) bool { return unitPrices[i] < unitPrices[j] })
		numFree := len(unitPrices) / groupSize * getQty
		for i := 0; i < numFree; i++ {
			discount += unitPrices[i]
		}

	default:
		return nil, fmt.Errorf("unsupported discount type: %s", params.Type)
	}

	if discount > applicableSubtotal {
		discount = applicableSubtotal
	}

	result.IsValid = true
	result.DiscountCents = discount
	return result, nil
}

// CheckParameters rejects parameter sets Evaluate could not use.
func CheckParameters(p models.DiscountParameters) error {
	switch p.Type {
	case models.FLAT_OFF:
		if p.Amount == nil {
			return fmt.Errorf("%w: amount is required for FLAT_OFF", models.ErrInvalidInput)
		}
	case models.PERCENTAGE:
		if p.Percentage == nil {
			return fmt.Errorf("%w: percentage is required for PERCENTAGE", models.ErrInvalidInput)
		}
	case models.BUY_N_GET_N_FREE:
		if p.BuyQuantity == nil || p.GetQuantity == nil {
			return fmt.Errorf("%w: buy_quantity and get_quantity are required for BUY_N_GET_N_FREE", models.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unsupported discount type %q", models.ErrInvalidInput, p.Type)
	}
	return nil
}
