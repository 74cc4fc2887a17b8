/*
Package factory provides JSON to Go promotion conversion.

PURPOSE:
  Converts stored JSON promotion definitions into executable
  promotion.Promotion values via the type registries. This keeps discount
  policy data-driven: operations staff define promotions in JSON, the
  factory assembles the variants, and no evaluator code changes.

JSON SCHEMA:
  {
    "id": "promo-wrs-children-1",
    "code": "WRS-CHILDREN",
    "name": "Child fares on WRS routes",
    "version": 1,
    "criteria": [
      {"type": "route_tag", "params": {"tags": ["wrs"]}},
      {"type": "ticket_class", "params": {"class": "child"}}
    ],
    "discount": {"type": "child_rate", "params": {}},
    "refund":   {"type": "discounted_fare", "params": {}},
    "limits":   {"per_user": 0, "global": 0}
  }

USAGE:
  promo, err := factory.Parse(record.ConfigJSON)

SEE ALSO:
  - promotion/registry.go: the type registries this dispatches through
  - presets.go: canned JSON builders for common promotions
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/transitline/booking-engine/booking"
	"github.com/transitline/booking-engine/promotion"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PromotionJSON is the stored representation of a promotion.
type PromotionJSON struct {
	ID       string          `json:"id"`
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Version  int             `json:"version,omitempty"`
	Criteria []SpecJSON      `json:"criteria"`
	Discount SpecJSON        `json:"discount"`
	Refund   *SpecJSON       `json:"refund,omitempty"`
	Limits   UsageLimitsJSON `json:"limits,omitempty"`
}

// SpecJSON is one {type, params} pair dispatched through a registry.
type SpecJSON struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

// UsageLimitsJSON configures caps; zero means unlimited.
type UsageLimitsJSON struct {
	PerUser int `json:"per_user,omitempty"`
	Global  int `json:"global,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// Parse converts a JSON string into an executable promotion.
func Parse(jsonStr string) (*promotion.Promotion, error) {
	var pj PromotionJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("%w: promotion config: %v", booking.ErrInvalidArgument, err)
	}
	return FromJSON(pj)
}

// FromJSON assembles a Promotion from its parsed JSON form, dispatching
// every {type, params} pair through the promotion registries.
func FromJSON(pj PromotionJSON) (*promotion.Promotion, error) {
	if pj.ID == "" || pj.Code == "" {
		return nil, fmt.Errorf("%w: promotion requires id and code", booking.ErrInvalidArgument)
	}

	p := &promotion.Promotion{
		ID:      booking.PromotionID(pj.ID),
		Code:    pj.Code,
		Name:    pj.Name,
		Version: pj.Version,
		Limit: promotion.UsageLimit{
			PerUser: pj.Limits.PerUser,
			Global:  pj.Limits.Global,
		},
	}
	if p.Version == 0 {
		p.Version = 1
	}

	for _, cj := range pj.Criteria {
		c, err := promotion.NewCriterion(cj.Type, cj.Params)
		if err != nil {
			return nil, err
		}
		p.Criteria = append(p.Criteria, c)
	}

	if pj.Discount.Type == "" {
		return nil, fmt.Errorf("%w: promotion requires a discount function", booking.ErrInvalidArgument)
	}
	d, err := promotion.NewDiscount(pj.Discount.Type, pj.Discount.Params)
	if err != nil {
		return nil, err
	}
	p.Discount = d

	if pj.Refund != nil {
		r, err := promotion.NewRefund(pj.Refund.Type, pj.Refund.Params)
		if err != nil {
			return nil, err
		}
		p.Refund = r
	}

	return p, nil
}

// Record wraps a JSON definition into the persisted record form.
func Record(jsonStr string) (*booking.PromotionRecord, error) {
	p, err := Parse(jsonStr)
	if err != nil {
		return nil, err
	}
	return &booking.PromotionRecord{
		ID:         p.ID,
		Code:       p.Code,
		Name:       p.Name,
		Version:    p.Version,
		ConfigJSON: jsonStr,
	}, nil
}
