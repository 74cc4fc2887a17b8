/*
presets.go - Canned JSON builders for common promotions

These construct JSON strings for the promotion shapes the network actually
runs, ready to store and parse. Building JSON (rather than Promotion
values) keeps presets storable and keeps the factory the single assembly
path.

USAGE:
  jsonStr := factory.ChildFareJSON("promo-wrs-children-1", "WRS-CHILDREN",
      "Child fares on WRS routes", []string{"wrs"})
  rec, err := factory.Record(jsonStr)
*/
package factory

import "encoding/json"

// ChildFareJSON returns JSON for a child-rate promotion restricted to
// routes carrying one of the given tags. No usage caps.
func ChildFareJSON(id, code, name string, routeTags []string) string {
	pj := map[string]interface{}{
		"id":      id,
		"code":    code,
		"name":    name,
		"version": 1,
		"criteria": []map[string]interface{}{
			{"type": "route_tag", "params": map[string]interface{}{"tags": routeTags}},
			{"type": "ticket_class", "params": map[string]interface{}{"class": "child"}},
		},
		"discount": map[string]interface{}{"type": "child_rate"},
		"refund":   map[string]interface{}{"type": "discounted_fare"},
	}
	b, _ := json.MarshalIndent(pj, "", "  ")
	return string(b)
}

// SeasonalPercentJSON returns JSON for a percent discount limited to a
// departure-date window, with an optional global cap.
func SeasonalPercentJSON(id, code, name string, rate float64, from, to string, globalCap int) string {
	pj := map[string]interface{}{
		"id":      id,
		"code":    code,
		"name":    name,
		"version": 1,
		"criteria": []map[string]interface{}{
			{"type": "trip_date_range", "params": map[string]interface{}{"from": from, "to": to}},
		},
		"discount": map[string]interface{}{"type": "percent", "params": map[string]interface{}{"rate": rate}},
		"refund":   map[string]interface{}{"type": "discounted_fare"},
		"limits":   map[string]interface{}{"global": globalCap},
	}
	b, _ := json.MarshalIndent(pj, "", "  ")
	return string(b)
}

// FlatCodeJSON returns JSON for a flat per-ticket discount code with a
// per-user cap. Non-refundable by default.
func FlatCodeJSON(id, code, name, amount string, routeTags []string, perUserCap int) string {
	pj := map[string]interface{}{
		"id":      id,
		"code":    code,
		"name":    name,
		"version": 1,
		"criteria": []map[string]interface{}{
			{"type": "route_tag", "params": map[string]interface{}{"tags": routeTags}},
		},
		"discount": map[string]interface{}{"type": "flat", "params": map[string]interface{}{"amount": amount}},
		"refund":   map[string]interface{}{"type": "no_refund"},
		"limits":   map[string]interface{}{"per_user": perUserCap},
	}
	b, _ := json.MarshalIndent(pj, "", "  ")
	return string(b)
}
