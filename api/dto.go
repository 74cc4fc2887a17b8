/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Amounts cross the wire as fixed-two-decimal strings ("12.50"), never as
  floats. The gateway-facing minor-unit integers stay internal.

VALIDATION:
  Validation is done in handlers and the engines, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/promotion.go: PromotionJSON type
*/
package api

import (
	"strconv"
	"time"

	"github.com/transitline/booking-engine/booking"
	"github.com/transitline/booking-engine/factory"
	"github.com/transitline/booking-engine/pricing"
)

// =============================================================================
// TRIP TYPES
// =============================================================================

// TripDTO represents a trip in API responses.
type TripDTO struct {
	ID             string            `json:"id"`
	RouteID        string            `json:"route_id"`
	RouteTags      []string          `json:"route_tags,omitempty"`
	DepartureDate  string            `json:"departure_date"`
	BaseFare       string            `json:"base_fare"`
	ChildFare      string            `json:"child_fare"`
	TotalSeats     int               `json:"total_seats"`
	AvailableSeats int               `json:"available_seats"`
	PassFares      map[string]string `json:"pass_fares,omitempty"`
	CreatedAt      string            `json:"created_at,omitempty"`
}

// CreateTripRequest is the request to create a trip.
type CreateTripRequest struct {
	ID            string            `json:"id"`
	RouteID       string            `json:"route_id"`
	RouteTags     []string          `json:"route_tags,omitempty"`
	DepartureDate string            `json:"departure_date"` // YYYY-MM-DD
	BaseFare      string            `json:"base_fare"`
	ChildFare     string            `json:"child_fare"`
	TotalSeats    int               `json:"total_seats"`
	PassFares     map[string]string `json:"pass_fares,omitempty"` // size -> unit fare
}

// =============================================================================
// PURCHASE TYPES
// =============================================================================

// PurchaseItemDTO is one (trip, journey, class) selection in a purchase.
type PurchaseItemDTO struct {
	TripID     string `json:"trip_id"`
	BoardStop  string `json:"board_stop,omitempty"`
	AlightStop string `json:"alight_stop,omitempty"`
	Class      string `json:"class"` // "adult" or "child"
	Quantity   int    `json:"quantity"`
}

// PurchaseRequestDTO is the request body for POST /api/purchases.
type PurchaseRequestDTO struct {
	UserID       string            `json:"user_id,omitempty"`
	GuestContact string            `json:"guest_contact,omitempty"`
	Items        []PurchaseItemDTO `json:"items"`
	PromoCode    string            `json:"promo_code,omitempty"`
	BestEffort   bool              `json:"best_effort,omitempty"`
	CardToken    string            `json:"card_token"`
}

// PurchaseResponseDTO is the result of a successful purchase.
type PurchaseResponseDTO struct {
	TransactionID string      `json:"transaction_id"`
	SessionToken  string      `json:"session_token"`
	Total         string      `json:"total"`
	Tickets       []TicketDTO `json:"tickets"`
}

// TicketDTO represents a ticket in API responses.
type TicketDTO struct {
	ID            string   `json:"id"`
	TransactionID string   `json:"transaction_id"`
	TripID        string   `json:"trip_id"`
	BoardStop     string   `json:"board_stop,omitempty"`
	AlightStop    string   `json:"alight_stop,omitempty"`
	Class         string   `json:"class"`
	Status        string   `json:"status"`
	DiscountCodes []string `json:"discount_codes,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
}

// RefundResponseDTO is the result of a ticket refund.
type RefundResponseDTO struct {
	TicketID      string `json:"ticket_id"`
	TransactionID string `json:"transaction_id"`
	Refunded      string `json:"refunded"`
}

// =============================================================================
// QUOTE TYPES
// =============================================================================

// QuoteRowDTO is one row of a bulk-pass quote table.
type QuoteRowDTO struct {
	Quantity        int     `json:"quantity"`
	UnitFare        string  `json:"unit_fare"`
	Gross           string  `json:"gross"`
	Discount        string  `json:"discount"`
	Total           string  `json:"total"`
	DiscountPercent float64 `json:"discount_percent"`
}

// QuoteResponseDTO is the response for a trip quote table.
type QuoteResponseDTO struct {
	TripID    string        `json:"trip_id"`
	PromoCode string        `json:"promo_code,omitempty"`
	Quotes    []QuoteRowDTO `json:"quotes"`
}

// =============================================================================
// PROMOTION TYPES
// =============================================================================

// PromotionDTO represents a promotion in API responses.
type PromotionDTO struct {
	ID        string                `json:"id"`
	Code      string                `json:"code"`
	Name      string                `json:"name"`
	Version   int                   `json:"version"`
	Config    factory.PromotionJSON `json:"config"`
	CreatedAt string                `json:"created_at,omitempty"`
}

// CreatePromotionRequest is the request to create a promotion.
type CreatePromotionRequest struct {
	Config factory.PromotionJSON `json:"config"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toTripDTO(t booking.Trip) TripDTO {
	dto := TripDTO{
		ID:             string(t.ID),
		RouteID:        string(t.RouteID),
		RouteTags:      t.RouteTags,
		DepartureDate:  t.DepartureDate.Format("2006-01-02"),
		BaseFare:       t.BaseFare.String(),
		ChildFare:      t.ChildFare.String(),
		TotalSeats:     t.TotalSeats,
		AvailableSeats: t.AvailableSeats,
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
	}
	if len(t.PassFares) > 0 {
		dto.PassFares = make(map[string]string, len(t.PassFares))
		for size, fare := range t.PassFares {
			dto.PassFares[strconv.Itoa(size)] = fare.String()
		}
	}
	return dto
}

func toTicketDTO(t booking.Ticket) TicketDTO {
	return TicketDTO{
		ID:            string(t.ID),
		TransactionID: string(t.TransactionID),
		TripID:        string(t.TripID),
		BoardStop:     string(t.BoardStop),
		AlightStop:    string(t.AlightStop),
		Class:         string(t.Class),
		Status:        string(t.Status),
		DiscountCodes: t.Notes.DiscountCodes,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
}

func toTicketDTOs(tickets []booking.Ticket) []TicketDTO {
	dtos := make([]TicketDTO, len(tickets))
	for i, t := range tickets {
		dtos[i] = toTicketDTO(t)
	}
	return dtos
}

func toQuoteRowDTO(q pricing.Quote) QuoteRowDTO {
	return QuoteRowDTO{
		Quantity:        q.Quantity,
		UnitFare:        q.UnitFare.String(),
		Gross:           q.Gross.String(),
		Discount:        q.Discount.String(),
		Total:           q.Total.String(),
		DiscountPercent: q.DiscountPercent,
	}
}
