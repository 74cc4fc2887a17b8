/*
handlers.go - HTTP API handlers for the booking engine

PURPOSE:
  Exposes the booking engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Trips:
    GET    /api/trips                   List all trips
    POST   /api/trips                   Create trip
    GET    /api/trips/{id}              Get trip details
    GET    /api/trips/{id}/quote        Bulk-pass quote table (dry run)
    GET    /api/routes/{id}/trips       Trips on a route

  Purchases:
    POST   /api/purchases               Execute a purchase
    POST   /api/tickets/{id}/refund     Refund one valid ticket

  Tickets:
    GET    /api/transactions/{id}/tickets  Retrieve tickets (session token)

  Promotions:
    GET    /api/promotions              List promotion records
    POST   /api/promotions              Create promotion from JSON
    GET    /api/promotions/{id}         Get one record

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (orchestrator, calculator, stores)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Domain errors map to HTTP status by sentinel:
  - 400: booking.ErrInvalidArgument
  - 402: booking.ErrPaymentDeclined
  - 403: booking.ErrForbidden
  - 404: not-found sentinels
  - 409: booking.ErrInsufficientCapacity, booking.ErrUsageLimitExceeded
  - 500: everything else (including balance violations)

SECURITY NOTE:
  Ticket retrieval requires the per-transaction session token. Admin
  endpoints (trips, promotions) carry no authentication; front them with
  a gateway in production.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - metrics.go: Prometheus instrumentation
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/transitline/booking-engine/booking"
	"github.com/transitline/booking-engine/checkout"
	"github.com/transitline/booking-engine/factory"
	"github.com/transitline/booking-engine/pricing"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        booking.Store
	Calculator   *pricing.Calculator
	Orchestrator *checkout.Orchestrator
	Broker       *checkout.AccessBroker
}

// NewHandler creates a new handler.
func NewHandler(store booking.Store, calc *pricing.Calculator, orch *checkout.Orchestrator, broker *checkout.AccessBroker) *Handler {
	return &Handler{
		Store:        store,
		Calculator:   calc,
		Orchestrator: orch,
		Broker:       broker,
	}
}

// =============================================================================
// TRIP HANDLERS
// =============================================================================

// ListTrips returns all trips.
func (h *Handler) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := h.Store.ListTrips(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list trips", err)
		return
	}

	dtos := make([]TripDTO, len(trips))
	for i, t := range trips {
		dtos[i] = toTripDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTrip returns a single trip.
func (h *Handler) GetTrip(w http.ResponseWriter, r *http.Request) {
	id := booking.TripID(chi.URLParam(r, "id"))

	trip, err := h.Store.GetTrip(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get trip", err)
		return
	}
	writeJSON(w, http.StatusOK, toTripDTO(*trip))
}

// ListTripsByRoute returns the trips of one route.
func (h *Handler) ListTripsByRoute(w http.ResponseWriter, r *http.Request) {
	routeID := booking.RouteID(chi.URLParam(r, "id"))

	trips, err := h.Store.ListTripsByRoute(r.Context(), routeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list trips", err)
		return
	}

	dtos := make([]TripDTO, len(trips))
	for i, t := range trips {
		dtos[i] = toTripDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTrip creates a new trip with full availability.
func (h *Handler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req CreateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.RouteID == "" || req.TotalSeats <= 0 {
		writeError(w, http.StatusBadRequest, "Trip requires id, route_id and positive total_seats", nil)
		return
	}
	departure, err := time.Parse("2006-01-02", req.DepartureDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid departure_date format (use YYYY-MM-DD)", err)
		return
	}

	baseFare, err := booking.ParseMoney(req.BaseFare)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid base_fare", err)
		return
	}
	childFare, err := booking.ParseMoney(req.ChildFare)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid child_fare", err)
		return
	}

	trip := booking.Trip{
		ID:             booking.TripID(req.ID),
		RouteID:        booking.RouteID(req.RouteID),
		RouteTags:      req.RouteTags,
		DepartureDate:  departure,
		BaseFare:       baseFare,
		ChildFare:      childFare,
		TotalSeats:     req.TotalSeats,
		AvailableSeats: req.TotalSeats,
		CreatedAt:      time.Now().UTC(),
	}
	if len(req.PassFares) > 0 {
		trip.PassFares = make(map[int]booking.Money, len(req.PassFares))
		for sizeStr, fareStr := range req.PassFares {
			size, aerr := strconv.Atoi(sizeStr)
			if aerr != nil || size <= 0 {
				writeError(w, http.StatusBadRequest, "Pass fare sizes must be positive integers", aerr)
				return
			}
			fare, ferr := booking.ParseMoney(fareStr)
			if ferr != nil {
				writeError(w, http.StatusBadRequest, "Invalid pass fare for size "+sizeStr, ferr)
				return
			}
			trip.PassFares[size] = fare
		}
	}

	if err := h.Store.SaveTrip(r.Context(), trip); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create trip", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTripDTO(trip))
}

// GetQuote returns the bulk-pass quote table for a trip. The optional
// promo_code and user_key query parameters preview a discount without
// consuming usage.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	id := booking.TripID(chi.URLParam(r, "id"))
	promoCode := r.URL.Query().Get("promo_code")
	userKey := r.URL.Query().Get("user_key")

	trip, err := h.Store.GetTrip(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get trip", err)
		return
	}
	h.writeQuote(w, r, trip, promoCode, userKey)
}

// GetRouteQuote returns the quote table for a route, priced against the
// route's next departure. Trips on a route share fare structure.
func (h *Handler) GetRouteQuote(w http.ResponseWriter, r *http.Request) {
	routeID := booking.RouteID(chi.URLParam(r, "id"))
	promoCode := r.URL.Query().Get("promo_code")
	userKey := r.URL.Query().Get("user_key")

	trips, err := h.Store.ListTripsByRoute(r.Context(), routeID)
	if err != nil {
		writeDomainError(w, "Failed to list trips", err)
		return
	}
	if len(trips) == 0 {
		writeError(w, http.StatusNotFound, "No trips on route "+string(routeID), nil)
		return
	}
	h.writeQuote(w, r, &trips[0], promoCode, userKey)
}

func (h *Handler) writeQuote(w http.ResponseWriter, r *http.Request, trip *booking.Trip, promoCode, userKey string) {
	table, err := h.Calculator.QuoteTable(r.Context(), trip, promoCode, userKey)
	if err != nil {
		writeDomainError(w, "Failed to compute quotes", err)
		return
	}

	sizes := make([]int, 0, len(table))
	for size := range table {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)

	resp := QuoteResponseDTO{TripID: string(trip.ID), PromoCode: promoCode}
	for _, size := range sizes {
		resp.Quotes = append(resp.Quotes, toQuoteRowDTO(table[size]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// PURCHASE HANDLERS
// =============================================================================

// CreatePurchase runs the full purchase state machine.
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	items := make([]pricing.Item, 0, len(req.Items))
	for _, it := range req.Items {
		trip, err := h.Store.GetTrip(r.Context(), booking.TripID(it.TripID))
		if err != nil {
			writeDomainError(w, "Failed to resolve trip "+it.TripID, err)
			return
		}
		items = append(items, pricing.Item{
			Trip:       trip,
			BoardStop:  booking.StopID(it.BoardStop),
			AlightStop: booking.StopID(it.AlightStop),
			Class:      booking.TicketClass(it.Class),
			Quantity:   it.Quantity,
		})
	}

	purchaser := booking.Purchaser{
		UserID:       booking.UserID(req.UserID),
		GuestContact: req.GuestContact,
	}

	start := time.Now()
	result, err := h.Orchestrator.Purchase(r.Context(), checkout.PurchaseRequest{
		Purchaser:  purchaser,
		Items:      items,
		PromoCode:  req.PromoCode,
		BestEffort: req.BestEffort,
		CardToken:  req.CardToken,
	})
	observePurchase(err, time.Since(start))
	if err != nil {
		writeDomainError(w, "Purchase failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, PurchaseResponseDTO{
		TransactionID: string(result.TransactionID),
		SessionToken:  result.SessionToken,
		Total:         booking.MoneyFromMinor(result.TotalMinor).String(),
		Tickets:       toTicketDTOs(result.Tickets),
	})
}

// RefundTicket refunds one valid ticket.
func (h *Handler) RefundTicket(w http.ResponseWriter, r *http.Request) {
	id := booking.TicketID(chi.URLParam(r, "id"))

	result, err := h.Orchestrator.Refund(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Refund failed", err)
		return
	}
	writeJSON(w, http.StatusOK, RefundResponseDTO{
		TicketID:      string(id),
		TransactionID: string(result.TransactionID),
		Refunded:      booking.MoneyFromMinor(result.AmountMinor).String(),
	})
}

// =============================================================================
// TICKET RETRIEVAL
// =============================================================================

// GetTickets returns a transaction's tickets. The caller must present the
// session token issued at purchase, either in the X-Session-Token header
// or the token query parameter.
func (h *Handler) GetTickets(w http.ResponseWriter, r *http.Request) {
	id := booking.TransactionID(chi.URLParam(r, "id"))

	token := r.Header.Get("X-Session-Token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if err := h.Broker.Verify(r.Context(), id, token); err != nil {
		writeDomainError(w, "Access denied", err)
		return
	}

	tickets, err := h.Store.TicketsByTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get tickets", err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketDTOs(tickets))
}

// =============================================================================
// PROMOTION HANDLERS
// =============================================================================

// ListPromotions returns all stored promotion records.
func (h *Handler) ListPromotions(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListPromotions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list promotions", err)
		return
	}

	dtos := make([]PromotionDTO, 0, len(records))
	for _, rec := range records {
		dto, derr := toPromotionDTO(rec)
		if derr != nil {
			continue // skip unreadable configs rather than failing the listing
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPromotion returns a single promotion record.
func (h *Handler) GetPromotion(w http.ResponseWriter, r *http.Request) {
	id := booking.PromotionID(chi.URLParam(r, "id"))

	rec, err := h.Store.GetPromotion(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get promotion", err)
		return
	}
	dto, err := toPromotionDTO(*rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Stored promotion config is unreadable", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// CreatePromotion validates and stores a promotion definition. The config
// is round-tripped through the factory so invalid variant types are
// rejected at creation, not at purchase time.
func (h *Handler) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	var req CreatePromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	configJSON, err := json.Marshal(req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid promotion config", err)
		return
	}
	rec, err := factory.Record(string(configJSON))
	if err != nil {
		writeDomainError(w, "Invalid promotion config", err)
		return
	}
	rec.CreatedAt = time.Now().UTC()

	if err := h.Store.SavePromotion(r.Context(), *rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save promotion", err)
		return
	}
	dto, _ := toPromotionDTO(*rec)
	writeJSON(w, http.StatusCreated, dto)
}

func toPromotionDTO(rec booking.PromotionRecord) (PromotionDTO, error) {
	var pj factory.PromotionJSON
	if err := json.Unmarshal([]byte(rec.ConfigJSON), &pj); err != nil {
		return PromotionDTO{}, err
	}
	return PromotionDTO{
		ID:        string(rec.ID),
		Code:      rec.Code,
		Name:      rec.Name,
		Version:   rec.Version,
		Config:    pj,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
	}, nil
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps a domain error to its HTTP status by sentinel.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, booking.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, booking.ErrForbidden):
		return http.StatusForbidden
	case booking.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrInsufficientCapacity),
		errors.Is(err, booking.ErrUsageLimitExceeded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
