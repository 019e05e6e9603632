package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/schoolsharks/quickk-webn-sub000/application"
	"github.com/schoolsharks/quickk-webn-sub000/domain/entities"
	"github.com/schoolsharks/quickk-webn-sub000/domain/services"
)

// Identity headers set by the platform's auth gateway. Authentication itself
// happens upstream; this service only consumes the resolved identity.
const (
	headerUserID    = "X-User-ID"
	headerCompanyID = "X-Company-ID"
)

// Handler holds the dependencies for the lottery HTTP handlers
type Handler struct {
	orchestrator *application.PurchaseOrchestrator
	uowFactory   application.UnitOfWorkFactory
}

// NewHandler creates a new Handler
func NewHandler(orchestrator *application.PurchaseOrchestrator, uowFactory application.UnitOfWorkFactory) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		uowFactory:   uowFactory,
	}
}

type purchaseRequest struct {
	Quantity int `json:"quantity"`
}

type ticketResponse struct {
	ID          uuid.UUID `json:"id"`
	TokenNumber int64     `json:"tokenNumber"`
	TicketCode  string    `json:"ticketCode"`
	Status      string    `json:"status"`
}

type purchaseResponse struct {
	Tickets    []ticketResponse `json:"tickets"`
	TotalCost  int64            `json:"totalCost"`
	NewBalance int64            `json:"newBalance"`
}

// BuyTickets handles POST /api/draws/{drawID}/tickets
func (h *Handler) BuyTickets(w http.ResponseWriter, r *http.Request) {
	companyID, userID, ok := identityFrom(w, r)
	if !ok {
		return
	}

	drawID, err := uuid.Parse(chi.URLParam(r, "drawID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid draw ID")
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Quantity < 1 || req.Quantity > services.MaxTicketsPerPurchase {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("quantity must be between 1 and %d", services.MaxTicketsPerPurchase))
		return
	}

	result, err := h.orchestrator.BuyTickets(r.Context(), companyID, userID, drawID, req.Quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := purchaseResponse{
		Tickets:    make([]ticketResponse, 0, len(result.Tickets)),
		TotalCost:  result.TotalCost,
		NewBalance: result.NewBalance,
	}
	for _, ticket := range result.Tickets {
		resp.Tickets = append(resp.Tickets, ticketResponse{
			ID:          ticket.ID,
			TokenNumber: ticket.TokenNumber,
			TicketCode:  ticket.TicketCode,
			Status:      string(ticket.Status),
		})
	}

	respondJSON(w, http.StatusCreated, resp)
}

type winnerResponse struct {
	TokenNumber int64      `json:"tokenNumber"`
	TicketCode  string     `json:"ticketCode"`
	User        userDigest `json:"user"`
}

type userDigest struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// GetWinner handles GET /api/draws/{drawID}/winner.
// Returns 404 until a winner has been applied.
func (h *Handler) GetWinner(w http.ResponseWriter, r *http.Request) {
	companyID, _, ok := identityFrom(w, r)
	if !ok {
		return
	}

	drawID, err := uuid.Parse(chi.URLParam(r, "drawID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid draw ID")
		return
	}

	uow := h.uowFactory.CreateForCompany(companyID)
	if err := uow.Begin(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}
	defer uow.Rollback()

	draw, err := uow.DrawRepository().GetByID(r.Context(), drawID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if draw == nil || draw.CompanyID != companyID {
		respondError(w, http.StatusNotFound, entities.ErrDrawNotFound.Error())
		return
	}

	winner, err := uow.TicketRepository().GetWinner(r.Context(), drawID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if winner == nil {
		respondError(w, http.StatusNotFound, "no winner has been drawn yet")
		return
	}

	user, err := uow.UserRepository().GetByID(r.Context(), winner.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if user == nil {
		respondDomainError(w, entities.ErrUserNotFound)
		return
	}

	respondJSON(w, http.StatusOK, winnerResponse{
		TokenNumber: winner.TokenNumber,
		TicketCode:  winner.TicketCode,
		User: userDigest{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		},
	})
}

type drawResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	ImageURL       string    `json:"imageUrl"`
	PricePerTicket int64     `json:"pricePerTicket"`
	EstimatedValue int64     `json:"estimatedValue"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	Status         string    `json:"status"`
	TicketsSold    int64     `json:"ticketsSold"`
	MyTickets      int       `json:"myTickets"`
}

// GetDraw handles GET /api/draws/{drawID}
func (h *Handler) GetDraw(w http.ResponseWriter, r *http.Request) {
	companyID, userID, ok := identityFrom(w, r)
	if !ok {
		return
	}

	drawID, err := uuid.Parse(chi.URLParam(r, "drawID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid draw ID")
		return
	}

	uow := h.uowFactory.CreateForCompany(companyID)
	if err := uow.Begin(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}
	defer uow.Rollback()

	draw, err := uow.DrawRepository().GetByID(r.Context(), drawID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if draw == nil || draw.CompanyID != companyID {
		respondError(w, http.StatusNotFound, entities.ErrDrawNotFound.Error())
		return
	}

	sold, err := uow.TicketRepository().CountForDraw(r.Context(), drawID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	mine, err := uow.TicketRepository().GetByUserForDraw(r.Context(), drawID, userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toDrawResponse(draw, sold, len(mine)))
}

// ListDraws handles GET /api/draws?status=live
func (h *Handler) ListDraws(w http.ResponseWriter, r *http.Request) {
	companyID, _, ok := identityFrom(w, r)
	if !ok {
		return
	}

	status := entities.DrawStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = entities.DrawStatusLive
	}
	if status != entities.DrawStatusUpcoming && status != entities.DrawStatusLive && status != entities.DrawStatusPast {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown draw status %q", status))
		return
	}

	uow := h.uowFactory.CreateForCompany(companyID)
	if err := uow.Begin(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}
	defer uow.Rollback()

	listings, err := uow.DrawRepository().ListByStatus(r.Context(), status)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := make([]drawResponse, 0, len(listings))
	for _, listing := range listings {
		resp = append(resp, toDrawResponse(listing.Draw, listing.TicketsSold, 0))
	}

	respondJSON(w, http.StatusOK, resp)
}

type balanceResponse struct {
	TotalStars    int64 `json:"totalStars"`
	RedeemedStars int64 `json:"redeemedStars"`
}

// GetMyBalance handles GET /api/users/me
func (h *Handler) GetMyBalance(w http.ResponseWriter, r *http.Request) {
	companyID, userID, ok := identityFrom(w, r)
	if !ok {
		return
	}

	uow := h.uowFactory.CreateForCompany(companyID)
	if err := uow.Begin(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, entities.ErrUserNotFound.Error())
		return
	}

	respondJSON(w, http.StatusOK, balanceResponse{
		TotalStars:    user.TotalStars,
		RedeemedStars: user.RedeemedStars,
	})
}

type createDrawRequest struct {
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	ImageURL       string    `json:"imageUrl"`
	PricePerTicket int64     `json:"pricePerTicket"`
	EstimatedValue int64     `json:"estimatedValue"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	Status         string    `json:"status"`
}

// CreateDraw handles POST /api/admin/draws
func (h *Handler) CreateDraw(w http.ResponseWriter, r *http.Request) {
	companyID, _, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var req createDrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	status := entities.DrawStatus(req.Status)
	if status == "" {
		status = entities.DrawStatusUpcoming
	}

	draw := &entities.Draw{
		CompanyID:      companyID,
		Name:           req.Name,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		PricePerTicket: req.PricePerTicket,
		EstimatedValue: req.EstimatedValue,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Status:         status,
	}
	if err := draw.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	uow := h.uowFactory.CreateForCompany(companyID)
	if err := uow.Begin(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}
	defer uow.Rollback()

	if err := uow.DrawRepository().Create(r.Context(), draw); err != nil {
		respondDomainError(w, err)
		return
	}
	if err := uow.Commit(); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toDrawResponse(draw, 0, 0))
}

// MarkDrawLive handles POST /api/admin/draws/{drawID}/live
func (h *Handler) MarkDrawLive(w http.ResponseWriter, r *http.Request) {
	companyID, _, ok := identityFrom(w, r)
	if !ok {
		return
	}

	drawID, err := uuid.Parse(chi.URLParam(r, "drawID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid draw ID")
		return
	}

	uow := h.uowFactory.CreateForCompany(companyID)
	if err := uow.Begin(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}
	defer uow.Rollback()

	draw, err := uow.DrawRepository().GetByID(r.Context(), drawID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if draw == nil || draw.CompanyID != companyID {
		respondError(w, http.StatusNotFound, entities.ErrDrawNotFound.Error())
		return
	}

	if err := uow.DrawRepository().MarkLive(r.Context(), drawID); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err := uow.Commit(); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

func toDrawResponse(draw *entities.Draw, sold int64, mine int) drawResponse {
	return drawResponse{
		ID:             draw.ID,
		Name:           draw.Name,
		Description:    draw.Description,
		ImageURL:       draw.ImageURL,
		PricePerTicket: draw.PricePerTicket,
		EstimatedValue: draw.EstimatedValue,
		StartTime:      draw.StartTime,
		EndTime:        draw.EndTime,
		Status:         string(draw.Status),
		TicketsSold:    sold,
		MyTickets:      mine,
	}
}

// identityFrom extracts the gateway-resolved identity headers
func identityFrom(w http.ResponseWriter, r *http.Request) (companyID, userID uuid.UUID, ok bool) {
	companyID, err := uuid.Parse(r.Header.Get(headerCompanyID))
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing or invalid "+headerCompanyID+" header")
		return uuid.Nil, uuid.Nil, false
	}

	userID, err = uuid.Parse(r.Header.Get(headerUserID))
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing or invalid "+headerUserID+" header")
		return uuid.Nil, uuid.Nil, false
	}

	return companyID, userID, true
}
