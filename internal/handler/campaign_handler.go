// Package handler provides HTTP handlers for the campaign API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apierrors "github.com/angelmc32/pob-v1/internal/pkg/errors"
	"github.com/angelmc32/pob-v1/internal/pkg/response"
	"github.com/angelmc32/pob-v1/internal/service"
)

// CampaignHandler handles campaign-related HTTP requests.
type CampaignHandler struct {
	campaignService service.CampaignService
	validate        *validator.Validate
}

// NewCampaignHandler creates a new campaign handler.
func NewCampaignHandler(campaignService service.CampaignService) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
		validate:        newValidator(),
	}
}

// Routes returns a chi router with campaign routes.
func (h *CampaignHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)

	// Redemption
	r.Get("/{id}/proofs/{address}", h.Proof)
	r.Post("/{id}/claims", h.Redeem)
	r.Get("/{id}/claims", h.ListClaims)
	r.Get("/{id}/claims/{index}", h.Claim)

	return r
}

// CreateCampaignHTTPRequest is the HTTP request body for creating a campaign.
type CreateCampaignHTTPRequest struct {
	ContractAddress string `json:"contract_address" validate:"required,eth_addr"`
	Quantity        int    `json:"quantity" validate:"min=0"`
}

// Create handles POST /v1/campaigns
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCampaignHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, validationError(err))
		return
	}

	result, err := h.campaignService.Create(r.Context(), service.CreateCampaignRequest{
		ContractAddress: req.ContractAddress,
		Quantity:        req.Quantity,
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, result)
}

// Get handles GET /v1/campaigns/{id}
func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	manifest, err := h.campaignService.Get(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, manifest)
}

// List handles GET /v1/campaigns
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	contract := r.URL.Query().Get("contract")
	if contract != "" {
		if err := h.validate.Var(contract, "eth_addr"); err != nil {
			response.Error(w, apierrors.NewValidationError("contract", "must be a 20-byte hex address"))
			return
		}
	}

	manifests, err := h.campaignService.List(r.Context(), contract)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSONWithMeta(w, http.StatusOK, manifests, &response.Meta{Total: int64(len(manifests))})
}

// Proof handles GET /v1/campaigns/{id}/proofs/{address}
func (h *CampaignHandler) Proof(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	proof, err := h.campaignService.Proof(r.Context(), id, chi.URLParam(r, "address"))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, proof)
}

// RedeemHTTPRequest is the HTTP request body for redeeming a key.
type RedeemHTTPRequest struct {
	Key       string `json:"key" validate:"required"`
	Index     *int   `json:"index" validate:"required,min=0"`
	Recipient string `json:"recipient,omitempty" validate:"omitempty,eth_addr"`
}

// Redeem handles POST /v1/campaigns/{id}/claims
func (h *CampaignHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	var req RedeemHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, validationError(err))
		return
	}

	claim, err := h.campaignService.Redeem(r.Context(), id, service.RedeemRequest{
		Key:       req.Key,
		Index:     *req.Index,
		Recipient: req.Recipient,
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, claim)
}

// ListClaims handles GET /v1/campaigns/{id}/claims
func (h *CampaignHandler) ListClaims(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	claims, err := h.campaignService.ListClaims(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSONWithMeta(w, http.StatusOK, claims, &response.Meta{Total: int64(len(claims))})
}

// Claim handles GET /v1/campaigns/{id}/claims/{index}
func (h *CampaignHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		response.BadRequest(w, "Index must be a non-negative integer")
		return
	}

	claim, err := h.campaignService.Claim(r.Context(), id, index)
	if err != nil {
		response.Error(w, err)
		return
	}
	if claim == nil {
		response.NotFound(w, "Claim")
		return
	}

	response.OK(w, claim)
}

// Delete handles DELETE /v1/campaigns/{id}
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	if err := h.campaignService.Delete(r.Context(), id); err != nil {
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}

func campaignID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, apierrors.NewValidationError("id", "invalid UUID format"))
		return uuid.Nil, false
	}
	return id, true
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierrors.ErrBadRequest.WithMessage(err.Error())
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return apierrors.NewValidationErrors(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "eth_addr":
		return "must be a 20-byte hex address"
	case "min":
		return "must be at least " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
