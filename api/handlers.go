// Package api exposes bid validation, commitments and bid submission over
// HTTP for the loot-box front end.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/cloudx-io/secretlootbid/bidding"
	"github.com/cloudx-io/secretlootbid/catalog"
	"github.com/cloudx-io/secretlootbid/config"
	"github.com/cloudx-io/secretlootbid/core"
	"github.com/cloudx-io/secretlootbid/sealing"
	"github.com/cloudx-io/secretlootbid/wallet"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 16

// SealingInfo describes how bids are sealed.
type SealingInfo struct {
	Mode         sealing.Mode `json:"mode"`
	PublicKeyPEM string       `json:"public_key,omitempty"`
}

// Handler serves the bidding routes.
type Handler struct {
	bids    *bidding.Service
	catalog *catalog.Catalog
	wallets *wallet.Reader
	public  config.Public
	sealing SealingInfo
}

// NewHandler wires the bidding routes.
func NewHandler(bids *bidding.Service, boxes *catalog.Catalog, wallets *wallet.Reader, public config.Public, sealingInfo SealingInfo) *Handler {
	return &Handler{
		bids:    bids,
		catalog: boxes,
		wallets: wallets,
		public:  public,
		sealing: sealingInfo,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/config", h.handleConfig)
	r.Get("/sealing/key", h.handleSealingKey)

	r.Get("/lootboxes", h.handleListLootBoxes)
	r.Get("/lootboxes/{boxID}", h.handleGetLootBox)
	r.Post("/lootboxes/{boxID}/bids", h.handleSubmitBid)

	r.Post("/bids/validate", h.handleValidate)
	r.Post("/commitments", h.handleCommit)
	r.Post("/commitments/verify", h.handleVerify)

	r.Get("/wallets/{address}", h.handleWallet)
}

type lootBoxView struct {
	ID          uint64         `json:"id"`
	Title       string         `json:"title"`
	Rarity      catalog.Rarity `json:"rarity"`
	CurrentBids int            `json:"current_bids"`
	TimeLeft    string         `json:"time_left"`
	MinBid      string         `json:"min_bid"`
}

func newLootBoxView(box catalog.LootBox) lootBoxView {
	return lootBoxView{
		ID:          box.ID,
		Title:       box.Title,
		Rarity:      box.Rarity,
		CurrentBids: box.CurrentBids,
		TimeLeft:    box.TimeLeftDisplay(),
		MinBid:      box.MinBidDisplay(),
	}
}

func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.public)
}

func (h *Handler) handleSealingKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sealing)
}

func (h *Handler) handleListLootBoxes(w http.ResponseWriter, r *http.Request) {
	boxes := h.catalog.List()
	views := make([]lootBoxView, 0, len(boxes))
	for _, box := range boxes {
		views = append(views, newLootBoxView(box))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) handleGetLootBox(w http.ResponseWriter, r *http.Request) {
	box, ok := h.lookupBox(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newLootBoxView(box))
}

type validateRequest struct {
	Amount string  `json:"amount"`
	BoxID  *uint64 `json:"box_id,omitempty"`
}

type validateResponse struct {
	IsValid      bool     `json:"is_valid"`
	Error        string   `json:"error,omitempty"`
	MeetsMinimum *bool    `json:"meets_minimum,omitempty"`
	BelowMinimum []uint64 `json:"below_minimum,omitempty"`
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	validator := h.bids.Validator()
	result := validator.Validate(req.Amount)
	resp := validateResponse{IsValid: result.IsValid, Error: result.Message()}

	if result.IsValid && req.BoxID != nil {
		box, err := h.catalog.Get(*req.BoxID)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		amount, _ := validator.Parse(req.Amount)
		meets := catalog.MeetsMinimumBid(amount, box)
		resp.MeetsMinimum = &meets
	} else if result.IsValid {
		amount, _ := validator.Parse(req.Amount)
		_, resp.BelowMinimum = h.catalog.Eligible(amount)
	}

	writeJSON(w, http.StatusOK, resp)
}

type commitRequest struct {
	Amount string `json:"amount"`
	Salt   string `json:"salt,omitempty"`
}

func (h *Handler) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if result := h.bids.Validator().Validate(req.Amount); !result.IsValid {
		writeError(w, http.StatusUnprocessableEntity, result.Err().Error())
		return
	}

	commitment, err := core.GenerateCommitment(strings.TrimSpace(req.Amount), req.Salt)
	if err != nil {
		log.Printf("ERROR: Commitment generation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to generate commitment")
		return
	}
	writeJSON(w, http.StatusOK, commitment)
}

type verifyRequest struct {
	Amount     string `json:"amount"`
	Commitment string `json:"commitment"`
	Salt       string `json:"salt"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{
		"valid": core.VerifyCommitment(req.Amount, req.Commitment, req.Salt),
	})
}

type submitBidRequest struct {
	Amount string `json:"amount"`
	Bidder string `json:"bidder"`
}

// submitBidResponse carries the salt back to the bidder, who needs it to
// reveal. It is never sent to the contract.
type submitBidResponse struct {
	Submission    *core.BidSubmission `json:"submission"`
	Salt          string              `json:"salt"`
	BidCommitment core.BidCommitment  `json:"bid_commitment"`
	AmountWei     string              `json:"amount_wei,omitempty"`
	MeetsMinimum  bool                `json:"meets_minimum"`
}

func (h *Handler) handleSubmitBid(w http.ResponseWriter, r *http.Request) {
	box, ok := h.lookupBox(w, r)
	if !ok {
		return
	}

	var req submitBidRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !common.IsHexAddress(req.Bidder) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid bidder address %q", req.Bidder))
		return
	}

	sub, err := h.bids.SubmitBid(r.Context(), box.ID, req.Amount, common.HexToAddress(req.Bidder))
	if err != nil {
		writeBidError(w, err)
		return
	}

	amount, _ := h.bids.Validator().Parse(req.Amount)
	resp := submitBidResponse{
		Submission:    sub,
		Salt:          sub.Salt,
		BidCommitment: core.NewBidCommitment(sub),
		MeetsMinimum:  catalog.MeetsMinimumBid(amount, box),
	}
	if wei, err := wallet.ParseEther(amount); err == nil {
		resp.AmountWei = wei.Dec()
	} else {
		log.Printf("ERROR: Failed to convert bid %s to wei: %v", amount, err)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleWallet(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if !common.IsHexAddress(address) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid address %q", address))
		return
	}

	account, err := h.wallets.Account(r.Context(), common.HexToAddress(address))
	if err != nil {
		log.Printf("ERROR: Wallet lookup failed for %s: %v", address, err)
		writeError(w, http.StatusBadGateway, "failed to read wallet")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *Handler) lookupBox(w http.ResponseWriter, r *http.Request) (catalog.LootBox, bool) {
	raw := chi.URLParam(r, "boxID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid loot box id %q", raw))
		return catalog.LootBox{}, false
	}
	box, err := h.catalog.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return catalog.LootBox{}, false
	}
	return box, true
}

func writeBidError(w http.ResponseWriter, err error) {
	switch {
	case bidding.IsValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, sealing.ErrEncryptionFailure):
		writeError(w, http.StatusInternalServerError, sealing.ErrEncryptionFailure.Error())
	case bidding.IsExternalCallError(err):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Printf("ERROR: Bid submission failed: %v", err)
		writeError(w, http.StatusInternalServerError, "bid submission failed")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse request: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(message)})
}
