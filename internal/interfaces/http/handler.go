package httpinterface

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/polling-network/polling-daemon/internal/core/application"
	"github.com/polling-network/polling-daemon/internal/core/domain"
)

// activeAccount is the path placeholder for the active account.
const activeAccount = "active"

var errWebhooksDisabled = errors.New("webhooks are disabled")

type handler struct {
	accountSvc  application.AccountService
	hardwareSvc application.HardwareConnector
	pubsubSvc   application.PubSubService
	broadcaster *application.EventBroadcaster
	upgrader    websocket.Upgrader
}

type addAccountRequest struct {
	Address string             `json:"address"`
	Type    domain.AccountType `json:"type"`
}

type setActiveAccountRequest struct {
	Address string `json:"address"`
}

type mkrMovementRequest struct {
	Amount string `json:"amount"`
}

type connectRequest struct {
	Live bool `json:"live"`
}

type chooseAccountRequest struct {
	Address string `json:"address"`
}

type addWebhookResponse struct {
	ID string `json:"id"`
}

func (h *handler) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.accountSvc.GetState(r.Context()))
}

func (h *handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountSvc.ListAccounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *handler) addAccount(w http.ResponseWriter, r *http.Request) {
	var req addAccountRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Type == "" {
		req.Type = domain.AccountTypePlain
	}

	account, err := h.accountSvc.AddAccount(r.Context(), req.Address, req.Type)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *handler) getAccount(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if address == activeAccount {
		address = h.accountSvc.GetState(r.Context()).ActiveAccount
	}

	account, err := h.accountSvc.GetAccount(r.Context(), address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	var update domain.AccountUpdate
	if err := readJSON(w, r, &update); err != nil {
		writeError(w, err)
		return
	}
	update.Address = r.PathValue("address")

	account, err := h.accountSvc.UpdateAccount(r.Context(), update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *handler) setActiveAccount(w http.ResponseWriter, r *http.Request) {
	var req setActiveAccountRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.accountSvc.SetActiveAccount(r.Context(), req.Address); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) confirmLock(w http.ResponseWriter, r *http.Request) {
	h.confirmMkrMovement(w, r, h.accountSvc.ConfirmLock)
}

func (h *handler) confirmWithdraw(w http.ResponseWriter, r *http.Request) {
	h.confirmMkrMovement(w, r, h.accountSvc.ConfirmWithdraw)
}

func (h *handler) confirmMkrMovement(
	w http.ResponseWriter, r *http.Request,
	confirm func(ctx context.Context, address, amount string) (*domain.Account, error),
) {
	var req mkrMovementRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	address := r.PathValue("address")
	if address == activeAccount {
		address = ""
	}

	account, err := confirm(r.Context(), address, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *handler) connectHardware(w http.ResponseWriter, r *http.Request) {
	accountType, err := parseAccountType(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req connectRequest
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	accounts, err := h.hardwareSvc.Connect(
		r.Context(), accountType, application.ConnectOpts{Live: req.Live},
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *handler) getHardwareScan(w http.ResponseWriter, r *http.Request) {
	accountType, err := parseAccountType(r)
	if err != nil {
		writeError(w, err)
		return
	}

	scan, _ := h.accountSvc.GetState(r.Context()).GetHardwareScan(accountType)
	writeJSON(w, http.StatusOK, scan)
}

func (h *handler) chooseHardwareAccount(w http.ResponseWriter, r *http.Request) {
	accountType, err := parseAccountType(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req chooseAccountRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.hardwareSvc.ChooseAccount(r.Context(), req.Address, accountType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *handler) addWebhook(w http.ResponseWriter, r *http.Request) {
	if h.pubsubSvc == nil {
		writeError(w, errWebhooksDisabled)
		return
	}
	var req application.Webhook
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.pubsubSvc.AddWebhook(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, addWebhookResponse{id})
}

func (h *handler) removeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.pubsubSvc == nil {
		writeError(w, errWebhooksDisabled)
		return
	}

	if err := h.pubsubSvc.RemoveWebhook(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) listWebhooks(w http.ResponseWriter, r *http.Request) {
	if h.pubsubSvc == nil {
		writeError(w, errWebhooksDisabled)
		return
	}

	webhooks, err := h.pubsubSvc.ListWebhooks(
		r.Context(), r.URL.Query().Get("event"),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, webhooks)
}
