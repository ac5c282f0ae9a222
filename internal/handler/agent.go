package handler

import (
	"context"
	"net/http"

	"github.com/AlexZinkM/wallet-agent/internal/model"
)

// Broker is the approval gate served over HTTP.
type Broker interface {
	Handle(ctx context.Context, req model.AgentRequest) model.Response
	Pending() []model.LaunchParams
	Approve(ctx context.Context, id uint64, password []byte) error
	Reject(id uint64)
}

// SurfaceHost reports how many approval UIs are attached.
type SurfaceHost interface {
	Attached() int
}

// AgentHandler serves the relay and the approval surfaces.
type AgentHandler struct {
	broker   Broker
	surfaces SurfaceHost
}

func NewAgentHandler(b Broker, surfaces SurfaceHost) *AgentHandler {
	return &AgentHandler{broker: b, surfaces: surfaces}
}

// Health handles GET /health
// @Summary      Agent status
// @Description  Pending approvals can only be decided once an approval UI is attached
// @Tags         agent
// @Produce      json
// @Success      200  {object}  model.HealthResponse
// @Router       /health [get]
func (h *AgentHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:      "ok",
		ApprovalUIs: h.surfaces.Attached(),
		Pending:     len(h.broker.Pending()),
	})
}

// RPC handles POST /rpc
// @Summary      Forward a page request
// @Description  Called by the relay with the page origin attached. Blocks until the request is approved or rejected.
// @Tags         agent
// @Accept       json
// @Produce      json
// @Param        request  body      model.AgentRequest  true  "Relayed request"
// @Success      200      {object}  model.Response
// @Router       /rpc [post]
func (h *AgentHandler) RPC(w http.ResponseWriter, r *http.Request) {
	var req model.AgentRequest
	if !decode(w, r, &req) {
		return
	}
	// r.Context() ends when the relay hangs up, which rejects the pending approval
	writeJSON(w, http.StatusOK, h.broker.Handle(r.Context(), req))
}

// Pending handles GET /approval/pending
// @Summary      List pending approvals
// @Tags         approval
// @Produce      json
// @Success      200  {array}  model.LaunchParams
// @Router       /approval/pending [get]
func (h *AgentHandler) Pending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.broker.Pending())
}

// Respond handles POST /approval/respond
// @Summary      Approve or reject a pending request
// @Description  Signing approvals need the wallet password. A wrong password answers 401 and leaves the request pending.
// @Tags         approval
// @Accept       json
// @Produce      json
// @Param        request  body      model.ApprovalDecision  true  "Decision"
// @Success      200      {object}  model.SuccessResponse
// @Failure      401      {object}  model.ErrorResponse
// @Failure      404      {object}  model.ErrorResponse
// @Router       /approval/respond [post]
func (h *AgentHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req model.ApprovalDecision
	if !decode(w, r, &req) {
		return
	}
	password := []byte(req.Password)
	defer clear(password)

	if !req.Approved {
		h.broker.Reject(req.ApprovalID)
		writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
		return
	}
	if err := h.broker.Approve(r.Context(), req.ApprovalID, password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}
