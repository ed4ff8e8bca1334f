package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kikundi/sacco-engine/internal/domain"
	"github.com/kikundi/sacco-engine/internal/service"
	"github.com/kikundi/sacco-engine/pkg/response"
)

// LoanHandler exposes the application lifecycle: member-facing status and
// submission endpoints, plus the committee workflow actions.
type LoanHandler struct {
	loans      *service.LoanService
	guarantors *service.GuarantorService
	votes      *service.VoteService
	validator  *validator.Validate
}

func NewLoanHandler(loans *service.LoanService, guarantors *service.GuarantorService, votes *service.VoteService) *LoanHandler {
	return &LoanHandler{
		loans:      loans,
		guarantors: guarantors,
		votes:      votes,
		validator:  validator.New(),
	}
}

// Status returns the member dashboard view.
func (h *LoanHandler) Status(w http.ResponseWriter, r *http.Request) {
	memberID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	status, err := h.loans.MemberStatus(r.Context(), memberID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, status)
}

// Init opens a new fee-pending application.
func (h *LoanHandler) Init(w http.ResponseWriter, r *http.Request) {
	memberID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	loan, err := h.loans.InitApplication(r.Context(), memberID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Created(w, loan)
}

// SubmitDetails records the requested amount, purpose and term.
func (h *LoanHandler) SubmitDetails(w http.ResponseWriter, r *http.Request) {
	memberID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	var req domain.SubmitDetailsRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	loan, err := h.loans.SubmitDetails(r.Context(), memberID, &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, loan)
}

// AddGuarantor invites a member to guarantee the caller's application.
func (h *LoanHandler) AddGuarantor(w http.ResponseWriter, r *http.Request) {
	memberID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	var req domain.AddGuarantorRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	created, err := h.guarantors.AddGuarantor(r.Context(), memberID, &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Created(w, created)
}

// RespondGuarantor records the guarantor's accept/reject decision.
func (h *LoanHandler) RespondGuarantor(w http.ResponseWriter, r *http.Request) {
	memberID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	var req domain.GuarantorDecisionRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	if err := h.guarantors.Respond(r.Context(), memberID, &req); err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, map[string]string{"status": req.Decision})
}

// MyGuarantorRequests lists invitations addressed to the caller.
func (h *LoanHandler) MyGuarantorRequests(w http.ResponseWriter, r *http.Request) {
	memberID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	items, err := h.guarantors.MyRequests(r.Context(), memberID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, items)
}

// GuarantorRoster lists a loan's guarantors.
func (h *LoanHandler) GuarantorRoster(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	items, err := h.guarantors.LoanRoster(r.Context(), loanID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, items)
}

// SearchMembers finds candidate guarantors by name.
func (h *LoanHandler) SearchMembers(w http.ResponseWriter, r *http.Request) {
	memberID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	members, err := h.guarantors.SearchMembers(r.Context(), memberID, r.URL.Query().Get("q"))
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, members)
}

// Verify is the loan officer's check of a submitted application.
func (h *LoanHandler) Verify(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	if err := h.loans.Verify(r.Context(), loanID); err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, map[string]string{"status": string(domain.LoanStatusVerified)})
}

// Table places a verified application on the meeting agenda.
func (h *LoanHandler) Table(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	if err := h.loans.Table(r.Context(), loanID); err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, map[string]string{"status": string(domain.LoanStatusTabled)})
}

// OpenVoting puts a tabled application on the floor.
func (h *LoanHandler) OpenVoting(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	if err := h.loans.OpenVoting(r.Context(), loanID); err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, map[string]string{"status": string(domain.LoanStatusVoting)})
}

// CastVote records the caller's vote.
func (h *LoanHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	memberID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	var req domain.CastVoteRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	if err := h.votes.CastVote(r.Context(), memberID, &req); err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, map[string]string{"vote": req.Decision})
}

// OpenVotes lists floor applications the caller has not voted on.
func (h *LoanHandler) OpenVotes(w http.ResponseWriter, r *http.Request) {
	memberID, err := principal(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	items, err := h.votes.OpenVotes(r.Context(), memberID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, items)
}

// LiveTally returns the chair's running vote counts.
func (h *LoanHandler) LiveTally(w http.ResponseWriter, r *http.Request) {
	tallies, err := h.votes.LiveTally(r.Context())
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, tallies)
}

// Finalize closes the vote with the chair's declared outcome.
func (h *LoanHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	var req domain.FinalizeRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	if err := h.loans.Finalize(r.Context(), &req); err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, map[string]string{"status": req.Decision})
}

// Disburse activates an approved loan.
func (h *LoanHandler) Disburse(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	loan, err := h.loans.Disburse(r.Context(), loanID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, loan)
}

// Queue lists applications awaiting action in the requested statuses.
func (h *LoanHandler) Queue(w http.ResponseWriter, r *http.Request) {
	var statuses []domain.LoanStatus
	for _, s := range r.URL.Query()["status"] {
		statuses = append(statuses, domain.LoanStatus(s))
	}
	if len(statuses) == 0 {
		statuses = []domain.LoanStatus{domain.LoanStatusSubmitted}
	}

	items, err := h.loans.Queue(r.Context(), statuses...)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, items)
}
