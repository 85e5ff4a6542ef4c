package handler

import "net/http"

func (h *Handler) listInvitations(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.invitations.ListActive(r.Context(), r.PathValue("groupId"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	res := make([]invitationResponse, len(invitations))
	for i, inv := range invitations {
		res[i] = toInvitation(inv)
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) createInvitation(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invitations.Create(r.Context(), r.PathValue("groupId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvitation(inv))
}

func (h *Handler) acceptInvitation(w http.ResponseWriter, r *http.Request) {
	var req acceptInvitationRequest
	if !decode(w, r, &req) {
		return
	}

	inv, err := h.invitations.Accept(r.Context(), req.Token)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acceptInvitationResponse{
		GroupID: inv.GroupID,
		Message: "Successfully joined the group.",
	})
}

func (h *Handler) revokeInvitation(w http.ResponseWriter, r *http.Request) {
	if err := h.invitations.Revoke(r.Context(), r.PathValue("groupId"), r.PathValue("token")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
