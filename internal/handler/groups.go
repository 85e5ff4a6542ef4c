package handler

import "net/http"

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	res := make([]groupResponse, len(groups))
	for i, g := range groups {
		res[i] = toGroup(g)
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !decode(w, r, &req) {
		return
	}

	group, err := h.groups.Create(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/groups/"+group.ID)
	writeJSON(w, http.StatusCreated, toGroup(group))
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.Get(r.Context(), r.PathValue("groupId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroup(group))
}

func (h *Handler) updateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !decode(w, r, &req) {
		return
	}

	group, err := h.groups.Update(r.Context(), r.PathValue("groupId"), req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroup(group))
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.Delete(r.Context(), r.PathValue("groupId")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) groupBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.groups.Balances(r.Context(), r.PathValue("groupId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalances(balances))
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.List(r.Context(), r.PathValue("groupId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMembers(members))
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if !decode(w, r, &req) {
		return
	}

	groupID := r.PathValue("groupId")
	if err := h.members.Add(r.Context(), groupID, req.UserID); err != nil {
		h.writeError(w, err)
		return
	}

	members, err := h.members.List(r.Context(), groupID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMembers(members))
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	if err := h.members.Remove(r.Context(), r.PathValue("groupId"), r.PathValue("userId")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
