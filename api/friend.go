package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/alextanhongpin/go-fitmate/domain"
	"github.com/alextanhongpin/go-fitmate/usecase"
)

type friendsResponse struct {
	Friends domain.FriendList `json:"friends"`
	Notice  string            `json:"notice,omitempty"`
	Warning string            `json:"warning,omitempty"`
}

type removalResponse struct {
	State   string         `json:"state"`
	Target  *domain.Friend `json:"target,omitempty"`
	Prompt  string         `json:"prompt,omitempty"`
	Notice  string         `json:"notice,omitempty"`
	Warning string         `json:"warning,omitempty"`
}

func newRemovalResponse(state usecase.DeletionState, warn string) removalResponse {
	res := removalResponse{State: state.Name(), Warning: warn}

	target, ok := usecase.Target(state)
	if !ok {
		return res
	}
	res.Target = &target

	switch state.(type) {
	case usecase.ConfirmingDeletion:
		res.Prompt = usecase.ConfirmationPrompt(target)
	case usecase.ShowingDeletionNotice:
		res.Notice = usecase.DeletionNotice(target)
	}

	return res
}

// store returns the caller's friend store, started on first use.
func (s *Server) store(w http.ResponseWriter, r *http.Request) (*usecase.FriendStore, string, bool) {
	store, err := s.sessions.Get(r.Context(), ownerFrom(r.Context()))

	warn, err := warning(err)
	if err != nil {
		writeError(w, err)
		return nil, "", false
	}

	return store, warn, true
}

func (s *Server) handleListFriends(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	store, warn, ok := s.store(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, friendsResponse{Friends: store.Friends(), Warning: warn})
}

func (s *Server) handleAddFriend(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	store, warn, ok := s.store(w, r)
	if !ok {
		return
	}

	list, err := store.Add(r.Context(), req.Email)
	addWarn, err := warning(err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, friendsResponse{Friends: list, Warning: joinWarnings(warn, addWarn)})
}

func (s *Server) handleRemovalState(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	store, warn, ok := s.store(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, newRemovalResponse(store.State(), warn))
}

func (s *Server) handleRequestRemoval(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var target domain.Friend
	if err := json.NewDecoder(r.Body).Decode(&target); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if strings.TrimSpace(target.Email) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email is required"})
		return
	}

	store, warn, ok := s.store(w, r)
	if !ok {
		return
	}

	if err := store.RequestRemoval(target); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, newRemovalResponse(store.State(), warn))
}

func (s *Server) handleCancelRemoval(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	store, warn, ok := s.store(w, r)
	if !ok {
		return
	}

	if err := store.CancelRemoval(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newRemovalResponse(store.State(), warn))
}

func (s *Server) handleConfirmRemoval(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	store, warn, ok := s.store(w, r)
	if !ok {
		return
	}

	list, target, err := store.ConfirmRemoval(r.Context())
	confirmWarn, err := warning(err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, friendsResponse{
		Friends: list,
		Notice:  usecase.DeletionNotice(target),
		Warning: joinWarnings(warn, confirmWarn),
	})
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	store, warn, ok := s.store(w, r)
	if !ok {
		return
	}

	if err := store.Acknowledge(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newRemovalResponse(store.State(), warn))
}
