package api

import (
	"net/http"

	"github.com/mmynk/calories/internal/middleware"
)

func (s *Server) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	key, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, loginResponse{Token: key})
	return nil
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) error {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	account, err := s.accounts.CreateAccount(r.Context(), middleware.AccountFrom(r.Context()), req.input())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, newAccountJSON(account))
	return nil
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) error {
	accounts, err := s.accounts.ListAccounts(r.Context(), middleware.AccountFrom(r.Context()))
	if err != nil {
		return err
	}
	out := make([]accountJSON, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, newAccountJSON(a))
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) error {
	account, err := s.accounts.GetAccount(r.Context(), middleware.AccountFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, newAccountJSON(account))
	return nil
}

func (s *Server) updateAccount(partial bool) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		var req accountRequest
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		caller := middleware.AccountFrom(r.Context())
		account, err := s.accounts.UpdateAccount(r.Context(), caller, r.PathValue("id"), req.input(), partial)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, newAccountJSON(account))
		return nil
	}
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) error {
	if err := s.accounts.DeleteAccount(r.Context(), middleware.AccountFrom(r.Context()), r.PathValue("id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
