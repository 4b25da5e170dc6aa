package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pders01/gamelib/internal/catalog"
	"github.com/pders01/gamelib/internal/library"
	"github.com/pders01/gamelib/internal/storage"
	"github.com/pders01/gamelib/internal/validation"
)

var timeNow = time.Now

const connectionTestTimeout = 15 * time.Second

type configResponse struct {
	Configured   bool   `json:"configured"`
	APIKey       string `json:"apiKey,omitempty"`
	AccountID    string `json:"accountId,omitempty"`
	ProxyBaseURL string `json:"proxyBaseUrl,omitempty"`
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.deps.Catalog.Config()
	if !ok {
		respondJSON(w, http.StatusOK, configResponse{})
		return
	}
	respondJSON(w, http.StatusOK, configResponse{
		Configured:   true,
		APIKey:       validation.MaskSecret(creds.APIKey),
		AccountID:    creds.AccountID,
		ProxyBaseURL: creds.ProxyBaseURL,
	})
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var body catalog.Credentials
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	valid, err := validation.ValidateCredentials(body.APIKey, body.AccountID, body.ProxyBaseURL)
	if err != nil {
		respondError(w, http.StatusBadRequest, strings.ReplaceAll(err.Error(), "\n", "; "))
		return
	}

	creds := catalog.Credentials{
		APIKey:       valid.APIKey,
		AccountID:    valid.AccountID,
		ProxyBaseURL: valid.ProxyBaseURL,
	}
	if err := s.deps.Catalog.SetConfig(creds); err != nil {
		s.log.Error("saving catalog config", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Configuration applied but could not be saved")
		return
	}
	respondJSON(w, http.StatusOK, configResponse{
		Configured:   true,
		APIKey:       validation.MaskSecret(creds.APIKey),
		AccountID:    creds.AccountID,
		ProxyBaseURL: creds.ProxyBaseURL,
	})
}

func (s *Server) handleTestConfig(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), connectionTestTimeout)
	defer cancel()
	respondJSON(w, http.StatusOK, map[string]bool{"ok": s.deps.Catalog.TestConnection(ctx)})
}

type syncResponse struct {
	Records []storage.SyncRecord `json:"records"`
	Errors  []string             `json:"errors,omitempty"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	platform := strings.TrimSpace(r.URL.Query().Get("platform"))

	if platform != "" {
		rec, err := s.deps.Library.Sync(r.Context(), platform)
		switch {
		case errors.Is(err, library.ErrUnknownPlatform):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, catalog.ErrNotConfigured):
			respondError(w, http.StatusConflict, err.Error())
		case err != nil:
			respondJSON(w, http.StatusBadGateway, syncResponse{Records: []storage.SyncRecord{*rec}, Errors: []string{err.Error()}})
		default:
			respondJSON(w, http.StatusOK, syncResponse{Records: []storage.SyncRecord{*rec}})
		}
		return
	}

	records, err := s.deps.Library.SyncAll(r.Context())
	resp := syncResponse{Records: records}
	if resp.Records == nil {
		resp.Records = []storage.SyncRecord{}
	}
	if err != nil {
		resp.Errors = strings.Split(err.Error(), "\n")
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSyncs(w http.ResponseWriter, r *http.Request) {
	records := s.deps.Library.LastSyncs()
	if records == nil {
		records = []storage.SyncRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"records": records})
}
