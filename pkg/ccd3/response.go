package ccd3

import (
	"encoding/json"
	"net/http"
)

type stateResponse struct {
	State int `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func handleResponse(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(value)
}

func handleError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}
