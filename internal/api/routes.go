package api

import "github.com/gorilla/mux"

func RegisterRoutes(r *mux.Router, h *Handler) {
	sub := r.PathPrefix("/api/v1").Subrouter()
	sub.HandleFunc("/devices", h.Devices).Methods("GET")
	sub.HandleFunc("/stats", h.Stats).Methods("GET")
}
