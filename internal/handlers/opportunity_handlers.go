package handlers

import (
	"net/http"

	"nest-hub/internal/api"
	"nest-hub/internal/listing"
)

// HandleListOpportunities pages through scraped opportunities
func (s *Server) HandleListOpportunities() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := listing.ParseParams(r.URL.Query(), listing.OpportunitySchema)
		if err != nil {
			writeError(w, err)
			return
		}
		ctx, cancel := s.requestContext(r)
		defer cancel()

		res, err := s.Engine.ListOpportunities(ctx, q)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.List(res))
	}
}

func (s *Server) HandleGetOpportunity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.requestContext(r)
		defer cancel()

		opp, err := s.Engine.GetOpportunity(ctx, r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.OK(opp))
	}
}
