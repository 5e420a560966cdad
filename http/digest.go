package http

import (
	"fmt"
	"net/http"

	"github.com/quantonganh/newsletter"
)

func (s *Server) runDigestHandler(w http.ResponseWriter, r *http.Request) error {
	if s.Planner == nil {
		return NewError(nil, http.StatusNotFound, "Digest planner is not configured.")
	}

	n, err := s.Planner.Run(r.Context())
	if err != nil {
		return err
	}

	writeJSONResponse(w, http.StatusOK, &newsletter.Response{
		Status:  newsletter.ResponseSuccess,
		Message: fmt.Sprintf("Planned %d digests", n),
	})
	return nil
}
