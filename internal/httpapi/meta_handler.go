package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/httpapi/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const swaggerHTML = `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8"/>
    <title>Booking API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css"/>
  </head>
  <body>
    <div id="swagger"></div>
    <script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
    <script>
      SwaggerUIBundle({ url: '/openapi.json', dom_id: '#swagger' });
    </script>
  </body>
</html>
`

var metricsHandler = promhttp.Handler()

func (s *Server) health(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("Health check failed", zap.Error(err))
		return writeJSON(w, http.StatusServiceUnavailable, okResponse{OK: false})
	}
	return writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) openAPI(w http.ResponseWriter, _ *http.Request, _ router.Params) error {
	doc := s.router.OpenAPI(router.Info{
		Title:       "Booking API",
		Version:     s.opts.Version,
		Description: "Users, slots and bookings",
	})
	return writeJSON(w, http.StatusOK, doc)
}

func (s *Server) docs(w http.ResponseWriter, _ *http.Request, _ router.Params) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := w.Write([]byte(swaggerHTML))
	return err
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	metricsHandler.ServeHTTP(w, r)
	return nil
}
