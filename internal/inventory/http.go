package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniInventory/pkg/kit"
)

const (
	maxProductBody = 1 << 20
	readyTimeout   = 1 * time.Second
)

type Server struct {
	Manager *Manager
	Log     *zap.Logger

	// WriteGuard wraps mutating routes. Nil leaves them open.
	WriteGuard func(http.Handler) http.Handler
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := s.Manager.Ping(ctx); err != nil {
			if s.Log != nil {
				s.Log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/products", s.list)
	r.Get("/products/{sku}", s.get)

	r.Group(func(wr chi.Router) {
		if s.WriteGuard != nil {
			wr.Use(s.WriteGuard)
		}
		wr.Put("/products/{sku}", s.put)
	})

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Manager.List())
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	p, err := s.Manager.GetProduct(sku)
	if err != nil {
		s.writeManagerError(w, r, err, sku)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) put(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	p, err := decodeProduct(w, r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if err := s.Manager.AddProduct(sku, p); err != nil {
		s.writeManagerError(w, r, err, sku)
		return
	}

	if s.Log != nil {
		s.Log.Info("product stored",
			zap.String("sku", sku),
			zap.Int("quantity", p.Quantity),
			zap.String("category", p.Category),
		)
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (Product, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxProductBody)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)

	var p Product
	if err := dec.Decode(&p); err != nil {
		return Product{}, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return Product{}, errors.New("extra data after json object")
	}

	return p, nil
}

func (s *Server) writeManagerError(w http.ResponseWriter, r *http.Request, err error, sku string) {
	switch {
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"sku": sku})
	case errors.Is(err, ErrInvalidArgument):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), map[string]any{"sku": sku})
	default:
		if s.Log != nil {
			s.Log.Error("inventory operation failed", zap.Error(err), zap.String("sku", sku))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
