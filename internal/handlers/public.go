package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jaybesin/logistics-console/internal/db"
	"github.com/jaybesin/logistics-console/internal/models"
	"github.com/jaybesin/logistics-console/internal/quote"
	"github.com/jaybesin/logistics-console/internal/stages"
	"github.com/jaybesin/logistics-console/internal/tracking"
	"github.com/jaybesin/logistics-console/internal/workflow"
)

// View is the subscription-fed read model the public pages are served from.
type View interface {
	Shipments() []models.Shipment
	Settings() models.Settings
	Categories() []models.Category
}

// PublicHandler serves the customer-facing site.
type PublicHandler struct {
	store      db.Store
	view       View
	controller *workflow.Controller
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(store db.Store, view View, controller *workflow.Controller) *PublicHandler {
	return &PublicHandler{store: store, view: view, controller: controller}
}

// Health reports liveness and the stage registry version.
func (h *PublicHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"stages_version": stages.Version,
	})
}

// Track resolves ?q= against the current shipments. A miss is still a 200.
func (h *PublicHandler) Track(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tracking.Resolve(r.URL.Query().Get("q"), h.view.Shipments()))
}

// Stages lists the journey in order.
func (h *PublicHandler) Stages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version": stages.Version,
		"stages":  stages.All(),
	})
}

// SeaQuote prices ?length=&width=&height= in centimetres.
func (h *PublicHandler) SeaQuote(w http.ResponseWriter, r *http.Request) {
	dims := make([]float64, 3)
	for i, name := range []string{"length", "width", "height"} {
		v, err := floatParam(r, name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		dims[i] = v
	}
	q, err := quote.Sea(dims[0], dims[1], dims[2], h.view.Settings())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// AirQuote prices ?weight= kilograms in ?category=.
func (h *PublicHandler) AirQuote(w http.ResponseWriter, r *http.Request) {
	weight, err := floatParam(r, "weight")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q, err := quote.Air(weight, r.URL.Query().Get("category"), h.view.Settings())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Products lists the sourcing shop, optionally filtered by ?category=.
func (h *PublicHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := listAll[models.Product](r, h.store, db.Products)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cat := strings.TrimSpace(r.URL.Query().Get("category")); cat != "" {
		filtered := products[:0]
		for _, p := range products {
			if strings.EqualFold(p.Category, cat) {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}
	writeJSON(w, http.StatusOK, products)
}

// Vehicles lists the vehicle catalog.
func (h *PublicHandler) Vehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := listAll[models.Vehicle](r, h.store, db.Vehicles)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// Categories lists shop categories, defaults included while none are stored.
func (h *PublicHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.view.Categories())
}

// PostMessage files a contact form submission.
func (h *PublicHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var form workflow.MessageForm
	if !decodeJSON(w, r, &form) {
		return
	}
	id, err := h.controller.SubmitMessage(r.Context(), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id, "message": "Message received"})
}

// PostAgent files an agent network application.
func (h *PublicHandler) PostAgent(w http.ResponseWriter, r *http.Request) {
	var form workflow.AgentForm
	if !decodeJSON(w, r, &form) {
		return
	}
	agent, err := h.controller.SubmitAgent(r.Context(), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

// Checkout turns a cart into a WhatsApp order message.
func (h *PublicHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []workflow.CartLine `json:"items"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.controller.Checkout(req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// floatParam reads an optional numeric query parameter. Absent means zero.
func floatParam(r *http.Request, name string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}

func listAll[T any](r *http.Request, store db.Store, collection string) ([]T, error) {
	docs, err := store.List(r.Context(), collection)
	if err != nil {
		return nil, err
	}
	return db.DecodeAll[T](docs)
}
