package handlers

import (
	"context"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/jaybesin/logistics-console/internal/containers"
	"github.com/jaybesin/logistics-console/internal/db"
	"github.com/jaybesin/logistics-console/internal/models"
	"github.com/jaybesin/logistics-console/internal/shipment"
	"github.com/jaybesin/logistics-console/internal/workflow"
)

// AdminHandler serves the console. Reads go to the store so an admin always
// sees their own writes.
type AdminHandler struct {
	store      db.Store
	controller *workflow.Controller
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store db.Store, controller *workflow.Controller) *AdminHandler {
	return &AdminHandler{store: store, controller: controller}
}

func (h *AdminHandler) shipments(ctx context.Context) ([]models.Shipment, error) {
	docs, err := h.store.List(ctx, db.Shipments)
	if err != nil {
		return nil, err
	}
	return db.DecodeShipments(docs)
}

// ListShipments returns every shipment, newest first. ?q= narrows the list to
// tracking numbers, consignees or containers containing the query.
func (h *AdminHandler) ListShipments(w http.ResponseWriter, r *http.Request) {
	list, err := h.shipments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q"))); q != "" {
		matched := make([]models.Shipment, 0, len(list))
		for _, s := range list {
			if matchesSearch(s, q) {
				matched = append(matched, s)
			}
		}
		list = matched
	}
	writeJSON(w, http.StatusOK, list)
}

func matchesSearch(s models.Shipment, q string) bool {
	for _, field := range []string{s.TrackingNumber, s.ConsigneeName, s.ContainerID} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// CreateShipment submits a new manifest.
func (h *AdminHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	var f shipment.Form
	if !decodeJSON(w, r, &f) {
		return
	}
	h.submit(w, r, workflow.Form{Type: workflow.EntityManifest, Mode: workflow.ModeCreate, Manifest: &f})
}

// GetShipment returns one shipment with fresh totals.
func (h *AdminHandler) GetShipment(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Get(r.Context(), db.Shipments, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s, err := db.DecodeShipment(doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UpdateShipment submits an edited manifest.
func (h *AdminHandler) UpdateShipment(w http.ResponseWriter, r *http.Request) {
	var f shipment.Form
	if !decodeJSON(w, r, &f) {
		return
	}
	h.submit(w, r, workflow.Form{
		Type:     workflow.EntityManifest,
		Mode:     workflow.ModeEdit,
		ID:       r.PathValue("id"),
		Manifest: &f,
	})
}

// DeleteShipment removes a shipment.
func (h *AdminHandler) DeleteShipment(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.DeleteShipment(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

// UpdateShipmentStatus moves one shipment to another stage.
func (h *AdminHandler) UpdateShipmentStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.controller.UpdateStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// BulkStatus moves every listed shipment to one stage, or none of them.
func (h *AdminHandler) BulkStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.controller.BulkApply(r.Context(), req.IDs, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"updated": n, "status": strings.TrimSpace(req.Status)})
}

// ShipmentWhatsApp prepares the status update message for the consignee.
func (h *AdminHandler) ShipmentWhatsApp(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Get(r.Context(), db.Shipments, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s, err := db.DecodeShipment(doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	msg := workflow.StatusUpdate(s)
	writeJSON(w, http.StatusOK, map[string]string{
		"message":      msg,
		"whatsapp_url": workflow.WhatsAppLink(s.ConsigneePhone, msg),
	})
}

var formCollections = map[workflow.EntityType]string{
	workflow.EntityManifest: db.Shipments,
	workflow.EntityProduct:  db.Products,
	workflow.EntityVehicle:  db.Vehicles,
}

// OpenForm returns a pre-filled editor for /forms/{type}?mode=create|edit&id=.
func (h *AdminHandler) OpenForm(w http.ResponseWriter, r *http.Request) {
	entity := workflow.EntityType(r.PathValue("type"))
	mode := workflow.Mode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = workflow.ModeCreate
	}

	var existing interface{}
	if mode == workflow.ModeEdit {
		collection, ok := formCollections[entity]
		if !ok {
			writeError(w, r, workflow.ErrUnknownEntity)
			return
		}
		doc, err := h.store.Get(r.Context(), collection, r.URL.Query().Get("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		existing = doc
	}

	form, err := h.controller.OpenForm(entity, mode, existing)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// SubmitForm persists an editor returned by OpenForm.
func (h *AdminHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	var form workflow.Form
	if !decodeJSON(w, r, &form) {
		return
	}
	h.submit(w, r, form)
}

func (h *AdminHandler) submit(w http.ResponseWriter, r *http.Request, form workflow.Form) {
	res, err := h.controller.Submit(r.Context(), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

// ListContainers groups shipments by container.
func (h *AdminHandler) ListContainers(w http.ResponseWriter, r *http.Request) {
	list, err := h.shipments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	groups := containers.Aggregate(list)
	if groups == nil {
		groups = []containers.Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// GetContainer returns one container group.
func (h *AdminHandler) GetContainer(w http.ResponseWriter, r *http.Request) {
	list, err := h.shipments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := containers.Find(list, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// GetSettings returns the stored settings over the defaults.
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.LoadSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UpdateSettings merges the posted fields and returns the result.
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if err := h.controller.SaveSettings(r.Context(), patch); err != nil {
		writeError(w, r, err)
		return
	}
	h.GetSettings(w, r)
}

// ListProducts returns every shop product.
func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := listAll[models.Product](r, h.store, db.Products)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// CreateProduct adds a shop product.
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p workflow.ProductForm
	if !decodeJSON(w, r, &p) {
		return
	}
	h.submit(w, r, workflow.Form{Type: workflow.EntityProduct, Mode: workflow.ModeCreate, Product: &p})
}

// UpdateProduct edits a shop product in place.
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p workflow.ProductForm
	if !decodeJSON(w, r, &p) {
		return
	}
	h.submit(w, r, workflow.Form{
		Type:    workflow.EntityProduct,
		Mode:    workflow.ModeEdit,
		ID:      r.PathValue("id"),
		Product: &p,
	})
}

// DeleteProduct removes a shop product.
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListVehicles returns every vehicle listing.
func (h *AdminHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := listAll[models.Vehicle](r, h.store, db.Vehicles)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// CreateVehicle adds a vehicle listing.
func (h *AdminHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var v workflow.VehicleForm
	if !decodeJSON(w, r, &v) {
		return
	}
	h.submit(w, r, workflow.Form{Type: workflow.EntityVehicle, Mode: workflow.ModeCreate, Vehicle: &v})
}

// UpdateVehicle edits a vehicle listing.
func (h *AdminHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var v workflow.VehicleForm
	if !decodeJSON(w, r, &v) {
		return
	}
	h.submit(w, r, workflow.Form{
		Type:    workflow.EntityVehicle,
		Mode:    workflow.ModeEdit,
		ID:      r.PathValue("id"),
		Vehicle: &v,
	})
}

// DeleteVehicle removes a vehicle listing.
func (h *AdminHandler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.DeleteVehicle(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCategories returns shop categories.
func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := listAll[models.Category](r, h.store, db.Categories)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// CreateCategory adds a category. Posting an existing name returns its id.
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.controller.AddCategory(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id, "name": strings.ToUpper(strings.TrimSpace(req.Name))})
}

// DeleteCategory removes a category.
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats is the dashboard summary.
type Stats struct {
	Shipments      int     `json:"shipments"`
	Containers     int     `json:"containers"`
	TotalVolume    float64 `json:"total_volume"`
	Revenue        float64 `json:"revenue"`
	Messages       int     `json:"messages"`
	UnreadMessages int     `json:"unread_messages"`
	Agents         int     `json:"agents"`
}

// GetStats summarises shipments, the inbox and agent applications.
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	list, err := h.shipments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	messages, err := listAll[models.Message](r, h.store, db.Messages)
	if err != nil {
		writeError(w, r, err)
		return
	}
	agents, err := h.store.List(r.Context(), db.Agents)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var st Stats
	for _, s := range list {
		t := s.Totals()
		st.TotalVolume += t.TotalVolume
		st.Revenue += t.TotalCost
	}
	display := models.Totals{TotalVolume: st.TotalVolume, TotalCost: st.Revenue}.Display()
	st.TotalVolume, st.Revenue = display.TotalVolume, display.TotalCost
	st.Shipments = len(list)
	st.Containers = len(containers.Aggregate(list))
	st.Messages = len(messages)
	for _, m := range messages {
		if m.Status != "read" {
			st.UnreadMessages++
		}
	}
	st.Agents = len(agents)
	writeJSON(w, http.StatusOK, st)
}

// ListMessages returns the contact inbox, newest first.
func (h *AdminHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := listAll[models.Message](r, h.store, db.Messages)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// MarkMessageRead flags one message as handled.
func (h *AdminHandler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.controller.MarkMessageRead(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	log.WithField("message_id", id).Debug("Message marked read")
	w.WriteHeader(http.StatusNoContent)
}

// ListAgents returns agent network applications.
func (h *AdminHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := listAll[models.Agent](r, h.store, db.Agents)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}
