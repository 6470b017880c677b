package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jaybesin/logistics-console/internal/containers"
	"github.com/jaybesin/logistics-console/internal/db"
	"github.com/jaybesin/logistics-console/internal/documents"
)

// DocumentHandler renders invoices and manifests as PDF downloads.
type DocumentHandler struct {
	store db.Store
	now   func() time.Time
}

// NewDocumentHandler creates a new document handler. A nil clock uses time.Now.
func NewDocumentHandler(store db.Store, now func() time.Time) *DocumentHandler {
	if now == nil {
		now = time.Now
	}
	return &DocumentHandler{store: store, now: now}
}

// ShipmentPDF serves /documents/shipments/{id}.pdf?type=&currency=.
func (h *DocumentHandler) ShipmentPDF(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Get(r.Context(), db.Shipments, pdfTarget(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s, err := db.DecodeShipment(doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.serve(w, r, documents.ShipmentSource{Shipment: s}, r.URL.Query().Get("type"), documents.Invoice)
}

// ContainerPDF serves /documents/containers/{id}.pdf. The type defaults to a manifest.
func (h *DocumentHandler) ContainerPDF(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.List(r.Context(), db.Shipments)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := db.DecodeShipments(docs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := containers.Find(list, pdfTarget(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.serve(w, r, documents.ContainerSource{Group: g}, r.URL.Query().Get("type"), documents.Manifest)
}

// NewManual returns a blank manual invoice to fill in.
func (h *DocumentHandler) NewManual(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, documents.NewManualSource(h.now()))
}

// ManualPDF renders a typed-in invoice with no backing shipment.
func (h *DocumentHandler) ManualPDF(w http.ResponseWriter, r *http.Request) {
	var req struct {
		documents.ManualSource
		Type     string `json:"type"`
		Currency string `json:"currency"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ReferenceID) == "" {
		req.ReferenceID = documents.NewManualSource(h.now()).ReferenceID
	}
	q := r.URL.Query()
	if req.Type != "" {
		q.Set("type", req.Type)
	}
	if req.Currency != "" {
		q.Set("currency", req.Currency)
	}
	r.URL.RawQuery = q.Encode()
	h.serve(w, r, req.ManualSource, q.Get("type"), documents.Invoice)
}

func (h *DocumentHandler) serve(w http.ResponseWriter, r *http.Request, src documents.Source, rawType string, fallback documents.DocType) {
	docType := fallback
	if strings.TrimSpace(rawType) != "" {
		parsed, err := documents.ParseDocType(rawType)
		if err != nil {
			writeError(w, r, err)
			return
		}
		docType = parsed
	}
	currency, err := documents.ParseCurrency(r.URL.Query().Get("currency"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	settings, err := h.store.LoadSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	doc, err := documents.Build(src, docType, currency, settings, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Render fully before writing so a failure can still be reported as an error status.
	var buf bytes.Buffer
	if err := documents.Render(doc, &buf); err != nil {
		writeError(w, r, fmt.Errorf("render %s: %w", doc.ReferenceID, err))
		return
	}

	name := documents.FileName(doc)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.WithField("file", name).WithError(err).Warn("Failed to write document")
		return
	}
	log.WithFields(log.Fields{
		"file":     name,
		"type":     doc.DocType,
		"currency": doc.Currency,
		"items":    len(doc.Items),
	}).Info("Document generated")
}

// pdfTarget strips the .pdf suffix from the {file} path segment.
func pdfTarget(r *http.Request) string {
	return strings.TrimSuffix(r.PathValue("file"), ".pdf")
}
