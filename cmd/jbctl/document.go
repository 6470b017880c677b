package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jaybesin/logistics-console/internal/containers"
	"github.com/jaybesin/logistics-console/internal/documents"
	"github.com/jaybesin/logistics-console/internal/models"
	"github.com/jaybesin/logistics-console/internal/shipment"
)

type documentOptions struct {
	root     *rootOptions
	docType  string
	currency string
	outDir   string
	now      func() time.Time
}

func newDocumentCmd(root *rootOptions) *cobra.Command {
	opts := &documentOptions{root: root, now: time.Now}
	cmd := &cobra.Command{
		Use:   "document",
		Short: "Render invoices, packing lists and manifests to PDF",
		Long: `Render a PDF from exported JSON without a running server.

Shipment files hold one manifest form as submitted to /api/admin/shipments.
Container files hold an array of those forms. Manual files hold a manual
invoice body as posted to /api/admin/documents/manual.`,
	}
	cmd.PersistentFlags().StringVar(&opts.docType, "type", "", "INVOICE, BILL_OF_LADING, PACKING_LIST or MANIFEST")
	cmd.PersistentFlags().StringVar(&opts.currency, "currency", "USD", "USD or GHS")
	cmd.PersistentFlags().StringVarP(&opts.outDir, "out", "o", ".", "directory the PDF is written to")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "shipment FILE",
			Short: "Bill a single shipment",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var form shipment.Form
				if err := readJSON(args[0], &form); err != nil {
					return err
				}
				s := shipment.BuildShipmentPayload(form, opts.now())
				return opts.export(cmd, documents.ShipmentSource{Shipment: s}, documents.Invoice)
			},
		},
		&cobra.Command{
			Use:   "container ID FILE",
			Short: "Build the manifest for one container",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				var forms []shipment.Form
				if err := readJSON(args[1], &forms); err != nil {
					return err
				}
				all := make([]models.Shipment, 0, len(forms))
				for _, f := range forms {
					all = append(all, shipment.BuildShipmentPayload(f, opts.now()))
				}
				g, err := containers.Find(all, args[0])
				if err != nil {
					return fmt.Errorf("container %s: %w", args[0], err)
				}
				return opts.export(cmd, documents.ContainerSource{Group: g}, documents.Manifest)
			},
		},
		&cobra.Command{
			Use:   "manual FILE",
			Short: "Render a manual invoice",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var src documents.ManualSource
				if err := readJSON(args[0], &src); err != nil {
					return err
				}
				if src.ReferenceID == "" {
					src.ReferenceID = documents.NewManualSource(opts.now()).ReferenceID
				}
				return opts.export(cmd, src, documents.Invoice)
			},
		},
	)
	return cmd
}

// export builds and renders src, then prints the written path.
func (o *documentOptions) export(cmd *cobra.Command, src documents.Source, fallback documents.DocType) error {
	docType := fallback
	if o.docType != "" {
		dt, err := documents.ParseDocType(o.docType)
		if err != nil {
			return err
		}
		docType = dt
	}
	currency, err := documents.ParseCurrency(o.currency)
	if err != nil {
		return err
	}
	settings, err := loadSettings(o.root.settingsPath)
	if err != nil {
		return err
	}

	doc, err := documents.Build(src, docType, currency, settings, o.now())
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := documents.Render(doc, &buf); err != nil {
		return fmt.Errorf("render %s: %w", doc.ReferenceID, err)
	}

	if err := os.MkdirAll(o.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(o.outDir, documents.FileName(doc))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	log.WithFields(log.Fields{
		"type":      docType,
		"currency":  currency,
		"reference": doc.ReferenceID,
		"bytes":     buf.Len(),
	}).Debug("Document written")
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func readJSON(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
