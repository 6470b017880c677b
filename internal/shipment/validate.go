package shipment

import (
	"fmt"
	"strings"

	"github.com/jaybesin/logistics-console/internal/stages"
)

// ValidationError reports a single rejected form field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the fields that are rejected rather than defaulted.
func Validate(form Form) error {
	if strings.TrimSpace(form.ConsigneeName) == "" {
		return &ValidationError{Field: "consignee_name", Message: "consignee name is required"}
	}
	if status := strings.TrimSpace(form.Status); status != "" && !stages.Valid(status) {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown stage %q", status)}
	}
	if tn := strings.TrimSpace(form.TrackingNumber); tn != "" && !ValidTrackingNumber(tn) {
		return &ValidationError{Field: "tracking_number", Message: "tracking number must look like JB-CN-123456"}
	}
	return nil
}
