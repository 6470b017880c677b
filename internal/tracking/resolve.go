// Package tracking answers public "where is my cargo" queries.
package tracking

import (
	"sort"
	"strings"

	"github.com/jaybesin/logistics-console/internal/models"
	"github.com/jaybesin/logistics-console/internal/stages"
)

// Status distinguishes "nothing asked yet" from "asked and missed".
type Status string

const (
	StatusIdle     Status = "idle"
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
)

// Strategy names the lookup that matched.
type Strategy string

const (
	ByTrackingNumber Strategy = "tracking_number"
	ByConsigneeName  Strategy = "consignee_name"
	ByContainerID    Strategy = "container_id"
)

// Result is the outcome of Resolve. Shipment is nil unless Status is found.
type Result struct {
	Status     Status           `json:"status"`
	Query      string           `json:"query,omitempty"`
	MatchedBy  Strategy         `json:"matched_by,omitempty"`
	Shipment   *models.Shipment `json:"shipment,omitempty"`
	Progress   int              `json:"progress,omitempty"`
	StageIndex int              `json:"stage_index"`
	Stages     []string         `json:"stages,omitempty"`
}

// Resolve finds the shipment a query refers to. Strategies are tried in order:
// exact tracking number, consignee name containment, exact container id. All
// comparisons are case-insensitive on trimmed values. When several shipments
// match one strategy, the most recently created wins.
func Resolve(query string, shipments []models.Shipment) Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Result{Status: StatusIdle, StageIndex: stages.UnknownIndex}
	}

	ordered := newestFirst(shipments)
	strategies := []struct {
		name  Strategy
		match func(models.Shipment) bool
	}{
		{ByTrackingNumber, func(s models.Shipment) bool { return normalize(s.TrackingNumber) == q }},
		{ByConsigneeName, func(s models.Shipment) bool {
			name := normalize(s.ConsigneeName)
			return name != "" && strings.Contains(name, q)
		}},
		{ByContainerID, func(s models.Shipment) bool { return normalize(s.ContainerID) == q }},
	}

	for _, st := range strategies {
		for i := range ordered {
			if st.match(ordered[i]) {
				return found(query, st.name, ordered[i])
			}
		}
	}
	return Result{Status: StatusNotFound, Query: strings.TrimSpace(query), StageIndex: stages.UnknownIndex}
}

func found(query string, by Strategy, s models.Shipment) Result {
	s.RefreshTotals()
	return Result{
		Status:     StatusFound,
		Query:      strings.TrimSpace(query),
		MatchedBy:  by,
		Shipment:   &s,
		Progress:   stages.ProgressPercent(s.Status),
		StageIndex: stages.Index(s.Status),
		Stages:     stages.All(),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// newestFirst returns a sorted copy; input order breaks ties.
func newestFirst(in []models.Shipment) []models.Shipment {
	out := make([]models.Shipment, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
