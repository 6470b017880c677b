// Package containers groups shipments by the physical container they travel in.
package containers

import (
	"errors"
	"sort"
	"strings"

	"github.com/jaybesin/logistics-console/internal/models"
)

// ErrNotFound is returned by Find when no shipment carries the container id.
var ErrNotFound = errors.New("container not found")

// Group is the derived rollup for one container. It is never stored.
type Group struct {
	ID        string            `json:"id"`
	Items     []models.Shipment `json:"items"`
	TotalVol  float64           `json:"total_vol"`
	TotalCost float64           `json:"total_cost"`
	Count     int               `json:"count"`
}

// Aggregate groups shipments by container id. Shipments without one are left
// out. Keys compare by exact string equality after trimming. Totals come from
// freshly computed shipment totals. Groups are returned sorted by id.
func Aggregate(shipments []models.Shipment) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, s := range shipments {
		id := strings.TrimSpace(s.ContainerID)
		if id == "" {
			continue
		}
		s.RefreshTotals()
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, Group{ID: id})
		}
		g := &groups[i]
		g.Items = append(g.Items, s)
		g.TotalVol += s.TotalVolume
		g.TotalCost += s.TotalCost
		g.Count++
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups
}

// Find returns the group for one container id.
func Find(shipments []models.Shipment, id string) (Group, error) {
	id = strings.TrimSpace(id)
	var matching []models.Shipment
	for _, s := range shipments {
		if strings.TrimSpace(s.ContainerID) == id && id != "" {
			matching = append(matching, s)
		}
	}
	groups := Aggregate(matching)
	if len(groups) == 0 {
		return Group{}, ErrNotFound
	}
	return groups[0], nil
}
