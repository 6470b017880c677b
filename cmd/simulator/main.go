// Command simulator drives a running console through the admin API: it books
// a batch of shipments into a few containers and then walks them through the
// stage registry one tick at a time.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jaybesin/logistics-console/internal/shipment"
	"github.com/jaybesin/logistics-console/internal/stages"
)

const (
	defaultAPIURL        = "http://localhost:8080/api"
	defaultShipmentCount = 10
	defaultTick          = 2 * time.Second
	defaultAdvanceChance = 0.5
	requestTimeout       = 10 * time.Second
)

var (
	consignees = []string{"Kwame Mensah", "Ama Owusu", "Kofi Asante", "Abena Darko", "Yaw Boateng", "Efua Mensah"}
	cargo      = []string{"Furniture", "Building Tiles", "Electronics", "Textiles", "Auto Parts", "Kitchenware"}
	containers = []string{"MSKU 1029384", "CMAU 5647382", "TGHU 8192736"}
)

type config struct {
	APIURL        string
	Token         string
	ShipmentCount int
	Tick          time.Duration
	AdvanceChance float64
}

func configFromEnv(getenv func(string) string) config {
	cfg := config{
		APIURL:        defaultAPIURL,
		Token:         getenv("SIM_AUTH_TOKEN"),
		ShipmentCount: defaultShipmentCount,
		Tick:          defaultTick,
		AdvanceChance: defaultAdvanceChance,
	}
	if v := getenv("API_BASE_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := getenv("SHIPMENT_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ShipmentCount = n
		}
	}
	if v := getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			cfg.Tick = time.Duration(n) * time.Second
		}
	}
	return cfg
}

// tracked is the simulator's view of one booked shipment.
type tracked struct {
	ID             string
	TrackingNumber string
	Status         string
}

type simulator struct {
	cfg    config
	client *http.Client
	rng    *rand.Rand
	fleet  []*tracked
}

func newSimulator(cfg config, rng *rand.Rand) *simulator {
	return &simulator{
		cfg:    cfg,
		client: &http.Client{Timeout: requestTimeout},
		rng:    rng,
	}
}

func (s *simulator) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("POST %s: status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// randomForm fills a manifest form the way an admin would at the warehouse.
func (s *simulator) randomForm() shipment.Form {
	items := make([]shipment.ItemForm, 1+s.rng.IntN(3))
	for i := range items {
		items[i] = shipment.ItemForm{
			Description: cargo[s.rng.IntN(len(cargo))],
			Quantity:    shipment.Number(1 + s.rng.IntN(20)),
			Weight:      shipment.Number(10 + s.rng.IntN(400)),
			CBM:         shipment.Number(float64(1+s.rng.IntN(40)) / 10),
		}
	}
	return shipment.Form{
		ConsigneeName:  consignees[s.rng.IntN(len(consignees))],
		ConsigneePhone: fmt.Sprintf("024%07d", s.rng.IntN(10_000_000)),
		ContainerID:    containers[s.rng.IntN(len(containers))],
		RatePerCBM:     450,
		ShippingFee:    shipment.Number(s.rng.IntN(5) * 10),
		Items:          items,
	}
}

func (s *simulator) book(ctx context.Context) error {
	for i := 0; i < s.cfg.ShipmentCount; i++ {
		var res struct {
			ID       string `json:"id"`
			Shipment struct {
				TrackingNumber string `json:"tracking_number"`
				Status         string `json:"status"`
			} `json:"shipment"`
		}
		if err := s.post(ctx, "/admin/shipments", s.randomForm(), &res); err != nil {
			return fmt.Errorf("create shipment: %w", err)
		}
		status := res.Shipment.Status
		if status == "" {
			status = stages.First()
		}
		s.fleet = append(s.fleet, &tracked{ID: res.ID, TrackingNumber: res.Shipment.TrackingNumber, Status: status})
		log.WithFields(log.Fields{
			"id":              res.ID,
			"tracking_number": res.Shipment.TrackingNumber,
		}).Info("Booked shipment")
	}
	return nil
}

// step moves a random subset of unfinished shipments one stage forward, one
// bulk request per target stage. It reports whether any shipment is still
// short of the last stage.
func (s *simulator) step(ctx context.Context) (bool, error) {
	moves := make(map[string][]*tracked)
	for _, t := range s.fleet {
		next, ok := stages.Next(t.Status)
		if !ok || s.rng.Float64() >= s.cfg.AdvanceChance {
			continue
		}
		moves[next] = append(moves[next], t)
	}

	targets := make([]string, 0, len(moves))
	for status := range moves {
		targets = append(targets, status)
	}
	sort.Slice(targets, func(i, j int) bool { return stages.Index(targets[i]) < stages.Index(targets[j]) })

	for _, status := range targets {
		batch := moves[status]
		ids := make([]string, len(batch))
		for i, t := range batch {
			ids[i] = t.ID
		}
		body := map[string]interface{}{"ids": ids, "status": status}
		if err := s.post(ctx, "/admin/shipments/bulk-status", body, nil); err != nil {
			return true, fmt.Errorf("advance to %s: %w", status, err)
		}
		for _, t := range batch {
			t.Status = status
		}
		log.WithFields(log.Fields{"status": status, "count": len(ids)}).Info("Advanced shipments")
	}

	for _, t := range s.fleet {
		if _, ok := stages.Next(t.Status); ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *simulator) run(ctx context.Context) error {
	if err := s.book(ctx); err != nil {
		return err
	}
	tick := time.NewTicker(s.cfg.Tick)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
		pending, err := s.step(ctx)
		if err != nil {
			log.WithError(err).Warn("Tick failed")
			continue
		}
		if !pending {
			log.WithField("shipments", len(s.fleet)).Info("Every shipment is ready for collection")
			return nil
		}
	}
}

func main() {
	cfg := configFromEnv(os.Getenv)
	log.WithFields(log.Fields{
		"api_url":   cfg.APIURL,
		"shipments": cfg.ShipmentCount,
		"interval":  cfg.Tick,
	}).Info("Starting shipment simulation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim := newSimulator(cfg, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
	if err := sim.run(ctx); err != nil {
		log.WithError(err).Fatal("Simulation failed")
	}
}
