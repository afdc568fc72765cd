package memory

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/OCAP2/vessels/internal/model"
)

// exportBaseName is the file name inside OutputDir, before the extension.
const exportBaseName = "vessels"

// Export is the on-disk JSON layout of the memory backend.
type Export struct {
	Interiors      []model.ShipInterior      `json:"interiors"`
	Docking        []model.ShipDocking       `json:"docking"`
	Cargo          []model.ShipCargo         `json:"cargo"`
	Crew           []model.ShipCrew          `json:"crew"`
	Waypoints      []model.ShipWaypoint      `json:"waypoints"`
	Routes         []model.ShipRoute         `json:"routes"`
	RouteWaypoints []model.ShipRouteWaypoint `json:"routeWaypoints"`
	Schedules      []model.ShipSchedule      `json:"schedules"`
	Vehicles       []model.VehicleData       `json:"vehicles"`
}

func (b *Backend) exportPath() string {
	name := exportBaseName + ".json"
	if b.cfg.CompressOutput {
		name += ".gz"
	}
	return filepath.Join(b.cfg.OutputDir, name)
}

func (b *Backend) buildExport() Export {
	var e Export
	for _, id := range sortedKeys(b.interiors) {
		e.Interiors = append(e.Interiors, b.interiors[id])
	}
	e.Docking = append(e.Docking, b.docks...)
	for _, id := range sortedKeys(b.cargo) {
		e.Cargo = append(e.Cargo, b.cargo[id]...)
	}
	for _, id := range sortedKeys(b.crew) {
		e.Crew = append(e.Crew, b.crew[id]...)
	}
	for _, id := range sortedKeys(b.waypoints) {
		e.Waypoints = append(e.Waypoints, b.waypoints[id])
	}
	for _, id := range sortedKeys(b.routes) {
		e.Routes = append(e.Routes, b.routes[id])
		e.RouteWaypoints = append(e.RouteWaypoints, b.links[id]...)
	}
	for _, id := range sortedKeys(b.schedules) {
		e.Schedules = append(e.Schedules, b.schedules[id])
	}
	for _, id := range sortedKeys(b.vehicles) {
		e.Vehicles = append(e.Vehicles, b.vehicles[id])
	}
	return e
}

func (b *Backend) applyExport(e Export) {
	b.reset()
	for _, r := range e.Interiors {
		b.interiors[r.ShipID] = r
	}
	b.docks = e.Docking
	for _, r := range e.Cargo {
		b.cargo[r.ShipID] = append(b.cargo[r.ShipID], r)
	}
	for _, r := range e.Crew {
		b.crew[r.ShipID] = append(b.crew[r.ShipID], r)
	}
	for _, r := range e.Waypoints {
		b.waypoints[r.ID] = r
	}
	for _, r := range e.Routes {
		b.routes[r.ID] = r
	}
	for _, r := range e.RouteWaypoints {
		b.links[r.RouteID] = append(b.links[r.RouteID], r)
	}
	for _, r := range e.Schedules {
		b.schedules[r.ShipID] = r
	}
	for _, r := range e.Vehicles {
		b.vehicles[r.VehicleID] = r
	}
}

// exportFile writes every table to OutputDir.
func (b *Backend) exportFile() error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := b.exportPath()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if b.cfg.CompressOutput {
		gz := gzip.NewWriter(f)
		if err := json.NewEncoder(gz).Encode(b.buildExport()); err != nil {
			return fmt.Errorf("failed to encode export: %w", err)
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("failed to finish gzip export: %w", err)
		}
	} else if err := json.NewEncoder(f).Encode(b.buildExport()); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	b.lastExportPath = path
	return nil
}

// importFile loads the export in OutputDir. A missing file is not an error.
func (b *Backend) importFile() error {
	f, err := os.Open(b.exportPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if b.cfg.CompressOutput {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to open gzip export: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	var e Export
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return fmt.Errorf("failed to decode export: %w", err)
	}
	b.applyExport(e)
	return nil
}
