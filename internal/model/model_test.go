package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		name     string
		model    interface{ TableName() string }
		expected string
	}{
		{"ShipInterior", &ShipInterior{}, "ship_interiors"},
		{"ShipDocking", &ShipDocking{}, "ship_docking"},
		{"ShipCargo", &ShipCargo{}, "ship_cargo_manifest"},
		{"ShipCrew", &ShipCrew{}, "ship_crew_roster"},
		{"ShipWaypoint", &ShipWaypoint{}, "ship_waypoints"},
		{"ShipRoute", &ShipRoute{}, "ship_routes"},
		{"ShipRouteWaypoint", &ShipRouteWaypoint{}, "ship_route_waypoints"},
		{"ShipSchedule", &ShipSchedule{}, "ship_schedules"},
		{"VehicleData", &VehicleData{}, "vehicle_data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.model.TableName())
		})
	}
}

func TestDatabaseModels(t *testing.T) {
	assert.Len(t, DatabaseModels, 9)
	seen := map[string]bool{}
	for _, m := range DatabaseModels {
		tn, ok := m.(interface{ TableName() string })
		if assert.True(t, ok, "%T has no table name", m) {
			assert.False(t, seen[tn.TableName()], "duplicate table %s", tn.TableName())
			seen[tn.TableName()] = true
		}
	}
}
