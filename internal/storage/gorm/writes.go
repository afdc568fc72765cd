package gormstorage

import (
	"fmt"
	"time"

	"github.com/OCAP2/vessels/internal/autopilot"
	"github.com/OCAP2/vessels/internal/docking"
	"github.com/OCAP2/vessels/internal/model"
	"github.com/OCAP2/vessels/internal/model/convert"
	"github.com/OCAP2/vessels/internal/schedule"
	"github.com/OCAP2/vessels/internal/transport"
	"github.com/OCAP2/vessels/internal/vessel"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsert inserts row or overwrites the one sharing key.
func upsert[T any](db *gorm.DB, row T, key string) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: key}},
		UpdateAll: true,
	}).Create(&row).Error
}

// replaceSet swaps every row of T matching column = id for rows. The delete
// and insert share a transaction on the one table.
func replaceSet[T any](db *gorm.DB, column string, id int, rows []T) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var zero T
		if err := tx.Where(column+" = ?", id).Delete(&zero).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		fresh := make([]T, len(rows))
		copy(fresh, rows)
		return tx.Create(&fresh).Error
	})
}

// SaveInterior queues an upsert of the vessel's room graph.
func (b *Backend) SaveInterior(v *vessel.Vessel) error {
	row := convert.InteriorToShipInterior(v)
	return b.enqueue(fmt.Sprintf("interior %d", row.ShipID), func(db *gorm.DB) error {
		return upsert(db, row, "ship_id")
	})
}

// RecordDock queues a new docking record.
func (b *Backend) RecordDock(rec docking.Record) error {
	row := convert.RecordToShipDocking(rec)
	return b.enqueue("dock "+rec.Ref, func(db *gorm.DB) error {
		return upsert(db, row, "ref")
	})
}

// CompleteDock queues the completion of a docking record.
func (b *Backend) CompleteDock(ref string, at time.Time) error {
	return b.enqueue("undock "+ref, func(db *gorm.DB) error {
		return db.Model(&model.ShipDocking{}).
			Where("ref = ?", ref).
			Updates(map[string]any{"dock_status": docking.StatusCompleted, "undock_time": at}).Error
	})
}

// CompleteOrphanDocks completes every active record whose vessels are no
// longer docked to each other. It runs synchronously.
func (b *Backend) CompleteOrphanDocks(live func(ship1, ship2 int) bool) (int, error) {
	b.flushForRead("active docks")

	var active []model.ShipDocking
	if err := b.deps.DB.Where("dock_status = ?", docking.StatusActive).Order("id").Find(&active).Error; err != nil {
		return 0, fmt.Errorf("failed to list active docks: %w", err)
	}
	now := time.Now()
	completed := 0
	for _, row := range active {
		if live(row.Ship1ID, row.Ship2ID) {
			continue
		}
		err := b.deps.DB.Model(&model.ShipDocking{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{"dock_status": docking.StatusCompleted, "undock_time": now}).Error
		if err != nil {
			return completed, fmt.Errorf("failed to complete dock %s: %w", row.Ref, err)
		}
		completed++
	}
	return completed, nil
}

// SaveCargo queues a replacement of the vessel's manifest.
func (b *Backend) SaveCargo(v *vessel.Vessel) error {
	id, rows := v.ID, convert.CargoToShipCargo(v.ID, v.Cargo)
	return b.enqueue(fmt.Sprintf("cargo %d", id), func(db *gorm.DB) error {
		return replaceSet(db, "ship_id", id, rows)
	})
}

// SaveCrew queues a replacement of the vessel's roster.
func (b *Backend) SaveCrew(v *vessel.Vessel) error {
	id, rows := v.ID, convert.CrewToShipCrew(v.ID, v.Crew)
	return b.enqueue(fmt.Sprintf("crew %d", id), func(db *gorm.DB) error {
		return replaceSet(db, "ship_id", id, rows)
	})
}

// DeleteVessel queues removal of a ship's interior, cargo and crew rows.
func (b *Backend) DeleteVessel(shipID int) error {
	return b.enqueue(fmt.Sprintf("delete vessel %d", shipID), func(db *gorm.DB) error {
		for _, m := range []any{&model.ShipInterior{}, &model.ShipCargo{}, &model.ShipCrew{}} {
			if err := db.Where("ship_id = ?", shipID).Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Backend) SaveWaypoint(wp autopilot.Waypoint) error {
	row := convert.WaypointToShipWaypoint(wp)
	return b.enqueue(fmt.Sprintf("waypoint %d", wp.ID), func(db *gorm.DB) error {
		return upsert(db, row, "id")
	})
}

func (b *Backend) DeleteWaypoint(id int) error {
	return b.enqueue(fmt.Sprintf("delete waypoint %d", id), func(db *gorm.DB) error {
		return db.Delete(&model.ShipWaypoint{}, id).Error
	})
}

// SaveRoute queues the route row and its ordered waypoint links as two
// separate writes.
func (b *Backend) SaveRoute(r *autopilot.Route) error {
	row, links := convert.RouteToShipRoute(r)
	_ = b.enqueue(fmt.Sprintf("route %d", row.ID), func(db *gorm.DB) error {
		return upsert(db, row, "id")
	})
	return b.enqueue(fmt.Sprintf("route %d waypoints", row.ID), func(db *gorm.DB) error {
		return replaceSet(db, "route_id", row.ID, links)
	})
}

func (b *Backend) DeleteRoute(id int) error {
	_ = b.enqueue(fmt.Sprintf("delete route %d waypoints", id), func(db *gorm.DB) error {
		return db.Where("route_id = ?", id).Delete(&model.ShipRouteWaypoint{}).Error
	})
	return b.enqueue(fmt.Sprintf("delete route %d", id), func(db *gorm.DB) error {
		return db.Delete(&model.ShipRoute{}, id).Error
	})
}

func (b *Backend) SaveSchedule(s schedule.Schedule) error {
	row := convert.ScheduleToShipSchedule(s)
	return b.enqueue(fmt.Sprintf("schedule %d", s.VesselID), func(db *gorm.DB) error {
		return upsert(db, row, "ship_id")
	})
}

func (b *Backend) DeleteSchedule(vesselID int) error {
	return b.enqueue(fmt.Sprintf("delete schedule %d", vesselID), func(db *gorm.DB) error {
		return db.Where("ship_id = ?", vesselID).Delete(&model.ShipSchedule{}).Error
	})
}

func (b *Backend) SaveVehicle(v *transport.Vehicle) error {
	row := convert.VehicleToVehicleData(v)
	return b.enqueue(fmt.Sprintf("vehicle %d", row.VehicleID), func(db *gorm.DB) error {
		return upsert(db, row, "vehicle_id")
	})
}
