package model

import (
	"time"

	"gorm.io/datatypes"
)

// DatabaseModels lists every table the vessel engine owns, in migration order.
var DatabaseModels = []interface{}{
	&ShipInterior{},
	&ShipDocking{},
	&ShipCargo{},
	&ShipCrew{},
	&ShipWaypoint{},
	&ShipRoute{},
	&ShipRouteWaypoint{},
	&ShipSchedule{},
	&VehicleData{},
}

////////////////////////
// SHIP MODELS
////////////////////////

// ShipInterior is the generated room graph of one vessel.
type ShipInterior struct {
	ID           uint           `json:"id" gorm:"primarykey"`
	ShipID       int            `json:"shipId" gorm:"uniqueIndex:idx_ship_interiors_ship_id"`
	VesselType   string         `json:"vesselType" gorm:"size:32"`
	VesselName   string         `json:"vesselName" gorm:"size:64"`
	NumRooms     int            `json:"numRooms"`
	RoomVnums    datatypes.JSON `json:"roomVnums"`
	BridgeRoom   int            `json:"bridgeRoom"`
	EntranceRoom int            `json:"entranceRoom"`
	CargoRoom1   int            `json:"cargoRoom1"`
	CargoRoom2   int            `json:"cargoRoom2"`
	CargoRoom3   int            `json:"cargoRoom3"`
	CargoRoom4   int            `json:"cargoRoom4"`
	CargoRoom5   int            `json:"cargoRoom5"`
	RoomData     datatypes.JSON `json:"roomData"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (*ShipInterior) TableName() string {
	return "ship_interiors"
}

// RoomData is the JSON payload of ShipInterior.RoomData.
type RoomData struct {
	Rooms       []RoomRecord       `json:"rooms"`
	Connections []ConnectionRecord `json:"connections"`
	Quarters    []int              `json:"quarters,omitempty"`
}

type RoomRecord struct {
	Vnum           int    `json:"vnum"`
	Type           int    `json:"type"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	VehicleCapable bool   `json:"vehicleCapable,omitempty"`
	Indoor         bool   `json:"indoor,omitempty"`
	Sector         int    `json:"sector"`
}

// ConnectionRecord links two rooms of the same ship by index.
type ConnectionRecord struct {
	From   int  `json:"from"`
	To     int  `json:"to"`
	Dir    int  `json:"dir"`
	Hatch  bool `json:"hatch,omitempty"`
	Locked bool `json:"locked,omitempty"`
}

// ShipDocking is one docking session between two vessels.
type ShipDocking struct {
	ID         uint       `json:"id" gorm:"primarykey"`
	Ref        string     `json:"ref" gorm:"size:36;uniqueIndex:idx_ship_docking_ref"`
	Ship1ID    int        `json:"ship1Id" gorm:"index:idx_ship_docking_ships"`
	Ship2ID    int        `json:"ship2Id" gorm:"index:idx_ship_docking_ships"`
	DockRoom1  int        `json:"dockRoom1"`
	DockRoom2  int        `json:"dockRoom2"`
	DockType   string     `json:"dockType" gorm:"size:16"`
	DockStatus string     `json:"dockStatus" gorm:"size:16;index:idx_ship_docking_status"`
	DockX      float64    `json:"dockX"`
	DockY      float64    `json:"dockY"`
	DockZ      float64    `json:"dockZ"`
	DockTime   time.Time  `json:"dockTime"`
	UndockTime *time.Time `json:"undockTime"`
}

func (*ShipDocking) TableName() string {
	return "ship_docking"
}

// ShipCargo is a line of a vessel's cargo manifest.
type ShipCargo struct {
	ID         uint   `json:"id" gorm:"primarykey"`
	ShipID     int    `json:"shipId" gorm:"index:idx_ship_cargo_ship_id"`
	CargoRoom  int    `json:"cargoRoom"`
	ItemID     int    `json:"itemId"`
	ItemName   string `json:"itemName" gorm:"size:128"`
	ItemCount  int    `json:"itemCount"`
	ItemWeight int    `json:"itemWeight"`
}

func (*ShipCargo) TableName() string {
	return "ship_cargo_manifest"
}

// ShipCrew is an NPC assigned aboard a vessel.
type ShipCrew struct {
	ID           uint   `json:"id" gorm:"primarykey"`
	ShipID       int    `json:"shipId" gorm:"index:idx_ship_crew_ship_id"`
	NpcID        int    `json:"npcId"`
	NpcName      string `json:"npcName" gorm:"size:64"`
	CrewRole     string `json:"crewRole" gorm:"size:32"`
	AssignedRoom int    `json:"assignedRoom"`
	Status       string `json:"status" gorm:"size:32"`
}

func (*ShipCrew) TableName() string {
	return "ship_crew_roster"
}

////////////////////////
// NAVIGATION MODELS
////////////////////////

// ShipWaypoint is a named navigation point. IDs are assigned by the navigator.
type ShipWaypoint struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name      string    `json:"name" gorm:"size:64"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Z         float64   `json:"z"`
	Tolerance float64   `json:"tolerance"`
	WaitTime  int       `json:"waitTime"`
	Flags     int       `json:"flags"`
	CreatedAt time.Time `json:"createdAt"`
}

func (*ShipWaypoint) TableName() string {
	return "ship_waypoints"
}

// ShipRoute is a named, ordered list of waypoints. The order lives in
// ShipRouteWaypoint.
type ShipRoute struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ShipID    int       `json:"shipId" gorm:"index:idx_ship_routes_ship_id"`
	Name      string    `json:"name" gorm:"size:64"`
	Loop      bool      `json:"loop"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

func (*ShipRoute) TableName() string {
	return "ship_routes"
}

type ShipRouteWaypoint struct {
	ID          uint `json:"id" gorm:"primarykey"`
	RouteID     int  `json:"routeId" gorm:"index:idx_ship_route_waypoints_route_id"`
	WaypointID  int  `json:"waypointId"`
	SequenceNum int  `json:"sequenceNum"`
}

func (*ShipRouteWaypoint) TableName() string {
	return "ship_route_waypoints"
}

// ShipSchedule is a vessel's recurring departure.
type ShipSchedule struct {
	ID            int  `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ShipID        int  `json:"shipId" gorm:"uniqueIndex:idx_ship_schedules_ship_id"`
	RouteID       int  `json:"routeId"`
	IntervalHours int  `json:"intervalHours"`
	NextDeparture int  `json:"nextDeparture"`
	Enabled       bool `json:"enabled"`
	Paused        bool `json:"paused"`
}

func (*ShipSchedule) TableName() string {
	return "ship_schedules"
}

////////////////////////
// VEHICLE MODELS
////////////////////////

// VehicleData is the saved state of a land vehicle.
type VehicleData struct {
	VehicleID     int     `json:"vehicleId" gorm:"primaryKey;autoIncrement:false"`
	VehicleType   int     `json:"vehicleType"`
	VehicleState  int     `json:"vehicleState"`
	Name          string  `json:"name" gorm:"size:64"`
	Room          int     `json:"room"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Z             float64 `json:"z"`
	Direction     int     `json:"direction"`
	MaxPassengers int     `json:"maxPassengers"`
	Passengers    int     `json:"passengers"`
	MaxWeight     int     `json:"maxWeight"`
	Weight        int     `json:"weight"`
	BaseSpeed     int     `json:"baseSpeed"`
	Speed         int     `json:"speed"`
	Terrain       int     `json:"terrain"`
	Condition     int     `json:"condition"`
	MaxCondition  int     `json:"maxCondition"`
	Owner         string  `json:"owner" gorm:"size:64"`
	ParentVessel  int     `json:"parentVessel" gorm:"index:idx_vehicle_data_parent_vessel"`
}

func (*VehicleData) TableName() string {
	return "vehicle_data"
}
