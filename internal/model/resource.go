package model

import "time"

// Resource statuses. The scheduler gates reservation creation on this
// flag alone: a resource that is "available" may still have booked
// slots, and an "occupied" or "maintenance" resource rejects all
// bookings even on an empty day.
const (
	ResourceAvailable   = "available"
	ResourceOccupied    = "occupied"
	ResourceMaintenance = "maintenance"
)

// Resource types.
const (
	ResourceRoom      = "room"
	ResourceEquipment = "equipment"
)

// Resource is a bookable room or piece of equipment as stored in the
// `resources` table. Capacity and location are optional and therefore
// nullable in the schema.
//
// Fields:
//  ID                 – primary key identifier.
//  Name               – human readable name.
//  Type               – "room" or "equipment".
//  Status             – availability flag ("available", "occupied", "maintenance").
//  Capacity           – usage capacity, nil when not applicable.
//  Location           – physical location, nil when unknown.
//  Description        – free text description, nil when empty.
//  MaintenanceStart   – start of a planned maintenance window (nullable).
//  MaintenanceEnd     – end of a planned maintenance window (nullable).
//  MaintenanceReason  – why the resource is under maintenance (nullable).
//  CreatedBy          – user that registered the resource.
//  CreatedAt          – timestamp of creation.
type Resource struct {
	ID                uint64     // resources.id
	Name              string     // resources.name
	Type              string     // resources.type
	Status            string     // resources.status
	Capacity          *uint32    // resources.capacity (nullable)
	Location          *string    // resources.location (nullable)
	Description       *string    // resources.description (nullable)
	MaintenanceStart  *time.Time // resources.maintenance_start (nullable)
	MaintenanceEnd    *time.Time // resources.maintenance_end (nullable)
	MaintenanceReason *string    // resources.maintenance_reason (nullable)
	CreatedBy         uint64     // resources.created_by
	CreatedAt         time.Time  // resources.created_at
}
