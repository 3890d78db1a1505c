package model

import "time"

// Project is a research project tracked alongside resource bookings.
// Budget and the date fields are nullable in the schema since many
// projects are registered before their funding or timeline is final.
type Project struct {
	ID          uint64     // projects.id
	Name        string     // projects.name
	Description *string    // projects.description (nullable)
	Status      string     // projects.status (e.g. "planning", "active", "finished")
	StartDate   *time.Time // projects.start_date (nullable)
	EndDate     *time.Time // projects.end_date (nullable)
	Budget      *float64   // projects.budget (nullable)
	Leader      *string    // projects.leader (nullable)
	Progress    uint8      // projects.progress, 0-100
	CreatedBy   uint64     // projects.created_by
	CreatedAt   time.Time  // projects.created_at
}
