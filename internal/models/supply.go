package models

import "time"

type ScheduleStatus string

const (
	ScheduleStatusPlanned    ScheduleStatus = "planned"
	ScheduleStatusInProgress ScheduleStatus = "in_progress"
	ScheduleStatusDelayed    ScheduleStatus = "delayed"
	ScheduleStatusCompleted  ScheduleStatus = "completed"
)

type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "low"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"
)

// Equipment is a tracked piece of supply-chain equipment.
type Equipment struct {
	ID                   string `json:"id" db:"id"`
	Name                 string `json:"name" db:"name"`
	Category             string `json:"category" db:"category"`
	Manufacturer         string `json:"manufacturer" db:"manufacturer"`
	ManufacturingCountry string `json:"manufacturingCountry" db:"manufacturing_country"`
	DestinationCountry   string `json:"destinationCountry" db:"destination_country"`
}

// Schedule is a delivery schedule for one piece of equipment.
type Schedule struct {
	ID               string         `json:"id" db:"id"`
	EquipmentID      string         `json:"equipmentId" db:"equipment_id"`
	Status           ScheduleStatus `json:"status" db:"status"`
	PlannedStartDate time.Time      `json:"plannedStartDate" db:"planned_start_date"`
	PlannedEndDate   time.Time      `json:"plannedEndDate" db:"planned_end_date"`
	DelayDays        int            `json:"delayDays" db:"delay_days"`
	Priority         string         `json:"priority,omitempty" db:"priority"`
}

// IsDelayed reports whether the schedule carries a recorded delay.
func (s *Schedule) IsDelayed() bool {
	return s.Status == ScheduleStatusDelayed || s.DelayDays > 0
}

// IsOverdue reports whether the planned end date has passed without completion.
func (s *Schedule) IsOverdue(now time.Time) bool {
	return s.Status != ScheduleStatusCompleted && now.After(s.PlannedEndDate)
}

// NewsEvent is an external event relevant to supply-chain risk.
type NewsEvent struct {
	ID            string      `json:"id" db:"id"`
	Title         string      `json:"title" db:"title"`
	Content       string      `json:"content" db:"content"`
	Source        string      `json:"source" db:"source"`
	Country       string      `json:"country" db:"country"`
	Category      string      `json:"category" db:"category"`
	ImpactLevel   ImpactLevel `json:"impactLevel" db:"impact_level"`
	PublishedDate time.Time   `json:"publishedDate" db:"published_date"`
}
