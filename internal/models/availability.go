package models

// ResolvedSlot is the resolver output for one slot occurrence. It is computed,
// never persisted. Sold-out and past-cutoff slots are still present so callers
// can render them; filter on Available for bookable slots only.
type ResolvedSlot struct {
	ScheduleID     string   `json:"schedule_id"`
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
	CapacityTotal  int      `json:"capacity_total"`
	CapacityBooked int      `json:"capacity_booked"`
	CapacityLeft   int      `json:"capacity_left"`
	AdultPrice     float64  `json:"adult_price"`
	ChildPrice     float64  `json:"child_price"`
	Language       string   `json:"language"`
	MeetingPointID *int64   `json:"meeting_point_id,omitempty"`
	Available      bool     `json:"available"`
	CutoffPassed   bool     `json:"cutoff_passed"`
}

// DayAvailability is the cacheable unit: all resolved slots for one product on
// one calendar date, ordered by start time.
type DayAvailability struct {
	ProductID int64          `json:"product_id"`
	Date      string         `json:"date"`
	Slots     []ResolvedSlot `json:"slots"`
}

// HasBookableSlot reports whether any slot is currently bookable.
func (d *DayAvailability) HasBookableSlot() bool {
	for _, slot := range d.Slots {
		if slot.Available {
			return true
		}
	}
	return false
}
