package models

// Event is consumed read-only by this service: CreatedBy drives the
// validation gate's organizer check, the rest feeds listing snapshots.
type Event struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Address    string `json:"address"`
	CoverImage string `json:"background_image_url"`
	TargetDate string `json:"target_date"`
	CreatedBy  string `json:"created_by"`
}

// EventSnapshot is the embedded event payload on registration and ticket
// listings. Missing events degrade to PlaceholderSnapshot instead of failing
// the whole listing.
type EventSnapshot struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Address    string `json:"address"`
	CoverImage string `json:"background_image_url"`
	TargetDate string `json:"target_date"`
}

func (e *Event) Snapshot() EventSnapshot {
	return EventSnapshot{
		ID:         e.ID,
		Title:      e.Title,
		Date:       e.Date,
		Time:       e.Time,
		Address:    e.Address,
		CoverImage: e.CoverImage,
		TargetDate: e.TargetDate,
	}
}

// PlaceholderSnapshot stands in for an event that no longer resolves
// (deleted or dangling reference).
func PlaceholderSnapshot(eventID string) EventSnapshot {
	if eventID == "" {
		eventID = "unknown"
	}
	return EventSnapshot{
		ID:    eventID,
		Title: "Unknown Event (Deleted)",
		Date:  "N/A",
	}
}
