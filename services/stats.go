package services

import (
	"context"
	"encoding/json"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"club-system/models"
	"club-system/monitoring"
)

// RosterStats feeds the roster occupancy gauges. It scans the raw events
// table directly instead of going through the cache so the metrics always
// reflect committed state.
type RosterStats struct {
	app core.App
}

func NewRosterStats(app core.App) *RosterStats {
	return &RosterStats{app: app}
}

func (s *RosterStats) RosterSnapshots(ctx context.Context) ([]monitoring.RosterSnapshot, error) {
	var rows []dbx.NullStringMap
	err := s.app.DB().
		NewQuery("SELECT id, type, applicants, waiting, restaurants FROM events WHERE status = {:status}").
		Bind(dbx.Params{"status": string(models.EventOpen)}).
		All(&rows)
	if err != nil {
		return nil, err
	}

	var snapshots []monitoring.RosterSnapshot
	for _, row := range rows {
		eventID := row["id"].String
		if models.EventType(row["type"].String) == models.EventTasting {
			var docs []venueDoc
			if raw := row["restaurants"].String; raw != "" {
				if err := json.Unmarshal([]byte(raw), &docs); err != nil {
					continue
				}
			}
			for _, d := range docs {
				snapshots = append(snapshots, monitoring.RosterSnapshot{
					EventID:   eventID,
					VenueID:   d.ID,
					Confirmed: len(d.Reservations),
					Waiting:   len(d.Waiting),
				})
			}
			continue
		}

		snapshot := monitoring.RosterSnapshot{EventID: eventID}
		var confirmed, waiting []models.Participant
		if raw := row["applicants"].String; raw != "" {
			if err := json.Unmarshal([]byte(raw), &confirmed); err != nil {
				continue
			}
		}
		if raw := row["waiting"].String; raw != "" {
			if err := json.Unmarshal([]byte(raw), &waiting); err != nil {
				continue
			}
		}
		snapshot.Confirmed = len(confirmed)
		snapshot.Waiting = len(waiting)
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}
