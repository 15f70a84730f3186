package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/hoangvu1204/consult_care/services"
)

// ExpireStalePendingAppointments cancels pendings whose payment never
// arrived, releasing their slots. It goes through BookingService.Cancel
// so the same guarded transitions apply; a pending that a callback
// confirms mid-run is simply skipped.
func ExpireStalePendingAppointments(booking *services.BookingService, appts services.AppointmentStore, maxAge time.Duration) {
	log.Println("Running job: ExpireStalePendingAppointments...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stale, err := appts.ListStalePending(ctx, time.Now().Add(-maxAge))
	if err != nil {
		log.Printf("Error listing stale pending appointments: %v", err)
		return
	}
	if len(stale) == 0 {
		log.Println("No stale pending appointments found.")
		return
	}

	expired := 0
	for _, appt := range stale {
		if err := booking.Cancel(ctx, appt.ID); err != nil {
			if errors.Is(err, services.ErrInvalidState) || errors.Is(err, services.ErrAppointmentNotFound) {
				continue
			}
			log.Printf("Error expiring appointment %s: %v", appt.ID, err)
			continue
		}
		expired++
	}

	log.Printf("Expired %d stale pending appointment(s).", expired)
}
