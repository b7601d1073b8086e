package attendance

// Summarize partitions rows by status and derives the capacity figures.
func Summarize(occurrenceID string, capacity int, rows []Attendance) Summary {
	s := Summary{
		OccurrenceID: occurrenceID,
		Capacity:     capacity,
		Confirmed:    []Attendance{},
		Declined:     []Attendance{},
		Maybe:        []Attendance{},
		Waitlist:     []Attendance{},
	}
	for _, r := range rows {
		switch r.Status {
		case StatusConfirmed:
			s.Confirmed = append(s.Confirmed, r)
		case StatusDeclined:
			s.Declined = append(s.Declined, r)
		case StatusMaybe:
			s.Maybe = append(s.Maybe, r)
		case StatusWaitlist:
			s.Waitlist = append(s.Waitlist, r)
		}
	}
	s.ConfirmedCount = len(s.Confirmed)
	s.DeclinedCount = len(s.Declined)
	s.MaybeCount = len(s.Maybe)
	s.WaitlistCount = len(s.Waitlist)
	s.IsFull = s.ConfirmedCount >= capacity
	s.SpotsAvailable = max(0, capacity-s.ConfirmedCount)
	return s
}
