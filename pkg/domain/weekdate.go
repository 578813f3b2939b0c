package domain

import "time"

// WeekStart returns the Monday 00:00 UTC of ISO week (anio, semana). It is
// the anchor every planned/real datetime reconstruction in the execution
// recorder and KPI calculator is built from.
func WeekStart(anio, semana int) time.Time {
	// Jan 4th always falls in ISO week 1.
	jan4 := time.Date(anio, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Go's Sunday == 0; ISO treats Sunday as day 7.
	}
	week1Monday := jan4.AddDate(0, 0, -(weekday - 1))
	return week1Monday.AddDate(0, 0, (semana-1)*7)
}

// PlannedDateTime reconstructs the absolute datetime a (dia_semana, HH:MM)
// calendar coordinate refers to within the given programación week:
// datetime forms of planned times are reconstructed from
// (anio, semana, dia_semana, HH:MM).
func PlannedDateTime(anio, semana, diaSemana int, hhmm string) (time.Time, error) {
	minutes, err := ParseClock(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	day := WeekStart(anio, semana).AddDate(0, 0, diaSemana)
	return day.Add(time.Duration(minutes) * time.Minute), nil
}
