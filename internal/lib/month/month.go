// Package month считает календарные границы периода подписки.
package month

import "time"

// Next возвращает момент через один календарный месяц после start.
// Если в следующем месяце нет такого дня, берется его последний день: 31 января -> 28 (29) февраля.
func Next(start time.Time) time.Time {
	return Add(start, 1)
}

// Add сдвигает start на n календарных месяцев с тем же ограничением по последнему дню месяца.
func Add(start time.Time, n int) time.Time {
	y, m, d := start.Date()
	firstOfTarget := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, start.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	hh, mm, ss := start.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, hh, mm, ss, start.Nanosecond(), start.Location())
}
