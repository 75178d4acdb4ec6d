// Package settlement содержит вычисление границ расчётной недели и
// агрегацию завершённых заказов в расчётные записи.
package settlement

import "time"

// Window возвращает границы текущей расчётной недели для указанного момента:
// ближайшая прошедшая суббота 00:00 включительно — следующая суббота 00:00
// исключительно. Граница считается в переданной фиксированной зоне и не
// зависит от локальной зоны процесса.
func Window(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)

	offset := (int(local.Weekday()) - int(time.Saturday) + 7) % 7
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).
		AddDate(0, 0, -offset)

	return start, start.AddDate(0, 0, 7)
}

// PeriodKey возвращает уникальный ключ периода — ISO год и номер недели
// субботы, открывающей окно.
func PeriodKey(start time.Time) (int, int) {
	return start.ISOWeek()
}
