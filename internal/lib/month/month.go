// Package month содержит календарную арифметику для расчёта дат абонемента.
package month

import "time"

// AddMonths прибавляет n календарных месяцев к t. Если в целевом месяце нет такого дня,
// берётся последний день месяца: 31 января + 1 месяц = 28 (29) февраля.
func AddMonths(t time.Time, n int) time.Time {
	year, mon, day := t.Date()
	first := time.Date(year, mon+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := DaysIn(first); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

// DaysIn возвращает количество дней в месяце, к которому относится t.
func DaysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// Day отбрасывает время суток, оставляя полночь того же дня в часовом поясе t.
func Day(t time.Time) time.Time {
	year, mon, day := t.Date()
	return time.Date(year, mon, day, 0, 0, 0, 0, t.Location())
}

// Before сообщает, предшествует ли месяц (year1, month1) месяцу (year2, month2).
func Before(year1, month1, year2, month2 int) bool {
	if year1 != year2 {
		return year1 < year2
	}
	return month1 < month2
}

// Next возвращает дату через один месяц после current, считая от исходного дня anchor.
// Для anchor 31 января последовательность такая: 29 февраля, 31 марта, 30 апреля. Привязка к anchor
// не даёт дню списания сползать после коротких месяцев.
func Next(anchor, current time.Time) time.Time {
	n := (current.Year()-anchor.Year())*12 + int(current.Month()-anchor.Month()) + 1
	return AddMonths(anchor, n)
}
