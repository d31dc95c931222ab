// Package format renders values the way the dashboard shows them: English
// number grouping for measurements, German dates, months and currency.
package format

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	en = message.NewPrinter(language.AmericanEnglish)
	de = message.NewPrinter(language.German)
)

var months = [...]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// Weekdays lists the gateway's weekday keys, Monday first.
var Weekdays = []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

var weekdayLabels = map[string]string{
	"MONDAY":    "Mo",
	"TUESDAY":   "Di",
	"WEDNESDAY": "Mi",
	"THURSDAY":  "Do",
	"FRIDAY":    "Fr",
	"SATURDAY":  "Sa",
	"SUNDAY":    "So",
}

// Duration renders d as "1h 5m". Seconds are truncated.
func Duration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Minute)
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}

// Minutes renders a minute count as Duration does.
func Minutes(m int) string {
	return Duration(time.Duration(m) * time.Minute)
}

// Number renders v with grouping and exactly decimals fraction digits, "1,234.5".
func Number(v float64, decimals int) string {
	return en.Sprint(number.Decimal(v, number.MinFractionDigits(decimals), number.MaxFractionDigits(decimals)))
}

// Distance renders kilometres with one decimal; nil renders as "-".
func Distance(km *float64) string {
	if km == nil {
		return "-"
	}
	return Number(*km, 1) + " km"
}

// Currency renders v as a German euro amount, "1.234,50 €".
func Currency(v float64) string {
	return de.Sprint(number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2))) + " €"
}

// Date renders t as dd.mm.yyyy.
func Date(t time.Time) string {
	return t.Format("02.01.2006")
}

// DateTime renders t as "dd.mm.yyyy hh:mm".
func DateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// Clock renders the time of day, "07:45".
func Clock(t time.Time) string {
	return t.Format("15:04")
}

// Month renders the German month header, "März 2024".
func Month(year int, month time.Month) string {
	if month < time.January || month > time.December {
		return fmt.Sprintf("%d-%02d", year, int(month))
	}
	return fmt.Sprintf("%s %d", months[month-1], year)
}

// Weekday abbreviates a gateway weekday key in German. Unknown keys are returned as is.
func Weekday(key string) string {
	if l, ok := weekdayLabels[strings.ToUpper(key)]; ok {
		return l
	}
	return key
}
