// Package card проверяет и маскирует данные банковских карт.
package card

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/gym-membership/internal/lib/month"
)

// Normalize убирает пробелы и дефисы из номера карты.
func Normalize(number string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, number)
}

// Valid проверяет длину номера (12–19 цифр) и контрольную сумму Луна.
func Valid(number string) bool {
	number = Normalize(number)
	if len(number) < 12 || len(number) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Mask оставляет видимыми только последние четыре цифры: "**** **** **** 1234".
func Mask(number string) string {
	number = Normalize(number)
	if len(number) <= 4 {
		return number
	}
	return "**** **** **** " + number[len(number)-4:]
}

// ParseExpiration разбирает срок действия в формате MM/YY и возвращает месяц и год из четырёх цифр.
func ParseExpiration(s string) (int, int, error) {
	mm, yy, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || len(mm) != 2 || len(yy) != 2 {
		return 0, 0, fmt.Errorf("expiration %q: want MM/YY", s)
	}
	mon, err := strconv.Atoi(mm)
	if err != nil || mon < 1 || mon > 12 {
		return 0, 0, fmt.Errorf("expiration %q: bad month", s)
	}
	year, err := strconv.Atoi(yy)
	if err != nil {
		return 0, 0, fmt.Errorf("expiration %q: bad year", s)
	}
	return mon, 2000 + year, nil
}

// Expired сообщает, истёк ли срок карты к моменту now. Карта действует до конца
// указанного месяца, поэтому истёкшей считается, только если её месяц строго раньше текущего.
func Expired(expMonth, expYear int, now time.Time) bool {
	return month.Before(expYear, expMonth, now.Year(), int(now.Month()))
}
