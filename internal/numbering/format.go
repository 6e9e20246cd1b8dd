package numbering

import (
	"fmt"
	"strconv"
	"strings"

	"ddt-backend/internal/models"
)

// Placeholders accepted in custom templates. Italian names first, English aliases second.
var (
	yearPlaceholders   = []string{"{anno}", "{year}"}
	monthPlaceholders  = []string{"{mese}", "{month}"}
	numberPlaceholders = []string{"{numero}", "{number}"}
)

// Prefix is the period part of a number: "" for plain sequences, "2024" for
// year-prefixed, "0324" (month + 2-digit year) for month-year, "24" for short
// year. Custom templates have no prefix of their own.
func Prefix(kind models.NumberingKind, year, month int) string {
	switch kind {
	case models.NumberingYear:
		return strconv.Itoa(year)
	case models.NumberingMonthYear:
		return fmt.Sprintf("%02d%s", month, shortYear(year))
	case models.NumberingShortYear:
		return shortYear(year)
	default:
		return ""
	}
}

func shortYear(year int) string {
	s := strconv.Itoa(year)
	if len(s) <= 2 {
		return s
	}
	return s[len(s)-2:]
}

func pad(n, width int) string {
	if width < 1 {
		return strconv.Itoa(n)
	}
	return fmt.Sprintf("%0*d", width, n)
}

// layout describes how a number is assembled for one format and period:
// head + padded sequence + tail. Lookups scan numbers starting with head.
type layout struct {
	head      string
	tail      string
	templated bool
}

func layoutFor(f models.NumberingFormat, year, month int) layout {
	if f.Kind == models.NumberingCustom && f.CustomTemplate != "" {
		head, tail, ok := splitTemplate(f.CustomTemplate)
		if ok {
			return layout{
				head:      substitute(head, year, month),
				tail:      substitute(tail, year, month),
				templated: true,
			}
		}
		// no sequence placeholder: keep numbers unique by joining one
		return layout{head: substitute(f.CustomTemplate, year, month) + "-"}
	}
	return layout{head: Prefix(f.Kind, year, month) + "-"}
}

func (l layout) build(seq string) string {
	return l.head + seq + l.tail
}

// sequence extracts the numeric sequence of an existing number. Templates
// strip their literal head and tail, every other kind takes the text after
// the last "-".
func (l layout) sequence(number string) (int, bool) {
	var raw string
	if l.templated {
		if !strings.HasPrefix(number, l.head) || !strings.HasSuffix(number, l.tail) ||
			len(number) < len(l.head)+len(l.tail) {
			return 0, false
		}
		raw = number[len(l.head) : len(number)-len(l.tail)]
	} else {
		idx := strings.LastIndex(number, "-")
		if idx < 0 {
			return 0, false
		}
		raw = number[idx+1:]
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// splitTemplate splits a template around its first number placeholder.
func splitTemplate(tpl string) (head, tail string, ok bool) {
	idx, size := -1, 0
	for _, ph := range numberPlaceholders {
		if i := strings.Index(tpl, ph); i >= 0 && (idx < 0 || i < idx) {
			idx, size = i, len(ph)
		}
	}
	if idx < 0 {
		return "", "", false
	}
	return tpl[:idx], tpl[idx+size:], true
}

func substitute(s string, year, month int) string {
	for _, ph := range yearPlaceholders {
		s = strings.ReplaceAll(s, ph, strconv.Itoa(year))
	}
	for _, ph := range monthPlaceholders {
		s = strings.ReplaceAll(s, ph, strconv.Itoa(month))
	}
	return s
}

// ValidateFormat checks a format before it is stored.
func ValidateFormat(f models.NumberingFormat) error {
	if !f.Kind.Valid() {
		return fmt.Errorf("formato di numerazione non valido: %q", f.Kind)
	}
	if f.InitialValue < 0 {
		return fmt.Errorf("il numero iniziale non può essere negativo")
	}
	if f.Width < 1 || f.Width > 12 {
		return fmt.Errorf("la lunghezza del numero deve essere tra 1 e 12")
	}
	if f.Kind == models.NumberingCustom {
		if strings.TrimSpace(f.CustomTemplate) == "" {
			return fmt.Errorf("il formato personalizzato richiede un modello")
		}
		if _, _, ok := splitTemplate(f.CustomTemplate); !ok {
			return fmt.Errorf("il modello deve contenere {numero}")
		}
	}
	return nil
}
