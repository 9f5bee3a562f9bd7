package table

import (
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// dateStyles remembers, per workbook style id, whether the style's number
// format renders a date.
type dateStyles struct {
	f    *excelize.File
	byID map[int]bool
}

func newDateStyles(f *excelize.File) *dateStyles {
	return &dateStyles{f: f, byID: make(map[int]bool)}
}

func (d *dateStyles) isDate(sheet, cell string) bool {
	id, err := d.f.GetCellStyle(sheet, cell)
	if err != nil || id == 0 {
		return false
	}
	if v, ok := d.byID[id]; ok {
		return v
	}
	style, err := d.f.GetStyle(id)
	v := err == nil && style != nil && isDateFormat(style)
	d.byID[id] = v
	return v
}

func isDateFormat(s *excelize.Style) bool {
	if s.CustomNumFmt != nil {
		return isDateCode(*s.CustomNumFmt)
	}
	switch {
	case s.NumFmt >= 14 && s.NumFmt <= 17, s.NumFmt == 22:
		return true
	case s.NumFmt >= 27 && s.NumFmt <= 36, s.NumFmt >= 50 && s.NumFmt <= 58:
		// East Asian locale dates
		return true
	}
	return false
}

// isDateCode reports whether a custom format code has day, month or year
// tokens once quoted literals, escapes and [..] sections are dropped. A bare
// "m" next to hours or seconds means minutes.
func isDateCode(code string) bool {
	var b strings.Builder
	var quoted, bracketed, escaped bool
	for _, r := range strings.ToLower(code) {
		switch {
		case escaped:
			escaped = false
		case quoted:
			quoted = r != '"'
		case bracketed:
			bracketed = r != ']'
		case r == '\\':
			escaped = true
		case r == '"':
			quoted = true
		case r == '[':
			bracketed = true
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()
	if strings.ContainsAny(s, "yd") {
		return true
	}
	return strings.Contains(s, "m") && !strings.ContainsAny(s, "hs")
}

func isoDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
