package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateParts is a date as written on the form, one box per component.
type DateParts struct {
	Day   string `json:"day"`
	Month string `json:"month"`
	Year  string `json:"year"`
}

// DatePartsFrom reads day, month and year from a composite field.
// ok is false when any of the three keys is absent.
func DatePartsFrom(components map[string]string) (parts DateParts, ok bool) {
	day, hasDay := components["day"]
	month, hasMonth := components["month"]
	year, hasYear := components["year"]
	if !hasDay || !hasMonth || !hasYear {
		return DateParts{}, false
	}
	return DateParts{Day: day, Month: month, Year: year}, true
}

func (d DateParts) trimmed() DateParts {
	return DateParts{
		Day:   strings.TrimSpace(d.Day),
		Month: strings.TrimSpace(d.Month),
		Year:  strings.TrimSpace(d.Year),
	}
}

// Complete reports whether all three components are filled.
func (d DateParts) Complete() bool {
	t := d.trimmed()
	return t.Day != "" && t.Month != "" && t.Year != ""
}

// Empty reports whether all three components are blank.
func (d DateParts) Empty() bool {
	t := d.trimmed()
	return t.Day == "" && t.Month == "" && t.Year == ""
}

// ValidateDate checks that a complete date names a real calendar day. An
// incomplete date is accepted. On failure the reason starts with
// "Invalid date format: ".
func ValidateDate(parts DateParts) (bool, string) {
	if !parts.Complete() {
		return true, ""
	}
	if _, err := parts.Time(); err != nil {
		return false, "Invalid date format: " + err.Error()
	}
	return true, ""
}

// Time builds the calendar date in UTC. Unlike time.Date it never normalizes:
// 31 February is an error, not 2 March.
func (d DateParts) Time() (time.Time, error) {
	t := d.trimmed()

	day, err := strconv.Atoi(t.Day)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid literal for day: %q", t.Day)
	}
	month, err := strconv.Atoi(t.Month)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid literal for month: %q", t.Month)
	}
	year, err := strconv.Atoi(t.Year)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid literal for year: %q", t.Year)
	}

	if year < 1 || year > 9999 {
		return time.Time{}, fmt.Errorf("year %d is out of range", year)
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be in 1..12, got %d", month)
	}
	if last := daysIn(time.Month(month), year); day < 1 || day > last {
		return time.Time{}, fmt.Errorf("day %d is out of range for %s %d", day, time.Month(month), year)
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateRole is the semantic role of a date field on the claim form.
type DateRole string

const (
	RoleOther   DateRole = ""
	RoleInjury  DateRole = "injury"
	RoleReceipt DateRole = "receipt"
	RoleFilling DateRole = "filling"
)

// DateRoleOf derives the role from the field name.
func DateRoleOf(field string) DateRole {
	lower := strings.ToLower(field)
	switch {
	case strings.Contains(lower, "injury"):
		return RoleInjury
	case strings.Contains(lower, "receipt"):
		return RoleReceipt
	case strings.Contains(lower, "filling"):
		return RoleFilling
	default:
		return RoleOther
	}
}

// mustBePast reports whether a future date in this role is a logic error.
func (r DateRole) mustBePast() bool {
	return r != RoleOther
}

// isDateGroup reports whether a composite field is a calendar date.
func isDateGroup(path FieldPath, components map[string]string) bool {
	if !strings.Contains(strings.ToLower(path.Leaf()), "date") {
		return false
	}
	_, ok := DatePartsFrom(components)
	return ok
}

// datedField is a date observed during one validation pass.
type datedField struct {
	Field string
	Date  time.Time
}

// dateLedger collects dates by role for the cross-field checks that run once
// every field has been visited.
type dateLedger map[DateRole][]datedField

func (l dateLedger) record(role DateRole, field string, date time.Time) {
	if role == RoleOther {
		return
	}
	l[role] = append(l[role], datedField{Field: field, Date: date})
}

// checkDateCoherence applies the semantic rules to one date group and records
// valid dates in the pass ledger.
func (p *pass) checkDateCoherence(field string, parts DateParts) {
	if parts.Empty() {
		return
	}
	t := parts.trimmed()
	if !parts.Complete() {
		p.add(Finding{
			Field:    field,
			Kind:     KindImplausibleDate,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Date %s is only partially filled", field),
			Value:    formatParts(t),
		})
		return
	}
	if !isAllDigits(t.Day) || !isAllDigits(t.Month) || !isAllDigits(t.Year) {
		p.add(Finding{
			Field:    field,
			Kind:     KindImplausibleDate,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Date components for %s contain non-digit characters", field),
			Value:    formatParts(t),
		})
		return
	}

	day, _ := strconv.Atoi(t.Day)
	month, _ := strconv.Atoi(t.Month)
	year, _ := strconv.Atoi(t.Year)

	if day < 1 || day > 31 {
		p.add(Finding{
			Field:    field,
			Kind:     KindInvalidDate,
			Severity: SeverityError,
			Message:  fmt.Sprintf("Invalid day value for %s: %d (should be 1-31)", field, day),
			Value:    t.Day,
		})
	}
	if month < 1 || month > 12 {
		p.add(Finding{
			Field:    field,
			Kind:     KindInvalidDate,
			Severity: SeverityError,
			Message:  fmt.Sprintf("Invalid month value for %s: %d (should be 1-12)", field, month),
			Value:    t.Month,
		})
	}

	now := p.now
	if year < 1900 || year > now.Year() {
		p.add(Finding{
			Field:    field,
			Kind:     KindImplausibleDate,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Unusual year value for %s: %d (outside range 1900-%d)", field, year, now.Year()),
			Value:    t.Year,
		})
	}

	if valid, reason := ValidateDate(parts); !valid {
		p.add(Finding{
			Field:    field,
			Kind:     KindInvalidDate,
			Severity: SeverityError,
			Message:  fmt.Sprintf("%s: %s", field, reason),
			Value:    formatParts(t),
		})
		return
	}
	date, err := parts.Time()
	if err != nil {
		return
	}
	p.log.Debug().Str("field", field).Str("date", date.Format("02/01/2006")).Msg("Date is valid")

	role := DateRoleOf(field)
	if date.After(now) {
		if role.mustBePast() {
			p.add(Finding{
				Field:    field,
				Kind:     KindFutureDate,
				Severity: SeverityError,
				Message:  fmt.Sprintf("%s is a future date (%s), which is impossible for a %s date", field, date.Format("02/01/2006"), role),
				Value:    formatParts(t),
			})
		} else {
			p.add(Finding{
				Field:    field,
				Kind:     KindFutureDate,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("Future date for %s: %s", field, date.Format("02/01/2006")),
				Value:    formatParts(t),
			})
		}
	}

	p.dates.record(role, field, date)
}

// checkDateOrder flags every filling date that precedes an injury date. It
// runs after all fields so the outcome does not depend on field order.
func (p *pass) checkDateOrder() {
	for _, filling := range p.dates[RoleFilling] {
		for _, injury := range p.dates[RoleInjury] {
			if !filling.Date.Before(injury.Date) {
				continue
			}
			p.add(Finding{
				Field:    filling.Field,
				Kind:     KindDateOrder,
				Severity: SeverityError,
				Message: fmt.Sprintf("Form filling date (%s) is before injury date (%s in %s)",
					filling.Date.Format("02/01/2006"), injury.Date.Format("02/01/2006"), injury.Field),
			})
		}
	}
}

func formatParts(d DateParts) string {
	return d.Day + "/" + d.Month + "/" + d.Year
}
