package output

import (
	"fmt"
	"math"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/bakkerme/rctbc-bins/internal/core"
	"github.com/bakkerme/rctbc-bins/internal/schedule"
)

func compileRule(rule string) (*vm.Program, error) {
	program, err := expr.Compile(rule, expr.Env(ruleEnv(core.AddressKey{}, core.EmptyReading(), time.Time{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile reminder rule: %w", err)
	}
	return program, nil
}

func evalRule(program *vm.Program, env map[string]interface{}) (bool, error) {
	result, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("reminder rule did not return bool")
	}
	return matched, nil
}

func ruleEnv(address core.AddressKey, reading core.CollectionReading, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"next_collection":  string(reading.NextCollection),
		"recycling":        reading.RecyclingLabel,
		"waste_type":       reading.WasteType,
		"waste_date":       reading.WasteDate,
		"calendar_colour":  reading.CalendarColour,
		"days_until_waste": daysUntil(reading.WasteDate, now),
		"address": map[string]interface{}{
			"number":   address.PropertyNumber,
			"postcode": address.Postcode,
		},
	}
}

// daysUntil counts calendar days from now to the waste date in now's location.
// Unparsable dates yield -1.
func daysUntil(wasteDate string, now time.Time) int {
	if wasteDate == "" || now.IsZero() {
		return -1
	}
	loc := now.Location()
	waste, err := time.ParseInLocation(schedule.DateLayout, wasteDate, loc)
	if err != nil {
		return -1
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return int(math.Round(waste.Sub(today).Hours() / 24))
}
