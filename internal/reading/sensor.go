package reading

import "github.com/bakkerme/rctbc-bins/internal/core"

const (
	Attribution = "Data provided by Rhondda Cynon Taf Borough Council"
	Icon        = "mdi:delete-empty"

	AttrNumber         = "House Number"
	AttrPostcode       = "Post Code"
	AttrRecycling      = "Weekly Recycling"
	AttrWaste          = "Fortnightly Waste Bin"
	AttrCalendarColour = "Calendar Colour"
	AttrWasteDate      = "Next Waste Bin Collection"
	AttrNextCollection = "Next Collection"
	AttrAttribution    = "attribution"
)

// Sensor is the presentation view handed to whatever displays the reading.
type Sensor struct {
	Name       string            `json:"name"`
	Icon       string            `json:"icon"`
	State      string            `json:"state"`
	Attributes map[string]string `json:"attributes"`
}

func NewSensor(address core.AddressKey, r core.CollectionReading) Sensor {
	return Sensor{
		Name:  "RCTBC Bin Collection " + address.String(),
		Icon:  Icon,
		State: string(r.NextCollection),
		Attributes: map[string]string{
			AttrNumber:         address.PropertyNumber,
			AttrPostcode:       address.Postcode,
			AttrRecycling:      r.RecyclingLabel,
			AttrWaste:          r.WasteType,
			AttrCalendarColour: r.CalendarColour,
			AttrWasteDate:      r.WasteDate,
			AttrNextCollection: string(r.NextCollection),
			AttrAttribution:    Attribution,
		},
	}
}

// Sensor renders the cache's current reading.
func (c *Cache) Sensor() Sensor {
	return NewSensor(c.address, c.Current())
}
