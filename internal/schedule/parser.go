package schedule

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/bakkerme/rctbc-bins/internal/core"
)

const (
	// DateLayout reads the council's DD/MM/YYYY dates; zero padding is optional.
	DateLayout = "2/1/2006"

	emphasisSelector = "strong"
)

// Parser turns a council collection page into a CollectionReading.
type Parser struct {
	// Location interprets the published waste date. Defaults to Europe/London, then UTC.
	Location *time.Location
}

func NewParser(location *time.Location) *Parser {
	if location == nil {
		location = defaultLocation()
	}
	return &Parser{Location: location}
}

// Parse extracts the first three emphasized fragments from body.
// It returns core.ErrUnresolvedAddress when the page has fewer than three of them and
// core.ErrMalformedDate when the waste fragment does not carry a DD/MM/YYYY date.
func (p *Parser) Parse(body []byte, now time.Time) (core.CollectionReading, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return core.CollectionReading{}, fmt.Errorf("%w: parse council page: %v", core.ErrUnresolvedAddress, err)
	}

	fragments := doc.Find(emphasisSelector).Map(func(_ int, s *goquery.Selection) string {
		return s.Text()
	})
	if len(fragments) < 3 {
		return core.CollectionReading{}, fmt.Errorf("%w: found %d emphasized fragments", core.ErrUnresolvedAddress, len(fragments))
	}

	wasteType, wasteDate, err := splitWasteFragment(fragments[1])
	if err != nil {
		return core.CollectionReading{}, err
	}
	wasteInstant, err := time.ParseInLocation(DateLayout, wasteDate, p.location())
	if err != nil {
		return core.CollectionReading{}, fmt.Errorf("%w: %q: %v", core.ErrMalformedDate, wasteDate, err)
	}

	reading := core.CollectionReading{
		RecyclingLabel: fragments[0],
		WasteType:      wasteType,
		WasteDate:      wasteDate,
		CalendarColour: capitalize(strings.TrimSpace(fragments[2])),
		NextCollection: Classify(wasteInstant, now),
	}
	if strings.TrimSpace(reading.RecyclingLabel) == "" || !reading.Resolved() {
		return core.CollectionReading{}, fmt.Errorf("%w: blank emphasized fragment", core.ErrUnresolvedAddress)
	}
	return reading, nil
}

func (p *Parser) location() *time.Location {
	if p == nil || p.Location == nil {
		return defaultLocation()
	}
	return p.Location
}

// splitWasteFragment expects exactly "<type> <date>".
func splitWasteFragment(fragment string) (string, string, error) {
	fragment = strings.TrimSpace(fragment)
	wasteType, wasteDate, ok := strings.Cut(fragment, " ")
	if !ok || wasteType == "" || wasteDate == "" {
		return "", "", fmt.Errorf("%w: %q has no date token", core.ErrMalformedDate, fragment)
	}
	if strings.ContainsAny(wasteDate, " \t\n") {
		return "", "", fmt.Errorf("%w: %q has more than two tokens", core.ErrMalformedDate, fragment)
	}
	return wasteType, wasteDate, nil
}

// capitalize upper-cases the first rune and lower-cases the rest ("light GREEN" -> "Light green").
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func defaultLocation() *time.Location {
	if loc, err := time.LoadLocation("Europe/London"); err == nil {
		return loc
	}
	return time.UTC
}
