package council

import (
	"context"
	"net/url"
	"strings"

	"github.com/bakkerme/rctbc-bins/internal/core"
)

// DefaultBaseURL is the Rhondda Cynon Taf bin collection lookup page.
const DefaultBaseURL = "https://www.rctcbc.gov.uk/EN/Resident/BinsandRecycling/BinCollectionDays.aspx"

// Fetcher retrieves the raw collection page for an address.
// Implementations return core.ErrFetch (wrapped) for non-200 responses and transport failures.
type Fetcher interface {
	Fetch(ctx context.Context, address core.AddressKey) ([]byte, error)
}

// BuildURL embeds the address into the lookup endpoint's query string.
func BuildURL(baseURL string, address core.AddressKey) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep +
		"PropertyNumber=" + url.QueryEscape(address.PropertyNumber) +
		"&Postcode=" + url.QueryEscape(address.Postcode)
}
