package council

import (
	"testing"

	"github.com/bakkerme/rctbc-bins/internal/core"
)

func TestBuildURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		base    string
		address core.AddressKey
		want    string
	}{
		{
			name:    "default base",
			base:    "",
			address: core.NewAddressKey("12", "cf10 1ab"),
			want:    DefaultBaseURL + "?PropertyNumber=12&Postcode=CF101AB",
		},
		{
			name:    "custom base",
			base:    "http://council.test/bins",
			address: core.NewAddressKey("3A", "CF37 4AB"),
			want:    "http://council.test/bins?PropertyNumber=3A&Postcode=CF374AB",
		},
		{
			name:    "base with query",
			base:    "http://council.test/bins?lang=en",
			address: core.NewAddressKey("7", "CF101AB"),
			want:    "http://council.test/bins?lang=en&PropertyNumber=7&Postcode=CF101AB",
		},
		{
			name:    "space in property number is escaped",
			base:    "http://council.test/bins",
			address: core.AddressKey{PropertyNumber: "Flat 2", Postcode: "CF101AB"},
			want:    "http://council.test/bins?PropertyNumber=Flat+2&Postcode=CF101AB",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuildURL(tc.base, tc.address); got != tc.want {
				t.Fatalf("BuildURL() = %q, want %q", got, tc.want)
			}
		})
	}
}
