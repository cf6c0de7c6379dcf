package config

import (
	"strings"
	"testing"

	"github.com/bakkerme/rctbc-bins/internal/core"
)

const sampleDocument = `
addresses:
  - number: "12"
    postcode: "cf10 1ab"
  - number: "3A"
    postcode: "CF37 4AB"
    snapshot:
      snapshot: true
      path: "snapshots/3a.html"
refresh:
  interval: 1d
  timezone: Europe/London
reminders:
  - name: all-bins
    when: next_collection == "All Bins" && days_until_waste <= 1
    to: "home@example.com"
    subject: "Put all the bins out"
    template: "**{{ .Reading.WasteType }}** goes out on {{ .Reading.WasteDate }}."
`

func TestParseDocument(t *testing.T) {
	doc, err := Parse([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(doc.Addresses) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(doc.Addresses))
	}
	if got := doc.Addresses[0].Key(); got != core.NewAddressKey("12", "CF101AB") {
		t.Fatalf("Key() = %+v", got)
	}
	if doc.Addresses[1].Snapshot == nil || doc.Addresses[1].Snapshot.Path != "snapshots/3a.html" {
		t.Fatalf("snapshot config not parsed: %+v", doc.Addresses[1].Snapshot)
	}
	spec, err := doc.Refresh.CronSpec()
	if err != nil {
		t.Fatalf("CronSpec() error = %v", err)
	}
	if spec != "@every 24h0m0s" {
		t.Fatalf("CronSpec() = %q, want %q", spec, "@every 24h0m0s")
	}
	if len(doc.Reminders) != 1 || doc.Reminders[0].Name != "all-bins" {
		t.Fatalf("reminders = %+v", doc.Reminders)
	}
}

func TestCronSpecDefaultsAndSchedule(t *testing.T) {
	spec, err := RefreshConfig{}.CronSpec()
	if err != nil || spec != "@every 6h0m0s" {
		t.Fatalf("default CronSpec() = %q, %v", spec, err)
	}
	spec, err = RefreshConfig{Schedule: "0 6 * * *", Interval: "1h"}.CronSpec()
	if err != nil || spec != "0 6 * * *" {
		t.Fatalf("schedule CronSpec() = %q, %v", spec, err)
	}
	if _, err := (RefreshConfig{Interval: "10s"}).CronSpec(); err == nil {
		t.Fatalf("expected error for sub-minute interval")
	}
}

func TestParseDocumentRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"no addresses":      "addresses: []\n",
		"missing postcode":  "addresses:\n  - number: \"1\"\n",
		"duplicate address": "addresses:\n  - {number: \"1\", postcode: \"cf10 1ab\"}\n  - {number: \"1\", postcode: \"CF101AB\"}\n",
		"snapshot no path":  "addresses:\n  - {number: \"1\", postcode: \"CF101AB\", snapshot: {restore: true}}\n",
		"bad interval":      "addresses:\n  - {number: \"1\", postcode: \"CF101AB\"}\nrefresh:\n  interval: soon\n",
		"bad timezone":      "addresses:\n  - {number: \"1\", postcode: \"CF101AB\"}\nrefresh:\n  timezone: Mars/Base\n",
		"bad reminder":      "addresses:\n  - {number: \"1\", postcode: \"CF101AB\"}\nreminders:\n  - {name: r, when: \"true\", to: \"not-an-email\", subject: s, template: t}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Fatalf("Parse() expected error for %s", strings.TrimSpace(name))
			}
		})
	}
}
