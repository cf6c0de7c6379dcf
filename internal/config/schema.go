package config

import (
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/bakkerme/rctbc-bins/internal/core"
	"github.com/bakkerme/rctbc-bins/internal/sources/council/snapshot"
	"gopkg.in/yaml.v3"
)

// DefaultRefreshInterval matches the council page's useful update cadence.
const DefaultRefreshInterval = 6 * time.Hour

// Document is the top-level structure of an rctbc.yaml file.
type Document struct {
	Addresses []AddressConfig  `yaml:"addresses"`
	Refresh   RefreshConfig    `yaml:"refresh,omitempty"`
	Reminders []ReminderConfig `yaml:"reminders,omitempty"`
}

// AddressConfig is one property to track.
type AddressConfig struct {
	Number   string           `yaml:"number"`
	Postcode string           `yaml:"postcode"`
	Snapshot *snapshot.Config `yaml:"snapshot,omitempty"`
}

// RefreshConfig controls the polling trigger. Schedule wins over Interval when both are set.
type RefreshConfig struct {
	Schedule string `yaml:"schedule,omitempty"`
	Interval string `yaml:"interval,omitempty"`
	Timezone string `yaml:"timezone,omitempty"`
}

// ReminderConfig sends an email when a refreshed reading matches When.
type ReminderConfig struct {
	Name     string `yaml:"name"`
	When     string `yaml:"when"`
	To       string `yaml:"to"`
	From     string `yaml:"from,omitempty"`
	Subject  string `yaml:"subject"`
	Template string `yaml:"template"`
}

// Load reads and validates a document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rctbc document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) Validate() error {
	if len(d.Addresses) == 0 {
		return fmt.Errorf("at least one address is required")
	}
	seen := map[core.AddressKey]bool{}
	for i, a := range d.Addresses {
		if strings.TrimSpace(a.Number) == "" {
			return fmt.Errorf("addresses[%d]: number is required", i)
		}
		if strings.TrimSpace(a.Postcode) == "" {
			return fmt.Errorf("addresses[%d]: postcode is required", i)
		}
		key := a.Key()
		if seen[key] {
			return fmt.Errorf("addresses[%d]: duplicate address %s", i, key)
		}
		seen[key] = true
		if a.Snapshot != nil && (a.Snapshot.Snapshot || a.Snapshot.Restore) && a.Snapshot.Path == "" {
			return fmt.Errorf("addresses[%d]: snapshot path is required", i)
		}
	}
	if _, err := d.Refresh.CronSpec(); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	if d.Refresh.Timezone != "" {
		if _, err := time.LoadLocation(d.Refresh.Timezone); err != nil {
			return fmt.Errorf("refresh: invalid timezone: %w", err)
		}
	}
	for i, r := range d.Reminders {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("reminders[%d]: %w", i, err)
		}
	}
	return nil
}

// Key returns the normalized address key.
func (a AddressConfig) Key() core.AddressKey {
	return core.NewAddressKey(a.Number, a.Postcode)
}

// CronSpec returns the cron expression the trigger should run on.
func (r RefreshConfig) CronSpec() (string, error) {
	if s := strings.TrimSpace(r.Schedule); s != "" {
		return s, nil
	}
	interval := DefaultRefreshInterval
	if strings.TrimSpace(r.Interval) != "" {
		d, err := ParseInterval(r.Interval)
		if err != nil {
			return "", err
		}
		if d < time.Minute {
			return "", fmt.Errorf("interval must be at least 1m, got %s", d)
		}
		interval = d
	}
	return "@every " + interval.String(), nil
}

func (r ReminderConfig) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(r.When) == "" || strings.TrimSpace(r.Template) == "" || strings.TrimSpace(r.Subject) == "" {
		return fmt.Errorf("when, subject and template are required")
	}
	if _, err := mail.ParseAddressList(r.To); err != nil {
		return fmt.Errorf("invalid to address(es) %q: %w", r.To, err)
	}
	if r.From != "" {
		if _, err := mail.ParseAddress(r.From); err != nil {
			return fmt.Errorf("invalid from address %q: %w", r.From, err)
		}
	}
	return nil
}
