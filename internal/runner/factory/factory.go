package factory

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bakkerme/rctbc-bins/internal/config"
	"github.com/bakkerme/rctbc-bins/internal/core"
	"github.com/bakkerme/rctbc-bins/internal/dedupe"
	"github.com/bakkerme/rctbc-bins/internal/outputs/email"
	"github.com/bakkerme/rctbc-bins/internal/outputs/email/smtp"
	"github.com/bakkerme/rctbc-bins/internal/processors/output"
	"github.com/bakkerme/rctbc-bins/internal/processors/trigger"
	"github.com/bakkerme/rctbc-bins/internal/reading"
	"github.com/bakkerme/rctbc-bins/internal/schedule"
	"github.com/bakkerme/rctbc-bins/internal/sources/council"
	"github.com/bakkerme/rctbc-bins/internal/sources/council/impl"
	"github.com/bakkerme/rctbc-bins/internal/sources/council/snapshot"
)

// Factory holds the shared collaborators every address is built from.
type Factory struct {
	Logger       *slog.Logger
	Fetcher      council.Fetcher
	Parser       reading.PageParser
	Location     *time.Location
	SMTPDefaults config.SMTPEnvConfig
	// EmailSender is built lazily from SMTPDefaults when left nil.
	EmailSender email.Sender
	// Sent is shared by every reminder; nil means an in-memory ledger.
	Sent dedupe.SentStore
}

// Components is everything a runner needs for one document.
type Components struct {
	Caches  []*reading.Cache
	Outputs []core.OutputProcessor
	Trigger core.TriggerProcessor
}

func NewFromEnvConfig(logger *slog.Logger, env config.EnvConfig) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	loc := env.Council.Location()
	return &Factory{
		Logger:       logger,
		Fetcher:      impl.NewFetcher(env.Council.HTTPTimeout, env.Council.UserAgent, env.Council.BaseURL),
		Parser:       schedule.NewParser(loc),
		Location:     loc,
		SMTPDefaults: env.SMTP,
	}
}

func NewFromEnv() *Factory {
	return NewFromEnvConfig(slog.Default(), config.LoadEnv())
}

// OpenLedger switches reminders to a sqlite-backed ledger at dsn. An empty dsn is a no-op.
func (f *Factory) OpenLedger(dsn string) error {
	if dsn == "" {
		return nil
	}
	store, err := dedupe.NewSQLiteStore(dsn, "")
	if err != nil {
		return fmt.Errorf("open reminder ledger: %w", err)
	}
	f.Sent = store
	return nil
}

func (f *Factory) Close() error {
	if f.Sent == nil {
		return nil
	}
	return f.Sent.Close()
}

// Build wires caches, reminder outputs and the refresh trigger for doc.
func (f *Factory) Build(doc *config.Document) (*Components, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is required")
	}
	caches, err := f.NewCaches(doc.Addresses)
	if err != nil {
		return nil, err
	}
	outputs := make([]core.OutputProcessor, 0, len(doc.Reminders))
	for i := range doc.Reminders {
		out, err := f.NewReminder(&doc.Reminders[i])
		if err != nil {
			return nil, fmt.Errorf("reminders[%d]: %w", i, err)
		}
		outputs = append(outputs, out)
	}
	trig, err := f.NewTrigger(doc.Refresh)
	if err != nil {
		return nil, err
	}
	return &Components{Caches: caches, Outputs: outputs, Trigger: trig}, nil
}

func (f *Factory) NewCaches(addresses []config.AddressConfig) ([]*reading.Cache, error) {
	caches := make([]*reading.Cache, 0, len(addresses))
	for i, a := range addresses {
		key := a.Key()
		cache, err := reading.NewCache(key, snapshot.Wrap(f.Fetcher, a.Snapshot), f.Parser, f.Logger.With("address", key.String()))
		if err != nil {
			return nil, fmt.Errorf("addresses[%d]: %w", i, err)
		}
		caches = append(caches, cache)
	}
	return caches, nil
}

func (f *Factory) NewReminder(cfg *config.ReminderConfig) (core.OutputProcessor, error) {
	sender, err := f.emailSender()
	if err != nil {
		return nil, err
	}
	merged := *cfg
	if merged.From == "" {
		merged.From = f.SMTPDefaults.From
	}
	if f.Sent == nil {
		f.Sent = dedupe.NewMemoryStore()
	}
	return output.NewReminderProcessor(&merged, sender, f.Sent)
}

func (f *Factory) NewTrigger(cfg config.RefreshConfig) (core.TriggerProcessor, error) {
	spec, err := cfg.CronSpec()
	if err != nil {
		return nil, err
	}
	loc := f.Location
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("refresh timezone: %w", err)
		}
	}
	cron := trigger.NewCronProcessor(spec, loc)
	if err := cron.Validate(); err != nil {
		return nil, err
	}
	return cron, nil
}

func (f *Factory) emailSender() (email.Sender, error) {
	if f.EmailSender != nil {
		return f.EmailSender, nil
	}
	sender, err := smtp.NewSender(f.SMTPDefaults)
	if err != nil {
		return nil, fmt.Errorf("smtp sender: %w", err)
	}
	f.EmailSender = sender
	return sender, nil
}
