package output

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/expr-lang/expr/vm"
	"github.com/yuin/goldmark"

	"github.com/bakkerme/rctbc-bins/internal/config"
	"github.com/bakkerme/rctbc-bins/internal/core"
	"github.com/bakkerme/rctbc-bins/internal/dedupe"
	"github.com/bakkerme/rctbc-bins/internal/outputs/email"
)

// ReminderProcessor emails a markdown reminder when a refreshed reading matches its rule.
// Each (waste date, next collection) pair is sent at most once per address.
type ReminderProcessor struct {
	name      string
	config    config.ReminderConfig
	program   *vm.Program
	tmpl      *template.Template
	converter goldmark.Markdown
	sender    email.Sender
	sent      dedupe.SentStore

	// mu covers the ledger check, send and record as one step.
	mu sync.Mutex
}

// ReminderData is what reminder templates render against.
type ReminderData struct {
	Address        core.AddressKey
	Reading        core.CollectionReading
	DaysUntilWaste int
}

// NewReminderProcessor builds a reminder. A nil store keeps the ledger in memory.
func NewReminderProcessor(cfg *config.ReminderConfig, sender email.Sender, sent dedupe.SentStore) (*ReminderProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("reminder config is required")
	}
	program, err := compileRule(cfg.When)
	if err != nil {
		return nil, err
	}
	if sent == nil {
		sent = dedupe.NewMemoryStore()
	}
	tmpl, err := template.New(cfg.Name).Option("missingkey=error").Parse(cfg.Template)
	if err != nil {
		return nil, fmt.Errorf("parse reminder template: %w", err)
	}
	return &ReminderProcessor{
		name:      cfg.Name,
		config:    *cfg,
		program:   program,
		tmpl:      tmpl,
		converter: newMarkdownConverter(),
		sender:    sender,
		sent:      sent,
	}, nil
}

func (p *ReminderProcessor) Name() string {
	return p.name
}

func (p *ReminderProcessor) Validate() error {
	if p.sender == nil {
		return fmt.Errorf("email sender is required")
	}
	return p.config.Validate()
}

func (p *ReminderProcessor) Deliver(ctx context.Context, address core.AddressKey, reading core.CollectionReading, now time.Time) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("reminder %s validation failed: %w", p.name, err)
	}
	if !reading.Resolved() {
		return nil
	}

	matched, err := evalRule(p.program, ruleEnv(address, reading, now))
	if err != nil {
		return fmt.Errorf("reminder %s rule: %w", p.name, err)
	}
	if !matched {
		return nil
	}

	key := dedupe.CollectionKey(reading)
	p.mu.Lock()
	defer p.mu.Unlock()
	last, err := p.sent.LastSent(ctx, p.name, address)
	if err != nil {
		return fmt.Errorf("reminder %s ledger: %w", p.name, err)
	}
	if last == key {
		return nil
	}

	markdown, err := p.render(ReminderData{Address: address, Reading: reading, DaysUntilWaste: daysUntil(reading.WasteDate, now)})
	if err != nil {
		return err
	}
	html, err := renderMarkdown(p.converter, markdown)
	if err != nil {
		return fmt.Errorf("reminder %s markdown: %w", p.name, err)
	}

	if err := p.sender.Send(ctx, email.Message{
		From:     p.config.From,
		To:       p.config.To,
		Subject:  p.config.Subject,
		HTMLBody: html,
		TextBody: markdown,
	}); err != nil {
		return fmt.Errorf("reminder %s send: %w", p.name, err)
	}

	if err := p.sent.RecordSent(ctx, p.name, address, key); err != nil {
		return fmt.Errorf("reminder %s ledger: %w", p.name, err)
	}
	core.LoggerFromContext(ctx, nil).Info("reminder sent", "reminder", p.name, "address", address.String(), "next_collection", reading.NextCollection)
	return nil
}

func (p *ReminderProcessor) render(data ReminderData) (string, error) {
	var builder strings.Builder
	if err := p.tmpl.Execute(&builder, data); err != nil {
		return "", fmt.Errorf("reminder %s template: %w", p.name, err)
	}
	return builder.String(), nil
}
