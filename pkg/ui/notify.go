package ui

import (
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/fumiya-kume/cra/pkg/config"
)

// Alerter delivers desktop notifications and beeps
type Alerter interface {
	Notify(title, message string) error
	Beep() error
}

// DesktopAlerter uses the OS notification center through beeep
type DesktopAlerter struct{}

func (DesktopAlerter) Notify(title, message string) error {
	return beeep.Notify(title, message, "")
}

func (DesktopAlerter) Beep() error {
	return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
}

// Alert is one recorded notification
type Alert struct {
	Title   string
	Message string
}

// FakeAlerter records calls instead of notifying
type FakeAlerter struct {
	mu     sync.Mutex
	Alerts []Alert
	Beeps  int
	Err    error
}

func (f *FakeAlerter) Notify(title, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Alerts = append(f.Alerts, Alert{Title: title, Message: message})
	return f.Err
}

func (f *FakeAlerter) Beep() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Beeps++
	return f.Err
}

// Snapshot returns a copy of the recorded alerts and the beep count
func (f *FakeAlerter) Snapshot() ([]Alert, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Alert(nil), f.Alerts...), f.Beeps
}

// Notifier decides which alerts to send according to the sound settings
type Notifier struct {
	cfg     config.SoundConfig
	alerter Alerter
}

// NewNotifier returns a notifier using the desktop alerter
func NewNotifier(cfg config.SoundConfig) *Notifier {
	return NewNotifierWithAlerter(cfg, DesktopAlerter{})
}

// NewNotifierWithAlerter returns a notifier with a custom alerter
func NewNotifierWithAlerter(cfg config.SoundConfig, alerter Alerter) *Notifier {
	return &Notifier{cfg: cfg, alerter: alerter}
}

// Notify sends a desktop notification when enabled and beeps when sound is on.
// Delivery errors are returned but never fatal to the caller.
func (n *Notifier) Notify(title, message string) error {
	var firstErr error
	if n.cfg.Notifications {
		firstErr = n.alerter.Notify(title, message)
	}
	if n.cfg.Enabled {
		if err := n.alerter.Beep(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
