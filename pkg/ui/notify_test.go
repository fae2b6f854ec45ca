package ui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fumiya-kume/cra/pkg/config"
)

func TestNotifier(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.SoundConfig
		wantAlerts int
		wantBeeps  int
	}{
		{"all enabled", config.SoundConfig{Enabled: true, Notifications: true}, 1, 1},
		{"notifications only", config.SoundConfig{Notifications: true}, 1, 0},
		{"sound only", config.SoundConfig{Enabled: true}, 0, 1},
		{"disabled", config.SoundConfig{}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &FakeAlerter{}
			n := NewNotifierWithAlerter(tt.cfg, fake)

			assert.NoError(t, n.Notify("cra", "app.py scored 42/100"))

			alerts, beeps := fake.Snapshot()
			assert.Len(t, alerts, tt.wantAlerts)
			assert.Equal(t, tt.wantBeeps, beeps)
			if tt.wantAlerts > 0 {
				assert.Equal(t, Alert{Title: "cra", Message: "app.py scored 42/100"}, alerts[0])
			}
		})
	}
}

func TestNotifierReturnsFirstError(t *testing.T) {
	fake := &FakeAlerter{Err: errors.New("no notification daemon")}
	n := NewNotifierWithAlerter(config.SoundConfig{Enabled: true, Notifications: true}, fake)

	assert.EqualError(t, n.Notify("cra", "done"), "no notification daemon")
	_, beeps := fake.Snapshot()
	assert.Equal(t, 1, beeps)
}
