package ui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressModel(t *testing.T) {
	tm := teatest.NewTestModel(t, NewProgress(NewPlainTheme(), "Reviewing app.py"),
		teatest.WithInitialTermSize(120, 40))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Reviewing app.py"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(StatusMsg("calling model"))
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("calling model"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(DoneMsg{Result: 85})

	final, ok := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(Progress)
	require.True(t, ok)
	assert.True(t, final.Done())
	assert.False(t, final.Canceled())
	result, err := final.Result()
	assert.NoError(t, err)
	assert.Equal(t, 85, result)
	assert.Contains(t, final.View(), "✓ Reviewing app.py")
}

func TestProgressModelCancel(t *testing.T) {
	tm := teatest.NewTestModel(t, NewProgress(NewPlainTheme(), "Scanning"),
		teatest.WithInitialTermSize(120, 40))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

	final := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(Progress)
	assert.True(t, final.Canceled())
	assert.Contains(t, final.View(), "Scanning canceled")
}

func TestProgressViewFailure(t *testing.T) {
	m, _ := NewProgress(NewPlainTheme(), "Scanning").Update(DoneMsg{Err: errors.New("boom")})
	assert.Equal(t, "✗ Scanning failed\n", m.View())
}

func TestRunWithProgressNonInteractive(t *testing.T) {
	var statuses int
	result, err := RunWithProgress(context.Background(), io.Discard, NewPlainTheme(), "Scanning", false,
		func(_ context.Context, status func(string)) (interface{}, error) {
			status("ignored")
			statuses++
			return "done", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, 1, statuses)
}

func TestRunWithProgressInteractive(t *testing.T) {
	var out bytes.Buffer
	result, err := RunWithProgress(context.Background(), &out, NewPlainTheme(), "Scanning", true,
		func(_ context.Context, status func(string)) (interface{}, error) {
			status("walking")
			return 3, nil
		})

	require.NoError(t, err)
	assert.Equal(t, 3, result)
	assert.Contains(t, out.String(), "Scanning")

	_, err = RunWithProgress(context.Background(), io.Discard, NewPlainTheme(), "Scanning", true,
		func(context.Context, func(string)) (interface{}, error) {
			return nil, errors.New("walk failed")
		})
	assert.EqualError(t, err, "walk failed")
}
