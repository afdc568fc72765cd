package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/vessels/internal/engine"
)

type call struct {
	actor int
	line  string
}

type fakeSubmitter struct {
	calls []call
	reply func(call) (string, error)
}

func (f *fakeSubmitter) Submit(_ context.Context, actorID int, line string) (string, error) {
	c := call{actorID, line}
	f.calls = append(f.calls, c)
	return f.reply(c)
}

func TestConsoleLine(t *testing.T) {
	tests := []struct {
		raw      string
		wantID   int
		wantLine string
	}{
		{"look outside", 1, "look outside"},
		{"  dock Raven  ", 1, "dock Raven"},
		{"@7 board Gull", 7, "board Gull"},
		{"@7", 7, ""},
		{"@abc hello", 1, "@abc hello"},
		{"", 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			id, line := consoleLine(tt.raw, 1)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantLine, line)
		})
	}
}

func TestRunConsole(t *testing.T) {
	sub := &fakeSubmitter{reply: func(c call) (string, error) {
		if c.line == "explode" {
			return "", errors.New("boom")
		}
		return "ok: " + c.line + "\n", nil
	}}
	in := strings.NewReader("rooms\n\n@2 look outside\nexplode\n")
	var out bytes.Buffer

	require.NoError(t, runConsole(context.Background(), in, &out, sub, 1))

	assert.Equal(t, []call{{1, "rooms"}, {2, "look outside"}, {1, "explode"}}, sub.calls)
	assert.Equal(t, "ok: rooms\nok: look outside\nerror: boom\n", out.String())
}

func TestRunConsole_EngineStopped(t *testing.T) {
	sub := &fakeSubmitter{reply: func(call) (string, error) { return "", engine.ErrStopped }}

	err := runConsole(context.Background(), strings.NewReader("look\nrooms\n"), &bytes.Buffer{}, sub, 1)
	assert.ErrorIs(t, err, engine.ErrStopped)
	assert.Len(t, sub.calls, 1)
}

func TestRunConsole_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sub := &fakeSubmitter{reply: func(call) (string, error) { return "", nil }}

	require.NoError(t, runConsole(ctx, strings.NewReader("look\n"), &bytes.Buffer{}, sub, 1))
	assert.Empty(t, sub.calls)
}
