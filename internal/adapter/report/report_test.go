package report

import (
	"bytes"
	"passwordCrackerEngine/internal/core/domain"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionID = "6f1c2d9e-0000-4000-8000-000000000001"

func outcome(o domain.Outcome, dispatched uint64, d time.Duration) domain.Outcome {
	o.Dispatched = dispatched
	o.Duration = d
	return o
}

func summaries() map[string]Summary {
	timedOut := outcome(domain.Cancelled(domain.Checkpoint{Position: 17}), 230, 5500*time.Millisecond)
	timedOut.DrainTimedOut = true

	return map[string]Summary{
		"found_text": {
			Target:  "hash file secret.txt",
			Outcome: outcome(domain.Found(domain.Candidate("hunter2")), 501, 1234567890*time.Nanosecond),
		},
		"found_hex": {
			Outcome: outcome(domain.Found(domain.Candidate{0x01, 0xff, 0x41}), 3, 0),
		},
		"exhausted": {
			Outcome: outcome(domain.Exhausted(), 1000, 2*time.Second),
		},
		"cancelled": {
			SessionID: sessionID,
			Outcome:   outcome(domain.Cancelled(domain.Checkpoint{Position: 4242}), 4400, 90*time.Second),
		},
		"cancelled_timeout": {
			Outcome: timedOut,
		},
	}
}

func TestRender(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))

	for name, s := range summaries() {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, s))
			g.Assert(t, name, buf.Bytes())
		})
	}
}

func TestRenderJSON(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	all := summaries()

	for _, name := range []string{"found_text", "cancelled"} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderJSON(&buf, all[name]))
			g.Assert(t, "json_"+name, buf.Bytes())
		})
	}
}

func TestRender_UnknownOutcome(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(&buf, Summary{}))
	assert.Zero(t, buf.Len())
}

func TestHex(t *testing.T) {
	assert.Equal(t, "", Hex(nil))
	assert.Equal(t, "00 0a ff", Hex([]byte{0, 10, 255}))
}
