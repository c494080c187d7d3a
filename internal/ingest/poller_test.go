package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teemow/meetingmate/internal/drive"
	"github.com/teemow/meetingmate/internal/meeting"
)

func TestPoller_InitialScanFiresImmediately(t *testing.T) {
	coord, st, factory, _ := newTestCoordinator(t)
	factory.drive.files = []*drive.FileInfo{{ID: "file-1", Name: "Weekly Sync - Transcript"}}
	factory.drive.contents["file-1"] = "Alice: let's ship it."

	q := NewQueue(coord, 2, nil)
	q.Start(context.Background())
	defer q.Close()

	p := NewPoller(q, []string{"default"}, time.Hour, nil)
	p.Start(context.Background())
	defer p.Stop()

	waitFor(t, func() bool {
		ok, err := st.SummaryExists(context.Background(), meeting.SummaryID(meeting.SourceDrive, "file-1"))
		return err == nil && ok
	})
}

func TestPoller_TriggerForcesScan(t *testing.T) {
	coord, st, factory, _ := newTestCoordinator(t)

	q := NewQueue(coord, 2, nil)
	q.Start(context.Background())
	defer q.Close()

	p := NewPoller(q, []string{"default"}, time.Hour, nil)
	p.Start(context.Background())
	defer p.Stop()

	// Let the initial scan complete, then add a file and trigger.
	waitFor(t, func() bool {
		state, err := st.GetSourceState(context.Background(), "default", meeting.SourceDrive)
		return err == nil && state.Watermark != ""
	})

	factory.drive.changes["token-1"] = &drive.ChangeList{
		Changes: []drive.Change{
			{FileID: "file-2", File: &drive.FileInfo{ID: "file-2", Name: "Retro - Transcript"}},
		},
		NewStartToken: "token-2",
	}
	factory.drive.contents["file-2"] = "Carol: action items below."
	p.Trigger()

	waitFor(t, func() bool {
		ok, err := st.SummaryExists(context.Background(), meeting.SummaryID(meeting.SourceDrive, "file-2"))
		return err == nil && ok
	})
}

func TestPoller_StopIsIdempotent(t *testing.T) {
	coord, _, _, _ := newTestCoordinator(t)
	q := NewQueue(coord, 1, nil)
	q.Start(context.Background())
	defer q.Close()

	p := NewPoller(q, nil, time.Hour, nil)
	p.Start(context.Background())
	p.Stop()
	require.NotPanics(t, func() { p.Stop() })
}
