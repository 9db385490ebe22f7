package trace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phire/bus-mu-sub000/internal/baselib/actor"
)

func testRecorder(t *testing.T) (*Recorder, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "bus-mu-trace-*")
	require.NoError(t, err)

	rec, err := NewRecorder(filepath.Join(tmpDir, "trace.db"), "")
	require.NoError(t, err)

	return rec, func() {
		rec.Close()
		os.RemoveAll(tmpDir)
	}
}

func TestNewRecorderAssignsRunID(t *testing.T) {
	rec, cleanup := testRecorder(t)
	defer cleanup()

	require.NotEmpty(t, rec.RunID())
}

func TestRecordDispatchIncrementsSequence(t *testing.T) {
	rec, cleanup := testRecorder(t)
	defer cleanup()

	require.NoError(t, rec.RecordDispatch(actor.Time(1), actor.ID(0), actor.OK))
	require.NoError(t, rec.RecordDispatch(actor.Time(2), actor.ID(1), actor.Exit("test")))

	var count int
	row := rec.db.QueryRow(
		`SELECT COUNT(*) FROM dispatch_events WHERE run_id = ?`, rec.RunID(),
	)
	require.NoError(t, row.Scan(&count))
	require.Equal(t, 2, count)

	var exitReason string
	row = rec.db.QueryRow(
		`SELECT exit_reason FROM dispatch_events WHERE run_id = ? AND seq = 2`,
		rec.RunID(),
	)
	require.NoError(t, row.Scan(&exitReason))
	require.Equal(t, "test", exitReason)
}
