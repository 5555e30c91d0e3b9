package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountsConsistent(t *testing.T) {
	mc := StartRun("alice", []string{"go"}, []string{"Remote"})

	for i := 0; i < 10; i++ {
		mc.Found()
	}
	for i := 0; i < 4; i++ {
		mc.Saved()
	}
	for i := 0; i < 3; i++ {
		mc.SkippedDuplicate()
	}
	mc.SkippedOther()
	mc.Failed()
	mc.Failed()

	m := mc.End()
	assert.Equal(t, 10, m.JobsFound)
	assert.True(t, m.CountsConsistent())
	assert.False(t, m.EndedAt.IsZero())
}

func TestRunIDEmbedsCandidate(t *testing.T) {
	mc := StartRun("alice", nil, nil)
	assert.Contains(t, mc.RunID(), "_alice")
	assert.Len(t, mc.RunID(), len("20060102_150405_alice"))
}

func TestSnapshotIsACopy(t *testing.T) {
	mc := StartRun("alice", nil, nil)
	mc.Retry("fetch")
	mc.Warning("first")

	snap := mc.Snapshot()
	snap.RetriesByStep["fetch"] = 99
	snap.Warnings[0].Message = "mutated"

	fresh := mc.Snapshot()
	assert.Equal(t, 1, fresh.RetriesByStep["fetch"])
	assert.Equal(t, "first", fresh.Warnings[0].Message)
}

func TestConcurrentRecording(t *testing.T) {
	mc := StartRun("alice", nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mc.Found()
			mc.Saved()
			mc.Retry("sink:csv")
		}()
	}
	wg.Wait()

	m := mc.End()
	assert.Equal(t, 50, m.JobsFound)
	assert.Equal(t, 50, m.JobsSaved)
	assert.Equal(t, 50, m.RetriesByStep["sink:csv"])
}

func TestCancelledFlag(t *testing.T) {
	mc := StartRun("alice", nil, nil)
	mc.Found()
	mc.Cancelled()

	m := mc.End()
	assert.True(t, m.Cancelled)
	assert.False(t, m.CountsConsistent(), "a cancelled run may leave found items unaccounted")
}
