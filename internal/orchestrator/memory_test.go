package orchestrator

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_AppendAndHistory(t *testing.T) {
	m := NewMemory(10)
	m.Append("s1", "user", "explain gait")
	m.Append("s1", "assistant", "Gait is a walking pattern.")
	m.Append("s2", "user", "other session")

	history := m.History("s1")
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "explain gait", history[0].Content)
	assert.Len(t, m.History("s2"), 1)
	assert.Empty(t, m.History("missing"))
}

func TestMemory_EvictsOldestAtCap(t *testing.T) {
	m := NewMemory(4)
	for i := 0; i < 6; i++ {
		m.Append("s1", "user", fmt.Sprintf("q%d", i))
	}

	history := m.History("s1")
	require.Len(t, history, 4)
	assert.Equal(t, "q2", history[0].Content)
	assert.Equal(t, "q5", history[3].Content)
}

func TestMemory_LastUserQuery(t *testing.T) {
	m := NewMemory(10)
	assert.Equal(t, "", m.LastUserQuery("s1"))

	m.Append("s1", "user", "explain gait")
	m.Append("s1", "assistant", "Gait is a walking pattern.")
	assert.Equal(t, "explain gait", m.LastUserQuery("s1"))
}

func TestMemory_Clear(t *testing.T) {
	m := NewMemory(10)
	m.Append("s1", "user", "explain gait")
	m.Clear("s1")
	assert.Empty(t, m.History("s1"))
}

func TestMemory_ConcurrentAppends(t *testing.T) {
	m := NewMemory(50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m.Append("s1", "user", fmt.Sprintf("q%d", n))
		}(i)
	}
	wg.Wait()
	assert.Len(t, m.History("s1"), 20)
}

func TestMemory_HistoryReturnsCopy(t *testing.T) {
	m := NewMemory(10)
	m.Append("s1", "user", "original")

	history := m.History("s1")
	history[0].Content = "mutated"
	assert.Equal(t, "original", m.History("s1")[0].Content)
}
