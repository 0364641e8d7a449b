package market

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/wildcat/internal/model"
)

func TestGateBoomerang(t *testing.T) {
	auth := &mockAuth{}
	p := NewSessionProvider(auth, &mockStore{})

	var opened []string
	g := NewGate(p, func(item model.Item) { opened = append(opened, item.ID) })

	assert.False(t, g.Open(model.Item{ID: "lamp"}))
	assert.False(t, g.Open(model.Item{ID: "desk"}), "a new guest action replaces the old one")
	require.NotNil(t, g.Pending())
	assert.Equal(t, "desk", g.Pending().ID)
	assert.Empty(t, opened)

	auth.emit(completeSession("ana", "Ana Lopez"))
	assert.Equal(t, []string{"desk"}, opened)
	assert.Nil(t, g.Pending())

	// Further session changes do not replay it.
	auth.emit(nil)
	auth.emit(completeSession("ana", "Ana Lopez"))
	assert.Equal(t, []string{"desk"}, opened)

	assert.True(t, g.Open(model.Item{ID: "chair"}))
	assert.Equal(t, []string{"desk", "chair"}, opened)
}

func TestGateWaitsForOnboarding(t *testing.T) {
	auth := &mockAuth{}
	p := NewSessionProvider(auth, &mockStore{})

	var opened []string
	g := NewGate(p, func(item model.Item) { opened = append(opened, item.ID) })
	g.Open(model.Item{ID: "lamp"})

	auth.emit(incompleteSession("sam"))
	assert.Empty(t, opened)
	assert.False(t, g.Open(model.Item{ID: "desk"}))

	auth.emit(completeSession("sam", "Sam Student"))
	assert.Equal(t, []string{"desk"}, opened)
}

func TestGateCancel(t *testing.T) {
	auth := &mockAuth{}
	p := NewSessionProvider(auth, &mockStore{})

	var opened int
	g := NewGate(p, func(model.Item) { opened++ })
	g.Open(model.Item{ID: "lamp"})
	g.Cancel()
	assert.Nil(t, g.Pending())

	auth.emit(completeSession("ana", "Ana Lopez"))
	assert.Equal(t, 0, opened)
}

func TestGateOpenRacingLogin(t *testing.T) {
	for i := 0; i < 200; i++ {
		auth := &mockAuth{}
		p := NewSessionProvider(auth, &mockStore{})

		var opened atomic.Int32
		g := NewGate(p, func(model.Item) { opened.Add(1) })

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			auth.emit(completeSession("ana", "Ana Lopez"))
		}()
		g.Open(model.Item{ID: "lamp"})
		wg.Wait()

		require.Equal(t, int32(1), opened.Load(), "iteration %d: item must open exactly once", i)
		assert.Nil(t, g.Pending())
	}
}
