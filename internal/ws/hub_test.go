package ws_test

import (
	"testing"
	"time"

	"go-rbac-admin/internal/ws"

	"github.com/stretchr/testify/assert"
)

func TestPublishNeverBlocks(t *testing.T) {
	hub := ws.NewHub(nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish([]byte(`{"type":"policy_changed"}`))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no running hub")
	}
}

func TestStopEndsRun(t *testing.T) {
	hub := ws.NewHub(nil)

	finished := make(chan struct{})
	go func() {
		hub.Run()
		close(finished)
	}()

	hub.Publish([]byte("x"))
	hub.Stop()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.Zero(t, hub.Clients())
}

func TestAddAndRemoveReturnAfterStop(t *testing.T) {
	hub := ws.NewHub(nil)

	finished := make(chan struct{})
	go func() {
		hub.Run()
		close(finished)
	}()
	hub.Stop()
	<-finished

	done := make(chan bool)
	go func() {
		hub.Remove(nil)
		done <- hub.Add(nil)
	}()

	select {
	case added := <-done:
		assert.False(t, added)
	case <-time.After(time.Second):
		t.Fatal("socket handler blocked on a stopped hub")
	}
}
