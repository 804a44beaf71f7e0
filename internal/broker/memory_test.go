package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhpenta/datasetgen"
)

func TestMemoryBroker_PublishFansOut(t *testing.T) {
	b := NewMemoryBroker(4)
	a := b.Subscribe("a")
	c := b.Subscribe("c")

	b.Publish(datasetgen.Status{ImageCount: 3})

	assert.Equal(t, 3, (<-a).ImageCount)
	assert.Equal(t, 3, (<-c).ImageCount)
}

func TestMemoryBroker_PublishDoesNotBlock(t *testing.T) {
	b := NewMemoryBroker(1)
	ch := b.Subscribe("slow")

	b.Publish(datasetgen.Status{ImageCount: 1})
	b.Publish(datasetgen.Status{ImageCount: 2})

	assert.Equal(t, 1, (<-ch).ImageCount)
	select {
	case s := <-ch:
		t.Fatalf("unexpected snapshot %+v", s)
	default:
	}
}

func TestMemoryBroker_Unsubscribe(t *testing.T) {
	b := NewMemoryBroker(0)
	ch := b.Subscribe("a")
	require.Equal(t, 1, b.Len())

	b.Unsubscribe("a")
	_, ok := <-ch
	assert.False(t, ok, "channel is closed")
	assert.Equal(t, 0, b.Len())

	b.Unsubscribe("a")
	b.Publish(datasetgen.Status{})
}

func TestMemoryBroker_ResubscribeClosesPrevious(t *testing.T) {
	b := NewMemoryBroker(2)
	first := b.Subscribe("a")
	second := b.Subscribe("a")

	_, ok := <-first
	assert.False(t, ok)

	b.Publish(datasetgen.Status{Busy: true})
	assert.True(t, (<-second).Busy)
	assert.Equal(t, 1, b.Len())
}
