package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestFilterMatches(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		event  Event
		want   bool
	}{
		{
			name:   "empty filter matches any event",
			filter: Filter{},
			event:  Event{Type: EventSpansUpdated, Buffer: 1},
			want:   true,
		},
		{
			name:   "type filter matches",
			filter: Filter{Types: []EventType{EventSpansUpdated}},
			event:  Event{Type: EventSpansUpdated, Buffer: 1},
			want:   true,
		},
		{
			name:   "type filter rejects non-matching",
			filter: Filter{Types: []EventType{EventSpansUpdated}},
			event:  Event{Type: EventBufferDetached, Buffer: 1},
			want:   false,
		},
		{
			name:   "multiple types match any",
			filter: Filter{Types: []EventType{EventBufferAttached, EventBufferDetached}},
			event:  Event{Type: EventBufferDetached, Buffer: 2},
			want:   true,
		},
		{
			name:   "buffer filter matches",
			filter: Filter{Buffer: intPtr(3)},
			event:  Event{Type: EventSpansUpdated, Buffer: 3},
			want:   true,
		},
		{
			name:   "buffer filter rejects other buffers",
			filter: Filter{Buffer: intPtr(3)},
			event:  Event{Type: EventSpansUpdated, Buffer: 4},
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.event))
		})
	}
}

func TestPublishDeliversToMatchingSubscribers(t *testing.T) {
	p := NewPublisher()

	var mu sync.Mutex
	var spans, detaches []Event
	require.NoError(t, p.Subscribe("spans", Filter{Types: []EventType{EventSpansUpdated}}, func(e Event) {
		mu.Lock()
		spans = append(spans, e)
		mu.Unlock()
	}))
	require.NoError(t, p.Subscribe("detaches", Filter{Types: []EventType{EventBufferDetached}}, func(e Event) {
		mu.Lock()
		detaches = append(detaches, e)
		mu.Unlock()
	}))

	p.Publish(Event{Type: EventSpansUpdated, Buffer: 1, SpanCount: 4})
	p.Publish(Event{Type: EventBufferDetached, Buffer: 1})
	p.Publish(Event{Type: EventSpansUpdated, Buffer: 2, SpanCount: 9})

	assert.Len(t, spans, 2)
	assert.Len(t, detaches, 1)
	assert.Equal(t, 9, spans[1].SpanCount)
}

func TestSubscribeValidation(t *testing.T) {
	p := NewPublisher()
	assert.ErrorIs(t, p.Subscribe("", Filter{}, func(Event) {}), ErrInvalidSubscriptionID)
	assert.ErrorIs(t, p.Subscribe("x", Filter{}, nil), ErrNilHandler)

	require.NoError(t, p.Subscribe("x", Filter{}, func(Event) {}))
	assert.ErrorIs(t, p.Subscribe("x", Filter{}, func(Event) {}), ErrSubscriptionExists)
}

func TestUnsubscribe(t *testing.T) {
	p := NewPublisher()
	require.NoError(t, p.Subscribe("x", Filter{}, func(Event) {}))
	assert.Equal(t, 1, p.SubscriberCount())

	require.NoError(t, p.Unsubscribe("x"))
	assert.Zero(t, p.SubscriberCount())
	assert.ErrorIs(t, p.Unsubscribe("x"), ErrSubscriptionNotFound)
}

func TestSubscriberMayPublishWithoutDeadlock(t *testing.T) {
	p := NewPublisher()
	var relayed []Event
	require.NoError(t, p.Subscribe("relay", Filter{Types: []EventType{EventBufferAttached}}, func(e Event) {
		p.Publish(Event{Type: EventSpansUpdated, Buffer: e.Buffer})
	}))
	require.NoError(t, p.Subscribe("sink", Filter{Types: []EventType{EventSpansUpdated}}, func(e Event) {
		relayed = append(relayed, e)
	}))

	p.Publish(Event{Type: EventBufferAttached, Buffer: 7})
	require.Len(t, relayed, 1)
	assert.Equal(t, 7, relayed[0].Buffer)
}

func TestClose(t *testing.T) {
	p := NewPublisher()
	require.NoError(t, p.Subscribe("x", Filter{}, func(Event) {}))
	p.Close()
	assert.Zero(t, p.SubscriberCount())
}
