// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

package engine

import (
	"testing"
	"time"
)

func TestBusDeliversToSubscriber(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventFlush)

	bus.Publish(Event{Kind: EventFlush, Message: "ok"})

	select {
	case ev := <-sub:
		if ev.Message != "ok" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestBusDoesNotDeliverToOtherKinds(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventFlush)

	bus.Publish(Event{Kind: EventWarn, Message: "ignored"})

	select {
	case ev := <-sub:
		t.Fatalf("unexpected delivery of unrelated kind: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusFanOutToMultipleSubscribers(t *testing.T) {
	bus := NewBus()
	subA := bus.Subscribe(EventWarn)
	subB := bus.Subscribe(EventWarn)

	bus.Publish(Event{Kind: EventWarn, Message: "fanout"})

	for _, sub := range []<-chan Event{subA, subB} {
		select {
		case ev := <-sub:
			if ev.Message != "fanout" {
				t.Fatalf("unexpected event: %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for fanout delivery")
		}
	}
}

func TestBusPublishDropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventError)

	// Fill the channel past capacity; excess publishes must not block.
	for i := 0; i < busChannelCapacity+10; i++ {
		bus.Publish(Event{Kind: EventError, Message: "spam"})
	}

	count := 0
	for {
		select {
		case <-sub:
			count++
		default:
			if count != busChannelCapacity {
				t.Fatalf("expected exactly %d buffered events, got %d", busChannelCapacity, count)
			}
			return
		}
	}
}

func TestBusPublishWithNoSubscribersDoesNotPanic(t *testing.T) {
	bus := NewBus()
	bus.Publish(Event{Kind: EventStarted})
}
