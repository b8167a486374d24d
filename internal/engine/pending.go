// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

package engine

import "sync"

// pendingIDList is the ordered list of log entry ids whose contribution has
// been folded into the Aggregator but not yet acknowledged.
type pendingIDList struct {
	mu  sync.Mutex
	ids []string
}

func newPendingIDList() *pendingIDList {
	return &pendingIDList{}
}

// add appends an id to the list.
func (p *pendingIDList) add(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, id)
}

// drain atomically returns the current ids and clears the list.
func (p *pendingIDList) drain() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.ids) == 0 {
		return nil
	}
	ids := p.ids
	p.ids = nil
	return ids
}

// prepend restores ids to the front of the list, used when a total flush
// failure must leave them outstanding ahead of anything folded since.
func (p *pendingIDList) prepend(ids []string) {
	if len(ids) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(append([]string(nil), ids...), p.ids...)
}
