// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

package engine

import (
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// parseError marks an entry as malformed: it must be dropped without
// acknowledgement rather than surfaced as a CounterEvent.
type parseError struct {
	reason string
}

func (e *parseError) Error() string { return e.reason }

// parseEntry converts a LogEntry's flat field list into a CounterEvent.
//
// Field lists are short (scope, delta, timestamp, metadata — at most four
// recognized keys), so each recognized key is looked up directly in the
// field map, with no temporary intermediate structure; other keys are
// ignored.
//
// Required fields: scope (non-empty), delta (parseable signed integer).
// Missing either returns a non-nil err; the caller must drop the event
// without acknowledging its id. A metadata decode failure is reported via
// metadataErr but does not invalidate the returned event.
func parseEntry(fields map[string]string) (event CounterEvent, metadataErr error, err error) {
	scope := fields["scope"]
	if scope == "" {
		return CounterEvent{}, nil, &parseError{reason: "missing or empty scope"}
	}

	rawDelta, ok := fields["delta"]
	if !ok {
		return CounterEvent{}, nil, &parseError{reason: "missing delta"}
	}
	delta, perr := strconv.ParseInt(rawDelta, 10, 64)
	if perr != nil {
		return CounterEvent{}, nil, &parseError{reason: fmt.Sprintf("unparseable delta %q", rawDelta)}
	}

	event = CounterEvent{
		Scope: scope,
		Delta: delta,
	}

	var timestampSet bool
	if rawTS, ok := fields["timestamp"]; ok {
		if ts, terr := strconv.ParseInt(rawTS, 10, 64); terr == nil {
			event.Timestamp = ts
			timestampSet = true
		}
	}
	if !timestampSet {
		event.Timestamp = time.Now().UnixMilli()
	}

	if rawMeta, ok := fields["metadata"]; ok && rawMeta != "" {
		var meta map[string]string
		if merr := json.Unmarshal([]byte(rawMeta), &meta); merr != nil {
			metadataErr = fmt.Errorf("decode metadata: %w", merr)
		} else {
			event.Metadata = meta
		}
	}

	return event, metadataErr, nil
}
