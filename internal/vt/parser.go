// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package vt

import (
	"log"
)

// DefaultScrollbackCapacity bounds how many scrolled-off lines are retained
// per session when the caller doesn't override it.
const DefaultScrollbackCapacity = 10000

// Parser owns a single *terminal exclusively and is the only goroutine that
// ever touches it. Byte chunks and queries are both funneled through one
// select loop so reads, writes, and resizes can never interleave with a
// concurrent query and observe a half-updated grid.
type Parser struct {
	term *terminal

	chunks  <-chan []byte
	queries chan queryRequest

	events *eventHub

	seq   uint64
	epoch uint64

	done   chan struct{}
	failed chan struct{}
	failErr error
}

// NewParser builds a Parser reading PTY bytes from chunks (typically the
// dedicated lossless subscription handed out by a Broker) and sized to
// rows x cols with the given scrollback retention.
func NewParser(chunks <-chan []byte, rows, cols, scrollbackCap int) *Parser {
	if scrollbackCap <= 0 {
		scrollbackCap = DefaultScrollbackCapacity
	}
	return &Parser{
		term:    newTerminal(rows, cols, scrollbackCap),
		chunks:  chunks,
		queries: make(chan queryRequest),
		events:  newEventHub(),
		done:    make(chan struct{}),
		failed:  make(chan struct{}),
	}
}

// Subscribe registers a new structured-event consumer. Safe to call
// concurrently with Run.
func (p *Parser) Subscribe() *Subscription {
	return p.events.subscribe()
}

// Unavailable reports whether the parser task has terminated abnormally; once
// closed, every Query call returns ErrParserUnavailable instead of blocking
// forever on a dead goroutine.
func (p *Parser) Unavailable() <-chan struct{} {
	return p.failed
}

// Done reports whether Run has returned for any reason (normal shutdown or
// failure).
func (p *Parser) Done() <-chan struct{} {
	return p.done
}

// Resize satisfies the panel package's Resizer interface: it asks the
// parser task to apply the new dimensions and waits for it, so a caller
// reconfiguring panel layout can treat the PTY and the parser identically.
func (p *Parser) Resize(rows, cols int) error {
	reply := p.Query(Query{Kind: QueryResize, Rows: rows, Cols: cols})
	return reply.Err
}

// Query asks the parser task to answer q and blocks for the reply. Safe to
// call concurrently from many goroutines; queries are serialized against
// chunk processing inside Run.
func (p *Parser) Query(q Query) Reply {
	select {
	case <-p.failed:
		return Reply{Err: ErrParserUnavailable}
	case <-p.done:
		return Reply{Err: ErrParserUnavailable}
	default:
	}

	reply := make(chan Reply, 1)
	select {
	case p.queries <- queryRequest{q: q, reply: reply}:
	case <-p.failed:
		return Reply{Err: ErrParserUnavailable}
	case <-p.done:
		return Reply{Err: ErrParserUnavailable}
	}
	select {
	case r := <-reply:
		return r
	case <-p.failed:
		return Reply{Err: ErrParserUnavailable}
	}
}

// Run processes chunks and queries until the chunk channel closes. A panic
// while applying a chunk downgrades the parser into the unavailable state
// instead of taking the whole process down with it: every blocked and future
// Query call starts returning ErrParserUnavailable, and the bounded chunk
// channel means a dead parser can't accumulate unbounded backlog upstream.
func (p *Parser) Run() {
	defer close(p.done)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[vt] parser task panicked, marking unavailable: %v", r)
			close(p.failed)
		}
	}()

	for {
		select {
		case data, ok := <-p.chunks:
			if !ok {
				return
			}
			p.applyChunk(data)

		case req, ok := <-p.queries:
			if !ok {
				return
			}
			req.reply <- p.answer(req.q)
		}
	}
}

func (p *Parser) nextSeq() uint64 {
	p.seq++
	return p.seq
}

func (p *Parser) applyChunk(data []byte) {
	changes := p.term.write(data)

	if changes.AltScreenToggled {
		p.epoch++
		reason := ResetAltScreenExit
		if changes.EnteredAlt {
			reason = ResetAltScreenEnter
		}
		p.events.publish(Event{Event: EventReset, Seq: p.nextSeq(), Reason: reason, Epoch: p.epoch})

		entered := changes.EnteredAlt
		p.events.publish(Event{Event: EventMode, Seq: p.nextSeq(), AlternateScreen: &entered})

		p.publishFullSync()
		return
	}

	for _, row := range changes.ChangedLines {
		line := p.term.renderLine(p.term.vt, row, true)
		p.events.publish(Event{
			Event:      EventLine,
			Seq:        p.nextSeq(),
			Index:      row,
			TotalLines: p.term.rows,
			Line:       line,
		})
	}

	if changes.CursorMoved {
		cur := changes.Cursor
		p.events.publish(Event{Event: EventCursor, Seq: p.nextSeq(), Cursor: &cur})
	}
}

func (p *Parser) publishFullSync() {
	p.events.publish(Event{Event: EventSync, Seq: p.nextSeq(), Screen: p.snapshotLocked(true)})
}

func (p *Parser) snapshotLocked(styled bool) *ScreenState {
	rows := p.term.rowsCount()
	lines := make([]FormattedLine, rows)
	for i := 0; i < rows; i++ {
		lines[i] = p.term.line(i, styled)
	}
	firstLineIndex := p.term.scrollbackLen()
	return &ScreenState{
		Lines:           lines,
		Cursor:          p.term.cursor(),
		Cols:            p.term.colsCount(),
		Rows:            rows,
		AlternateScreen: p.term.isAltScreen(),
		FirstLineIndex:  firstLineIndex,
		TotalLines:      firstLineIndex + rows,
		Epoch:           p.epoch,
	}
}

func (p *Parser) answer(q Query) Reply {
	switch q.Kind {
	case QueryScreen:
		return Reply{Screen: p.snapshotLocked(q.Styled)}

	case QueryScrollback:
		lines := p.term.scrollbackSlice(q.Offset, q.Limit)
		out := make([]ScrollbackReplyLine, len(lines))
		for i, l := range lines {
			out[i] = ScrollbackReplyLine{Index: q.Offset + i, Text: l.Rendered}
		}
		return Reply{Scrollback: out}

	case QueryCursor:
		return Reply{Cursor: p.term.cursor()}

	case QueryResize:
		p.term.resize(q.Rows, q.Cols)
		p.epoch++
		p.events.publish(Event{Event: EventReset, Seq: p.nextSeq(), Reason: ResetResize, Epoch: p.epoch})
		p.publishFullSync()
		return Reply{Screen: p.snapshotLocked(true)}

	default:
		return Reply{}
	}
}
