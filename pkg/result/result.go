// Package result implements the Result Stream: the sink Produce and the write
// operators write result rows into. Two sinks ship here: Buffer, an in-memory sink for
// tests and the bench CLI command, and ChannelStream, which delivers rows incrementally
// over a channel instead of a visitor callback, since nothing downstream of this sink
// needs to run on the producer's goroutine.
package result

import "github.com/konr4dp/memgraph/pkg/value"

// Summary carries execution statistics reported once a query finishes, or the error
// that ended it early in place of a normal row summary.
type Summary struct {
	RowsProduced int
	Err          error
}

// Row is one result row: Typed Values in the column order the header declared.
type Row struct {
	Values []value.Typed
}

// Stream is the interface Produce and the write operators write into.
type Stream interface {
	WriteHeader(columns []string) error
	WriteRow(values []value.Typed) error
	Summary(s Summary) error
}

// Buffer accumulates the whole result in memory. Used by tests and by the bench CLI
// command, which needs the full row set to compute its own statistics afterward.
type Buffer struct {
	Columns []string
	Rows    []Row
	Stats   Summary
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer { return &Buffer{} }

func (b *Buffer) WriteHeader(columns []string) error {
	b.Columns = columns
	return nil
}

func (b *Buffer) WriteRow(values []value.Typed) error {
	row := make([]value.Typed, len(values))
	copy(row, values)
	b.Rows = append(b.Rows, Row{Values: row})
	return nil
}

func (b *Buffer) Summary(s Summary) error {
	b.Stats = s
	return nil
}

// ChannelStream delivers the header and every row over channels as they are produced,
// so a consumer (a future wire-protocol layer, out of scope here) does not have to wait
// for the whole result. The writer calls Summary exactly once, after the final row;
// Summary closes Rows, which unblocks a consumer ranging over Rows.
type ChannelStream struct {
	Header     chan []string
	Rows       chan Row
	Done       chan Summary
	headerSent bool
}

// NewChannelStream creates a ChannelStream with the given row buffering depth.
func NewChannelStream(bufferSize int) *ChannelStream {
	return &ChannelStream{
		Header: make(chan []string, 1),
		Rows:   make(chan Row, bufferSize),
		Done:   make(chan Summary, 1),
	}
}

func (s *ChannelStream) WriteHeader(columns []string) error {
	if s.headerSent {
		return nil
	}
	s.headerSent = true
	s.Header <- columns
	return nil
}

func (s *ChannelStream) WriteRow(values []value.Typed) error {
	row := make([]value.Typed, len(values))
	copy(row, values)
	s.Rows <- Row{Values: row}
	return nil
}

// Summary reports the final statistics and closes Rows, signalling the consumer that no
// further rows will arrive.
func (s *ChannelStream) Summary(sum Summary) error {
	close(s.Rows)
	s.Done <- sum
	close(s.Done)
	return nil
}
