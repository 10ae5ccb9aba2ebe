package bilrost

import (
	"bufio"
	"io"
	"sync"
)

// StreamWriter writes length-delimited Bilrost messages to an io.Writer,
// buffering for efficiency. It is safe for use from a single goroutine,
// not for concurrent use from multiple.
type StreamWriter struct {
	w      *bufio.Writer
	depth  int
	err    error
	closed bool
}

var streamWriterPool = sync.Pool{
	New: func() any { return &StreamWriter{} },
}

// NewStreamWriter creates a StreamWriter with the default buffer size.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return NewStreamWriterSize(w, 4096)
}

// NewStreamWriterSize creates a StreamWriter with a specified buffer size.
func NewStreamWriterSize(w io.Writer, bufSize int) *StreamWriter {
	return &StreamWriter{w: bufio.NewWriterSize(w, bufSize)}
}

// GetStreamWriter gets a StreamWriter from the pool; call PutStreamWriter
// to return it.
func GetStreamWriter(w io.Writer) *StreamWriter {
	sw := streamWriterPool.Get().(*StreamWriter)
	sw.Reset(w)
	return sw
}

// PutStreamWriter returns a StreamWriter to the pool.
func PutStreamWriter(sw *StreamWriter) {
	if sw == nil {
		return
	}
	sw.w = nil
	streamWriterPool.Put(sw)
}

// Reset reconfigures the StreamWriter to write to a new io.Writer.
func (sw *StreamWriter) Reset(w io.Writer) {
	if sw.w == nil {
		sw.w = bufio.NewWriterSize(w, 4096)
	} else {
		sw.w.Reset(w)
	}
	sw.depth = 0
	sw.err = nil
	sw.closed = false
}

// Flush writes any buffered data to the underlying writer.
func (sw *StreamWriter) Flush() error {
	if sw.err != nil {
		return sw.err
	}
	if err := sw.w.Flush(); err != nil {
		sw.err = err
	}
	return sw.err
}

// Close flushes and releases resources. The underlying io.Writer is not
// closed.
func (sw *StreamWriter) Close() error {
	if sw.closed {
		return nil
	}
	sw.closed = true
	return sw.Flush()
}

// Err returns the first error encountered while writing.
func (sw *StreamWriter) Err() error { return sw.err }

// WriteMessage encodes m and writes it length-prefixed to the stream.
func (sw *StreamWriter) WriteMessage(m Message) error {
	if sw.err != nil {
		return sw.err
	}
	if sw.closed {
		sw.err = errClosedStream
		return sw.err
	}
	data, err := MarshalLengthPrefixed(nil, m)
	if err != nil {
		sw.err = err
		return err
	}
	if _, err := sw.w.Write(data); err != nil {
		sw.err = err
	}
	return sw.err
}

var errClosedStream = streamClosedError{}

type streamClosedError struct{}

func (streamClosedError) Error() string { return "bilrost: write to closed stream" }

// StreamReader reads length-delimited Bilrost messages from an
// io.Reader, buffering for efficiency.
type StreamReader struct {
	r    *bufio.Reader
	mode Mode
	opts Options
	err  error
}

var streamReaderPool = sync.Pool{
	New: func() any { return &StreamReader{opts: DefaultOptions} },
}

// NewStreamReader creates a StreamReader with the default buffer size and
// expedient decoding.
func NewStreamReader(r io.Reader) *StreamReader {
	return NewStreamReaderSize(r, 4096)
}

// NewStreamReaderSize creates a StreamReader with a specified buffer
// size.
func NewStreamReaderSize(r io.Reader, bufSize int) *StreamReader {
	return &StreamReader{r: bufio.NewReaderSize(r, bufSize), opts: DefaultOptions}
}

// GetStreamReader gets a StreamReader from the pool; call PutStreamReader
// to return it.
func GetStreamReader(r io.Reader) *StreamReader {
	sr := streamReaderPool.Get().(*StreamReader)
	sr.Reset(r)
	return sr
}

// PutStreamReader returns a StreamReader to the pool.
func PutStreamReader(sr *StreamReader) {
	if sr == nil {
		return
	}
	sr.r = nil
	streamReaderPool.Put(sr)
}

// Reset reconfigures the StreamReader to read from a new io.Reader.
func (sr *StreamReader) Reset(r io.Reader) {
	if sr.r == nil {
		sr.r = bufio.NewReaderSize(r, 4096)
	} else {
		sr.r.Reset(r)
	}
	sr.err = nil
}

// SetMode selects expedient or distinguished decoding for subsequent
// reads.
func (sr *StreamReader) SetMode(mode Mode) { sr.mode = mode }

// SetOptions updates the reader's decode options.
func (sr *StreamReader) SetOptions(opts Options) { sr.opts = opts }

// Err returns the first error encountered while reading.
func (sr *StreamReader) Err() error { return sr.err }

// ReadMessage reads one length-prefixed message from the stream into m.
func (sr *StreamReader) ReadMessage(m Message) (Canonicity, error) {
	if sr.err != nil {
		return Canonical, sr.err
	}
	n, err := readStreamVarint(sr.r)
	if err != nil {
		sr.err = err
		return Canonical, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(sr.r, buf); err != nil {
		sr.err = unexpectedEOF(err)
		return Canonical, sr.err
	}
	canon, err := UnmarshalWithOptions(buf, m, sr.mode, sr.opts)
	if err != nil {
		sr.err = err
	}
	return canon, err
}

// Buffered returns the number of bytes available in the read buffer.
func (sr *StreamReader) Buffered() int { return sr.r.Buffered() }

func readStreamVarint(r *bufio.Reader) (uint64, error) {
	var n uint64
	mult := uint64(1)
	for i := 0; i < 8; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, unexpectedEOF(err)
		}
		n += uint64(b) * mult
		if b < 0x80 {
			return n, nil
		}
		mult <<= 7
	}
	b, err := r.ReadByte()
	if err != nil {
		return 0, unexpectedEOF(err)
	}
	return n + uint64(b)<<56, nil
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// MessageIterator iterates the length-delimited messages of a stream,
// decoding each into the target passed to Next; the target is not reset
// between messages.
type MessageIterator struct {
	reader *StreamReader
	err    error
}

// NewMessageIterator creates an iterator reading from r.
func NewMessageIterator(r io.Reader) *MessageIterator {
	return &MessageIterator{reader: NewStreamReader(r)}
}

// SetMode selects expedient or distinguished decoding for Next.
func (it *MessageIterator) SetMode(mode Mode) { it.reader.SetMode(mode) }

// Next reads the next message into m, reporting whether one was
// available. It returns false both on a clean end-of-stream and on
// error; distinguish the two with Err.
func (it *MessageIterator) Next(m Message) bool {
	if it.reader.Buffered() == 0 {
		if _, err := it.reader.r.Peek(1); err == io.EOF {
			return false
		}
	}
	if _, err := it.reader.ReadMessage(m); err != nil {
		if err == io.ErrUnexpectedEOF && it.reader.Buffered() == 0 {
			return false
		}
		it.err = err
		return false
	}
	return true
}

// Err returns any error that ended iteration early.
func (it *MessageIterator) Err() error { return it.err }
