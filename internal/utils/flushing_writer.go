package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

type syncer interface {
	Sync() error
}

// FlushingWriter serializes writes and pushes every status line through buffered
// writers immediately so progress appears before a long-running step finishes.
type FlushingWriter struct {
	writer io.Writer
	mutex  sync.Mutex
}

// NewFlushingWriter wraps writer. A nil writer discards output.
func NewFlushingWriter(writer io.Writer) io.Writer {
	if writer == nil {
		return io.Discard
	}
	if existingWriter, alreadyWrapped := writer.(*FlushingWriter); alreadyWrapped {
		return existingWriter
	}
	return &FlushingWriter{writer: writer}
}

// Write delegates to the wrapped writer, then flushes buffered writers. Sync errors
// from terminals and pipes are ignored because they do not support fsync.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	bytesWritten, writeError := flushingWriter.writer.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}

	switch target := flushingWriter.writer.(type) {
	case flusher:
		if flushError := target.Flush(); flushError != nil {
			return bytesWritten, flushError
		}
	case syncer:
		_ = target.Sync()
	}

	return bytesWritten, nil
}
