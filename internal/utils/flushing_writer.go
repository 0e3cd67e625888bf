package utils

import "io"

type flusher interface {
	Flush() error
}

type flushingWriter struct {
	writer  io.Writer
	flusher flusher
}

// NewFlushingWriter returns a writer that flushes after every write when the
// underlying writer buffers output.
func NewFlushingWriter(writer io.Writer) io.Writer {
	bufferedWriter, buffered := writer.(flusher)
	if !buffered {
		return writer
	}
	return &flushingWriter{writer: writer, flusher: bufferedWriter}
}

func (writer *flushingWriter) Write(data []byte) (int, error) {
	bytesWritten, writeError := writer.writer.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}
	return bytesWritten, writer.flusher.Flush()
}
