package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const logBufferSize = 128

// FileLogger implements the Logger interface, writing logs asynchronously to
// a file so the edit pipeline never blocks on disk.
type FileLogger struct {
	logChan chan string
	file    *os.File
	waiter  sync.WaitGroup
	mu      sync.Mutex // protects the file handle during Close
}

// NewFileLogger creates a logger that appends to the given file path,
// creating the directory if needed.
func NewFileLogger(filePath string) (*FileLogger, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}

	logger := &FileLogger{
		logChan: make(chan string, logBufferSize),
		file:    f,
	}

	logger.waiter.Add(1)
	go logger.writer()

	return logger, nil
}

// writer drains the channel in the background and appends to the file.
func (l *FileLogger) writer() {
	defer l.waiter.Done()
	for msg := range l.logChan {
		l.mu.Lock()
		if l.file != nil {
			_, _ = l.file.WriteString(msg)
		}
		l.mu.Unlock()
	}
}

// Log formats the message with a timestamp and queues it. When the buffer is
// full the message is dropped rather than stalling the caller.
func (l *FileLogger) Log(format string, args ...interface{}) {
	now := time.Now().Format("2006-01-02T15:04:05.000Z07:00")
	msg := fmt.Sprintf("[%s] %s\n", now, fmt.Sprintf(format, args...))

	select {
	case l.logChan <- msg:
	default:
	}
}

// IsEnabled returns true for FileLogger.
func (l *FileLogger) IsEnabled() bool {
	return true
}

// Close stops the writer goroutine and closes the log file.
func (l *FileLogger) Close() error {
	close(l.logChan)
	l.waiter.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

var _ Logger = (*FileLogger)(nil)
