//nolint:revive // cognitive-complexity is acceptable for event loops
// Package watchsrc is the one concrete input transport mdstream watch
// ships: a "tail -f"-style Markdown file source that reads newly
// appended bytes and hands them to a consumer, debouncing rapid
// editor writes.
package watchsrc

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/connerohnesorge/mdstream/internal/docerrs"
)

// defaultDebounce is the default debounce duration for file events.
// Editors often perform multiple writes in rapid succession.
const defaultDebounce = 150 * time.Millisecond

// Chunk is a span of newly observed bytes read from the watched file.
type Chunk struct {
	Text  string
	Final bool // true once the file is removed or renamed; Close sends no final Chunk
}

// Source tails a single Markdown file using fsnotify, emitting a Chunk
// each time new bytes are appended to it.
type Source struct {
	watcher  *fsnotify.Watcher
	filePath string
	offset   int64
	chunks   chan Chunk
	errors   chan error
	done     chan struct{}
	debounce time.Duration
	mu       sync.Mutex
	closed   bool
}

// New opens a Source tailing filePath. The file must exist at creation
// time; content already in the file is delivered as the first Chunk.
func New(filePath string) (*Source, error) {
	return NewWithDebounce(filePath, defaultDebounce)
}

// NewWithDebounce is New with a custom debounce window.
func NewWithDebounce(filePath string, debounce time.Duration) (*Source, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, &docerrs.WatchSourceUnreadableError{Path: absPath, Err: err}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		_ = fsWatcher.Close()

		return nil, err
	}

	s := &Source{
		watcher:  fsWatcher,
		filePath: absPath,
		chunks:   make(chan Chunk, 4),
		errors:   make(chan error, 1),
		done:     make(chan struct{}),
		debounce: debounce,
	}

	initial, readErr := s.readNewBytes()
	if readErr != nil {
		_ = fsWatcher.Close()

		return nil, readErr
	}
	if initial != "" || info.Size() == 0 {
		s.chunks <- Chunk{Text: initial}
	}

	go s.loop()

	return s, nil
}

// Chunks returns the channel new file content is delivered on.
func (s *Source) Chunks() <-chan Chunk { return s.chunks }

// Errors returns the channel unexpected read/watch errors are
// delivered on. Buffered with capacity 1; excess errors are dropped.
func (s *Source) Errors() <-chan error { return s.errors }

// Close stops the source and releases resources. Safe to call more
// than once.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)

	return s.watcher.Close()
}

func (s *Source) loop() {
	var (
		timer     *time.Timer
		timerChan <-chan time.Time
	)

	for {
		select {
		case <-s.done:
			if timer != nil {
				timer.Stop()
			}

			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			timer, timerChan = s.handleEvent(event, timer, timerChan)

		case <-timerChan:
			s.emit()
			timer = nil
			timerChan = nil

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendError(err)
		}
	}
}

func (s *Source) handleEvent(
	event fsnotify.Event,
	timer *time.Timer,
	timerChan <-chan time.Time,
) (*time.Timer, <-chan time.Time) {
	if !s.isWatchedFile(event.Name) {
		return timer, timerChan
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		s.chunks <- Chunk{Final: true}

		return timer, timerChan
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return timer, timerChan
	}

	if timer == nil {
		timer = time.NewTimer(s.debounce)

		return timer, timer.C
	}

	resetTimer(timer, s.debounce)

	return timer, timerChan
}

func resetTimer(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d)
}

func (s *Source) isWatchedFile(eventPath string) bool {
	absEventPath, err := filepath.Abs(eventPath)
	if err != nil {
		return false
	}

	return absEventPath == s.filePath
}

func (s *Source) emit() {
	text, err := s.readNewBytes()
	if err != nil {
		s.sendError(err)

		return
	}
	if text == "" {
		return
	}

	select {
	case s.chunks <- Chunk{Text: text}:
	default:
		// consumer behind; hold the bytes for the next debounce tick
		s.mu.Lock()
		s.offset -= int64(len(text))
		s.mu.Unlock()
	}
}

func (s *Source) readNewBytes() (string, error) {
	f, err := os.Open(s.filePath)
	if err != nil {
		return "", &docerrs.WatchSourceUnreadableError{Path: s.filePath, Err: err}
	}
	defer f.Close()

	s.mu.Lock()
	offset := s.offset
	s.mu.Unlock()

	info, err := f.Stat()
	if err != nil {
		return "", &docerrs.WatchSourceUnreadableError{Path: s.filePath, Err: err}
	}
	if info.Size() < offset {
		// file was truncated/replaced; restart from the beginning
		offset = 0
	}

	if _, err := f.Seek(offset, 0); err != nil {
		return "", &docerrs.WatchSourceUnreadableError{Path: s.filePath, Err: err}
	}

	buf := make([]byte, info.Size()-offset)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return "", nil //nolint:nilerr // EOF on an empty delta is not an error
	}

	s.mu.Lock()
	s.offset = offset + int64(n)
	s.mu.Unlock()

	return string(buf[:n]), nil
}

func (s *Source) sendError(err error) {
	select {
	case s.errors <- fmt.Errorf("watchsrc: %w", err):
	default:
	}
}
