package ingest

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/fsnotify/fsnotify"
)

// FileSource reads raw events from a JSON-lines file. With Follow set it
// keeps delivering lines appended to the file until ctx is done.
type FileSource struct {
	Path   string
	Follow bool
}

func NewFileSource(path string, follow bool) *FileSource {
	return &FileSource{Path: path, Follow: follow}
}

func (s *FileSource) Run(ctx context.Context, handle Handler) error {
	errFactory := errors.New()

	f, err := os.Open(s.Path)
	if err != nil {
		return errFactory.Wrap(errors.ErrSourceFailed, err)
	}
	defer f.Close()

	var watcher *fsnotify.Watcher
	if s.Follow {
		// watch before the first read so no append is missed
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			return errFactory.Wrap(errors.ErrSourceFailed, err)
		}
		defer watcher.Close()

		if err := watcher.Add(s.Path); err != nil {
			return errFactory.Wrap(errors.ErrSourceFailed, err)
		}
	}

	r := &lineReader{r: bufio.NewReader(f)}
	if err := r.drain(ctx, handle); err != nil {
		return errFactory.Wrap(errors.ErrSourceFailed, err)
	}

	if !s.Follow {
		r.flush(ctx, handle)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == 0 {
				continue
			}
			if err := r.drain(ctx, handle); err != nil {
				return errFactory.Wrap(errors.ErrSourceFailed, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return errFactory.Wrap(errors.ErrSourceFailed, err)
		}
	}
}

// lineReader splits a growing file into lines, holding back a trailing
// partial line until its newline arrives.
type lineReader struct {
	r       *bufio.Reader
	partial []byte
}

func (l *lineReader) drain(ctx context.Context, handle Handler) error {
	for ctx.Err() == nil {
		chunk, err := l.r.ReadBytes('\n')
		l.partial = append(l.partial, chunk...)

		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		line := bytes.Clone(bytes.TrimSpace(l.partial))
		l.partial = l.partial[:0]
		if len(line) > 0 {
			handle(ctx, line)
		}
	}

	return nil
}

// flush delivers an unterminated final line.
func (l *lineReader) flush(ctx context.Context, handle Handler) {
	if line := bytes.TrimSpace(l.partial); len(line) > 0 {
		handle(ctx, line)
	}
	l.partial = nil
}
