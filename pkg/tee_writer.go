package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// TeeWriter fans every write out to all of its writers. A failing writer
// does not stop the others, its error is combined into the returned one.
type TeeWriter struct {
	writers []io.Writer
}

func NewTeeWriter(writers ...io.Writer) *TeeWriter {
	tw := &TeeWriter{}
	for _, w := range writers {
		if w != nil {
			tw.writers = append(tw.writers, w)
		}
	}
	return tw
}

func (tw *TeeWriter) Len() int {
	return len(tw.writers)
}

// Write reports len(p) when at least one writer accepted the whole buffer,
// so log libraries do not treat a partially failing sink as a short write.
func (tw *TeeWriter) Write(p []byte) (int, error) {
	var (
		err       error
		succeeded bool
	)
	for _, w := range tw.writers {
		written, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		if written == len(p) {
			succeeded = true
		}
	}
	if succeeded {
		return len(p), err
	}
	return 0, err
}
