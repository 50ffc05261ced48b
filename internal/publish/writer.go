package publish

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/mExArb/sharpshooter/pkg/types"
)

// WriterSink renders opportunities one per line. It backs the console
// output of the long-running mode.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Publish(_ context.Context, opp types.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, opp.String())
	return err
}

func (s *WriterSink) Close() error {
	return nil
}
