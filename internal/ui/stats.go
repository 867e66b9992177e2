package ui

import (
	"fmt"
	"sync/atomic"

	"github.com/dustin/go-humanize"
)

// Stats aggregates a download run across episode workers.
type Stats struct {
	Episodes atomic.Int64
	Partial  atomic.Int64
	Failed   atomic.Int64
	Images   atomic.Int64
	Bytes    atomic.Int64
}

func (s *Stats) Summary() string {
	out := fmt.Sprintf("%d episodes, %d images, %s",
		s.Episodes.Load(), s.Images.Load(), humanize.IBytes(uint64(s.Bytes.Load())))

	if n := s.Partial.Load(); n > 0 {
		out += fmt.Sprintf(", %d partial", n)
	}
	if n := s.Failed.Load(); n > 0 {
		out += fmt.Sprintf(", %d failed", n)
	}

	return out
}
