package paginate

import (
	"context"

	"github.com/vinodismyname/itemsort/internal/items"
)

// GroupStream is a pull iterator over ordered item groups. Next returns
// (nil, nil) once the stream is exhausted. Callers advance it exactly once per
// accepted or rejected group and never materialize the whole result.
type GroupStream interface {
	Next(ctx context.Context) (*items.ItemGroup, error)
	Close(ctx context.Context) error
}

// SliceStream serves groups from an in-memory slice. It counts fetches so tests
// can assert how far a consumer advanced.
type SliceStream struct {
	groups  []items.ItemGroup
	pos     int
	fetched int
	closed  bool
}

// NewSliceStream wraps groups without copying them.
func NewSliceStream(groups []items.ItemGroup) *SliceStream {
	return &SliceStream{groups: groups}
}

// Next returns the next group, honoring cancellation.
func (s *SliceStream) Next(ctx context.Context) (*items.ItemGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.fetched++
	if s.closed || s.pos >= len(s.groups) {
		return nil, nil
	}
	g := s.groups[s.pos]
	s.pos++
	return &g, nil
}

// Close ends the stream.
func (s *SliceStream) Close(context.Context) error {
	s.closed = true
	return nil
}

// Fetched reports how many times Next was called.
func (s *SliceStream) Fetched() int { return s.fetched }

// Closed reports whether Close was called.
func (s *SliceStream) Closed() bool { return s.closed }
