package diag

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestRecordAndHistoryOrder(t *testing.T) {
	s := New(10)
	s.Info("parser", "started")
	s.Warning("store", "no-op setProps")
	s.Errorf("coalesce", errors.New("boom"))

	hist := s.History(0)
	assert.Equal(t, 3, len(hist))
	assert.Equal(t, SeverityError, hist[2].Severity)
}

func TestHistoryEvictsOldest(t *testing.T) {
	s := New(2)
	s.Info("a", "1")
	s.Info("a", "2")
	s.Info("a", "3")

	hist := s.History(0)
	assert.Equal(t, 2, len(hist))
	assert.Equal(t, "2", hist[0].Message)
	assert.Equal(t, "3", hist[1].Message)
}

func TestHistoryLimit(t *testing.T) {
	s := New(10)
	for i := 0; i < 5; i++ {
		s.Info("a", "x")
	}

	assert.Equal(t, 2, len(s.History(2)))
	assert.Equal(t, 5, s.Len())
}
