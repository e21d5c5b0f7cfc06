package span

import "fmt"

// PartitionError describes the first violation of the partition invariant.
type PartitionError struct {
	Index  int
	Reason string
}

func (e *PartitionError) Error() string {
	return fmt.Sprintf("span %d: %s", e.Index, e.Reason)
}

// Validate checks that spans form a gap-free, non-overlapping partition of buf
// whose texts match the buffer.
func Validate(buf string, spans []Span) error {
	if len(spans) == 0 {
		return &PartitionError{Index: -1, Reason: "empty partition"}
	}

	pos := 0
	for i, s := range spans {
		switch {
		case s.Length < 0:
			return &PartitionError{Index: i, Reason: fmt.Sprintf("negative length %d", s.Length)}
		case s.Start != pos:
			return &PartitionError{Index: i, Reason: fmt.Sprintf("starts at %d, want %d", s.Start, pos)}
		case s.End() > len(buf):
			return &PartitionError{Index: i, Reason: fmt.Sprintf("ends at %d past buffer length %d", s.End(), len(buf))}
		case buf[s.Start:s.End()] != s.Text:
			return &PartitionError{Index: i, Reason: fmt.Sprintf("text %q does not match buffer", s.Text)}
		}
		pos = s.End()
	}

	if pos != len(buf) {
		return &PartitionError{Index: len(spans) - 1, Reason: fmt.Sprintf("ends at %d, want %d", pos, len(buf))}
	}
	return nil
}
