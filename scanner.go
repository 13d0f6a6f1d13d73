package hfile

// Scanner iterates over a Reader's entries in key order. A Scanner is not
// safe for concurrent use, but independent Scanners over the same Reader
// are -- the Reader's block cache is the only shared mutable state, and it
// is safe for concurrent access.
type Scanner struct {
	r *Reader

	block int // index into r.dataIndex of the loaded block, or -1 before any block is loaded
	data  []byte

	entryOff int // offset of the current entry's 8-byte header within data
	keyOff   int
	keyLen   int
	valOff   int
	valLen   int

	seeked bool
}

// entryHeaderSize is the width of the per-entry (key length, value length)
// header prefixing every key/value pair inside a data block.
const entryHeaderSize = 8

// loadBlock decodes data block i and resets the cursor to its first entry.
func (s *Scanner) loadBlock(i int) error {
	data, err := s.r.readDataBlock(i)
	if err != nil {
		return err
	}
	s.block = i
	s.data = data
	return s.setEntry(0)
}

// setEntry positions the cursor at the entry whose 8-byte header begins at
// off, decoding its key/value bounds.
func (s *Scanner) setEntry(off int) error {
	if off+entryHeaderSize > len(s.data) {
		return ErrShortRead
	}
	klen := int(getUint32(s.data[off : off+4]))
	vlen := int(getUint32(s.data[off+4 : off+8]))
	keyOff := off + entryHeaderSize
	valOff := keyOff + klen
	if valOff+vlen > len(s.data) {
		return ErrShortRead
	}
	s.entryOff = off
	s.keyOff = keyOff
	s.keyLen = klen
	s.valOff = valOff
	s.valLen = vlen
	return nil
}

// atBlockEnd reports whether the current entry is the last one in its
// block.
func (s *Scanner) atBlockEnd() bool {
	return s.valOff+s.valLen >= len(s.data)
}

// GetKey returns the key at the current cursor position. Valid only after
// a successful seek.
func (s *Scanner) GetKey() ([]byte, error) {
	if !s.seeked {
		return nil, ErrNotSeeked
	}
	return s.data[s.keyOff : s.keyOff+s.keyLen], nil
}

// GetValue returns the value at the current cursor position. Valid only
// after a successful seek.
func (s *Scanner) GetValue() ([]byte, error) {
	if !s.seeked {
		return nil, ErrNotSeeked
	}
	return s.data[s.valOff : s.valOff+s.valLen], nil
}

// SeekToFirst positions the cursor at the smallest key in the file. It
// reports false if the file has no entries.
func (s *Scanner) SeekToFirst() (bool, error) {
	if s.r.dataIndex.count() == 0 {
		s.seeked = false
		return false, nil
	}
	if err := s.loadBlock(0); err != nil {
		return false, err
	}
	s.seeked = true
	return true, nil
}

// SeekTo resolves the block that may hold key via blockContainingKey and
// runs an intra-block seek for the greatest key <= key. It returns -1 if
// key precedes every key in the file (the scanner is left Unseeked), 0 if
// an exact match positioned the cursor on key, or 1 if the cursor was
// positioned on the greatest key strictly less than key.
//
// Because blockContainingKey never returns a block whose first key
// exceeds key, the answer always lies within the resolved block itself:
// an intra-block seek never needs to fall through to a neighboring block.
func (s *Scanner) SeekTo(key []byte) (int, error) {
	idx := s.r.dataIndex.blockContainingKey(key)
	if idx < 0 {
		s.seeked = false
		return -1, nil
	}
	if err := s.loadBlock(idx); err != nil {
		return 0, err
	}
	result, err := s.seekWithinBlock(key, false)
	if err != nil {
		return 0, err
	}
	s.seeked = true
	return result, nil
}

// SeekBefore positions the cursor at the largest key strictly less than
// key. It reports false if no such key exists (key is at or before the
// start of the file).
func (s *Scanner) SeekBefore(key []byte) (bool, error) {
	idx := s.r.dataIndex.blockContainingKey(key)
	if idx < 0 {
		s.seeked = false
		return false, nil
	}
	if bytesEqual(s.r.dataIndex.firstKeys[idx], key) {
		// The block's first key is the target itself, so nothing in this
		// block is strictly less than it; the answer, if any, is the last
		// entry of the previous block.
		if idx == 0 {
			s.seeked = false
			return false, nil
		}
		idx--
		if err := s.loadBlock(idx); err != nil {
			return false, err
		}
		if err := s.seekToLastEntry(); err != nil {
			return false, err
		}
		s.seeked = true
		return true, nil
	}
	if err := s.loadBlock(idx); err != nil {
		return false, err
	}
	if _, err := s.seekWithinBlock(key, true); err != nil {
		return false, err
	}
	s.seeked = true
	return true, nil
}

// seekWithinBlock scans the current block's entries in order from the
// first, looking for target. With before=false it implements HFile's
// blockSeek(seekBefore=false): return 0 on an exact match, or back up to
// the previous entry and return 1 on overshoot or end-of-block. With
// before=true, an exact match also backs up to the previous entry (the
// answer must be strictly less than target); the caller is responsible
// for ensuring the block actually contains an entry less than target
// (SeekBefore's first-key pre-check establishes this), so the "back up"
// step here always has a valid previous entry to land on.
func (s *Scanner) seekWithinBlock(target []byte, before bool) (int, error) {
	cmp := s.r.comparator
	off := 0
	prevOff := -1
	for {
		if err := s.setEntry(off); err != nil {
			return 0, err
		}
		c := cmp(s.data[s.keyOff:s.keyOff+s.keyLen], target)
		if c == 0 {
			if !before {
				return 0, nil
			}
			if err := s.setEntry(prevOff); err != nil {
				return 0, err
			}
			return 1, nil
		}
		if c > 0 {
			// Overshoot: the previous entry is the greatest key <= target.
			if err := s.setEntry(prevOff); err != nil {
				return 0, err
			}
			return 1, nil
		}
		// c < 0: this entry is < target: keep scanning, unless it's the
		// last entry in the block, in which case it is itself the answer
		// (the target lies after every key in the block).
		nextOff := s.valOff + s.valLen
		if nextOff >= len(s.data) {
			return 1, nil
		}
		prevOff = off
		off = nextOff
	}
}

// seekToLastEntry advances the cursor to the final entry of the currently
// loaded block.
func (s *Scanner) seekToLastEntry() error {
	off := 0
	for {
		if err := s.setEntry(off); err != nil {
			return err
		}
		next := s.valOff + s.valLen
		if next >= len(s.data) {
			return nil
		}
		off = next
	}
}

// Next advances the cursor to the following entry, reporting false once
// the end of the file is reached.
func (s *Scanner) Next() (bool, error) {
	if !s.seeked {
		return false, ErrNotSeeked
	}
	if !s.atBlockEnd() {
		if err := s.setEntry(s.valOff + s.valLen); err != nil {
			return false, err
		}
		return true, nil
	}
	if s.block+1 >= s.r.dataIndex.count() {
		s.seeked = false
		return false, nil
	}
	if err := s.loadBlock(s.block + 1); err != nil {
		return false, err
	}
	return true, nil
}
