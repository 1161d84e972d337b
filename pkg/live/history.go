package live

import "sync"

// history is a ring of recently encoded patch frames, kept per
// session so a reconnecting client can replay what it missed instead
// of rebuilding its tree. Frames are added with consecutive sequence
// numbers; once the ring wraps, the oldest sequences fall out and a
// resync beyond them needs a full rebuild.
type history struct {
	mu       sync.RWMutex
	entries  [][]byte
	seqs     []uint64
	head     int
	count    int
	capacity int
}

func newHistory(capacity int) *history {
	if capacity <= 0 {
		capacity = 256
	}
	return &history{
		entries:  make([][]byte, capacity),
		seqs:     make([]uint64, capacity),
		capacity: capacity,
	}
}

// add stores an encoded frame under its sequence number.
func (h *history) add(seq uint64, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cp := make([]byte, len(frame))
	copy(cp, frame)

	h.entries[h.head] = cp
	h.seqs[h.head] = seq
	h.head = (h.head + 1) % h.capacity
	if h.count < h.capacity {
		h.count++
	}
}

// since returns the frames with sequence greater than lastSeq, oldest
// first. ok is false when the ring no longer holds lastSeq+1, meaning
// the caller needs a full rebuild instead of a replay.
func (h *history) since(lastSeq uint64) (frames [][]byte, ok bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		// Nothing sent yet; a client at seq 0 is already current.
		return nil, lastSeq == 0
	}

	oldestIdx := (h.head - h.count + h.capacity) % h.capacity
	oldest := h.seqs[oldestIdx]
	newest := h.seqs[(h.head-1+h.capacity)%h.capacity]

	if lastSeq >= newest {
		return nil, true
	}
	if lastSeq+1 < oldest {
		return nil, false
	}

	for i := 0; i < h.count; i++ {
		idx := (oldestIdx + i) % h.capacity
		if h.seqs[idx] > lastSeq {
			frames = append(frames, h.entries[idx])
		}
	}
	return frames, true
}

// newest returns the highest stored sequence, zero when empty.
func (h *history) newest() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.count == 0 {
		return 0
	}
	return h.seqs[(h.head-1+h.capacity)%h.capacity]
}

// size returns the number of stored frames.
func (h *history) size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// clear drops all stored frames.
func (h *history) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.entries {
		h.entries[i] = nil
		h.seqs[i] = 0
	}
	h.head = 0
	h.count = 0
}
