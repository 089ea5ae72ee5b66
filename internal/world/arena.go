package world

// chunkArena is a fixed-capacity pool of chunk containers. Slots keep their
// block buffers across activations so steady-state streaming allocates
// nothing. All access happens on the scheduling thread.
type chunkArena struct {
	slots []Chunk
	free  []int32
}

func newChunkArena(capacity int) *chunkArena {
	a := &chunkArena{
		slots: make([]Chunk, capacity),
		free:  make([]int32, 0, capacity),
	}
	for i := capacity - 1; i >= 0; i-- {
		a.free = append(a.free, int32(i))
	}
	return a
}

// acquire hands out a free slot index, or false when the arena is exhausted.
func (a *chunkArena) acquire() (int32, bool) {
	if len(a.free) == 0 {
		return 0, false
	}
	i := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]
	return i, true
}

// release returns a slot to the free list after its container retired.
func (a *chunkArena) release(i int32) {
	a.slots[i].retire()
	a.free = append(a.free, i)
}

func (a *chunkArena) chunk(i int32) *Chunk { return &a.slots[i] }
