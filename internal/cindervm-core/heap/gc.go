package heap

// Phase identifies where the incremental collector is in one cycle.
// Idle -> Marking -> Sweeping -> Idle. Allocation and every mutation
// that installs a reference into a live object keep going throughout;
// the phase only governs how the collector itself reacts to them.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseMarking
	PhaseSweeping
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseMarking:
		return "marking"
	case PhaseSweeping:
		return "sweeping"
	default:
		return "unknown"
	}
}

// debitAlloc is charged once per allocation. While idle, it accumulates
// until enough allocations have happened since the last cycle to justify
// starting a new one; once a cycle is underway, each allocation instead
// advances that cycle by one bounded unit of work. This is what makes
// collection incremental: no single allocation ever pays for scanning or
// sweeping the whole heap.
func (h *Heap) debitAlloc() {
	h.allocsSinceCycle++
	if h.phase == PhaseIdle {
		if h.allocsSinceCycle >= h.cfg.InitialHeapObjects {
			h.startCycle()
		}
		return
	}
	h.Step()
}

func (h *Heap) startCycle() {
	h.cycleNumber++
	h.phase = PhaseMarking
	h.allocsSinceCycle = 0
	h.grayQueue = h.grayQueue[:0]
	h.snapshotRoots()
	h.emit(CollectionEvent{Phase: PhaseMarking, CycleNumber: h.cycleNumber})
}

// snapshotRoots shades every currently reachable root gray: the frame
// stack's locals and operands (via RootProvider), and every Value
// explicitly pinned by native code.
func (h *Heap) snapshotRoots() {
	if h.roots != nil {
		h.roots.EnumerateRoots(h.shadeRoot)
	}
	for _, v := range h.pins {
		h.shadeRoot(v)
	}
}

func (h *Heap) shadeRoot(v Value) {
	if ref, ok := refObject(v); ok && ref.getColor() == white {
		ref.setColor(gray)
		h.grayQueue = append(h.grayQueue, ref)
	}
}

// Step performs one bounded unit of collector work: a handful of gray
// objects scanned during marking, or a handful of objects inspected
// during sweeping. Called while idle, it starts a new cycle (snapshotting
// the roots). It is called automatically by every allocation once a cycle
// is underway; host code may also call it directly to make collection
// progress without allocating (see VM.Step in the public facade).
func (h *Heap) Step() {
	switch h.phase {
	case PhaseIdle:
		h.startCycle()
	case PhaseMarking:
		h.stepMark()
	case PhaseSweeping:
		h.stepSweep()
	}
}

func (h *Heap) stepMark() {
	budget := h.cfg.MarkWorkPerAlloc
	visited := 0
	for visited < budget && len(h.grayQueue) > 0 {
		n := len(h.grayQueue) - 1
		obj := h.grayQueue[n]
		h.grayQueue = h.grayQueue[:n]

		obj.setColor(black)
		obj.scanRefs(func(v Value) {
			if ref, ok := refObject(v); ok && ref.getColor() == white {
				ref.setColor(gray)
				h.grayQueue = append(h.grayQueue, ref)
			}
		})
		visited++
	}
	h.emit(CollectionEvent{Phase: PhaseMarking, CycleNumber: h.cycleNumber, ObjectsVisited: visited})

	if len(h.grayQueue) == 0 {
		h.phase = PhaseSweeping
		h.sweepPending = h.allObjectIDs()
		h.emit(CollectionEvent{Phase: PhaseSweeping, CycleNumber: h.cycleNumber})
	}
}

func (h *Heap) stepSweep() {
	budget := h.cfg.SweepWorkPerAlloc
	visited, freed := 0, 0
	for visited < budget && len(h.sweepPending) > 0 {
		n := len(h.sweepPending) - 1
		id := h.sweepPending[n]
		h.sweepPending = h.sweepPending[:n]

		obj, ok := h.objects.Get(id)
		if ok {
			if obj.getColor() == white {
				h.objects.Delete(id)
				h.stats.Live--
				h.stats.Freed++
				freed++
			} else {
				// Surviving object: flip back to white so the next cycle's
				// mark pass starts from a clean slate.
				obj.setColor(white)
			}
		}
		visited++
	}
	h.emit(CollectionEvent{Phase: PhaseSweeping, CycleNumber: h.cycleNumber, ObjectsVisited: visited, ObjectsFreed: freed})

	if len(h.sweepPending) == 0 {
		h.phase = PhaseIdle
		h.emit(CollectionEvent{Phase: PhaseIdle, CycleNumber: h.cycleNumber})
	}
}

func (h *Heap) allObjectIDs() []uint64 {
	ids := make([]uint64, 0, h.objects.Count())
	h.objects.Iter(func(id uint64, _ object) bool {
		ids = append(ids, id)
		return false
	})
	return ids
}

// writeBarrier implements the Dijkstra insertion barrier: storing a
// reference to a white object into a container the marker has already
// finished with (black) must shade that object gray, or the marker could
// finish the cycle without ever seeing it and collect a value still
// reachable through the mutated container.
func (h *Heap) writeBarrier(container object, v Value) {
	if h.phase != PhaseMarking {
		return
	}
	if container.getColor() != black {
		return
	}
	if ref, ok := refObject(v); ok && ref.getColor() == white {
		ref.setColor(gray)
		h.grayQueue = append(h.grayQueue, ref)
	}
}

// CollectFully drives the collector to completion from wherever it is
// (starting a fresh cycle first if idle), processing unbounded work. It
// exists for tests and for hosts that want a stop-the-world collection
// on demand; ordinary operation never needs it.
func (h *Heap) CollectFully() {
	if h.phase == PhaseIdle {
		h.startCycle()
	}
	for h.phase != PhaseIdle {
		saved := h.cfg
		h.cfg.MarkWorkPerAlloc = len(h.grayQueue) + 1
		h.cfg.SweepWorkPerAlloc = len(h.sweepPending) + 1
		h.Step()
		h.cfg = saved
	}
}
