package mt32emu

// Poly is a single note-on event. It owns up to four Partials for its
// lifetime and is drawn from a fixed free list sized to the partial pool,
// matching the source design's "no per-note allocation" rule.
type Poly struct {
	index int

	key      int
	velocity int
	sustain  bool

	partials [4]int // Partial pool indices, -1 if unused
	state    PartialState

	part int // owning Part index
	next int // intrusive singly-linked list index within the Part, -1 = end
}

func newPolyPool(n int) []Poly {
	pool := make([]Poly, n)
	for i := range pool {
		pool[i].index = i
		pool[i].state = PolyInactive
		pool[i].next = -1
		for j := range pool[i].partials {
			pool[i].partials[j] = -1
		}
	}
	return pool
}

func (p *Poly) activate(part, key, velocity int) {
	p.part = part
	p.key = key
	p.velocity = velocity
	p.sustain = false
	p.state = PolyPlaying
	p.next = -1
	for i := range p.partials {
		p.partials[i] = -1
	}
}

func (p *Poly) isActive() bool { return p.state != PolyInactive }

func (p *Poly) needCount() int {
	n := 0
	for _, idx := range p.partials {
		if idx >= 0 {
			n++
		}
	}
	return n
}
