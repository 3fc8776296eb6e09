package mt32emu

const (
	statusNoteOff       = 0x80
	statusNoteOn        = 0x90
	statusControlChange = 0xB0
	statusProgramChange = 0xC0
	statusPitchBend     = 0xE0

	ccModulation     = 1
	ccExpression     = 11
	ccHold1          = 64
	ccRPNLSB         = 100
	ccRPNMSB         = 101
	ccDataEntryMSB   = 6
)

// handleShortMessage unpacks a 1-3 byte short message (status in the low
// byte, data bytes above it) and applies its effect to channel/part
// state. MIDI channels 0-7 map 1:1 to parts 0-7 and channel 9 to the
// rhythm part (see channelToPart); messages on other channels are dropped.
func (s *Synth) handleShortMessage(msg uint32) {
	status := byte(msg)
	channel := int(status & 0x0F)
	opcode := status & 0xF0

	part := s.channelToPart(channel)
	if part < 0 {
		return
	}

	data1 := byte(msg >> 8)
	data2 := byte(msg >> 16)

	switch opcode {
	case statusNoteOff:
		s.noteOff(part, int(data1))
	case statusNoteOn:
		if data2 == 0 {
			s.noteOff(part, int(data1))
		} else {
			s.noteOn(part, int(data1), int(data2))
		}
	case statusControlChange:
		s.controlChange(part, int(data1), int(data2))
	case statusProgramChange:
		// Program change reselects the part's patch; reparsing timbre
		// data into the patch cache is the memory-region dispatcher's
		// job (out of core scope), so this only marks the cache dirty.
		for i := range s.parts[part].patchCache {
			s.parts[part].patchCache[i].dirty = true
		}
	case statusPitchBend:
		bend := (int32(data2)<<7 | int32(data1)) - 8192
		s.parts[part].pitchBend = bend
	}
}

// channelToPart maps a MIDI channel to a Part index. Channel 9 (0-based)
// is conventionally rhythm; this mirrors the default MT-32 channel
// assignment. The mapping is fixed: the system area's chanAssign table is
// stored but not consulted here.
func (s *Synth) channelToPart(channel int) int {
	if channel == 9 {
		return rhythmPart
	}
	if channel < 8 {
		return channel
	}
	return -1
}

func (s *Synth) noteOn(part, key, velocity int) {
	lowKey, highKey := 24, 108
	if s.modelKind == ModelMT32 {
		highKey = 87
	}
	if key < lowKey || key > highKey {
		s.logger.Printf("note-on key %d out of range for part %d", key, part)
		return
	}

	if s.quirks.KeyShiftApply && part != rhythmPart {
		key += int(s.parts[part].keyShift)
		if key < lowKey {
			key = lowKey
		}
		if key > highKey {
			key = highKey
		}
	}

	need := partialsPerNote
	pt := &s.parts[part]
	singleAssign := pt.assignMode&2 == 0

	polyIdx := s.alloc.noteOn(part, key, velocity, need, singleAssign)
	if polyIdx < 0 {
		return
	}

	poly := &s.polys[polyIdx]
	for i := 0; i < need; i++ {
		pi := s.findFreePartial()
		if pi < 0 {
			break
		}
		params := &pt.patchCache[i%len(pt.patchCache)].params
		s.partials[pi].activate(part, poly, params, key, velocity, pt.masterVol, &s.quirks, s.prng)
		poly.partials[i] = pi
	}

	// Pair up partials 0/1 and 2/3 per the patch's mixType, mirroring the
	// structure timbres author ring-modulated or stereo-pan voices in.
	for pairBase := 0; pairBase+1 < need; pairBase += 2 {
		m, sidx := poly.partials[pairBase], poly.partials[pairBase+1]
		if m >= 0 && sidx >= 0 {
			mt := s.partials[m].mixType
			s.partials[m].pairWith(sidx, 0, mt)
			s.partials[sidx].pairWith(m, 1, mt)
		}
	}
}

func (s *Synth) findFreePartial() int {
	for i := range s.partials {
		if s.partials[i].isFree() {
			return i
		}
	}
	return -1
}

func (s *Synth) noteOff(part, key int) {
	pt := &s.parts[part]
	polyIdx := pt.findPolyByKey(s.polys, key)
	if polyIdx < 0 {
		return
	}
	poly := &s.polys[polyIdx]
	if poly.sustain {
		poly.state = PolyHeld
		return
	}
	poly.state = PolyReleasing
	for _, pi := range poly.partials {
		if pi >= 0 {
			s.partials[pi].startDecay()
		}
	}
}

func (s *Synth) controlChange(part, controller, value int) {
	pt := &s.parts[part]
	switch controller {
	case ccModulation:
		pt.modulation = int32(value)
	case ccExpression:
		pt.expression = int32(value)
	case ccHold1:
		wasHeld := pt.holdPedal
		pt.holdPedal = value >= 64
		if wasHeld && !pt.holdPedal {
			s.releaseHeldPolys(pt)
		}
	case ccRPNLSB:
		pt.rpnLSB = int32(value)
	case ccRPNMSB:
		pt.rpnMSB = int32(value)
	case ccDataEntryMSB:
		s.applyRPN(pt, value)
	}
}

func (s *Synth) releaseHeldPolys(pt *Part) {
	for idx := pt.activeHead; idx != -1; idx = s.polys[idx].next {
		if s.polys[idx].state == PolyHeld {
			s.polys[idx].state = PolyReleasing
			for _, pi := range s.polys[idx].partials {
				if pi >= 0 {
					s.partials[pi].startDecay()
				}
			}
		}
	}
}

// applyRPN handles registered parameters; only RPN 0 (pitch-bend range)
// is recognised, and its value is clamped to 24 semitones and then
// discarded: no bender-range state is stored, and pitch-bend handling
// does not scale by a range. RPN > 0 is silently ignored.
func (s *Synth) applyRPN(pt *Part, dataEntry int) {
	if pt.rpnMSB != 0 || pt.rpnLSB != 0 {
		return
	}
	if dataEntry > 24 {
		dataEntry = 24
	}
	_ = dataEntry
}

// handleSysex validates a complete F0..F7 Roland MT-32 SysEx message and,
// if well formed, routes its payload into the addressed memory region.
// Malformed messages (wrong manufacturer, wrong model byte, bad checksum,
// short message, missing F7) are logged and ignored; they never abort
// rendering.
func (s *Synth) handleSysex(payload []byte) {
	const (
		sysexStart      = 0xF0
		sysexEnd        = 0xF7
		rolandManufID   = 0x41
		mt32ModelID     = 0x16
		cmdDataSet1     = 0x12
	)
	if len(payload) < 10 {
		s.logger.Printf("sysex: message too short (%d bytes)", len(payload))
		return
	}
	if payload[0] != sysexStart || payload[len(payload)-1] != sysexEnd {
		s.logger.Printf("sysex: missing F0/F7 framing")
		return
	}
	if payload[1] != rolandManufID {
		s.logger.Printf("sysex: unknown manufacturer ID 0x%02X", payload[1])
		return
	}
	if payload[3] != mt32ModelID {
		s.logger.Printf("sysex: unknown model ID 0x%02X", payload[3])
		return
	}
	if payload[4] != cmdDataSet1 {
		s.logger.Printf("sysex: unsupported command 0x%02X", payload[4])
		return
	}

	addrBytes := [3]byte{payload[5], payload[6], payload[7]}
	addr := DecodeSysexAddress(addrBytes)
	data := payload[8 : len(payload)-2] // trailing checksum + F7

	checksum := payload[len(payload)-2]
	if !verifyRolandChecksum(payload[5:len(payload)-2], checksum) {
		s.logger.Printf("sysex: checksum error at address 0x%06X", addr)
		return
	}

	s.writeMemory(addr, data)
}

func verifyRolandChecksum(data []byte, checksum byte) bool {
	var sum int
	for _, b := range data {
		sum += int(b)
	}
	return byte((128-(sum%128))%128) == checksum
}

// writeMemory routes a decoded SysEx write to the appropriate memory
// region. Only the system area is modelled with field-level precision
// here; patch/timbre RAM writes mark the relevant part's patch cache
// dirty so it is reparsed lazily at the next note-on, matching the patch
// cache's documented lifecycle.
func (s *Synth) writeMemory(addr uint32, data []byte) {
	switch {
	case addr >= AddrSystemArea && addr < AddrDisplayArea:
		off := int(addr - AddrSystemArea)
		s.sys.WriteSystemArea(off, data)
		s.applySystemArea()
	case addr >= AddrTimbreBank && addr < AddrSystemArea:
		for i := range s.parts {
			for j := range s.parts[i].patchCache {
				s.parts[i].patchCache[j].dirty = true
			}
		}
	case addr >= AddrPatchBank && addr < AddrTimbreBank:
		for i := range s.parts {
			s.parts[i].patchCache[0].dirty = true
		}
	case addr >= AddrTimbreTemp && addr < AddrPatchBank:
		part := int((addr - AddrTimbreTemp) / 246)
		if part >= 0 && part < numParts {
			for j := range s.parts[part].patchCache {
				s.parts[part].patchCache[j].dirty = true
			}
		}
	case addr >= AddrPatchTemp && addr < AddrTimbreTemp:
		part := int((addr - AddrPatchTemp) / 16)
		if part >= 0 && part < numParts {
			s.parts[part].patchCache[0].dirty = true
		}
	case addr == AddrReset:
		s.softReset()
	}
}

// readMemory returns n bytes from the addressed memory region; a SysEx
// write followed by a read of the same region returns the clamped-to-
// systemAreaMax values for the system area.
func (s *Synth) readMemory(addr uint32, n int) []byte {
	if addr >= AddrSystemArea && addr < AddrDisplayArea {
		return s.sys.ReadSystemArea(int(addr-AddrSystemArea), n)
	}
	return make([]byte, n)
}

func (s *Synth) applySystemArea() {
	for i := range s.parts {
		s.parts[i].reservation = int(s.sys.reserve[i])
		s.parts[i].masterVol = int32(s.sys.masterVol)
	}
	s.reverb.SetParameters(int(s.sys.reverbTime), int(s.sys.reverbLevel))
}

func (s *Synth) softReset() {
	for i := range s.partials {
		s.partials[i].deactivate()
	}
	for i := range s.parts {
		s.parts[i].activeHead = -1
	}
	s.alloc = newPartialAllocator(s.partials, s.polys, &s.parts)
	s.midi.Reset()
}
