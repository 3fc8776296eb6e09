package mt32emu

// la32Generator is one LA32 voice generator, one per Partial. A ring-
// modulated pair couples two Partials (and so two la32Generators) via
// Partial.pairIdx rather than nesting a second generator inside this one.
// The generator is parameterised per-sample by its owning Partial's
// envelopes: amp (logarithmic), pitch (logarithmic) and cutoff (linear
// 32-bit).
type la32Generator struct {
	wavePos   uint32 // phase accumulator, taken modulo the full 4*sineSegmentLen period
	square    bool   // not read by the sample functions; sawtooth mode is their sawtooth argument
	resPhase  uint32 // resonance sine phase, advances 4x per square period

	pcm       *pcmWave // non-nil selects PCM mode
	pcmPos    uint32   // Q7 fractional PCM sample position
}

// pcmWave is a decoded logarithmic PCM sample stream as produced by
// rom.go's DecodePCMROM and sliced by NewPCMWave.
type pcmWave struct {
	Samples []int16 // DecodePCMWord values: 15-bit magnitude, sign carried as the int16 sign
	Loop    bool
	LoopLen uint32
}

// synthSampleInt renders one log-domain synth-mode sample using the
// integer pipeline. pitch is the TVP output (16-bit log pitch), cutoff is
// the combined TVF base+modifier (32-bit linear), amp is the TVA output
// (logarithmic). resonance and pulseWidth are in 0..127 and 0..255
// respectively. Returns a signed 16-bit sample (square+resonance
// combined, independent signs unlogged and summed).
func (g *la32Generator) synthSampleInt(pitch int32, cutoff, amp int32, resonance int32, pulseWidth int32, sawtooth bool) int16 {
	step := (interpExp(uint32(^pitch)&0xFFFF) << uint(pitch>>12)) >> 8
	step &^= 1
	if step == 0 {
		step = 2
	}
	g.wavePos += uint32(step)

	effCutoff := cutoff - 128*sineSegmentLen
	if effCutoff < 0 {
		effCutoff = 0
	}
	effCutoff >>= 10

	period := uint32(4 * sineSegmentLen)
	pos := g.wavePos % period
	half := period / 2
	negHalf := pos >= half
	localPos := pos
	if negHalf {
		localPos -= half
	}

	squareLog := g.phaseDistortedLog(localPos, half, effCutoff, pulseWidth)

	resLog := g.resonanceLog(pos, period, cutoff, resonance)

	if sawtooth {
		sawLog := logSine((g.wavePos >> 9) & (logSineSize - 1))
		squareLog += sawLog
		resLog += sawLog
	}

	squareLin := interpExp(uint32(squareLog+amp) & 0x1FF8)
	resLin := interpExp(uint32(resLog+amp) & 0x1FF8)

	sign := int32(1)
	if negHalf {
		sign = -1
	}
	sample := sign*squareLin + sign*resLin
	return clampInt16(sample)
}

// phaseDistortedLog returns the log-domain value of one half-period's
// cosine/linear segmentation: rising-sine, high-linear, falling-sine.
func (g *la32Generator) phaseDistortedLog(localPos, half uint32, effCutoff, pulseWidth int32) int32 {
	corner := uint32(sineSegmentLen) - uint32(effCutoff)
	if corner < minCosineSegment {
		corner = minCosineSegment
	}
	if corner > half/2 {
		corner = half / 2
	}
	highLen := half - 2*corner
	if pulseWidth > 128 {
		widen := uint32(pulseWidth-128) * corner / 128
		if widen < highLen {
			highLen -= widen
			corner += widen / 2
		}
	}

	switch {
	case localPos < corner:
		idx := uint32(localPos) * (logSineSize - 1) / corner
		return logSine(idx)
	case localPos < corner+highLen:
		return 0
	default:
		rem := localPos - corner - highLen
		idx := (corner - rem) * (logSineSize - 1) / corner
		return logSine(idx)
	}
}

func (g *la32Generator) resonanceLog(pos uint32, period uint32, cutoff, resonance int32) int32 {
	g.resPhase += 4
	idx := (g.resPhase / 4) % uint32(logSineSize)
	base := logSine(idx)

	decayIdx := (resonance >> 2)
	if decayIdx < 0 {
		decayIdx = 0
	}
	if decayIdx > 7 {
		decayIdx = 7
	}
	atten := (32 - resonance) * (1 << 10)
	atten /= resonanceDecayFactor[decayIdx]

	var cutoffAtten int32
	switch {
	case cutoff < 128*sineSegmentLen:
		cutoffAtten = 1 << 12
	case cutoff < 144*sineSegmentLen:
		frac := (cutoff - 128*sineSegmentLen) * (1 << 12) / (16 * sineSegmentLen)
		cutoffAtten = (1 << 12) - frac
	default:
		cutoffAtten = 0
	}

	return base + atten + cutoffAtten
}

// synthSampleFloat is the float-pipeline entry point for synth-mode
// samples. It converts its float arguments to the integer scales, renders
// the sample with synthSampleInt and rescales the int16 result to unity
// range (divided by 32768); no separate floating-point generator and no
// extra emission factor are applied.
func (g *la32Generator) synthSampleFloat(pitch, cutoff, amp float32, resonance, pulseWidth float32, sawtooth bool) float32 {
	i := g.synthSampleInt(
		int32(pitch*256),
		int32(cutoff*float32(256*sineSegmentLen)),
		int32(amp*256),
		int32(resonance*127),
		int32(pulseWidth*255),
		sawtooth,
	)
	return float32(i) / 32768.0
}

// pcmSampleInt advances the PCM read position by the pitch-derived step
// and linearly interpolates between the two bracketing logarithmic
// samples (unless this generator is a non-interpolated ring-mod slave).
// Returns (sample, stillActive).
func (g *la32Generator) pcmSampleInt(pitch int32, interpolate bool) (int16, bool) {
	if g.pcm == nil || len(g.pcm.Samples) == 0 {
		return 0, false
	}
	step := (interpExp(uint32(^pitch)&0xFFFF) << uint(pitch>>12)) >> 9
	g.pcmPos += uint32(step)

	total := uint32(len(g.pcm.Samples))
	whole := g.pcmPos >> 7
	frac := int32(g.pcmPos & 0x7F)

	if whole >= total {
		if g.pcm.Loop && g.pcm.LoopLen > 0 {
			whole = whole % g.pcm.LoopLen
			g.pcmPos = (whole << 7) | uint32(frac)
		} else {
			return 0, false
		}
	}

	a := g.pcm.Samples[whole]
	var b int16
	if whole+1 < total {
		b = g.pcm.Samples[whole+1]
	} else if g.pcm.Loop && g.pcm.LoopLen > 0 {
		b = g.pcm.Samples[(whole+1)%g.pcm.LoopLen]
	} else {
		b = a
	}

	if !interpolate {
		return a, true
	}
	sample := int32(a) + ((int32(b)-int32(a))*frac)>>7
	return clampInt16(sample), true
}

// pcmSampleFloat is the float-pipeline equivalent of pcmSampleInt. It
// shares the phase accumulator (only one of the two pipelines ever runs
// against a given Synth instance) but interpolates natively in floating
// point rather than deriving its result from the integer path.
func (g *la32Generator) pcmSampleFloat(pitch float32, interpolate bool) (float32, bool) {
	if g.pcm == nil || len(g.pcm.Samples) == 0 {
		return 0, false
	}
	ip := int32(pitch * 256)
	step := (interpExp(uint32(^ip)&0xFFFF) << uint(ip>>12)) >> 9
	g.pcmPos += uint32(step)

	total := uint32(len(g.pcm.Samples))
	whole := g.pcmPos >> 7
	frac := float32(g.pcmPos&0x7F) / 128.0

	if whole >= total {
		if g.pcm.Loop && g.pcm.LoopLen > 0 {
			whole = whole % g.pcm.LoopLen
			g.pcmPos = (whole << 7) | (g.pcmPos & 0x7F)
		} else {
			return 0, false
		}
	}

	a := float32(g.pcm.Samples[whole]) / 32768.0
	var b float32
	if whole+1 < total {
		b = float32(g.pcm.Samples[whole+1]) / 32768.0
	} else if g.pcm.Loop && g.pcm.LoopLen > 0 {
		b = float32(g.pcm.Samples[(whole+1)%g.pcm.LoopLen]) / 32768.0
	} else {
		b = a
	}

	if !interpolate {
		return a, true
	}
	return a + (b-a)*frac, true
}

func clampInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// ringModulate folds two 14-bit samples modulo 2^13 before multiplying,
// matching the integer ring-mod distortion rule; the float path folds
// modulo 2.0 on unity-scale samples.
func ringModulateInt(master, slave int16) int16 {
	m := foldInt(int32(master), 1<<13)
	s := foldInt(int32(slave), 1<<13)
	return clampInt16((m * s) >> 13)
}

func foldInt(v, mod int32) int32 {
	for v > mod {
		v -= 2 * mod
	}
	for v < -mod {
		v += 2 * mod
	}
	return v
}

func ringModulateFloat(master, slave float32) float32 {
	m := foldFloat(master, 2.0)
	s := foldFloat(slave, 2.0)
	return m * s
}

func foldFloat(v, mod float32) float32 {
	for v > mod {
		v -= 2 * mod
	}
	for v < -mod {
		v += 2 * mod
	}
	return v
}
