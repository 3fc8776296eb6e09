// Package mt32emu is a software emulation core for the Roland MT-32 family
// of sample-and-synthesis tone modules (MT-32, CM-32L, LAPC-I). It accepts
// a MIDI byte stream plus two ROM images and produces interleaved stereo
// PCM audio.
//
// The package emulates the LA32 wave generator, the TVP/TVF/TVA envelope
// engines, the partial allocator, the Boss reverb and the analogue output
// stage. Everything upstream of the MIDI queue -- SysEx byte-stream
// parsing, ROM loading and identification, and sample-rate conversion to
// an arbitrary host rate -- is a caller responsibility.
package mt32emu
