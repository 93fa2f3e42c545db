// Package scoredraft renders note and percussion events to mono PCM.
//
// A phrase is a list of events (notes and rests measured in 1/48 of a beat)
// played by a single voice onto a track. Phrases come from MML text, a
// Standard MIDI File, or a YAML project that names both the score and the
// voice. Finished renders can be written as 16-bit WAV or played through
// the audio device.
package scoredraft
