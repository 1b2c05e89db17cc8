/*
Package faust hosts dynamically compiled DSP units in real time.

A unit is produced by an external compiler toolchain reached through the
Gateway interface: given a script it returns a Factory (machine code) from
which playable Instances are bound at a sample rate and voice mode. While
an instance wires up its controls it emits a flat, bracketed declaration
stream; Builder reconstructs it into a nested widget tree whose leaves are
bound to live zones - single float32 cells inside the instance that hold
each parameter's current value.

Dsp owns the whole chain end-to-end. Per audio block the caller delivers
MIDI and transport events and then calls Process, which runs the unit's
compute entry point under a lock that covers nothing else: zones are
atomic cells and the widget tree has its own read/write lock, so the
control thread never contends with the audio thread.

Compilation is expensive and never real-time; the cache package memoizes
it on disk, addressed by a digest of the compiler inputs, and stays
correct under concurrent uncoordinated writers.
*/
package faust
