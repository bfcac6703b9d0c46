package crypto

import (
	"crypto/sha256"
	"encoding/binary"
)

const (
	HashSize = sha256.Size
)

/*
	Hash is a function that takes an input message and returns a fixed-size string of bytes that is unique to the input
	to produce a short, fixed-length representation of the data, which can be used for various applications like data
	integrity checks
*/

// Hash() executes the global hashing algorithm on input bytes
func Hash(msg []byte) []byte {
	h := sha256.Sum256(msg)
	return h[:]
}

// Uint16FromHash() reduces a hash to an unsigned 16 bit integer by taking its first two bytes big-endian
// This is the reduction used to extract a sortition threshold from a VRF output
func Uint16FromHash(h []byte) uint16 {
	if len(h) < 2 {
		return 0
	}
	return binary.BigEndian.Uint16(h[:2])
}
