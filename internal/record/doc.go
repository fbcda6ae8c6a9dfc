// Package record defines the contact record and its on-disk encoding.
//
// A record is encoded as a deterministic CBOR array of eleven items: the ten
// text fields in order, then a CRC32 of those fields. The encoding is
// self-delimiting, so a file of back-to-back records can be walked from
// offset 0 without any framing. Every encoded record starts with Marker,
// which lets readers skip runs of Padding left behind by in-place updates.
package record
