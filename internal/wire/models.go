// Package wire implements the line-oriented text protocol spoken between trucks
// and clients: presence heartbeats (HB), ping requests (PING) and acknowledgements
// (ACK). Every message is a single ASCII line terminated by '\n'.
package wire

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxIDLen is the maximum length in bytes of truck and user identifiers.
	MaxIDLen = 15
	// MaxAddressLen is the maximum length in bytes of a delivery address.
	MaxAddressLen = 127
	// MaxNoteLen is the maximum length in bytes of a request note.
	MaxNoteLen = 63
	// MaxLineLen is the capacity of an encoded line including the trailing newline.
	MaxLineLen = 512
)

// Message keywords
const (
	KeywordPresence    = "HB"
	KeywordRequest     = "PING"
	KeywordAcknowledge = "ACK"
)

// ID is a truck or user identifier. Values longer than MaxIDLen are truncated
// silently, and identifiers end at the first whitespace on the wire.
type ID string

// Address is a free-text delivery address truncated to MaxAddressLen.
type Address string

// Note is a free-text request note truncated to MaxNoteLen.
type Note string

// MakeID returns s truncated to MaxIDLen.
func MakeID(s string) ID { return ID(truncate(s, MaxIDLen)) }

// MakeAddress returns s truncated to MaxAddressLen.
func MakeAddress(s string) Address { return Address(truncate(s, MaxAddressLen)) }

// MakeNote returns s truncated to MaxNoteLen.
func MakeNote(s string) Note { return Note(truncate(s, MaxNoteLen)) }

func (id ID) String() string { return string(id) }

// Presence is the heartbeat a truck multicasts to advertise itself.
type Presence struct {
	TruckID   ID
	Lat       float64
	Lon       float64
	Timestamp int64 // unix seconds at the sender
	Port      int   // TCP port accepting pings
}

// Request is a ping sent by a client directly to a truck.
type Request struct {
	TruckID ID
	UserID  ID
	Address Address
	Note    Note
}

// Acknowledge is the truck's reply to a ping.
type Acknowledge struct {
	TruckID    ID
	ETAMinutes int
	Queued     int
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// sanitizeText drops characters that would break a quoted value.
func sanitizeText(s string) string {
	if !strings.ContainsAny(s, "\"\r\n") {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\r', '\n':
			return -1
		}
		return r
	}, s)
}
