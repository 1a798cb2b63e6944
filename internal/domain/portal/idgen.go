package portal

import (
	"math"
	"strconv"
	"strings"
)

const idWidth = 3

// Identifier prefixes used when proposing ids for new records.
const (
	EventIDPrefix        = "E"
	RegistrationIDPrefix = "R"
	UserIDPrefix         = "U"
)

// NextID proposes the next sequential id for a collection: the largest
// numeric part of the existing ids plus one, zero-padded, behind prefix.
// Ids without digits, or whose number has no successor in an int64, are
// ignored; with none left the sequence starts at 1.
//
// The proposal is not coordinated with other writers. Two clients reading the
// same collection will propose the same id; the remote API decides.
func NextID(existing []string, prefix string) string {
	maxSeen := int64(0)
	found := false

	for _, value := range existing {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, value)
		if digits == "" {
			continue
		}
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil || n == math.MaxInt64 {
			continue
		}
		if !found || n > maxSeen {
			maxSeen = n
			found = true
		}
	}

	next := int64(1)
	if found {
		next = maxSeen + 1
	}
	return prefix + padLeft(strconv.FormatInt(next, 10), idWidth)
}

// EventIDs returns the resolved ids of events, in order.
func EventIDs(events []Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ResolvedID()
	}
	return ids
}

// RegistrationIDs returns the resolved ids of registrations, in order.
func RegistrationIDs(registrations []Registration) []string {
	ids := make([]string, len(registrations))
	for i, r := range registrations {
		ids[i] = r.ResolvedID()
	}
	return ids
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
