// Package reconcile composes one patient list from the device's offline
// cache and the server.
package reconcile

import (
	"github.com/swarnabindu/prashan/internal/domain/registration"
)

// Merge returns local followed by every remote registration that has no
// local counterpart. A remote record matches a local one when both carry
// the same non-empty serial number, or when child name and contact number
// are equal.
//
// Local always wins: a matched remote copy is dropped whole, even if its
// fields differ. There is no field-level merge.
//
// Neither input is modified. Appended remote records are copies marked
// Synced. A nil remote behaves like an empty one.
func Merge(local, remote []*registration.Registration) []*registration.Registration {
	out := make([]*registration.Registration, 0, len(local)+len(remote))
	out = append(out, local...)

	serials := make(map[string]struct{}, len(local))
	people := make(map[person]struct{}, len(local))
	for _, l := range local {
		if l == nil {
			continue
		}
		if l.SerialNo != "" {
			serials[l.SerialNo] = struct{}{}
		}
		people[personOf(l)] = struct{}{}
	}

	for _, r := range remote {
		if r == nil {
			continue
		}
		if _, ok := serials[r.SerialNo]; ok && r.SerialNo != "" {
			continue
		}
		if _, ok := people[personOf(r)]; ok {
			continue
		}
		c := r.Clone()
		c.Synced = true
		out = append(out, c)
	}
	return out
}

type person struct {
	name, contact string
}

func personOf(r *registration.Registration) person {
	return person{name: r.ChildName, contact: r.ContactNumber}
}
