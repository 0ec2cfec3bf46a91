package contact

import "time"

// Principal is implemented by owned collection members that carry a
// principal flag (an aggregate's main phone or address).
type Principal interface {
	IsPrincipal() bool
	SetPrincipal(principal bool, now time.Time)
}

// Membership holds the flag and timestamps shared by relation entities.
// Embed it by value; its methods need a pointer receiver.
type Membership struct {
	Principal bool      `json:"is_principal"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewMembership(principal bool, now time.Time) Membership {
	return Membership{Principal: principal, CreatedAt: now, UpdatedAt: now}
}

func (m *Membership) IsPrincipal() bool {
	return m.Principal
}

func (m *Membership) SetPrincipal(principal bool, now time.Time) {
	if m.Principal == principal {
		return
	}
	m.Principal = principal
	m.UpdatedAt = now
}

// Add appends item keeping at most one principal member.
// The first member of an empty collection becomes principal; a principal
// newcomer demotes every other member.
func Add[T Principal](items []T, item T, now time.Time) []T {
	if len(items) == 0 {
		item.SetPrincipal(true, now)
		return append(items, item)
	}
	if item.IsPrincipal() {
		demoteAll(items, now)
	}
	return append(items, item)
}

// MarkPrincipal promotes items[i] and demotes the rest.
func MarkPrincipal[T Principal](items []T, i int, now time.Time) {
	if i < 0 || i >= len(items) {
		return
	}
	demoteAll(items, now)
	items[i].SetPrincipal(true, now)
}

// RemoveAt drops items[i]. When the removed member was principal and others
// remain, the first remaining member is promoted.
func RemoveAt[T Principal](items []T, i int, now time.Time) []T {
	if i < 0 || i >= len(items) {
		return items
	}
	wasPrincipal := items[i].IsPrincipal()
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	out = append(out, items[i+1:]...)
	if wasPrincipal && len(out) > 0 {
		out[0].SetPrincipal(true, now)
	}
	return out
}

// PrincipalOf returns the principal member, if any.
func PrincipalOf[T Principal](items []T) (T, bool) {
	for _, item := range items {
		if item.IsPrincipal() {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// CountPrincipal returns how many members are flagged principal.
func CountPrincipal[T Principal](items []T) int {
	n := 0
	for _, item := range items {
		if item.IsPrincipal() {
			n++
		}
	}
	return n
}

func demoteAll[T Principal](items []T, now time.Time) {
	for _, item := range items {
		item.SetPrincipal(false, now)
	}
}
