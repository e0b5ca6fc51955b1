package recipients

import (
	"regexp"

	"github.com/clipline/sms-campaigns/internal/model"
)

// Candidate is one entry of the backend-ranked list, best fit first.
type Candidate struct {
	Phone        string
	Name         string
	Score        float64
	VisitingType string
}

// Overrides are the user's manual deviations from the ranked list. A phone
// never appears on both sides; moving it to one side removes it from the
// other.
type Overrides struct {
	Selected   []model.SelectedClient
	Deselected []string
}

// NoLimit disables the per-message cap. Auto-nudge sends are bounded by
// the visiting-type segment, not by a recipient limit.
const NoLimit = -1

type Result struct {
	Recipients []model.SelectedClient
	// Eligible is the sendable set size: min(set, limit). Activation
	// reserves this many credits, so a short balance refuses the whole
	// send instead of shrinking it.
	Eligible int
	// Count is what the balance covers right now: min(eligible, available).
	Count int
}

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// Resolve combines the ranked candidates with the overrides and caps.
// Deselected candidates are filtered BEFORE the limit truncation, so
// removing a ranked entry lets the next survivor move up into the cap.
// Pinned selections are unioned in afterwards and do not occupy ranked
// positions.
func Resolve(candidates []Candidate, ov Overrides, limit int, available int64) Result {
	deselected := make(map[string]struct{}, len(ov.Deselected))
	for _, phone := range ov.Deselected {
		deselected[phone] = struct{}{}
	}

	final := make([]model.SelectedClient, 0, len(candidates)+len(ov.Selected))
	seen := make(map[string]struct{})

	kept := 0
	for _, c := range candidates {
		if limit != NoLimit && kept >= limit {
			break
		}
		if _, skip := deselected[c.Phone]; skip {
			continue
		}
		if _, dup := seen[c.Phone]; dup {
			continue
		}

		final = append(final, model.SelectedClient{Phone: c.Phone, Name: c.Name})
		seen[c.Phone] = struct{}{}
		kept++
	}

	for _, s := range ov.Selected {
		if _, dup := seen[s.Phone]; dup {
			continue
		}
		final = append(final, s)
		seen[s.Phone] = struct{}{}
	}

	eligible := len(final)
	if limit != NoLimit && eligible > limit {
		eligible = limit
	}

	count := eligible
	if int64(count) > available {
		count = int(available)
	}
	if count < 0 {
		count = 0
	}

	return Result{Recipients: final, Eligible: eligible, Count: count}
}

// Select pins entries in, stripping each phone from the deselected side.
// The batch applies atomically: the returned set is the only state.
func Select(ov Overrides, entries []model.SelectedClient) Overrides {
	out := Overrides{
		Selected:   make([]model.SelectedClient, len(ov.Selected)),
		Deselected: nil,
	}
	copy(out.Selected, ov.Selected)

	adding := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		adding[e.Phone] = struct{}{}
	}

	for _, phone := range ov.Deselected {
		if _, drop := adding[phone]; !drop {
			out.Deselected = append(out.Deselected, phone)
		}
	}

	existing := make(map[string]struct{}, len(out.Selected))
	for _, s := range out.Selected {
		existing[s.Phone] = struct{}{}
	}

	for _, e := range entries {
		if _, dup := existing[e.Phone]; dup {
			continue
		}
		out.Selected = append(out.Selected, e)
		existing[e.Phone] = struct{}{}
	}

	return out
}

// Deselect excludes phones, removing them from the selected side. Custom
// one-time entries do not survive a deselect; they have no candidate record
// to return to, so dropping them deletes them.
func Deselect(ov Overrides, phones []string) Overrides {
	removing := make(map[string]struct{}, len(phones))
	for _, phone := range phones {
		removing[phone] = struct{}{}
	}

	out := Overrides{}

	for _, s := range ov.Selected {
		if _, drop := removing[s.Phone]; !drop {
			out.Selected = append(out.Selected, s)
		}
	}

	existing := make(map[string]struct{}, len(ov.Deselected))
	for _, phone := range ov.Deselected {
		existing[phone] = struct{}{}
		out.Deselected = append(out.Deselected, phone)
	}

	for _, phone := range phones {
		if _, dup := existing[phone]; dup {
			continue
		}

		custom := false
		for _, s := range ov.Selected {
			if s.Phone == phone && s.Custom {
				custom = true
				break
			}
		}
		if custom {
			continue
		}

		out.Deselected = append(out.Deselected, phone)
		existing[phone] = struct{}{}
	}

	return out
}

// Reset returns to the pure algorithmic ranking.
func Reset() Overrides {
	return Overrides{}
}

// Contains reports whether phone is already pinned or ranked.
func Contains(candidates []Candidate, ov Overrides, phone string) bool {
	for _, c := range candidates {
		if c.Phone == phone {
			return true
		}
	}
	for _, s := range ov.Selected {
		if s.Phone == phone {
			return true
		}
	}
	return false
}
