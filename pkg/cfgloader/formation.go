package cfgloader

import "fmt"

// expandFormations folds sibling teams listed in a team's `formation` into
// its own maintainers and members, per spec.md §3/§4.3 pass 1. Resolution
// is recursive (a composite team may list another composite team) and
// cycle-safe: a formation cycle is reported as a configuration error
// instead of recursing forever.
func expandFormations(teams []teamDoc) ([]teamDoc, error) {
	byName := make(map[string]*teamDoc, len(teams))
	out := make([]teamDoc, len(teams))
	copy(out, teams)
	for i := range out {
		byName[out[i].Name] = &out[i]
	}

	resolved := make(map[string]bool, len(out))
	resolving := make(map[string]bool, len(out))

	var resolve func(name string) error
	resolve = func(name string) error {
		if resolved[name] {
			return nil
		}
		t, ok := byName[name]
		if !ok {
			return fmt.Errorf("team %q references unknown formation member %q", name, name)
		}
		if resolving[name] {
			return fmt.Errorf("team %q has a circular formation reference", name)
		}
		resolving[name] = true
		for _, sibling := range t.Formation {
			if err := resolve(sibling); err != nil {
				return err
			}
			s := byName[sibling]
			t.Maintainers = append(t.Maintainers, s.Maintainers...)
			t.Members = append(t.Members, s.Members...)
		}
		resolving[name] = false
		resolved[name] = true
		return nil
	}

	for _, t := range out {
		if err := resolve(t.Name); err != nil {
			return nil, err
		}
	}
	return out, nil
}
