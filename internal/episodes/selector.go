package episodes

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Filter applies at most one of the selection flags, in order of precedence:
// a single episode by title or number, a range "a-b", a list "a,b,c".
func Filter(all []Item, episode, rng, list string) []Item {
	if episode != "" {
		byTitle := FilterByTitle(all, episode)
		if len(byTitle) > 0 {
			return byTitle
		}
		if idx, err := atoi(episode); err == nil && idx > 0 && idx <= len(all) {
			return []Item{all[idx-1]}
		}
		return []Item{}
	}
	if rng != "" {
		return FilterRange(all, rng)
	}
	if list != "" {
		return FilterList(all, list)
	}

	return all
}

func FilterByTitle(all []Item, title string) []Item {
	return lo.Filter(all, func(it Item, _ int) bool {
		return strings.EqualFold(strings.TrimSpace(it.Title), strings.TrimSpace(title))
	})
}

func FilterRange(all []Item, rng string) []Item {
	parts := strings.Split(rng, "-")
	if len(parts) != 2 {
		return nil
	}
	start, err1 := atoi(parts[0])
	end, err2 := atoi(parts[1])
	if err1 != nil || err2 != nil {
		return nil
	}
	if start <= 0 || end <= 0 || start > end || end > len(all) {
		return nil
	}

	return all[start-1 : end]
}

// FilterList picks the listed numbers once each, in the order given.
func FilterList(all []Item, list string) []Item {
	nums := lo.FilterMap(strings.Split(list, ","), func(n string, _ int) (int, bool) {
		idx, err := atoi(n)
		return idx, err == nil && idx > 0 && idx <= len(all)
	})

	return lo.Map(lo.Uniq(nums), func(idx int, _ int) Item {
		return all[idx-1]
	})
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
