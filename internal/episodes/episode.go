package episodes

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/brogergvhs/comicwalk/internal/providers"
	"github.com/brogergvhs/comicwalk/internal/util"
)

var reUnderscore = regexp.MustCompile(`_+`)

// Item is an episode with its 1-based position in the series listing.
type Item struct {
	providers.Episode
	Number int
}

// Number numbers eps in listing order.
func Number(eps []providers.Episode) []Item {
	return lo.Map(eps, func(ep providers.Episode, i int) Item {
		return Item{Episode: ep, Number: i + 1}
	})
}

func sanitize(s string) string {
	s = strings.ToLower(s)

	s = strings.NewReplacer(
		"•", "_",
		"-", "_",
		"—", "_",
		"–", "_",
		"/", "_",
		"\\", "_",
		".", "_",
		" ", "_",
		"(", "",
		")", "",
	).Replace(s)

	clean := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			clean = append(clean, r)
		}
	}

	return strings.Trim(reUnderscore.ReplaceAllString(string(clean), "_"), "_")
}

func (it Item) baseName() string {
	prefix := fmt.Sprintf("%04d", it.Number)
	if title := sanitize(it.Title); title != "" {
		return prefix + "_" + title
	}

	return prefix
}

func (it Item) FolderName() string {
	return it.baseName() + util.TempSuffix
}

func (it Item) OutputCBZ() string {
	return it.baseName() + ".cbz"
}

func (it Item) OutputCBZPath(out string) string {
	return filepath.Join(out, it.OutputCBZ())
}
