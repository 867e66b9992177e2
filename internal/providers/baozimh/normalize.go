package baozimh

import (
	"fmt"
	"net/url"
)

const chapterBase = "https://www.twmanga.com/comic/chapter"

// ChapterURL builds the canonical chapter page address.
func ChapterURL(comicID, sectionSlot, chapterSlot string) string {
	return fmt.Sprintf("%s/%s/%s_%s.html", chapterBase, comicID, sectionSlot, chapterSlot)
}

// CanonicalURL rewrites a chapter link carrying comic_id, section_slot and
// chapter_slot query parameters into its canonical form. Missing slots become
// "0" and a missing comic id leaves its path component empty. Links that do
// not parse yield "". The defaults are unverified against the site.
func CanonicalURL(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}

	q := u.Query()

	return ChapterURL(q.Get("comic_id"), valueOr(q, "section_slot", "0"), valueOr(q, "chapter_slot", "0"))
}

// HasComicID reports whether link names the comic it belongs to.
func HasComicID(link string) bool {
	u, err := url.Parse(link)
	return err == nil && u.Query().Get("comic_id") != ""
}

func valueOr(q url.Values, key, def string) string {
	if v := q.Get(key); v != "" {
		return v
	}

	return def
}
