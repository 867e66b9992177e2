package pagination

// CrawlState belongs to exactly one in-flight episode resolution.
type CrawlState struct {
	visited map[string]struct{}
	seen    map[string]struct{}
	images  []string
}

func NewCrawlState() *CrawlState {
	return &CrawlState{
		visited: make(map[string]struct{}),
		seen:    make(map[string]struct{}),
		images:  make([]string, 0, 64),
	}
}

// Visit marks u as fetched. It reports false when u was already visited.
func (s *CrawlState) Visit(u string) bool {
	if _, ok := s.visited[u]; ok {
		return false
	}
	s.visited[u] = struct{}{}

	return true
}

func (s *CrawlState) Visited(u string) bool {
	_, ok := s.visited[u]
	return ok
}

func (s *CrawlState) VisitedCount() int {
	return len(s.visited)
}

// Add appends every URL not seen before, keeping first-seen order, and returns
// how many were new.
func (s *CrawlState) Add(urls ...string) int {
	added := 0
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := s.seen[u]; ok {
			continue
		}
		s.seen[u] = struct{}{}
		s.images = append(s.images, u)
		added++
	}

	return added
}

func (s *CrawlState) Images() []string {
	out := make([]string, len(s.images))
	copy(out, s.images)

	return out
}
