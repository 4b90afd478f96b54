package content

import "time"

// Category is the closed set of content categories. TTL, priority, and
// fetch timeout are pure functions of the category.
type Category int

const (
	// CategoryGeneral is the fallback for unclassified endpoints.
	CategoryGeneral Category = iota
	// CategoryEmergency is emergency content: shortest TTL, never evicted
	// except by expiry.
	CategoryEmergency
	// CategoryDepartments is the departments collection.
	CategoryDepartments
	// CategoryDoctors is the practitioner directory.
	CategoryDoctors
	// CategoryServices is the per-department services collection.
	CategoryServices
	// CategoryPosts is news/blog content.
	CategoryPosts
	// CategorySearch is search results: cheap to regenerate, first to go.
	CategorySearch
)

// String returns the category name used in tags and stats.
func (c Category) String() string {
	switch c {
	case CategoryEmergency:
		return "emergency"
	case CategoryDepartments:
		return "departments"
	case CategoryDoctors:
		return "doctors"
	case CategoryServices:
		return "services"
	case CategoryPosts:
		return "posts"
	case CategorySearch:
		return "search"
	case CategoryGeneral:
		return "general"
	default:
		return "unknown"
	}
}

// TTL returns how long an entry of this category stays fresh.
func (c Category) TTL() time.Duration {
	switch c {
	case CategoryEmergency:
		return 30 * time.Second
	case CategoryDepartments:
		return 10 * time.Minute
	case CategoryDoctors:
		return 15 * time.Minute
	case CategoryServices, CategoryGeneral:
		return 5 * time.Minute
	case CategoryPosts:
		return 3 * time.Minute
	case CategorySearch:
		return 2 * time.Minute
	default:
		return 5 * time.Minute
	}
}

// Priority returns the eviction priority: 1 is most important and is
// never evicted to make room, 5 is first to go.
func (c Category) Priority() int {
	switch c {
	case CategoryEmergency:
		return 1
	case CategoryDepartments, CategoryDoctors:
		return 2
	case CategoryServices, CategoryGeneral:
		return 3
	case CategoryPosts:
		return 4
	case CategorySearch:
		return 5
	default:
		return 3
	}
}

// Timeout returns the fetch timeout for this category. Emergency content
// uses a short timeout so stale-but-fast beats fresh-but-slow.
func (c Category) Timeout() time.Duration {
	if c == CategoryEmergency {
		return 10 * time.Second
	}
	return 30 * time.Second
}

// Categories lists every category, for stats iteration.
func Categories() []Category {
	return []Category{
		CategoryGeneral,
		CategoryEmergency,
		CategoryDepartments,
		CategoryDoctors,
		CategoryServices,
		CategoryPosts,
		CategorySearch,
	}
}
