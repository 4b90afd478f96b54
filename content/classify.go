package content

import "strings"

// DepartmentsParentID is the collection id whose children are department
// records. A parent filter matching it classifies the request as
// departments content regardless of endpoint.
const DepartmentsParentID = "6"

// emergencyKeywords classify a search query as emergency content no
// matter which endpoint it targets.
var emergencyKeywords = []string{"emergency", "urgent", "trauma", "24 hour", "24-hour"}

// Classify maps a request descriptor to its content category and cache
// tags. Pure function, no I/O.
//
// Tags always include the bare category name and "category:<name>"; a
// parent filter adds "parent:<id>" and search requests add "search".
func Classify(endpoint string, params map[string]string) (Category, []string) {
	cat := classify(endpoint, params)

	tags := []string{cat.String(), "category:" + cat.String()}
	if parent := params["parent"]; parent != "" {
		tags = append(tags, "parent:"+parent)
	}
	if searchQuery(params) != "" {
		tags = append(tags, "search")
	}
	return cat, tags
}

func classify(endpoint string, params map[string]string) Category {
	if q := searchQuery(params); q != "" {
		if isEmergencyQuery(q) {
			return CategoryEmergency
		}
		return CategorySearch
	}

	path := strings.ToLower(endpoint)
	switch {
	case strings.Contains(path, "emergency"):
		return CategoryEmergency
	case strings.Contains(path, "doctor") || strings.Contains(path, "practitioner"):
		return CategoryDoctors
	case strings.Contains(path, "department"):
		return CategoryDepartments
	case params["parent"] == DepartmentsParentID:
		return CategoryDepartments
	case strings.Contains(path, "service"):
		return CategoryServices
	case strings.Contains(path, "post") || strings.Contains(path, "news"):
		return CategoryPosts
	default:
		return CategoryGeneral
	}
}

func searchQuery(params map[string]string) string {
	if q := params["search"]; q != "" {
		return q
	}
	return params["s"]
}

func isEmergencyQuery(q string) bool {
	q = strings.ToLower(q)
	for _, kw := range emergencyKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
