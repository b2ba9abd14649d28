package ingest

import (
	"errors"
	"fmt"
	"os"

	"mytimetable-scraper/lib/textutil"
)

var ErrNoCourses = errors.New("no course codes to process")

// LoadCourses reads one course code per line, whitespace is collapsed and
// blank lines are skipped. Order and duplicates are kept.
func LoadCourses(path string) ([]string, error) {
	buff, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read courses: %w", err)
	}
	var courses []string
	for _, line := range textutil.SplitLines(string(buff)) {
		course := textutil.CollapseWhitespace(line)
		if course == "" {
			continue
		}
		courses = append(courses, course)
	}
	if len(courses) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoCourses)
	}
	return courses, nil
}
