package augmentretrieval

import (
	"strings"
	"unicode"

	"asha-assistant/internal/models"
)

// fallbackHead is how many items of each kind are used when nothing better is known.
const fallbackHead = 2

// DefaultDataset is the curated JobsForHer dataset.
var DefaultDataset = Dataset{
	Statistics: []models.Statistic{
		{Value: "73% of women reported career growth after mentorship", Source: "JobsForHer Impact Report 2025"},
		{Value: "Over 500,000 women professionals connected on our platform", Source: "JobsForHer Platform Statistics 2025"},
		{Value: "85% of mentored professionals reported higher job satisfaction", Source: "Women in Tech Survey 2025"},
	},
	Resources: []models.Resource{
		{Text: "JobsForHer Mentorship Program", URL: "https://www.jobsforher.com/mentorship"},
		{Text: "Career Development Resources", URL: "https://www.jobsforher.com/resources"},
		{Text: "Professional Skills Workshops", URL: "https://www.jobsforher.com/workshops"},
	},
}

// Head returns the first items of each list.
func (d Dataset) Head() SourceResult {
	return SourceResult{
		Statistics: headStats(d.Statistics, fallbackHead),
		Resources:  headResources(d.Resources, fallbackHead),
	}
}

// Filter keeps the items whose text contains a query word of at least three
// characters. A list with no match falls back to its head.
func (d Dataset) Filter(query string) SourceResult {
	words := queryWords(query)

	var stats []models.Statistic
	for _, s := range d.Statistics {
		if matchesAny(s.Value+" "+s.Source, words) {
			stats = append(stats, s)
		}
	}
	if len(stats) == 0 {
		stats = headStats(d.Statistics, fallbackHead)
	}

	var resources []models.Resource
	for _, r := range d.Resources {
		if matchesAny(r.Text+" "+r.URL, words) {
			resources = append(resources, r)
		}
	}
	if len(resources) == 0 {
		resources = headResources(d.Resources, fallbackHead)
	}

	return SourceResult{Statistics: stats, Resources: resources}
}

func queryWords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 3 {
			words = append(words, f)
		}
	}
	return words
}

func matchesAny(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func headStats(in []models.Statistic, n int) []models.Statistic {
	if len(in) < n {
		n = len(in)
	}
	out := make([]models.Statistic, n)
	copy(out, in[:n])
	return out
}

func headResources(in []models.Resource, n int) []models.Resource {
	if len(in) < n {
		n = len(in)
	}
	out := make([]models.Resource, n)
	copy(out, in[:n])
	return out
}

// merge concatenates results in order, dropping duplicate statistics by (value, source)
// and duplicate resources by url, and truncates each list to limit.
func merge(limit int, results ...SourceResult) SourceResult {
	type statKey struct{ value, source string }
	seenStats := make(map[statKey]bool)
	seenURLs := make(map[string]bool)

	var out SourceResult
	for _, r := range results {
		for _, s := range r.Statistics {
			k := statKey{s.Value, s.Source}
			if s.Value == "" || seenStats[k] || len(out.Statistics) >= limit {
				continue
			}
			seenStats[k] = true
			out.Statistics = append(out.Statistics, s)
		}
		for _, res := range r.Resources {
			if res.URL == "" || seenURLs[res.URL] || len(out.Resources) >= limit {
				continue
			}
			seenURLs[res.URL] = true
			out.Resources = append(out.Resources, res)
		}
	}
	return out
}
