// Package descriptor parses the per-folder info.tc file into normalized
// tutorial metadata. The descriptor is a small YAML mapping produced by
// hand or by an external scraper; both sources are consumed identically.
package descriptor

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"tc-go/internal/model"
)

// ValidationError is returned when descriptor text fails schema
// validation. Field names the offending key; syntax errors use the
// pseudo-field "descriptor".
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// PathRef identifies a tutorial's membership in a learning path.
// Position is the tutorial's index within the path.
type PathRef struct {
	Publisher string
	Name      string
	Position  int
}

// Data holds every field a descriptor can carry, validated and
// normalized. A zero descriptor (missing or empty file) maps to
// Defaults().
type Data struct {
	Title         string
	Publisher     string
	Authors       []string
	Released      string
	Duration      int // Minutes
	Level         Level
	Rating        int
	URL           string
	Complete      bool
	Online        bool
	Todo          bool
	Progress      string
	PublisherTags []string
	PersonalTags  []string
	LearningPaths []PathRef
	Description   string
}

// Defaults returns the descriptor applied when a folder has no (or an
// invalid) info.tc: everything empty except complete, which defaults on.
func Defaults() *Data {
	return &Data{
		Complete: true,
		Progress: ProgressNotStarted,
	}
}

// raw mirrors the descriptor file's YAML shape. Both the current and
// legacy key spellings are declared; Parse merges them. Unknown keys
// are ignored by the decoder.
type raw struct {
	Title         string    `yaml:"title"`
	Publisher     string    `yaml:"publisher"`
	Author        []string  `yaml:"author"`
	Released      string    `yaml:"released"`
	Duration      string    `yaml:"duration"`
	Level         string    `yaml:"level"`
	Rating        *int      `yaml:"rating"`
	URL           string    `yaml:"url"`
	Complete      *bool     `yaml:"complete"`
	Online        *bool     `yaml:"online"`
	Todo          *bool     `yaml:"todo"`
	Viewed        string    `yaml:"viewed"`
	Progress      string    `yaml:"progress"`
	Tags          []string  `yaml:"tags"`
	PublisherTags []string  `yaml:"publisher_tags"`
	ExtraTags     []string  `yaml:"extraTags"`
	PersonalTags  []string  `yaml:"personal_tags"`
	LearningPaths []rawPath `yaml:"learning_paths"`
	Description   string    `yaml:"description"`
}

type rawPath struct {
	Publisher string `yaml:"publisher"`
	Name      string `yaml:"name"`
}

// Parse converts raw descriptor text into validated Data. Empty text is
// allowed and yields Defaults(). Any schema violation is reported as a
// *ValidationError; the caller is expected to record it on the folder
// and fall back to Defaults().
func Parse(text string) (*Data, error) {
	d := Defaults()
	if strings.TrimSpace(text) == "" {
		return d, nil
	}

	var r raw
	if err := yaml.Unmarshal([]byte(text), &r); err != nil {
		return nil, &ValidationError{Field: "descriptor", Reason: err.Error()}
	}

	d.Title = strings.TrimSpace(r.Title)
	d.Publisher = strings.TrimSpace(r.Publisher)
	d.URL = strings.TrimSpace(r.URL)
	d.Description = r.Description

	for _, name := range r.Author {
		if name = strings.TrimSpace(name); name != "" {
			d.Authors = append(d.Authors, name)
		}
	}

	if r.Released != "" {
		if err := ValidateReleased(r.Released); err != nil {
			return nil, &ValidationError{Field: "released", Reason: err.Error()}
		}
		d.Released = r.Released
	}

	if r.Duration != "" {
		minutes, err := ParseDuration(r.Duration)
		if err != nil {
			return nil, &ValidationError{Field: "duration", Reason: err.Error()}
		}
		d.Duration = minutes
	}

	// Unknown level tokens are ignored rather than rejected.
	d.Level = ParseLevel(r.Level)

	if r.Rating != nil {
		if *r.Rating < -5 || *r.Rating > 5 {
			return nil, &ValidationError{Field: "rating", Reason: fmt.Sprintf("rating %d out of range [-5,5]", *r.Rating)}
		}
		d.Rating = *r.Rating
	}

	if r.Complete != nil {
		d.Complete = *r.Complete
	}
	if r.Online != nil {
		d.Online = *r.Online
	}
	if r.Todo != nil {
		d.Todo = *r.Todo
	}

	progress, err := resolveProgress(r.Progress, r.Viewed)
	if err != nil {
		return nil, err
	}
	d.Progress = progress

	d.PublisherTags = mergeTagLists(r.Tags, r.PublisherTags)
	d.PersonalTags = mergeTagLists(r.ExtraTags, r.PersonalTags)

	for i, p := range r.LearningPaths {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, &ValidationError{Field: "learning_paths", Reason: fmt.Sprintf("entry %d has no name", i)}
		}
		d.LearningPaths = append(d.LearningPaths, PathRef{
			Publisher: strings.TrimSpace(p.Publisher),
			Name:      name,
			Position:  i,
		})
	}

	return d, nil
}

// resolveProgress maps the progress key (or the legacy viewed key) to
// the closed progress vocabulary.
func resolveProgress(progress, viewed string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(progress)) {
	case "":
		// Fall through to the legacy key.
	case ProgressNotStarted:
		return ProgressNotStarted, nil
	case ProgressStarted:
		return ProgressStarted, nil
	case ProgressFinished:
		return ProgressFinished, nil
	default:
		return "", &ValidationError{Field: "progress", Reason: fmt.Sprintf("unknown progress %q", progress)}
	}

	switch strings.ToLower(strings.TrimSpace(viewed)) {
	case "":
		return ProgressNotStarted, nil
	case "no":
		return ProgressNotStarted, nil
	case "yes":
		return ProgressFinished, nil
	default:
		return "", &ValidationError{Field: "viewed", Reason: fmt.Sprintf("unknown viewed value %q", viewed)}
	}
}

// mergeTagLists combines a key and its alias into one de-duplicated
// list, preserving first-seen order.
func mergeTagLists(lists ...[]string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, list := range lists {
		for _, tag := range list {
			tag = strings.TrimSpace(tag)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			merged = append(merged, tag)
		}
	}
	return merged
}

// AllAuthors renders the deterministic author aggregate: sorted names
// joined by ", ".
func (d *Data) AllAuthors() string {
	names := append([]string(nil), d.Authors...)
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// AllTags renders the deterministic tag aggregate: sorted "name|source"
// entries joined by ", ". The same text can appear once per source.
func (d *Data) AllTags() string {
	var entries []string
	for _, t := range d.PublisherTags {
		entries = append(entries, t+"|"+model.TagSourcePublisher)
	}
	for _, t := range d.PersonalTags {
		entries = append(entries, t+"|"+model.TagSourcePersonal)
	}
	sort.Strings(entries)
	return strings.Join(entries, ", ")
}

// AllPaths renders the deterministic learning-path aggregate: sorted
// "publisher/name" entries joined by ", ".
func (d *Data) AllPaths() string {
	var entries []string
	for _, p := range d.LearningPaths {
		entries = append(entries, p.Publisher+"/"+p.Name)
	}
	sort.Strings(entries)
	return strings.Join(entries, ", ")
}
