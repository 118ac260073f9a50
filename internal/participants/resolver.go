// Package participants resolves which interviewers must attend an
// interview round. The mapping is an explicit, operator-maintained table
// (YAML, loaded at startup) — department names and job-title aliases are
// matched against it exactly, and anything outside the table resolves to
// a typed Unresolved result rather than a guessed string.
package participants

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Role distinguishes the interviewer whose calendar must always be free
// from optional panel members. Both are required participants for
// availability purposes; the role is carried through to the invite.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleSecondary Role = "secondary"
)

// Interviewer is one person whose calendar is checked for the round.
type Interviewer struct {
	Name        string `yaml:"name"`
	Email       string `yaml:"email"`
	CalendarURL string `yaml:"calendar_url"`
	Role        Role   `yaml:"role"`
}

// UnresolvedError reports a department with no interviewer group. The
// interview transition treats it as a warning: the stage change proceeds
// with empty availability.
type UnresolvedError struct {
	Department string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("no interviewer group for department %q", e.Department)
}

// mappingFile is the on-disk shape of the departments table.
type mappingFile struct {
	Departments map[string][]Interviewer `yaml:"departments"`
	// Aliases maps job titles to department keys, for callers that only
	// know the job title. Keys are matched case-insensitively.
	Aliases map[string]string `yaml:"aliases"`
}

// Resolver answers "who interviews for this department".
type Resolver struct {
	departments map[string][]Interviewer
	aliases     map[string]string
}

// LoadResolver reads and validates the departments mapping file.
func LoadResolver(path string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read departments file: %w", err)
	}
	return ParseResolver(data)
}

// ParseResolver builds a Resolver from raw mapping-file bytes.
func ParseResolver(data []byte) (*Resolver, error) {
	var f mappingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse departments file: %w", err)
	}
	if len(f.Departments) == 0 {
		return nil, fmt.Errorf("departments file defines no departments")
	}

	departments := make(map[string][]Interviewer, len(f.Departments))
	for dept, group := range f.Departments {
		key := normalize(dept)
		for i, iv := range group {
			if iv.Email == "" {
				return nil, fmt.Errorf("department %q: interviewer %d has no email", dept, i)
			}
			if iv.Role != RolePrimary && iv.Role != RoleSecondary {
				return nil, fmt.Errorf("department %q: interviewer %s has unknown role %q", dept, iv.Email, iv.Role)
			}
		}
		departments[key] = group
	}

	aliases := make(map[string]string, len(f.Aliases))
	for title, dept := range f.Aliases {
		key := normalize(dept)
		if _, ok := departments[key]; !ok {
			return nil, fmt.Errorf("alias %q points at unknown department %q", title, dept)
		}
		aliases[normalize(title)] = key
	}

	return &Resolver{departments: departments, aliases: aliases}, nil
}

// Resolve returns the interviewer group for a department. An unknown
// department yields *UnresolvedError — never an empty guess.
func (r *Resolver) Resolve(department string) ([]Interviewer, error) {
	group, ok := r.departments[normalize(department)]
	if !ok {
		return nil, &UnresolvedError{Department: department}
	}
	return group, nil
}

// DepartmentForTitle maps a job title to its department using the alias
// table. The fallback rule: a title that is itself a department key
// resolves to that department; otherwise the title is unresolved.
func (r *Resolver) DepartmentForTitle(title string) (string, error) {
	key := normalize(title)
	if dept, ok := r.aliases[key]; ok {
		return dept, nil
	}
	if _, ok := r.departments[key]; ok {
		return key, nil
	}
	return "", &UnresolvedError{Department: title}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
