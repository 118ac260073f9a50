package participants

import (
	"errors"
	"testing"
)

const sampleMapping = `
departments:
  engineering:
    - name: Ada Osei
      email: ada@corp.example
      calendar_url: https://cal.example/ada.ics
      role: primary
    - name: Lin Park
      email: lin@corp.example
      calendar_url: https://cal.example/lin.ics
      role: secondary
  design:
    - name: Mo Farah
      email: mo@corp.example
      calendar_url: https://cal.example/mo.ics
      role: primary
aliases:
  "Software Engineer": engineering
  "Backend Developer": engineering
  "Product Designer": design
`

func mustResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := ParseResolver([]byte(sampleMapping))
	if err != nil {
		t.Fatalf("ParseResolver: %v", err)
	}
	return r
}

func TestResolve_KnownDepartment(t *testing.T) {
	r := mustResolver(t)

	group, err := r.Resolve("engineering")
	if err != nil {
		t.Fatalf("Resolve(engineering): %v", err)
	}
	if len(group) != 2 {
		t.Fatalf("got %d interviewers, want 2", len(group))
	}
	if group[0].Role != RolePrimary {
		t.Errorf("first interviewer role = %s, want primary", group[0].Role)
	}
}

func TestResolve_CaseAndWhitespaceInsensitive(t *testing.T) {
	r := mustResolver(t)
	for _, dept := range []string{"Engineering", "  engineering ", "ENGINEERING"} {
		if _, err := r.Resolve(dept); err != nil {
			t.Errorf("Resolve(%q): %v", dept, err)
		}
	}
}

func TestResolve_UnknownDepartmentIsTyped(t *testing.T) {
	r := mustResolver(t)

	_, err := r.Resolve("finance")
	if err == nil {
		t.Fatal("Resolve(finance) should fail")
	}
	var unresolved *UnresolvedError
	if !errors.As(err, &unresolved) {
		t.Fatalf("error is %T, want *UnresolvedError", err)
	}
	if unresolved.Department != "finance" {
		t.Errorf("UnresolvedError.Department = %q, want finance", unresolved.Department)
	}
}

func TestDepartmentForTitle(t *testing.T) {
	r := mustResolver(t)

	cases := []struct {
		title string
		want  string
	}{
		{"Software Engineer", "engineering"},
		{"software engineer", "engineering"},
		{"Product Designer", "design"},
		{"engineering", "engineering"}, // title equal to a department key
	}
	for _, c := range cases {
		got, err := r.DepartmentForTitle(c.title)
		if err != nil {
			t.Errorf("DepartmentForTitle(%q): %v", c.title, err)
			continue
		}
		if got != c.want {
			t.Errorf("DepartmentForTitle(%q) = %q, want %q", c.title, got, c.want)
		}
	}
}

func TestDepartmentForTitle_Unresolved(t *testing.T) {
	r := mustResolver(t)

	_, err := r.DepartmentForTitle("Chief Vibes Officer")
	var unresolved *UnresolvedError
	if !errors.As(err, &unresolved) {
		t.Fatalf("error is %T, want *UnresolvedError", err)
	}
}

func TestParseResolver_RejectsBadFiles(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"no departments", "aliases:\n  x: y\n"},
		{"missing email", "departments:\n  eng:\n    - name: A\n      role: primary\n"},
		{"bad role", "departments:\n  eng:\n    - email: a@b.c\n      role: boss\n"},
		{"alias to unknown department", sampleMapping + "  \"Analyst\": finance\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ParseResolver([]byte(c.body)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
