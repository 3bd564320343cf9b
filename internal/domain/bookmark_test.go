package domain

import (
	"testing"
	"time"
)

func TestNewBookmarkValidate(t *testing.T) {
	tests := []struct {
		name      string
		in        NewBookmark
		wantErr   bool
		wantField string
		wantMsg   string
	}{
		{
			name: "valid https",
			in:   NewBookmark{URL: "https://example.com", Title: "Example"},
		},
		{
			name: "valid http with path and surrounding spaces",
			in:   NewBookmark{URL: "  http://example.com/a?b=c  ", Title: "  Example  "},
		},
		{
			name:      "missing url",
			in:        NewBookmark{Title: "Example"},
			wantErr:   true,
			wantField: "url",
			wantMsg:   MsgFieldsRequired,
		},
		{
			name:      "blank title",
			in:        NewBookmark{URL: "https://example.com", Title: "   "},
			wantErr:   true,
			wantField: "title",
			wantMsg:   MsgFieldsRequired,
		},
		{
			name:      "empty title",
			in:        NewBookmark{URL: "https://example.com", Title: ""},
			wantErr:   true,
			wantField: "title",
			wantMsg:   MsgFieldsRequired,
		},
		{
			name:      "relative url",
			in:        NewBookmark{URL: "/just/a/path", Title: "Example"},
			wantErr:   true,
			wantField: "url",
			wantMsg:   MsgInvalidURL,
		},
		{
			name:      "ftp scheme",
			in:        NewBookmark{URL: "ftp://example.com", Title: "Example"},
			wantErr:   true,
			wantField: "url",
			wantMsg:   MsgInvalidURL,
		},
		{
			name:      "missing host",
			in:        NewBookmark{URL: "https://", Title: "Example"},
			wantErr:   true,
			wantField: "url",
			wantMsg:   MsgInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			if !IsValidation(err) {
				t.Fatalf("Validate() error = %T, want *ValidationError", err)
			}
			ve := err.(*ValidationError)
			if ve.Field != tt.wantField {
				t.Errorf("Field = %v, want %v", ve.Field, tt.wantField)
			}
			if ve.Message != tt.wantMsg {
				t.Errorf("Message = %v, want %v", ve.Message, tt.wantMsg)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	got := NewBookmark{URL: " https://example.com ", Title: "\tExample\n"}.Normalize()
	if got.URL != "https://example.com" || got.Title != "Example" {
		t.Errorf("Normalize() = %+v", got)
	}
}

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.github.com/golang/go", "Github.com"},
		{"http://example.com", "Example.com"},
		{"https://news.ycombinator.com:443/", "News.ycombinator.com"},
		{"not a url", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := TitleFromURL(tt.in); got != tt.want {
				t.Errorf("TitleFromURL(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := []Bookmark{
		{ID: "a", CreatedAt: base},
		{ID: "c", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "b", CreatedAt: base.Add(time.Minute)},
		{ID: "d", CreatedAt: base.Add(time.Minute)},
	}

	SortNewestFirst(b)

	want := []string{"c", "d", "b", "a"}
	for i, id := range want {
		if b[i].ID != id {
			t.Errorf("position %d = %v, want %v", i, b[i].ID, id)
		}
	}
}

func TestBuild(t *testing.T) {
	now := time.Date(2025, 3, 4, 5, 6, 7, 891234567, time.FixedZone("CET", 3600))

	b, err := Build("u1", NewBookmark{URL: " https://example.com ", Title: " Example "}, "id-1", now)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if b.OwnerID != "u1" || b.ID != "id-1" {
		t.Errorf("Build() identity = %v/%v, want u1/id-1", b.OwnerID, b.ID)
	}
	if b.URL != "https://example.com" || b.Title != "Example" {
		t.Errorf("Build() content = %q/%q, want trimmed values", b.URL, b.Title)
	}
	if b.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt location = %v, want UTC", b.CreatedAt.Location())
	}
	if b.CreatedAt.Nanosecond()%1000 != 0 {
		t.Errorf("CreatedAt = %v, want microsecond precision", b.CreatedAt)
	}

	if _, err := Build("", NewBookmark{URL: "https://example.com", Title: "x"}, "id", now); err != ErrOwnerRequired {
		t.Errorf("Build() without owner error = %v, want %v", err, ErrOwnerRequired)
	}
	if _, err := Build("u1", NewBookmark{URL: "https://example.com"}, "id", now); !IsValidation(err) {
		t.Errorf("Build() with blank title error = %v, want validation error", err)
	}
}
