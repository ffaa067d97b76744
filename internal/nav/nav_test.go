package nav

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestRegisterSectionIdempotent(t *testing.T) {
	b := NewBuilder("/out")
	b.RegisterSection("guides")
	b.RegisterSection("api")
	b.RegisterSection("guides")

	got := b.Sections()
	if len(got) != 2 {
		t.Fatalf("expected 2 sections, got %d: %v", len(got), got)
	}
	if got[0] != "guides" || got[1] != "api" {
		t.Fatalf("registration order not preserved: %v", got)
	}
}

func TestNavbarRelativizesFromNestedPage(t *testing.T) {
	b := NewBuilder("/out")
	b.RegisterSection("guides")

	navbar := b.Navbar(filepath.Join("/out", "guides", "deep", "page.html"))
	if !strings.Contains(navbar, `href="../../index.html"`) {
		t.Fatalf("home link not relativized for nested page: %s", navbar)
	}
	if !strings.Contains(navbar, `href="../index.html"`) {
		t.Fatalf("section link not relativized for nested page: %s", navbar)
	}
}

func TestNavbarRootPage(t *testing.T) {
	b := NewBuilder("/out")
	b.RegisterSection("guides")

	navbar := b.Navbar(filepath.Join("/out", "index.html"))
	if !strings.Contains(navbar, `href="index.html"`) {
		t.Fatalf("home link from root should be bare index.html: %s", navbar)
	}
	if !strings.Contains(navbar, `href="guides/index.html"`) {
		t.Fatalf("section link from root wrong: %s", navbar)
	}
}

func TestNavbarHomeFirstThenRegistrationOrder(t *testing.T) {
	b := NewBuilder("/out")
	b.RegisterSection("zz")
	b.RegisterSection("aa")

	navbar := b.Navbar(filepath.Join("/out", "page.html"))
	home := strings.Index(navbar, ">Home<")
	zz := strings.Index(navbar, ">zz<")
	aa := strings.Index(navbar, ">aa<")
	if home < 0 || zz < 0 || aa < 0 {
		t.Fatalf("missing navbar entries: %s", navbar)
	}
	if !(home < zz && zz < aa) {
		t.Fatalf("navbar order wrong (home=%d zz=%d aa=%d): %s", home, zz, aa, navbar)
	}
}

func TestNavbarEscapesSectionNames(t *testing.T) {
	b := NewBuilder("/out")
	b.RegisterSection("a<b>&c")

	navbar := b.Navbar(filepath.Join("/out", "page.html"))
	if !strings.Contains(navbar, "a&lt;b&gt;&amp;c") {
		t.Fatalf("section name not escaped: %s", navbar)
	}
}

func TestNavbarCustomHomeLabel(t *testing.T) {
	b := NewBuilder("/out").WithHomeLabel("Start")
	navbar := b.Navbar(filepath.Join("/out", "page.html"))
	if !strings.Contains(navbar, ">Start</a>") {
		t.Fatalf("custom home label not used: %s", navbar)
	}
}

func TestNavbarDoesNotTouchFilesystem(t *testing.T) {
	// Targets never exist on disk; link generation is pure path arithmetic.
	b := NewBuilder(filepath.Join(t.TempDir(), "never-created"))
	b.RegisterSection("ghost")
	navbar := b.Navbar(filepath.Join(b.outputRoot, "sub", "page.html"))
	if !strings.Contains(navbar, `href="../ghost/index.html"`) {
		t.Fatalf("navbar for missing targets wrong: %s", navbar)
	}
}
