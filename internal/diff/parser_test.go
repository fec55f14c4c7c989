package diff

import (
	"testing"
)

const multiFileDiff = `diff --git a/foo.go b/foo.go
index 123abc..456def 100644
--- a/foo.go
+++ b/foo.go
@@ -1,1 +1,3 @@
 package foo
+
+func Bar() {}
diff --git a/web/app.js b/web/app.js
new file mode 100644
--- /dev/null
+++ b/web/app.js
@@ -0,0 +1,3 @@
+function hello(name) {
+  return name;
+}
`

func TestParse_Empty(t *testing.T) {
	hunks := Parse("")
	if len(hunks) != 0 {
		t.Errorf("Expected 0 hunks for empty input, got %d", len(hunks))
	}
}

func TestParse_SingleHunk(t *testing.T) {
	hunks := Parse("@@ -1,3 +1,4 @@\n line1\n+added line\n line3")

	if len(hunks) != 1 {
		t.Fatalf("Expected 1 hunk, got %d", len(hunks))
	}

	h := hunks[0]
	if h.OldStart != 1 || h.OldLineCount != 3 || h.NewStart != 1 || h.NewLineCount != 4 {
		t.Errorf("Unexpected header values: %+v", h)
	}

	want := []Line{
		{Type: LineContext, Content: "line1", LineNumber: 1},
		{Type: LineAdded, Content: "added line", LineNumber: 2},
		{Type: LineContext, Content: "line3", LineNumber: 3},
	}
	if len(h.Lines) != len(want) {
		t.Fatalf("Expected %d lines, got %d", len(want), len(h.Lines))
	}
	for i, line := range h.Lines {
		if line != want[i] {
			t.Errorf("line[%d] = %+v, want %+v", i, line, want[i])
		}
	}
}

func TestParse_LineNumbersPerSide(t *testing.T) {
	text := "@@ -10,4 +20,4 @@\n ctx\n-old1\n-old2\n+new1\n+new2\n ctx2\n"

	hunks := Parse(text)
	if len(hunks) != 1 {
		t.Fatalf("Expected 1 hunk, got %d", len(hunks))
	}

	tests := []struct {
		content string
		typ     LineType
		number  int
	}{
		{"ctx", LineContext, 20},
		{"old1", LineRemoved, 11},
		{"old2", LineRemoved, 12},
		{"new1", LineAdded, 21},
		{"new2", LineAdded, 22},
		{"ctx2", LineContext, 23},
	}

	lines := hunks[0].Lines
	if len(lines) != len(tests) {
		t.Fatalf("Expected %d lines, got %d", len(tests), len(lines))
	}
	for i, tt := range tests {
		if lines[i].Content != tt.content || lines[i].Type != tt.typ || lines[i].LineNumber != tt.number {
			t.Errorf("line[%d] = %+v, want {%s %s %d}", i, lines[i], tt.typ, tt.content, tt.number)
		}
	}
}

func TestParse_HeaderCountsMatchWellFormedHunks(t *testing.T) {
	text := "@@ -10,4 +20,4 @@\n ctx\n-old1\n-old2\n+new1\n+new2\n ctx2\n" +
		"@@ -40,2 +40,3 @@\n a\n+b\n c\n"

	for i, h := range Parse(text) {
		oldCount, newCount := 0, 0
		for _, line := range h.Lines {
			if line.Type != LineAdded {
				oldCount++
			}
			if line.Type != LineRemoved {
				newCount++
			}
		}
		if oldCount != h.OldLineCount {
			t.Errorf("hunk %d: old side has %d lines, header says %d", i, oldCount, h.OldLineCount)
		}
		if newCount != h.NewLineCount {
			t.Errorf("hunk %d: new side has %d lines, header says %d", i, newCount, h.NewLineCount)
		}
	}
}

func TestParse_MissingCountsDefaultToOne(t *testing.T) {
	hunks := Parse("@@ -5 +7 @@\n-a\n+b\n")
	if len(hunks) != 1 {
		t.Fatalf("Expected 1 hunk, got %d", len(hunks))
	}

	h := hunks[0]
	if h.OldLineCount != 1 || h.NewLineCount != 1 {
		t.Errorf("Expected default counts of 1, got old=%d new=%d", h.OldLineCount, h.NewLineCount)
	}
	if h.Lines[0].LineNumber != 5 {
		t.Errorf("Removed line number = %d, want 5", h.Lines[0].LineNumber)
	}
	if h.Lines[1].LineNumber != 7 {
		t.Errorf("Added line number = %d, want 7", h.Lines[1].LineNumber)
	}
}

func TestParse_MultiFileDropsMetadata(t *testing.T) {
	hunks := Parse(multiFileDiff)
	if len(hunks) != 2 {
		t.Fatalf("Expected 2 hunks, got %d", len(hunks))
	}

	for _, h := range hunks {
		for _, line := range h.Lines {
			if line.Content == "a/foo.go" || line.Content == "++ b/foo.go" || line.Content == "-- /dev/null" {
				t.Errorf("Metadata leaked into hunk: %+v", line)
			}
		}
	}

	if len(hunks[0].Lines) != 3 {
		t.Errorf("Expected 3 lines in first hunk, got %d", len(hunks[0].Lines))
	}
	if len(hunks[1].Lines) != 3 {
		t.Errorf("Expected 3 lines in second hunk, got %d", len(hunks[1].Lines))
	}
}

func TestParse_HeaderLikeChangedLines(t *testing.T) {
	text := "--- a/main.c\n+++ b/main.c\n@@ -1,2 +1,3 @@\n int x;\n+++i;\n---j;\n+++k;\n"

	hunks := Parse(text)
	if len(hunks) != 1 {
		t.Fatalf("Expected 1 hunk, got %d", len(hunks))
	}

	h := hunks[0]
	want := []Line{
		{Type: LineContext, Content: "int x;", LineNumber: 1},
		{Type: LineAdded, Content: "++i;", LineNumber: 2},
		{Type: LineRemoved, Content: "--j;", LineNumber: 2},
		{Type: LineAdded, Content: "++k;", LineNumber: 3},
	}
	if len(h.Lines) != len(want) {
		t.Fatalf("Expected %d lines, got %+v", len(want), h.Lines)
	}
	for i, line := range h.Lines {
		if line != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, line, want[i])
		}
	}

	oldSide, newSide := 0, 0
	for _, line := range h.Lines {
		if line.Type != LineAdded {
			oldSide++
		}
		if line.Type != LineRemoved {
			newSide++
		}
	}
	if oldSide != h.OldLineCount || newSide != h.NewLineCount {
		t.Errorf("Header counts old=%d new=%d, lines give old=%d new=%d",
			h.OldLineCount, h.NewLineCount, oldSide, newSide)
	}
}

func TestParseFiles_HeaderLikeChangedLines(t *testing.T) {
	text := "--- a/main.c\n+++ b/main.c\n@@ -1,2 +1,2 @@\n int x;\n+++i;\n---j;\n" +
		"--- a/util.c\n+++ b/util.c\n@@ -1 +1 @@\n--- old comment\n+++new\n"

	files := ParseFiles(text)
	if len(files) != 2 {
		t.Fatalf("Expected 2 files, got %+v", files)
	}
	if files[0].OldPath != "main.c" || files[0].NewPath != "main.c" {
		t.Errorf("Unexpected paths for first file: old=%q new=%q", files[0].OldPath, files[0].NewPath)
	}
	if files[1].Path() != "util.c" {
		t.Errorf("Expected util.c, got %q", files[1].Path())
	}
	for i, f := range files {
		if len(f.Hunks) != 1 || len(f.Hunks[0].Lines) != 3-i {
			t.Errorf("file %d: unexpected hunks %+v", i, f.Hunks)
		}
	}
}

func TestParse_GitHeaderEndsExpectedLines(t *testing.T) {
	// The first hunk claims more lines than it has; the next file's headers
	// must still be read as headers.
	text := "diff --git a/a.go b/a.go\n--- a/a.go\n+++ b/a.go\n@@ -1,5 +1,5 @@\n-x\n+y\n" +
		"diff --git a/b.go b/b.go\n--- a/b.go\n+++ b/b.go\n@@ -1 +1 @@\n-p\n+q\n"

	files := ParseFiles(text)
	if len(files) != 2 || files[1].Path() != "b.go" {
		t.Fatalf("Expected a.go and b.go, got %+v", files)
	}
	if len(files[0].Hunks[0].Lines) != 2 {
		t.Errorf("Expected headers kept out of the first hunk, got %+v", files[0].Hunks[0].Lines)
	}
}

func TestParse_MalformedInputIsIgnored(t *testing.T) {
	text := "garbage\n+orphan added\n@@ bogus @@\n-also orphan\n\\ No newline at end of file"

	hunks := Parse(text)
	if len(hunks) != 0 {
		t.Errorf("Expected no hunks from malformed input, got %d", len(hunks))
	}
}

func TestParse_CRLF(t *testing.T) {
	hunks := Parse("@@ -1,1 +1,1 @@\r\n-a\r\n+b\r\n")
	if len(hunks) != 1 || len(hunks[0].Lines) != 2 {
		t.Fatalf("Expected 1 hunk with 2 lines, got %+v", hunks)
	}
	if hunks[0].Lines[1].Content != "b" {
		t.Errorf("Expected carriage return stripped, got %q", hunks[0].Lines[1].Content)
	}
}

func TestParseFiles(t *testing.T) {
	files := ParseFiles(multiFileDiff)
	if len(files) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(files))
	}

	if files[0].OldPath != "foo.go" || files[0].NewPath != "foo.go" {
		t.Errorf("Unexpected paths for first file: %+v", files[0])
	}
	if files[1].OldPath != "" || files[1].NewPath != "web/app.js" {
		t.Errorf("Unexpected paths for new file: old=%q new=%q", files[1].OldPath, files[1].NewPath)
	}
	if files[1].Path() != "web/app.js" {
		t.Errorf("Path() = %q, want web/app.js", files[1].Path())
	}
	for i, f := range files {
		if len(f.Hunks) != 1 {
			t.Errorf("file %d: expected 1 hunk, got %d", i, len(f.Hunks))
		}
	}
}

func TestParseFiles_PlainUnifiedDiff(t *testing.T) {
	text := "--- a.txt\t2024-01-01\n+++ a.txt\t2024-01-02\n@@ -1 +1 @@\n-x\n+y\n" +
		"--- b.txt\n+++ b.txt\n@@ -1 +1 @@\n-p\n+q\n"

	files := ParseFiles(text)
	if len(files) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(files))
	}
	if files[0].Path() != "a.txt" || files[1].Path() != "b.txt" {
		t.Errorf("Unexpected paths: %q, %q", files[0].Path(), files[1].Path())
	}
}

func TestParseFiles_HeaderlessHunks(t *testing.T) {
	files := ParseFiles("@@ -1 +1 @@\n-x\n+y\n")
	if len(files) != 1 {
		t.Fatalf("Expected 1 anonymous file, got %d", len(files))
	}
	if files[0].Path() != "" {
		t.Errorf("Expected empty path, got %q", files[0].Path())
	}
	if len(files[0].Hunks) != 1 {
		t.Errorf("Expected 1 hunk, got %d", len(files[0].Hunks))
	}
}
