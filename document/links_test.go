package document

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const linksPage = `<!DOCTYPE html>
<html>
<head>
  <link rel="stylesheet" href="css/main.css">
  <link rel="icon" href="favicon.ico">
  <link REL="Alternate StyleSheet" href=" alt.css ">
  <link rel="stylesheet">
  <style>.inline { color: red; }</style>
  <style type="text/less">.less { }</style>
  <style>   </style>
</head>
<body>
  <link rel="stylesheet" href="/late.css">
  <style type="text/css">.body { margin: 0; }</style>
</body>
</html>`

func TestStylesheets(t *testing.T) {
	doc, err := Load(strings.NewReader(linksPage), "")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"css/main.css", "alt.css", "/late.css"}
	if diff := cmp.Diff(want, Stylesheets(doc)); diff != "" {
		t.Errorf("Stylesheets() mismatch (-want +got):\n%s", diff)
	}
}

func TestInlineStyles(t *testing.T) {
	doc, err := Load(strings.NewReader(linksPage), "")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{".inline { color: red; }", ".body { margin: 0; }"}
	if diff := cmp.Diff(want, InlineStyles(doc)); diff != "" {
		t.Errorf("InlineStyles() mismatch (-want +got):\n%s", diff)
	}
}

func TestStylesheets_None(t *testing.T) {
	doc, err := Load(strings.NewReader(`<p>text</p>`), "")
	if err != nil {
		t.Fatal(err)
	}
	if got := Stylesheets(doc); len(got) != 0 {
		t.Errorf("Stylesheets() = %v, want none", got)
	}
	if got := Stylesheets(nil); len(got) != 0 {
		t.Errorf("Stylesheets(nil) = %v, want none", got)
	}
}
