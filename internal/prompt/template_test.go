package prompt

import (
	"strings"
	"testing"
)

func TestRender_SimpleVars(t *testing.T) {
	tmpl := "A {{genre}} story titled {{title}}."
	vars := Vars{
		"genre": "noir",
		"title": "Dead Letter",
	}

	result, err := Render(tmpl, vars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "A noir story titled Dead Letter."
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestRender_MissingVar(t *testing.T) {
	tmpl := "Genre {{genre}}, chapter {{chapter}}."
	vars := Vars{
		"genre": "noir",
	}

	_, err := Render(tmpl, vars)
	if err == nil {
		t.Fatal("expected error for missing variable")
	}
	if !strings.Contains(err.Error(), "chapter") {
		t.Errorf("error should mention missing variable, got: %v", err)
	}
}

func TestRender_MultipleMissing(t *testing.T) {
	tmpl := "{{a}} and {{b}} and {{c}}"
	vars := Vars{}

	_, err := Render(tmpl, vars)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "a") || !strings.Contains(err.Error(), "b") || !strings.Contains(err.Error(), "c") {
		t.Errorf("error should mention all missing vars, got: %v", err)
	}
}

func TestRender_ConditionalBlock_Present(t *testing.T) {
	tmpl := "Start.{{#if title}}\nTitle: {{title}}\n{{/if}}End."
	vars := Vars{
		"title": "Iron Orbit",
	}

	result, err := Render(tmpl, vars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "Title: Iron Orbit") {
		t.Errorf("conditional body should be included, got %q", result)
	}
}

func TestRender_ConditionalBlock_Absent(t *testing.T) {
	tmpl := "Start.{{#if title}}Title: {{title}}{{/if}}End."

	result, err := Render(tmpl, Vars{"title": ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "Start.End." {
		t.Errorf("conditional body should be dropped, got %q", result)
	}
}

func TestRender_DanglingClose(t *testing.T) {
	_, err := Render("text {{/if}} more", Vars{})
	if err == nil {
		t.Fatal("expected error for dangling {{/if}}")
	}
}

func TestRender_UnclosedConditional(t *testing.T) {
	_, err := Render("{{#if title}}never closed", Vars{"title": "x"})
	if err == nil {
		t.Fatal("expected error for unclosed conditional")
	}
}
