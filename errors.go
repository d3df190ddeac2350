package main

import "fmt"

// LoadError и RenderError прерывают прогон, ProfileError и AnalysisError
// только вырезают колонку или секцию из отчёта.

type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type ProfileError struct {
	Column string
	Err    error
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("profile column %s: %v", e.Column, e.Err)
}

func (e *ProfileError) Unwrap() error { return e.Err }

type AnalysisError struct {
	Section string
	Err     error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis %s: %v", e.Section, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
