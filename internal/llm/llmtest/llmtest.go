// Package llmtest provides a scripted llm.Generator for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/raphaelgruber/brogue-dm/internal/llm"
)

// Generator answers every request with Text, or fails with Err when set.
type Generator struct {
	Text string
	Err  error

	mu       sync.Mutex
	requests []llm.Request
}

var _ llm.Generator = (*Generator)(nil)

// Generate records req and returns the scripted answer.
func (g *Generator) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return llm.Response{}, err
	}
	if g.Err != nil {
		return llm.Response{}, g.Err
	}
	return llm.Response{Text: g.Text, InputTokens: 10, OutputTokens: 20}, nil
}

// Model reports a fixed model name.
func (g *Generator) Model() string { return "scripted" }

// Requests returns every request seen so far.
func (g *Generator) Requests() []llm.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]llm.Request(nil), g.requests...)
}
