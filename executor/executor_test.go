package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/hollis-source/unified-intelligence-cli/entities"
	uierrors "github.com/hollis-source/unified-intelligence-cli/errors"
	"github.com/hollis-source/unified-intelligence-cli/providers"
)

// fakeGenerator is a hand-rolled stub Generator, in the teacher's
// mock-provider style.
type fakeGenerator struct {
	out      string
	err      error
	messages []providers.Message
}

func (f *fakeGenerator) Generate(ctx context.Context, messages []providers.Message, cfg providers.GenerationConfig) (string, error) {
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

type recordingCollector struct {
	records []InteractionRecord
}

func (c *recordingCollector) Collect(r InteractionRecord) {
	c.records = append(c.records, r)
}

func TestExecuteSuccessAppendsHistoryAndCollects(t *testing.T) {
	gen := &fakeGenerator{out: "done"}
	collector := &recordingCollector{}
	e := &Executor{Generator: gen, Collector: collector}

	agent := entities.NewAgent("coder", "coding")
	task := entities.Task{TaskID: "t1", Description: "write a function", Priority: 1}
	ctxState := entities.NewExecutionContext("s1")

	result := e.Execute(context.Background(), agent, task, ctxState)
	if result.Status != entities.StatusSuccess {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Output != "done" {
		t.Fatalf("expected output 'done', got %v", result.Output)
	}
	history := ctxState.LastHistory(5)
	if len(history) != 1 || history[0].Role != "assistant" || history[0].Content != "done" {
		t.Fatalf("expected assistant history entry 'done', got %+v", history)
	}
	if len(collector.records) != 1 || !collector.records[0].Success {
		t.Fatalf("expected one successful interaction record, got %+v", collector.records)
	}
}

func TestExecuteNilGeneratorFails(t *testing.T) {
	e := New(nil)
	result := e.Execute(context.Background(), entities.NewAgent("coder"), entities.Task{TaskID: "t1", Description: "x task", Priority: 1}, nil)
	if result.Status != entities.StatusFailure {
		t.Fatalf("expected failure for a nil generator, got %+v", result)
	}
	if result.ErrorDetails == nil || result.ErrorDetails.ErrorType != "ConfigurationError" {
		t.Fatalf("expected a ConfigurationError detail, got %+v", result.ErrorDetails)
	}
}

func TestExecuteClassifiesToolExecutionError(t *testing.T) {
	toolErr := uierrors.NewToolExecutionError("t1", "compiler", fmt.Errorf("syntax error"))
	gen := &fakeGenerator{err: toolErr}
	e := New(gen)

	result := e.Execute(context.Background(), entities.NewAgent("coder"), entities.Task{TaskID: "t1", Description: "compile this", Priority: 1}, nil)
	if result.Status != entities.StatusFailure {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.ErrorDetails == nil || result.ErrorDetails.ErrorType != "ToolExecutionError" {
		t.Fatalf("expected a ToolExecutionError detail, got %+v", result.ErrorDetails)
	}
	if result.ErrorDetails.Component != "compiler" {
		t.Fatalf("expected component 'compiler', got %q", result.ErrorDetails.Component)
	}
}

func TestExecuteGenericErrorClassification(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("connection reset")}
	e := New(gen)

	result := e.Execute(context.Background(), entities.NewAgent("coder"), entities.Task{TaskID: "t1", Description: "do something", Priority: 1}, nil)
	if result.Status != entities.StatusFailure {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.ErrorDetails == nil || result.ErrorDetails.ErrorType != "ExecutionError" {
		t.Fatalf("expected an ExecutionError detail, got %+v", result.ErrorDetails)
	}
}

func TestExecuteIncludesHistoryWindow(t *testing.T) {
	gen := &fakeGenerator{out: "reply"}
	e := New(gen)
	ctxState := entities.NewExecutionContext("s2")
	for i := 0; i < 8; i++ {
		ctxState.AppendHistory("user", fmt.Sprintf("turn-%d", i))
	}

	e.Execute(context.Background(), entities.NewAgent("coder"), entities.Task{TaskID: "t1", Description: "continue the conversation", Priority: 1}, ctxState)

	// system + 5 history entries (window) + user = 7
	if len(gen.messages) != 7 {
		t.Fatalf("expected 7 messages (system + 5 history + user), got %d", len(gen.messages))
	}
}
