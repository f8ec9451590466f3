// Package agent runs the conversational tool-call loop: the model is sent
// the conversation and the tool registry, requested tools are executed,
// and their results are fed back until the model answers in text.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
	"github.com/DAAIDev/AgentBoxDev/internal/server"
)

const (
	// DefaultMaxRounds caps completion requests per user message.
	DefaultMaxRounds = 10

	// EmptyAnswer is returned when the final turn has no text.
	EmptyAnswer = "I completed the request but have nothing further to add."

	// RoundLimitAnswer is returned when the round cap is reached.
	RoundLimitAnswer = "I stopped after reaching the maximum number of tool-call rounds. Please narrow the request and try again."
)

// DefaultSystemPrompt frames the model as the portfolio assistant.
const DefaultSystemPrompt = `You are the portfolio operations assistant. You manage portfolio companies, their milestones, requirements, contacts, documents and activity, the engineering task board, and deployment health.

Use the provided tools to read and change data; never invent records. Resolve companies by slug. When a tool returns an error, explain it or try a corrected call. Keep answers short and specific, and confirm what you changed.`

// CompletionRequest is one call to the model.
type CompletionRequest struct {
	System   string
	Messages []Message
	Tools    []server.Descriptor
}

// Completion is the model's reply.
type Completion struct {
	Content    []ContentBlock
	StopReason string
}

// Completer calls the language model.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// Tools is the registry the loop dispatches to.
type Tools interface {
	Descriptors() []server.Descriptor
	Call(ctx context.Context, name string, args map[string]any) (any, error)
}

// Result is the outcome of one user message.
type Result struct {
	Response string    `json:"response"`
	History  []Message `json:"conversation_history"`
	Rounds   int       `json:"-"`
	Capped   bool      `json:"-"`
}

// Loop drives conversations.
type Loop struct {
	completer Completer
	tools     Tools
	system    string
	maxRounds int
	logger    *zap.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithMaxRounds sets the completion round cap.
func WithMaxRounds(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxRounds = n
		}
	}
}

// WithSystemPrompt replaces the system instruction.
func WithSystemPrompt(s string) Option {
	return func(l *Loop) { l.system = s }
}

// New creates a Loop.
func New(completer Completer, tools Tools, logger *zap.Logger, opts ...Option) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loop{
		completer: completer,
		tools:     tools,
		system:    DefaultSystemPrompt,
		maxRounds: DefaultMaxRounds,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run appends message to history and loops until the model answers
// without requesting tools. Tool failures are returned to the model as
// error results; a completion failure aborts the run.
func (l *Loop) Run(ctx context.Context, history []Message, message string) (*Result, error) {
	msgs := make([]Message, 0, len(history)+3)
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: RoleUser, Content: []ContentBlock{TextBlock(message)}})

	descriptors := l.tools.Descriptors()
	for round := 1; round <= l.maxRounds; round++ {
		completion, err := l.completer.Complete(ctx, CompletionRequest{
			System:   l.system,
			Messages: msgs,
			Tools:    descriptors,
		})
		if err != nil {
			return nil, apperr.Upstream("completion", err, "round %d", round)
		}

		reply := Message{Role: RoleAssistant, Content: completion.Content}
		msgs = append(msgs, reply)

		calls := reply.ToolUses()
		if len(calls) == 0 {
			text, ok := reply.FirstText()
			if !ok {
				text = EmptyAnswer
			}
			return &Result{Response: text, History: msgs, Rounds: round}, nil
		}

		l.logger.Debug("executing tool calls", zap.Int("round", round), zap.Int("calls", len(calls)))
		msgs = append(msgs, Message{Role: RoleUser, Content: l.execute(ctx, calls)})
	}

	l.logger.Warn("agent loop hit round cap", zap.Int("max_rounds", l.maxRounds))
	msgs = append(msgs, Message{Role: RoleAssistant, Content: []ContentBlock{TextBlock(RoundLimitAnswer)}})
	return &Result{Response: RoundLimitAnswer, History: msgs, Rounds: l.maxRounds, Capped: true}, nil
}

// execute runs one turn's tool calls concurrently and returns their
// results in call order.
func (l *Loop) execute(ctx context.Context, calls []ContentBlock) []ContentBlock {
	results := make([]ContentBlock, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call ContentBlock) {
			defer wg.Done()
			results[i] = l.runTool(ctx, call)
		}(i, call)
	}
	wg.Wait()
	return results
}

func (l *Loop) runTool(ctx context.Context, call ContentBlock) (block ContentBlock) {
	block = ContentBlock{Type: BlockToolResult, ToolUseID: call.ID}
	defer func() {
		if r := recover(); r != nil {
			block.Content = errorJSON(fmt.Sprintf("tool %s panicked: %v", call.Name, r))
			block.IsError = true
		}
	}()

	args := map[string]any{}
	if len(call.Input) > 0 && string(call.Input) != "null" {
		if err := json.Unmarshal(call.Input, &args); err != nil {
			block.Content = errorJSON(fmt.Sprintf("invalid arguments for %s: %v", call.Name, err))
			block.IsError = true
			return block
		}
	}

	out, err := l.tools.Call(ctx, call.Name, args)
	if err != nil {
		l.logger.Info("tool call returned error to model", zap.String("tool", call.Name), zap.Error(err))
		block.Content = errorJSON(err.Error())
		block.IsError = true
		return block
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		block.Content = errorJSON(fmt.Sprintf("failed to encode %s result: %v", call.Name, err))
		block.IsError = true
		return block
	}
	block.Content = string(encoded)
	return block
}

func errorJSON(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}
