package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/germanamz/statai/pkg/chats/chat"
	"github.com/germanamz/statai/pkg/chats/message"
	"github.com/germanamz/statai/pkg/credential"
	"github.com/germanamz/statai/pkg/inputs"
	"github.com/germanamz/statai/pkg/modeladapter"
	"github.com/germanamz/statai/pkg/prompt"
	"github.com/germanamz/statai/pkg/summary"
)

const missingKeyMessage = "Error: API key not found. Please set it using 'statai setkey <your_api_key>'"

// troubleshooting lines printed after a failed analyze request.
var analyzeHelp = []string{
	"Please try again in a few moments. If the problem persists:",
	"1. Check your internet connection",
	"2. Verify that api.deepseek.com is accessible",
	"3. Ensure your API key is valid",
	"4. Try using a different network if possible",
}

// troubleshooting lines printed after a failed interpret request.
var interpretHelp = []string{
	"",
	"Troubleshooting steps:",
	"1. Check your internet connection",
	"2. Verify that api.deepseek.com is accessible",
	"3. Ensure your API key is valid",
	"4. Try using a different network if possible",
	"5. If the problem persists, try again in a few minutes",
}

// discardLogger stands in for a nil Logger.
var discardLogger = slog.New(slog.DiscardHandler)

// Engine runs the statai commands against one configuration.
type Engine struct {
	cfg      Config
	out      io.Writer
	logger   *slog.Logger
	resolver *credential.Resolver
	markdown bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithOutput sets where replies and error messages are written (default
// os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

// WithLogger sets the diagnostic logger (default discards).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithResolver replaces the credential resolver.
func WithResolver(r *credential.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithMarkdown renders analyze and interpret replies as terminal markdown.
func WithMarkdown(on bool) Option {
	return func(e *Engine) { e.markdown = on }
}

// New validates cfg and creates an Engine. Without WithResolver the key is
// looked up in the process environment and the default key files under the
// user's home directory, or in cfg.KeyFiles when set.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg, out: os.Stdout}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = discardLogger
	}

	if e.resolver == nil {
		home, _ := os.UserHomeDir()
		e.resolver = credential.NewResolver(home)
		if len(cfg.KeyFiles) > 0 {
			e.resolver.Paths = cfg.KeyFiles
		}
	}
	if e.resolver.Logger == nil {
		e.resolver.Logger = e.logger
	}

	return e, nil
}

// ReadInstruction reads an analyze prompt file. On failure it reports the
// error and returns KindUnreadableInput.
func (e *Engine) ReadInstruction(path string) (string, Kind) {
	s, err := inputs.ReadPrompt(path)
	if err != nil {
		e.text().Fail(fmt.Sprintf("Error reading prompt file: %v", unwrapRead(err)))
		return "", Classify(err)
	}
	return s, KindNone
}

// Analyze asks for Stata commands for the variables listed in varFile. An
// empty, "analyze" or "general" instruction asks for general suggestions.
func (e *Engine) Analyze(ctx context.Context, instruction, varFile string) Kind {
	out := e.text()

	key, err := e.apiKey()
	if err != nil {
		out.Fail(missingKeyMessage)
		return Classify(err)
	}

	vars, err := inputs.ReadVariables(varFile)
	if err != nil {
		if errors.Is(err, inputs.ErrNoVariables) {
			out.Fail("Error: No variables found in dataset")
		} else {
			out.Fail(fmt.Sprintf("Error reading variable file: %v", unwrapRead(err)))
		}
		return Classify(err)
	}

	e.logger.DebugContext(ctx, "building analysis prompt",
		"variables", len(vars),
		"general", prompt.IsGeneral(instruction),
	)

	reply, err := e.complete(ctx, key, prompt.Analysis(instruction, vars), prompt.AnalysisSampling)
	if err != nil {
		kind := Classify(err)
		switch {
		case kind == KindUnexpectedResponse:
			out.Fail("Error: Unexpected API response format")
		case kind.Network():
			out.Fail(fmt.Sprintf("Error connecting to DeepSeek API: %v", err), analyzeHelp...)
		default:
			out.Fail(fmt.Sprintf("Error: %v", err))
		}
		return kind
	}

	out.Reply(CleanReply(reply.Content, true))
	return KindNone
}

// Interpret asks for an APA-style interpretation of a summary report. Both
// inputs are read and parsed before the API key is looked up.
func (e *Engine) Interpret(ctx context.Context, summaryFile, varsFile string) Kind {
	out := e.text()

	records, sumErr := summary.ParseFile(summaryFile)
	varInfo, varErr := inputs.ReadText(varsFile)

	if sumErr != nil || varErr != nil {
		details := make([]string, 0, 2)
		if sumErr != nil {
			e.logger.WarnContext(ctx, "summary statistics unusable", "file", summaryFile, "error", sumErr)
			details = append(details, "Failed to parse summary statistics")
		}
		if varErr != nil {
			e.logger.WarnContext(ctx, "variables information unusable", "file", varsFile, "error", varErr)
			details = append(details, "Failed to read variables information")
		}
		out.Fail("Error: Could not parse summary statistics or variables information", details...)

		return inputKind(sumErr, varErr)
	}

	if e.logger.Enabled(ctx, slog.LevelDebug) {
		e.logger.DebugContext(ctx, "parsed summary statistics",
			"file", summaryFile,
			"records", len(records),
			"table", "\n"+summary.Table(records),
		)
	}

	key, err := e.apiKey()
	if err != nil {
		out.Fail(missingKeyMessage)
		return Classify(err)
	}

	e.logger.DebugContext(ctx, "attempting to connect to DeepSeek API")

	reply, err := e.complete(ctx, key, prompt.Interpretation(varInfo, records), prompt.InterpretationSampling)
	if err != nil {
		kind := Classify(err)
		switch {
		case kind == KindUnexpectedResponse:
			out.Fail("Error: Invalid response format from API")
		case kind.Network():
			out.Fail(fmt.Sprintf("Error connecting to DeepSeek API: %v", err), interpretHelp...)
		default:
			out.Fail(fmt.Sprintf("Error: %v", err))
		}
		return kind
	}

	out.Reply("\n" + CleanReply(reply.Content, false) + "\n")
	return KindNone
}

// Chat forwards a single message. Replies are printed as-is and every error
// is printed as a JSON object.
func (e *Engine) Chat(ctx context.Context, text string) Kind {
	out := jsonReporter{w: e.out}

	key, err := e.apiKey()
	if err != nil {
		out.Fail("API key not found")
		return Classify(err)
	}

	reply, err := e.complete(ctx, key, prompt.Chat(text), prompt.ChatSampling)
	if err != nil {
		kind := Classify(err)
		if kind == KindUnexpectedResponse {
			out.Fail("Invalid response format from API")
		} else {
			out.Fail(err.Error())
		}
		return kind
	}

	out.Reply(CleanReply(reply.Content, false))
	return KindNone
}

func (e *Engine) text() reporter {
	return newTextReporter(e.out, e.markdown)
}

func (e *Engine) apiKey() (string, error) {
	cred, err := e.resolver.Resolve()
	if err != nil {
		return "", err
	}

	e.logger.Debug("api key resolved", "source", cred.Source)
	return cred.Key, nil
}

// complete builds a completer for one request and releases its connections
// before returning.
func (e *Engine) complete(ctx context.Context, key string, c *chat.Chat, s prompt.Sampling) (message.Message, error) {
	comp, err := buildCompleter(ProviderRequest{Config: e.cfg, APIKey: key, Sampling: s, Logger: e.logger})
	if err != nil {
		return message.Message{}, err
	}
	defer func() { _ = comp.Close() }()

	e.logger.DebugContext(ctx, "sending completion request",
		"messages", c.Len(),
		"temperature", s.Temperature,
		"max_tokens", s.MaxTokens,
	)

	reply, err := comp.Complete(ctx, c)

	if ur, ok := comp.(modeladapter.UsageReporter); ok {
		tracker := ur.UsageTracker()
		tokens := tracker.Total()
		e.logger.DebugContext(ctx, "token usage",
			"requests", tracker.Requests(),
			"prompt_tokens", tokens.PromptTokens,
			"completion_tokens", tokens.CompletionTokens,
		)
	}

	if err == nil && reply.Empty() {
		e.logger.WarnContext(ctx, "model returned an empty reply")
	}

	return reply, err
}

// inputKind picks the kind for failed interpret inputs. Read failures win
// over parse results.
func inputKind(sumErr, varErr error) Kind {
	var readErr *inputs.ReadError
	if errors.As(sumErr, &readErr) || errors.As(varErr, &readErr) {
		return KindUnreadableInput
	}
	if sumErr != nil {
		return Classify(sumErr)
	}
	return Classify(varErr)
}

// unwrapRead drops the ReadError prefix so messages read like the OS error.
func unwrapRead(err error) error {
	var readErr *inputs.ReadError
	if errors.As(err, &readErr) {
		return readErr.Err
	}
	return err
}
