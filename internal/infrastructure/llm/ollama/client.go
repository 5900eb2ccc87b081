package ollama

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/llm"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/resilience"
)

const providerName = "ollama"

type Options struct {
	Decoding   domain.DecodingParams
	Executor   *resilience.Executor
	Usage      llm.UsageRecorder
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// Client sends prompts to a local Ollama server through /api/generate.
type Client struct {
	baseURL    string
	model      string
	decoding   domain.DecodingParams
	executor   *resilience.Executor
	usage      llm.UsageRecorder
	logger     *slog.Logger
	httpClient *http.Client
}

func New(baseURL, model string, opts Options) *Client {
	decoding := opts.Decoding
	if decoding.IsZero() {
		decoding = domain.DefaultDecoding()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 300 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		decoding:   decoding,
		executor:   opts.Executor,
		usage:      opts.Usage,
		logger:     logger,
		httpClient: httpClient,
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict  int32   `json:"num_predict"`
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"top_p"`
}

type generateResponse struct {
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	var reply string
	call := func(callCtx context.Context) error {
		text, err := c.generate(callCtx, prompt)
		if err != nil {
			return err
		}
		reply = text
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama.generate", call, llm.ClassifyInvocationError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		invErr := asInvocationError(err)
		c.logger.Warn("inference_failed",
			"provider", providerName,
			"model", c.model,
			"reason", string(invErr.Reason),
			"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
			"error", invErr.Cause,
		)
		return "", invErr
	}

	c.logger.Info("inference_completed",
		"provider", providerName,
		"model", c.model,
		"reply_chars", len(reply),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return reply, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			NumPredict:  c.decoding.MaxTokens,
			Temperature: c.decoding.Temperature,
			TopP:        c.decoding.TopP,
		},
	}

	resp, err := c.postGenerate(ctx, req)
	if err != nil {
		return "", domain.NewInvocationError(providerName, classifyOllamaError(err), err)
	}
	if c.usage != nil {
		c.usage.RecordTokenUsage(providerName, c.model, resp.PromptEvalCount, resp.EvalCount)
	}

	// The reply goes to the interpreter exactly as generated; blank text fails there as
	// a malformed response with the raw reply attached.
	return resp.Response, nil
}
