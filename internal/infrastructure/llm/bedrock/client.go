package bedrock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/llm"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/resilience"
)

const providerName = "bedrock"

// DefaultModelID is the inference profile the service was built against.
const DefaultModelID = "apac.anthropic.claude-3-5-sonnet-20241022-v2:0"

// ConverseAPI is the part of *bedrockruntime.Client the invoker needs.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type ClientConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Endpoint        string
}

// NewRuntimeClient builds a Bedrock runtime client. Static credentials are used when both
// values are set; otherwise the default AWS credential chain applies.
func NewRuntimeClient(ctx context.Context, cfg ClientConfig) (*bedrockruntime.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	return bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

type Options struct {
	Decoding domain.DecodingParams
	Executor *resilience.Executor
	Usage    llm.UsageRecorder
	Logger   *slog.Logger
}

// Invoker sends one Converse request per prompt.
type Invoker struct {
	api      ConverseAPI
	modelID  string
	decoding domain.DecodingParams
	executor *resilience.Executor
	usage    llm.UsageRecorder
	logger   *slog.Logger
}

func NewInvoker(api ConverseAPI, modelID string, opts Options) *Invoker {
	if strings.TrimSpace(modelID) == "" {
		modelID = DefaultModelID
	}
	decoding := opts.Decoding
	if decoding.IsZero() {
		decoding = domain.DefaultDecoding()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{
		api:      api,
		modelID:  modelID,
		decoding: decoding,
		executor: opts.Executor,
		usage:    opts.Usage,
		logger:   logger,
	}
}

func (i *Invoker) Invoke(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	var reply string
	call := func(callCtx context.Context) error {
		text, err := i.converse(callCtx, prompt)
		if err != nil {
			return err
		}
		reply = text
		return nil
	}

	var err error
	if i.executor != nil {
		err = i.executor.Execute(ctx, "bedrock.converse", call, llm.ClassifyInvocationError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		invErr := asInvocationError(err)
		i.logger.Warn("inference_failed",
			"provider", providerName,
			"model", i.modelID,
			"reason", string(invErr.Reason),
			"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
			"error", invErr.Cause,
		)
		return "", invErr
	}

	i.logger.Info("inference_completed",
		"provider", providerName,
		"model", i.modelID,
		"reply_chars", len(reply),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return reply, nil
}

func (i *Invoker) converse(ctx context.Context, prompt string) (string, error) {
	out, err := i.api.Converse(ctx, i.buildInput(prompt))
	if err != nil {
		return "", domain.NewInvocationError(providerName, classifyBedrockError(err), err)
	}
	i.recordUsage(out)

	text, err := firstText(out)
	if err != nil {
		return "", domain.NewInvocationError(providerName, domain.ReasonEmptyReply, err)
	}
	return text, nil
}

func (i *Invoker) buildInput(prompt string) *bedrockruntime.ConverseInput {
	return &bedrockruntime.ConverseInput{
		ModelId: aws.String(i.modelID),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: prompt},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(i.decoding.MaxTokens),
			Temperature: aws.Float32(i.decoding.Temperature),
			TopP:        aws.Float32(i.decoding.TopP),
		},
	}
}

func (i *Invoker) recordUsage(out *bedrockruntime.ConverseOutput) {
	if i.usage == nil || out == nil || out.Usage == nil {
		return
	}
	i.usage.RecordTokenUsage(providerName, i.modelID,
		int(aws.ToInt32(out.Usage.InputTokens)),
		int(aws.ToInt32(out.Usage.OutputTokens)),
	)
}

func firstText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", fmt.Errorf("empty converse output")
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("converse output carries no message")
	}
	if len(msg.Value.Content) == 0 {
		return "", fmt.Errorf("converse message has no content")
	}
	text, ok := msg.Value.Content[0].(*types.ContentBlockMemberText)
	if !ok {
		return "", fmt.Errorf("first content block is not text")
	}
	return text.Value, nil
}
