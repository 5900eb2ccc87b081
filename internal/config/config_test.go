package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "DOCPROC_CONFIG", "AWS_REGION", "BEDROCK_MODEL_ID", "INFERENCE_PROVIDER",
		"INFERENCE_RETRY_MAX_ATTEMPTS", "PIPELINE_MAX_CONCURRENT", "ERP_SINK", "NATS_SUBJECT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AWSRegion != "ap-south-1" {
		t.Fatalf("expected default region ap-south-1, got %q", cfg.AWSRegion)
	}
	if cfg.BedrockModelID != "apac.anthropic.claude-3-5-sonnet-20241022-v2:0" {
		t.Fatalf("unexpected default model %q", cfg.BedrockModelID)
	}
	if cfg.InferenceProvider != ProviderBedrock || cfg.ERPSink != SinkLog {
		t.Fatalf("unexpected provider/sink %q/%q", cfg.InferenceProvider, cfg.ERPSink)
	}
	if cfg.InferenceRetryMaxAttempts != 1 || cfg.PipelineMaxConcurrent != 1 {
		t.Fatalf("expected single attempt and single pipeline, got %d/%d", cfg.InferenceRetryMaxAttempts, cfg.PipelineMaxConcurrent)
	}
	if cfg.NATSSubject != "erp.dispatch" {
		t.Fatalf("unexpected subject %q", cfg.NATSSubject)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	clearEnv(t, "DOCPROC_CONFIG")
	t.Setenv("INFERENCE_PROVIDER", "Ollama")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("INFERENCE_BREAKER_ENABLED", "false")
	t.Setenv("PIPELINE_QUEUE_WAIT_MS", "250")
	t.Setenv("ERP_SINK", "postgres")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.InferenceProvider != ProviderOllama {
		t.Fatalf("expected ollama provider, got %q", cfg.InferenceProvider)
	}
	if cfg.APIRateLimitRPS != 2.5 || cfg.InferenceBreakerEnabled || cfg.PipelineQueueWaitMS != 250 {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if cfg.ERPSink != SinkPostgres {
		t.Fatalf("expected postgres sink, got %q", cfg.ERPSink)
	}
}

func TestLoadFallsBackOnUnparsableNumbers(t *testing.T) {
	clearEnv(t, "DOCPROC_CONFIG", "INFERENCE_PROVIDER", "ERP_SINK")
	t.Setenv("API_RATE_LIMIT_BURST", "lots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIRateLimitBurst != 5 {
		t.Fatalf("expected fallback burst 5, got %d", cfg.APIRateLimitBurst)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	clearEnv(t, "DOCPROC_CONFIG", "ERP_SINK")
	t.Setenv("INFERENCE_PROVIDER", "openai")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestLoadReadsYAMLOverlayAndEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docproc.yaml")
	content := "aws_region: eu-central-1\nPIPELINE_MAX_CONCURRENT: 3\nERP_SINK: nats\nOPENAPI_VALIDATION: true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	clearEnv(t, "AWS_REGION", "PIPELINE_MAX_CONCURRENT", "OPENAPI_VALIDATION", "INFERENCE_PROVIDER")
	t.Setenv("DOCPROC_CONFIG", path)
	t.Setenv("ERP_SINK", "log")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AWSRegion != "eu-central-1" || cfg.PipelineMaxConcurrent != 3 || !cfg.OpenAPIValidation {
		t.Fatalf("expected overlay values, got %+v", cfg)
	}
	if cfg.ERPSink != SinkLog {
		t.Fatalf("expected environment to win over overlay, got %q", cfg.ERPSink)
	}
}

func TestLoadReportsBrokenOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("key: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DOCPROC_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}
