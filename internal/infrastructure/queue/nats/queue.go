package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/resilience"
)

const queueGroup = "erp-loaders"

// Queue publishes ERP dispatches to a subject and consumes them in the worker.
type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	logger   *slog.Logger
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("erp-document-processor"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// Deliver publishes the dispatch as JSON.
func (q *Queue) Deliver(ctx context.Context, dispatch domain.ERPDispatch) error {
	payload, err := encodeDispatch(dispatch)
	if err != nil {
		return err
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyPublishError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return publishFailure(err)
	}
	return nil
}

// SubscribeDispatches blocks until ctx is done, handing every decoded dispatch to handler.
// Undecodable messages are logged and skipped.
func (q *Queue) SubscribeDispatches(ctx context.Context, handler func(context.Context, domain.ERPDispatch) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, queueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		dispatch, err := decodeDispatch(msg.Data)
		if err != nil {
			q.logger.Error("erp_dispatch_decode_failed", "subject", msg.Subject, "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, dispatch); err != nil {
			q.logger.Error("erp_dispatch_handler_failed", "dispatch_id", dispatch.ID, "run_id", dispatch.RunID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func encodeDispatch(dispatch domain.ERPDispatch) ([]byte, error) {
	payload, err := json.Marshal(dispatch)
	if err != nil {
		return nil, fmt.Errorf("encode erp dispatch: %w", err)
	}
	return payload, nil
}

func decodeDispatch(data []byte) (domain.ERPDispatch, error) {
	var dispatch domain.ERPDispatch
	if err := json.Unmarshal(data, &dispatch); err != nil {
		return domain.ERPDispatch{}, domain.WrapError(domain.ErrInvalidInput, "decode erp dispatch", err)
	}
	if dispatch.ID == "" || dispatch.RunID == "" || !dispatch.Decision.Valid() {
		return domain.ERPDispatch{}, domain.WrapError(domain.ErrInvalidInput, "decode erp dispatch", fmt.Errorf("missing id, run_id or decision"))
	}
	return dispatch, nil
}
