package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/domain/model"
	repo "github.com/Tptin07/CDIO4-Fullstack-sub000/internal/repository"
	"github.com/Tptin07/CDIO4-Fullstack-sub000/internal/telemetry"

	"github.com/segmentio/kafka-go"
)

const (
	Topic            = "pharmacy.orders"
	defaultBatchSize = 100
)

// kafka.Writerのうちrelayが使う部分
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewWriter は注文イベント用のWriter。キーは注文コードなので同じ注文は同じパーティション
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// Relay は order_events の未送信行をKafkaへ送り、送れたものに sent_at を付ける。
// 取得から送信済みマークまで1つのTxで行い、行ロックで他のrelayと重ならない。
// 送信後のcommitに失敗すると再送されるので、受け側は event_id で重複を捨てる。
type Relay struct {
	tx        repo.TransactionManager
	writer    MessageWriter
	interval  time.Duration
	batchSize int
	now       func() time.Time
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

func NewRelay(tx repo.TransactionManager, writer MessageWriter, interval time.Duration, metrics *telemetry.Metrics, logger *slog.Logger) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	return &Relay{
		tx:        tx,
		writer:    writer,
		interval:  interval,
		batchSize: defaultBatchSize,
		now:       func() time.Time { return time.Now().UTC() },
		metrics:   metrics,
		logger:    logger,
	}
}

// ctxが終わるまでポーリングする
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "outbox flush failed", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Flush は1バッチ分を送る。送信済みにした件数を返す。
// 送信に失敗したイベントで止め、それより前の分だけcommitする（順序を保つため）。
func (r *Relay) Flush(ctx context.Context) (int, error) {
	sent := 0
	err := r.tx.WithinTx(ctx, func(txr repo.TxRepos) error {
		sent = 0
		events, err := txr.OrderEvents().FetchPending(ctx, r.batchSize)
		if err != nil {
			return err
		}

		for _, ev := range events {
			if err := r.writer.WriteMessages(ctx, toMessage(ev)); err != nil {
				r.metrics.ObserveOutbox(ev.EventType, "failed")
				r.logger.WarnContext(ctx, "publish order event failed",
					slog.Int64("event_id", ev.ID),
					slog.String("event_type", ev.EventType),
					slog.Any("error", err),
				)
				return nil
			}
			if err := txr.OrderEvents().MarkSent(ctx, ev.ID, r.now()); err != nil {
				return err
			}
			r.metrics.ObserveOutbox(ev.EventType, "sent")
			sent++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sent, nil
}

func toMessage(ev model.OrderEvent) kafka.Message {
	return kafka.Message{
		Key:   []byte(ev.OrderCode),
		Value: []byte(ev.Payload),
		Time:  ev.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.EventType)},
			{Key: "event_id", Value: []byte(ev.EventID)},
		},
	}
}
