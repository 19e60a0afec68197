package main

import (
	"context"
	"os/signal"
	"syscall"

	orderrepo "github.com/k-code-yt/go-order-placement/internal/order/infra/repo"
	"github.com/k-code-yt/go-order-placement/internal/outbox"
	"github.com/k-code-yt/go-order-placement/pkg/config"
	pkgconstants "github.com/k-code-yt/go-order-placement/pkg/constants"
	"github.com/k-code-yt/go-order-placement/pkg/db/postgres"
	pkgkafka "github.com/k-code-yt/go-order-placement/pkg/kafka"
	"github.com/k-code-yt/go-order-placement/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnv()
	cfg := config.NewAppConfig()
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDBConn(postgres.NewPostgresConfig(pkgconstants.DBNameOrders))
	if err != nil {
		logrus.WithError(err).Fatal("RELAY:DB_CONN_FAILED")
	}
	defer db.Close()

	kafkaCfg := pkgkafka.NewKafkaConfig()
	encoder, err := pkgkafka.NewMsgEncoder(kafkaCfg.MsgEncoderType, pkgkafka.OrderCreatedAvroSchema)
	if err != nil {
		logrus.WithError(err).Fatal("RELAY:ENCODER_FAILED")
	}
	producer, err := pkgkafka.NewKafkaProducer(kafkaCfg)
	if err != nil {
		logrus.WithError(err).Fatal("RELAY:PRODUCER_FAILED")
	}
	defer producer.Close()

	relay := outbox.NewRelay(orderrepo.NewEventRepo(db), producer, encoder, outbox.RelayConfig{
		Topic:        kafkaCfg.OrderTopic,
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
	})
	if err := relay.Run(ctx); err != nil {
		logrus.WithError(err).Error("RELAY:STOPPED_WITH_ERROR")
	}
}
