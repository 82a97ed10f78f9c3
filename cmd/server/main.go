package main

import (
	"context"
	"flag"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"triage/api/grpcserver"
	"triage/config"
	"triage/domain/triage"
	"triage/infra/kafka"
	"triage/infra/outbox"
	"triage/infra/sequence"
	"triage/jobs/broadcaster"
	"triage/service"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// ---------------- Config ----------------

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("config load failed")
		}
		cfg = loaded
	}

	// ---------------- Outbox ----------------

	ob, err := outbox.Open(cfg.Outbox.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("outbox init failed")
	}
	defer ob.Close()

	// ---------------- Domain ----------------

	engine := triage.NewEngine(sequence.New(0))

	// ---------------- Service ----------------

	svc := service.NewTriageService(engine, ob, log)

	for _, seed := range cfg.Seed {
		if _, err := svc.Register(seed.Name, triage.Severity(seed.Severity), seed.Note); err != nil {
			log.Warn().Err(err).Str("name", seed.Name).Msg("seed patient rejected")
		}
	}

	// ---------------- Background Jobs ----------------

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := newPublisher(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("kafka producer init failed")
		}
		defer pub.Close()

		bc := broadcaster.New(ob, pub, 2*time.Second, log)
		go bc.Run(ctx)
	} else {
		log.Info().Msg("no kafka brokers configured, broadcaster disabled")
	}

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		log.Fatal().Err(err).Str("listen", cfg.Listen).Msg("listen failed")
	}

	grpcSrv := grpc.NewServer(
		grpc.ForceServerCodec(grpcserver.JSONCodec{}),
	)
	grpcSrv.RegisterService(&grpcserver.ServiceDesc, grpcserver.NewServer(svc, log))

	log.Info().Str("listen", cfg.Listen).Msg("triage engine running")

	if err := grpcSrv.Serve(lis); err != nil {
		log.Fatal().Err(err).Msg("gRPC server exited")
	}
}

func newPublisher(cfg *config.Config) (broadcaster.Publisher, error) {
	if cfg.Kafka.Producer == "writer" {
		return kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic), nil
	}
	return broadcaster.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
}
