package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"github.com/danielpatrickdp/correction-synth/internal/config"
	"github.com/danielpatrickdp/correction-synth/internal/taxonomy"
	"github.com/danielpatrickdp/correction-synth/internal/validator"
)

// #region main

func main() {
	envFile := flag.String("env", ".env", "optional .env file")
	addr := flag.String("addr", "", "listen address; defaults to SYNTH_VALIDATOR_ADDR or :50551")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger := cfg.Logger().WithTag("VALIDATOR")

	listen := *addr
	if listen == "" {
		listen = cfg.ValidatorAddr
	}
	if listen == "" {
		listen = ":50551"
	}

	reg := taxonomy.Default()
	if cfg.TaxonomyPath != "" {
		if reg, err = taxonomy.Load(cfg.TaxonomyPath); err != nil {
			fmt.Fprintf(os.Stderr, "taxonomy: %v\n", err)
			os.Exit(2)
		}
	}

	lis, err := net.Listen("tcp", listen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "listen %s: %v\n", listen, err)
		os.Exit(2)
	}

	srv := grpc.NewServer()
	validator.RegisterComplianceValidatorServer(srv, &validator.Server{Checker: validator.NewPatternChecker(reg)})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		srv.GracefulStop()
	}()

	logger.Info("serving pattern checker on %s (%d gates)", lis.Addr(), len(reg.GateIDs()))
	if err := srv.Serve(lis); err != nil {
		fmt.Fprintf(os.Stderr, "serve: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main
