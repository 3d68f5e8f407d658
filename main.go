package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"autotrader/internal/api"
	"autotrader/internal/controller"
	"autotrader/internal/events"
	"autotrader/internal/gateway"
	"autotrader/internal/ledger"
	"autotrader/internal/marketdata"
	"autotrader/pkg/config"
	"autotrader/pkg/db"
	"autotrader/pkg/exchanges/common"
	"autotrader/pkg/market"
	marketbinance "autotrader/pkg/market/binance"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := cfg.ValidateCredentials(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}
	log.Printf("starting auto-trading core on port %s (venue=%s testnet=%v)", cfg.Port, cfg.Exchange, cfg.Testnet)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}
	defer database.Close()
	if err := db.ApplyMigrations(database); err != nil {
		log.Fatalf("db migrations failed: %v", err)
	}

	// Order history seeded from DB, persisted write-behind.
	store := ledger.NewSQLStore(database.Queries())
	led := ledger.New(store)
	if orders, err := store.LoadOrders(ctx); err != nil {
		log.Printf("order history load failed: %v (starting empty)", err)
	} else {
		led.Seed(orders)
		log.Printf("order history loaded: %d orders", led.Len())
	}

	// Exchange gateway selection
	gw, err := gateway.New(common.Credentials{
		Exchange:   common.Exchange(cfg.Exchange),
		APIKey:     cfg.APIKey,
		APISecret:  cfg.APISecret,
		Passphrase: cfg.APIPassphrase,
		Testnet:    cfg.Testnet,
	})
	if err != nil {
		log.Fatalf("gateway init failed: %v", err)
	}
	log.Printf("gateway ready: %s", gw.Name())

	policy, err := controller.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		log.Fatalf("policy load failed: %v", err)
	}
	log.Printf("policy: riskGating=%v maxRiskPct=%.2f execTimeout=%s", policy.RiskGating, policy.MaxRiskPct, policy.ExecTimeout)

	ctrl := controller.New(gw, led, bus, policy)

	// Market data: periodic snapshot refresh for every configured symbol.
	marketClient := marketbinance.NewClient(cfg.Testnet)
	cache := marketdata.NewCache(marketClient, cfg.RefreshInterval)
	for _, sym := range cfg.Symbols {
		unsub := cache.Subscribe(sym, func(snap market.Snapshot) {
			bus.Publish(events.EventPriceTick, market.Tick{
				Symbol: snap.Symbol,
				Price:  snap.Price,
				Time:   snap.Timestamp.UnixMilli(),
			})
		})
		defer unsub()
	}

	// Optional low-latency tick feed over websocket.
	if cfg.EnableTickFeed {
		stream := marketbinance.NewStreamClient(cfg.Testnet)
		for _, sym := range cfg.Symbols {
			ticks, stop, err := stream.SubscribeTicks(ctx, sym)
			if err != nil {
				log.Printf("tick feed %s: %v (continuing without)", sym, err)
				continue
			}
			defer stop()
			go func() {
				for tick := range ticks {
					bus.Publish(events.EventPriceTick, tick)
				}
			}()
		}
	}

	buildVersion := os.Getenv("APP_VERSION")
	if buildVersion == "" {
		buildVersion = "v1.0-dev"
	}
	server := api.NewServer(ctrl, cache, bus, database.Queries(), api.SystemMeta{
		Venue:   cfg.Exchange,
		Testnet: cfg.Testnet,
		Symbols: cfg.Symbols,
		Version: buildVersion,
	}, cfg.JWTSecret)
	go func() {
		if err := server.Start(":" + cfg.Port); err != nil {
			log.Fatalf("api server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("shutting down")
}
