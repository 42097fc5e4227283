package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-billing/internal/billing"
	"github.com/noah-isme/backend-billing/internal/config"
	"github.com/noah-isme/backend-billing/internal/money"
	"github.com/noah-isme/backend-billing/internal/obs"
	"github.com/noah-isme/backend-billing/internal/paylink"
)

// seeder writes a handful of demo bills so the console has something to show.
func main() {
	_ = godotenv.Load()
	logger := obs.NewLogger("console", "info")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(opts)
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	encoder, err := paylink.NewEncoder(paylink.Config{
		Scheme:       cfg.Payee.Scheme,
		PayeeHandle:  cfg.Payee.Handle,
		BusinessName: cfg.Payee.BusinessName,
		Currency:     cfg.Payee.Currency,
		Fields:       paylink.FieldsByName(cfg.Payee.FieldSet),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise encoder")
	}
	svc, err := billing.NewService(billing.ServiceConfig{
		Store:   billing.NewRedisStore(client, cfg.StorePrefix),
		Encoder: encoder,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise billing service")
	}

	for _, d := range demoDrafts() {
		bill, err := svc.Save(ctx, "", d)
		if err != nil {
			logger.Fatal().Err(err).Str("customer", d.CustomerName).Msg("seed bill")
		}
		logger.Info().
			Str("id", bill.ID).
			Str("customer", bill.CustomerName).
			Str("status", string(bill.Totals.Status)).
			Str("grand_total", bill.Totals.GrandTotal.String()).
			Msg("seeded bill")
	}
	logger.Info().Msg("seeding completed")
}

func demoDrafts() []billing.Draft {
	return []billing.Draft{
		{
			CustomerName:  "Asha Rao",
			CustomerPhone: "9800000001",
			Input: billing.Input{
				Items: []billing.LineItem{
					{Description: "Kurta stitching", Quantity: 2, UnitRate: money.FromMajor(500)},
				},
				Breakdown:  billing.ChargeBreakdown{Fabric: money.FromMajor(200)},
				TaxPercent: decimal.NewFromInt(10),
				PaidAmount: money.FromMajor(600),
			},
		},
		{
			CustomerName: "Ravi Kumar",
			Notes:        "Wedding order, deliver before the 20th",
			Input: billing.Input{
				Items: []billing.LineItem{
					{Description: "Sherwani", Quantity: 1, UnitRate: money.FromMajor(8500)},
					{Description: "Churidar", Quantity: 1, UnitRate: money.FromMajor(1200)},
				},
				Breakdown: billing.ChargeBreakdown{
					Accessories:   money.FromMajor(750),
					Customization: money.FromMajor(1500),
				},
				TaxPercent: decimal.NewFromInt(5),
				Discount:   billing.DiscountSpec{Amount: decimal.NewFromInt(10), Kind: billing.DiscountPercentage},
			},
		},
		{
			CustomerName: "Meena Iyer",
			Input: billing.Input{
				Items: []billing.LineItem{
					{Description: "Blouse alteration", Quantity: 3, UnitRate: money.FromMajor(150)},
				},
				PaidAmount: money.FromMajor(450),
			},
		},
	}
}
