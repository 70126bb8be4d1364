// Package app wires the bot together: configuration, infrastructure,
// conversation driver, history handlers and the command/callback registry.
package app

import (
	"context"
	"fmt"
	"time"

	"hotelscout/core/bootstrap"
	"hotelscout/core/telegram/commands"
	"hotelscout/core/telegram/router"
	"hotelscout/core/telegram/state"
	"hotelscout/internal/calendar"
	"hotelscout/internal/config"
	"hotelscout/internal/history"
	"hotelscout/internal/hotels"
	"hotelscout/internal/search"

	coretelegram "hotelscout/core/telegram"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// App holds the assembled bot.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	rdb      *redis.Client
	registry *coretelegram.Registry
	driver   *search.Driver
}

// Bootstrap initializes logging, the database and the session backend, then
// builds the conversation driver and registers all commands and callbacks.
func Bootstrap(cfg *config.Config) (*App, error) {
	boot, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	client, err := hotels.NewClient(hotels.Config{
		Host:    cfg.Hotels.Host,
		APIKey:  cfg.Hotels.APIKey,
		Timeout: cfg.Hotels.Timeout(),
		RPS:     cfg.Hotels.RequestsPerSecond,
		Locale:  cfg.Hotels.Locale,
	})
	if err != nil {
		_ = boot.DB.Close()
		return nil, fmt.Errorf("app: hotel client: %w", err)
	}

	a := &App{cfg: cfg, db: boot.DB}

	var sessions state.Manager[search.Criteria]
	if cfg.Sessions.Backend == config.SessionsRedis {
		a.rdb = redis.NewClient(&redis.Options{
			Addr: cfg.Sessions.RedisAddr,
			DB:   cfg.Sessions.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.rdb.Ping(pingCtx).Err(); err != nil {
			_ = boot.DB.Close()
			return nil, fmt.Errorf("app: redis ping: %w", err)
		}
		sessions = state.NewRedisManager[search.Criteria](a.rdb, "hotelscout", cfg.Sessions.TTL())
	} else {
		sessions = state.NewMemoryManager[search.Criteria]()
	}

	store := history.NewStore(boot.DB)
	histHandlers := history.NewHandlers(store)
	orch := search.NewOrchestrator(client, store, cfg.Search.DetailWorkers)
	a.driver = search.NewDriver(sessions, client, orch, cfg.Search.MaxHotels, cfg.Search.MaxImages)

	reg := coretelegram.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Start the bot",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "List available commands",
	})
	reg.RegisterCommand("/low", commands.Command{
		Handler:     a.driver.StartSearch(hotels.ModeLow),
		Description: "Cheapest hotels in a city",
	})
	reg.RegisterCommand("/high", commands.Command{
		Handler:     a.driver.StartSearch(hotels.ModeHigh),
		Description: "Most expensive hotels in a city",
	})
	reg.RegisterCommand("/bestdeals", commands.Command{
		Handler:     a.driver.StartSearch(hotels.ModeBestDeals),
		Description: "Hotels by price range and distance",
	})
	reg.RegisterCommand("/history", commands.Command{
		Handler:     histHandlers.Command,
		Description: "Your search history",
	})

	_ = reg.RegisterCallback(search.CallbackCity, a.driver.HandleCitySelected)
	_ = reg.RegisterCallback(calendar.CallbackUnique, a.driver.HandleCalendar)
	_ = reg.RegisterCallback(history.CallbackPage, histHandlers.PageCallback)
	_ = reg.RegisterCallback(history.CallbackDelete, histHandlers.DeleteCallback)

	reg.SetCallbackNotFound(a.UnknownCallback())

	a.registry = reg
	return a, nil
}

// TelegramRunOptions assembles the runtime options for the shared runner.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID: core.Telegram.AdminID,
	})
	routes = append(routes, router.TextRoutes(a.driver, a.registry, router.TextOptions{
		UnknownText:     a.UnknownText(),
		UnknownDocument: a.UnknownDocument(),
	})...)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: coretelegram.DefaultMiddlewares(core, nil),
		Routes:      routes,
		OnStop: func(context.Context, coretelegram.Runtime) error {
			if a.rdb != nil {
				_ = a.rdb.Close()
			}
			return a.db.Close()
		},
	}, nil
}
