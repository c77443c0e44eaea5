package main

import (
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cardparty/internal/game"
	"cardparty/internal/game/cardsagainst"
	"cardparty/internal/room"
	"cardparty/internal/server"
	"cardparty/internal/storage"
)

var CLI struct {
	Addr  string `help:"Address to listen on." default:":8080"`
	DB    string `help:"Path to the SQLite database." default:"cardparty.db"`
	Debug bool   `help:"Enable debug logging."`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("cardparty"),
		kong.Description("Party card game server."),
		kong.UsageOnError())

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	store, err := storage.New(CLI.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer store.Close()

	registry := game.NewRegistry()
	registry.Register(cardsagainst.CardsAgainst{})

	mgr := room.NewManager(registry, store)
	if err := mgr.Restore(); err != nil {
		log.Warn().Err(err).Msg("restore rooms")
	}

	// Cleanup stale rooms every minute, remove after 1 hour
	go mgr.CleanupLoop(1*time.Minute, 1*time.Hour)

	srv := server.New(registry, mgr)

	log.Info().Str("addr", CLI.Addr).Msg("listening")
	if err := http.ListenAndServe(CLI.Addr, srv); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}
