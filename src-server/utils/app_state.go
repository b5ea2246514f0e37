package utils

import (
	"database/sql"
	"log/slog"
	"os"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type AppState struct {
	Config    *Config
	RawDB     *sql.DB
	BunDB     *bun.DB
	DgSession *discordgo.Session
	When      *when.Parser

	MetricChans        *Metric
	AppCloseSignalChan chan os.Signal

	// interaction routing tables, keyed by command name / custom id
	handlerMutex        sync.RWMutex
	appCmdInfo          map[string]*discordgo.ApplicationCommand
	appCmdHandler       map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error
	msgComponentHandler map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error
	modalHandler        map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error

	shutdownMutex sync.Mutex
	shutdownChans []*chan struct{}
}

func NewAppState() *AppState {
	as := &AppState{
		appCmdInfo:          make(map[string]*discordgo.ApplicationCommand),
		appCmdHandler:       make(map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error),
		msgComponentHandler: make(map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error),
		modalHandler:        make(map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error),
		AppCloseSignalChan:  make(chan os.Signal, 1),
	}

	// date parser for raw form fields, "tomorrow" works as well as "2024-06-01"
	as.When = when.New(nil)
	as.When.Add(en.All...)
	as.When.Add(common.All...)

	// env
	as.Config = NewConfig()

	as.MetricChans = NewMetric()

	// database
	var err error
	as.RawDB, err = sql.Open(sqliteshim.ShimName, as.Config.GetDatabasePath()+"?mode=rwc")
	if err != nil {
		slog.Error("cannot open sqlite database", "error", err)
		os.Exit(1)
	}
	as.RawDB.SetMaxIdleConns(8)

	as.BunDB = bun.NewDB(as.RawDB, sqlitedialect.New())
	as.BunDB.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithVerbose(false),
		bundebug.FromEnv("BUNDEBUG"),
	))

	as.DgSession, err = discordgo.New("Bot " + as.Config.GetDiscordAppToken())
	if err != nil {
		slog.Error("can't create Discord session", "error", err)
		os.Exit(1)
	}

	return as
}

func (as *AppState) AddAppCmdInfo(id string, info *discordgo.ApplicationCommand) {
	as.handlerMutex.Lock()
	defer as.handlerMutex.Unlock()
	as.appCmdInfo[id] = info
}

func (as *AppState) IterateAppCmdInfo(fn func(k string, v *discordgo.ApplicationCommand)) {
	as.handlerMutex.RLock()
	defer as.handlerMutex.RUnlock()
	for k, v := range as.appCmdInfo {
		fn(k, v)
	}
}

// The command info map is only needed until the commands are registered
// with Discord once at startup.
func (as *AppState) NukeAppCmdInfo() {
	as.handlerMutex.Lock()
	defer as.handlerMutex.Unlock()
	as.appCmdInfo = make(map[string]*discordgo.ApplicationCommand)
}

func (as *AppState) AddAppCmdHandler(id string, handler func(s *discordgo.Session, i *discordgo.InteractionCreate) error) {
	as.handlerMutex.Lock()
	defer as.handlerMutex.Unlock()
	as.appCmdHandler[id] = handler
}

func (as *AppState) RemoveAppCmdHandler(id string) {
	as.handlerMutex.Lock()
	defer as.handlerMutex.Unlock()
	delete(as.appCmdHandler, id)
}

func (as *AppState) GetAppCmdHandler(id string) (func(s *discordgo.Session, i *discordgo.InteractionCreate) error, bool) {
	as.handlerMutex.RLock()
	defer as.handlerMutex.RUnlock()
	handler, ok := as.appCmdHandler[id]
	return handler, ok
}

func (as *AppState) AddMsgComponentHandler(id string, handler func(s *discordgo.Session, i *discordgo.InteractionCreate) error) {
	as.handlerMutex.Lock()
	defer as.handlerMutex.Unlock()
	as.msgComponentHandler[id] = handler
}

func (as *AppState) RemoveMsgComponentHandler(id string) {
	as.handlerMutex.Lock()
	defer as.handlerMutex.Unlock()
	delete(as.msgComponentHandler, id)
}

func (as *AppState) GetMsgComponentHandler(id string) (func(s *discordgo.Session, i *discordgo.InteractionCreate) error, bool) {
	as.handlerMutex.RLock()
	defer as.handlerMutex.RUnlock()
	handler, ok := as.msgComponentHandler[id]
	return handler, ok
}

func (as *AppState) AddModalHandler(id string, handler func(s *discordgo.Session, i *discordgo.InteractionCreate) error) {
	as.handlerMutex.Lock()
	defer as.handlerMutex.Unlock()
	as.modalHandler[id] = handler
}

func (as *AppState) RemoveModalHandler(id string) {
	as.handlerMutex.Lock()
	defer as.handlerMutex.Unlock()
	delete(as.modalHandler, id)
}

func (as *AppState) GetModalHandler(id string) (func(s *discordgo.Session, i *discordgo.InteractionCreate) error, bool) {
	as.handlerMutex.RLock()
	defer as.handlerMutex.RUnlock()
	handler, ok := as.modalHandler[id]
	return handler, ok
}

// CreateGracefulShutdownChan hands out a channel that is closed when the
// app is shutting down, for long-running goroutines to clean up after
// themselves.
func (as *AppState) CreateGracefulShutdownChan() *chan struct{} {
	as.shutdownMutex.Lock()
	defer as.shutdownMutex.Unlock()
	ch := make(chan struct{})
	as.shutdownChans = append(as.shutdownChans, &ch)
	return &ch
}

func (as *AppState) GracefulShutdown() {
	as.shutdownMutex.Lock()
	defer as.shutdownMutex.Unlock()
	for _, ch := range as.shutdownChans {
		close(*ch)
	}
	as.shutdownChans = nil
}
