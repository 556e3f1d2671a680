package bot

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"discord-guardian/config"
	"discord-guardian/database"
	"discord-guardian/gateway"
	"discord-guardian/models"
	"discord-guardian/moderation"
	"discord-guardian/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Bot encapsulates the bot's state and the wired moderation engine.
type Bot struct {
	Session *discordgo.Session
	DB      *sql.DB

	Config  models.ModerationConfig
	Auth    *utils.Auth
	RepDB   *database.ReputationDB
	WarnDB  *database.WarnDB
	FAQ     *database.FAQStore
	Gateway moderation.Gateway
	Engine  *moderation.Engine
	Sweeper *moderation.Sweeper

	commandDefs []*discordgo.ApplicationCommand
}

// NewBot creates and initializes a new Bot instance: configuration,
// logging, persistence and the moderation engine with its collaborators.
func NewBot() (*Bot, error) {
	config.LoadConfig()
	utils.InitLogger()

	token := viper.GetString("BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("no bot token provided")
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers | discordgo.IntentsMessageContent

	modCfg := config.Moderation()

	dbPath := viper.GetString("bot.dbPath")
	if dbPath == "" {
		dbPath = "data/bot_data.db"
	}
	db, err := database.InitDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	faqFile := viper.GetString("bot.faqFile")
	if faqFile == "" {
		faqFile = "faqs.json"
	}

	auth, err := utils.NewAuth()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error loading auth configuration: %w", err)
	}

	guildID := viper.GetString("bot.guildId")
	gw := gateway.NewDiscordGateway(dg, guildID)

	repDB := database.NewReputationDB(db, modCfg.Reputation)
	warnDB := database.NewWarnDB(db)

	classifier := moderation.NewGuardedClassifier(
		moderation.NewKeywordClassifier(modCfg.Classifier.ToxicWords, modCfg.Classifier.FlaggedMedia),
		time.Duration(modCfg.Classifier.TimeoutMs)*time.Millisecond,
	)

	// 管理豁免：ID 名单之外，服务器管理身份组同样豁免。
	authorize := func(userID string) bool {
		if auth.Authorize(userID) {
			return true
		}
		member, err := dg.State.Member(guildID, userID)
		if err != nil || member == nil {
			return false
		}
		return auth.IsAdmin(member)
	}

	engine := moderation.NewEngine(modCfg, repDB, warnDB, gw, classifier, authorize)
	sweeper := moderation.NewSweeper(modCfg, repDB, gw)

	return &Bot{
		Session: dg,
		DB:      db,
		Config:  modCfg,
		Auth:    auth,
		RepDB:   repDB,
		WarnDB:  warnDB,
		FAQ:     database.NewFAQStore(faqFile),
		Gateway: gw,
		Engine:  engine,
		Sweeper: sweeper,
	}, nil
}

// RegisterCommands stores the slash command definitions to create on start.
func (b *Bot) RegisterCommands(defs []*discordgo.ApplicationCommand) {
	b.commandDefs = defs
}

// Start opens the bot's session and registers handlers.
func (b *Bot) Start(registerHandlers func(*Bot)) error {
	registerHandlers(b)

	err := b.Session.Open()
	if err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands
	for _, def := range b.commandDefs {
		if _, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, "", def); err != nil {
			log.Error().Err(err).Str("command", def.Name).Msg("cannot create command")
		}
	}

	startScheduler(b)

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop gracefully closes the bot's session.
func (b *Bot) Stop() {
	stopScheduler()
	if b.Session != nil {
		b.Session.Close()
	}
	if b.DB != nil {
		b.DB.Close()
	}
	fmt.Println("Bot stopped gracefully.")
}

// Run is the main entry point for the bot application.
func Run(registerHandlers func(*Bot), defs []*discordgo.ApplicationCommand) {
	bot, err := NewBot()
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing bot")
	}

	bot.RegisterCommands(defs)

	if err := bot.Start(registerHandlers); err != nil {
		log.Fatal().Err(err).Msg("Error starting bot")
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	bot.Stop()
}
