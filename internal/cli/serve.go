package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ringbridge/ringbridge/internal/bot"
	"github.com/ringbridge/ringbridge/internal/config"
	"github.com/ringbridge/ringbridge/internal/identity"
	"github.com/ringbridge/ringbridge/internal/message"
	"github.com/ringbridge/ringbridge/internal/platform"
	"github.com/ringbridge/ringbridge/internal/server"
	"github.com/ringbridge/ringbridge/internal/store"
)

var serveSubscribe bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook gateway",
	Run:   runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveSubscribe, "subscribe", false,
		"create the event subscription on startup (pre-provisioned mode)")
}

func runServe(cmd *cobra.Command, args []string) {
	printHeader("🌐 RingBridge Gateway")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}

	storePath, err := config.ExpandHome(cfg.Store.Path)
	if err != nil {
		fmt.Printf("Store path error: %v\n", err)
		os.Exit(1)
	}
	creds, err := store.Open(storePath)
	if err != nil {
		fmt.Printf("Credential store error: %v\n", err)
		os.Exit(1)
	}
	defer creds.Close()

	ids := identity.NewTracker()
	client := platform.NewClient(cfg.Platform.APIRoot)
	subs := platform.NewSubscriptionManager(client, cfg.Platform.RedirectURI, creds)
	oauth := platform.NewOAuthManager(cfg.Platform, client, ids, subs, creds)
	b := bot.New(client, ids)

	if cfg.Platform.IncomingWebhookURL != "" {
		if err := b.ConfigureIncomingWebhook(cfg.Platform.IncomingWebhookURL); err != nil {
			fmt.Printf("Webhook config error: %v\n", err)
			os.Exit(1)
		}
	}
	b.OnMessage(func(b *bot.Bot, m *message.Message) {
		slog.Info("message received", "channel", m.Channel, "user", m.User, "type", m.Type)
		if cfg.Platform.IncomingWebhookURL != "" {
			if _, err := b.SendWebhook(context.Background(), m.Fields()); err != nil {
				slog.Error("webhook relay failed", "error", err)
			}
		}
	})
	oauth.OnComplete(func(token string, err error) {
		if err != nil {
			slog.Error("authorization flow failed", "error", err)
			return
		}
		slog.Info("authorization complete")
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case cfg.Platform.AccessToken != "":
		// Pre-provisioned token from config: install it directly.
		if err := oauth.PreProvision(ctx, cfg.Platform.AccessToken); err != nil {
			slog.Error("identity resolution failed; self-message filtering degraded", "error", err)
		}
		if serveSubscribe {
			if _, err := subs.Create(ctx); err != nil {
				fmt.Printf("Subscription error: %v\n", err)
				os.Exit(1)
			}
		}
	default:
		if stored, err := creds.Load(); err == nil && stored != nil {
			// Resume the credential persisted by an earlier authorization.
			if err := oauth.PreProvision(ctx, stored.AccessToken); err != nil {
				slog.Error("identity resolution failed; self-message filtering degraded", "error", err)
			}
			slog.Info("resumed stored credential", "subscriptionId", stored.SubscriptionID)
		} else {
			fmt.Println("Authorize the bot by visiting:")
			fmt.Println("  " + oauth.AuthorizeURL(uuid.NewString()))
		}
	}

	srv := server.New(cfg.Gateway, b, oauth)
	if err := srv.Start(ctx); err != nil {
		fmt.Printf("Server error: %v\n", err)
		os.Exit(1)
	}
}
