// Command seed fills the configured store with demo users, found items and
// conversations so the app has something to show on a fresh install.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/iyunix/go-lostfound/internal/config"
	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/realtime"
	"github.com/iyunix/go-lostfound/internal/repository"
	"github.com/iyunix/go-lostfound/internal/repository/conversation"
	"github.com/iyunix/go-lostfound/internal/repository/item"
	"github.com/iyunix/go-lostfound/internal/repository/message"
	"github.com/iyunix/go-lostfound/internal/repository/user"
	"github.com/iyunix/go-lostfound/internal/services"
	"github.com/iyunix/go-lostfound/internal/services/chat"
	"github.com/iyunix/go-lostfound/internal/services/user_services"
)

var buildings = []string{"Library", "Engineering Hall", "Science Center", "Student Union", "Gym", "Arts Building"}

func main() {
	users := flag.Int("users", 10, "number of demo users")
	items := flag.Int("items", 30, "number of found items")
	chats := flag.Int("chats", 15, "number of claim conversations")
	password := flag.String("password", "password123", "password for every demo user")
	seed := flag.Int64("seed", 0, "random seed (0 uses the clock)")
	flag.Parse()

	if *users < 2 {
		log.Fatal("need at least two users to seed conversations")
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	gofakeit.Seed(*seed)

	cfg := config.Load()
	db, err := repository.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}
	logger := &services.NoOpLogger{}

	userRepo := user.NewGormUserRepository(db)
	itemRepo := item.NewItemRepository(db)
	secret := cfg.JWTSecretKey
	if secret == "" {
		secret = "seed-only"
	}
	accounts := user_services.NewUserService(userRepo, secret, cfg.AdminEmail, logger)
	reports := services.NewItemService(itemRepo, nil, logger)

	hub := realtime.NewHub(realtime.DefaultBuffer)
	defer hub.Close()
	chatService, err := chat.NewService(chat.DefaultConfig(), chat.Dependencies{
		Conversations: conversation.NewConversationRepository(db),
		Messages:      message.NewMessageRepository(db),
		Items:         itemRepo,
		Users:         userRepo,
		Feed:          hub,
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Chat Service: %v", err)
	}

	ctx := context.Background()

	var people []*domain.User
	for i := 0; i < *users; i++ {
		email := strings.ToLower(fmt.Sprintf("%s.%d@%s", gofakeit.Username(), i, "campus.example"))
		u, err := accounts.Register(ctx, email, *password, gofakeit.Name())
		if err != nil {
			log.Fatalf("register %s: %v", email, err)
		}
		people = append(people, u)
	}
	log.Printf("[Seed] Created %d users (password %q)", len(people), *password)

	var found []*domain.Item
	for i := 0; i < *items; i++ {
		finder := people[gofakeit.Number(0, len(people)-1)]
		when := gofakeit.DateRange(time.Now().AddDate(0, 0, -30), time.Now())
		in := services.ItemInput{
			Building:    gofakeit.RandomString(buildings),
			Classroom:   fmt.Sprintf("%s%d", gofakeit.RandomString([]string{"A", "B", "C"}), gofakeit.Number(100, 450)),
			Description: fmt.Sprintf("%s %s found %s", gofakeit.Color(), gofakeit.NounConcrete(), gofakeit.Sentence(6)),
			Category:    domain.Categories[gofakeit.Number(0, len(domain.Categories)-1)],
			Date:        when.Format("2006-01-02"),
			Time:        when.Format("15:04"),
		}
		it, err := reports.Report(ctx, finder.ID, in, nil)
		if err != nil {
			log.Fatalf("report item: %v", err)
		}
		found = append(found, it)
	}
	log.Printf("[Seed] Reported %d items", len(found))

	conversations := 0
	for attempt := 0; conversations < *chats && attempt < *chats*4 && len(found) > 0; attempt++ {
		it := found[gofakeit.Number(0, len(found)-1)]
		claimer := people[gofakeit.Number(0, len(people)-1)]
		if claimer.ID == it.UploaderID {
			continue
		}
		conv, err := chatService.ClaimItem(ctx, it.ID, claimer.ID)
		if err != nil {
			log.Fatalf("claim item %s: %v", it.ID, err)
		}
		for n := gofakeit.Number(1, 6); n > 0; n-- {
			sender := claimer.ID
			if n%2 == 0 {
				sender = it.UploaderID
			}
			if _, err := chatService.SendMessage(ctx, chat.SendInput{
				ConversationID: conv.ID,
				SenderID:       sender,
				Content:        gofakeit.Sentence(gofakeit.Number(3, 15)),
			}); err != nil {
				log.Fatalf("send message: %v", err)
			}
		}
		conversations++
	}
	log.Printf("[Seed] Opened %d conversations", conversations)
}
