package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/khoahotran/devprofile/adapters/event"
	"github.com/khoahotran/devprofile/adapters/persistence"
	"github.com/khoahotran/devprofile/adapters/persistence/memory"
	"github.com/khoahotran/devprofile/adapters/persistence/mongodb"
	authUC "github.com/khoahotran/devprofile/internal/application/usecase/auth"
	profileUC "github.com/khoahotran/devprofile/internal/application/usecase/profile"
	"github.com/khoahotran/devprofile/internal/config"
	"github.com/khoahotran/devprofile/internal/domain/profile"
	"github.com/khoahotran/devprofile/internal/domain/user"
	"github.com/khoahotran/devprofile/pkg/apperror"
	"github.com/khoahotran/devprofile/pkg/auth"
	"github.com/khoahotran/devprofile/pkg/logger"
)

// seeds one demo developer with a profile, an experience and an education
// entry, going through the same use cases as the API
func main() {
	fmt.Println("adding demo developer into database...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	email := envOr("DEMO_EMAIL", "demo@devprofile.local")
	password := envOr("DEMO_PASSWORD", "demo123")

	ctx := context.Background()
	users, profiles, closeFn := openRepos(ctx, cfg, appLogger)
	defer closeFn()

	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	pub := event.NopPublisher{}

	_, err = authUC.NewRegisterUseCase(users, jwtSvc, pub, appLogger).Execute(ctx, authUC.RegisterInput{
		Name: "Demo Developer", Email: email, Password: password,
	})
	if err != nil && !errors.Is(err, apperror.ErrConflict) {
		log.Fatalf("cannot register demo user: %v", err)
	}

	u, err := users.FindByEmail(ctx, email)
	if err != nil {
		log.Fatalf("cannot load demo user: %v", err)
	}

	uc := profileUC.NewProfileUseCase(profiles, users, pub, memory.NewTokenRevoker(), nil, cfg.Auth.TokenLifespan, appLogger)
	website, github := "devprofile.local", "octocat"
	out, err := uc.ExecuteUpsert(ctx, profileUC.UpsertProfileInput{
		UserID:         u.ID,
		Status:         "Developer",
		Skills:         profileUC.ParseSkills("Go,PostgreSQL,Kafka"),
		Website:        &website,
		GithubUsername: &github,
	})
	if err != nil {
		log.Fatalf("cannot upsert demo profile: %v", err)
	}

	if len(out.Profile.Experience) == 0 {
		_, err = uc.ExecuteAddExperience(ctx, profileUC.AddExperienceInput{
			UserID: u.ID, Title: "Backend Engineer", Company: "Acme", From: out.Profile.Date.AddDate(-3, 0, 0), Current: true,
		})
		if err != nil {
			log.Fatalf("cannot add demo experience: %v", err)
		}
	}
	if len(out.Profile.Education) == 0 {
		_, err = uc.ExecuteAddEducation(ctx, profileUC.AddEducationInput{
			UserID: u.ID, School: "Open University", Degree: "BSc", FieldOfStudy: "Computer Science",
			From: out.Profile.Date.AddDate(-8, 0, 0), To: ptrTime(out.Profile.Date.AddDate(-5, 0, 0)),
		})
		if err != nil {
			log.Fatalf("cannot add demo education: %v", err)
		}
	}

	fmt.Printf("added or updated demo developer '%s' (%s) successfully!\n", email, u.ID)
}

func openRepos(ctx context.Context, cfg config.Config, log logger.Logger) (user.Repository, profile.Repository, func()) {
	switch cfg.DB.Driver {
	case config.DriverMongo:
		db, err := mongodb.NewMongoDatabase(ctx, cfg, log)
		if err != nil {
			log.Fatal("cannot connect MongoDB", err)
		}
		return mongodb.NewMongoUserRepo(db, log), mongodb.NewMongoProfileRepo(db, log), func() { _ = db.Client().Disconnect(context.Background()) }
	case config.DriverPostgres:
		pool, err := persistence.NewPostgresPool(cfg, log)
		if err != nil {
			log.Fatal("cannot connect DB", err)
		}
		return persistence.NewPostgresUserRepo(pool, log), persistence.NewPostgresProfileRepo(pool, log), pool.Close
	}
	log.Fatal("seeding needs a persistent store", fmt.Errorf("unsupported db driver %q", cfg.DB.Driver))
	return nil, nil, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func ptrTime(t time.Time) *time.Time { return &t }
