package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"unsplash-cli/internal/api"
	"unsplash-cli/internal/config"
	"unsplash-cli/internal/unsplash"
)

// saveScanPages bounds how many feed pages -save walks looking for a photo id.
const saveScanPages = 5

func main() {
	var (
		configFlag  = flag.String("config", "", "Path to the YAML config file")
		loginFlag   = flag.Bool("login", false, "Authenticate against Unsplash")
		logoutFlag  = flag.Bool("logout", false, "Forget the stored token")
		feedFlag    = flag.Int("feed", 0, "Print N pages of the photo feed")
		likeFlag    = flag.String("like", "", "Like a photo by id")
		unlikeFlag  = flag.String("unlike", "", "Unlike a photo by id")
		profileFlag = flag.Bool("profile", false, "Show the logged-in user's profile")
		saveFlag    = flag.String("save", "", "Download a photo by id")
		dirFlag     = flag.String("dir", ".", "Directory -save writes to")
		helpFlag    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *helpFlag {
		showHelp()
		return
	}

	a, err := newApp(*configFlag)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	ctx := context.Background()

	switch {
	case *loginFlag:
		if err := a.login(ctx); err != nil {
			log.Fatalf("Login failed: %v", err)
		}
	case *logoutFlag:
		if err := a.logout(); err != nil {
			log.Fatalf("Logout failed: %v", err)
		}
	case *feedFlag > 0:
		if err := a.printFeed(ctx, *feedFlag); err != nil {
			log.Fatalf("Failed to fetch feed: %v", err)
		}
	case *likeFlag != "":
		if err := a.feed.ToggleLike(ctx, *likeFlag, false); err != nil {
			log.Fatalf("Failed to like photo: %v", err)
		}
		fmt.Printf("Liked %s\n", *likeFlag)
	case *unlikeFlag != "":
		if err := a.feed.ToggleLike(ctx, *unlikeFlag, true); err != nil {
			log.Fatalf("Failed to unlike photo: %v", err)
		}
		fmt.Printf("Unliked %s\n", *unlikeFlag)
	case *profileFlag:
		if err := a.printProfile(ctx); err != nil {
			log.Fatalf("Failed to fetch profile: %v", err)
		}
	case *saveFlag != "":
		if err := a.savePhoto(ctx, *saveFlag, *dirFlag); err != nil {
			log.Fatalf("Failed to save photo: %v", err)
		}
	default:
		showHelp()
	}
}

// app is the composition root: every client is constructed and wired here,
// no package-level singletons.
type app struct {
	cfg     *config.Config
	store   *config.TokenStore
	flow    *api.AuthFlow
	oauth   *api.OAuthClient
	feed    *unsplash.FeedClient
	profile *unsplash.ProfileClient
	cache   *unsplash.PhotoCache
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, &api.ConfigurationError{Reason: "unknown log level " + cfg.LogLevel}
	}
	logrus.SetLevel(level)

	store, err := config.OpenTokenStore()
	if err != nil {
		return nil, err
	}

	flow := api.NewAuthFlow(cfg.Credentials())
	// The OAuth client talks to a single endpoint; a newer exchange
	// supersedes an older one.
	oauth := api.NewOAuthClient(flow, api.NewClient(api.WithSupersede()))

	authed := api.NewClient(api.WithTokenProvider(store))
	feed := unsplash.NewFeedClient(authed, unsplash.FeedConfig{
		PageSize: cfg.PageSize,
		OrderBy:  unsplash.OrderBy(cfg.OrderBy),
	})

	return &app{
		cfg:     cfg,
		store:   store,
		flow:    flow,
		oauth:   oauth,
		feed:    feed,
		profile: unsplash.NewProfileClient(authed, ""),
		cache:   unsplash.NewPhotoCache(cfg.CacheDir, authed),
	}, nil
}

func (a *app) login(ctx context.Context) error {
	code, err := a.flow.AuthorizeBrowser(ctx)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	token, err := a.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}
	if err := a.store.Save(token); err != nil {
		return err
	}

	fmt.Println("Logged in.")
	return nil
}

func (a *app) logout() error {
	if err := a.store.Clear(); err != nil {
		return err
	}
	a.feed.Reset()
	fmt.Println("Logged out.")
	return nil
}

func (a *app) printFeed(ctx context.Context, pages int) error {
	a.feed.OnFeedChanged(func(added int) {
		photos := a.feed.Photos()
		for _, photo := range photos[len(photos)-added:] {
			liked := " "
			if photo.LikedByMe {
				liked = "*"
			}
			fmt.Printf("%s %-12s %-10s %s\n", liked, photo.ID, photo.Size(), photo.Description)
		}
	})

	for i := 0; i < pages; i++ {
		if err := a.feed.FetchNextPage(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) printProfile(ctx context.Context) error {
	profile, err := a.profile.FetchProfile(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", profile.DisplayName(), profile.LoginHandle())
	if profile.Bio != "" {
		fmt.Printf("%s\n", profile.Bio)
	}

	avatar, err := a.profile.FetchAvatarURL(ctx, profile.Username)
	if err != nil {
		return err
	}
	fmt.Printf("Avatar: %s\n", avatar)
	return nil
}

func (a *app) savePhoto(ctx context.Context, photoID, dir string) error {
	photo, err := a.findPhoto(ctx, photoID)
	if err != nil {
		return err
	}

	// Full-resolution and thumbnail bytes are independent downloads.
	group, gctx := errgroup.WithContext(ctx)
	for _, variant := range []string{"full", "thumb"} {
		group.Go(func() error {
			data, err := a.cache.Fetch(gctx, *photo, variant)
			if err != nil {
				return err
			}
			name := filepath.Join(dir, fmt.Sprintf("%s-%s.jpg", photo.ID, variant))
			if err := os.WriteFile(name, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", name, err)
			}
			fmt.Printf("Saved %s\n", name)
			return nil
		})
	}
	return group.Wait()
}

func (a *app) findPhoto(ctx context.Context, photoID string) (*unsplash.Photo, error) {
	for i := 0; ; i++ {
		for _, photo := range a.feed.Photos() {
			if photo.ID == photoID {
				return &photo, nil
			}
		}
		if i == saveScanPages {
			return nil, errors.New("photo " + photoID + " not found in the first feed pages")
		}
		if err := a.feed.FetchNextPage(ctx); err != nil {
			return nil, err
		}
	}
}

func showHelp() {
	fmt.Println("Unsplash CLI - browse and like Unsplash photos from the terminal")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  unsplash -login                 Authenticate via the browser")
	fmt.Println("  unsplash -logout                Forget the stored token")
	fmt.Println("  unsplash -feed N                Print N pages of the photo feed")
	fmt.Println("  unsplash -like <id>             Like a photo")
	fmt.Println("  unsplash -unlike <id>           Unlike a photo")
	fmt.Println("  unsplash -profile               Show your profile")
	fmt.Println("  unsplash -save <id> [-dir D]    Download a photo")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("  UNSPLASH_CLIENT_ID / UNSPLASH_CLIENT_SECRET environment variables,")
	fmt.Println("  or a YAML config file (see -config).")
}
