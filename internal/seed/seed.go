// Package seed loads the demo accounts and posts, and generates extra fake
// data for local development.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/service"
	"inkwell/internal/store"
	"inkwell/internal/topics"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var fixtureData []byte

// Fixture is the parsed demo data set.
type Fixture struct {
	Password string        `yaml:"password"`
	Users    []UserFixture `yaml:"users"`
	Posts    []PostFixture `yaml:"posts"`
}

type UserFixture struct {
	Email    string         `yaml:"email"`
	Username string         `yaml:"username"`
	Name     string         `yaml:"name"`
	Bio      string         `yaml:"bio"`
	Joined   time.Time      `yaml:"joined"`
	Avatar   *AvatarFixture `yaml:"avatar"`
}

// AvatarFixture describes a diagonal gradient avatar.
type AvatarFixture struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type PostFixture struct {
	Title      string            `yaml:"title"`
	Topic      string            `yaml:"topic"`
	Author     string            `yaml:"author"`
	DaysAgo    int               `yaml:"days_ago"`
	Visibility models.Visibility `yaml:"visibility"`
	Content    string            `yaml:"content"`
}

// LoadFixture parses and checks the embedded demo data.
func LoadFixture() (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(fixtureData, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	authors := make(map[string]bool, len(f.Users))
	for _, u := range f.Users {
		authors[u.Username] = true
	}
	for _, p := range f.Posts {
		if !authors[p.Author] {
			return nil, fmt.Errorf("post %q: unknown author %q", p.Title, p.Author)
		}
		if !topics.Valid(p.Topic) {
			return nil, fmt.Errorf("post %q: unknown topic %q", p.Title, p.Topic)
		}
		if !p.Visibility.Valid() {
			return nil, fmt.Errorf("post %q: invalid visibility %q", p.Title, p.Visibility)
		}
	}
	return &f, nil
}

// Options configures a seeding run.
type Options struct {
	// Clean empties the store first.
	Clean bool
	// ExtraUsers fake accounts are generated after the fixture.
	ExtraUsers int
	// PostsPerUser fake posts are written by each extra account.
	PostsPerUser int
	// HashCost is the bcrypt cost. Zero uses the bcrypt default.
	HashCost int
	// Now anchors relative post dates. Defaults to time.Now.
	Now func() time.Time
}

// Result counts what a run created.
type Result struct {
	Users   int
	Posts   int
	Follows int
	// FixtureSkipped is set when the demo accounts already existed.
	FixtureSkipped bool
}

// Seed writes the demo data into st. It is safe to run against a store that
// was seeded before: the fixture is skipped when its first account exists.
func Seed(ctx context.Context, st *store.Store, opts Options) (*Result, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}

	fixture, err := LoadFixture()
	if err != nil {
		return nil, err
	}

	if opts.Clean {
		if err := st.Reset(ctx); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(fixture.Password), opts.HashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	res := &Result{}
	seeded, err := seedFixture(ctx, st, fixture, string(hash), opts.Now(), res)
	if err != nil {
		return nil, err
	}

	if opts.ExtraUsers > 0 {
		faker := gofakeit.New(opts.Now().UnixNano())
		if err := seedExtras(ctx, st, NewFactory(st, faker, string(hash)), seeded, opts, res); err != nil {
			return nil, err
		}
	}

	observability.Logger.InfoContext(ctx, "seed complete",
		"users", res.Users,
		"posts", res.Posts,
		"follows", res.Follows,
		"fixture_skipped", res.FixtureSkipped,
	)
	return res, nil
}

// seedFixture creates the fixture accounts and posts and returns the accounts.
func seedFixture(ctx context.Context, st *store.Store, f *Fixture, hash string, now time.Time, res *Result) ([]*models.User, error) {
	if len(f.Users) == 0 {
		return nil, nil
	}
	existing, err := st.Users.GetByEmail(ctx, f.Users[0].Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		res.FixtureSkipped = true
		return nil, nil
	}

	byUsername := make(map[string]*models.User, len(f.Users))
	users := make([]*models.User, 0, len(f.Users))
	for _, uf := range f.Users {
		user := &models.User{
			Email:        uf.Email,
			Username:     uf.Username,
			Name:         uf.Name,
			Bio:          uf.Bio,
			PasswordHash: hash,
			CreatedAt:    uf.Joined,
		}
		if uf.Avatar != nil {
			avatar, err := gradientAvatar(uf.Avatar.From, uf.Avatar.To)
			if err != nil {
				return nil, fmt.Errorf("avatar for %s: %w", uf.Username, err)
			}
			user.Avatar = &avatar
		}
		if err := st.Users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create user %s: %w", uf.Username, err)
		}
		byUsername[user.Username] = user
		users = append(users, user)
		res.Users++
	}

	for _, pf := range f.Posts {
		author := byUsername[pf.Author]
		post := &models.Post{
			Title:          pf.Title,
			Content:        pf.Content,
			Topic:          pf.Topic,
			AuthorID:       author.ID,
			AuthorName:     author.Name,
			AuthorUsername: author.Username,
			Visibility:     pf.Visibility,
			CreatedAt:      now.AddDate(0, 0, -pf.DaysAgo),
		}
		if err := st.Posts.Create(ctx, post); err != nil {
			return nil, fmt.Errorf("create post %q: %w", pf.Title, err)
		}
		res.Posts++
	}
	return users, nil
}

// seedExtras generates fake accounts with posts. Each one follows a random
// fixture account.
func seedExtras(ctx context.Context, st *store.Store, f *Factory, fixtureUsers []*models.User, opts Options, res *Result) error {
	for range opts.ExtraUsers {
		user, err := f.CreateUser(ctx)
		if err != nil {
			return err
		}
		res.Users++

		for range opts.PostsPerUser {
			if _, err := f.CreatePost(ctx, user); err != nil {
				return err
			}
			res.Posts++
		}

		if len(fixtureUsers) > 0 {
			target := fixtureUsers[f.faker.IntRange(0, len(fixtureUsers)-1)]
			created, err := st.Follows.Follow(ctx, user.ID, target.ID)
			if err != nil {
				return err
			}
			if created {
				res.Follows++
			}
		}
	}
	return nil
}

const avatarPixels = 128

// gradientAvatar draws a diagonal gradient between two #rrggbb colors.
func gradientAvatar(from, to string) (string, error) {
	a, err := parseHexColor(from)
	if err != nil {
		return "", err
	}
	b, err := parseHexColor(to)
	if err != nil {
		return "", err
	}

	img := image.NewRGBA(image.Rect(0, 0, avatarPixels, avatarPixels))
	span := float64(2 * (avatarPixels - 1))
	for y := range avatarPixels {
		for x := range avatarPixels {
			t := float64(x+y) / span
			img.SetRGBA(x, y, color.RGBA{
				R: lerp(a.R, b.R, t),
				G: lerp(a.G, b.G, t),
				B: lerp(a.B, b.B, t),
				A: 0xff,
			})
		}
	}
	return service.EncodeAvatar(img)
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

func parseHexColor(s string) (color.RGBA, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
