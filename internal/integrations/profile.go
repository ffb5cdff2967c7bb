package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"nest-hub/internal/models"
)

const (
	defaultGithubGraphQLURL = "https://api.github.com/graphql"
	defaultLeetcodeBaseURL  = "https://alfa-leetcode-api.onrender.com"
	activityDays            = 30
)

const githubProfileQuery = `query($login: String!) {
  user(login: $login) {
    avatarUrl
    login
    bio
    url
    contributionsCollection {
      contributionCalendar {
        weeks {
          contributionDays {
            contributionCount
            date
          }
        }
      }
    }
  }
}`

type ProfileFetcherConfig struct {
	GithubToken     string
	GithubURL       string
	LeetcodeBaseURL string
	Client          *http.Client
	Clock           clockwork.Clock
	CacheTTL        time.Duration
	RatePerSecond   float64
}

type cacheItem struct {
	update    models.ProfileUpdate
	expiresAt time.Time
}

// ProfileFetcher pulls public profile data from GitHub and LeetCode. Results
// are cached per handle and outbound calls are rate limited.
type ProfileFetcher struct {
	githubToken string
	githubURL   string
	leetcodeURL string
	client      *http.Client
	clock       clockwork.Clock
	ttl         time.Duration
	cache       *lru.Cache[string, cacheItem]
	limiter     *rate.Limiter
}

func NewProfileFetcher(cfg ProfileFetcherConfig) (*ProfileFetcher, error) {
	if cfg.GithubURL == "" {
		cfg.GithubURL = defaultGithubGraphQLURL
	}
	if cfg.LeetcodeBaseURL == "" {
		cfg.LeetcodeBaseURL = defaultLeetcodeBaseURL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}

	cache, err := lru.New[string, cacheItem](500)
	if err != nil {
		return nil, fmt.Errorf("create profile cache: %w", err)
	}

	return &ProfileFetcher{
		githubToken: cfg.GithubToken,
		githubURL:   cfg.GithubURL,
		leetcodeURL: strings.TrimRight(cfg.LeetcodeBaseURL, "/"),
		client:      cfg.Client,
		clock:       cfg.Clock,
		ttl:         cfg.CacheTTL,
		cache:       cache,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RatePerSecond), int(cfg.RatePerSecond)+1),
	}, nil
}

// Fetch collects whatever the two services return for the given handles.
// Failures are logged and leave the matching fields unset; GitHub activity
// replaces LeetCode activity when both are present.
func (f *ProfileFetcher) Fetch(ctx context.Context, github, leetcode string) models.ProfileUpdate {
	var update models.ProfileUpdate

	if leetcode != "" {
		lc, err := f.cached(ctx, "leetcode:"+leetcode, func(ctx context.Context) (models.ProfileUpdate, error) {
			return f.fetchLeetcode(ctx, leetcode)
		})
		if err != nil {
			slog.Warn("leetcode fetch failed", "handle", leetcode, "err", err)
		} else {
			update.Activity = lc.Activity
		}
	}

	if github != "" && f.githubToken != "" {
		gh, err := f.cached(ctx, "github:"+github, func(ctx context.Context) (models.ProfileUpdate, error) {
			return f.fetchGithub(ctx, github)
		})
		if err != nil {
			slog.Warn("github fetch failed", "login", github, "err", err)
		} else {
			update.ProfileURL = gh.ProfileURL
			update.ProfilePicture = gh.ProfilePicture
			update.Readme = gh.Readme
			if gh.Activity != nil {
				update.Activity = gh.Activity
			}
		}
	}

	return update
}

func (f *ProfileFetcher) cached(ctx context.Context, key string, load func(context.Context) (models.ProfileUpdate, error)) (models.ProfileUpdate, error) {
	if item, ok := f.cache.Get(key); ok {
		if f.clock.Now().Before(item.expiresAt) {
			return item.update, nil
		}
		f.cache.Remove(key)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return models.ProfileUpdate{}, err
	}
	update, err := load(ctx)
	if err != nil {
		return models.ProfileUpdate{}, err
	}
	f.cache.Add(key, cacheItem{update: update, expiresAt: f.clock.Now().Add(f.ttl)})
	return update, nil
}

type githubGraphQLResponse struct {
	Data struct {
		User *struct {
			AvatarURL               string `json:"avatarUrl"`
			Bio                     string `json:"bio"`
			URL                     string `json:"url"`
			ContributionsCollection struct {
				ContributionCalendar struct {
					Weeks []struct {
						ContributionDays []struct {
							ContributionCount int    `json:"contributionCount"`
							Date              string `json:"date"`
						} `json:"contributionDays"`
					} `json:"weeks"`
				} `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (f *ProfileFetcher) fetchGithub(ctx context.Context, login string) (models.ProfileUpdate, error) {
	body, err := json.Marshal(map[string]any{
		"query":     githubProfileQuery,
		"variables": map[string]string{"login": login},
	})
	if err != nil {
		return models.ProfileUpdate{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.githubURL, bytes.NewReader(body))
	if err != nil {
		return models.ProfileUpdate{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.githubToken)

	var gr githubGraphQLResponse
	if err := f.doJSON(req, &gr); err != nil {
		return models.ProfileUpdate{}, err
	}
	if len(gr.Errors) > 0 {
		return models.ProfileUpdate{}, fmt.Errorf("github: %s", gr.Errors[0].Message)
	}
	if gr.Data.User == nil {
		return models.ProfileUpdate{}, fmt.Errorf("github user %q not found", login)
	}

	u := gr.Data.User
	var days []int
	for _, week := range u.ContributionsCollection.ContributionCalendar.Weeks {
		for _, day := range week.ContributionDays {
			days = append(days, day.ContributionCount)
		}
	}
	if len(days) > activityDays {
		days = days[len(days)-activityDays:]
	}
	if days == nil {
		days = []int{}
	}

	return models.ProfileUpdate{
		ProfileURL:     &u.URL,
		ProfilePicture: &u.AvatarURL,
		Readme:         &u.Bio,
		Activity:       days,
	}, nil
}

type leetcodeCalendar struct {
	SubmissionCalendar string `json:"submissionCalendar"`
}

func (f *ProfileFetcher) fetchLeetcode(ctx context.Context, handle string) (models.ProfileUpdate, error) {
	endpoint := fmt.Sprintf("%s/%s/calendar", f.leetcodeURL, url.PathEscape(handle))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.ProfileUpdate{}, err
	}

	var cal leetcodeCalendar
	if err := f.doJSON(req, &cal); err != nil {
		return models.ProfileUpdate{}, err
	}

	activity, err := lastDaysActivity(cal.SubmissionCalendar, f.clock.Now(), activityDays)
	if err != nil {
		return models.ProfileUpdate{}, err
	}
	return models.ProfileUpdate{Activity: activity}, nil
}

// lastDaysActivity turns LeetCode's {"unix-seconds": count} calendar into one
// count per UTC day, oldest first, ending today.
func lastDaysActivity(calendar string, now time.Time, days int) ([]int, error) {
	counts := map[string]int{}
	if strings.TrimSpace(calendar) != "" {
		if err := json.Unmarshal([]byte(calendar), &counts); err != nil {
			return nil, fmt.Errorf("parse submission calendar: %w", err)
		}
	}

	perDay := make(map[string]int, len(counts))
	for ts, n := range counts {
		secs, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			continue
		}
		perDay[time.Unix(secs, 0).UTC().Format(time.DateOnly)] += n
	}

	today := now.UTC().Truncate(24 * time.Hour)
	out := make([]int, days)
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, i-days+1)
		out[i] = perDay[day.Format(time.DateOnly)]
	}
	return out, nil
}

func (f *ProfileFetcher) doJSON(req *http.Request, out any) error {
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s returned %s", req.URL.Host, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
